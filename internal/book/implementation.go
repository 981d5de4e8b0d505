// internal/book/implementation.go
package book

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"libraryql/internal/apperr"
	"libraryql/internal/author"
	"libraryql/internal/docstore"
	"libraryql/internal/repository"
)

const resource = "book"

// service implements the Service interface.
type service struct {
	books   docstore.Collection[Book]
	authors author.Service
	opts    repository.Options
}

// NewService creates a new book repository. authors receives the reverse
// bookIds appends issued by Create.
func NewService(books docstore.Collection[Book], authors author.Service, opts repository.Options) Service {
	return &service{books: books, authors: authors, opts: opts}
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Book, error) {
	query := filter.scalars()
	if filter.ID != nil {
		id, err := repository.ParseID(resource, "list", *filter.ID)
		if err != nil {
			return nil, err
		}
		query["_id"] = id
	}
	return s.find(ctx, "list", query, "No books found")
}

func (s *service) Get(ctx context.Context, id string) (*Book, error) {
	oid, err := repository.ParseID(resource, "get", id)
	if err != nil {
		return nil, err
	}
	b, err := s.books.FindByID(ctx, oid)
	if errors.Is(err, docstore.ErrNoDocument) {
		return nil, apperr.NotFoundf(resource, "get", "Book details not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "get", "load book")
	}
	return b, nil
}

func (s *service) FindByAuthorID(ctx context.Context, authorID primitive.ObjectID) ([]*Book, error) {
	return s.find(ctx, "findByAuthorId", bson.M{"authorIds": authorID}, "Book details not found")
}

func (s *service) FindByRentalID(ctx context.Context, rentalID primitive.ObjectID) ([]*Book, error) {
	return s.find(ctx, "findByRentalId", bson.M{"rentalIds": rentalID}, "Book details not found")
}

func (s *service) find(ctx context.Context, op string, query bson.M, notFound string) ([]*Book, error) {
	books, err := s.books.Find(ctx, query)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, op, "query books")
	}
	return repository.Results(s.opts, books, func() error {
		return apperr.NotFoundf(resource, op, "%s", notFound)
	})
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Book, error) {
	if err := repository.Require(resource, "create", "title", in.Title); err != nil {
		return nil, err
	}
	authorIDs, err := repository.ParseIDs(resource, "create", in.AuthorIDs)
	if err != nil {
		return nil, err
	}

	now := repository.Now()
	b := &Book{
		Title:         in.Title,
		ISBN:          in.ISBN,
		Genre:         in.Genre,
		PublishedYear: in.PublishedYear,
		AuthorIDs:     authorIDs,
		RentalIDs:     []primitive.ObjectID{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	id, err := s.books.InsertOne(ctx, b)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "create", "insert book")
	}
	if id.IsZero() {
		return nil, apperr.WriteFailuref(resource, "create", "Failed to create book")
	}
	b.ID = id

	err = repository.FanOut(ctx, s.opts, "author", authorIDs, func(ctx context.Context, authorID primitive.ObjectID) error {
		_, err := s.authors.Update(ctx, authorID.Hex(), author.UpdateInput{BookIDs: []string{id.Hex()}})
		return err
	})
	if err != nil {
		s.opts.Log().Warn("book created but author link failed",
			zap.String("book_id", id.Hex()), zap.Error(err))
		return b, apperr.Wrap(err, apperr.WriteFailure, resource, "create", "Failed to link book to its authors")
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, id string, in UpdateInput) (*Book, error) {
	oid, err := repository.ParseID(resource, "update", id)
	if err != nil {
		return nil, err
	}
	authorIDs, err := repository.ParseIDs(resource, "update", in.AuthorIDs)
	if err != nil {
		return nil, err
	}
	rentalIDs, err := repository.ParseIDs(resource, "update", in.RentalIDs)
	if err != nil {
		return nil, err
	}

	res, err := s.books.UpdateByID(ctx, oid, docstore.Update{
		Set: in.scalars(),
		Push: map[string][]primitive.ObjectID{
			"authorIds": authorIDs,
			"rentalIds": rentalIDs,
		},
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "update", "update book")
	}
	if res.Modified == 0 {
		return nil, apperr.WriteFailuref(resource, "update", "Failed to update book")
	}
	return s.Get(ctx, id)
}

// Delete removes the book and returns it, or nil when it did not exist.
func (s *service) Delete(ctx context.Context, id string) (*Book, error) {
	oid, err := repository.ParseID(resource, "delete", id)
	if err != nil {
		return nil, err
	}
	b, err := s.books.DeleteByID(ctx, oid)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "delete", "delete book")
	}
	return b, nil
}
