// internal/author/implementation.go
package author

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"libraryql/internal/apperr"
	"libraryql/internal/docstore"
	"libraryql/internal/repository"
)

const resource = "author"

// service implements the Service interface.
type service struct {
	authors docstore.Collection[Author]
	opts    repository.Options
}

// NewService creates a new author repository over the given collection.
func NewService(authors docstore.Collection[Author], opts repository.Options) Service {
	return &service{authors: authors, opts: opts}
}

// List returns the authors matching filter. An empty filter returns all.
func (s *service) List(ctx context.Context, filter Filter) ([]*Author, error) {
	query := filter.scalars()
	if filter.ID != nil {
		id, err := repository.ParseID(resource, "list", *filter.ID)
		if err != nil {
			return nil, err
		}
		query["_id"] = id
	}
	return s.find(ctx, "list", query, "No authors found")
}

// Get retrieves an author by id.
func (s *service) Get(ctx context.Context, id string) (*Author, error) {
	oid, err := repository.ParseID(resource, "get", id)
	if err != nil {
		return nil, err
	}
	a, err := s.authors.FindByID(ctx, oid)
	if errors.Is(err, docstore.ErrNoDocument) {
		return nil, apperr.NotFoundf(resource, "get", "Author details not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "get", "load author")
	}
	return a, nil
}

// FindByBookID returns the authors whose bookIds contain bookID.
func (s *service) FindByBookID(ctx context.Context, bookID primitive.ObjectID) ([]*Author, error) {
	return s.find(ctx, "findByBookId", bson.M{"bookIds": bookID}, "Author details not found")
}

func (s *service) find(ctx context.Context, op string, query bson.M, notFound string) ([]*Author, error) {
	authors, err := s.authors.Find(ctx, query)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, op, "query authors")
	}
	return repository.Results(s.opts, authors, func() error {
		return apperr.NotFoundf(resource, op, "%s", notFound)
	})
}

// Create stores a new author. Its bookIds start as the supplied list, or empty.
func (s *service) Create(ctx context.Context, in CreateInput) (*Author, error) {
	if err := repository.Require(resource, "create",
		"name", in.Name, "email", in.Email, "phone", in.Phone, "country", in.Country); err != nil {
		return nil, err
	}
	bookIDs, err := repository.ParseIDs(resource, "create", in.BookIDs)
	if err != nil {
		return nil, err
	}

	now := repository.Now()
	a := &Author{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Country:   in.Country,
		BookIDs:   bookIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.authors.InsertOne(ctx, a)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "create", "insert author")
	}
	if id.IsZero() {
		return nil, apperr.WriteFailuref(resource, "create", "Failed to create author")
	}
	a.ID = id
	return a, nil
}

// Update sets the supplied scalar fields and appends in.BookIDs to the
// author's bookIds. updatedAt is left as it was at creation.
func (s *service) Update(ctx context.Context, id string, in UpdateInput) (*Author, error) {
	oid, err := repository.ParseID(resource, "update", id)
	if err != nil {
		return nil, err
	}
	bookIDs, err := repository.ParseIDs(resource, "update", in.BookIDs)
	if err != nil {
		return nil, err
	}

	res, err := s.authors.UpdateByID(ctx, oid, docstore.Update{
		Set:  in.scalars(),
		Push: map[string][]primitive.ObjectID{"bookIds": bookIDs},
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "update", "update author")
	}
	if res.Modified == 0 {
		return nil, apperr.WriteFailuref(resource, "update", "Failed to update author")
	}
	return s.Get(ctx, id)
}

// Delete removes the author and returns it, or nil when it did not exist.
// Books still listing the author are left untouched.
func (s *service) Delete(ctx context.Context, id string) (*Author, error) {
	oid, err := repository.ParseID(resource, "delete", id)
	if err != nil {
		return nil, err
	}
	a, err := s.authors.DeleteByID(ctx, oid)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "delete", "delete author")
	}
	return a, nil
}
