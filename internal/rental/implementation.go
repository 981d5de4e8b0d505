// internal/rental/implementation.go
package rental

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"libraryql/internal/apperr"
	"libraryql/internal/book"
	"libraryql/internal/docstore"
	"libraryql/internal/repository"
	"libraryql/internal/user"
)

const resource = "rental"

type service struct {
	rentals docstore.Collection[Rental]
	users   user.Service
	books   book.Service
	opts    repository.Options
}

// NewService creates a new rental repository. users and books receive the
// reverse rentalIds appends issued by Create.
func NewService(rentals docstore.Collection[Rental], users user.Service, books book.Service, opts repository.Options) Service {
	return &service{rentals: rentals, users: users, books: books, opts: opts}
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Rental, error) {
	query := bson.M{}
	if filter.ID != nil {
		id, err := repository.ParseID(resource, "list", *filter.ID)
		if err != nil {
			return nil, err
		}
		query["_id"] = id
	}
	if filter.DateRented != nil {
		query["dateRented"] = *filter.DateRented
	}
	return s.find(ctx, "list", query, "No rentals found")
}

func (s *service) Get(ctx context.Context, id string) (*Rental, error) {
	oid, err := repository.ParseID(resource, "get", id)
	if err != nil {
		return nil, err
	}
	r, err := s.rentals.FindByID(ctx, oid)
	if errors.Is(err, docstore.ErrNoDocument) {
		return nil, apperr.NotFoundf(resource, "get", "Rental details not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "get", "load rental")
	}
	return r, nil
}

func (s *service) FindByBookID(ctx context.Context, bookID primitive.ObjectID) ([]*Rental, error) {
	return s.find(ctx, "findByBookId", bson.M{"bookIds": bookID}, "Rental details not found")
}

// FindByUserID matches on the rental's own userId rather than the user's
// rentalIds.
func (s *service) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*Rental, error) {
	return s.find(ctx, "findByUserId", bson.M{"userId": userID}, "Rental details not found")
}

func (s *service) find(ctx context.Context, op string, query bson.M, notFound string) ([]*Rental, error) {
	rentals, err := s.rentals.Find(ctx, query)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, op, "query rentals")
	}
	return repository.Results(s.opts, rentals, func() error {
		return apperr.NotFoundf(resource, op, "%s", notFound)
	})
}

func (s *service) Create(ctx context.Context, in CreateInput) (*Rental, error) {
	var userID *primitive.ObjectID
	if in.UserID != nil && strings.TrimSpace(*in.UserID) != "" {
		oid, err := repository.ParseID(resource, "create", *in.UserID)
		if err != nil {
			return nil, err
		}
		userID = &oid
	}
	bookIDs, err := repository.ParseIDs(resource, "create", in.BookIDs)
	if err != nil {
		return nil, err
	}

	now := repository.Now()
	dateRented := now
	if in.DateRented != nil {
		dateRented = in.DateRented.UTC().Truncate(time.Millisecond)
	}
	r := &Rental{
		DateRented: dateRented,
		UserID:     userID,
		BookIDs:    bookIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	id, err := s.rentals.InsertOne(ctx, r)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "create", "insert rental")
	}
	if id.IsZero() {
		return nil, apperr.WriteFailuref(resource, "create", "Failed to create rental")
	}
	r.ID = id

	if err := s.link(ctx, r); err != nil {
		s.opts.Log().Warn("rental created but reverse link failed",
			zap.String("rental_id", id.Hex()), zap.Error(err))
		return r, apperr.Wrap(err, apperr.WriteFailure, resource, "create", "Failed to link rental to its user and books")
	}
	return r, nil
}

// link appends r's id to its user and then to each of its books.
func (s *service) link(ctx context.Context, r *Rental) error {
	rentalIDs := []string{r.ID.Hex()}
	if r.UserID != nil {
		err := repository.FanOut(ctx, s.opts, "user", []primitive.ObjectID{*r.UserID}, func(ctx context.Context, userID primitive.ObjectID) error {
			_, err := s.users.Update(ctx, userID.Hex(), user.UpdateInput{RentalIDs: rentalIDs})
			return err
		})
		if err != nil {
			return err
		}
	}
	return repository.FanOut(ctx, s.opts, "book", r.BookIDs, func(ctx context.Context, bookID primitive.ObjectID) error {
		_, err := s.books.Update(ctx, bookID.Hex(), book.UpdateInput{RentalIDs: rentalIDs})
		return err
	})
}

func (s *service) Update(ctx context.Context, id string, in UpdateInput) (*Rental, error) {
	oid, err := repository.ParseID(resource, "update", id)
	if err != nil {
		return nil, err
	}
	bookIDs, err := repository.ParseIDs(resource, "update", in.BookIDs)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if in.DateRented != nil {
		set["dateRented"] = in.DateRented.UTC().Truncate(time.Millisecond)
	}
	res, err := s.rentals.UpdateByID(ctx, oid, docstore.Update{
		Set:  set,
		Push: map[string][]primitive.ObjectID{"bookIds": bookIDs},
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "update", "update rental")
	}
	if res.Modified == 0 {
		return nil, apperr.WriteFailuref(resource, "update", "Failed to update rental")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id string) (*Rental, error) {
	oid, err := repository.ParseID(resource, "delete", id)
	if err != nil {
		return nil, err
	}
	r, err := s.rentals.DeleteByID(ctx, oid)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "delete", "delete rental")
	}
	return r, nil
}
