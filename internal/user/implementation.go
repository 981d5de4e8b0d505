// internal/user/implementation.go
package user

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"libraryql/internal/apperr"
	"libraryql/internal/docstore"
	"libraryql/internal/repository"
)

const resource = "user"

type service struct {
	users docstore.Collection[User]
	opts  repository.Options
}

// NewService creates a new user repository.
func NewService(users docstore.Collection[User], opts repository.Options) Service {
	return &service{users: users, opts: opts}
}

func (s *service) List(ctx context.Context, filter Filter) ([]*User, error) {
	query := filter.scalars()
	if filter.ID != nil {
		id, err := repository.ParseID(resource, "list", *filter.ID)
		if err != nil {
			return nil, err
		}
		query["_id"] = id
	}
	users, err := s.users.Find(ctx, query)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "list", "query users")
	}
	return repository.Results(s.opts, users, func() error {
		return apperr.NotFoundf(resource, "list", "No users found")
	})
}

func (s *service) Get(ctx context.Context, id string) (*User, error) {
	oid, err := repository.ParseID(resource, "get", id)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, oid)
	if errors.Is(err, docstore.ErrNoDocument) {
		return nil, apperr.NotFoundf(resource, "get", "User details not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "get", "load user")
	}
	return u, nil
}

// FindByRentalID is always strict: a rental's user is a single value, so
// there is no empty list to fall back to.
func (s *service) FindByRentalID(ctx context.Context, rentalID primitive.ObjectID) (*User, error) {
	users, err := s.users.Find(ctx, bson.M{"rentalIds": rentalID})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "findByRentalId", "query users")
	}
	if len(users) == 0 {
		return nil, apperr.NotFoundf(resource, "findByRentalId", "User details not found")
	}
	return users[0], nil
}

func (s *service) Create(ctx context.Context, in CreateInput) (*User, error) {
	if err := repository.Require(resource, "create",
		"name", in.Name, "email", in.Email, "phone", in.Phone); err != nil {
		return nil, err
	}

	now := repository.Now()
	u := &User{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		RentalIDs: []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.users.InsertOne(ctx, u)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "create", "insert user")
	}
	if id.IsZero() {
		return nil, apperr.WriteFailuref(resource, "create", "Failed to create user")
	}
	u.ID = id
	return u, nil
}

func (s *service) Update(ctx context.Context, id string, in UpdateInput) (*User, error) {
	oid, err := repository.ParseID(resource, "update", id)
	if err != nil {
		return nil, err
	}
	rentalIDs, err := repository.ParseIDs(resource, "update", in.RentalIDs)
	if err != nil {
		return nil, err
	}

	res, err := s.users.UpdateByID(ctx, oid, docstore.Update{
		Set:  in.scalars(),
		Push: map[string][]primitive.ObjectID{"rentalIds": rentalIDs},
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "update", "update user")
	}
	if res.Modified == 0 {
		return nil, apperr.WriteFailuref(resource, "update", "Failed to update user")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id string) (*User, error) {
	oid, err := repository.ParseID(resource, "delete", id)
	if err != nil {
		return nil, err
	}
	u, err := s.users.DeleteByID(ctx, oid)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Internal, resource, "delete", "delete user")
	}
	return u, nil
}
