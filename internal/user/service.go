// internal/user/service.go
package user

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service defines the interface for the user repository.
type Service interface {
	List(ctx context.Context, filter Filter) ([]*User, error)
	Get(ctx context.Context, id string) (*User, error)
	// FindByRentalID returns the first user whose rentalIds contain
	// rentalID. Further matches are ignored.
	FindByRentalID(ctx context.Context, rentalID primitive.ObjectID) (*User, error)
	Create(ctx context.Context, in CreateInput) (*User, error)
	Update(ctx context.Context, id string, in UpdateInput) (*User, error)
	Delete(ctx context.Context, id string) (*User, error)
}
