// internal/book/service.go
package book

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service defines the interface for the book repository.
type Service interface {
	List(ctx context.Context, filter Filter) ([]*Book, error)
	Get(ctx context.Context, id string) (*Book, error)
	FindByAuthorID(ctx context.Context, authorID primitive.ObjectID) ([]*Book, error)
	FindByRentalID(ctx context.Context, rentalID primitive.ObjectID) ([]*Book, error)
	// Create stores the book and then appends its id to every listed
	// author. When one of those appends fails the book is still returned
	// together with a WriteFailure.
	Create(ctx context.Context, in CreateInput) (*Book, error)
	Update(ctx context.Context, id string, in UpdateInput) (*Book, error)
	Delete(ctx context.Context, id string) (*Book, error)
}
