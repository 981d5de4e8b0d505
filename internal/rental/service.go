// internal/rental/service.go
package rental

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service defines the interface for the rental repository.
type Service interface {
	List(ctx context.Context, filter Filter) ([]*Rental, error)
	Get(ctx context.Context, id string) (*Rental, error)
	FindByBookID(ctx context.Context, bookID primitive.ObjectID) ([]*Rental, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*Rental, error)
	// Create stores the rental, then appends its id to the user's
	// rentalIds and to every listed book's rentalIds. When one of those
	// appends fails the rental is still returned together with a
	// WriteFailure.
	Create(ctx context.Context, in CreateInput) (*Rental, error)
	Update(ctx context.Context, id string, in UpdateInput) (*Rental, error)
	Delete(ctx context.Context, id string) (*Rental, error)
}
