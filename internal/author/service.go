// internal/author/service.go
package author

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service defines the interface for the author repository.
type Service interface {
	List(ctx context.Context, filter Filter) ([]*Author, error)
	Get(ctx context.Context, id string) (*Author, error)
	FindByBookID(ctx context.Context, bookID primitive.ObjectID) ([]*Author, error)
	Create(ctx context.Context, in CreateInput) (*Author, error)
	Update(ctx context.Context, id string, in UpdateInput) (*Author, error)
	Delete(ctx context.Context, id string) (*Author, error)
}
