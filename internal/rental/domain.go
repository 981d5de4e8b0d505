// internal/rental/domain.go
package rental

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rental records a user borrowing one or more books. UserID is nil for a
// rental created without a user.
type Rental struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	DateRented time.Time            `bson:"dateRented" json:"date_rented"`
	UserID     *primitive.ObjectID  `bson:"userId" json:"user_id"`
	BookIDs    []primitive.ObjectID `bson:"bookIds" json:"book_ids"`
	CreatedAt  time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updated_at"`
}

type Filter struct {
	ID         *string
	DateRented *time.Time
}

// CreateInput holds the fields of a new rental. DateRented defaults to the
// creation time.
type CreateInput struct {
	DateRented *time.Time
	UserID     *string
	BookIDs    []string
}

// UpdateInput changes the rental date and appends BookIDs. Books listed
// here do not gain the rental in their own rentalIds.
type UpdateInput struct {
	DateRented *time.Time
	BookIDs    []string
}
