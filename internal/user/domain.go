// internal/user/domain.go
package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a library member.
type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	Email     string               `bson:"email" json:"email"`
	Phone     string               `bson:"phone" json:"phone"`
	RentalIDs []primitive.ObjectID `bson:"rentalIds" json:"rental_ids"`
	CreatedAt time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updated_at"`
}

type Filter struct {
	ID    *string
	Name  *string
	Email *string
	Phone *string
}

func (f Filter) scalars() bson.M {
	m := bson.M{}
	if f.Name != nil {
		m["name"] = *f.Name
	}
	if f.Email != nil {
		m["email"] = *f.Email
	}
	if f.Phone != nil {
		m["phone"] = *f.Phone
	}
	return m
}

type CreateInput struct {
	Name  string
	Email string
	Phone string
}

// UpdateInput holds the fields to change. RentalIDs are appended.
type UpdateInput struct {
	Name      *string
	Email     *string
	Phone     *string
	RentalIDs []string
}

func (in UpdateInput) scalars() bson.M {
	return Filter{Name: in.Name, Email: in.Email, Phone: in.Phone}.scalars()
}
