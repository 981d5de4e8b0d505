// internal/author/domain.go
package author

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Author is a writer of one or more books.
type Author struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	Email     string               `bson:"email" json:"email"`
	Phone     string               `bson:"phone" json:"phone"`
	Country   string               `bson:"country" json:"country"`
	BookIDs   []primitive.ObjectID `bson:"bookIds" json:"book_ids"`
	CreatedAt time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updated_at"`
}

// Filter selects authors by exact field values. Nil fields are ignored.
type Filter struct {
	ID      *string
	Name    *string
	Email   *string
	Phone   *string
	Country *string
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
	if f.Country != nil {
		m["country"] = *f.Country
	}
	return m
}

// CreateInput holds the fields of a new author.
type CreateInput struct {
	Name    string
	Email   string
	Phone   string
	Country string
	BookIDs []string
}

// UpdateInput holds the fields to change. BookIDs are appended to the
// author's existing list, never replacing it.
type UpdateInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Country *string
	BookIDs []string
}

func (in UpdateInput) scalars() bson.M {
	return Filter{Name: in.Name, Email: in.Email, Phone: in.Phone, Country: in.Country}.scalars()
}
