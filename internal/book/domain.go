// internal/book/domain.go
package book

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Book is a catalog title. AuthorIDs and RentalIDs are the book's side of
// its author and rental relationships.
type Book struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	ISBN          string               `bson:"isbn" json:"isbn,omitempty"`
	Genre         string               `bson:"genre" json:"genre,omitempty"`
	PublishedYear int32                `bson:"publishedYear" json:"published_year,omitempty"`
	AuthorIDs     []primitive.ObjectID `bson:"authorIds" json:"author_ids"`
	RentalIDs     []primitive.ObjectID `bson:"rentalIds" json:"rental_ids"`
	CreatedAt     time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updated_at"`
}

// Filter selects books by exact field values. Nil fields are ignored.
type Filter struct {
	ID            *string
	Title         *string
	ISBN          *string
	Genre         *string
	PublishedYear *int32
}

func (f Filter) scalars() bson.M {
	m := bson.M{}
	if f.Title != nil {
		m["title"] = *f.Title
	}
	if f.ISBN != nil {
		m["isbn"] = *f.ISBN
	}
	if f.Genre != nil {
		m["genre"] = *f.Genre
	}
	if f.PublishedYear != nil {
		m["publishedYear"] = *f.PublishedYear
	}
	return m
}

// CreateInput holds the fields of a new book. Each listed author gains the
// new book in its bookIds.
type CreateInput struct {
	Title         string
	ISBN          string
	Genre         string
	PublishedYear int32
	AuthorIDs     []string
}

// UpdateInput holds the fields to change. AuthorIDs and RentalIDs are
// appended to the existing lists.
type UpdateInput struct {
	Title         *string
	ISBN          *string
	Genre         *string
	PublishedYear *int32
	AuthorIDs     []string
	RentalIDs     []string
}

func (in UpdateInput) scalars() bson.M {
	return Filter{Title: in.Title, ISBN: in.ISBN, Genre: in.Genre, PublishedYear: in.PublishedYear}.scalars()
}
