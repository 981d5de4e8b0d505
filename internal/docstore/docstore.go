// internal/docstore/docstore.go

// Package docstore is the narrow document-collection port the repositories
// write through. It supports filtered find, find-by-id, insert, update-by-id
// with array pushes, and delete-by-id.
//
// Filters follow MongoDB matching rules for the subset the repositories use:
// a key matches when the stored value equals the filter value, or when the
// stored value is an array containing the filter value. That second rule is
// the containment query behind every reverse lookup.
package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoDocument is returned by FindByID when no document has the id.
var ErrNoDocument = errors.New("docstore: no document")

// Update describes an update-by-id. Set replaces scalar fields. Push appends
// ids to array fields, keeping duplicates (MongoDB $push with $each, not
// $addToSet).
type Update struct {
	Set  bson.M
	Push map[string][]primitive.ObjectID
}

// IsEmpty reports whether the update would change nothing.
func (u Update) IsEmpty() bool {
	if len(u.Set) > 0 {
		return false
	}
	for _, ids := range u.Push {
		if len(ids) > 0 {
			return false
		}
	}
	return true
}

// document renders the update in MongoDB update-operator form.
func (u Update) document() bson.M {
	doc := bson.M{}
	if len(u.Set) > 0 {
		doc["$set"] = u.Set
	}
	push := bson.M{}
	for field, ids := range u.Push {
		if len(ids) == 0 {
			continue
		}
		push[field] = bson.M{"$each": ids}
	}
	if len(push) > 0 {
		doc["$push"] = push
	}
	return doc
}

// UpdateResult reports how many documents matched and were modified.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// Collection is a typed document collection.
type Collection[T any] interface {
	// Find returns every document matching filter. A nil filter matches all.
	Find(ctx context.Context, filter bson.M) ([]*T, error)
	// FindByID returns ErrNoDocument when the id is absent.
	FindByID(ctx context.Context, id primitive.ObjectID) (*T, error)
	// InsertOne stores doc and returns the id assigned to it.
	InsertOne(ctx context.Context, doc *T) (primitive.ObjectID, error)
	// UpdateByID applies u. An empty update modifies nothing.
	UpdateByID(ctx context.Context, id primitive.ObjectID, u Update) (UpdateResult, error)
	// DeleteByID removes the document and returns it, or nil when absent.
	DeleteByID(ctx context.Context, id primitive.ObjectID) (*T, error)
}

// Collection names.
const (
	Authors = "authors"
	Books   = "books"
	Users   = "users"
	Rentals = "rentals"
)
