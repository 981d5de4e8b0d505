// internal/graph/resolver.go

// Package graph exposes the repositories as a GraphQL schema. Relation
// fields are resolved lazily, one reverse lookup per parent record.
package graph

import (
	"context"
	_ "embed"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"libraryql/internal/apperr"
	"libraryql/internal/author"
	"libraryql/internal/book"
	"libraryql/internal/rental"
	"libraryql/internal/user"
)

//go:embed schema.graphql
var schemaSDL string

// maxDepth bounds query nesting. Relation fields form cycles
// (author -> books -> authors ...), and every level is a store scan.
const maxDepth = 12

// Services bundles the repositories the resolvers call.
type Services struct {
	Authors author.Service
	Books   book.Service
	Users   user.Service
	Rentals rental.Service
}

// Resolver is the root query and mutation resolver.
type Resolver struct {
	svc   Services
	debug bool
}

// NewResolver returns the root resolver. With debug set, internal error
// detail is passed through to callers.
func NewResolver(svc Services, debug bool) *Resolver {
	return &Resolver{svc: svc, debug: debug}
}

// NewSchema parses the embedded schema against r.
func NewSchema(r *Resolver, opts ...graphql.SchemaOpt) (*graphql.Schema, error) {
	opts = append([]graphql.SchemaOpt{graphql.MaxDepth(maxDepth)}, opts...)
	return graphql.ParseSchema(schemaSDL, r, opts...)
}

func (r *Resolver) fail(err error) error {
	return apperr.Present(err, r.debug)
}

func deref(id *graphql.ID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func strs(ids *[]graphql.ID) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(*ids))
	for i, id := range *ids {
		out[i] = string(id)
	}
	return out
}

func timePtr(t *graphql.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}

func requireID(resource string, id *graphql.ID) (string, error) {
	if id == nil || *id == "" {
		return "", apperr.Validationf(resource, "get", "id is required")
	}
	return string(*id), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// lookup runs a relation field's reverse lookup and wraps the results.
func lookup[T any, R any](ctx context.Context, r *Resolver, find func(context.Context) ([]*T, error), wrap func(*T) R) (*[]R, error) {
	items, err := find(ctx)
	if err != nil {
		return nil, r.fail(err)
	}
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = wrap(item)
	}
	return &out, nil
}

func wrapAll[T any, R any](items []*T, wrap func(*T) R) []R {
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = wrap(item)
	}
	return out
}
