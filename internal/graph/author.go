// internal/graph/author.go
package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"libraryql/internal/author"
	"libraryql/internal/book"
)

type authorResolver struct {
	root *Resolver
	a    *author.Author
}

func (r *Resolver) author(a *author.Author) *authorResolver {
	return &authorResolver{root: r, a: a}
}

func (a *authorResolver) ID() graphql.ID          { return graphql.ID(a.a.ID.Hex()) }
func (a *authorResolver) Name() string            { return a.a.Name }
func (a *authorResolver) Email() string           { return a.a.Email }
func (a *authorResolver) Phone() string           { return a.a.Phone }
func (a *authorResolver) Country() string         { return a.a.Country }
func (a *authorResolver) CreatedAt() graphql.Time { return graphql.Time{Time: a.a.CreatedAt} }
func (a *authorResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: a.a.UpdatedAt} }

func (a *authorResolver) BookIds(ctx context.Context) (*[]*bookResolver, error) {
	return lookup(ctx, a.root, func(ctx context.Context) ([]*book.Book, error) {
		return a.root.svc.Books.FindByAuthorID(ctx, a.a.ID)
	}, a.root.book)
}

type findAuthorInput struct {
	ID      *graphql.ID
	Name    *string
	Email   *string
	Phone   *string
	Country *string
}

func (in *findAuthorInput) filter() author.Filter {
	if in == nil {
		return author.Filter{}
	}
	return author.Filter{ID: deref(in.ID), Name: in.Name, Email: in.Email, Phone: in.Phone, Country: in.Country}
}

type createAuthorInput struct {
	Name    string
	Email   string
	Phone   string
	Country string
	BookIds *[]graphql.ID
}

type updateAuthorInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Country *string
	BookIds *[]graphql.ID
}

func (r *Resolver) Authors(ctx context.Context, args struct{ Params *findAuthorInput }) ([]*authorResolver, error) {
	authors, err := r.svc.Authors.List(ctx, args.Params.filter())
	if err != nil {
		return nil, r.fail(err)
	}
	return wrapAll(authors, r.author), nil
}

func (r *Resolver) Author(ctx context.Context, args struct{ Params findAuthorInput }) (*authorResolver, error) {
	id, err := requireID("author", args.Params.ID)
	if err != nil {
		return nil, r.fail(err)
	}
	a, err := r.svc.Authors.Get(ctx, id)
	if err != nil {
		return nil, r.fail(err)
	}
	return r.author(a), nil
}

func (r *Resolver) CreateAuthor(ctx context.Context, args struct{ Params createAuthorInput }) (*authorResolver, error) {
	p := args.Params
	a, err := r.svc.Authors.Create(ctx, author.CreateInput{
		Name: p.Name, Email: p.Email, Phone: p.Phone, Country: p.Country, BookIDs: strs(p.BookIds),
	})
	if err != nil {
		return nil, r.fail(err)
	}
	return r.author(a), nil
}

func (r *Resolver) UpdateAuthor(ctx context.Context, args struct {
	ID     graphql.ID
	Params updateAuthorInput
}) (*authorResolver, error) {
	p := args.Params
	a, err := r.svc.Authors.Update(ctx, string(args.ID), author.UpdateInput{
		Name: p.Name, Email: p.Email, Phone: p.Phone, Country: p.Country, BookIDs: strs(p.BookIds),
	})
	if err != nil {
		return nil, r.fail(err)
	}
	return r.author(a), nil
}

func (r *Resolver) DeleteAuthor(ctx context.Context, args struct{ ID graphql.ID }) (*authorResolver, error) {
	a, err := r.svc.Authors.Delete(ctx, string(args.ID))
	if err != nil || a == nil {
		return nil, r.fail(err)
	}
	return r.author(a), nil
}
