// internal/graph/book.go
package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"libraryql/internal/author"
	"libraryql/internal/book"
	"libraryql/internal/rental"
)

type bookResolver struct {
	root *Resolver
	b    *book.Book
}

func (r *Resolver) book(b *book.Book) *bookResolver {
	return &bookResolver{root: r, b: b}
}

func (b *bookResolver) ID() graphql.ID { return graphql.ID(b.b.ID.Hex()) }
func (b *bookResolver) Title() string  { return b.b.Title }
func (b *bookResolver) Isbn() *string  { return optional(b.b.ISBN) }
func (b *bookResolver) Genre() *string { return optional(b.b.Genre) }

func (b *bookResolver) PublishedYear() *int32 {
	if b.b.PublishedYear == 0 {
		return nil
	}
	y := b.b.PublishedYear
	return &y
}

func (b *bookResolver) CreatedAt() graphql.Time { return graphql.Time{Time: b.b.CreatedAt} }
func (b *bookResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: b.b.UpdatedAt} }

func (b *bookResolver) AuthorIds(ctx context.Context) (*[]*authorResolver, error) {
	return lookup(ctx, b.root, func(ctx context.Context) ([]*author.Author, error) {
		return b.root.svc.Authors.FindByBookID(ctx, b.b.ID)
	}, b.root.author)
}

func (b *bookResolver) RentalIds(ctx context.Context) (*[]*rentalResolver, error) {
	return lookup(ctx, b.root, func(ctx context.Context) ([]*rental.Rental, error) {
		return b.root.svc.Rentals.FindByBookID(ctx, b.b.ID)
	}, b.root.rental)
}

type findBookInput struct {
	ID            *graphql.ID
	Title         *string
	Isbn          *string
	Genre         *string
	PublishedYear *int32
}

func (in *findBookInput) filter() book.Filter {
	if in == nil {
		return book.Filter{}
	}
	return book.Filter{ID: deref(in.ID), Title: in.Title, ISBN: in.Isbn, Genre: in.Genre, PublishedYear: in.PublishedYear}
}

type createBookInput struct {
	Title         string
	Isbn          *string
	Genre         *string
	PublishedYear *int32
	AuthorIds     *[]graphql.ID
}

type updateBookInput struct {
	Title         *string
	Isbn          *string
	Genre         *string
	PublishedYear *int32
	AuthorIds     *[]graphql.ID
	RentalIds     *[]graphql.ID
}

func (r *Resolver) Books(ctx context.Context, args struct{ Params *findBookInput }) ([]*bookResolver, error) {
	books, err := r.svc.Books.List(ctx, args.Params.filter())
	if err != nil {
		return nil, r.fail(err)
	}
	return wrapAll(books, r.book), nil
}

func (r *Resolver) Book(ctx context.Context, args struct{ Params findBookInput }) (*bookResolver, error) {
	id, err := requireID("book", args.Params.ID)
	if err != nil {
		return nil, r.fail(err)
	}
	b, err := r.svc.Books.Get(ctx, id)
	if err != nil {
		return nil, r.fail(err)
	}
	return r.book(b), nil
}

func (r *Resolver) CreateBook(ctx context.Context, args struct{ Params createBookInput }) (*bookResolver, error) {
	p := args.Params
	in := book.CreateInput{Title: p.Title, AuthorIDs: strs(p.AuthorIds)}
	if p.Isbn != nil {
		in.ISBN = *p.Isbn
	}
	if p.Genre != nil {
		in.Genre = *p.Genre
	}
	if p.PublishedYear != nil {
		in.PublishedYear = *p.PublishedYear
	}
	b, err := r.svc.Books.Create(ctx, in)
	if err != nil {
		return nil, r.fail(err)
	}
	return r.book(b), nil
}

func (r *Resolver) UpdateBook(ctx context.Context, args struct {
	ID     graphql.ID
	Params updateBookInput
}) (*bookResolver, error) {
	p := args.Params
	b, err := r.svc.Books.Update(ctx, string(args.ID), book.UpdateInput{
		Title:         p.Title,
		ISBN:          p.Isbn,
		Genre:         p.Genre,
		PublishedYear: p.PublishedYear,
		AuthorIDs:     strs(p.AuthorIds),
		RentalIDs:     strs(p.RentalIds),
	})
	if err != nil {
		return nil, r.fail(err)
	}
	return r.book(b), nil
}

func (r *Resolver) DeleteBook(ctx context.Context, args struct{ ID graphql.ID }) (*bookResolver, error) {
	b, err := r.svc.Books.Delete(ctx, string(args.ID))
	if err != nil || b == nil {
		return nil, r.fail(err)
	}
	return r.book(b), nil
}
