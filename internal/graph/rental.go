// internal/graph/rental.go
package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"libraryql/internal/book"
	"libraryql/internal/rental"
)

type rentalResolver struct {
	root *Resolver
	r    *rental.Rental
}

func (r *Resolver) rental(rt *rental.Rental) *rentalResolver {
	return &rentalResolver{root: r, r: rt}
}

func (r *rentalResolver) ID() graphql.ID           { return graphql.ID(r.r.ID.Hex()) }
func (r *rentalResolver) DateRented() graphql.Time { return graphql.Time{Time: r.r.DateRented} }
func (r *rentalResolver) CreatedAt() graphql.Time  { return graphql.Time{Time: r.r.CreatedAt} }
func (r *rentalResolver) UpdatedAt() graphql.Time  { return graphql.Time{Time: r.r.UpdatedAt} }

// UserId resolves the rental's user. A rental created without a user has
// none, so no lookup is made.
func (r *rentalResolver) UserId(ctx context.Context) (*userResolver, error) {
	if r.r.UserID == nil {
		return nil, nil
	}
	u, err := r.root.svc.Users.FindByRentalID(ctx, r.r.ID)
	if err != nil {
		return nil, r.root.fail(err)
	}
	return r.root.user(u), nil
}

func (r *rentalResolver) BookIds(ctx context.Context) (*[]*bookResolver, error) {
	return lookup(ctx, r.root, func(ctx context.Context) ([]*book.Book, error) {
		return r.root.svc.Books.FindByRentalID(ctx, r.r.ID)
	}, r.root.book)
}

type findRentalInput struct {
	ID         *graphql.ID
	DateRented *graphql.Time
}

func (in *findRentalInput) filter() rental.Filter {
	if in == nil {
		return rental.Filter{}
	}
	return rental.Filter{ID: deref(in.ID), DateRented: timePtr(in.DateRented)}
}

type createRentalInput struct {
	DateRented *graphql.Time
	UserId     *graphql.ID
	BookIds    *[]graphql.ID
}

type updateRentalInput struct {
	DateRented *graphql.Time
	BookIds    *[]graphql.ID
}

func (r *Resolver) Rentals(ctx context.Context, args struct{ Params *findRentalInput }) ([]*rentalResolver, error) {
	rentals, err := r.svc.Rentals.List(ctx, args.Params.filter())
	if err != nil {
		return nil, r.fail(err)
	}
	return wrapAll(rentals, r.rental), nil
}

func (r *Resolver) Rental(ctx context.Context, args struct{ Params findRentalInput }) (*rentalResolver, error) {
	id, err := requireID("rental", args.Params.ID)
	if err != nil {
		return nil, r.fail(err)
	}
	rt, err := r.svc.Rentals.Get(ctx, id)
	if err != nil {
		return nil, r.fail(err)
	}
	return r.rental(rt), nil
}

func (r *Resolver) CreateRental(ctx context.Context, args struct{ Params createRentalInput }) (*rentalResolver, error) {
	p := args.Params
	rt, err := r.svc.Rentals.Create(ctx, rental.CreateInput{
		DateRented: timePtr(p.DateRented),
		UserID:     deref(p.UserId),
		BookIDs:    strs(p.BookIds),
	})
	if err != nil {
		return nil, r.fail(err)
	}
	return r.rental(rt), nil
}

func (r *Resolver) UpdateRental(ctx context.Context, args struct {
	ID     graphql.ID
	Params updateRentalInput
}) (*rentalResolver, error) {
	p := args.Params
	rt, err := r.svc.Rentals.Update(ctx, string(args.ID), rental.UpdateInput{
		DateRented: timePtr(p.DateRented),
		BookIDs:    strs(p.BookIds),
	})
	if err != nil {
		return nil, r.fail(err)
	}
	return r.rental(rt), nil
}

func (r *Resolver) DeleteRental(ctx context.Context, args struct{ ID graphql.ID }) (*rentalResolver, error) {
	rt, err := r.svc.Rentals.Delete(ctx, string(args.ID))
	if err != nil || rt == nil {
		return nil, r.fail(err)
	}
	return r.rental(rt), nil
}
