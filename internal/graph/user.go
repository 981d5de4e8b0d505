// internal/graph/user.go
package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"libraryql/internal/rental"
	"libraryql/internal/user"
)

type userResolver struct {
	root *Resolver
	u    *user.User
}

func (r *Resolver) user(u *user.User) *userResolver {
	return &userResolver{root: r, u: u}
}

func (u *userResolver) ID() graphql.ID          { return graphql.ID(u.u.ID.Hex()) }
func (u *userResolver) Name() string            { return u.u.Name }
func (u *userResolver) Email() string           { return u.u.Email }
func (u *userResolver) Phone() string           { return u.u.Phone }
func (u *userResolver) CreatedAt() graphql.Time { return graphql.Time{Time: u.u.CreatedAt} }
func (u *userResolver) UpdatedAt() graphql.Time { return graphql.Time{Time: u.u.UpdatedAt} }

func (u *userResolver) RentalIds(ctx context.Context) (*[]*rentalResolver, error) {
	return lookup(ctx, u.root, func(ctx context.Context) ([]*rental.Rental, error) {
		return u.root.svc.Rentals.FindByUserID(ctx, u.u.ID)
	}, u.root.rental)
}

type findUserInput struct {
	ID    *graphql.ID
	Name  *string
	Email *string
	Phone *string
}

func (in *findUserInput) filter() user.Filter {
	if in == nil {
		return user.Filter{}
	}
	return user.Filter{ID: deref(in.ID), Name: in.Name, Email: in.Email, Phone: in.Phone}
}

type createUserInput struct {
	Name  string
	Email string
	Phone string
}

type updateUserInput struct {
	Name      *string
	Email     *string
	Phone     *string
	RentalIds *[]graphql.ID
}

func (r *Resolver) Users(ctx context.Context, args struct{ Params *findUserInput }) ([]*userResolver, error) {
	users, err := r.svc.Users.List(ctx, args.Params.filter())
	if err != nil {
		return nil, r.fail(err)
	}
	return wrapAll(users, r.user), nil
}

func (r *Resolver) User(ctx context.Context, args struct{ Params findUserInput }) (*userResolver, error) {
	id, err := requireID("user", args.Params.ID)
	if err != nil {
		return nil, r.fail(err)
	}
	u, err := r.svc.Users.Get(ctx, id)
	if err != nil {
		return nil, r.fail(err)
	}
	return r.user(u), nil
}

func (r *Resolver) CreateUser(ctx context.Context, args struct{ Params createUserInput }) (*userResolver, error) {
	p := args.Params
	u, err := r.svc.Users.Create(ctx, user.CreateInput{Name: p.Name, Email: p.Email, Phone: p.Phone})
	if err != nil {
		return nil, r.fail(err)
	}
	return r.user(u), nil
}

func (r *Resolver) UpdateUser(ctx context.Context, args struct {
	ID     graphql.ID
	Params updateUserInput
}) (*userResolver, error) {
	p := args.Params
	u, err := r.svc.Users.Update(ctx, string(args.ID), user.UpdateInput{
		Name: p.Name, Email: p.Email, Phone: p.Phone, RentalIDs: strs(p.RentalIds),
	})
	if err != nil {
		return nil, r.fail(err)
	}
	return r.user(u), nil
}

func (r *Resolver) DeleteUser(ctx context.Context, args struct{ ID graphql.ID }) (*userResolver, error) {
	u, err := r.svc.Users.Delete(ctx, string(args.ID))
	if err != nil || u == nil {
		return nil, r.fail(err)
	}
	return r.user(u), nil
}
