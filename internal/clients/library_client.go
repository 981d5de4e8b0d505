// internal/clients/library_client.go

// Package clients holds typed clients for the libraryql HTTP API.
package clients

import (
	"context"
	"time"
)

// Ref is a related record as returned by a relation field.
type Ref struct {
	ID string `json:"id"`
}

type Author struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Country   string    `json:"country"`
	Books     []Ref     `json:"bookIds"`
	CreatedAt time.Time `json:"createdAt"`
}

type Book struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Authors []Ref  `json:"authorIds"`
	Rentals []Ref  `json:"rentalIds"`
}

type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Rentals []Ref  `json:"rentalIds"`
}

type Rental struct {
	ID         string    `json:"id"`
	DateRented time.Time `json:"dateRented"`
	User       *Ref      `json:"userId"`
	Books      []Ref     `json:"bookIds"`
}

// AuthorInput is the createAuthor payload.
type AuthorInput struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Country string   `json:"country"`
	BookIDs []string `json:"bookIds,omitempty"`
}

// BookInput is the createBook payload.
type BookInput struct {
	Title     string   `json:"title"`
	ISBN      string   `json:"isbn,omitempty"`
	Genre     string   `json:"genre,omitempty"`
	AuthorIDs []string `json:"authorIds,omitempty"`
}

// UserInput is the createUser payload.
type UserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// RentalInput is the createRental payload.
type RentalInput struct {
	UserID  string   `json:"userId,omitempty"`
	BookIDs []string `json:"bookIds"`
}

func (c *GraphQLClient) CreateAuthor(ctx context.Context, in AuthorInput) (*Author, error) {
	var out struct{ CreateAuthor Author }
	err := c.Do(ctx, `mutation($p: CreateAuthorInput!) { createAuthor(params: $p) { id name email phone country createdAt } }`,
		map[string]interface{}{"p": in}, &out)
	if err != nil {
		return nil, err
	}
	return &out.CreateAuthor, nil
}

func (c *GraphQLClient) CreateBook(ctx context.Context, in BookInput) (*Book, error) {
	var out struct{ CreateBook Book }
	err := c.Do(ctx, `mutation($p: CreateBookInput!) { createBook(params: $p) { id title } }`,
		map[string]interface{}{"p": in}, &out)
	if err != nil {
		return nil, err
	}
	return &out.CreateBook, nil
}

func (c *GraphQLClient) CreateUser(ctx context.Context, in UserInput) (*User, error) {
	var out struct{ CreateUser User }
	err := c.Do(ctx, `mutation($p: CreateUserInput!) { createUser(params: $p) { id name email phone } }`,
		map[string]interface{}{"p": in}, &out)
	if err != nil {
		return nil, err
	}
	return &out.CreateUser, nil
}

func (c *GraphQLClient) CreateRental(ctx context.Context, in RentalInput) (*Rental, error) {
	if in.BookIDs == nil {
		in.BookIDs = []string{}
	}
	var out struct{ CreateRental Rental }
	err := c.Do(ctx, `mutation($p: CreateRentalInput!) { createRental(params: $p) { id dateRented } }`,
		map[string]interface{}{"p": in}, &out)
	if err != nil {
		return nil, err
	}
	return &out.CreateRental, nil
}

// Author fetches an author with its books resolved.
func (c *GraphQLClient) Author(ctx context.Context, id string) (*Author, error) {
	var out struct{ Author Author }
	err := c.Do(ctx, `query($id: ID) { author(params: {id: $id}) { id name email phone country createdAt bookIds { id } } }`,
		map[string]interface{}{"id": id}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Author, nil
}

// Book fetches a book with its authors and rentals resolved.
func (c *GraphQLClient) Book(ctx context.Context, id string) (*Book, error) {
	var out struct{ Book Book }
	err := c.Do(ctx, `query($id: ID) { book(params: {id: $id}) { id title authorIds { id } rentalIds { id } } }`,
		map[string]interface{}{"id": id}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Book, nil
}

// User fetches a user with its rentals resolved.
func (c *GraphQLClient) User(ctx context.Context, id string) (*User, error) {
	var out struct{ User User }
	err := c.Do(ctx, `query($id: ID) { user(params: {id: $id}) { id name email phone rentalIds { id } } }`,
		map[string]interface{}{"id": id}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Rental fetches a rental with its user and books resolved.
func (c *GraphQLClient) Rental(ctx context.Context, id string) (*Rental, error) {
	var out struct{ Rental Rental }
	err := c.Do(ctx, `query($id: ID) { rental(params: {id: $id}) { id dateRented userId { id } bookIds { id } } }`,
		map[string]interface{}{"id": id}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Rental, nil
}
