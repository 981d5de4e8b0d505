package book

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"libraryql/internal/apperr"
	"libraryql/internal/author"
	"libraryql/internal/docstore"
	"libraryql/internal/repository"
)

type fixture struct {
	authors author.Service
	books   Service
}

func newFixture(opts repository.Options) fixture {
	authors := author.NewService(docstore.NewMemoryCollection[author.Author](), opts)
	return fixture{
		authors: authors,
		books:   NewService(docstore.NewMemoryCollection[Book](), authors, opts),
	}
}

func (f fixture) author(t *testing.T, name string) *author.Author {
	t.Helper()
	a, err := f.authors.Create(context.Background(), author.CreateInput{
		Name: name, Email: name + "@example.com", Phone: "555-0101", Country: "UK",
	})
	require.NoError(t, err)
	return a
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(repository.DefaultOptions())

	created, err := f.books.Create(ctx, CreateInput{Title: "The Dispossessed", ISBN: "978-0060512750", Genre: "sf", PublishedYear: 1974})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, []primitive.ObjectID{}, created.AuthorIDs)
	assert.Equal(t, []primitive.ObjectID{}, created.RentalIDs)

	got, err := f.books.Get(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "The Dispossessed", got.Title)
	assert.Equal(t, "978-0060512750", got.ISBN)
	assert.Equal(t, "sf", got.Genre)
	assert.Equal(t, int32(1974), got.PublishedYear)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestCreateRequiresTitle(t *testing.T) {
	f := newFixture(repository.DefaultOptions())
	_, err := f.books.Create(context.Background(), CreateInput{})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestCreateAppendsToAuthors(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		opts := repository.DefaultOptions()
		opts.ParallelReverseWrites = parallel
		ctx := context.Background()
		f := newFixture(opts)
		a1 := f.author(t, "a1")
		a2 := f.author(t, "a2")

		b, err := f.books.Create(ctx, CreateInput{Title: "B", AuthorIDs: []string{a1.ID.Hex(), a2.ID.Hex()}})
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{a1.ID, a2.ID}, b.AuthorIDs)

		for _, a := range []*author.Author{a1, a2} {
			got, err := f.authors.Get(ctx, a.ID.Hex())
			require.NoError(t, err)
			assert.Equal(t, []primitive.ObjectID{b.ID}, got.BookIDs, "parallel=%v", parallel)
		}

		byAuthor, err := f.books.FindByAuthorID(ctx, a1.ID)
		require.NoError(t, err)
		require.Len(t, byAuthor, 1)
		assert.Equal(t, b.ID, byAuthor[0].ID)
	}
}

func TestCreateWithMissingAuthorKeepsBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(repository.DefaultOptions())
	a1 := f.author(t, "a1")
	ghost := primitive.NewObjectID()

	b, err := f.books.Create(ctx, CreateInput{Title: "Orphan", AuthorIDs: []string{a1.ID.Hex(), ghost.Hex()}})
	require.Error(t, err)
	assert.Equal(t, apperr.WriteFailure, apperr.KindOf(err))
	require.NotNil(t, b)

	stored, err := f.books.Get(ctx, b.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a1.ID, ghost}, stored.AuthorIDs)

	linked, err := f.authors.Get(ctx, a1.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{b.ID}, linked.BookIDs)
}

func TestCreateInvalidAuthorIDWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(repository.DefaultOptions())

	_, err := f.books.Create(ctx, CreateInput{Title: "B", AuthorIDs: []string{"zzz"}})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = f.books.List(ctx, Filter{})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestUpdateAppendsRentalIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(repository.DefaultOptions())
	b, err := f.books.Create(ctx, CreateInput{Title: "B"})
	require.NoError(t, err)
	r := primitive.NewObjectID()

	for i := 0; i < 2; i++ {
		_, err := f.books.Update(ctx, b.ID.Hex(), UpdateInput{RentalIDs: []string{r.Hex()}})
		require.NoError(t, err)
	}
	genre := "fantasy"
	updated, err := f.books.Update(ctx, b.ID.Hex(), UpdateInput{Genre: &genre})
	require.NoError(t, err)
	assert.Equal(t, "fantasy", updated.Genre)
	assert.Equal(t, []primitive.ObjectID{r, r}, updated.RentalIDs)

	byRental, err := f.books.FindByRentalID(ctx, r)
	require.NoError(t, err)
	assert.Len(t, byRental, 1)
}

func TestUpdateWriteFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(repository.DefaultOptions())
	b, err := f.books.Create(ctx, CreateInput{Title: "B"})
	require.NoError(t, err)

	_, err = f.books.Update(ctx, b.ID.Hex(), UpdateInput{AuthorIDs: []string{}})
	assert.Equal(t, apperr.WriteFailure, apperr.KindOf(err))

	title := "C"
	_, err = f.books.Update(ctx, primitive.NewObjectID().Hex(), UpdateInput{Title: &title})
	assert.Equal(t, apperr.WriteFailure, apperr.KindOf(err))
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(repository.DefaultOptions())
	b1, err := f.books.Create(ctx, CreateInput{Title: "One", Genre: "poetry"})
	require.NoError(t, err)
	_, err = f.books.Create(ctx, CreateInput{Title: "Two", Genre: "essay"})
	require.NoError(t, err)

	genre := "poetry"
	found, err := f.books.List(ctx, Filter{Genre: &genre})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, b1.ID, found[0].ID)

	removed, err := f.books.Delete(ctx, b1.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "One", removed.Title)

	_, err = f.books.Get(ctx, b1.ID.Hex())
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = f.books.List(ctx, Filter{Genre: &genre})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestReverseLookupsLenient(t *testing.T) {
	opts := repository.DefaultOptions()
	opts.StrictEmptyResults = false
	f := newFixture(opts)

	byAuthor, err := f.books.FindByAuthorID(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Empty(t, byAuthor)
}
