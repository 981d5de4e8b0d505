package chaos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"libraryql/internal/apperr"
	"libraryql/internal/author"
	"libraryql/internal/book"
	"libraryql/internal/docstore"
	"libraryql/internal/repository"
)

var errConnReset = errors.New("connection reset by peer")

type library struct {
	inj     *Injector
	authors author.Service
	books   book.Service
}

func newLibrary(opts repository.Options) library {
	inj := NewInjector(1)
	authors := author.NewService(Wrap(docstore.NewMemoryCollection[author.Author](), docstore.Authors, inj), opts)
	books := book.NewService(Wrap(docstore.NewMemoryCollection[book.Book](), docstore.Books, inj), authors, opts)
	return library{inj: inj, authors: authors, books: books}
}

func (l library) author(t *testing.T, name string) *author.Author {
	t.Helper()
	a, err := l.authors.Create(context.Background(), author.CreateInput{Name: name, Email: name + "@example.com", Phone: "1", Country: "NZ"})
	require.NoError(t, err)
	return a
}

func TestBookSurvivesAuthorLinkFailure(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		opts := repository.DefaultOptions()
		opts.ParallelReverseWrites = parallel
		lib := newLibrary(opts)
		a := lib.author(t, "a")

		var created *book.Book
		res, err := lib.inj.Run(context.Background(), Experiment{
			Name:       "author-update-failure",
			Hypothesis: "a book whose author link fails is still stored and the caller sees WRITE_FAILURE",
			SteadyState: func(ctx context.Context) error {
				_, err := lib.authors.Get(ctx, a.ID.Hex())
				return err
			},
			Faults: []Fault{{Collection: docstore.Authors, Op: OpUpdate, Err: errConnReset}},
			Method: func(ctx context.Context) error {
				var err error
				created, err = lib.books.Create(ctx, book.CreateInput{Title: "t", AuthorIDs: []string{a.ID.Hex()}})
				return err
			},
			Verify: func(ctx context.Context, methodErr error) error {
				if apperr.KindOf(methodErr) != apperr.WriteFailure {
					return errors.New("expected a write failure")
				}
				if !errors.Is(methodErr, errConnReset) {
					return errors.New("cause was not preserved")
				}
				_, err := lib.books.Get(ctx, created.ID.Hex())
				return err
			},
		})
		require.NoError(t, err)
		assert.True(t, res.HypothesisHeld, "parallel=%v: %v", parallel, res.Violation)
		assert.Equal(t, 1, res.FaultsFired)

		got, err := lib.authors.Get(context.Background(), a.ID.Hex())
		require.NoError(t, err)
		assert.Empty(t, got.BookIDs)
	}
}

func TestStoreOutageIsInternal(t *testing.T) {
	lib := newLibrary(repository.DefaultOptions())
	lib.author(t, "a")

	lib.inj.Inject(Fault{Collection: docstore.Authors, Op: OpFind, Err: errConnReset})
	_, err := lib.authors.List(context.Background(), author.Filter{})
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))

	// Faults scoped to another collection do not fire.
	_, err = lib.books.List(context.Background(), book.Filter{})
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	lib.inj.Clear()
	got, err := lib.authors.List(context.Background(), author.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestInsertFailureWritesNothing(t *testing.T) {
	lib := newLibrary(repository.DefaultOptions())
	a := lib.author(t, "a")

	lib.inj.Inject(Fault{Collection: docstore.Books, Op: OpInsert, Err: errConnReset})
	_, err := lib.books.Create(context.Background(), book.CreateInput{Title: "t", AuthorIDs: []string{a.ID.Hex()}})
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))

	got, err := lib.authors.Get(context.Background(), a.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, got.BookIDs)
}

func TestSteadyStateAbortsExperiment(t *testing.T) {
	inj := NewInjector(1)
	methodRan := false
	res, err := inj.Run(context.Background(), Experiment{
		Name:        "unhealthy",
		SteadyState: func(context.Context) error { return errConnReset },
		Faults:      []Fault{{Op: OpFind, Err: errConnReset}},
		Method: func(context.Context) error {
			methodRan = true
			return nil
		},
	})
	require.ErrorIs(t, err, ErrSteadyState)
	assert.False(t, res.SteadyStateValid)
	assert.False(t, methodRan)

	_, active := inj.pick(docstore.Authors, OpFind)
	assert.False(t, active, "faults must not be left active")
}

func TestLatencyHonoursContext(t *testing.T) {
	inj := NewInjector(1)
	c := Wrap(docstore.NewMemoryCollection[author.Author](), docstore.Authors, inj)
	inj.Inject(Fault{Op: OpFind, Latency: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Find(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	inj.Clear()
	inj.Inject(Fault{Op: OpFind, Latency: time.Millisecond})
	docs, err := c.Find(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestProbabilisticFaults(t *testing.T) {
	inj := NewInjector(42)
	inj.Inject(Fault{Op: OpDelete, Err: errConnReset, Probability: 0.5})

	fired := 0
	for i := 0; i < 200; i++ {
		if _, ok := inj.pick(docstore.Rentals, OpDelete); ok {
			fired++
		}
	}
	assert.Equal(t, fired, inj.Injected())
	assert.Greater(t, fired, 50)
	assert.Less(t, fired, 150)
}

func TestFaultsAreRecordedOnSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	inj := NewInjector(1)
	c := docstore.Traced(Wrap(docstore.NewMemoryCollection[author.Author](), docstore.Authors, inj), docstore.Authors)
	inj.Inject(Fault{Op: OpFind, Err: errConnReset})

	_, err := c.Find(context.Background(), nil)
	require.ErrorIs(t, err, errConnReset)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "docstore.find", spans[0].Name())
	require.Len(t, spans[0].Events(), 2)
	assert.Equal(t, "chaos.fault", spans[0].Events()[0].Name)
}
