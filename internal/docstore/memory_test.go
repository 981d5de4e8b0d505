package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"pgregory.net/rapid"
)

type widget struct {
	ID    primitive.ObjectID   `bson:"_id,omitempty"`
	Name  string               `bson:"name"`
	Tags  []primitive.ObjectID `bson:"tags"`
	Count int32                `bson:"count"`
	At    time.Time            `bson:"at"`
}

func newWidget(name string, tags ...primitive.ObjectID) *widget {
	if tags == nil {
		tags = []primitive.ObjectID{}
	}
	return &widget{Name: name, Tags: tags, At: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func TestMemoryInsertAssignsID(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollection[widget]()

	id, err := c.InsertOne(ctx, newWidget("a"))
	require.NoError(t, err)
	require.False(t, id.IsZero())

	got, err := c.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, []primitive.ObjectID{}, got.Tags)
	assert.True(t, got.At.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func TestMemoryFindByIDMissing(t *testing.T) {
	c := NewMemoryCollection[widget]()
	_, err := c.FindByID(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestMemoryFindFilters(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollection[widget]()
	tag := primitive.NewObjectID()

	_, err := c.InsertOne(ctx, newWidget("a", tag))
	require.NoError(t, err)
	_, err = c.InsertOne(ctx, newWidget("b"))
	require.NoError(t, err)
	_, err = c.InsertOne(ctx, newWidget("a"))
	require.NoError(t, err)

	all, err := c.Find(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byName, err := c.Find(ctx, bson.M{"name": "a"})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	byTag, err := c.Find(ctx, bson.M{"tags": tag})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "a", byTag[0].Name)

	byTime, err := c.Find(ctx, bson.M{"at": time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Len(t, byTime, 3)

	none, err := c.Find(ctx, bson.M{"name": "zzz"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryUpdateSetAndPush(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollection[widget]()
	id, err := c.InsertOne(ctx, newWidget("a"))
	require.NoError(t, err)
	tag := primitive.NewObjectID()

	res, err := c.UpdateByID(ctx, id, Update{
		Set:  bson.M{"name": "renamed", "count": int32(3)},
		Push: map[string][]primitive.ObjectID{"tags": {tag}},
	})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1, Modified: 1}, res)

	got, err := c.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, int32(3), got.Count)
	assert.Equal(t, []primitive.ObjectID{tag}, got.Tags)
}

func TestMemoryPushKeepsDuplicates(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollection[widget]()
	id, err := c.InsertOne(ctx, newWidget("a"))
	require.NoError(t, err)
	tag := primitive.NewObjectID()

	for i := 0; i < 2; i++ {
		res, err := c.UpdateByID(ctx, id, Update{Push: map[string][]primitive.ObjectID{"tags": {tag}}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Modified)
	}

	got, err := c.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{tag, tag}, got.Tags)
}

func TestMemoryUpdateNoChange(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollection[widget]()
	id, err := c.InsertOne(ctx, newWidget("a"))
	require.NoError(t, err)

	res, err := c.UpdateByID(ctx, id, Update{Set: bson.M{"name": "a"}})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1}, res)

	res, err = c.UpdateByID(ctx, id, Update{})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{}, res)

	res, err = c.UpdateByID(ctx, primitive.NewObjectID(), Update{Set: bson.M{"name": "b"}})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{}, res)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCollection[widget]()
	id, err := c.InsertOne(ctx, newWidget("a"))
	require.NoError(t, err)

	removed, err := c.DeleteByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, "a", removed.Name)

	again, err := c.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, again)

	_, err = c.FindByID(ctx, id)
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestMemoryPushIsConcatenation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		c := NewMemoryCollection[widget]()
		id, err := c.InsertOne(ctx, newWidget("p"))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		pool := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}
		batches := rapid.SliceOf(rapid.SliceOfN(rapid.IntRange(0, len(pool)-1), 0, 4)).Draw(t, "batches")

		want := []primitive.ObjectID{}
		for _, batch := range batches {
			ids := make([]primitive.ObjectID, len(batch))
			for i, n := range batch {
				ids[i] = pool[n]
			}
			res, err := c.UpdateByID(ctx, id, Update{Push: map[string][]primitive.ObjectID{"tags": ids}})
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if len(ids) > 0 && res.Modified != 1 {
				t.Fatalf("push of %d ids modified %d documents", len(ids), res.Modified)
			}
			want = append(want, ids...)
		}

		got, err := c.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if len(got.Tags) != len(want) {
			t.Fatalf("got %d tags, want %d", len(got.Tags), len(want))
		}
		for i := range want {
			if got.Tags[i] != want[i] {
				t.Fatalf("tag %d: got %s want %s", i, got.Tags[i].Hex(), want[i].Hex())
			}
		}
	})
}

func TestTracedRecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx := context.Background()
	c := Traced(NewMemoryCollection[widget](), "widgets")

	id, err := c.InsertOne(ctx, newWidget("a"))
	require.NoError(t, err)
	_, err = c.FindByID(ctx, id)
	require.NoError(t, err)
	_, err = c.FindByID(ctx, primitive.NewObjectID())
	require.ErrorIs(t, err, ErrNoDocument)

	spans := sr.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "docstore.insert", spans[0].Name())
	assert.Equal(t, "docstore.find_by_id", spans[1].Name())
	for _, s := range spans {
		assert.NotEqual(t, "Error", s.Status().Code.String())
	}
}

func TestUpdateDocument(t *testing.T) {
	id := primitive.NewObjectID()
	doc := Update{
		Set:  bson.M{"name": "x"},
		Push: map[string][]primitive.ObjectID{"tags": {id}, "empty": nil},
	}.document()

	assert.Equal(t, bson.M{
		"$set":  bson.M{"name": "x"},
		"$push": bson.M{"tags": bson.M{"$each": []primitive.ObjectID{id}}},
	}, doc)
	assert.True(t, Update{Push: map[string][]primitive.ObjectID{"tags": nil}}.IsEmpty())
}
