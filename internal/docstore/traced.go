// internal/docstore/traced.go
package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Traced wraps next so every call runs inside a span named
// "docstore.<op>" tagged with the collection name.
func Traced[T any](next Collection[T], collection string) Collection[T] {
	return &tracedCollection[T]{
		next:       next,
		collection: collection,
		tracer:     otel.Tracer("libraryql/docstore"),
	}
}

type tracedCollection[T any] struct {
	next       Collection[T]
	collection string
	tracer     trace.Tracer
}

func (t *tracedCollection[T]) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.collection", t.collection))
	return t.tracer.Start(ctx, "docstore."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNoDocument) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *tracedCollection[T]) Find(ctx context.Context, filter bson.M) ([]*T, error) {
	ctx, span := t.start(ctx, "find", attribute.Int("filter.keys", len(filter)))
	docs, err := t.next.Find(ctx, filter)
	span.SetAttributes(attribute.Int("result.count", len(docs)))
	finish(span, err)
	return docs, err
}

func (t *tracedCollection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	ctx, span := t.start(ctx, "find_by_id", attribute.String("document.id", id.Hex()))
	doc, err := t.next.FindByID(ctx, id)
	finish(span, err)
	return doc, err
}

func (t *tracedCollection[T]) InsertOne(ctx context.Context, doc *T) (primitive.ObjectID, error) {
	ctx, span := t.start(ctx, "insert")
	id, err := t.next.InsertOne(ctx, doc)
	span.SetAttributes(attribute.String("document.id", id.Hex()))
	finish(span, err)
	return id, err
}

func (t *tracedCollection[T]) UpdateByID(ctx context.Context, id primitive.ObjectID, u Update) (UpdateResult, error) {
	ctx, span := t.start(ctx, "update", attribute.String("document.id", id.Hex()))
	res, err := t.next.UpdateByID(ctx, id, u)
	span.SetAttributes(
		attribute.Int64("result.matched", res.Matched),
		attribute.Int64("result.modified", res.Modified),
	)
	finish(span, err)
	return res, err
}

func (t *tracedCollection[T]) DeleteByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	ctx, span := t.start(ctx, "delete", attribute.String("document.id", id.Hex()))
	doc, err := t.next.DeleteByID(ctx, id)
	span.SetAttributes(attribute.Bool("result.deleted", doc != nil))
	finish(span, err)
	return doc, err
}
