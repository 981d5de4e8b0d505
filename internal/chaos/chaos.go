// internal/chaos/chaos.go

// Package chaos injects faults into document collections and runs
// experiments that check the repositories keep their guarantees while the
// store misbehaves.
package chaos

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"libraryql/internal/docstore"
)

// Op names a collection operation a fault can target.
type Op string

const (
	OpFind     Op = "find"
	OpFindByID Op = "find_by_id"
	OpInsert   Op = "insert"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
)

// Fault describes one injected failure. Latency is applied before Err is
// returned; a fault with only Latency slows the call down and lets it
// through.
type Fault struct {
	// Collection restricts the fault to one collection. Empty matches all.
	Collection string
	Op         Op
	Err        error
	Latency    time.Duration
	// Probability is the chance in (0, 1] the fault fires. Zero means always.
	Probability float64
}

// Injector holds the active faults shared by every wrapped collection.
type Injector struct {
	mu       sync.Mutex
	faults   []Fault
	rng      *rand.Rand
	injected int
	tracer   trace.Tracer
}

// NewInjector returns an injector with no active faults. seed makes
// probabilistic faults reproducible.
func NewInjector(seed int64) *Injector {
	return &Injector{
		rng:    rand.New(rand.NewSource(seed)),
		tracer: otel.Tracer("libraryql/chaos"),
	}
}

// Inject activates f.
func (i *Injector) Inject(f Fault) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.faults = append(i.faults, f)
}

// Clear removes every active fault.
func (i *Injector) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.faults = nil
}

// Injected reports how many calls a fault has fired on.
func (i *Injector) Injected() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.injected
}

func (i *Injector) pick(collection string, op Op) (Fault, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, f := range i.faults {
		if f.Op != op || (f.Collection != "" && f.Collection != collection) {
			continue
		}
		if f.Probability > 0 && i.rng.Float64() >= f.Probability {
			continue
		}
		i.injected++
		return f, true
	}
	return Fault{}, false
}

func (i *Injector) apply(ctx context.Context, collection string, op Op) error {
	f, ok := i.pick(collection, op)
	if !ok {
		return nil
	}
	trace.SpanFromContext(ctx).AddEvent("chaos.fault", trace.WithAttributes(
		attribute.String("db.collection", collection),
		attribute.String("chaos.op", string(op)),
		attribute.Int64("chaos.latency_ms", f.Latency.Milliseconds()),
		attribute.Bool("chaos.error", f.Err != nil),
	))
	if f.Latency > 0 {
		t := time.NewTimer(f.Latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return f.Err
}

// Wrap returns next with inj's faults applied to every call.
func Wrap[T any](next docstore.Collection[T], collection string, inj *Injector) docstore.Collection[T] {
	return &faultyCollection[T]{next: next, collection: collection, inj: inj}
}

type faultyCollection[T any] struct {
	next       docstore.Collection[T]
	collection string
	inj        *Injector
}

func (c *faultyCollection[T]) Find(ctx context.Context, filter bson.M) ([]*T, error) {
	if err := c.inj.apply(ctx, c.collection, OpFind); err != nil {
		return nil, err
	}
	return c.next.Find(ctx, filter)
}

func (c *faultyCollection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	if err := c.inj.apply(ctx, c.collection, OpFindByID); err != nil {
		return nil, err
	}
	return c.next.FindByID(ctx, id)
}

func (c *faultyCollection[T]) InsertOne(ctx context.Context, doc *T) (primitive.ObjectID, error) {
	if err := c.inj.apply(ctx, c.collection, OpInsert); err != nil {
		return primitive.NilObjectID, err
	}
	return c.next.InsertOne(ctx, doc)
}

func (c *faultyCollection[T]) UpdateByID(ctx context.Context, id primitive.ObjectID, u docstore.Update) (docstore.UpdateResult, error) {
	if err := c.inj.apply(ctx, c.collection, OpUpdate); err != nil {
		return docstore.UpdateResult{}, err
	}
	return c.next.UpdateByID(ctx, id, u)
}

func (c *faultyCollection[T]) DeleteByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	if err := c.inj.apply(ctx, c.collection, OpDelete); err != nil {
		return nil, err
	}
	return c.next.DeleteByID(ctx, id)
}
