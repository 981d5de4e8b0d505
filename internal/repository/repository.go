// internal/repository/repository.go

// Package repository holds the pieces shared by the entity repositories:
// id parsing, timestamps, the empty-result policy and the fan-out used for
// reverse-reference writes.
package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"libraryql/internal/apperr"
)

// Options configures repository behavior shared by every entity.
type Options struct {
	// StrictEmptyResults reports an empty list or reverse lookup as NotFound.
	StrictEmptyResults bool
	// ParallelReverseWrites issues follow-up reverse-reference writes
	// concurrently. Either way the first failure is returned and writes that
	// already succeeded stay committed.
	ParallelReverseWrites bool
	Logger                *zap.Logger
}

// DefaultOptions matches the observed contract: empty results are NotFound
// and reverse writes run one at a time in list order.
func DefaultOptions() Options {
	return Options{StrictEmptyResults: true, Logger: zap.NewNop()}
}

// Log returns the configured logger or a no-op one.
func (o Options) Log() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// ParseID converts a caller-supplied hex id into an ObjectID.
func ParseID(resource, op, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.Validationf(resource, op, "invalid %s id %q", resource, id)
	}
	return oid, nil
}

// ParseIDs converts a list of hex ids. The result is never nil so it is
// stored as an empty array rather than null.
func ParseIDs(resource, op string, ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := ParseID(resource, op, id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

// Require fails with a Validation error naming every blank field. Arguments
// alternate field name and value.
func Require(resource, op string, fieldValues ...string) error {
	var missing []string
	for i := 0; i+1 < len(fieldValues); i += 2 {
		if strings.TrimSpace(fieldValues[i+1]) == "" {
			missing = append(missing, fieldValues[i])
		}
	}
	if len(missing) > 0 {
		return apperr.Validationf(resource, op, "%s is required", strings.Join(missing, ", "))
	}
	return nil
}

// Now is the creation timestamp, truncated to the millisecond precision the
// document store keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Results applies the empty-result policy to items.
func Results[T any](opts Options, items []T, notFound func() error) ([]T, error) {
	if len(items) == 0 {
		if opts.StrictEmptyResults {
			return nil, notFound()
		}
		return []T{}, nil
	}
	return items, nil
}

var reverseWrites metric.Int64Counter

func init() {
	var err error
	reverseWrites, err = otel.Meter("libraryql/repository").Int64Counter(
		"libraryql.reverse_writes",
		metric.WithDescription("Reverse-reference appends issued after a create, by target and outcome."),
	)
	if err != nil {
		otel.Handle(err)
	}
}

// FanOut runs write for each target id, sequentially in list order or
// concurrently when opts.ParallelReverseWrites is set. The first failure is
// returned; nothing is rolled back.
func FanOut(ctx context.Context, opts Options, target string, ids []primitive.ObjectID, write func(context.Context, primitive.ObjectID) error) error {
	record := func(ctx context.Context, err error) {
		if reverseWrites == nil {
			return
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		reverseWrites.Add(ctx, 1, metric.WithAttributes(
			attribute.String("target", target),
			attribute.String("outcome", outcome),
		))
	}

	if !opts.ParallelReverseWrites {
		for _, id := range ids {
			err := write(ctx, id)
			record(ctx, err)
			if err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := write(gctx, id)
			record(gctx, err)
			return err
		})
	}
	return g.Wait()
}
