// internal/chaos/experiment.go
package chaos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Experiment checks a hypothesis about behaviour under injected faults.
type Experiment struct {
	Name       string
	Hypothesis string
	// SteadyState must pass before any fault is injected.
	SteadyState func(context.Context) error
	Faults      []Fault
	// Method is the action performed while the faults are active. Its error
	// is recorded, not treated as a failed experiment.
	Method func(context.Context) error
	// Verify runs after the faults are removed and decides whether the
	// hypothesis held.
	Verify func(ctx context.Context, methodErr error) error
}

// Result captures one experiment run.
type Result struct {
	Name             string
	StartTime        time.Time
	Duration         time.Duration
	SteadyStateValid bool
	FaultsFired      int
	MethodErr        error
	HypothesisHeld   bool
	Violation        error
}

// ErrSteadyState is returned by Run when the system was unhealthy before
// any fault was injected.
var ErrSteadyState = errors.New("steady state invalid - aborting experiment")

// Run executes exp against the collections wrapped with i. Faults are
// always removed before Run returns.
func (i *Injector) Run(ctx context.Context, exp Experiment) (*Result, error) {
	ctx, span := i.tracer.Start(ctx, "chaos.run_experiment",
		trace.WithAttributes(attribute.String("experiment.name", exp.Name)))
	defer span.End()

	res := &Result{Name: exp.Name, StartTime: time.Now()}
	defer func() { res.Duration = time.Since(res.StartTime) }()

	span.AddEvent("validating_steady_state")
	if exp.SteadyState != nil {
		if err := exp.SteadyState(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "steady state invalid")
			return res, errors.Wrap(ErrSteadyState, err.Error())
		}
	}
	res.SteadyStateValid = true

	span.AddEvent("injecting_chaos")
	before := i.Injected()
	for _, f := range exp.Faults {
		i.Inject(f)
	}
	if exp.Method != nil {
		res.MethodErr = exp.Method(ctx)
	}

	span.AddEvent("rolling_back")
	i.Clear()
	res.FaultsFired = i.Injected() - before

	span.AddEvent("validating_hypothesis")
	res.HypothesisHeld = true
	if exp.Verify != nil {
		if err := exp.Verify(ctx, res.MethodErr); err != nil {
			res.HypothesisHeld = false
			res.Violation = err
		}
	}

	span.SetAttributes(
		attribute.Bool("hypothesis_held", res.HypothesisHeld),
		attribute.Int("faults_fired", res.FaultsFired),
	)
	return res, nil
}
