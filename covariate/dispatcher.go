package covariate

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/featurex/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBuilderTimeout bounds a single builder invocation.
	DefaultBuilderTimeout = 5 * time.Minute
	// DefaultConcurrency runs builders one at a time; many database drivers
	// serialize statements per connection anyway.
	DefaultConcurrency = 1
)

// Result is the validated output of one invocation. Data is nil when the
// builder produced no covariates.
type Result struct {
	Label     string
	BuilderID string
	Data      *Data
	Elapsed   time.Duration
}

type options struct {
	concurrency int
	timeout     time.Duration
}

// Option configures a Dispatcher or Extractor.
type Option func(*options)

// WithConcurrency sets how many builders may run at once (minimum 1).
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

// WithBuilderTimeout sets the per-builder timeout; d <= 0 disables it.
func WithBuilderTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// Dispatcher runs resolved invocations against a shared cohort.
type Dispatcher struct {
	opts options
}

// NewDispatcher returns a dispatcher with the given options.
func NewDispatcher(opts ...Option) *Dispatcher {
	o := options{concurrency: DefaultConcurrency, timeout: DefaultBuilderTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &Dispatcher{opts: o}
}

// Dispatch runs every invocation and returns results in invocation order.
// The first failing builder cancels the rest and fails the whole run with a
// *BuilderExecutionError; there is no partial result.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, invocations []Invocation) ([]Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}
	if len(invocations) == 0 {
		return nil, nil
	}
	rowIDs, err := loadRowIDs(ctx, req)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(invocations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.concurrency)
	for i, inv := range invocations {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			logger := ctxlog.FromContext(gctx).With("builder", inv.Label)
			logger.Debug("running builder")
			started := time.Now()

			data, err := d.run(gctx, req, inv)
			if err == nil {
				data, err = validate(data, rowIDs)
			}
			if err != nil {
				logger.Debug("builder failed", "error", err)
				return &BuilderExecutionError{BuilderID: inv.BuilderID, Label: inv.Label, Err: err}
			}
			elapsed := time.Since(started)
			if data == nil {
				logger.Debug("builder produced no covariates", "elapsed", elapsed)
			} else {
				logger.Debug("builder finished", "covariates", len(data.Covariates), "refs", len(data.Refs), "elapsed", elapsed)
			}
			results[i] = Result{Label: inv.Label, BuilderID: inv.BuilderID, Data: data, Elapsed: elapsed}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// run calls the builder under the per-builder timeout. A builder that
// ignores its context is abandoned when the timeout fires.
func (d *Dispatcher) run(ctx context.Context, req Request, inv Invocation) (*Data, error) {
	if d.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.timeout)
		defer cancel()
	}
	type outcome struct {
		data *Data
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		data, err := inv.Builder.Build(ctx, req, inv.Settings)
		done <- outcome{data: data, err: err}
	}()
	select {
	case out := <-done:
		return out.data, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// validate enforces the per-builder invariants: unique refs, row ids drawn
// from the cohort, and no zero values (those are dropped).
func validate(data *Data, rowIDs map[int64]struct{}) (*Data, error) {
	if data == nil {
		return nil, nil
	}
	seen := make(map[int64]bool, len(data.Refs))
	for _, ref := range data.Refs {
		if seen[ref.CovariateID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateRef, ref.CovariateID)
		}
		seen[ref.CovariateID] = true
	}
	covariates := make([]Covariate, 0, len(data.Covariates))
	for _, c := range data.Covariates {
		if c.Value == 0 {
			continue
		}
		if _, ok := rowIDs[c.RowID]; !ok {
			return nil, fmt.Errorf("%w: row %d (covariate %d)", ErrRowNotInCohort, c.RowID, c.CovariateID)
		}
		covariates = append(covariates, c)
	}
	out := *data
	out.Covariates = covariates
	return &out, nil
}
