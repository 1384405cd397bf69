package harness

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of registering one fixture of a batch.
type Outcome[R any] struct {
	Index  int
	Ident  string
	Record R
	Err    error
}

// BatchResult holds one Outcome per input fixture, in input order.
type BatchResult[R any] struct {
	Kind     FixtureKind
	Outcomes []Outcome[R]
}

// Succeeded returns the records of successful registrations in input order.
func (b *BatchResult[R]) Succeeded() []R {
	var out []R
	for _, o := range b.Outcomes {
		if o.Err == nil {
			out = append(out, o.Record)
		}
	}
	return out
}

// Failed returns the failed outcomes in input order.
func (b *BatchResult[R]) Failed() []Outcome[R] {
	var out []Outcome[R]
	for _, o := range b.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Err joins a *FixtureRegistrationError for every failed outcome, or
// returns nil when all succeeded.
func (b *BatchResult[R]) Err() error {
	var errs []error
	for _, o := range b.Outcomes {
		if o.Err != nil {
			errs = append(errs, &FixtureRegistrationError{
				Kind:  b.Kind,
				Index: o.Index,
				Ident: o.Ident,
				Err:   o.Err,
			})
		}
	}
	return errors.Join(errs...)
}

// batch registers fixtures concurrently.
type batch[S, R any] struct {
	kind     FixtureKind
	limit    int
	ident    func(S) string
	register func(context.Context, S) (R, error)
	registry *Registry[R]
}

// run starts every registration, waits for all of them and appends each
// success to the registry as it completes. A failure never cancels the
// other registrations.
func (b *batch[S, R]) run(ctx context.Context, specs []S) *BatchResult[R] {
	result := &BatchResult[R]{
		Kind:     b.kind,
		Outcomes: make([]Outcome[R], len(specs)),
	}

	var g errgroup.Group
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}
	for i, spec := range specs {
		result.Outcomes[i] = Outcome[R]{Index: i, Ident: b.ident(spec)}
		g.Go(func() error {
			rec, err := b.registerOne(ctx, spec)
			if err != nil {
				result.Outcomes[i].Err = err
				return nil
			}
			result.Outcomes[i].Record = rec
			b.registry.Append(i, rec)
			return nil
		})
	}
	_ = g.Wait()

	return result
}

// registerOne calls register, reporting a panic as ErrRegistrationPanic.
func (b *batch[S, R]) registerOne(ctx context.Context, spec S) (rec R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRegistrationPanic, r)
		}
	}()
	return b.register(ctx, spec)
}
