// Package fallback runs an ordered list of strategies and keeps the first
// acceptable result. The AI backend chain and the content window widening
// both go through TryInOrder.
package fallback

import (
	"context"
	"errors"
	"fmt"
)

// ErrExhausted is returned when no strategy produced an accepted result.
var ErrExhausted = errors.New("all strategies failed")

// ErrRejected marks a strategy whose result was returned without error but
// failed the accept predicate.
var ErrRejected = errors.New("result rejected")

// Strategy is a single named attempt.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Attempt is a strategy that did not win.
type Attempt struct {
	Name string
	Err  error
}

// Result carries the winning value and the attempts that failed before it.
type Result[T any] struct {
	Value    T
	Name     string
	Index    int
	Attempts []Attempt
}

// TryInOrder runs strategies in order and returns the first result for which
// accept reports true. A nil accept accepts any error-free result.
func TryInOrder[T any](ctx context.Context, strategies []Strategy[T], accept func(T) bool) (Result[T], error) {
	var res Result[T]
	if len(strategies) == 0 {
		return res, fmt.Errorf("%w: no strategies configured", ErrExhausted)
	}

	errs := make([]error, 0, len(strategies))
	for i, s := range strategies {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		value, err := s.Run(ctx)
		if err == nil && accept != nil && !accept(value) {
			err = ErrRejected
		}
		if err != nil {
			res.Attempts = append(res.Attempts, Attempt{Name: s.Name, Err: err})
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}

		res.Value = value
		res.Name = s.Name
		res.Index = i
		return res, nil
	}

	return res, fmt.Errorf("%w: %w", ErrExhausted, errors.Join(errs...))
}
