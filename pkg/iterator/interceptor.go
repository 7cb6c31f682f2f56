package iterator

import (
	"context"
	"sync"
)

// Filter wraps an Iterator with a function that - when it returns true - will allow the return values of Next through.
// If the wrapped Iterator returns a non-nil error, then all values will be passed through regardless.
func Filter(iter Iterator, filter func(rec Record, i int) bool) Iterator {
	return Func(func() (Record, int, error) {
		for {
			rec, idx, err := iter.Next()
			if err != nil {
				return rec, idx, err
			}
			if filter(rec, idx) {
				return rec, idx, err
			}
		}
	})
}

// Map replaces every Record of iter with the result of fn.
// An error from fn stops the iteration and is returned from Next.
func Map(iter Iterator, fn func(rec Record) (Record, error)) Iterator {
	return Func(func() (Record, int, error) {
		rec, idx, err := iter.Next()
		if err != nil {
			return rec, idx, err
		}
		out, err := fn(rec)
		if err != nil {
			Drain(iter)
			return Err(err)
		}
		return out, idx, nil
	})
}

// Cancellable wraps an iterator and makes it cancellable by context.
// When the context is cancelled and Next is called, all remaining records will be forwarded to Drain.
func Cancellable(ctx context.Context, iter Iterator) Iterator {
	var drain sync.Once
	return Func(func() (Record, int, error) {
		if ctx.Err() != nil {
			drain.Do(func() {
				Drain(iter)
			})
			return End()
		}
		return iter.Next()
	})
}

// Concat will return records from next after base has been exhausted.
func Concat(base, next Iterator) Iterator {
	var idx int
	return Func(func() (Record, int, error) {
		rec, i, err := base.Next()
		if err != nil {
			if IsEnd(err) {
				rec, i, err := next.Next()
				if err != nil {
					return rec, i, err
				}
				return rec, i + idx, err
			}
			return rec, i, err
		}
		idx++
		return rec, i, err
	})
}
