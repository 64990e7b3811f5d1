// SPDX-License-Identifier: EPL-2.0

package audconv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// BatchOptions controls ConvertAll.
type BatchOptions struct {
	// Limit is the number of conversions running at once. Zero or less
	// means no limit.
	Limit int

	// KeepGoing runs every conversion even after one failed. All failures
	// are then joined into the returned error. Without it the first failure
	// cancels the conversions still running.
	KeepGoing bool
}

// ConvertAll runs Convert on every converter concurrently. Results are
// returned in the order of converters. The entry of a failed or skipped
// conversion has Err set and holds whatever was known when it stopped. Each
// converter is used by one goroutine only.
func ConvertAll(ctx context.Context, converters []*Converter, opts BatchOptions) ([]Result, error) {
	results := make([]Result, len(converters))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Limit > 0 {
		g.SetLimit(opts.Limit)
	}

	var (
		mu   sync.Mutex
		errs []error
	)

	for i, c := range converters {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Input: c.InputPath(), Output: c.OutputPath(), Err: err}
				return err
			}

			res, err := c.Convert(gctx)
			if err != nil {
				err = fmt.Errorf("convert %s: %w", c.InputPath(), err)
				res.Err = err
			}
			results[i] = res
			if err == nil {
				return nil
			}

			if !opts.KeepGoing {
				return err
			}

			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, errors.Join(errs...)
}
