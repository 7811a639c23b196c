// Package worker runs a fixed pool of stateful workers over a list of inputs.
package worker

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

type Options struct {
	Workers int
	// TaskTimeout bounds a single Process call. Zero means no per-task limit.
	TaskTimeout time.Duration
	MaxRetries  int

	// BackoffInitial is the initial sleep before retrying a transient failure.
	BackoffInitial time.Duration
	// BackoffMax caps exponential backoff.
	BackoffMax time.Duration
	// BackoffJitterFrac applies +/- jitter to backoff sleeps (0.2 = +/-20%).
	BackoffJitterFrac float64
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = 200 * time.Millisecond
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 2 * time.Second
	}
	if o.BackoffJitterFrac < 0 {
		o.BackoffJitterFrac = 0
	}
	return o
}

// Worker owns per-goroutine resources, such as a browser session, that must
// never be shared between goroutines.
type Worker[In any, Out any] interface {
	Process(ctx context.Context, in In) (Out, error)
	Close() error
}

// Factory builds the Worker for one pool slot. It is called lazily, on the
// slot's first item.
type Factory[In any, Out any] func(id int) (Worker[In, Out], error)

// Result holds the output for one input item.
type Result[In any, Out any] struct {
	Index  int
	Input  In
	Output Out
	Err    error
}

// TransientError marks a failure worth retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProcessAll runs every item through a pool of workers and calls onResult in
// completion order from a single goroutine. An item error never stops the
// pool; only an onResult error or ctx cancellation does. Results are returned
// in input order.
func ProcessAll[In any, Out any](
	ctx context.Context,
	items []In,
	factory Factory[In, Out],
	onResult func(Result[In, Out]) error,
	opts Options,
) ([]Result[In, Out], error) {
	opts = opts.withDefaults()
	if opts.Workers > len(items) && len(items) > 0 {
		opts.Workers = len(items)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]Result[In, Out], len(items))

	type job struct {
		idx int
		in  In
	}

	jobs := make(chan job)
	done := make(chan Result[In, Out], opts.Workers)

	var wg sync.WaitGroup

	workerFn := func(id int) {
		defer wg.Done()

		var w Worker[In, Out]
		var buildErr error
		built := false
		defer func() {
			if w != nil {
				_ = w.Close()
			}
		}()

		for j := range jobs {
			if runCtx.Err() != nil {
				return
			}
			if !built {
				w, buildErr = factory(id)
				built = true
			}
			res := Result[In, Out]{Index: j.idx, Input: j.in}
			if buildErr != nil {
				res.Err = buildErr
			} else {
				res.Output, res.Err = processWithRetry(runCtx, j.in, w, opts)
			}
			select {
			case done <- res:
			case <-runCtx.Done():
				return
			}
		}
	}

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go workerFn(i)
	}

	go func() {
		defer close(jobs)
		for i, item := range items {
			select {
			case jobs <- job{idx: i, in: item}:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	var firstErr error
	for res := range done {
		out[res.Index] = res
		if onResult != nil && firstErr == nil {
			if err := onResult(res); err != nil {
				firstErr = err
				cancel()
			}
		}
	}

	if firstErr != nil {
		return out, firstErr
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

func processWithRetry[In any, Out any](
	ctx context.Context,
	item In,
	w Worker[In, Out],
	opts Options,
) (Out, error) {
	var lastOut Out
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return lastOut, err
		}

		taskCtx := ctx
		var cancel context.CancelFunc
		if opts.TaskTimeout > 0 {
			taskCtx, cancel = context.WithTimeout(ctx, opts.TaskTimeout)
		}
		result, err := w.Process(taskCtx, item)
		lastOut = result
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return lastOut, ctx.Err()
		}
		if !isTransient(err) || attempt >= opts.MaxRetries {
			return lastOut, err
		}

		sleep := backoffSleep(opts.BackoffInitial, opts.BackoffMax, opts.BackoffJitterFrac, attempt)
		t := time.NewTimer(sleep)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return lastOut, ctx.Err()
		}
	}
}

func isTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func backoffSleep(initial, max time.Duration, jitterFrac float64, attempt int) time.Duration {
	sleep := initial
	for i := 0; i < attempt && sleep < max; i++ {
		sleep *= 2
		if sleep > max {
			sleep = max
			break
		}
	}
	if jitterFrac <= 0 {
		return sleep
	}
	j := 1 + (rand.Float64()*2-1)*jitterFrac
	return time.Duration(float64(sleep) * j)
}
