// Package batch provides the bounded-concurrency execution primitives the
// scanners are built on: fixed-size batch processing with retry and progress
// reporting, a token-bucket rate limiter, and a continuously-fed bounded
// queue. All state is instance-owned; nothing in this package is a process
// singleton.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Default tuning. The sequential variant processes one item at a time; the
// parallel variant keeps up to defaultParallelism items in flight.
const (
	defaultBatchSize   = 10
	defaultParallelism = 5
)

// Action tells Process how to proceed after an item has exhausted its retry
// budget.
type Action int

const (
	// Skip records the failure and continues with the remaining items.
	Skip Action = iota
	// Stop aborts the whole run and surfaces the item's error.
	Stop
	// Retry grants the item one more attempt regardless of the retry budget.
	Retry
)

// Progress is reported to the OnProgress callback after every completed item.
type Progress struct {
	Total      int
	Processed  int
	Successful int
	Failed     int
	Batch      int // Zero-based index of the batch currently in flight.
	Percent    float64
	// ETA is estimated from the running average item latency. Zero until the
	// first item completes.
	ETA time.Duration
}

// Options tunes one Process invocation. The zero value is usable.
type Options struct {
	BatchSize   int
	Concurrency int
	MaxRetries  int
	// RetryDelay is the base backoff; attempt n waits RetryDelay * n.
	RetryDelay time.Duration

	// OnError classifies an item's terminal failure. Nil defaults to Skip.
	OnError func(item any, err error, index int) Action
	// OnProgress, when set, receives a snapshot after every completed item.
	OnProgress func(p Progress)
}

func (o Options) withDefaults(concurrency int) Options {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = concurrency
	}
	return o
}

// Failure records one item that could not be processed.
type Failure[T any] struct {
	Item  T
	Err   error
	Index int
}

// Stats summarizes one Process run.
type Stats struct {
	Total      int
	Successful int
	Failed     int
	Skipped    int
	Duration   time.Duration
	AvgPerItem time.Duration
}

// Result carries the outcome of one Process run. For the parallel variant
// Results is index-aligned with the input slice (failed slots keep the zero
// value); the sequential variant appends results in completion order.
type Result[T, R any] struct {
	Results  []R
	Failures []Failure[T]
	Stats    Stats
}

// Process runs worker over items one at a time, in fixed-size batches.
// Results are appended in completion order; failed items leave no slot.
func Process[T, R any](ctx context.Context, items []T, worker func(context.Context, T) (R, error), opts Options) (*Result[T, R], error) {
	return run(ctx, items, worker, opts.withDefaults(1), false)
}

// ProcessParallel runs worker over items with bounded concurrency inside each
// batch. Results is index-aligned with the input order regardless of the
// order in which items complete.
func ProcessParallel[T, R any](ctx context.Context, items []T, worker func(context.Context, T) (R, error), opts Options) (*Result[T, R], error) {
	return run(ctx, items, worker, opts.withDefaults(defaultParallelism), true)
}

// tracker accumulates run statistics shared by the in-flight workers.
type tracker struct {
	mu         sync.Mutex
	total      int
	processed  int
	successful int
	failed     int
	batch      int
	elapsed    time.Duration // Sum of item latencies, feeds the ETA estimate.
}

// complete records one finished item and returns a progress snapshot.
func (t *tracker) complete(ok bool, itemDuration time.Duration) Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.processed++
	if ok {
		t.successful++
	} else {
		t.failed++
	}
	t.elapsed += itemDuration

	p := Progress{
		Total:      t.total,
		Processed:  t.processed,
		Successful: t.successful,
		Failed:     t.failed,
		Batch:      t.batch,
		Percent:    float64(t.processed) / float64(t.total) * 100,
	}
	if t.processed > 0 {
		avg := t.elapsed / time.Duration(t.processed)
		p.ETA = avg * time.Duration(t.total-t.processed)
	}
	return p
}

func run[T, R any](ctx context.Context, items []T, worker func(context.Context, T) (R, error), opts Options, aligned bool) (*Result[T, R], error) {
	start := time.Now()
	res := &Result[T, R]{}
	if aligned {
		res.Results = make([]R, len(items))
	}

	tr := &tracker{total: len(items)}
	var mu sync.Mutex // Guards res between workers.

	for batchStart := 0; batchStart < len(items); batchStart += opts.BatchSize {
		// Cooperative cancellation: checked before each batch.
		if err := ctx.Err(); err != nil {
			return finish(res, tr, start), err
		}

		batchEnd := min(batchStart+opts.BatchSize, len(items))
		tr.mu.Lock()
		tr.batch = batchStart / opts.BatchSize
		tr.mu.Unlock()

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)

		for i := batchStart; i < batchEnd; i++ {
			index := i
			item := items[i]
			g.Go(func() error {
				// Checked before each item; a started item always finishes.
				if err := gctx.Err(); err != nil {
					return err
				}

				itemStart := time.Now()
				value, err, action := attemptItem(gctx, item, index, worker, opts)

				mu.Lock()
				if err == nil {
					if aligned {
						res.Results[index] = value
					} else {
						res.Results = append(res.Results, value)
					}
				} else {
					res.Failures = append(res.Failures, Failure[T]{Item: item, Err: err, Index: index})
				}
				mu.Unlock()

				p := tr.complete(err == nil, time.Since(itemStart))
				if opts.OnProgress != nil {
					opts.OnProgress(p)
				}

				if action == Stop {
					return fmt.Errorf("batch processing stopped at item %d: %w", index, err)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return finish(res, tr, start), err
		}
	}

	return finish(res, tr, start), nil
}

// attemptItem runs one item through its full retry ladder: MaxRetries
// budgeted retries with linear backoff, then the OnError classifier, which
// may keep granting single extra attempts. The returned action is Stop only
// when the classifier asked to abort the run.
func attemptItem[T, R any](ctx context.Context, item T, index int, worker func(context.Context, T) (R, error), opts Options) (R, error, Action) {
	var zero R
	var lastErr error

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			// Linear backoff, timed suspension rather than a spin loop.
			select {
			case <-time.After(opts.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return zero, ctx.Err(), Skip
			}
		}

		value, err := worker(ctx, item)
		if err == nil {
			return value, nil, Skip
		}
		lastErr = err

		if attempt < opts.MaxRetries {
			continue
		}

		switch classify(opts, item, lastErr, index) {
		case Retry:
			// One extra attempt beyond the budget. opts is a local copy, so
			// raising the budget only affects this item.
			opts.MaxRetries = attempt + 1
		case Stop:
			return zero, lastErr, Stop
		default:
			return zero, lastErr, Skip
		}
	}
}

func classify(opts Options, item any, err error, index int) Action {
	if opts.OnError == nil {
		return Skip
	}
	return opts.OnError(item, err, index)
}

func finish[T, R any](res *Result[T, R], tr *tracker, start time.Time) *Result[T, R] {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	res.Stats = Stats{
		Total:      tr.total,
		Successful: tr.successful,
		Failed:     tr.failed,
		Skipped:    tr.failed, // Skipped items are exactly the recorded failures.
		Duration:   time.Since(start),
	}
	if tr.processed > 0 {
		res.Stats.AvgPerItem = tr.elapsed / time.Duration(tr.processed)
	}
	return res
}
