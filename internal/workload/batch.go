package workload

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Options configure a batch run.
type Options struct {
	// Workers bounds the number of rows processed concurrently.
	// Values < 1 use runtime.NumCPU().
	Workers int

	// OnError decides what happens to failed rows. Empty means OnErrorEmpty.
	OnError OnError
}

// Result holds every outcome of a batch in input order.
type Result struct {
	Outcomes []Outcome
	Summary  Summary
}

// Output returns the outcomes that belong in the output file: all of them,
// except failed rows under OnErrorSkip.
func (r *Result) Output(onErr OnError) []Outcome {
	if onErr != OnErrorSkip {
		return r.Outcomes
	}
	out := make([]Outcome, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Status != StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// RowError is returned by Run under OnErrorAbort.
type RowError struct {
	Seq int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Seq, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Run generates hints for queries on a bounded worker pool. Each worker
// writes into its own slot, so the result order equals the input order
// regardless of scheduling.
//
// Context cancellation stops scheduling new rows and returns ctx.Err().
// On any error the returned Result is not nil and holds the rows finished
// before the batch stopped.
func Run(ctx context.Context, g *Generator, queries []string, opts Options) (*Result, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	onErr := opts.OnError
	if onErr == "" {
		onErr = OnErrorEmpty
	}

	outcomes := make([]Outcome, len(queries))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	log.Debug().
		Int("rows", len(queries)).
		Int("workers", workers).
		Str("policy", g.Policy().String()).
		Msg("starting batch")

	for i, sql := range queries {
		if gctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			o := g.Generate(i, sql)
			outcomes[i] = o
			logOutcome(o)

			if o.Status == StatusFailed && onErr == OnErrorAbort {
				return &RowError{Seq: i, Err: o.Err}
			}
			return nil
		})
	}

	err := eg.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		done := slices.DeleteFunc(outcomes, func(o Outcome) bool { return o.Status == "" })
		return &Result{Outcomes: done, Summary: Summarize(done)}, err
	}

	return &Result{Outcomes: outcomes, Summary: Summarize(outcomes)}, nil
}

func logOutcome(o Outcome) {
	switch o.Status {
	case StatusFailed:
		log.Warn().Err(o.Err).Int("row", o.Seq).Msg("hint generation failed")
	default:
		ev := log.Debug().
			Int("row", o.Seq).
			Str("status", string(o.Status)).
			Int("directives", len(o.Directives))
		if len(o.Skipped) > 0 {
			ev = ev.Int("skipped", len(o.Skipped))
		}
		if len(o.Warnings) > 0 {
			ev = ev.Strs("warnings", o.Warnings)
		}
		ev.Msg("row processed")
	}
}
