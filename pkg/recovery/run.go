package recovery

import (
	"context"
	"sync"
	"time"

	"github.com/quidome/chk-recover/pkg/createdat"
	"github.com/quidome/chk-recover/pkg/signature"
)

// Observer receives progress events from Run. Implementations must be safe
// for concurrent use.
type Observer interface {
	// OnStart is called once before any file is processed.
	OnStart(total int)
	// OnFileDone is called after each file, in completion order.
	OnFileDone(done, total int, out Outcome, err error, dur time.Duration)
}

// Summary aggregates the outcomes of a batch.
type Summary struct {
	Total     int
	Processed int
	Recovered int

	Skipped  map[SkipReason]int
	Formats  map[signature.Format]int
	Sources  map[createdat.Source]int
	Outcomes []Outcome

	Suspicious    int
	Thumbnails    int
	StampFailures int

	Elapsed time.Duration
}

func newSummary(total int) Summary {
	return Summary{
		Total:    total,
		Skipped:  make(map[SkipReason]int),
		Formats:  make(map[signature.Format]int),
		Sources:  make(map[createdat.Source]int),
		Outcomes: make([]Outcome, 0, total),
	}
}

func (s *Summary) add(out Outcome) {
	s.Processed++
	s.Outcomes = append(s.Outcomes, out)
	if !out.Recovered() {
		s.Skipped[out.Skip]++
		return
	}
	s.Recovered++
	s.Formats[out.Match.Format]++
	s.Sources[out.Timestamp.Source]++
	if out.Size == SizeSuspicious {
		s.Suspicious++
	}
	if out.Dimensions == DimensionsLikelyThumbnail {
		s.Thumbnails++
	}
	if out.StampErr != nil {
		s.StampFailures++
	}
}

// Run processes paths with a pool of workers. Cancelling ctx stops handing
// out new files; files already in progress finish. workers below 1 means 1.
func (r *Recoverer) Run(ctx context.Context, paths []string, workers int, obs Observer) Summary {
	started := time.Now()
	if workers < 1 {
		workers = 1
	}

	r.log.Info().Int("files", len(paths)).Int("workers", workers).Bool("dry_run", r.opts.DryRun).
		Str("mode", string(r.opts.Plan.Mode)).Msg("recovery started")
	if obs != nil {
		obs.OnStart(len(paths))
	}

	type result struct {
		out Outcome
		err error
		dur time.Duration
	}

	jobs := make(chan string)
	results := make(chan result, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				oneStarted := time.Now()
				out, err := r.RecoverOne(ctx, p)
				results <- result{out: out, err: err, dur: time.Since(oneStarted)}
			}
		}()
	}

	go func() {
	dispatch:
		for _, p := range paths {
			select {
			case <-ctx.Done():
				break dispatch
			case jobs <- p:
			}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	sum := newSummary(len(paths))
	for res := range results {
		sum.add(res.out)
		if obs != nil {
			obs.OnFileDone(sum.Processed, sum.Total, res.out, res.err, res.dur)
		}
	}
	sum.Elapsed = time.Since(started)

	ev := r.log.Info().
		Int("files", sum.Total).
		Int("processed", sum.Processed).
		Int("recovered", sum.Recovered).
		Int("suspicious", sum.Suspicious).
		Int("thumbnails", sum.Thumbnails).
		Dur("elapsed", sum.Elapsed)
	for reason, n := range sum.Skipped {
		ev = ev.Int("skipped_"+string(reason), n)
	}
	ev.Msg("recovery finished")
	return sum
}
