package batch

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/petrisim/macchiato/engine"
	"github.com/petrisim/macchiato/petri"
	"github.com/petrisim/macchiato/trace"
)

// Runner executes a batch of independent simulations over a template net
// and aggregates their results (spec §4.7).
type Runner struct {
	template *petri.Net
	cfg      Config
	log      zerolog.Logger
	seedRNG  *rand.Rand
}

// NewRunner builds a batch runner. seed controls the deterministic sequence
// of per-run RNG seeds handed out by Run, sequential or parallel (spec §5: each run
// gets its own stream, but the batch as a whole stays reproducible).
func NewRunner(template *petri.Net, cfg Config, seed int64, log zerolog.Logger) *Runner {
	return &Runner{template: template, cfg: cfg, log: log, seedRNG: rand.New(rand.NewSource(seed))}
}

// Run executes the batch sequentially or in parallel, per Config.Parallel.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.cfg.Parallel {
		return r.runParallel(ctx)
	}
	return r.runSequential(ctx)
}

func (r *Runner) runSequential(ctx context.Context) (*Result, error) {
	result := newResult()
	var trajs []trajectory

	for i := 0; !r.stop(result, i); i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		outcome, err := r.runOne(i, r.seedRNG.Int63())
		if err != nil {
			return result, fmt.Errorf("batch: run %d: %w", i, err)
		}
		result.merge(outcome)
		if r.cfg.History {
			trajs = append(trajs, outcome.traj)
		}
	}

	if r.cfg.History {
		result.Buckets = aggregateBuckets(trajs, r.cfg.MaxClock, r.cfg.AnalysisStep, r.template.PlaceOrder, r.template.TransOrder)
	}
	return result, nil
}

// runParallel launches runs in waves of MaxWorkers (default GOMAXPROCS),
// checking the stopping condition between waves, mirroring a bounded
// worker-pool fan-out over independent, snapshot-isolated simulations.
func (r *Runner) runParallel(ctx context.Context) (*Result, error) {
	workers := r.cfg.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	result := newResult()
	var trajs []trajectory
	var mu sync.Mutex
	nextIndex := 0

	for !r.stop(result, nextIndex) {
		eg, egCtx := errgroup.WithContext(ctx)
		waveStart := nextIndex
		waveSize := workers
		if r.cfg.FixedRuns > 0 && waveStart+waveSize > r.cfg.FixedRuns {
			waveSize = r.cfg.FixedRuns - waveStart
		}

		for w := 0; w < waveSize; w++ {
			runIndex := waveStart + w
			seed := r.seedRNG.Int63()
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				outcome, err := r.runOne(runIndex, seed)
				if err != nil {
					return fmt.Errorf("batch: run %d: %w", runIndex, err)
				}
				mu.Lock()
				result.merge(outcome)
				if r.cfg.History {
					trajs = append(trajs, outcome.traj)
				}
				mu.Unlock()
				return nil
			})
		}
		nextIndex = waveStart + waveSize

		if err := eg.Wait(); err != nil {
			return result, err
		}
		if waveSize == 0 {
			break
		}
	}

	if r.cfg.History {
		result.Buckets = aggregateBuckets(trajs, r.cfg.MaxClock, r.cfg.AnalysisStep, r.template.PlaceOrder, r.template.TransOrder)
	}
	return result, nil
}

// stop implements spec §4.7 step 3: a fixed run count, or the cumulative
// clock target.
func (r *Runner) stop(result *Result, nextIndex int) bool {
	if r.cfg.FixedRuns > 0 {
		return nextIndex >= r.cfg.FixedRuns
	}
	return result.TotalClock >= r.cfg.MaxClock*r.cfg.SimsFactor
}

// runOne restores a fresh snapshot of the template net, steps it to
// termination or a resource cap, and returns its contribution to the batch.
func (r *Runner) runOne(runIndex int, seed int64) (*runOutcome, error) {
	net, err := r.template.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("restoring snapshot: %w", err)
	}

	runID := uuid.NewString()
	logger := r.log.With().Int("runIndex", runIndex).Str("runID", runID).Logger()
	if !r.cfg.Verbose {
		logger = logger.Level(zerolog.WarnLevel)
	}

	rng := rand.New(rand.NewSource(seed))
	eng := engine.New(net, rng, logger)

	var writer *trace.Writer
	if r.cfg.Dir != "" {
		writer, err = trace.NewWriter(net, trace.Config{
			Dir: r.cfg.Dir, RunIndex: runIndex, Concatenate: r.cfg.Concatenate,
			EndOnly: r.cfg.EndOnly, Places: r.cfg.Places, Transitions: r.cfg.Transitions,
		})
		if err != nil {
			return nil, err
		}
		defer writer.Close()
	}

	traj := trajectory{samples: []sample{takeSample(net)}}

	steps := 0
	for {
		res := eng.Step()
		steps++
		traj.samples = append(traj.samples, takeSample(net))

		isFinal := res.Done || (r.cfg.MaxSteps > 0 && steps >= r.cfg.MaxSteps) || net.Clock >= r.cfg.MaxClock
		if writer != nil && writer.ShouldEmit(isFinal) {
			if err := writer.WritePlacesRow(res.Step, res.Clock); err != nil {
				return nil, err
			}
			if err := writer.WriteTransitionsRow(res.Step, res.Clock); err != nil {
				return nil, err
			}
			if err := writer.WriteFiringListRow(res.Step, res.Clock, res.Fired); err != nil {
				return nil, err
			}
		}
		if isFinal {
			break
		}
	}
	traj.finalClock = net.Clock

	if writer != nil {
		if err := writer.WriteSummary(); err != nil {
			return nil, err
		}
	}

	outcome := &runOutcome{
		finalClock:  net.Clock,
		placeTotals: make(map[string]PlaceTotal, len(net.PlaceOrder)),
		transTotals: make(map[string]int, len(net.TransOrder)),
		traj:        traj,
	}
	for _, label := range net.PlaceOrder {
		p := net.Places[label]
		outcome.placeTotals[label] = PlaceTotal{Ins: p.Ins, Outs: p.Outs, ResetCount: p.ResetCount, TotalTokenTime: p.TotalTokenTime}
	}
	for _, label := range net.TransOrder {
		outcome.transTotals[label] = net.Transitions[label].FiredCount
	}
	return outcome, nil
}

func takeSample(net *petri.Net) sample {
	s := sample{
		clock:  net.Clock,
		tokens: make(map[string]int, len(net.PlaceOrder)),
		resets: make(map[string]int, len(net.PlaceOrder)),
		fired:  make(map[string]int, len(net.TransOrder)),
	}
	for _, label := range net.PlaceOrder {
		p := net.Places[label]
		s.tokens[label] = p.Tokens
		s.resets[label] = p.ResetCount
	}
	for _, label := range net.TransOrder {
		s.fired[label] = net.Transitions[label].FiredCount
	}
	return s
}
