// Package batch runs a net through many independent simulations and
// aggregates the results (spec §4.7): cumulative place/transition totals,
// and, when enabled, bucketed time-series statistics across runs.
package batch

// Config controls one batch of independent runs.
type Config struct {
	MaxClock     float64 // per-run time cap
	MaxSteps     int     // per-run step cap, 0 means unbounded
	SimsFactor   float64 // batch stops once Σ clock_i >= MaxClock*SimsFactor
	FixedRuns    int     // if > 0, run exactly this many runs instead of using SimsFactor
	Parallel     bool    // run independent simulations concurrently
	MaxWorkers   int     // concurrency cap when Parallel is set; 0 means GOMAXPROCS
	Verbose      bool
	Concatenate  bool
	EndOnly      bool
	Dir          string
	Places       []string // trace projection; nil means every place
	Transitions  []string // trace projection; nil means every transition

	History      bool    // enable bucketed aggregation
	AnalysisStep float64 // bucket width for History
}

// DefaultConfig returns small batch defaults (MaxClock 100, SimsFactor 1,
// AnalysisStep 1, no step cap). They are not the reference driver's
// defaults, which netfile.DefaultConfig holds; the CLI copies the parsed
// header values over these.
func DefaultConfig() Config {
	return Config{
		MaxClock:     100,
		MaxSteps:     0,
		SimsFactor:   1,
		FixedRuns:    0,
		AnalysisStep: 1,
	}
}

// PlaceTotal is the cumulative per-place tally across an entire batch.
type PlaceTotal struct {
	Ins            int
	Outs           int
	ResetCount     int
	TotalTokenTime float64
}

// Result is the outcome of running a batch to completion.
type Result struct {
	Runs       int
	TotalClock float64
	PlaceTotals map[string]*PlaceTotal
	TransTotals map[string]int

	Buckets *BucketedStats // nil unless Config.History was set
}

func newResult() *Result {
	return &Result{
		PlaceTotals: make(map[string]*PlaceTotal),
		TransTotals: make(map[string]int),
	}
}

func (r *Result) merge(run *runOutcome) {
	r.Runs++
	r.TotalClock += run.finalClock
	for label, t := range run.placeTotals {
		acc, ok := r.PlaceTotals[label]
		if !ok {
			acc = &PlaceTotal{}
			r.PlaceTotals[label] = acc
		}
		acc.Ins += t.Ins
		acc.Outs += t.Outs
		acc.ResetCount += t.ResetCount
		acc.TotalTokenTime += t.TotalTokenTime
	}
	for label, n := range run.transTotals {
		r.TransTotals[label] += n
	}
}
