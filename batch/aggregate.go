package batch

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// sample is one recorded (clock, state) observation taken after a committed
// step, used to reconstruct the piecewise-constant trajectory a place's
// token count (or a transition's fired count) followed during a run.
type sample struct {
	clock  float64
	tokens map[string]int
	resets map[string]int
	fired  map[string]int
}

// trajectory is one run's full sequence of samples, starting at clock 0.
type trajectory struct {
	samples    []sample
	finalClock float64
}

// runOutcome is what a single run contributes to a Result before merging.
type runOutcome struct {
	finalClock  float64
	placeTotals map[string]PlaceTotal
	transTotals map[string]int
	traj        trajectory
}

// BucketStat is the cross-run mean/standard-error/n for one (bucket, label)
// cell (spec §4.7 step 5).
type BucketStat struct {
	Mean float64
	SE   float64
	N    int
}

// BucketedStats holds the bucketed aggregation across an entire batch:
// per-place time-weighted average token count and reset count, and
// per-transition time-weighted average cumulative fire count.
type BucketedStats struct {
	BucketWidth float64
	NumBuckets  int

	// Tokens[place][bucket], Resets[place][bucket], Fired[transition][bucket].
	Tokens map[string][]BucketStat
	Resets map[string][]BucketStat
	Fired  map[string][]BucketStat
}

// aggregateBuckets implements spec §4.7 step 5 across every run's
// trajectory. placeOrder/transOrder fix row and column order.
func aggregateBuckets(trajs []trajectory, maxClock, width float64, placeOrder, transOrder []string) *BucketedStats {
	numBuckets := int(math.Ceil(maxClock / width))
	if numBuckets < 1 {
		numBuckets = 1
	}

	out := &BucketedStats{
		BucketWidth: width,
		NumBuckets:  numBuckets,
		Tokens:      make(map[string][]BucketStat, len(placeOrder)),
		Resets:      make(map[string][]BucketStat, len(placeOrder)),
		Fired:       make(map[string][]BucketStat, len(transOrder)),
	}

	for _, label := range placeOrder {
		out.Tokens[label] = bucketStatsForSeries(trajs, numBuckets, width, func(s sample) float64 {
			return float64(s.tokens[label])
		})
		out.Resets[label] = bucketStatsForSeries(trajs, numBuckets, width, func(s sample) float64 {
			return float64(s.resets[label])
		})
	}
	for _, label := range transOrder {
		out.Fired[label] = bucketStatsForSeries(trajs, numBuckets, width, func(s sample) float64 {
			return float64(s.fired[label])
		})
	}
	return out
}

// bucketStatsForSeries computes, for one scalar state variable (selected by
// extract), the per-bucket cross-run mean/SE/n of each run's time-weighted
// average of that variable within the bucket.
func bucketStatsForSeries(trajs []trajectory, numBuckets int, width float64, extract func(sample) float64) []BucketStat {
	stats := make([]BucketStat, numBuckets)
	for b := 0; b < numBuckets; b++ {
		lo, hi := float64(b)*width, float64(b+1)*width
		var perRunAvg []float64
		for _, tr := range trajs {
			if avg, ok := timeWeightedAverage(tr, lo, hi, extract); ok {
				perRunAvg = append(perRunAvg, avg)
			}
		}
		stats[b] = summarize(perRunAvg)
	}
	return stats
}

// timeWeightedAverage integrates extract(sample) over [lo, hi), treating
// the value as held constant from one sample until the next, and returns
// ok=false if the run never overlapped the bucket at all.
func timeWeightedAverage(tr trajectory, lo, hi float64, extract func(sample) float64) (float64, bool) {
	if len(tr.samples) == 0 {
		return 0, false
	}
	var weighted, covered float64
	for i, s := range tr.samples {
		segStart := s.clock
		segEnd := tr.finalClock
		if i+1 < len(tr.samples) {
			segEnd = tr.samples[i+1].clock
		}
		overlapLo := math.Max(segStart, lo)
		overlapHi := math.Min(segEnd, hi)
		if overlapHi <= overlapLo {
			continue
		}
		dur := overlapHi - overlapLo
		weighted += extract(s) * dur
		covered += dur
	}
	if covered <= 0 {
		return 0, false
	}
	return weighted / covered, true
}

func summarize(values []float64) BucketStat {
	n := len(values)
	if n == 0 {
		return BucketStat{}
	}
	mean := stat.Mean(values, nil)
	if n == 1 {
		return BucketStat{Mean: mean, SE: 0, N: 1}
	}
	sd := stat.StdDev(values, nil)
	return BucketStat{Mean: mean, SE: sd / math.Sqrt(float64(n)), N: n}
}
