// Package sampler draws wait times from a transition's configured
// distribution, applying the place-conditional multiplier derived from its
// pcn incoming arcs.
package sampler

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/petrisim/macchiato/petri"
)

// Conditional computes con = 1 + Σ pcn.weight * place.tokens over t's pcn
// incoming arcs.
func Conditional(t *petri.Transition) float64 {
	con := 1.0
	for _, a := range t.InArcs {
		if a.Kind == petri.ArcPcn {
			con += a.PcnWeight * float64(a.Place.Tokens)
		}
	}
	return con
}

// Sample draws a wait time for t under rng, recomputes T.pcnStatus as a side
// effect, and returns the wait. Instant transitions always return 0.
//
// A pcn arc of weight 0 whose place holds tokens bypasses the distribution
// (petri.Transition.HasZeroWeightPcnTokens); callers are expected to check
// that condition themselves before treating T as timed, since it changes
// scheduling behaviour, not just the wait value (spec §4.4 step 4).
func Sample(t *petri.Transition, clock float64, rng *rand.Rand) float64 {
	con := Conditional(t)
	t.PcnStatus = con

	switch t.Kind {
	case petri.KindInstant:
		return 0
	case petri.KindRate:
		u := rng.Float64()
		return -math.Log(u) / (t.Rate * con)
	case petri.KindUniform:
		return (1 - rng.Float64()) * (t.Uniform / con)
	case petri.KindDelay:
		return t.Delay / con
	case petri.KindWeibull:
		return sampleWeibull(t, con, rng)
	case petri.KindBeta:
		return sampleBeta(t, con, rng)
	case petri.KindLognorm:
		return sampleLognorm(t, con, rng)
	case petri.KindCyclic:
		return sampleCyclic(t, con, clock)
	default:
		return 0
	}
}

func sampleWeibull(t *petri.Transition, con float64, rng *rand.Rand) float64 {
	etaPrime := t.WeibullEta
	if t.WeibullSigma > 0 {
		n := distuv.Normal{Mu: t.WeibullEta, Sigma: t.WeibullSigma, Src: rng}
		etaPrime = math.Max(0, n.Rand())
	}
	u := rng.Float64()
	return (etaPrime / con) * math.Pow(-math.Log(1-u), 1/t.WeibullBeta)
}

func sampleBeta(t *petri.Transition, con float64, rng *rand.Rand) float64 {
	b := distuv.Beta{Alpha: t.BetaAlpha, Beta: t.BetaBeta, Src: rng}
	return b.Rand() * (t.BetaScale / con)
}

func sampleLognorm(t *petri.Transition, con float64, rng *rand.Rand) float64 {
	ln := distuv.LogNormal{Mu: t.LognormMu / con, Sigma: t.LognormSigma, Src: rng}
	return ln.Rand()
}

// sampleCyclic implements the phase-aligned cyclic wait of spec §4.2. p is
// the conditional period; w is measured back from the next boundary after
// clock, with the lastFired == clock guard pushing a same-instant refire to
// the following cycle rather than 0.
func sampleCyclic(t *petri.Transition, con float64, clock float64) float64 {
	p := t.CyclicPeriod / con
	w := p - math.Mod(clock-t.CyclicOffset, p)
	if w == p {
		w = 0
	}
	if w < 0 {
		w += p
	}
	if t.LastFired == clock {
		w += p
	}
	return w
}
