// Package engine steps a net through one of its four run modes and applies
// the shared fire/commit/reset operator (spec §4.3-4.5).
package engine

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/petrisim/macchiato/petri"
	"github.com/petrisim/macchiato/sampler"
	"github.com/petrisim/macchiato/schedule"
)

// Engine drives one independent simulation run. It owns the net, a private
// RNG stream, and (for schedule mode) the persistent fire-time schedule.
type Engine struct {
	Net *petri.Net
	rng *rand.Rand
	log zerolog.Logger
	sch *schedule.Schedule
}

// New constructs an engine for net. rng must not be shared with any other
// concurrently running engine (spec §5: distinct RNG stream per run).
func New(net *petri.Net, rng *rand.Rand, log zerolog.Logger) *Engine {
	e := &Engine{Net: net, rng: rng, log: log}
	if net.RunMode == "schedule" {
		e.sch = schedule.New(net)
	}
	return e
}

// StepResult summarizes one committed step for the trace writer.
type StepResult struct {
	Step      int
	Clock     float64
	Fired     []string
	Done      bool // a termination condition was reached after this step
	Quiescent bool // Done because nothing was ready to fire, not a place/MaxFire limit
}

// trackWaiting reports whether this engine's mode needs waiting-record
// bookkeeping from the enabling analyser (spec §4.1).
func (e *Engine) trackWaiting() bool {
	return e.Net.RunMode == "stochastic" || e.Net.RunMode == "schedule"
}

// Step advances the net by exactly one commit and returns the result. Once
// StepResult.Done is true the caller must not call Step again.
func (e *Engine) Step() StepResult {
	ready := e.Net.Evaluate(e.Net.Step, e.Net.Clock, e.trackWaiting())

	var firing []*petri.Transition
	var deltaT float64

	switch e.Net.RunMode {
	case "all":
		firing, deltaT = e.stepAll(ready)
	case "single":
		firing, deltaT = e.stepSingle(ready)
	case "stochastic":
		firing, deltaT = e.stepStochastic(ready)
	case "schedule":
		firing, deltaT = e.stepSchedule(ready)
	default:
		panic(&petri.ConstructionError{Msg: "unknown run mode " + e.Net.RunMode})
	}

	result := e.commit(firing, deltaT)

	// Quiescence: no transition fired and none is ready, so no later step
	// could make progress either (spec scenarios "terminates with no ready
	// transitions" / "no step executes"). In schedule mode this also means
	// the schedule itself is empty, since Prune/Populate keep it in lock
	// step with the ready set.
	if len(firing) == 0 && len(ready) == 0 {
		result.Done = true
		result.Quiescent = true
	}
	return result
}

// stepAll implements spec §4.3 "all": fire every ready transition, then
// resolve input/output conflicts by removing one of each conflicting pair
// uniformly at random until stable. A pair sharing no conflicting place is
// left alone; both survive.
func (e *Engine) stepAll(ready []*petri.Transition) ([]*petri.Transition, float64) {
	firing := append([]*petri.Transition(nil), ready...)
	for {
		i, j, conflict := firstConflict(firing)
		if !conflict {
			break
		}
		loser := i
		if e.rng.Intn(2) == 1 {
			loser = j
		}
		firing = append(firing[:loser], firing[loser+1:]...)
	}
	return firing, 0
}

func firstConflict(firing []*petri.Transition) (int, int, bool) {
	for i := 0; i < len(firing); i++ {
		for j := i + 1; j < len(firing); j++ {
			if transitionsConflict(firing[i], firing[j]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func transitionsConflict(a, b *petri.Transition) bool {
	for _, ai := range a.InArcs {
		if ai.Kind != petri.ArcStd {
			continue
		}
		for _, bi := range b.InArcs {
			if bi.Kind != petri.ArcStd || bi.Place != ai.Place {
				continue
			}
			if ai.Place.Tokens-ai.Weight-bi.Weight < ai.Place.Min {
				return true
			}
		}
	}
	for _, ao := range a.OutArcs {
		for _, bo := range b.OutArcs {
			if bo.Place != ao.Place {
				continue
			}
			if ao.Place.Tokens+ao.Weight+bo.Weight > ao.Place.Max {
				return true
			}
		}
	}
	return false
}

// stepSingle implements spec §4.3 "single".
func (e *Engine) stepSingle(ready []*petri.Transition) ([]*petri.Transition, float64) {
	if len(ready) == 0 {
		return nil, 0
	}
	pick := ready[e.rng.Intn(len(ready))]
	return []*petri.Transition{pick}, 0
}

// stepStochastic implements spec §4.3 "stochastic".
func (e *Engine) stepStochastic(ready []*petri.Transition) ([]*petri.Transition, float64) {
	var instant, rates, waitingDelays []*petri.Transition
	for _, t := range ready {
		switch {
		case t.IsInstant() || t.HasZeroWeightPcnTokens():
			instant = append(instant, t)
		case t.Kind == petri.KindRate:
			rates = append(rates, t)
		case t.Kind == petri.KindDelay && t.Waiting != nil:
			waitingDelays = append(waitingDelays, t)
		}
	}

	if len(instant) > 0 {
		pick := instant[e.rng.Intn(len(instant))]
		return []*petri.Transition{pick}, 0
	}
	if len(rates) == 0 {
		return nil, 0
	}

	sumRate := 0.0
	for _, t := range rates {
		con := sampler.Conditional(t)
		t.PcnStatus = con
		sumRate += t.Rate * con
	}
	deltaT := -math.Log(e.rng.Float64()) / sumRate

	target := e.rng.Float64() * sumRate
	cum := 0.0
	pick := rates[len(rates)-1]
	for _, t := range rates {
		cum += t.Rate * t.PcnStatus
		if target <= cum {
			pick = t
			break
		}
	}

	if earliest, fireTime, ok := e.earliestWaitingDelay(waitingDelays, deltaT); ok {
		return []*petri.Transition{earliest}, fireTime - e.Net.Clock
	}
	return []*petri.Transition{pick}, deltaT
}

// earliestWaitingDelay implements the waiting-delay preemption rule of spec
// §4.3: among fixed-delay transitions already waiting whose absolute fire
// time is at or before clock+deltaT, pick the earliest, breaking ties
// uniformly at random (spec §9 open question (b)).
func (e *Engine) earliestWaitingDelay(waiting []*petri.Transition, deltaT float64) (*petri.Transition, float64, bool) {
	if len(waiting) == 0 {
		return nil, 0, false
	}
	deadline := e.Net.Clock + deltaT
	min := math.Inf(1)
	var candidates []*petri.Transition
	for _, t := range waiting {
		fireTime := t.Waiting.Clock + t.Delay
		if fireTime > deadline {
			continue
		}
		switch {
		case fireTime < min:
			min = fireTime
			candidates = []*petri.Transition{t}
		case fireTime == min:
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, 0, false
	}
	return candidates[e.rng.Intn(len(candidates))], min, true
}

// stepSchedule implements spec §4.4.
func (e *Engine) stepSchedule(ready []*petri.Transition) ([]*petri.Transition, float64) {
	e.sch.Prune(e.Net, ready)
	e.sch.PopulateReschedule(e.Net.Clock, ready, e.rng)

	if instant := e.sch.InstantCandidates(ready); len(instant) > 0 {
		pick := instant[e.rng.Intn(len(instant))]
		return []*petri.Transition{pick}, 0
	}

	labels, deltaT, ok := e.sch.PopMinimum(e.Net.Clock)
	if !ok {
		return nil, 0
	}
	pick := labels[e.rng.Intn(len(labels))]
	e.sch.Remove(pick)
	t, _ := e.Net.Transition(pick)
	return []*petri.Transition{t}, deltaT
}
