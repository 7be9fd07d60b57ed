// Package schedule implements the discrete-event core of the simulation
// engine's "schedule" run mode: a persistent map from transition label to
// absolute fire time that survives across steps so a pending delay is not
// resampled just because some other transition fired.
package schedule

import (
	"math"
	"math/rand"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/petrisim/macchiato/petri"
	"github.com/petrisim/macchiato/sampler"
)

// Schedule is the ordered map of spec §4.4, plus a bitset mirror of
// membership indexed by each transition's position in the net's TransOrder.
// PopulateReschedule's "already scheduled" test reads the bitset at the
// transition's position; set/remove keep it in step with fireTime.
type Schedule struct {
	index    map[string]int // transition label -> TransOrder position
	fireTime map[string]float64
	inSched  *bitset.BitSet
}

// New builds an empty schedule sized to net's current transition count.
func New(net *petri.Net) *Schedule {
	idx := make(map[string]int, len(net.TransOrder))
	for i, label := range net.TransOrder {
		idx[label] = i
	}
	return &Schedule{
		index:    idx,
		fireTime: make(map[string]float64),
		inSched:  bitset.New(uint(len(net.TransOrder))),
	}
}

func (s *Schedule) has(label string) bool {
	i, ok := s.index[label]
	return ok && s.inSched.Test(uint(i))
}

func (s *Schedule) set(label string, fireTime float64) {
	s.fireTime[label] = fireTime
	if i, ok := s.index[label]; ok {
		s.inSched.Set(uint(i))
	}
}

func (s *Schedule) remove(label string) {
	delete(s.fireTime, label)
	if i, ok := s.index[label]; ok {
		s.inSched.Clear(uint(i))
	}
}

// Prune drops every scheduled transition that is no longer ready, resetting
// its pcnStatus to 1 (spec §4.4 step 2).
func (s *Schedule) Prune(net *petri.Net, ready []*petri.Transition) {
	readySet := make(map[string]bool, len(ready))
	for _, t := range ready {
		readySet[t.Label] = true
	}
	for label := range s.fireTime {
		if !readySet[label] {
			if t, ok := net.Transition(label); ok {
				t.PcnStatus = 1
			}
			s.remove(label)
		}
	}
}

// PopulateReschedule implements spec §4.4 step 3: sample a wait for any
// ready, non-instant transition not yet scheduled, and reschedule any
// already-scheduled pcn transition whose conditional multiplier changed.
func (s *Schedule) PopulateReschedule(clock float64, ready []*petri.Transition, rng *rand.Rand) {
	for _, t := range ready {
		if t.IsInstant() || t.HasZeroWeightPcnTokens() {
			continue
		}
		if !s.has(t.Label) {
			wait := sampler.Sample(t, clock, rng)
			s.set(t.Label, clock+wait)
			continue
		}
		if t.HasPcn && t.Waiting != nil {
			con := sampler.Conditional(t)
			if con != t.PcnStatus {
				wait := sampler.Sample(t, clock, rng)
				fireTime := t.Waiting.Clock + wait
				if clock > fireTime {
					fireTime = clock
				}
				s.set(t.Label, fireTime)
			}
		}
	}
}

// InstantCandidates collects ready instant transitions and ready pcn-bypass
// transitions (a zero-weight pcn arc whose place holds tokens), removing
// each from the schedule as it goes (spec §4.4 step 4).
func (s *Schedule) InstantCandidates(ready []*petri.Transition) []*petri.Transition {
	var out []*petri.Transition
	for _, t := range ready {
		if t.IsInstant() || t.HasZeroWeightPcnTokens() {
			s.remove(t.Label)
			out = append(out, t)
		}
	}
	return out
}

// PopMinimum returns the transitions tied for the earliest scheduled fire
// time, in net transition order, and the resulting Δt (spec §4.4 step 5).
// It does not remove anything
// from the schedule: the caller picks one of labels uniformly at random and
// must call Remove on that one, leaving the other tied entries scheduled so
// they still fire at the same t* on a later step. ok is false if the
// schedule is empty.
func (s *Schedule) PopMinimum(clock float64) (labels []string, deltaT float64, ok bool) {
	if len(s.fireTime) == 0 {
		return nil, 0, false
	}
	min := math.Inf(1)
	for _, ft := range s.fireTime {
		if ft < min {
			min = ft
		}
	}
	for label, ft := range s.fireTime {
		if ft == min {
			labels = append(labels, label)
		}
	}
	sort.Slice(labels, func(i, j int) bool { return s.index[labels[i]] < s.index[labels[j]] })
	return labels, min - clock, true
}

// Remove drops a single transition from the schedule, used once the engine
// has chosen which of PopMinimum's tied labels actually fires.
func (s *Schedule) Remove(label string) {
	s.remove(label)
}

// Len reports how many transitions currently carry a scheduled fire time.
func (s *Schedule) Len() int {
	return len(s.fireTime)
}
