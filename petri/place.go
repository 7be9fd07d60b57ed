package petri

import "math"

// Unbounded marks a place's Max as having no upper bound.
const Unbounded = math.MaxInt32

// Place is a token-holding node with bounds, optional termination limits,
// and per-place accounting.
type Place struct {
	Label string

	Tokens      int // current marking
	ResetTokens int // marking restored by a RESET clause, fixed at creation

	Min int // inclusive lower bound, invariant: Min <= Tokens <= Max
	Max int // inclusive upper bound; Unbounded for no cap

	HasTermLimits bool
	TermLo        int // run ends (placeExit) if Tokens < TermLo
	TermHi        int // run ends (placeExit) if Tokens > TermHi

	Ins            int     // cumulative tokens added by firings
	Outs           int     // cumulative tokens removed by firings
	ResetCount     int     // number of times this place has been reset
	TotalTokenTime float64 // sum of durations during which Tokens > 0

	Group *int // optional, visualisation only

	justReset bool // set by the last commit that reset this place; cleared on read
}

// NewPlace constructs a place with the given initial marking. Min defaults
// to 0 and Max to Unbounded; use WithBounds/WithTermLimits/WithGroup to
// refine it before adding it to a Net.
func NewPlace(label string, tokens int) *Place {
	return &Place{
		Label:       label,
		Tokens:      tokens,
		ResetTokens: tokens,
		Min:         0,
		Max:         Unbounded,
	}
}

// WithBounds sets the place's min/max token bounds. It returns a
// *ConstructionError if the bounds are invalid or violated by the current
// marking.
func (p *Place) WithBounds(min, max int) (*Place, error) {
	if min < 0 {
		return p, newConstructionError(p.Label, "min must be >= 0, got %d", min)
	}
	if max < min {
		return p, newConstructionError(p.Label, "max (%d) must be >= min (%d)", max, min)
	}
	if p.Tokens < min || p.Tokens > max {
		return p, newConstructionError(p.Label, "initial tokens %d outside [%d, %d]", p.Tokens, min, max)
	}
	p.Min, p.Max = min, max
	return p, nil
}

// WithTermLimits sets the place's termination window: the run ends with a
// place-exit condition the first time Tokens falls outside [lo, hi].
func (p *Place) WithTermLimits(lo, hi int) (*Place, error) {
	if hi < lo {
		return p, newConstructionError(p.Label, "termination hi (%d) must be >= lo (%d)", hi, lo)
	}
	p.HasTermLimits = true
	p.TermLo, p.TermHi = lo, hi
	return p, nil
}

// WithGroup assigns a visualisation-only group number.
func (p *Place) WithGroup(group int) (*Place, error) {
	if group < 0 {
		return p, newConstructionError(p.Label, "group must be >= 0, got %d", group)
	}
	p.Group = &group
	return p, nil
}

// violatesBounds reports whether the current marking breaks Min/Max; this is
// an assertion-class condition (spec §7), never a user error.
func (p *Place) violatesBounds() bool {
	return p.Tokens < p.Min || p.Tokens > p.Max
}

// ViolatesBounds is the exported form of violatesBounds, used by the engine
// package's post-commit invariant check (spec §4.5 step 3).
func (p *Place) ViolatesBounds() bool {
	return p.violatesBounds()
}

// violatesTermination reports whether the current marking should end the run.
func (p *Place) violatesTermination() bool {
	return p.HasTermLimits && (p.Tokens < p.TermLo || p.Tokens > p.TermHi)
}

// ViolatesTermination is the exported form of violatesTermination, used by
// the engine package's termination check (spec §4.5 step 6).
func (p *Place) ViolatesTermination() bool {
	return p.violatesTermination()
}

// MarkReset records that this place was reset by the commit currently in
// progress (spec §4.5 step 4).
func (p *Place) MarkReset() {
	p.justReset = true
}

// JustReset reports whether the place was reset by the most recently
// committed step, clearing the flag so a later, unrelated read doesn't see
// a stale mark.
func (p *Place) JustReset() bool {
	v := p.justReset
	p.justReset = false
	return v
}

// clone returns a deep, independent copy of the place (used by Net.Snapshot).
func (p *Place) clone() *Place {
	cp := *p
	if p.Group != nil {
		g := *p.Group
		cp.Group = &g
	}
	return &cp
}
