package petri

import "math"

// TransitionKind tags which of the eight timing policies a transition uses.
// Exactly one is active per transition; construction validates arity and
// ranges once so later code can switch on Kind without re-checking.
type TransitionKind uint8

const (
	KindInstant TransitionKind = iota
	KindRate
	KindUniform
	KindDelay
	KindWeibull
	KindBeta
	KindLognorm
	KindCyclic
)

func (k TransitionKind) String() string {
	switch k {
	case KindInstant:
		return "instant"
	case KindRate:
		return "rate"
	case KindUniform:
		return "uniform"
	case KindDelay:
		return "delay"
	case KindWeibull:
		return "weibull"
	case KindBeta:
		return "beta"
	case KindLognorm:
		return "lognorm"
	case KindCyclic:
		return "cyclic"
	default:
		return "unknown"
	}
}

// WaitRecord is the (step, clock) pair at which a transition became ready,
// used by schedule/stochastic-delay modes (spec §4.1).
type WaitRecord struct {
	Step  int
	Clock float64
}

// Transition is a timed or instant rule that atomically consumes and
// produces tokens when it fires.
type Transition struct {
	Label string
	Kind  TransitionKind

	Rate    float64 // KindRate: lambda
	Uniform float64 // KindUniform: upper bound U

	Delay float64 // KindDelay: fixed wait d

	WeibullEta   float64 // KindWeibull: scale, derived from the configured mean
	WeibullBeta  float64 // KindWeibull: shape
	WeibullSigma float64 // KindWeibull: stddev of per-fire eta jitter, >= 0

	BetaAlpha float64 // KindBeta
	BetaBeta  float64 // KindBeta
	BetaScale float64 // KindBeta: scale, defaults to 1

	LognormMu    float64 // KindLognorm
	LognormSigma float64 // KindLognorm

	CyclicPeriod float64 // KindCyclic: T0
	CyclicOffset float64 // KindCyclic: phase

	InArcs  []*Arc    // incoming, any kind
	OutArcs []*OutArc // outgoing, always standard

	MaxFire *int // optional cap on FiredCount; reaching it is a termination condition
	Vote    *int // optional k-of-N enabling threshold
	Reset   []string // place labels reset when this transition fires (globs already expanded)
	Group   *int     // optional, visualisation only

	FiredCount int
	LastFired  float64
	Waiting    *WaitRecord
	PcnStatus  float64 // last sampled conditional multiplier, starts at 1
	Ready      bool
	HasPcn     bool // true if any incoming arc is ArcPcn

	// ArcSatisfied is parallel to InArcs and records, for the most recent
	// evaluation, which standard incoming arcs individually held. For a
	// voting transition the committed firing only consumes from the arcs
	// marked true here (spec §4.1 rule 5, §4.5 step 2).
	ArcSatisfied []bool
}

func newTransition(label string) *Transition {
	return &Transition{
		Label:     label,
		Kind:      KindInstant,
		PcnStatus: 1,
	}
}

// NewInstantTransition constructs a zero-duration transition.
func NewInstantTransition(label string) *Transition {
	return newTransition(label)
}

// NewRateTransition constructs an exponential (Markovian) transition with
// rate lambda > 0.
func NewRateTransition(label string, rate float64) (*Transition, error) {
	if rate <= 0 {
		return nil, newConstructionError(label, "rate must be > 0, got %g", rate)
	}
	t := newTransition(label)
	t.Kind = KindRate
	t.Rate = rate
	return t, nil
}

// NewUniformTransition constructs a transition whose wait is uniform on (0, U].
func NewUniformTransition(label string, upper float64) (*Transition, error) {
	if upper <= 0 {
		return nil, newConstructionError(label, "uniform upper bound must be > 0, got %g", upper)
	}
	t := newTransition(label)
	t.Kind = KindUniform
	t.Uniform = upper
	return t, nil
}

// NewDelayTransition constructs a fixed-delay transition, d >= 0.
func NewDelayTransition(label string, delay float64) (*Transition, error) {
	if delay < 0 {
		return nil, newConstructionError(label, "delay must be >= 0, got %g", delay)
	}
	t := newTransition(label)
	t.Kind = KindDelay
	t.Delay = delay
	return t, nil
}

// NewWeibullTransition constructs a Weibull-distributed transition. eta is
// recomputed from the user-supplied mean as mean / Gamma(1 + 1/beta), per
// spec §3.
func NewWeibullTransition(label string, mean, beta, sigma float64) (*Transition, error) {
	if mean <= 0 {
		return nil, newConstructionError(label, "weibull mean must be > 0, got %g", mean)
	}
	if beta <= 0 {
		return nil, newConstructionError(label, "weibull beta must be > 0, got %g", beta)
	}
	if sigma < 0 {
		return nil, newConstructionError(label, "weibull sigma must be >= 0, got %g", sigma)
	}
	t := newTransition(label)
	t.Kind = KindWeibull
	t.WeibullEta = mean / math.Gamma(1+1/beta)
	t.WeibullBeta = beta
	t.WeibullSigma = sigma
	return t, nil
}

// NewBetaTransition constructs a Beta-distributed transition. scale defaults
// to 1 when 0 is passed.
func NewBetaTransition(label string, alpha, beta, scale float64) (*Transition, error) {
	if alpha <= 0 {
		return nil, newConstructionError(label, "beta alpha must be > 0, got %g", alpha)
	}
	if beta <= 0 {
		return nil, newConstructionError(label, "beta beta must be > 0, got %g", beta)
	}
	if scale == 0 {
		scale = 1
	}
	if scale < 0 {
		return nil, newConstructionError(label, "beta scale must be > 0, got %g", scale)
	}
	t := newTransition(label)
	t.Kind = KindBeta
	t.BetaAlpha = alpha
	t.BetaBeta = beta
	t.BetaScale = scale
	return t, nil
}

// NewLognormTransition constructs a log-normal-distributed transition.
func NewLognormTransition(label string, mu, sigma float64) (*Transition, error) {
	if sigma < 0 {
		return nil, newConstructionError(label, "lognorm sigma must be >= 0, got %g", sigma)
	}
	t := newTransition(label)
	t.Kind = KindLognorm
	t.LognormMu = mu
	t.LognormSigma = sigma
	return t, nil
}

// NewCyclicTransition constructs a phase-aligned periodic transition.
func NewCyclicTransition(label string, period, offset float64) (*Transition, error) {
	if period <= 0 {
		return nil, newConstructionError(label, "cyclic period must be > 0, got %g", period)
	}
	t := newTransition(label)
	t.Kind = KindCyclic
	t.CyclicPeriod = period
	t.CyclicOffset = offset
	return t, nil
}

// WithVote sets a k-of-N enabling threshold: at least n of the transition's
// standard incoming arcs must be individually satisfied for it to be ready
// (spec §4.1 rule 5). n must be a positive integer.
func (t *Transition) WithVote(n int) (*Transition, error) {
	if n <= 0 {
		return t, newConstructionError(t.Label, "vote threshold must be > 0, got %d", n)
	}
	t.Vote = &n
	return t, nil
}

// WithMaxFire sets a cap on FiredCount; reaching it is a termination
// condition (spec §4.5 step 6). n must be a positive integer.
func (t *Transition) WithMaxFire(n int) (*Transition, error) {
	if n <= 0 {
		return t, newConstructionError(t.Label, "max fire count must be > 0, got %d", n)
	}
	t.MaxFire = &n
	return t, nil
}

// IsInstant reports whether the transition fires with Δt == 0 whenever ready.
func (t *Transition) IsInstant() bool {
	return t.Kind == KindInstant
}

// HasZeroWeightPcnTokens reports whether the transition has a pcn incoming
// arc of weight 0 whose place currently holds tokens — the bypass condition
// of spec §4.2/§4.4 that forces instant-like behaviour.
func (t *Transition) HasZeroWeightPcnTokens() bool {
	for _, a := range t.InArcs {
		if a.Kind == ArcPcn && a.PcnWeight == 0 && a.Place.Tokens > 0 {
			return true
		}
	}
	return false
}

func (t *Transition) clone(placeByLabel map[string]*Place) *Transition {
	cp := *t
	cp.InArcs = make([]*Arc, len(t.InArcs))
	for i, a := range t.InArcs {
		cp.InArcs[i] = a.clone(placeByLabel)
	}
	cp.OutArcs = make([]*OutArc, len(t.OutArcs))
	for i, a := range t.OutArcs {
		cp.OutArcs[i] = a.clone(placeByLabel)
	}
	cp.Reset = append([]string(nil), t.Reset...)
	cp.ArcSatisfied = append([]bool(nil), t.ArcSatisfied...)
	if t.MaxFire != nil {
		v := *t.MaxFire
		cp.MaxFire = &v
	}
	if t.Vote != nil {
		v := *t.Vote
		cp.Vote = &v
	}
	if t.Group != nil {
		v := *t.Group
		cp.Group = &v
	}
	if t.Waiting != nil {
		w := *t.Waiting
		cp.Waiting = &w
	}
	return &cp
}
