// Package petri implements the extended Petri net data model: places,
// transitions, arcs, and the net container that owns them, plus the
// enabling analyser that decides which transitions are ready to fire.
package petri

// Net owns the places and transitions of one extended Petri net. Insertion
// order is the canonical iteration order and governs column order in trace
// files.
type Net struct {
	Name    string
	Units   string // label only, not interpreted
	RunMode string // "all" | "single" | "stochastic" | "schedule"

	Places      map[string]*Place
	PlaceOrder  []string
	Transitions map[string]*Transition
	TransOrder  []string

	Step  int
	Clock float64

	PlaceExit bool // a place's termination window was violated
	TransExit bool // a transition reached its MaxFire cap
}

// NewNet constructs an empty net. RunMode and Units are metadata the engine
// and trace writer consult; the net itself does not interpret them.
func NewNet(name, units, runMode string) *Net {
	return &Net{
		Name:        name,
		Units:       units,
		RunMode:     runMode,
		Places:      make(map[string]*Place),
		Transitions: make(map[string]*Transition),
	}
}

// AddPlace registers a place. It is a construction error to reuse a label.
func (n *Net) AddPlace(p *Place) error {
	if _, exists := n.Places[p.Label]; exists {
		return newConstructionError(p.Label, "duplicate place label")
	}
	if err := validateLabel(p.Label); err != nil {
		return err
	}
	n.Places[p.Label] = p
	n.PlaceOrder = append(n.PlaceOrder, p.Label)
	return nil
}

// AddTransition registers a transition. It is a construction error to reuse
// a label.
func (n *Net) AddTransition(t *Transition) error {
	if _, exists := n.Transitions[t.Label]; exists {
		return newConstructionError(t.Label, "duplicate transition label")
	}
	if err := validateLabel(t.Label); err != nil {
		return err
	}
	n.Transitions[t.Label] = t
	n.TransOrder = append(n.TransOrder, t.Label)
	return nil
}

// AddInArc adds an incoming arc (place -> transition) of the given kind and
// weight. weight is the integer arc weight for ArcStd/ArcInh; pcnWeight is
// the real-valued weight for ArcPcn (ignored otherwise).
func (n *Net) AddInArc(transLabel, placeLabel string, kind ArcKind, weight int, pcnWeight float64) error {
	t, ok := n.Transitions[transLabel]
	if !ok {
		return newReferenceError(transLabel, "unknown transition")
	}
	p, ok := n.Places[placeLabel]
	if !ok {
		return newReferenceError(placeLabel, "unknown place (incoming arc of %q)", transLabel)
	}
	switch kind {
	case ArcStd, ArcInh:
		if weight <= 0 {
			return newConstructionError(transLabel, "arc weight to %q must be > 0, got %d", placeLabel, weight)
		}
	case ArcPcn:
		if pcnWeight < 0 {
			return newConstructionError(transLabel, "pcn arc weight from %q must be >= 0, got %g", placeLabel, pcnWeight)
		}
	default:
		return newConstructionError(transLabel, "unknown arc kind %v", kind)
	}
	t.InArcs = append(t.InArcs, &Arc{Kind: kind, Place: p, Weight: weight, PcnWeight: pcnWeight})
	if kind == ArcPcn {
		t.HasPcn = true
	}
	return nil
}

// AddOutArc adds an outgoing arc (transition -> place), always standard.
func (n *Net) AddOutArc(transLabel, placeLabel string, weight int) error {
	t, ok := n.Transitions[transLabel]
	if !ok {
		return newReferenceError(transLabel, "unknown transition")
	}
	p, ok := n.Places[placeLabel]
	if !ok {
		return newReferenceError(placeLabel, "unknown place (outgoing arc of %q)", transLabel)
	}
	if weight <= 0 {
		return newConstructionError(transLabel, "outgoing arc weight to %q must be > 0, got %d", placeLabel, weight)
	}
	t.OutArcs = append(t.OutArcs, &OutArc{Place: p, Weight: weight})
	return nil
}

// SetReset expands glob patterns against the current place set and assigns
// the result as the transition's reset list. Per the design notes, an empty
// expansion is a warning (returned to the caller to log, not fatal) and an
// unresolved literal (no metacharacters, no match) is a construction error.
func (n *Net) SetReset(transLabel string, patterns []string) (warnings []string, err error) {
	t, ok := n.Transitions[transLabel]
	if !ok {
		return nil, newReferenceError(transLabel, "unknown transition")
	}
	labels := make([]string, 0, len(n.PlaceOrder))
	seen := make(map[string]bool)
	for _, pat := range patterns {
		matches := matchGlob(pat, n.PlaceOrder)
		if len(matches) == 0 {
			if isLiteral(pat) {
				return nil, newConstructionError(transLabel, "reset pattern %q matches no place", pat)
			}
			warnings = append(warnings, pat)
			continue
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				labels = append(labels, m)
			}
		}
	}
	t.Reset = labels
	return warnings, nil
}

// Place returns the place with the given label, or (nil, false).
func (n *Net) Place(label string) (*Place, bool) {
	p, ok := n.Places[label]
	return p, ok
}

// Transition returns the transition with the given label, or (nil, false).
func (n *Net) Transition(label string) (*Transition, bool) {
	t, ok := n.Transitions[label]
	return t, ok
}
