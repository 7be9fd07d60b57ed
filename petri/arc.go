package petri

// ArcKind distinguishes the three kinds of place-to-transition arcs.
// Outgoing (transition-to-place) arcs are always standard and are
// represented by the separate OutArc type so that an inhibit or
// place-conditional arc pointing the wrong way cannot be constructed.
type ArcKind uint8

const (
	ArcStd ArcKind = iota // standard: directed either way, positive integer weight
	ArcInh                // inhibit: place -> transition only, positive integer weight
	ArcPcn                // place-conditional: place -> transition only, non-negative real weight
)

func (k ArcKind) String() string {
	switch k {
	case ArcStd:
		return "std"
	case ArcInh:
		return "inh"
	case ArcPcn:
		return "pcn"
	default:
		return "unknown"
	}
}

// Arc is an incoming (place -> transition) arc.
type Arc struct {
	Kind  ArcKind
	Place *Place

	Weight    int     // meaningful for Kind == ArcStd or ArcInh
	PcnWeight float64 // meaningful for Kind == ArcPcn; zero is legal (see sampler)
}

// OutArc is an outgoing (transition -> place) arc. It is always standard,
// so it carries only a place and a positive integer weight.
type OutArc struct {
	Place  *Place
	Weight int
}

func (a *Arc) clone(placeByLabel map[string]*Place) *Arc {
	cp := *a
	cp.Place = placeByLabel[a.Place.Label]
	return &cp
}

func (a *OutArc) clone(placeByLabel map[string]*Place) *OutArc {
	cp := *a
	cp.Place = placeByLabel[a.Place.Label]
	return &cp
}
