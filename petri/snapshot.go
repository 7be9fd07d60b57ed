package petri

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// wireArc and wireOutArc mirror Arc/OutArc but reference a place by its
// index into wireNet.Places rather than by pointer, since CBOR has no notion
// of the pointer sharing Net relies on (every arc into a place must observe
// the same mutable Place as the net's own map).
type wireArc struct {
	Kind      ArcKind
	PlaceIdx  int
	Weight    int
	PcnWeight float64
}

type wireOutArc struct {
	PlaceIdx int
	Weight   int
}

type wireTransition struct {
	Label string
	Kind  TransitionKind

	Rate    float64
	Uniform float64
	Delay   float64

	WeibullEta   float64
	WeibullBeta  float64
	WeibullSigma float64

	BetaAlpha float64
	BetaBeta  float64
	BetaScale float64

	LognormMu    float64
	LognormSigma float64

	CyclicPeriod float64
	CyclicOffset float64

	InArcs  []wireArc
	OutArcs []wireOutArc

	MaxFire *int
	Vote    *int
	Reset   []string
	Group   *int

	FiredCount   int
	LastFired    float64
	Waiting      *WaitRecord
	PcnStatus    float64
	Ready        bool
	HasPcn       bool
	ArcSatisfied []bool
}

// wireNet is the pointer-free, CBOR-encodable mirror of Net used by
// Snapshot/RestoreSnapshot (spec §9, "deep-snapshot between runs").
type wireNet struct {
	Name    string
	Units   string
	RunMode string

	Places     []Place
	PlaceOrder []string

	Transitions []wireTransition
	TransOrder  []string

	Step      int
	Clock     float64
	PlaceExit bool
	TransExit bool
}

func (n *Net) toWire() *wireNet {
	w := &wireNet{
		Name:       n.Name,
		Units:      n.Units,
		RunMode:    n.RunMode,
		PlaceOrder: append([]string(nil), n.PlaceOrder...),
		TransOrder: append([]string(nil), n.TransOrder...),
		Step:       n.Step,
		Clock:      n.Clock,
		PlaceExit:  n.PlaceExit,
		TransExit:  n.TransExit,
	}

	placeIdx := make(map[string]int, len(n.PlaceOrder))
	for i, label := range n.PlaceOrder {
		placeIdx[label] = i
		w.Places = append(w.Places, *n.Places[label].clone())
	}

	for _, label := range n.TransOrder {
		t := n.Transitions[label]
		wt := wireTransition{
			Label: t.Label, Kind: t.Kind,
			Rate: t.Rate, Uniform: t.Uniform, Delay: t.Delay,
			WeibullEta: t.WeibullEta, WeibullBeta: t.WeibullBeta, WeibullSigma: t.WeibullSigma,
			BetaAlpha: t.BetaAlpha, BetaBeta: t.BetaBeta, BetaScale: t.BetaScale,
			LognormMu: t.LognormMu, LognormSigma: t.LognormSigma,
			CyclicPeriod: t.CyclicPeriod, CyclicOffset: t.CyclicOffset,
			Reset:      append([]string(nil), t.Reset...),
			FiredCount: t.FiredCount, LastFired: t.LastFired,
			PcnStatus: t.PcnStatus, Ready: t.Ready, HasPcn: t.HasPcn,
			ArcSatisfied: append([]bool(nil), t.ArcSatisfied...),
		}
		if t.MaxFire != nil {
			v := *t.MaxFire
			wt.MaxFire = &v
		}
		if t.Vote != nil {
			v := *t.Vote
			wt.Vote = &v
		}
		if t.Group != nil {
			v := *t.Group
			wt.Group = &v
		}
		if t.Waiting != nil {
			v := *t.Waiting
			wt.Waiting = &v
		}
		for _, a := range t.InArcs {
			wt.InArcs = append(wt.InArcs, wireArc{Kind: a.Kind, PlaceIdx: placeIdx[a.Place.Label], Weight: a.Weight, PcnWeight: a.PcnWeight})
		}
		for _, a := range t.OutArcs {
			wt.OutArcs = append(wt.OutArcs, wireOutArc{PlaceIdx: placeIdx[a.Place.Label], Weight: a.Weight})
		}
		w.Transitions = append(w.Transitions, wt)
	}
	return w
}

func fromWire(w *wireNet) *Net {
	n := &Net{
		Name: w.Name, Units: w.Units, RunMode: w.RunMode,
		Places:      make(map[string]*Place, len(w.Places)),
		PlaceOrder:  append([]string(nil), w.PlaceOrder...),
		Transitions: make(map[string]*Transition, len(w.Transitions)),
		TransOrder:  append([]string(nil), w.TransOrder...),
		Step:        w.Step, Clock: w.Clock,
		PlaceExit: w.PlaceExit, TransExit: w.TransExit,
	}

	places := make([]*Place, len(w.Places))
	for i := range w.Places {
		p := w.Places[i]
		places[i] = p.clone()
		n.Places[places[i].Label] = places[i]
	}

	for _, wt := range w.Transitions {
		t := &Transition{
			Label: wt.Label, Kind: wt.Kind,
			Rate: wt.Rate, Uniform: wt.Uniform, Delay: wt.Delay,
			WeibullEta: wt.WeibullEta, WeibullBeta: wt.WeibullBeta, WeibullSigma: wt.WeibullSigma,
			BetaAlpha: wt.BetaAlpha, BetaBeta: wt.BetaBeta, BetaScale: wt.BetaScale,
			LognormMu: wt.LognormMu, LognormSigma: wt.LognormSigma,
			CyclicPeriod: wt.CyclicPeriod, CyclicOffset: wt.CyclicOffset,
			Reset:      append([]string(nil), wt.Reset...),
			FiredCount: wt.FiredCount, LastFired: wt.LastFired,
			PcnStatus: wt.PcnStatus, Ready: wt.Ready, HasPcn: wt.HasPcn,
			ArcSatisfied: append([]bool(nil), wt.ArcSatisfied...),
		}
		if wt.MaxFire != nil {
			v := *wt.MaxFire
			t.MaxFire = &v
		}
		if wt.Vote != nil {
			v := *wt.Vote
			t.Vote = &v
		}
		if wt.Group != nil {
			v := *wt.Group
			t.Group = &v
		}
		if wt.Waiting != nil {
			v := *wt.Waiting
			t.Waiting = &v
		}
		for _, wa := range wt.InArcs {
			t.InArcs = append(t.InArcs, &Arc{Kind: wa.Kind, Place: places[wa.PlaceIdx], Weight: wa.Weight, PcnWeight: wa.PcnWeight})
		}
		for _, wa := range wt.OutArcs {
			t.OutArcs = append(t.OutArcs, &OutArc{Place: places[wa.PlaceIdx], Weight: wa.Weight})
		}
		n.Transitions[t.Label] = t
	}
	return n
}

// MarshalSnapshot encodes the net's full runtime state to CBOR.
func (n *Net) MarshalSnapshot() ([]byte, error) {
	data, err := cbor.Marshal(n.toWire())
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// RestoreSnapshot decodes a snapshot produced by MarshalSnapshot into a new,
// fully independent Net.
func RestoreSnapshot(data []byte) (*Net, error) {
	var w wireNet
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	return fromWire(&w), nil
}

// Snapshot returns a deep, independent copy of the net via a CBOR
// encode/decode round trip (spec §9, "deep-snapshot between runs"). The
// batch runner takes a fresh snapshot of its template net for every run, so
// independent runs never share mutable state.
func (n *Net) Snapshot() (*Net, error) {
	data, err := n.MarshalSnapshot()
	if err != nil {
		return nil, err
	}
	return RestoreSnapshot(data)
}
