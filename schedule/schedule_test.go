package schedule

import (
	"math/rand"
	"testing"

	"github.com/petrisim/macchiato/petri"
)

func buildDelayNet(t *testing.T) *petri.Net {
	t.Helper()
	n := petri.NewNet("n", "hrs", "schedule")
	if err := n.AddPlace(petri.NewPlace("P", 1)); err != nil {
		t.Fatal(err)
	}
	if err := n.AddPlace(petri.NewPlace("Q", 0)); err != nil {
		t.Fatal(err)
	}
	tr, err := petri.NewDelayTransition("T", 5)
	if err != nil {
		t.Fatal(err)
	}
	if err := n.AddTransition(tr); err != nil {
		t.Fatal(err)
	}
	if err := n.AddInArc("T", "P", petri.ArcStd, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := n.AddOutArc("T", "Q", 1); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestPopulateThenPopMinimum(t *testing.T) {
	n := buildDelayNet(t)
	s := New(n)
	rng := rand.New(rand.NewSource(1))

	ready := n.Evaluate(0, 0, true)
	s.Prune(n, ready)
	s.PopulateReschedule(0, ready, rng)

	if s.Len() != 1 {
		t.Fatalf("expected 1 scheduled transition, got %d", s.Len())
	}

	labels, dt, ok := s.PopMinimum(0)
	if !ok {
		t.Fatal("expected a scheduled entry")
	}
	if len(labels) != 1 || labels[0] != "T" {
		t.Fatalf("labels = %v, want [T]", labels)
	}
	if dt != 5 {
		t.Fatalf("deltaT = %g, want 5 (fixed delay, con=1)", dt)
	}
	if s.Len() != 1 {
		t.Fatal("PopMinimum must not remove anything by itself")
	}
	s.Remove(labels[0])
	if s.Len() != 0 {
		t.Fatal("Remove must drop the chosen entry")
	}
}

// TestPopMinimumLeavesTiedLosersScheduled guards against a schedule-
// persistence violation: when two transitions tie for the earliest fire
// time and only one is chosen to fire, the other must remain scheduled at
// its original fire time rather than being dropped and later resampled.
func TestPopMinimumLeavesTiedLosersScheduled(t *testing.T) {
	n := petri.NewNet("n", "hrs", "schedule")
	n.AddPlace(petri.NewPlace("P1", 1))
	n.AddPlace(petri.NewPlace("P2", 1))
	n.AddPlace(petri.NewPlace("Q1", 0))
	n.AddPlace(petri.NewPlace("Q2", 0))
	t1, err := petri.NewDelayTransition("T1", 5)
	if err != nil {
		t.Fatal(err)
	}
	t2, err := petri.NewDelayTransition("T2", 5)
	if err != nil {
		t.Fatal(err)
	}
	n.AddTransition(t1)
	n.AddTransition(t2)
	n.AddInArc("T1", "P1", petri.ArcStd, 1, 0)
	n.AddOutArc("T1", "Q1", 1)
	n.AddInArc("T2", "P2", petri.ArcStd, 1, 0)
	n.AddOutArc("T2", "Q2", 1)

	s := New(n)
	rng := rand.New(rand.NewSource(1))
	ready := n.Evaluate(0, 0, true)
	s.PopulateReschedule(0, ready, rng)
	if s.Len() != 2 {
		t.Fatalf("expected both delays scheduled, got %d", s.Len())
	}

	labels, dt, ok := s.PopMinimum(0)
	if !ok {
		t.Fatal("expected a scheduled entry")
	}
	if len(labels) != 2 || dt != 5 {
		t.Fatalf("labels = %v, dt = %g, want both tied at dt=5", labels, dt)
	}
	if s.Len() != 2 {
		t.Fatal("tied entries must not be removed by PopMinimum")
	}

	s.Remove(labels[0])
	if s.Len() != 1 {
		t.Fatal("Remove must drop only the chosen transition")
	}
	labels2, dt2, ok := s.PopMinimum(0)
	if !ok || len(labels2) != 1 || labels2[0] != labels[1] || dt2 != 5 {
		t.Fatalf("expected the tied loser %q still scheduled at the same dt, got %v/%g", labels[1], labels2, dt2)
	}
}

func TestPruneDropsNoLongerReadyTransitions(t *testing.T) {
	n := buildDelayNet(t)
	s := New(n)
	rng := rand.New(rand.NewSource(1))

	ready := n.Evaluate(0, 0, true)
	s.PopulateReschedule(0, ready, rng)
	if s.Len() != 1 {
		t.Fatalf("expected 1 scheduled transition, got %d", s.Len())
	}

	p, _ := n.Place("P")
	p.Tokens = 0
	ready = n.Evaluate(1, 0, true)
	s.Prune(n, ready)
	if s.Len() != 0 {
		t.Fatal("expected schedule to be pruned once T is no longer ready")
	}
	tr, _ := n.Transition("T")
	if tr.PcnStatus != 1 {
		t.Fatalf("pruned transition pcnStatus = %g, want reset to 1", tr.PcnStatus)
	}
}

func TestInstantCandidatesBypassesSchedule(t *testing.T) {
	n := petri.NewNet("n", "hrs", "schedule")
	n.AddPlace(petri.NewPlace("P", 1))
	n.AddPlace(petri.NewPlace("Q", 0))
	n.AddTransition(petri.NewInstantTransition("T"))
	n.AddInArc("T", "P", petri.ArcStd, 1, 0)
	n.AddOutArc("T", "Q", 1)

	s := New(n)
	ready := n.Evaluate(0, 0, true)
	cands := s.InstantCandidates(ready)
	if len(cands) != 1 || cands[0].Label != "T" {
		t.Fatalf("expected instant transition T as a candidate, got %v", cands)
	}
	if s.Len() != 0 {
		t.Fatal("instant candidates must never occupy the timed schedule")
	}
}
