package engine

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/petrisim/macchiato/petri"
)

func buildChainNet(t *testing.T, runMode string) *petri.Net {
	t.Helper()
	n := petri.NewNet("chain", "hrs", runMode)
	if err := n.AddPlace(petri.NewPlace("P", 1)); err != nil {
		t.Fatal(err)
	}
	if err := n.AddPlace(petri.NewPlace("Q", 0)); err != nil {
		t.Fatal(err)
	}
	if err := n.AddTransition(petri.NewInstantTransition("T")); err != nil {
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

func TestSingleModeFiresOneInstantTransitionImmediately(t *testing.T) {
	n := buildChainNet(t, "single")
	e := New(n, rand.New(rand.NewSource(1)), zerolog.Nop())

	res := e.Step()
	if len(res.Fired) != 1 || res.Fired[0] != "T" {
		t.Fatalf("Fired = %v, want [T]", res.Fired)
	}
	if res.Clock != 0 {
		t.Fatalf("single mode must not advance the clock, got %g", res.Clock)
	}
	q, _ := n.Place("Q")
	if q.Tokens != 1 {
		t.Fatalf("Q.Tokens = %d, want 1", q.Tokens)
	}
	p, _ := n.Place("P")
	if p.Tokens != 0 {
		t.Fatalf("P.Tokens = %d, want 0", p.Tokens)
	}
}

func TestAllModeFiresEveryNonConflictingReadyTransition(t *testing.T) {
	n := petri.NewNet("par", "hrs", "all")
	n.AddPlace(petri.NewPlace("P1", 1))
	n.AddPlace(petri.NewPlace("P2", 1))
	n.AddPlace(petri.NewPlace("Q1", 0))
	n.AddPlace(petri.NewPlace("Q2", 0))
	n.AddTransition(petri.NewInstantTransition("T1"))
	n.AddTransition(petri.NewInstantTransition("T2"))
	n.AddInArc("T1", "P1", petri.ArcStd, 1, 0)
	n.AddOutArc("T1", "Q1", 1)
	n.AddInArc("T2", "P2", petri.ArcStd, 1, 0)
	n.AddOutArc("T2", "Q2", 1)

	e := New(n, rand.New(rand.NewSource(1)), zerolog.Nop())
	res := e.Step()
	if len(res.Fired) != 2 {
		t.Fatalf("expected both non-conflicting transitions to fire, got %v", res.Fired)
	}
}

func TestAllModeResolvesSharedInputConflict(t *testing.T) {
	n := petri.NewNet("conflict", "hrs", "all")
	n.AddPlace(petri.NewPlace("P", 1))
	n.AddPlace(petri.NewPlace("Q1", 0))
	n.AddPlace(petri.NewPlace("Q2", 0))
	n.AddTransition(petri.NewInstantTransition("T1"))
	n.AddTransition(petri.NewInstantTransition("T2"))
	n.AddInArc("T1", "P", petri.ArcStd, 1, 0)
	n.AddOutArc("T1", "Q1", 1)
	n.AddInArc("T2", "P", petri.ArcStd, 1, 0)
	n.AddOutArc("T2", "Q2", 1)

	e := New(n, rand.New(rand.NewSource(7)), zerolog.Nop())
	res := e.Step()
	if len(res.Fired) != 1 {
		t.Fatalf("expected exactly one survivor of the shared-input conflict, got %v", res.Fired)
	}
}

func TestStochasticModePrefersInstantOverRate(t *testing.T) {
	n := petri.NewNet("mixed", "hrs", "stochastic")
	n.AddPlace(petri.NewPlace("P1", 1))
	n.AddPlace(petri.NewPlace("P2", 1))
	n.AddPlace(petri.NewPlace("Q1", 0))
	n.AddPlace(petri.NewPlace("Q2", 0))
	n.AddTransition(petri.NewInstantTransition("Instant"))
	rate, _ := petri.NewRateTransition("Rate", 1)
	n.AddTransition(rate)
	n.AddInArc("Instant", "P1", petri.ArcStd, 1, 0)
	n.AddOutArc("Instant", "Q1", 1)
	n.AddInArc("Rate", "P2", petri.ArcStd, 1, 0)
	n.AddOutArc("Rate", "Q2", 1)

	e := New(n, rand.New(rand.NewSource(1)), zerolog.Nop())
	res := e.Step()
	if len(res.Fired) != 1 || res.Fired[0] != "Instant" {
		t.Fatalf("expected the instant transition to preempt the rate one, got %v", res.Fired)
	}
	if res.Clock != 0 {
		t.Fatalf("instant firing must not advance the clock, got %g", res.Clock)
	}
}

func TestScheduleModePopulatesAndFiresDelay(t *testing.T) {
	n := petri.NewNet("delay", "hrs", "schedule")
	n.AddPlace(petri.NewPlace("P", 1))
	n.AddPlace(petri.NewPlace("Q", 0))
	n.AddTransition(mustDelayTransition(t, "T", 3))
	n.AddInArc("T", "P", petri.ArcStd, 1, 0)
	n.AddOutArc("T", "Q", 1)

	e := New(n, rand.New(rand.NewSource(1)), zerolog.Nop())

	res := e.Step()
	if len(res.Fired) != 1 || res.Fired[0] != "T" {
		t.Fatalf("expected the newly-scheduled delay to fire, got %v", res.Fired)
	}
	if res.Clock != 3 {
		t.Fatalf("clock = %g, want 3 (fixed delay, con=1)", res.Clock)
	}
}

func mustDelayTransition(t *testing.T, label string, delay float64) *petri.Transition {
	t.Helper()
	tr, err := petri.NewDelayTransition(label, delay)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestMaxFireSetsTransExit(t *testing.T) {
	n := petri.NewNet("cap", "hrs", "single")
	n.AddPlace(petri.NewPlace("P", 5))
	n.AddPlace(petri.NewPlace("Q", 0))
	tr := petri.NewInstantTransition("T")
	maxFire := 2
	tr.MaxFire = &maxFire
	n.AddTransition(tr)
	n.AddInArc("T", "P", petri.ArcStd, 1, 0)
	n.AddOutArc("T", "Q", 1)

	e := New(n, rand.New(rand.NewSource(1)), zerolog.Nop())
	var last StepResult
	for i := 0; i < 2; i++ {
		last = e.Step()
	}
	if !last.Done || !n.TransExit {
		t.Fatalf("expected TransExit after reaching maxFire, Done=%v TransExit=%v", last.Done, n.TransExit)
	}
}

func TestStepReportsQuiescenceWithNoReadyTransitions(t *testing.T) {
	n := petri.NewNet("idle", "hrs", "single")
	n.AddPlace(petri.NewPlace("P", 0))
	n.AddPlace(petri.NewPlace("Q", 0))
	n.AddTransition(petri.NewInstantTransition("T"))
	n.AddInArc("T", "P", petri.ArcStd, 1, 0)
	n.AddOutArc("T", "Q", 1)

	e := New(n, rand.New(rand.NewSource(1)), zerolog.Nop())
	res := e.Step()
	if len(res.Fired) != 0 {
		t.Fatalf("expected nothing to fire, got %v", res.Fired)
	}
	if !res.Done || !res.Quiescent {
		t.Fatalf("expected Done and Quiescent when no transition is ready, got Done=%v Quiescent=%v", res.Done, res.Quiescent)
	}
}

func TestScheduleModeReportsQuiescenceWhenNothingPending(t *testing.T) {
	n := petri.NewNet("idle-schedule", "hrs", "schedule")
	n.AddPlace(petri.NewPlace("P", 0))
	n.AddPlace(petri.NewPlace("Q", 0))
	n.AddTransition(mustDelayTransition(t, "T", 3))
	n.AddInArc("T", "P", petri.ArcStd, 1, 0)
	n.AddOutArc("T", "Q", 1)

	e := New(n, rand.New(rand.NewSource(1)), zerolog.Nop())
	res := e.Step()
	if !res.Done || !res.Quiescent {
		t.Fatalf("expected Done and Quiescent, got Done=%v Quiescent=%v", res.Done, res.Quiescent)
	}
}

func TestResetClausesApplyAfterCommit(t *testing.T) {
	n := petri.NewNet("reset", "hrs", "single")
	n.AddPlace(petri.NewPlace("P", 1))
	n.AddPlace(petri.NewPlace("Q", 0))
	n.AddPlace(petri.NewPlace("R", 5))
	tr := petri.NewInstantTransition("T")
	n.AddTransition(tr)
	n.AddInArc("T", "P", petri.ArcStd, 1, 0)
	n.AddOutArc("T", "Q", 1)
	if _, err := n.SetReset("T", []string{"R"}); err != nil {
		t.Fatal(err)
	}
	r, _ := n.Place("R")
	r.Tokens = 2

	e := New(n, rand.New(rand.NewSource(1)), zerolog.Nop())
	e.Step()

	if r.Tokens != 5 {
		t.Fatalf("R.Tokens = %d, want reset to 5", r.Tokens)
	}
	if r.ResetCount != 1 {
		t.Fatalf("R.ResetCount = %d, want 1", r.ResetCount)
	}
	if !r.JustReset() {
		t.Fatal("expected R to be marked justReset after the commit that reset it")
	}
	if r.JustReset() {
		t.Fatal("JustReset must clear the flag once read")
	}
}
