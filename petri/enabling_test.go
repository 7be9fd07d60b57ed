package petri

import "testing"

// TestInhibitDominance is end-to-end scenario 3 from spec §8: an inhibit
// violation disables a transition regardless of the standard arcs holding.
func TestInhibitDominance(t *testing.T) {
	n := NewNet("n", "hrs", "schedule")
	n.AddPlace(NewPlace("P", 1))
	n.AddPlace(NewPlace("Q", 1))
	n.AddPlace(NewPlace("R", 0))
	n.AddTransition(NewInstantTransition("T"))
	n.AddInArc("T", "P", ArcStd, 1, 0)
	n.AddInArc("T", "Q", ArcInh, 1, 0)
	n.AddOutArc("T", "R", 1)

	ready := n.Evaluate(0, 0, false)
	if len(ready) != 0 {
		t.Fatalf("expected T to be inhibited, got ready=%v", ready)
	}
}

// TestVotingCorrectness is end-to-end scenario 4 from spec §8.
func TestVotingCorrectness(t *testing.T) {
	n := NewNet("n", "hrs", "schedule")
	n.AddPlace(NewPlace("P1", 1))
	n.AddPlace(NewPlace("P2", 1))
	n.AddPlace(NewPlace("P3", 0))
	n.AddPlace(NewPlace("R", 0))
	tr := NewInstantTransition("T")
	vote := 2
	tr.Vote = &vote
	n.AddTransition(tr)
	n.AddInArc("T", "P1", ArcStd, 1, 0)
	n.AddInArc("T", "P2", ArcStd, 1, 0)
	n.AddInArc("T", "P3", ArcStd, 1, 0)
	n.AddOutArc("T", "R", 1)

	ready := n.Evaluate(0, 0, false)
	if len(ready) != 1 {
		t.Fatalf("expected T ready under 2-of-3 vote, got %v", ready)
	}
	if !tr.ArcSatisfied[0] || !tr.ArcSatisfied[1] || tr.ArcSatisfied[2] {
		t.Fatalf("expected P1,P2 satisfied and P3 not, got %v", tr.ArcSatisfied)
	}
}

func TestSkipTransitionWithNoArcs(t *testing.T) {
	n := NewNet("n", "hrs", "schedule")
	n.AddTransition(NewInstantTransition("T"))
	ready := n.Evaluate(0, 0, false)
	if len(ready) != 0 {
		t.Fatalf("transition with no arcs must never be ready, got %v", ready)
	}
}

func TestOutgoingArcCapacityBlocksEnabling(t *testing.T) {
	n := NewNet("n", "hrs", "schedule")
	n.AddPlace(NewPlace("P", 1))
	q, _ := NewPlace("Q", 5).WithBounds(0, 5)
	n.AddPlace(q)
	n.AddTransition(NewInstantTransition("T"))
	n.AddInArc("T", "P", ArcStd, 1, 0)
	n.AddOutArc("T", "Q", 1)

	ready := n.Evaluate(0, 0, false)
	if len(ready) != 0 {
		t.Fatalf("expected T blocked by Q at capacity, got %v", ready)
	}
}

func TestWaitingRecordSetOnceAndClearedWhenNotReady(t *testing.T) {
	n := NewNet("n", "hrs", "schedule")
	n.AddPlace(NewPlace("P", 1))
	n.AddPlace(NewPlace("Q", 0))
	tr, _ := NewRateTransition("T", 1.0)
	n.AddTransition(tr)
	n.AddInArc("T", "P", ArcStd, 1, 0)
	n.AddOutArc("T", "Q", 1)

	n.Evaluate(3, 1.5, true)
	if tr.Waiting == nil || tr.Waiting.Step != 3 || tr.Waiting.Clock != 1.5 {
		t.Fatalf("expected waiting record (3, 1.5), got %v", tr.Waiting)
	}

	// still ready on the next step: waiting record must not move.
	n.Evaluate(4, 2.0, true)
	if tr.Waiting.Step != 3 || tr.Waiting.Clock != 1.5 {
		t.Fatalf("waiting record must be sticky while continuously ready, got %v", tr.Waiting)
	}

	p, _ := n.Place("P")
	p.Tokens = 0
	n.Evaluate(5, 2.5, true)
	if tr.Waiting != nil {
		t.Fatalf("waiting record must clear once not ready, got %v", tr.Waiting)
	}
}
