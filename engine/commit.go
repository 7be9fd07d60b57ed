package engine

import "github.com/petrisim/macchiato/petri"

// commit implements spec §4.5: token-time accounting, delta computation
// respecting voting arc satisfaction, commit, reset, and termination check.
// firing is empty when nothing was ready to fire; the net still advances
// its step counter and accumulates token-time for the elapsed deltaT.
func (e *Engine) commit(firing []*petri.Transition, deltaT float64) StepResult {
	net := e.Net

	for _, label := range net.PlaceOrder {
		p := net.Places[label]
		if p.Tokens > 0 {
			p.TotalTokenTime += deltaT
		}
	}

	deltas := make(map[*petri.Place]int, len(net.PlaceOrder))
	var resets []*petri.Transition
	fired := make([]string, 0, len(firing))

	for _, t := range firing {
		voting := t.Vote != nil
		skippedPlace := make(map[*petri.Place]bool)

		for i, a := range t.InArcs {
			if a.Kind != petri.ArcStd {
				continue
			}
			if voting && i < len(t.ArcSatisfied) && !t.ArcSatisfied[i] {
				skippedPlace[a.Place] = true
				continue
			}
			deltas[a.Place] -= a.Weight
			a.Place.Outs += a.Weight
		}

		for _, o := range t.OutArcs {
			if voting && skippedPlace[o.Place] {
				continue
			}
			deltas[o.Place] += o.Weight
			o.Place.Ins += o.Weight
		}

		t.FiredCount++
		t.LastFired = net.Clock + deltaT
		t.Waiting = nil
		if len(t.Reset) > 0 {
			resets = append(resets, t)
		}
		fired = append(fired, t.Label)
	}

	for p, delta := range deltas {
		p.Tokens += delta
		if p.ViolatesBounds() {
			panic(&petri.InvariantViolation{Msg: "place " + p.Label + " left [min, max] after commit"})
		}
	}

	for _, t := range resets {
		for _, label := range t.Reset {
			p := net.Places[label]
			p.Tokens = p.ResetTokens
			p.ResetCount++
			p.MarkReset()
		}
	}

	for _, label := range net.TransOrder {
		net.Transitions[label].Ready = false
	}
	net.Step++
	net.Clock += deltaT

	done := false
	for _, label := range net.PlaceOrder {
		if net.Places[label].ViolatesTermination() {
			net.PlaceExit = true
			done = true
		}
	}
	for _, label := range net.TransOrder {
		t := net.Transitions[label]
		if t.MaxFire != nil && t.FiredCount >= *t.MaxFire {
			net.TransExit = true
			done = true
		}
	}

	return StepResult{Step: net.Step, Clock: net.Clock, Fired: fired, Done: done}
}
