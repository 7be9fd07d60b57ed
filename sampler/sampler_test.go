package sampler

import (
	"math"
	"math/rand"
	"testing"

	"github.com/petrisim/macchiato/petri"
)

func newNetWithPcn(t *testing.T, tr *petri.Transition, pcnWeight float64, placeTokens int) *petri.Net {
	t.Helper()
	n := petri.NewNet("n", "hrs", "schedule")
	if err := n.AddPlace(petri.NewPlace("P", placeTokens)); err != nil {
		t.Fatal(err)
	}
	if err := n.AddTransition(tr); err != nil {
		t.Fatal(err)
	}
	if err := n.AddInArc(tr.Label, "P", petri.ArcPcn, 0, pcnWeight); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestConditionalMultiplier(t *testing.T) {
	tr, _ := petri.NewRateTransition("T", 1)
	newNetWithPcn(t, tr, 0.5, 4)
	con := Conditional(tr)
	if con != 1+0.5*4 {
		t.Fatalf("con = %g, want %g", con, 1+0.5*4)
	}
}

func TestSampleRateMatchesFormula(t *testing.T) {
	tr, _ := petri.NewRateTransition("T", 2)
	rng := rand.New(rand.NewSource(1))
	u := rand.New(rand.NewSource(1)).Float64()
	want := -math.Log(u) / 2
	got := Sample(tr, 0, rng)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("rate sample = %g, want %g", got, want)
	}
	if tr.PcnStatus != 1 {
		t.Fatalf("pcnStatus = %g, want 1 (no pcn arcs)", tr.PcnStatus)
	}
}

func TestSampleDelayScalesByConditional(t *testing.T) {
	tr, _ := petri.NewDelayTransition("T", 10)
	newNetWithPcn(t, tr, 1, 1) // con = 1 + 1*1 = 2
	rng := rand.New(rand.NewSource(1))
	got := Sample(tr, 0, rng)
	if got != 5 {
		t.Fatalf("delay sample = %g, want 5", got)
	}
	if tr.PcnStatus != 2 {
		t.Fatalf("pcnStatus = %g, want 2", tr.PcnStatus)
	}
}

func TestSampleUniformWithinConditionalBound(t *testing.T) {
	tr, _ := petri.NewUniformTransition("T", 10)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		got := Sample(tr, 0, rng)
		if got < 0 || got > 10 {
			t.Fatalf("uniform sample %g outside (0, 10]", got)
		}
	}
}

func TestSampleCyclicPhaseAlignment(t *testing.T) {
	tr, _ := petri.NewCyclicTransition("T", 10, 2)
	rng := rand.New(rand.NewSource(1))

	got := Sample(tr, 2, rng)
	if got != 0 {
		t.Fatalf("at phase boundary, wait = %g, want 0", got)
	}

	got = Sample(tr, 5, rng)
	if got != 7 {
		t.Fatalf("wait at clock=5 = %g, want 7", got)
	}

	tr.LastFired = 5
	got = Sample(tr, 5, rng)
	if got != 17 {
		t.Fatalf("repeated instant at same clock must push to next cycle: got %g, want 17", got)
	}
}

func TestSampleInstantIsAlwaysZero(t *testing.T) {
	tr := petri.NewInstantTransition("T")
	rng := rand.New(rand.NewSource(1))
	if got := Sample(tr, 0, rng); got != 0 {
		t.Fatalf("instant sample = %g, want 0", got)
	}
}

func TestSampleWeibullNonNegative(t *testing.T) {
	tr, _ := petri.NewWeibullTransition("T", 10, 2, 1)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		if got := Sample(tr, 0, rng); got < 0 {
			t.Fatalf("weibull sample %g must be >= 0", got)
		}
	}
}

func TestSampleBetaScalesByConditional(t *testing.T) {
	tr, _ := petri.NewBetaTransition("T", 2, 2, 4)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		got := Sample(tr, 0, rng)
		if got < 0 || got > 4 {
			t.Fatalf("beta sample %g outside [0, scale=4]", got)
		}
	}
}
