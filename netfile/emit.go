package netfile

import (
	"fmt"
	"io"
	"math"

	"github.com/petrisim/macchiato/petri"
)

// Emit writes net and cfg back out in `.mpn` form. It round-trips only
// non-default/non-zero values, the way the reference writer omits a zero
// token count or an unset GROUP/VOTE/MAX/RESET clause (SPEC_FULL §12,
// item 6), so parse(Emit(net)) is structurally equivalent to net without
// being byte-identical to any particular hand-written input.
func Emit(net *petri.Net, cfg Config, w io.Writer) error {
	if err := writeHeader(w, cfg); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "Places"); err != nil {
		return err
	}
	for _, label := range net.PlaceOrder {
		if err := writePlaceLine(w, net.Places[label]); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "Transitions"); err != nil {
		return err
	}
	for _, label := range net.TransOrder {
		if err := writeTransitionLine(w, net.Transitions[label]); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(w io.Writer, cfg Config) error {
	boolStr := func(b bool) string {
		if b {
			return "True"
		}
		return "False"
	}
	optStr := func(s *string) string {
		if s == nil {
			return "None"
		}
		return *s
	}
	lines := [][2]string{
		{"name", cfg.Name},
		{"units", cfg.Units},
		{"runMode", cfg.RunMode},
		{"dot", boolStr(cfg.Dot)},
		{"visualise", optStr(cfg.Visualise)},
		{"details", boolStr(cfg.Details)},
		{"useGroup", boolStr(cfg.UseGroup)},
		{"orientation", optStr(cfg.Orientation)},
		{"debug", boolStr(cfg.Debug)},
		{"dotLoc", optStr(cfg.DotLoc)},
		{"maxClock", fmt.Sprintf("%g", cfg.MaxClock)},
		{"maxSteps", fmt.Sprintf("%g", cfg.MaxSteps)},
		{"simsFactor", fmt.Sprintf("%g", cfg.SimsFactor)},
		{"history", boolStr(cfg.History)},
		{"analysisStep", fmt.Sprintf("%g", cfg.AnalysisStep)},
		{"fileOutput", boolStr(cfg.FileOutput)},
		{"endOnly", boolStr(cfg.EndOnly)},
	}
	for _, kv := range lines {
		if _, err := fmt.Fprintf(w, "%s %s\n", kv[0], kv[1]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writePlaceLine(w io.Writer, p *petri.Place) error {
	line := p.Label
	if p.Tokens != 0 {
		line += fmt.Sprintf(" %d", p.Tokens)
	}
	if p.Group != nil {
		line += fmt.Sprintf(" GROUP %d", *p.Group)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func writeTransitionLine(w io.Writer, t *petri.Transition) error {
	line := t.Label + ":" + kindClause(t)

	if len(t.InArcs) > 0 {
		line += " IN"
		for _, a := range t.InArcs {
			line += " " + a.Place.Label
			switch a.Kind {
			case petri.ArcPcn:
				if a.PcnWeight != 0 {
					line += fmt.Sprintf(":%g", a.PcnWeight)
				}
				line += ":pcn"
			case petri.ArcInh:
				if a.Weight != 1 {
					line += fmt.Sprintf(":%d", a.Weight)
				}
				line += ":inh"
			default:
				if a.Weight != 1 {
					line += fmt.Sprintf(":%d", a.Weight)
				}
			}
		}
	}
	if len(t.OutArcs) > 0 {
		line += " OUT"
		for _, o := range t.OutArcs {
			line += " " + o.Place.Label
			if o.Weight != 1 {
				line += fmt.Sprintf(":%d", o.Weight)
			}
		}
	}
	if len(t.Reset) > 0 {
		line += " RESET"
		for _, label := range t.Reset {
			line += " " + label
		}
	}
	if t.Vote != nil {
		line += fmt.Sprintf(" VOTE %d", *t.Vote)
	}
	if t.MaxFire != nil {
		line += fmt.Sprintf(" MAX %d", *t.MaxFire)
	}
	if t.Group != nil {
		line += fmt.Sprintf(" GROUP %d", *t.Group)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func kindClause(t *petri.Transition) string {
	switch t.Kind {
	case petri.KindRate:
		return fmt.Sprintf("rate:%g", t.Rate)
	case petri.KindUniform:
		return fmt.Sprintf("uniform:%g", t.Uniform)
	case petri.KindDelay:
		return fmt.Sprintf("delay:%g", t.Delay)
	case petri.KindWeibull:
		mean := t.WeibullEta * math.Gamma(1+1/t.WeibullBeta)
		return fmt.Sprintf("weibull:%g:%g:%g", mean, t.WeibullBeta, t.WeibullSigma)
	case petri.KindBeta:
		return fmt.Sprintf("beta:%g:%g:%g", t.BetaAlpha, t.BetaBeta, t.BetaScale)
	case petri.KindLognorm:
		return fmt.Sprintf("lognorm:%g:%g", t.LognormMu, t.LognormSigma)
	case petri.KindCyclic:
		return fmt.Sprintf("cyclic:%g:%g", t.CyclicPeriod, t.CyclicOffset)
	default:
		return "instant"
	}
}
