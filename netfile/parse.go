package netfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/petrisim/macchiato/petri"
)

const (
	sectionPlaces      = "Places"
	sectionTransitions = "Transitions"
)

var transitionKinds = map[string]bool{
	"instant": true, "rate": true, "uniform": true, "delay": true,
	"weibull": true, "beta": true, "lognorm": true, "cyclic": true,
}

// Load parses a `.mpn`-style file into a net and its run configuration.
// Warnings collected while expanding RESET globs are returned alongside a
// nil error; parse/construction/reference problems are returned as errors.
func Load(path string, log zerolog.Logger) (*petri.Net, Config, []string, error) {
	if !strings.HasSuffix(path, ".mpn") {
		log.Warn().Str("file", path).Msg("input file does not end in .mpn")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Config{}, nil, fmt.Errorf("netfile: opening %q: %w", path, err)
	}
	defer f.Close()

	return parse(f, log)
}

func parse(r io.Reader, log zerolog.Logger) (*petri.Net, Config, []string, error) {
	cfg := DefaultConfig()
	var net *petri.Net
	section := ""
	var allWarnings []string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		if idx := strings.IndexByte(raw, '#'); idx >= 0 {
			raw = raw[:idx]
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		if fields[0] == sectionPlaces || fields[0] == sectionTransitions {
			if net == nil {
				net = petri.NewNet(cfg.Name, cfg.Units, cfg.RunMode)
			}
			section = fields[0]
			continue
		}

		switch section {
		case "":
			if err := applyHeaderLine(&cfg, fields, lineNo, line); err != nil {
				return nil, cfg, nil, err
			}
		case sectionPlaces:
			if err := applyPlaceLine(net, fields, line); err != nil {
				return nil, cfg, nil, err
			}
		case sectionTransitions:
			warnings, err := applyTransitionLine(net, fields, line)
			if err != nil {
				return nil, cfg, nil, err
			}
			allWarnings = append(allWarnings, warnings...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, cfg, nil, fmt.Errorf("netfile: reading: %w", err)
	}
	if net == nil {
		return nil, cfg, nil, fmt.Errorf("netfile: file declares neither a %s nor a %s section", sectionPlaces, sectionTransitions)
	}
	return net, cfg, allWarnings, nil
}

func applyHeaderLine(cfg *Config, fields []string, lineNo int, line string) error {
	if len(fields) < 2 {
		return fmt.Errorf("netfile: line %d: %q: expected key and value", lineNo, line)
	}
	key, val := fields[0], fields[1]
	boolOf := func(s string) bool { return strings.EqualFold(s, "TRUE") }
	optStr := func(s string) *string {
		if s == "None" {
			return nil
		}
		return &s
	}

	switch key {
	case "name":
		cfg.Name = val
	case "units":
		cfg.Units = val
	case "runMode":
		cfg.RunMode = val
	case "dot":
		cfg.Dot = boolOf(val)
	case "visualise":
		cfg.Visualise = optStr(val)
	case "details":
		cfg.Details = boolOf(val)
	case "useGroup":
		cfg.UseGroup = boolOf(val)
	case "orientation":
		cfg.Orientation = optStr(val)
	case "debug":
		cfg.Debug = boolOf(val)
	case "dotLoc":
		joined := strings.Join(fields[1:], " ")
		cfg.DotLoc = optStr(joined)
	case "maxClock":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("netfile: line %d: maxClock: %w", lineNo, err)
		}
		cfg.MaxClock = f
	case "maxSteps":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("netfile: line %d: maxSteps: %w", lineNo, err)
		}
		cfg.MaxSteps = f
	case "simsFactor":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("netfile: line %d: simsFactor: %w", lineNo, err)
		}
		cfg.SimsFactor = f
	case "history":
		cfg.History = boolOf(val)
	case "analysisStep":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("netfile: line %d: analysisStep: %w", lineNo, err)
		}
		cfg.AnalysisStep = f
	case "fileOutput":
		cfg.FileOutput = boolOf(val)
	case "endOnly":
		cfg.EndOnly = boolOf(val)
	default:
		return fmt.Errorf("netfile: line %d: %q: unknown parameter key", lineNo, key)
	}
	return nil
}

// applyPlaceLine parses `label [tokens] [GROUP n]`, reproducing the legacy
// quirk where GROUP is recognised by position (second-to-last token) rather
// than by a dedicated keyword scan (SPEC_FULL §12, item 4).
func applyPlaceLine(net *petri.Net, fields []string, line string) error {
	label := fields[0]
	tokens := 0
	var group *int

	if len(fields) > 1 {
		if strings.Contains(fields[len(fields)-2], "GROUP") {
			g, err := strconv.Atoi(fields[len(fields)-1])
			if err != nil {
				return fmt.Errorf("netfile: place %q: %q: invalid GROUP value: %w", label, line, err)
			}
			group = &g
			if len(fields) > 3 {
				t, err := strconv.Atoi(fields[1])
				if err != nil {
					return fmt.Errorf("netfile: place %q: %q: invalid token count: %w", label, line, err)
				}
				tokens = t
			}
		} else {
			t, err := strconv.Atoi(fields[1])
			if err != nil {
				return fmt.Errorf("netfile: place %q: %q: invalid token count: %w", label, line, err)
			}
			tokens = t
		}
	}

	p := petri.NewPlace(label, tokens)
	if group != nil {
		if _, err := p.WithGroup(*group); err != nil {
			return err
		}
	}
	return net.AddPlace(p)
}

// applyTransitionLine parses one Transitions-section line: the
// label:kind[:params] token, followed by any of the IN/OUT/RESET/MAX/VOTE/
// GROUP clauses in any order.
func applyTransitionLine(net *petri.Net, fields []string, line string) (warnings []string, err error) {
	head := strings.Split(fields[0], ":")
	label := head[0]
	if len(head) < 2 {
		return nil, fmt.Errorf("netfile: transition %q: %q: missing kind", label, line)
	}
	kind := head[1]
	if !transitionKinds[kind] {
		return nil, fmt.Errorf("netfile: transition %q: unrecognised kind %q", label, kind)
	}

	t, err := buildTransition(label, kind, head[2:])
	if err != nil {
		return nil, err
	}
	if err := net.AddTransition(t); err != nil {
		return nil, err
	}

	var inTokens, outTokens, resetTokens []string
	var maxFire, vote, group *int
	mode := ""

	i := 1
	for i < len(fields) {
		tok := fields[i]
		switch tok {
		case "IN", "OUT", "RESET":
			mode = tok
			i++
			continue
		case "MAX", "VOTE", "GROUP":
			if i+1 >= len(fields) {
				return nil, fmt.Errorf("netfile: transition %q: %q: %s requires a value", label, line, tok)
			}
			n, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, fmt.Errorf("netfile: transition %q: %s: %w", label, tok, err)
			}
			switch tok {
			case "MAX":
				maxFire = &n
			case "VOTE":
				vote = &n
			case "GROUP":
				group = &n
			}
			mode = ""
			i += 2
			continue
		}
		switch mode {
		case "IN":
			inTokens = append(inTokens, tok)
		case "OUT":
			outTokens = append(outTokens, tok)
		case "RESET":
			resetTokens = append(resetTokens, tok)
		default:
			return nil, fmt.Errorf("netfile: transition %q: %q: unexpected token %q", label, line, tok)
		}
		i++
	}

	for _, tok := range inTokens {
		place, arcKind, weight, pcnWeight := parseInArcToken(tok)
		if err := net.AddInArc(label, place, arcKind, weight, pcnWeight); err != nil {
			return nil, err
		}
	}
	for _, tok := range outTokens {
		place, weight := parseOutArcToken(tok)
		if err := net.AddOutArc(label, place, weight); err != nil {
			return nil, err
		}
	}
	if len(resetTokens) > 0 {
		var patterns []string
		for _, tok := range resetTokens {
			patterns = append(patterns, strings.Split(tok, ":")...)
		}
		w, err := net.SetReset(label, patterns)
		if err != nil {
			return nil, err
		}
		warnings = w
	}
	if maxFire != nil {
		if _, err := t.WithMaxFire(*maxFire); err != nil {
			return nil, err
		}
	}
	if vote != nil {
		if _, err := t.WithVote(*vote); err != nil {
			return nil, err
		}
	}
	t.Group = group
	return warnings, nil
}

func buildTransition(label, kind string, params []string) (*petri.Transition, error) {
	f := func(i int) (float64, error) {
		if i >= len(params) {
			return 0, fmt.Errorf("netfile: transition %q: %s: missing parameter %d", label, kind, i+1)
		}
		return strconv.ParseFloat(params[i], 64)
	}
	optF := func(i int, def float64) float64 {
		if i >= len(params) {
			return def
		}
		v, err := strconv.ParseFloat(params[i], 64)
		if err != nil {
			return def
		}
		return v
	}

	switch kind {
	case "instant":
		return petri.NewInstantTransition(label), nil
	case "rate":
		v, err := f(0)
		if err != nil {
			return nil, err
		}
		return petri.NewRateTransition(label, v)
	case "uniform":
		v, err := f(0)
		if err != nil {
			return nil, err
		}
		return petri.NewUniformTransition(label, v)
	case "delay":
		v, err := f(0)
		if err != nil {
			return nil, err
		}
		return petri.NewDelayTransition(label, v)
	case "weibull":
		mean, err := f(0)
		if err != nil {
			return nil, err
		}
		beta, err := f(1)
		if err != nil {
			return nil, err
		}
		return petri.NewWeibullTransition(label, mean, beta, optF(2, 0))
	case "beta":
		alpha, err := f(0)
		if err != nil {
			return nil, err
		}
		beta, err := f(1)
		if err != nil {
			return nil, err
		}
		return petri.NewBetaTransition(label, alpha, beta, optF(2, 0))
	case "lognorm":
		mu, err := f(0)
		if err != nil {
			return nil, err
		}
		sigma, err := f(1)
		if err != nil {
			return nil, err
		}
		return petri.NewLognormTransition(label, mu, sigma)
	case "cyclic":
		period, err := f(0)
		if err != nil {
			return nil, err
		}
		offset, err := f(1)
		if err != nil {
			return nil, err
		}
		return petri.NewCyclicTransition(label, period, offset)
	default:
		return nil, fmt.Errorf("netfile: transition %q: unrecognised kind %q", label, kind)
	}
}

// parseInArcToken parses `place[:weight][:inh|:pcn|:pch]`. `pch` is accepted
// as a legacy synonym for `pcn` (spec §6, SPEC_FULL §12 item 5).
func parseInArcToken(tok string) (place string, kind petri.ArcKind, weight int, pcnWeight float64) {
	parts := strings.Split(tok, ":")
	place = parts[0]
	kind = petri.ArcStd
	weight = 1

	switch {
	case strings.Contains(tok, "pcn"), strings.Contains(tok, "pch"):
		kind = petri.ArcPcn
		weight = 0
	case strings.Contains(tok, "inh"):
		kind = petri.ArcInh
	}

	if len(parts) > 1 && parts[1] != "inh" && parts[1] != "pcn" && parts[1] != "pch" {
		if kind == petri.ArcPcn {
			pcnWeight, _ = strconv.ParseFloat(parts[1], 64)
		} else {
			w, err := strconv.Atoi(parts[1])
			if err == nil {
				weight = w
			}
		}
	}
	return place, kind, weight, pcnWeight
}

// parseOutArcToken parses `place[:weight]`.
func parseOutArcToken(tok string) (place string, weight int) {
	parts := strings.Split(tok, ":")
	place = parts[0]
	weight = 1
	if len(parts) > 1 {
		if w, err := strconv.Atoi(parts[1]); err == nil {
			weight = w
		}
	}
	return place, weight
}
