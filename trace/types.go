// Package trace writes the per-run CSV streams the engine produces as it
// steps a net: one row of place markings, one row of transition fire
// counts, and one row naming which transitions fired, per recorded step.
package trace

import "github.com/petrisim/macchiato/petri"

// Config controls what a Writer emits and where.
type Config struct {
	Dir         string   // directory the three CSVs are written under
	RunIndex    int      // used in the per-run file names
	Concatenate bool     // append into batch-level files instead of per-run ones
	EndOnly     bool     // suppress every row but the final one
	Places      []string // projection; nil means every place in net order
	Transitions []string // projection; nil means every transition in net order
}

// StampedMode reports whether mode carries a clock column alongside step
// (spec §4.6: stochastic and schedule modes advance the clock; all/single
// do not).
func StampedMode(runMode string) bool {
	return runMode == "stochastic" || runMode == "schedule"
}

// summaryLabels are the four summary rows emitted at the end of the places
// stream (spec §4.6).
var summaryLabels = []string{"In", "Out", "Net", "Reset"}

// concatDelimiter formats the separator line written between runs in a
// concatenated batch file.
func concatDelimiter(runIndex int) []string {
	return []string{">>>>>", itoa(runIndex), "<<<<<"}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// selectColumns resolves a projection list against the net's canonical
// order, falling back to every entry when projection is nil.
func selectColumns(order []string, projection []string) []string {
	if projection == nil {
		return order
	}
	known := make(map[string]bool, len(order))
	for _, l := range order {
		known[l] = true
	}
	out := make([]string, 0, len(projection))
	for _, l := range projection {
		if known[l] {
			out = append(out, l)
		}
	}
	return out
}

func placeColumns(net *petri.Net, cfg Config) []string {
	return selectColumns(net.PlaceOrder, cfg.Places)
}

func transColumns(net *petri.Net, cfg Config) []string {
	return selectColumns(net.TransOrder, cfg.Transitions)
}
