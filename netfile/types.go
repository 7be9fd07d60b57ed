// Package netfile reads and writes the `.mpn`-style text description of a
// net (spec §6): a header of key/value run parameters, a `Places` section,
// and a `Transitions` section.
package netfile

// Config holds the header key/value parameters and run defaults carried
// alongside a net description (spec §6, supplemented feature 3).
type Config struct {
	Name        string
	Units       string
	RunMode     string
	Dot         bool
	Visualise   *string
	Details     bool
	UseGroup    bool
	Orientation *string
	Debug       bool
	DotLoc      *string

	MaxClock     float64
	MaxSteps     float64
	SimsFactor   float64
	History      bool
	AnalysisStep float64
	FileOutput   bool
	EndOnly      bool
}

// DefaultConfig mirrors the reference driver's defaults (SPEC_FULL §12,
// item 3), applied before any header line overrides them.
func DefaultConfig() Config {
	return Config{
		Name:         "unnamed",
		Units:        "hrs",
		RunMode:      "schedule",
		Details:      true,
		UseGroup:     true,
		MaxClock:     1e6,
		MaxSteps:     1e12,
		SimsFactor:   1.5e3,
		AnalysisStep: 1e2,
		FileOutput:   true,
	}
}
