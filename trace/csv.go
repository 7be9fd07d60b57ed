package trace

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/petrisim/macchiato/petri"
)

// Writer emits the three parallel CSV streams of spec §4.6 for one run:
// places, transitions, and the firing list. In concatenate mode the same
// three files are reused across a batch, with a delimiter row marking where
// each run's rows begin.
type Writer struct {
	net *petri.Net
	cfg Config

	stamped   bool
	placeCols []string
	transCols []string

	places *streamFile
	trans  *streamFile
	fires  *streamFile
}

type streamFile struct {
	f *os.File
	w *csv.Writer
}

func (s *streamFile) write(record []string) error {
	if err := s.w.Write(record); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *streamFile) close() error {
	s.w.Flush()
	return s.f.Close()
}

// NewWriter opens (or, in concatenate mode, reopens) the three CSV streams
// for net under cfg, writing a header row to any stream that is new.
func NewWriter(net *petri.Net, cfg Config) (*Writer, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = net.Name
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("trace: creating output directory %q: %w", dir, err)
	}

	w := &Writer{
		net:       net,
		cfg:       cfg,
		stamped:   StampedMode(net.RunMode),
		placeCols: placeColumns(net, cfg),
		transCols: transColumns(net, cfg),
	}

	var err error
	if w.places, err = w.openStream(dir, "Places", w.placesHeader()); err != nil {
		return nil, err
	}
	if w.trans, err = w.openStream(dir, "Trans", w.transHeader()); err != nil {
		return nil, err
	}
	if w.fires, err = w.openStream(dir, "FireList", w.fireHeader()); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) streamPath(dir, stream string) string {
	if w.cfg.Concatenate {
		return filepath.Join(dir, fmt.Sprintf("Macchiato_PetriNet_%s.csv", stream))
	}
	return filepath.Join(dir, fmt.Sprintf("Macchiato_PetriNet_%s_%d.csv", stream, w.cfg.RunIndex))
}

func (w *Writer) openStream(dir, stream string, header []string) (*streamFile, error) {
	path := w.streamPath(dir, stream)

	var existed bool
	if fi, err := os.Stat(path); err == nil && w.cfg.Concatenate {
		existed = fi.Size() > 0
	}

	flags := os.O_CREATE | os.O_WRONLY
	if w.cfg.Concatenate {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("trace: opening %q: %w", path, err)
	}

	sf := &streamFile{f: f, w: csv.NewWriter(f)}
	if !existed {
		if err := sf.write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("trace: writing header to %q: %w", path, err)
		}
	} else if w.cfg.RunIndex > 0 {
		if err := sf.write(concatDelimiter(w.cfg.RunIndex)); err != nil {
			f.Close()
			return nil, fmt.Errorf("trace: writing run delimiter to %q: %w", path, err)
		}
	}
	return sf, nil
}

func (w *Writer) placesHeader() []string {
	h := []string{"step"}
	if w.stamped {
		h = append(h, "clock")
	}
	return append(h, w.placeCols...)
}

func (w *Writer) transHeader() []string {
	h := []string{"step"}
	if w.stamped {
		h = append(h, "clock")
	}
	return append(h, w.transCols...)
}

func (w *Writer) fireHeader() []string {
	h := []string{"step"}
	if w.stamped {
		h = append(h, "clock")
	}
	return append(h, "firedTransitions")
}

func (w *Writer) stepPrefix(step int, clock float64) []string {
	row := []string{strconv.Itoa(step)}
	if w.stamped {
		row = append(row, strconv.FormatFloat(clock, 'g', -1, 64))
	}
	return row
}

// ShouldEmit reports whether a row should be written for this step, given
// the configured EndOnly suppression (spec §4.6).
func (w *Writer) ShouldEmit(isFinal bool) bool {
	return !w.cfg.EndOnly || isFinal
}

// WritePlacesRow emits one row of token counts, in the writer's projected
// place order.
func (w *Writer) WritePlacesRow(step int, clock float64) error {
	row := w.stepPrefix(step, clock)
	for _, label := range w.placeCols {
		p, _ := w.net.Place(label)
		row = append(row, strconv.Itoa(p.Tokens))
	}
	return w.places.write(row)
}

// WriteTransitionsRow emits one row of cumulative fire counts, in the
// writer's projected transition order.
func (w *Writer) WriteTransitionsRow(step int, clock float64) error {
	row := w.stepPrefix(step, clock)
	for _, label := range w.transCols {
		t, _ := w.net.Transition(label)
		row = append(row, strconv.Itoa(t.FiredCount))
	}
	return w.trans.write(row)
}

// WriteFiringListRow emits one row naming the transitions that fired this
// step.
func (w *Writer) WriteFiringListRow(step int, clock float64, fired []string) error {
	row := w.stepPrefix(step, clock)
	row = append(row, fired...)
	return w.fires.write(row)
}

// WriteSummary appends the four summary rows (In, Out, Net, Reset) to the
// places stream, per place in projected order (spec §4.6).
func (w *Writer) WriteSummary() error {
	rows := map[string]func(*petri.Place) int{
		"In":    func(p *petri.Place) int { return p.Ins },
		"Out":   func(p *petri.Place) int { return p.Outs },
		"Net":   func(p *petri.Place) int { return p.Ins - p.Outs },
		"Reset": func(p *petri.Place) int { return p.ResetCount },
	}
	for _, label := range summaryLabels {
		extract := rows[label]
		row := []string{label}
		if w.stamped {
			row = append(row, "")
		}
		for _, col := range w.placeCols {
			p, _ := w.net.Place(col)
			row = append(row, strconv.Itoa(extract(p)))
		}
		if err := w.places.write(row); err != nil {
			return fmt.Errorf("trace: writing %s summary row: %w", label, err)
		}
	}
	return nil
}

// Close flushes and closes all three streams.
func (w *Writer) Close() error {
	for _, s := range []*streamFile{w.places, w.trans, w.fires} {
		if err := s.close(); err != nil {
			return err
		}
	}
	return nil
}
