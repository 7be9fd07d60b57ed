// Command macchiato loads a `.mpn` net description and runs it through the
// batch simulator (spec §6).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/petrisim/macchiato/batch"
	"github.com/petrisim/macchiato/internal/rlog"
	"github.com/petrisim/macchiato/netfile"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "macchiato:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("macchiato", flag.ExitOnError)
	verbose := fs.Bool("v", false, "verbose per-step logging")
	concatenate := fs.Bool("concat", false, "concatenate trace output into shared batch-level files")
	endOnly := fs.Bool("end-only", false, "suppress every trace row but the final one")
	parallel := fs.Bool("parallel", false, "run independent simulations concurrently")
	dir := fs.String("dir", "", "trace output directory (defaults to the net's name)")
	places := fs.String("places", "", "comma-separated place projection for traces (default: all)")
	transitions := fs.String("transitions", "", "comma-separated transition projection for traces (default: all)")
	statsDBPath := fs.String("statsdb", "", "optional SQLite path to persist batch statistics")
	seed := fs.Int64("seed", 1, "base seed for the batch's per-run RNG streams")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: macchiato [options] <net.mpn> [runs]

Runs a Petri net description through the Monte-Carlo batch simulator.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("input file required")
	}

	inputPath := fs.Arg(0)
	fixedRuns := 0
	if fs.NArg() > 1 {
		n, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return fmt.Errorf("run count %q: %w", fs.Arg(1), err)
		}
		fixedRuns = n
	}

	log := rlog.New("macchiato", "load", *verbose)
	net, fileCfg, warnings, err := netfile.Load(inputPath, log)
	if err != nil {
		return fmt.Errorf("loading %q: %w", inputPath, err)
	}
	for _, w := range warnings {
		log.Warn().Str("pattern", w).Msg("RESET pattern matched no place")
	}

	cfg := batch.DefaultConfig()
	cfg.MaxClock = fileCfg.MaxClock
	cfg.MaxSteps = int(fileCfg.MaxSteps)
	cfg.SimsFactor = fileCfg.SimsFactor
	cfg.AnalysisStep = fileCfg.AnalysisStep
	cfg.History = fileCfg.History
	cfg.EndOnly = fileCfg.EndOnly || *endOnly
	cfg.Verbose = *verbose
	cfg.Concatenate = *concatenate
	cfg.Parallel = *parallel
	cfg.FixedRuns = fixedRuns
	if *dir != "" {
		cfg.Dir = *dir
	} else if fileCfg.FileOutput {
		cfg.Dir = net.Name
	}
	if *places != "" {
		cfg.Places = strings.Split(*places, ",")
	}
	if *transitions != "" {
		cfg.Transitions = strings.Split(*transitions, ",")
	}

	runnerLog := rlog.New(net.Name, "batch", *verbose)
	runner := batch.NewRunner(net, cfg, *seed, runnerLog)

	start := time.Now()
	result, err := runner.Run(context.Background())
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("running batch: %w", err)
	}

	if *statsDBPath != "" {
		if err := persistStats(*statsDBPath, net.Name, result); err != nil {
			return fmt.Errorf("writing statsdb: %w", err)
		}
	}

	printSummary(net.Name, result, elapsed)
	return nil
}

func printSummary(netName string, result *batch.Result, elapsed time.Duration) {
	fmt.Printf("%s: %s runs in %s\n", netName, humanize.Comma(int64(result.Runs)), elapsed.Round(time.Millisecond))
	fmt.Printf("  total simulated clock: %g\n", result.TotalClock)
	for _, label := range sortedKeys(result.TransTotals) {
		fmt.Printf("  %s fired %s times\n", label, humanize.Comma(int64(result.TransTotals[label])))
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
