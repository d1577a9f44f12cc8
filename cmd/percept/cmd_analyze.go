package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"percept/internal/analyze"
	"percept/internal/display"
	"percept/internal/store"
)

var analyzeFlags struct {
	configPath string
	parallel   int
	timeout    time.Duration
	dbPath     string
	noSave     bool
	jsonOut    bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image-path>",
	Short: "Run the analysis pipeline on an image file",
	Long: `Analyze an image and print the collected signals.

Usage:
  percept analyze photo.jpg
  percept analyze scan.png --json
  percept analyze photo.jpg --config percept.yaml --timeout 10s

Results are saved to the session store (see 'percept sessions') unless
--no-save is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyzeCmd,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFlags.configPath, "config", "c", "", "Pipeline config file (YAML/JSON)")
	f.IntVar(&analyzeFlags.parallel, "parallel", 0, "Max units running concurrently (overrides config)")
	f.DurationVar(&analyzeFlags.timeout, "timeout", 0, "Session timeout (overrides config)")
	f.StringVar(&analyzeFlags.dbPath, "db", store.DefaultDBPath, "Session store DB path")
	f.BoolVar(&analyzeFlags.noSave, "no-save", false, "Do not persist the result")
	f.BoolVar(&analyzeFlags.jsonOut, "json", false, "Print the full result as JSON")
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	return runAnalysis(cmd, args[0], analysisOptions{
		configPath: analyzeFlags.configPath,
		parallel:   analyzeFlags.parallel,
		timeout:    analyzeFlags.timeout,
		dbPath:     analyzeFlags.dbPath,
		save:       !analyzeFlags.noSave,
		jsonOut:    analyzeFlags.jsonOut,
	})
}

// analysisOptions carries one analysis invocation's knobs explicitly, so
// other commands (capture) can run the pipeline without touching this
// command's flag state.
type analysisOptions struct {
	configPath string
	parallel   int
	timeout    time.Duration
	dbPath     string
	save       bool
	jsonOut    bool
}

func runAnalysis(cmd *cobra.Command, path string, opts analysisOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	descs, err := buildDescriptors(cfg)
	if err != nil {
		return err
	}

	schedCfg := cfg.SchedulerConfig()
	if opts.parallel > 0 {
		schedCfg.MaxParallelism = opts.parallel
	}
	if opts.timeout > 0 {
		schedCfg.TotalTimeout = opts.timeout
	}

	started := time.Now().UTC()
	orch := analyze.New(schedCfg)
	res := orch.AnalyzeFile(cmd.Context(), path, descs)

	if opts.save {
		if err := persistResult(res, path, opts.dbPath, started); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: result not saved: %v\n", err)
		}
	}

	if opts.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printResult(cmd, res)
	if !res.Success {
		return fmt.Errorf("analysis failed: %s", res.Error)
	}
	return nil
}

func persistResult(res *analyze.Result, path, dbPath string, started time.Time) error {
	rec, err := store.FromResult(res, path, "", started)
	if err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.SaveSession(rec)
}

func printResult(cmd *cobra.Command, res *analyze.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Session:    %s\n", res.SessionID)
	fmt.Fprintf(out, "Outcome:    %s", display.Outcome(res.Success, res.EarlyExit))
	if res.EarlyExitReason != "" {
		fmt.Fprintf(out, " (%s)", res.EarlyExitReason)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Duration:   %s\n", display.Duration(res.ProcessingTime))
	fmt.Fprintf(out, "Confidence: %s\n", display.Confidence(res.Confidence))

	if len(res.Contributions) > 0 {
		fmt.Fprintf(out, "\nContributions:\n")
		for _, c := range res.Contributions {
			fmt.Fprintf(out, "  %-12s %-20s %s", c.Unit, display.Category(c.Category), display.Duration(c.Duration))
			if c.Reason != "" {
				fmt.Fprintf(out, "  %s", c.Reason)
			}
			fmt.Fprintln(out)
		}
	}

	if len(res.Signals) > 0 {
		fmt.Fprintf(out, "\nSignals:\n")
		for _, key := range sortedKeys(res.Signals) {
			fmt.Fprintf(out, "  %-24s %v\n", key, res.Signals[key])
		}
	}

	if len(res.Failed) > 0 {
		fmt.Fprintf(out, "\nFailed:\n")
		for unit, reason := range res.Failed {
			fmt.Fprintf(out, "  %-12s %s\n", unit, display.FailureReason(reason))
		}
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintf(out, "\nSkipped:\n")
		for _, s := range res.Skipped {
			fmt.Fprintf(out, "  %-12s %s\n", s.Unit, s.Reason)
		}
	}

	if res.Error != "" {
		fmt.Fprintf(os.Stderr, "\nError: %s\n", res.Error)
	}
}
