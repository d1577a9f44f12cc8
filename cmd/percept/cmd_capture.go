package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"percept/internal/capture"
	"percept/internal/store"
)

var captureFlags struct {
	output  string
	timeout time.Duration
	analyze bool
}

var captureCmd = &cobra.Command{
	Use:   "capture <url>",
	Short: "Screenshot a web page into an analysis artifact",
	Long: `Capture a full-page screenshot of a URL with a headless browser and
write it as PNG. With --analyze the screenshot is fed straight into the
analysis pipeline.

Requires a Chrome or Chromium binary on PATH.`,
	Args: cobra.ExactArgs(1),
	RunE: runCaptureCmd,
}

func init() {
	f := captureCmd.Flags()
	f.StringVarP(&captureFlags.output, "output", "o", "capture.png", "Output PNG path")
	f.DurationVar(&captureFlags.timeout, "timeout", capture.DefaultTimeout, "Capture timeout")
	f.BoolVar(&captureFlags.analyze, "analyze", false, "Analyze the captured screenshot")
}

func runCaptureCmd(cmd *cobra.Command, args []string) error {
	url := args[0]

	buf, err := capture.Screenshot(cmd.Context(), url, captureFlags.timeout)
	if err != nil {
		return err
	}
	if err := os.WriteFile(captureFlags.output, buf, 0644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Captured %s -> %s (%d bytes)\n", url, captureFlags.output, len(buf))

	if !captureFlags.analyze {
		return nil
	}

	return runAnalysis(cmd, captureFlags.output, analysisOptions{
		dbPath: store.DefaultDBPath,
		save:   true,
	})
}
