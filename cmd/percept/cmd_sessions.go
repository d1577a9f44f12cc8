package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"percept/internal/display"
	"percept/internal/store"
)

var sessionsFlags struct {
	dbPath  string
	limit   int
	show    string
	jsonOut bool
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List past analysis sessions from the store",
	Long: `List recent analysis sessions, newest first.

Usage:
  percept sessions
  percept sessions --limit 5
  percept sessions --show <session-id>       # full stored result`,
	RunE: runSessionsCmd,
}

func init() {
	f := sessionsCmd.Flags()
	f.StringVar(&sessionsFlags.dbPath, "db", store.DefaultDBPath, "Session store DB path")
	f.IntVar(&sessionsFlags.limit, "limit", 20, "Max sessions to list")
	f.StringVar(&sessionsFlags.show, "show", "", "Show one session's full result by ID")
	f.BoolVar(&sessionsFlags.jsonOut, "json", false, "Print as JSON")
}

func runSessionsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(sessionsFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	out := cmd.OutOrStdout()

	if sessionsFlags.show != "" {
		rec, err := st.GetSession(sessionsFlags.show)
		if err != nil {
			return err
		}
		res, err := rec.Result()
		if err != nil {
			return fmt.Errorf("decode stored result: %w", err)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	recs, err := st.ListSessions(sessionsFlags.limit)
	if err != nil {
		return err
	}
	if sessionsFlags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	if len(recs) == 0 {
		fmt.Fprintln(out, "No sessions recorded yet. Run 'percept analyze <image>' first.")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-20s  %-10s %7s %6s  %s\n",
		"SESSION", "STARTED", "OUTCOME", "UNITS", "CONF", "ARTIFACT")
	for _, r := range recs {
		started := r.StartedAt
		if t, err := time.Parse(time.RFC3339, r.StartedAt); err == nil {
			started = t.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(out, "%-36s  %-20s  %-10s %3d/%-3d %6s  %s\n",
			r.ID, started, display.Outcome(r.Success, r.EarlyExit),
			r.CompletedUnits, r.CompletedUnits+r.FailedUnits,
			display.Confidence(r.Confidence), r.ArtifactRef)
	}
	return nil
}
