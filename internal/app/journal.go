package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/lifestream/internal/journal"
	"github.com/blackwell-systems/lifestream/internal/output"
)

var (
	journalClear  bool
	journalEvents string
	journalLimit  int
)

var journalCmd = &cobra.Command{
	Use:   "journal [session-uuid]",
	Short: "Summarize a recorded session",
	Long: `Summarize a session recorded by the journal sink (sinks.journal.enabled).
Without an argument the most recent session is shown.

Examples:
  lifestream journal                        # latest session summary
  lifestream journal --events patterns      # newest pattern events
  lifestream journal --clear                # delete every session`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJournal,
}

func init() {
	journalCmd.Flags().BoolVar(&journalClear, "clear", false, "Delete every recorded session")
	journalCmd.Flags().StringVar(&journalEvents, "events", "", "List the newest events with this name (\"all\" for every name)")
	journalCmd.Flags().IntVar(&journalLimit, "limit", 10, "Number of events to list with --events")
	rootCmd.AddCommand(journalCmd)
}

func runJournal(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	db, err := journal.Open(e.cfg.Sinks.Journal.Path)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer db.Close()

	if journalClear {
		if err := db.Clear(); err != nil {
			return err
		}
		fmt.Println("Journal cleared.")
		return nil
	}

	var uuid string
	if len(args) == 1 {
		uuid = args[0]
	}
	return showJournal(os.Stdout, db, uuid, journalEvents, journalLimit)
}

func showJournal(out io.Writer, db *journal.DB, uuid, events string, limit int) error {
	var (
		sess *journal.Session
		err  error
	)
	if uuid != "" {
		sess, err = db.GetSession(uuid)
	} else {
		sess, err = db.LatestSession()
	}
	if err != nil {
		return err
	}
	if sess == nil {
		if uuid != "" {
			return fmt.Errorf("no session %s", uuid)
		}
		fmt.Fprintln(out, "No sessions recorded. Enable sinks.journal in the config and run the stream.")
		return nil
	}

	if events != "" {
		name := events
		if name == "all" {
			name = ""
		}
		evs, err := db.RecentEvents(sess.ID, name, limit)
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(out, evs)
		}
		tbl := output.NewTable("Time", "Event", "Payload")
		for _, ev := range evs {
			tbl.AddRow(ev.At.Local().Format("15:04:05.000"), ev.Name, truncate(string(ev.Payload), 60))
		}
		fmt.Fprint(out, tbl.Render())
		return nil
	}

	sum, err := db.Summarize(sess)
	if err != nil {
		return err
	}
	if flagJSON {
		return writeJSON(out, sum)
	}
	fmt.Fprint(out, output.RenderSummary(*sum))
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
