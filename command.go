package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"arts_scrooper/models"
	"arts_scrooper/storage"
)

var commandCmd = &cobra.Command{
	Use:       "command <scrape_now|pause|resume>",
	Short:     "Queue a command for a running serve process",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(models.CmdScrapeNow), string(models.CmdPause), string(models.CmdResume)},
	RunE: func(cmd *cobra.Command, args []string) error {
		c := models.CommandType(args[0])
		switch c {
		case models.CmdScrapeNow, models.CmdPause, models.CmdResume:
		default:
			return eris.Errorf("unknown command %q", args[0])
		}

		db, err := storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := db.EnqueueCommand(c, nil)
		if err != nil {
			return err
		}
		fmt.Printf("queued %s (#%d)\n", c, id)
		return nil
	},
}

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Show recent runs and site stats, or the log of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer w.Flush()

		if len(args) == 1 {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return eris.Wrapf(err, "invalid run id %q", args[0])
			}
			logs, err := db.LogsForRun(runID)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "TIME\tLEVEL\tSITE\tMESSAGE")
			for _, l := range logs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.Timestamp.Format("2006-01-02 15:04:05"), l.Level, l.SiteID, l.Message)
			}
			return nil
		}

		runs, err := db.ListRuns(runsLimit)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "RUN\tSTARTED\tSTATUS\tFOUND\tADDED\tDUPLICATES\tERRORS")
		for _, r := range runs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\n", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status, r.EventsFound, r.EventsAdded, r.Duplicates, r.ErrorsCount)
		}

		stats, err := db.GetSiteStats()
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "SITE\tLAST STATUS\tLAST FOUND\tTOTAL FOUND\tFAILURES")
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", s.SiteID, s.LastStatus, s.LastFound, s.TotalFound, s.FailuresCount)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "number of runs to show")
}
