package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"simplib/pkg/metrics"
	"simplib/pkg/models"
	"simplib/pkg/stats"
)

func (c *cli) metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print the dashboard counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.app.Controller.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, metrics.Compute(ds, c.app.Controller.Today()))
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print leaderboards, monthly volume and category shares",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.app.Controller.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, stats.Build(ds, c.app.Thresholds()))
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List every loan ever made",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.app.Controller.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			rows := stats.FillOpenDurations(stats.Search(stats.History(ds), query), c.app.Controller.Today())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LOAN\tBORROWER\tBOOK\tLOANED\tRETURNED\tDAYS")
			for _, r := range rows {
				returned := "-"
				if r.ReturnDate != nil {
					returned = models.FormatDate(*r.ReturnDate)
				}
				days := "-"
				if r.DurationDays != nil {
					days = fmt.Sprint(*r.DurationDays)
				}
				fmt.Fprintf(w, "%s\t%s\t%s - %s\t%s\t%s\t%s\n",
					r.LoanID, r.BorrowerFullName(), r.BookName, r.Author,
					models.FormatDate(r.LoanDate), returned, days)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "only loans whose borrower or book matches")
	return cmd
}

func (c *cli) backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Take a snapshot of the data files now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.app.Rotator(cmd.Context())
			if err != nil {
				return err
			}
			if r == nil {
				return fmt.Errorf("the %s store has no local files to snapshot", c.app.Config.StoreDriver)
			}
			snapshot, err := r.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), snapshot)
			return nil
		},
	}
}
