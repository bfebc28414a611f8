package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"simplib/pkg/metrics"
)

func (c *cli) borrowersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "borrowers",
		Short: "Manage the borrower roster",
	}

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List borrowers with their loan state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.app.Controller.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPHONE\tLOANS\tSTATE")
			for _, b := range metrics.BorrowerStatuses(ds, c.app.Controller.Today()) {
				if !b.Active && !all {
					continue
				}
				state := string(b.State)
				if !b.Active {
					state = "retired"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", b.ID, b.FullName(), b.Phone, b.ActiveLoans, state)
			}
			return w.Flush()
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include retired borrowers")

	var phone string
	add := &cobra.Command{
		Use:   "add NAME SURNAME",
		Short: "Register a borrower, or bring back a retired one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, reinstated, err := c.app.Controller.AddBorrower(cmd.Context(), args[0], args[1], phone)
			if err != nil {
				return err
			}
			verb := "added"
			if reinstated {
				verb = "reinstated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s borrower %d: %s\n", verb, b.ID, b.FullName())
			return nil
		},
	}
	add.Flags().StringVar(&phone, "phone", "", "contact phone number")

	retire := &cobra.Command{
		Use:   "retire ID",
		Short: "Remove a borrower from the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("borrower id", args[0])
			if err != nil {
				return err
			}
			b, err := c.app.Controller.RetireBorrower(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "retired borrower %d: %s\n", b.ID, b.FullName())
			return nil
		},
	}

	cmd.AddCommand(list, add, retire)
	return cmd
}
