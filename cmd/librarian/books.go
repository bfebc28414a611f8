package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"simplib/pkg/metrics"
)

func (c *cli) booksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Manage the catalog",
	}

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List books with their availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.app.Controller.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tAUTHOR\tCATEGORY\tSTATE")
			for _, b := range metrics.BookStatuses(ds, c.app.Controller.Today()) {
				if !b.Active && !all {
					continue
				}
				state := string(b.State)
				if !b.Active {
					state = "retired"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", b.ID, b.Name, b.Author, b.Category, state)
			}
			return w.Flush()
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include retired books")

	var category string
	add := &cobra.Command{
		Use:   "add NAME AUTHOR",
		Short: "Add a book, or bring back a retired copy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, reinstated, err := c.app.Controller.AddBook(cmd.Context(), args[0], args[1], category)
			if err != nil {
				return err
			}
			verb := "added"
			if reinstated {
				verb = "reinstated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s book %d: %s - %s\n", verb, book.ID, book.Name, book.Author)
			return nil
		},
	}
	add.Flags().StringVar(&category, "category", "", "book category")

	retire := &cobra.Command{
		Use:   "retire ID",
		Short: "Take a book out of the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("book id", args[0])
			if err != nil {
				return err
			}
			book, err := c.app.Controller.RetireBook(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "retired book %d: %s - %s\n", book.ID, book.Name, book.Author)
			return nil
		},
	}

	cmd.AddCommand(list, add, retire)
	return cmd
}
