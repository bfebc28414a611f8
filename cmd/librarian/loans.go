package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"simplib/pkg/metrics"
	"simplib/pkg/models"
)

func (c *cli) loansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "Lend and take back books",
	}

	var loanDate string
	create := &cobra.Command{
		Use:   "create BOOK_ID LOANER_ID",
		Short: "Lend a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseIDArg("book id", args[0])
			if err != nil {
				return err
			}
			loanerID, err := parseIDArg("loaner id", args[1])
			if err != nil {
				return err
			}
			date, err := c.dateFlag("date", loanDate)
			if err != nil {
				return err
			}
			loan, err := c.app.Controller.CreateLoan(cmd.Context(), bookID, loanerID, date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loan %s: book %d to borrower %d on %s\n",
				loan.ID, loan.BookID, loan.LoanerID, models.FormatDate(loan.LoanDate))
			return nil
		},
	}
	create.Flags().StringVar(&loanDate, "date", "", "loan date, DD/MM/YYYY (default today)")

	var (
		returnDate string
		bookID     int
		loanerID   int
		openedOn   string
	)
	ret := &cobra.Command{
		Use:   "return [LOAN_ID]",
		Short: "Take a book back, by loan id or by --book, --loaner and --loan-date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := c.dateFlag("date", returnDate)
			if err != nil {
				return err
			}

			var loan models.Loan
			if len(args) == 1 {
				loan, err = c.app.Controller.ReturnLoanByID(cmd.Context(), args[0], date)
			} else {
				if bookID == 0 || loanerID == 0 || openedOn == "" {
					return fmt.Errorf("give a loan id, or all of --book, --loaner and --loan-date")
				}
				var opened time.Time
				if opened, err = c.dateFlag("loan-date", openedOn); err != nil {
					return err
				}
				loan, err = c.app.Controller.ReturnLoan(cmd.Context(), loanerID, bookID, opened, date)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "returned loan %s on %s\n", loan.ID, models.FormatDate(*loan.ReturnDate))
			return nil
		},
	}
	ret.Flags().StringVar(&returnDate, "date", "", "return date, DD/MM/YYYY (default today)")
	ret.Flags().IntVar(&bookID, "book", 0, "book id")
	ret.Flags().IntVar(&loanerID, "loaner", 0, "borrower id")
	ret.Flags().StringVar(&openedOn, "loan-date", "", "date the loan was made, DD/MM/YYYY")

	var lateOnly bool
	active := &cobra.Command{
		Use:   "active",
		Short: "List open loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := c.app.Controller.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			today := c.app.Controller.Today()
			views := metrics.ActiveLoans(ds, today)
			if lateOnly {
				views = metrics.LateLoans(ds, today)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LOAN\tBOOK\tBORROWER\tPHONE\tLOANED\tDAYS\tLATE")
			for _, v := range views {
				fmt.Fprintf(w, "%s\t%s - %s\t%s %s\t%s\t%s\t%d\t%t\n",
					v.LoanID, v.BookName, v.Author, v.BorrowerName, v.BorrowerSurname,
					v.Phone, models.FormatDate(v.LoanDate), v.DurationDays, v.Late)
			}
			return w.Flush()
		},
	}
	active.Flags().BoolVar(&lateOnly, "late", false, "only loans past the limit")

	cmd.AddCommand(create, ret, active)
	return cmd
}
