package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"simplib/pkg/app"
	"simplib/pkg/config"
	"simplib/pkg/logging"
	"simplib/pkg/models"
)

type cli struct {
	driver  string
	dataDir string
	verbose bool

	app *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "librarian",
		Short:        "Manage the community library from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}

	root.PersistentFlags().StringVar(&c.driver, "driver", "", "store driver: csv, sqlite or postgres (default from STORE_DRIVER)")
	root.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "directory holding the CSV files (default from DATA_DIR)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log every change to stderr")

	root.AddCommand(
		c.metricsCmd(),
		c.statsCmd(),
		c.historyCmd(),
		c.booksCmd(),
		c.borrowersCmd(),
		c.loansCmd(),
		c.backupCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.driver != "" {
		cfg.StoreDriver = c.driver
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.Discard()
	if c.verbose {
		log = logging.NewSlogLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)))
	}

	c.app, err = app.New(cfg, log)
	return err
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseIDArg(name, s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, s)
	}
	return id, nil
}

// dateFlag parses a DD/MM/YYYY flag value, falling back to today.
func (c *cli) dateFlag(name, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return c.app.Controller.Today(), nil
	}
	t, err := models.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be DD/MM/YYYY, got %q", name, value)
	}
	return t, nil
}
