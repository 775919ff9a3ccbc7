package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/RMahshie/shmoo/internal/app"
	"github.com/RMahshie/shmoo/internal/config"
	"github.com/RMahshie/shmoo/internal/logging"
)

// cli carries the wired application into subcommands
type cli struct {
	app       *app.App
	outputDir string
	workers   int
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "shmoo",
		Short:         "Process tester shmoo plot dumps",
		Long:          "Splits tester log dumps into per-site shmoo plots, repairs and aggregates them, and measures operating margins.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
				return err
			}
			if c.outputDir != "" {
				cfg.Processing.PlotsDir = c.outputDir
			}
			if c.workers > 0 {
				cfg.Processing.Workers = c.workers
			}
			// runs are not persisted from the command line
			cfg.Database.URL = ""
			c.app, err = app.New(cmd.Context(), cfg, prometheus.NewRegistry())
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app != nil {
				return c.app.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&c.outputDir, "output", "o", "", "plots directory (overrides PLOTS_DIR)")
	root.PersistentFlags().IntVarP(&c.workers, "workers", "w", 0, "test directories processed in parallel (overrides WORKERS)")

	root.AddCommand(
		c.extractCmd(),
		c.reconstructCmd(),
		c.rangesCmd(),
		c.aggregateCmd(),
		c.marginsCmd(),
		c.diffCmd(),
		c.runCmd(),
		c.watchCmd(),
		c.archiveCmd(),
	)
	return root
}
