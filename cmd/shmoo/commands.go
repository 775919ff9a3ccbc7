package main

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RMahshie/shmoo/internal/report"
	"github.com/RMahshie/shmoo/internal/section"
	"github.com/RMahshie/shmoo/internal/watch"
	"github.com/RMahshie/shmoo/pkg/models"
)

func (c *cli) extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <dump>",
		Short: "Split a dump into per-test directories of site files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := c.app.Service.ExtractSections(cmd.Context(), args[0], c.app.Config.Processing.PlotsDir)
			if err != nil {
				return err
			}
			for _, d := range dirs {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
}

func (c *cli) reconstructCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconstruct <test-dir>",
		Short: "Restore missing voltage labels in every site file, in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Service.ReconstructRows(cmd.Context(), args[0])
		},
	}
}

func (c *cli) rangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranges <test-dir>",
		Short: "Recompute the pass range annotation of every grid row, in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Service.RecalculateRanges(cmd.Context(), args[0])
		},
	}
}

func (c *cli) aggregateCmd() *cobra.Command {
	var modeName string
	cmd := &cobra.Command{
		Use:   "aggregate <test-dir>",
		Short: "Combine the site grids of a test directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes, err := parseModes(modeName)
			if err != nil {
				return err
			}
			for _, mode := range modes {
				path, err := c.app.Service.Aggregate(cmd.Context(), args[0], mode)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&modeName, "mode", "m", "all", "OR, AND, Majority or all")
	return cmd
}

func (c *cli) marginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "margins <test-dir>",
		Short: "Print the operating centres and margins of every site file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			margins, err := c.app.Service.ComputeMargins(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printMargins(cmd, margins)
			return nil
		},
	}
}

func (c *cli) diffCmd() *cobra.Command {
	var modeName string
	cmd := &cobra.Command{
		Use:   "diff <test-dir> <aggregated-file>",
		Short: "Compare every site grid against an aggregate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := models.ParseMode(modeName)
			if err != nil {
				return err
			}
			dir, err := c.app.Service.Diff(cmd.Context(), args[0], args[1], mode.DiffLabel())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&modeName, "mode", "m", "OR", "mode the aggregate was built with; names the output directory")
	return cmd
}

func (c *cli) runCmd() *cobra.Command {
	var archive bool
	cmd := &cobra.Command{
		Use:   "run <dump>",
		Short: "Run the whole pipeline on a dump and write the margin report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.process(cmd, args[0], archive)
		},
	}
	cmd.Flags().BoolVar(&archive, "archive", false, "archive the plot tree when done")
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	var inbox string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the pipeline on every dump dropped into the inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inbox == "" {
				inbox = c.app.Config.Watch.InboxDir
			}
			w := watch.New(inbox, c.app.Config.Watch.Debounce, func(ctx context.Context, path string) error {
				return c.process(cmd, path, c.app.Archiver != nil)
			})
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&inbox, "inbox", "", "directory to watch (overrides INBOX_DIR)")
	return cmd
}

// process runs the pipeline on one dump, writes its workbook and
// optionally archives its plot tree
func (c *cli) process(cmd *cobra.Command, dump string, archive bool) error {
	cfg := c.app.Config
	rep, err := c.app.Service.Run(cmd.Context(), dump, cfg.Processing.PlotsDir)
	if err != nil {
		return err
	}

	base := section.DumpBase(dump)
	reportPath := filepath.Join(cfg.Processing.ReportsDir, base+".xlsx")
	if err := report.WriteMargins(reportPath, rep); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, t := range rep.Tests {
		fmt.Fprintf(out, "%s: %d files, %d margins, %d skipped\n", t.Test, t.Files, len(t.Margins), len(t.Diagnostics))
	}
	for _, d := range rep.Diagnostics() {
		fmt.Fprintf(out, "  %s [%s] %s: %s\n", d.File, d.Stage, d.Kind, d.Message)
	}
	fmt.Fprintln(out, "report:", reportPath)

	if archive {
		if c.app.Archiver == nil {
			return fmt.Errorf("no archive backend configured")
		}
		loc, err := c.app.Archiver.Archive(cmd.Context(), filepath.Join(cfg.Processing.PlotsDir, base), base)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "archive:", loc)
	}
	return nil
}

func (c *cli) archiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <dump-name>",
		Short: "Snapshot the plot tree of a processed dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.app.Archiver == nil {
				return fmt.Errorf("no archive backend configured")
			}
			name := section.DumpBase(args[0])
			loc, err := c.app.Archiver.Archive(cmd.Context(), filepath.Join(c.app.Config.Processing.PlotsDir, name), name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), loc)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list [snapshot]",
		Short: "List archived snapshots, or the tests of one snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.app.Archiver == nil {
				return fmt.Errorf("no archive backend configured")
			}
			var (
				names []string
				err   error
			)
			if len(args) == 1 {
				names, err = c.app.Archiver.Contents(cmd.Context(), args[0])
			} else {
				names, err = c.app.Archiver.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	})
	return cmd
}

func parseModes(name string) ([]models.Mode, error) {
	if name == "all" {
		return models.Modes, nil
	}
	mode, err := models.ParseMode(name)
	if err != nil {
		return nil, err
	}
	return []models.Mode{mode}, nil
}

func printMargins(cmd *cobra.Command, margins []models.MarginResult) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tX CENTER\tY CENTER\tX MARGIN\tY MARGIN")
	for _, m := range margins {
		fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%g\n", m.File, m.XOperationCenter, m.YOperationCenter, m.XMargin, m.YMargin)
	}
	tw.Flush()
}
