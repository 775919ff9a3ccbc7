package processing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/RMahshie/shmoo/internal/section"
	"github.com/RMahshie/shmoo/internal/shmoo"
	"github.com/RMahshie/shmoo/pkg/models"
)

// ProcessingService runs the shmoo pipeline over dumps and test directories.
// A failure in one file never stops the others: it is logged, counted and,
// for Run, recorded as a diagnostic.
type ProcessingService interface {
	ExtractSections(ctx context.Context, dumpPath, outputRoot string) ([]string, error)
	ReconstructRows(ctx context.Context, testDir string) error
	RecalculateRanges(ctx context.Context, testDir string) error
	Aggregate(ctx context.Context, testDir string, mode models.Mode) (string, error)
	ComputeMargins(ctx context.Context, testDir string) ([]models.MarginResult, error)
	Diff(ctx context.Context, testDir, aggregatedFile, modeLabel string) (string, error)
	Run(ctx context.Context, dumpPath, outputRoot string) (*models.RunReport, error)
}

type processingService struct {
	engine    *shmoo.Engine
	extractor *section.Extractor
	metrics   *Metrics
	workers   int
}

// NewProcessingService wires the pipeline. metrics may be nil; workers
// bounds how many test directories Run processes at once.
func NewProcessingService(engine *shmoo.Engine, extractor *section.Extractor, metrics *Metrics, workers int) ProcessingService {
	if workers < 1 {
		workers = 1
	}
	return &processingService{
		engine:    engine,
		extractor: extractor,
		metrics:   metrics,
		workers:   workers,
	}
}

func (s *processingService) ExtractSections(ctx context.Context, dumpPath, outputRoot string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer s.metrics.ObserveStage(StageExtract, start)

	dirs, err := s.extractor.Extract(dumpPath, outputRoot)
	if err != nil {
		s.metrics.FileFailed(StageExtract, err)
		return nil, err
	}
	s.metrics.FileProcessed(StageExtract)
	log.Info().Str("dump", dumpPath).Int("tests", len(dirs)).Msg("Extracted sections")
	return dirs, nil
}

func (s *processingService) ReconstructRows(ctx context.Context, testDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.reconstructRows(testDir)
	return err
}

func (s *processingService) RecalculateRanges(ctx context.Context, testDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.recalculateRanges(testDir)
	return err
}

func (s *processingService) Aggregate(ctx context.Context, testDir string, mode models.Mode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, _, err := s.aggregate(testDir, mode)
	return path, err
}

func (s *processingService) ComputeMargins(ctx context.Context, testDir string) ([]models.MarginResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	margins, _, err := s.computeMargins(testDir)
	return margins, err
}

func (s *processingService) Diff(ctx context.Context, testDir, aggregatedFile, modeLabel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir, _, err := s.diff(testDir, aggregatedFile, modeLabel)
	return dir, err
}

// Run extracts a dump and processes every test directory through the whole
// chain. Cancellation is honoured between test directories only; those not
// started are counted in Skipped and ctx.Err() is returned with the report.
func (s *processingService) Run(ctx context.Context, dumpPath, outputRoot string) (*models.RunReport, error) {
	dirs, err := s.ExtractSections(ctx, dumpPath, outputRoot)
	if err != nil {
		return nil, err
	}

	reports := make([]*models.TestReport, len(dirs))
	var g errgroup.Group
	g.SetLimit(s.workers)
	skipped := 0
	for i, dir := range dirs {
		if ctx.Err() != nil {
			skipped++
			continue
		}
		i, dir := i, dir
		g.Go(func() error {
			reports[i] = s.processTest(dir)
			return nil
		})
	}
	_ = g.Wait()

	report := &models.RunReport{
		DumpPath:   dumpPath,
		OutputRoot: outputRoot,
		Skipped:    skipped,
	}
	for _, r := range reports {
		if r != nil {
			report.Tests = append(report.Tests, *r)
		}
	}
	if skipped > 0 {
		log.Warn().Str("dump", dumpPath).Int("skipped", skipped).Msg("Run cancelled before all tests were processed")
		return report, ctx.Err()
	}
	return report, nil
}

// processTest runs reconstruct, ranges, margins and each aggregate with its
// diffs over one test directory.
func (s *processingService) processTest(testDir string) *models.TestReport {
	report := &models.TestReport{
		Test:       filepath.Base(testDir),
		Dir:        testDir,
		Aggregates: make(map[models.Mode]string),
		DiffDirs:   make(map[models.Mode]string),
	}
	logger := log.With().Str("test", report.Test).Logger()
	fail := func(stage string, err error) {
		report.Diagnostics = append(report.Diagnostics, models.Diagnostic{
			File:    testDir,
			Stage:   stage,
			Kind:    shmoo.Kind(err),
			Message: err.Error(),
		})
		logger.Error().Err(err).Str("stage", stage).Msg("Stage failed")
	}

	files, err := LogFiles(testDir)
	if err != nil {
		fail(StageReconstruct, err)
		return report
	}
	report.Files = len(files)

	diags, err := s.reconstructRows(testDir)
	report.Diagnostics = append(report.Diagnostics, diags...)
	if err != nil {
		fail(StageReconstruct, err)
		return report
	}

	diags, err = s.recalculateRanges(testDir)
	report.Diagnostics = append(report.Diagnostics, diags...)
	if err != nil {
		fail(StageRanges, err)
		return report
	}

	margins, diags, err := s.computeMargins(testDir)
	report.Diagnostics = append(report.Diagnostics, diags...)
	if err != nil {
		fail(StageMargins, err)
	}
	report.Margins = margins

	for _, mode := range models.Modes {
		path, diags, err := s.aggregate(testDir, mode)
		report.Diagnostics = append(report.Diagnostics, diags...)
		if err != nil {
			fail(StageAggregate, err)
			continue
		}
		report.Aggregates[mode] = path

		dir, diags, err := s.diff(testDir, path, mode.DiffLabel())
		report.Diagnostics = append(report.Diagnostics, diags...)
		if err != nil {
			fail(StageDiff, err)
			continue
		}
		report.DiffDirs[mode] = dir
	}

	logger.Info().
		Int("files", report.Files).
		Int("margins", len(report.Margins)).
		Int("diagnostics", len(report.Diagnostics)).
		Msg("Test processed")
	return report
}

// skip records a per-file failure and returns its diagnostic
func (s *processingService) skip(stage, file string, err error) models.Diagnostic {
	s.metrics.FileFailed(stage, err)
	log.Warn().Err(err).Str("stage", stage).Str("file", filepath.Base(file)).Msg("Skipping file")
	return models.Diagnostic{
		File:    filepath.Base(file),
		Stage:   stage,
		Kind:    shmoo.Kind(err),
		Message: err.Error(),
	}
}

func (s *processingService) reconstructRows(testDir string) ([]models.Diagnostic, error) {
	defer s.metrics.ObserveStage(StageReconstruct, time.Now())

	files, err := LogFiles(testDir)
	if err != nil {
		return nil, err
	}
	var diags []models.Diagnostic
	for _, f := range files {
		if err := s.reconstructFile(f); err != nil {
			diags = append(diags, s.skip(StageReconstruct, f, err))
			continue
		}
		s.metrics.FileProcessed(StageReconstruct)
	}
	return diags, nil
}

func (s *processingService) reconstructFile(path string) error {
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	y, err := s.engine.ParseYAxis(lines)
	if err != nil {
		return err
	}
	out, err := s.engine.Reconstruct(lines, y)
	if err != nil {
		return err
	}
	return writeLines(path, out)
}

func (s *processingService) recalculateRanges(testDir string) ([]models.Diagnostic, error) {
	defer s.metrics.ObserveStage(StageRanges, time.Now())

	files, err := LogFiles(testDir)
	if err != nil {
		return nil, err
	}
	var diags []models.Diagnostic
	for _, f := range files {
		lines, err := readLines(f)
		if err == nil {
			err = writeLines(f, s.engine.RecalculateRanges(lines))
		}
		if err != nil {
			diags = append(diags, s.skip(StageRanges, f, err))
			continue
		}
		s.metrics.FileProcessed(StageRanges)
	}
	return diags, nil
}

func (s *processingService) parseFile(path string) (*models.ShmooGrid, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	return s.engine.ParseGrid(filepath.Base(path), lines)
}

func (s *processingService) aggregate(testDir string, mode models.Mode) (string, []models.Diagnostic, error) {
	defer s.metrics.ObserveStage(StageAggregate, time.Now())

	files, err := LogFiles(testDir)
	if err != nil {
		return "", nil, err
	}
	var diags []models.Diagnostic
	var grids []*models.ShmooGrid
	for _, f := range files {
		g, err := s.parseFile(f)
		if err == nil && len(grids) > 0 && !grids[0].SameKeys(g) {
			err = fmt.Errorf("%w: %s has %d rows, %s has %d",
				shmoo.ErrInconsistentKeySet, g.Source, len(g.Rows), grids[0].Source, len(grids[0].Rows))
		}
		if err != nil {
			diags = append(diags, s.skip(StageAggregate, f, err))
			continue
		}
		grids = append(grids, g)
	}
	if len(grids) == 0 {
		return "", diags, fmt.Errorf("aggregate %s: no parsable site files in %s", mode, testDir)
	}

	agg, err := shmoo.Aggregate(grids, mode)
	if err != nil {
		return "", diags, err
	}
	out := AggregatePath(testDir, mode)
	if err := writeLines(out, shmoo.FormatGrid(agg)); err != nil {
		return "", diags, fmt.Errorf("write aggregate: %w", err)
	}
	s.metrics.FileProcessed(StageAggregate)
	log.Debug().Str("file", out).Str("mode", string(mode)).Int("sites", len(grids)).Msg("Aggregate written")
	return out, diags, nil
}

func (s *processingService) computeMargins(testDir string) ([]models.MarginResult, []models.Diagnostic, error) {
	defer s.metrics.ObserveStage(StageMargins, time.Now())

	files, err := LogFiles(testDir)
	if err != nil {
		return nil, nil, err
	}
	var diags []models.Diagnostic
	var results []models.MarginResult
	for _, f := range files {
		r, err := s.marginsOf(f)
		if err != nil {
			diags = append(diags, s.skip(StageMargins, f, err))
			continue
		}
		results = append(results, r)
		s.metrics.FileProcessed(StageMargins)
	}
	return results, diags, nil
}

func (s *processingService) marginsOf(path string) (models.MarginResult, error) {
	lines, err := readLines(path)
	if err != nil {
		return models.MarginResult{}, err
	}
	axes, err := s.engine.ParseAxes(lines)
	if err != nil {
		return models.MarginResult{}, err
	}
	grid, err := s.engine.ParseGrid(filepath.Base(path), lines)
	if err != nil {
		return models.MarginResult{}, err
	}
	return s.engine.Margins(axes, grid)
}

func (s *processingService) diff(testDir, aggregatedFile, modeLabel string) (string, []models.Diagnostic, error) {
	defer s.metrics.ObserveStage(StageDiff, time.Now())

	agg, err := s.parseFile(aggregatedFile)
	if err != nil {
		return "", nil, fmt.Errorf("parse aggregate: %w", err)
	}
	files, err := LogFiles(testDir)
	if err != nil {
		return "", nil, err
	}
	outDir := DiffDir(testDir, modeLabel)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create diff directory: %w", err)
	}

	var diags []models.Diagnostic
	for _, f := range files {
		if err := s.diffFile(agg, f, outDir); err != nil {
			diags = append(diags, s.skip(StageDiff, f, err))
			continue
		}
		s.metrics.FileProcessed(StageDiff)
	}
	return outDir, diags, nil
}

func (s *processingService) diffFile(agg *models.ShmooGrid, path, outDir string) error {
	site, err := s.parseFile(path)
	if err != nil {
		return err
	}
	d, err := shmoo.Diff(agg, site)
	if err != nil {
		return err
	}
	return writeLines(filepath.Join(outDir, filepath.Base(path)), shmoo.FormatDiff(d))
}
