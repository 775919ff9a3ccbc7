package processing

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/shmoo/internal/report"
	"github.com/RMahshie/shmoo/internal/repository"
	"github.com/RMahshie/shmoo/internal/section"
	"github.com/RMahshie/shmoo/internal/storage"
	"github.com/RMahshie/shmoo/pkg/models"
)

// RunProcessor drives a stored run through the pipeline and records its
// progress and outcome
type RunProcessor interface {
	ProcessRun(ctx context.Context, runID uuid.UUID) error
}

type runProcessor struct {
	service    ProcessingService
	repository repository.RunRepository
	reportDir  string
	archiver   storage.Archiver
	metrics    *Metrics
}

// NewRunProcessor creates a run processor. archiver and metrics may be nil.
func NewRunProcessor(service ProcessingService, repo repository.RunRepository, reportDir string, archiver storage.Archiver, metrics *Metrics) RunProcessor {
	return &runProcessor{
		service:    service,
		repository: repo,
		reportDir:  reportDir,
		archiver:   archiver,
		metrics:    metrics,
	}
}

// ProcessRun returns an error only when the run's state could not be
// recorded; pipeline failures mark the run failed instead.
func (p *runProcessor) ProcessRun(ctx context.Context, runID uuid.UUID) error {
	// Step 1: Update to processing status
	if err := p.repository.UpdateStatus(ctx, runID, models.StatusProcessing, 10); err != nil {
		return err
	}

	// Step 2: Get run details
	run, err := p.repository.GetByID(ctx, runID)
	if err != nil {
		return err
	}
	logger := log.With().Str("run_id", run.ID).Str("dump", run.DumpPath).Logger()

	// Step 3: Extract and process every test directory
	rep, err := p.service.Run(ctx, run.DumpPath, run.OutputRoot)
	if err != nil {
		logger.Error().Err(err).Msg("Run failed")
		return p.fail(runID, fmt.Sprintf("Processing failed: %v", err))
	}
	if err := p.repository.UpdateStatus(ctx, runID, models.StatusProcessing, 70); err != nil {
		return err
	}

	// Step 4: Store margins
	tests := make([]models.TestMargins, 0, len(rep.Tests))
	for _, t := range rep.Tests {
		tests = append(tests, models.TestMargins{Test: t.Test, Margins: t.Margins})
	}
	if err := p.repository.StoreMargins(ctx, runID, tests); err != nil {
		logger.Error().Err(err).Msg("Failed to store margins")
		return p.fail(runID, "Failed to store margins")
	}

	// Step 5: Write the margin workbook
	reportPath := filepath.Join(p.reportDir, run.ID+".xlsx")
	if err := report.WriteMargins(reportPath, rep); err != nil {
		logger.Error().Err(err).Msg("Failed to write report")
		return p.fail(runID, "Failed to write report")
	}
	if err := p.repository.UpdateStatus(ctx, runID, models.StatusProcessing, 90); err != nil {
		return err
	}

	// Step 6: Archive the plot tree; a failed archive does not fail the run
	if p.archiver != nil {
		base := section.DumpBase(run.DumpPath)
		loc, err := p.archiver.Archive(ctx, filepath.Join(run.OutputRoot, base), base)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to archive plots")
		} else {
			logger.Info().Str("archive", loc).Msg("Archived plots")
		}
	}

	// Step 7: Mark as completed
	if err := p.repository.Complete(ctx, runID, reportPath); err != nil {
		return err
	}
	p.metrics.RunFinished(models.StatusCompleted)
	logger.Info().
		Int("tests", len(rep.Tests)).
		Int("diagnostics", len(rep.Diagnostics())).
		Msg("Run completed")
	return nil
}

// fail marks the run failed. It uses a fresh context so a cancelled run
// still records why it stopped.
func (p *runProcessor) fail(runID uuid.UUID, msg string) error {
	p.metrics.RunFinished(models.StatusFailed)
	return p.repository.UpdateError(context.Background(), runID, msg)
}
