package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/shmoo/internal/processing"
	"github.com/RMahshie/shmoo/internal/repository"
	"github.com/RMahshie/shmoo/pkg/models"
)

// RunHandler handles run-related HTTP requests
type RunHandler struct {
	repo     repository.RunRepository
	runner   processing.RunProcessor
	plotsDir string
}

// NewRunHandler creates a new run handler. Every run writes under plotsDir.
func NewRunHandler(repo repository.RunRepository, runner processing.RunProcessor, plotsDir string) *RunHandler {
	return &RunHandler{
		repo:     repo,
		runner:   runner,
		plotsDir: plotsDir,
	}
}

// CreateRun records a run for a dump on the server and processes it in the
// background
func (h *RunHandler) CreateRun(ctx context.Context, req *models.CreateRunRequest) (*models.CreateRunResponse, error) {
	log.Info().Str("dump", req.Body.DumpPath).Msg("Creating new run")

	info, err := os.Stat(req.Body.DumpPath)
	if err != nil {
		return nil, huma.Error400BadRequest("Dump not found", err)
	}
	if !info.Mode().IsRegular() {
		return nil, huma.Error400BadRequest("Dump is not a file", fmt.Errorf("%s is a directory", req.Body.DumpPath))
	}

	// Requests may only pick a subdirectory of the plots dir
	outputRoot := h.plotsDir
	if sub := req.Body.OutputRoot; sub != "" {
		if !filepath.IsLocal(sub) {
			return nil, huma.Error400BadRequest("Output root must be a relative path inside the plots directory",
				fmt.Errorf("%s escapes %s", sub, h.plotsDir))
		}
		outputRoot = filepath.Join(h.plotsDir, sub)
	}

	runID := uuid.New()
	now := time.Now()
	run := &models.Run{
		ID:         runID.String(),
		DumpPath:   req.Body.DumpPath,
		OutputRoot: outputRoot,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.repo.Create(ctx, run); err != nil {
		return nil, huma.Error500InternalServerError("Failed to create run", err)
	}

	// Start processing in background (don't wait for completion)
	go func() {
		if err := h.runner.ProcessRun(context.Background(), runID); err != nil {
			log.Error().Err(err).Str("run_id", runID.String()).Msg("Run processing failed")
			h.repo.UpdateError(context.Background(), runID, fmt.Sprintf("Processing failed: %v", err))
		}
	}()

	log.Info().Str("run_id", run.ID).Str("output_root", outputRoot).Msg("Run created, processing started")
	return &models.CreateRunResponse{Body: runBody(run)}, nil
}

// GetRun returns the current state of a run
func (h *RunHandler) GetRun(ctx context.Context, req *models.GetRunRequest) (*models.GetRunResponse, error) {
	run, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &models.GetRunResponse{Body: runBody(run)}, nil
}

// ListRuns returns the most recent runs
func (h *RunHandler) ListRuns(ctx context.Context, req *models.ListRunsRequest) (*models.ListRunsResponse, error) {
	runs, err := h.repo.List(ctx, req.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list runs", err)
	}
	resp := &models.ListRunsResponse{}
	resp.Body.Runs = make([]models.RunBody, 0, len(runs))
	for _, r := range runs {
		resp.Body.Runs = append(resp.Body.Runs, runBody(r))
	}
	return resp, nil
}

// GetMargins returns the margins of a completed run grouped by test
func (h *RunHandler) GetMargins(ctx context.Context, req *models.GetMarginsRequest) (*models.GetMarginsResponse, error) {
	run, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if run.Status != models.StatusCompleted {
		return nil, huma.Error409Conflict("Run not yet completed",
			fmt.Errorf("run status is %s", run.Status))
	}

	tests, err := h.repo.GetMargins(ctx, uuid.MustParse(run.ID))
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get margins", err)
	}

	resp := &models.GetMarginsResponse{}
	resp.Body.ID = run.ID
	resp.Body.Tests = tests
	if resp.Body.Tests == nil {
		resp.Body.Tests = []models.TestMargins{}
	}
	return resp, nil
}

func (h *RunHandler) lookup(ctx context.Context, id string) (*models.Run, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid run ID", err)
	}
	run, err := h.repo.GetByID(ctx, runID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, huma.Error404NotFound("Run not found", err)
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get run", err)
	}
	return run, nil
}

func runBody(run *models.Run) models.RunBody {
	return models.RunBody{
		ID:          run.ID,
		DumpPath:    run.DumpPath,
		Status:      run.Status,
		Progress:    run.Progress,
		Message:     statusMessage(run.Status, run.Progress),
		ReportPath:  run.ReportPath,
		Error:       run.ErrorMsg,
		CreatedAt:   run.CreatedAt,
		CompletedAt: run.CompletedAt,
	}
}

// statusMessage creates a human-readable status message
func statusMessage(status string, progress int) string {
	switch status {
	case models.StatusPending:
		return "Run queued for processing..."
	case models.StatusProcessing:
		if progress < 70 {
			return "Extracting and processing test directories..."
		} else if progress < 90 {
			return "Writing margin report..."
		}
		return "Archiving plots..."
	case models.StatusCompleted:
		return "Run complete!"
	case models.StatusFailed:
		return "Run failed."
	default:
		return "Unknown status"
	}
}
