package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/RMahshie/shmoo/internal/repository"
	"github.com/RMahshie/shmoo/pkg/models"
)

// RunRepository keeps runs in process memory. It is used when no database
// is configured; contents are lost on restart.
type RunRepository struct {
	mu      sync.RWMutex
	runs    map[string]*models.Run
	margins map[string][]models.TestMargins
}

// NewRunRepository creates an empty in-memory run repository
func NewRunRepository() repository.RunRepository {
	return &RunRepository{
		runs:    make(map[string]*models.Run),
		margins: make(map[string][]models.TestMargins),
	}
}

func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id.String()]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *run
	return &out, nil
}

func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runs := make([]*models.Run, 0, len(r.runs))
	for _, run := range r.runs {
		out := *run
		runs = append(runs, &out)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (r *RunRepository) update(id uuid.UUID, fn func(*models.Run)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id.String()]
	if !ok {
		return repository.ErrNotFound
	}
	fn(run)
	run.UpdatedAt = time.Now()
	return nil
}

func (r *RunRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	return r.update(id, func(run *models.Run) {
		run.Status = status
		run.Progress = progress
	})
}

func (r *RunRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.update(id, func(run *models.Run) {
		now := time.Now()
		run.Status = models.StatusFailed
		run.ErrorMsg = &errorMsg
		run.CompletedAt = &now
	})
}

func (r *RunRepository) Complete(ctx context.Context, id uuid.UUID, reportPath string) error {
	return r.update(id, func(run *models.Run) {
		now := time.Now()
		run.Status = models.StatusCompleted
		run.Progress = 100
		run.CompletedAt = &now
		if reportPath != "" {
			run.ReportPath = &reportPath
		}
	})
}

// StoreMargins replaces the margins of a run; tests without margins are dropped
func (r *RunRepository) StoreMargins(ctx context.Context, id uuid.UUID, tests []models.TestMargins) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[id.String()]; !ok {
		return repository.ErrNotFound
	}
	var kept []models.TestMargins
	for _, t := range tests {
		if len(t.Margins) == 0 {
			continue
		}
		margins := append([]models.MarginResult(nil), t.Margins...)
		sort.Slice(margins, func(i, j int) bool { return margins[i].File < margins[j].File })
		kept = append(kept, models.TestMargins{Test: t.Test, Margins: margins})
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Test < kept[j].Test })
	r.margins[id.String()] = kept
	return nil
}

func (r *RunRepository) GetMargins(ctx context.Context, id uuid.UUID) ([]models.TestMargins, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.runs[id.String()]; !ok {
		return nil, repository.ErrNotFound
	}
	return r.margins[id.String()], nil
}
