package repository

import (
	"context"
	"errors"

	"github.com/RMahshie/shmoo/pkg/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("run not found")

// RunRepository defines the interface for run data operations
type RunRepository interface {
	Create(ctx context.Context, run *models.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error)
	List(ctx context.Context, limit int) ([]*models.Run, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
	Complete(ctx context.Context, id uuid.UUID, reportPath string) error
	StoreMargins(ctx context.Context, id uuid.UUID, tests []models.TestMargins) error
	GetMargins(ctx context.Context, id uuid.UUID) ([]models.TestMargins, error)
}
