package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RMahshie/shmoo/internal/api/handlers"
	"github.com/RMahshie/shmoo/internal/processing"
	"github.com/RMahshie/shmoo/internal/repository"
	"github.com/RMahshie/shmoo/pkg/models"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, runRepo repository.RunRepository, runner processing.RunProcessor, plotsDir string) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service",
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		resp := &models.HealthResponse{}
		resp.Body.Status = "healthy"
		resp.Body.Version = Version
		resp.Body.Time = time.Now()
		return resp, nil
	})

	runHandler := handlers.NewRunHandler(runRepo, runner, plotsDir)

	huma.Register(api, huma.Operation{
		OperationID:   "createRun",
		Method:        http.MethodPost,
		Path:          "/api/runs",
		Summary:       "Start a run",
		Description:   "Records a run for a dump on the server and processes it in the background",
		Tags:          []string{"Runs"},
		DefaultStatus: http.StatusAccepted,
	}, runHandler.CreateRun)

	huma.Register(api, huma.Operation{
		OperationID: "listRuns",
		Method:      http.MethodGet,
		Path:        "/api/runs",
		Summary:     "List runs",
		Description: "Returns the most recent runs, newest first",
		Tags:        []string{"Runs"},
	}, runHandler.ListRuns)

	huma.Register(api, huma.Operation{
		OperationID: "getRun",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}",
		Summary:     "Get run status",
		Description: "Returns the current status and progress of a run",
		Tags:        []string{"Runs"},
	}, runHandler.GetRun)

	huma.Register(api, huma.Operation{
		OperationID: "getRunMargins",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}/margins",
		Summary:     "Get run margins",
		Description: "Returns the operating centres and margins of every site file, grouped by test",
		Tags:        []string{"Runs"},
	}, runHandler.GetMargins)
}
