package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/shmoo/internal/repository"
	"github.com/RMahshie/shmoo/internal/repository/memory"
	"github.com/RMahshie/shmoo/pkg/models"
)

// completingRunner marks every run completed with one test of margins
type completingRunner struct {
	repo repository.RunRepository
	done chan struct{}
}

func (r *completingRunner) ProcessRun(ctx context.Context, id uuid.UUID) error {
	defer close(r.done)
	if err := r.repo.StoreMargins(ctx, id, []models.TestMargins{
		{Test: "Func", Margins: []models.MarginResult{{File: "lot7_Func_site1.log", XMargin: 10, YMargin: 0.04}}},
	}); err != nil {
		return err
	}
	return r.repo.Complete(ctx, id, "/data/reports/"+id.String()+".xlsx")
}

func TestRoutes(t *testing.T) {
	_, api := humatest.New(t)
	repo := memory.NewRunRepository()
	runner := &completingRunner{repo: repo, done: make(chan struct{})}
	RegisterRoutes(api, repo, runner, t.TempDir())

	resp := api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "healthy")

	dump := filepath.Join(t.TempDir(), "lot7.log")
	require.NoError(t, os.WriteFile(dump, []byte("dump\n"), 0o644))

	resp = api.Post("/api/runs", map[string]any{"dump_path": dump})
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())
	var created models.RunBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	select {
	case <-runner.done:
	case <-time.After(5 * time.Second):
		t.Fatal("run was not processed")
	}

	resp = api.Get("/api/runs/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	var run models.RunBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &run))
	assert.Equal(t, models.StatusCompleted, run.Status)
	assert.Equal(t, 100, run.Progress)

	resp = api.Get("/api/runs/" + created.ID + "/margins")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "lot7_Func_site1.log")

	resp = api.Get("/api/runs?limit=10")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), created.ID)

	assert.Equal(t, http.StatusNotFound, api.Get("/api/runs/"+uuid.NewString()).Code)
	assert.Equal(t, http.StatusBadRequest, api.Get("/api/runs/nope").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, api.Post("/api/runs", map[string]any{}).Code)
}
