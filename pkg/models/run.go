package models

import (
	"time"
)

// Run status values
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Run represents one processing run of a log dump (for internal use)
type Run struct {
	ID          string     `json:"id"`
	DumpPath    string     `json:"dump_path"`
	OutputRoot  string     `json:"output_root"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	ReportPath  *string    `json:"report_path,omitempty"`
	ErrorMsg    *string    `json:"error_message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Diagnostic records a per-file failure that did not stop the batch
type Diagnostic struct {
	File    string `json:"file" doc:"File the failure belongs to"`
	Stage   string `json:"stage" doc:"Pipeline stage"`
	Kind    string `json:"kind" doc:"Error kind"`
	Message string `json:"message" doc:"Error message"`
}

// TestReport summarises the processing of one test directory
type TestReport struct {
	Test        string          `json:"test" doc:"Sanitized test title"`
	Dir         string          `json:"dir" doc:"Test directory"`
	Files       int             `json:"files" doc:"Number of site files"`
	Margins     []MarginResult  `json:"margins" doc:"Margins per site file"`
	Aggregates  map[Mode]string `json:"aggregates" doc:"Aggregated file per mode"`
	DiffDirs    map[Mode]string `json:"diff_dirs" doc:"Diff directory per mode"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty" doc:"Per-file failures"`
}

// RunReport is the outcome of processing a whole dump
type RunReport struct {
	DumpPath   string       `json:"dump_path"`
	OutputRoot string       `json:"output_root"`
	Tests      []TestReport `json:"tests"`
	Skipped    int          `json:"skipped" doc:"Test directories not started because the run was cancelled"`
}

// Diagnostics returns every diagnostic across all tests
func (r *RunReport) Diagnostics() []Diagnostic {
	var all []Diagnostic
	for _, t := range r.Tests {
		all = append(all, t.Diagnostics...)
	}
	return all
}

// TestMargins groups stored margins by test
type TestMargins struct {
	Test    string         `json:"test" doc:"Test title"`
	Margins []MarginResult `json:"margins" doc:"Margins per site file"`
}

// CreateRunRequest represents a request to process a dump
type CreateRunRequest struct {
	Body struct {
		DumpPath   string `json:"dump_path" minLength:"1" required:"true" doc:"Path of the log dump on the server"`
		OutputRoot string `json:"output_root,omitempty" doc:"Relative subdirectory of the configured plots dir for per-test output"`
	}
}

// RunBody is the public view of a run
type RunBody struct {
	ID          string     `json:"id" doc:"Run unique identifier"`
	DumpPath    string     `json:"dump_path" doc:"Processed dump"`
	Status      string     `json:"status" enum:"pending,processing,completed,failed" doc:"Run status"`
	Progress    int        `json:"progress" minimum:"0" maximum:"100" doc:"Progress percentage"`
	Message     string     `json:"message,omitempty" doc:"Human-readable status message"`
	ReportPath  *string    `json:"report_path,omitempty" doc:"Margin workbook once completed"`
	Error       *string    `json:"error,omitempty" doc:"Failure reason"`
	CreatedAt   time.Time  `json:"created_at" doc:"Run creation timestamp"`
	CompletedAt *time.Time `json:"completed_at,omitempty" doc:"Run completion timestamp"`
}

// CreateRunResponse represents the response from starting a run
type CreateRunResponse struct {
	Body RunBody
}

// GetRunRequest represents a request for a single run
type GetRunRequest struct {
	ID string `path:"id" doc:"Run ID"`
}

// GetRunResponse represents the current state of a run
type GetRunResponse struct {
	Body RunBody
}

// ListRunsRequest represents a request for recent runs
type ListRunsRequest struct {
	Limit int `query:"limit" default:"20" minimum:"1" maximum:"200" doc:"Maximum number of runs"`
}

// ListRunsResponse lists recent runs
type ListRunsResponse struct {
	Body struct {
		Runs []RunBody `json:"runs" doc:"Runs, newest first"`
	}
}

// GetMarginsRequest represents a request for a run's margins
type GetMarginsRequest struct {
	ID string `path:"id" doc:"Run ID"`
}

// GetMarginsResponse lists margins per test
type GetMarginsResponse struct {
	Body struct {
		ID    string        `json:"id" doc:"Run ID"`
		Tests []TestMargins `json:"tests" doc:"Margins grouped by test"`
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}
