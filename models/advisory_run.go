package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the status of an advisory run
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// RunStep represents a step in the advisory process
type RunStep struct {
	Name        string `json:"name"`
	Status      string `json:"status"` // "pending", "in_progress", "completed", "failed"
	Description string `json:"description,omitempty"`
}

// AdvisoryRun represents one advisory generation run. All intermediate
// state of a run lives here; nothing is shared across runs.
type AdvisoryRun struct {
	ID               uuid.UUID         `json:"id"`
	IntakeID         uuid.UUID         `json:"intake_id"`
	Status           RunStatus         `json:"status"`
	CurrentStep      *string           `json:"current_step,omitempty"`
	Steps            []RunStep         `json:"steps"`
	Record           *CaseRecord       `json:"record,omitempty"`
	IngestionSummary IngestionSummary  `json:"ingestion_summary"`
	StageOutputs     []StageOutput     `json:"stage_outputs,omitempty"`
	Memo             *AdviceMemo       `json:"memo,omitempty"`
	Timestamp        string            `json:"timestamp,omitempty"`
	ExportPaths      map[string]string `json:"export_paths,omitempty"`
	ErrorMessage     *string           `json:"error_message,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}
