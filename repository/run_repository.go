package repository

import (
	"context"
	"sync"
	"time"

	"juridisch-advies-backend/models"

	"github.com/google/uuid"
)

// RunRepository stores advisory runs in memory. Results are written
// incrementally so pollers see stage outputs as they are produced.
type RunRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*models.AdvisoryRun
	order []uuid.UUID
}

// NewRunRepository creates a new run repository
func NewRunRepository() *RunRepository {
	return &RunRepository{byID: make(map[uuid.UUID]*models.AdvisoryRun)}
}

// Create creates a new advisory run
func (r *RunRepository) Create(ctx context.Context, run *models.AdvisoryRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now

	r.byID[run.ID] = cloneRun(run)
	r.order = append(r.order, run.ID)
	return nil
}

// GetByID retrieves an advisory run by ID
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AdvisoryRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRun(run), nil
}

// GetByIntakeID retrieves the latest advisory run for an intake
func (r *RunRepository) GetByIntakeID(ctx context.Context, intakeID uuid.UUID) (*models.AdvisoryRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		run := r.byID[r.order[i]]
		if run.IntakeID == intakeID {
			return cloneRun(run), nil
		}
	}
	return nil, ErrNotFound
}

// UpdateStatus updates the status of an advisory run
func (r *RunRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RunStatus) error {
	return r.update(id, func(run *models.AdvisoryRun) {
		run.Status = status
	})
}

// UpdateStep sets the status of one named step, marking it the current
// step while it is in progress. The whole update is atomic so stages
// finishing concurrently cannot lose each other's step changes.
func (r *RunRepository) UpdateStep(ctx context.Context, id uuid.UUID, stepName, status string) error {
	return r.update(id, func(run *models.AdvisoryRun) {
		for i := range run.Steps {
			if run.Steps[i].Name == stepName {
				run.Steps[i].Status = status
				break
			}
		}
		if status == "in_progress" {
			step := stepName
			run.CurrentStep = &step
		}
	})
}

// SetRecord stores the merged case record and the ingestion outcome
func (r *RunRepository) SetRecord(ctx context.Context, id uuid.UUID, record models.CaseRecord, summary models.IngestionSummary) error {
	return r.update(id, func(run *models.AdvisoryRun) {
		run.Record = &record
		run.IngestionSummary = summary
	})
}

// AddStageOutput appends one completed stage output to a run
func (r *RunRepository) AddStageOutput(ctx context.Context, id uuid.UUID, out models.StageOutput) error {
	return r.update(id, func(run *models.AdvisoryRun) {
		run.StageOutputs = append(run.StageOutputs, out)
	})
}

// SetMemo stores the final advisory note and the run timestamp
func (r *RunRepository) SetMemo(ctx context.Context, id uuid.UUID, memo models.AdviceMemo, timestamp string) error {
	return r.update(id, func(run *models.AdvisoryRun) {
		run.Memo = &memo
		run.Timestamp = timestamp
	})
}

// SetExportPaths records where the export renderings were stored
func (r *RunRepository) SetExportPaths(ctx context.Context, id uuid.UUID, paths map[string]string) error {
	return r.update(id, func(run *models.AdvisoryRun) {
		run.ExportPaths = clonePaths(paths)
	})
}

// Complete marks an advisory run as completed
func (r *RunRepository) Complete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.update(id, func(run *models.AdvisoryRun) {
		run.Status = models.RunStatusCompleted
		run.CompletedAt = &now
	})
}

// Fail marks an advisory run as failed
func (r *RunRepository) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	return r.update(id, func(run *models.AdvisoryRun) {
		run.Status = models.RunStatusFailed
		msg := errorMessage
		run.ErrorMessage = &msg
	})
}

func (r *RunRepository) update(id uuid.UUID, apply func(*models.AdvisoryRun)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	apply(run)
	run.UpdatedAt = time.Now()
	return nil
}

func cloneRun(run *models.AdvisoryRun) *models.AdvisoryRun {
	copied := *run
	copied.Steps = append([]models.RunStep(nil), run.Steps...)
	copied.StageOutputs = append([]models.StageOutput(nil), run.StageOutputs...)
	copied.IngestionSummary.Units = append([]models.UnitOutcome(nil), run.IngestionSummary.Units...)
	if run.CurrentStep != nil {
		step := *run.CurrentStep
		copied.CurrentStep = &step
	}
	if run.Record != nil {
		rec := *run.Record
		rec.Claims = append([]string(nil), run.Record.Claims...)
		rec.Evidence = append([]string(nil), run.Record.Evidence...)
		copied.Record = &rec
	}
	if run.Memo != nil {
		memo := *run.Memo
		copied.Memo = &memo
	}
	if run.ErrorMessage != nil {
		msg := *run.ErrorMessage
		copied.ErrorMessage = &msg
	}
	if run.CompletedAt != nil {
		at := *run.CompletedAt
		copied.CompletedAt = &at
	}
	copied.ExportPaths = clonePaths(run.ExportPaths)
	return &copied
}

func clonePaths(paths map[string]string) map[string]string {
	if paths == nil {
		return nil
	}
	copied := make(map[string]string, len(paths))
	for k, v := range paths {
		copied[k] = v
	}
	return copied
}
