package repository

import (
	"context"
	"sync"
	"time"

	"juridisch-advies-backend/models"

	"github.com/google/uuid"
)

// IntakeRepository stores case intakes in memory.
type IntakeRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*models.Intake
	order []uuid.UUID
}

// NewIntakeRepository creates a new intake repository
func NewIntakeRepository() *IntakeRepository {
	return &IntakeRepository{byID: make(map[uuid.UUID]*models.Intake)}
}

// Create creates a new intake
func (r *IntakeRepository) Create(ctx context.Context, intake *models.Intake) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if intake.ID == uuid.Nil {
		intake.ID = uuid.New()
	}
	now := time.Now()
	intake.CreatedAt = now
	intake.UpdatedAt = now

	stored := cloneIntake(intake)
	r.byID[intake.ID] = stored
	r.order = append(r.order, intake.ID)
	return nil
}

// GetByID retrieves an intake by ID
func (r *IntakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Intake, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	intake, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneIntake(intake), nil
}

// List retrieves all intakes, newest first
func (r *IntakeRepository) List(ctx context.Context) ([]*models.Intake, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	intakes := make([]*models.Intake, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		intakes = append(intakes, cloneIntake(r.byID[r.order[i]]))
	}
	return intakes, nil
}

func cloneIntake(intake *models.Intake) *models.Intake {
	copied := *intake
	copied.DocumentIDs = append([]uuid.UUID(nil), intake.DocumentIDs...)
	copied.Form.Claims = append([]string(nil), intake.Form.Claims...)
	copied.Form.Evidence = append([]string(nil), intake.Form.Evidence...)
	return &copied
}
