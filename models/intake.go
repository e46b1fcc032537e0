package models

import (
	"time"

	"github.com/google/uuid"
)

// Intake represents one submitted case intake: the form as entered plus
// the documents attached to it. Runs start from an intake.
type Intake struct {
	ID          uuid.UUID   `json:"id"`
	Form        CaseForm    `json:"form"`
	DocumentIDs []uuid.UUID `json:"document_ids,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
