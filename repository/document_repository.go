package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"juridisch-advies-backend/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a stored record does not exist.
var ErrNotFound = errors.New("record not found")

// DocumentRepository stores document records in memory, in upload order.
type DocumentRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*models.Document
	order []uuid.UUID
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{byID: make(map[uuid.UUID]*models.Document)}
}

// Create creates a new document record
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.CreatedAt = time.Now()

	stored := *doc
	r.byID[doc.ID] = &stored
	r.order = append(r.order, doc.ID)
	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

// ListByIntakeID retrieves all documents attached to an intake, oldest
// first so ingestion keeps the upload order.
func (r *DocumentRepository) ListByIntakeID(ctx context.Context, intakeID uuid.UUID) ([]*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var docs []*models.Document
	for _, id := range r.order {
		doc := r.byID[id]
		if doc.IntakeID != nil && *doc.IntakeID == intakeID {
			copied := *doc
			docs = append(docs, &copied)
		}
	}
	return docs, nil
}

// AttachIntake links an uploaded document to an intake
func (r *DocumentRepository) AttachIntake(ctx context.Context, id, intakeID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	attached := intakeID
	doc.IntakeID = &attached
	return nil
}

// Delete deletes a document record
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	for i, stored := range r.order {
		if stored == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
