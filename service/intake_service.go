package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"juridisch-advies-backend/logger"
	"juridisch-advies-backend/models"
	"juridisch-advies-backend/repository"
	"juridisch-advies-backend/storage"
)

var (
	ErrIntakeNotFound       = errors.New("intake not found")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrDocumentUploadFailed = errors.New("failed to upload document")
	ErrIntakeCreationFailed = errors.New("failed to create intake")
)

// IntakeService manages case intakes and their uploaded documents.
type IntakeService struct {
	intakeRepo *repository.IntakeRepository
	docRepo    *repository.DocumentRepository
	store      storage.Storage
	log        logger.Logger
}

// IntakeOption configures the intake service
type IntakeOption func(*IntakeService)

// IntakeWithIntakeRepository sets the intake repository
func IntakeWithIntakeRepository(repo *repository.IntakeRepository) IntakeOption {
	return func(s *IntakeService) {
		s.intakeRepo = repo
	}
}

// IntakeWithDocumentRepository sets the document repository
func IntakeWithDocumentRepository(repo *repository.DocumentRepository) IntakeOption {
	return func(s *IntakeService) {
		s.docRepo = repo
	}
}

// IntakeWithStorage sets the document storage backend
func IntakeWithStorage(store storage.Storage) IntakeOption {
	return func(s *IntakeService) {
		s.store = store
	}
}

// IntakeWithLogger sets the logger
func IntakeWithLogger(log logger.Logger) IntakeOption {
	return func(s *IntakeService) {
		s.log = log
	}
}

// NewIntakeService creates a new intake service
func NewIntakeService(opts ...IntakeOption) *IntakeService {
	s := &IntakeService{
		log: logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadDocumentRequest contains one file to store
type UploadDocumentRequest struct {
	Filename string
	MimeType string
	Size     int64
	Data     io.Reader
}

// UploadDocumentResult contains the stored document record
type UploadDocumentResult struct {
	Document *models.Document
}

// UploadDocument stores the file bytes and records the document. When
// recording fails the stored object is removed again.
func (s *IntakeService) UploadDocument(ctx context.Context, req UploadDocumentRequest) (*UploadDocumentResult, error) {
	if s.docRepo == nil {
		return nil, fmt.Errorf("%w: document repository not configured", ErrDocumentUploadFailed)
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: storage not configured", ErrDocumentUploadFailed)
	}

	docID := uuid.New()
	storagePath, err := s.store.Upload(ctx, docID, req.Filename, req.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentUploadFailed, err)
	}

	doc := &models.Document{
		ID:          docID,
		Filename:    req.Filename,
		MimeType:    req.MimeType,
		Size:        req.Size,
		StoragePath: storagePath,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		if delErr := s.store.Delete(ctx, storagePath); delErr != nil {
			s.log.Warn("failed to clean up stored file", map[string]interface{}{
				"path":  storagePath,
				"error": delErr.Error(),
			})
		}
		return nil, fmt.Errorf("%w: %v", ErrDocumentUploadFailed, err)
	}

	s.log.Info("document uploaded", map[string]interface{}{
		"document_id": doc.ID.String(),
		"filename":    doc.Filename,
		"size":        doc.Size,
	})

	return &UploadDocumentResult{Document: doc}, nil
}

// CreateIntakeRequest contains the case form and previously uploaded
// document IDs in upload order
type CreateIntakeRequest struct {
	Form        models.CaseForm
	DocumentIDs []uuid.UUID
}

// CreateIntakeResult contains the created intake
type CreateIntakeResult struct {
	Intake *models.Intake
}

// CreateIntake records a case form together with its documents.
func (s *IntakeService) CreateIntake(ctx context.Context, req CreateIntakeRequest) (*CreateIntakeResult, error) {
	if s.intakeRepo == nil {
		return nil, fmt.Errorf("%w: intake repository not configured", ErrIntakeCreationFailed)
	}

	// 1. Every referenced document must exist before the intake does
	for _, docID := range req.DocumentIDs {
		if s.docRepo == nil {
			return nil, fmt.Errorf("%w: document repository not configured", ErrIntakeCreationFailed)
		}
		if _, err := s.docRepo.GetByID(ctx, docID); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID.String())
		}
	}

	// 2. Create the intake
	intake := &models.Intake{
		Form:        req.Form,
		DocumentIDs: req.DocumentIDs,
	}
	if err := s.intakeRepo.Create(ctx, intake); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntakeCreationFailed, err)
	}

	// 3. Bind the documents to this intake
	for _, docID := range req.DocumentIDs {
		if err := s.docRepo.AttachIntake(ctx, docID, intake.ID); err != nil {
			s.log.Warn("failed to attach document to intake", map[string]interface{}{
				"intake_id":   intake.ID.String(),
				"document_id": docID.String(),
				"error":       err.Error(),
			})
		}
	}

	s.log.Info("intake created", map[string]interface{}{
		"intake_id": intake.ID.String(),
		"documents": len(req.DocumentIDs),
	})

	return &CreateIntakeResult{Intake: intake}, nil
}

// GetIntake retrieves an intake by ID
func (s *IntakeService) GetIntake(ctx context.Context, id uuid.UUID) (*models.Intake, error) {
	if s.intakeRepo == nil {
		return nil, ErrIntakeNotFound
	}
	intake, err := s.intakeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrIntakeNotFound
	}
	return intake, nil
}

// GetDocument retrieves a document record by ID
func (s *IntakeService) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	if s.docRepo == nil {
		return nil, ErrDocumentNotFound
	}
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// OpenDocument retrieves a document record and a reader over its stored
// bytes. The caller closes the reader.
func (s *IntakeService) OpenDocument(ctx context.Context, id uuid.UUID) (*models.Document, io.ReadCloser, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s.store == nil {
		return nil, nil, fmt.Errorf("%w: storage not configured", ErrDocumentNotFound)
	}
	reader, err := s.store.Download(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDocumentNotFound, err)
	}
	return doc, reader, nil
}
