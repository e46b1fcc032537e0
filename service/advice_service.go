package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"juridisch-advies-backend/export"
	"juridisch-advies-backend/extract"
	"juridisch-advies-backend/generative"
	"juridisch-advies-backend/ingest"
	"juridisch-advies-backend/logger"
	"juridisch-advies-backend/metrics"
	"juridisch-advies-backend/models"
	"juridisch-advies-backend/pipeline"
	"juridisch-advies-backend/repository"
	"juridisch-advies-backend/storage"
)

var (
	ErrRunNotFound         = errors.New("advisory run not found")
	ErrRunCreationFailed   = errors.New("failed to create advisory run")
	ErrRunNotCompleted     = errors.New("advisory run not completed")
	ErrMissingRequiredData = errors.New("intake is missing required case data")
)

// AdviceService drives an advisory run end to end: document ingestion,
// field extraction, the staged analysis and the final memo. Every run
// keeps its own state in the run record; the service itself holds only
// configuration and dependencies.
type AdviceService struct {
	intakeRepo      *repository.IntakeRepository
	docRepo         *repository.DocumentRepository
	runRepo         *repository.RunRepository
	store           storage.Storage
	gen             generative.Service
	rasterizer      ingest.Rasterizer
	policy          pipeline.FailurePolicy
	parallel        bool
	describeVisuals bool
	log             logger.Logger
}

// AdviceOption configures the advice service
type AdviceOption func(*AdviceService)

// AdviceWithIntakeRepository sets the intake repository
func AdviceWithIntakeRepository(repo *repository.IntakeRepository) AdviceOption {
	return func(s *AdviceService) {
		s.intakeRepo = repo
	}
}

// AdviceWithDocumentRepository sets the document repository
func AdviceWithDocumentRepository(repo *repository.DocumentRepository) AdviceOption {
	return func(s *AdviceService) {
		s.docRepo = repo
	}
}

// AdviceWithRunRepository sets the run repository
func AdviceWithRunRepository(repo *repository.RunRepository) AdviceOption {
	return func(s *AdviceService) {
		s.runRepo = repo
	}
}

// AdviceWithStorage sets the document storage backend
func AdviceWithStorage(store storage.Storage) AdviceOption {
	return func(s *AdviceService) {
		s.store = store
	}
}

// AdviceWithGenerativeService sets the generative backend
func AdviceWithGenerativeService(gen generative.Service) AdviceOption {
	return func(s *AdviceService) {
		s.gen = gen
	}
}

// AdviceWithRasterizer sets the page rasterizer used during ingestion
func AdviceWithRasterizer(rasterizer ingest.Rasterizer) AdviceOption {
	return func(s *AdviceService) {
		s.rasterizer = rasterizer
	}
}

// AdviceWithFailurePolicy sets how failed stages appear in later prompts
func AdviceWithFailurePolicy(policy pipeline.FailurePolicy) AdviceOption {
	return func(s *AdviceService) {
		s.policy = policy
	}
}

// AdviceWithParallelStages runs independent analysis stages concurrently
func AdviceWithParallelStages() AdviceOption {
	return func(s *AdviceService) {
		s.parallel = true
	}
}

// AdviceWithDescribeVisuals toggles visual descriptions during ingestion
func AdviceWithDescribeVisuals(describe bool) AdviceOption {
	return func(s *AdviceService) {
		s.describeVisuals = describe
	}
}

// AdviceWithLogger sets the logger
func AdviceWithLogger(log logger.Logger) AdviceOption {
	return func(s *AdviceService) {
		s.log = log
	}
}

// NewAdviceService creates a new advice service
func NewAdviceService(opts ...AdviceOption) *AdviceService {
	s := &AdviceService{
		describeVisuals: true,
		log:             logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartRunRequest identifies the intake to analyze
type StartRunRequest struct {
	IntakeID uuid.UUID
}

// StartRunResult contains the created run
type StartRunResult struct {
	RunID  uuid.UUID
	Status models.RunStatus
}

// StartRun validates the intake and creates a pending advisory run.
// This should return quickly; ProcessRun does the actual work.
func (s *AdviceService) StartRun(ctx context.Context, req StartRunRequest) (*StartRunResult, error) {
	if s.intakeRepo == nil || s.runRepo == nil {
		return nil, fmt.Errorf("%w: repositories not configured", ErrRunCreationFailed)
	}
	if s.gen == nil {
		return nil, fmt.Errorf("%w: generative service not configured", ErrRunCreationFailed)
	}

	// 1. The intake must exist
	intake, err := s.intakeRepo.GetByID(ctx, req.IntakeID)
	if err != nil {
		return nil, ErrIntakeNotFound
	}

	// 2. Without documents the form alone must carry the required
	//    fields, since nothing later can supply them
	if len(intake.DocumentIDs) == 0 {
		if _, err := models.NewCaseRecord(intake.Form, nil, ""); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingRequiredData, err)
		}
	}

	// 3. Create the run with its step plan
	run := &models.AdvisoryRun{
		IntakeID: intake.ID,
		Status:   models.RunStatusPending,
		Steps:    buildSteps(len(intake.DocumentIDs) > 0),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRunCreationFailed, err)
	}

	s.log.Info("advisory run created", map[string]interface{}{
		"run_id":    run.ID.String(),
		"intake_id": intake.ID.String(),
		"documents": len(intake.DocumentIDs),
	})

	return &StartRunResult{RunID: run.ID, Status: run.Status}, nil
}

// GetRun retrieves the current state of a run
func (s *AdviceService) GetRun(ctx context.Context, runID uuid.UUID) (*models.AdvisoryRun, error) {
	if s.runRepo == nil {
		return nil, ErrRunNotFound
	}
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// GetRunForIntake retrieves the most recent run for an intake
func (s *AdviceService) GetRunForIntake(ctx context.Context, intakeID uuid.UUID) (*models.AdvisoryRun, error) {
	if s.runRepo == nil {
		return nil, ErrRunNotFound
	}
	run, err := s.runRepo.GetByIntakeID(ctx, intakeID)
	if err != nil {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// ExportRun renders a completed run as an export record.
func (s *AdviceService) ExportRun(ctx context.Context, runID uuid.UUID) (export.Record, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return export.Record{}, err
	}
	if run.Status != models.RunStatusCompleted {
		return export.Record{}, fmt.Errorf("%w: status is %s", ErrRunNotCompleted, run.Status)
	}
	rec, err := export.NewRecord(run)
	if err != nil {
		return export.Record{}, fmt.Errorf("%w: %v", ErrRunNotCompleted, err)
	}
	return rec, nil
}

// ProcessRun executes an advisory run. It is meant to be called in a
// goroutine after StartRun; progress lands on the run record so clients
// can poll it.
func (s *AdviceService) ProcessRun(ctx context.Context, runID uuid.UUID) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	intake, err := s.intakeRepo.GetByID(ctx, run.IntakeID)
	if err != nil {
		s.markRunFailed(ctx, runID, "intake niet gevonden")
		return ErrIntakeNotFound
	}

	if err := s.runRepo.UpdateStatus(ctx, runID, models.RunStatusInProgress); err != nil {
		s.markRunFailed(ctx, runID, err.Error())
		return err
	}

	// 1. Ingest the uploaded documents into one blob
	var blob models.IngestionBlob
	if len(intake.DocumentIDs) > 0 {
		s.updateStep(ctx, runID, stepDocumentProcessing, "in_progress")
		ingestor := ingest.NewIngestor(s.gen, s.rasterizer, s.log)
		blob = ingestor.Ingest(ctx, s.loadFiles(ctx, intake.DocumentIDs), s.describeVisuals)
		s.updateStep(ctx, runID, stepDocumentProcessing, "completed")
	}

	// 2. Derive form defaults from the extracted content
	defaults := models.CaseDefaults{}
	if !blob.Empty() {
		s.updateStep(ctx, runID, stepFieldExtraction, "in_progress")
		defaults = extract.NewExtractor(s.gen, s.log).Extract(ctx, blob)
		s.updateStep(ctx, runID, stepFieldExtraction, "completed")
	}

	// 3. Assemble the case record. A record that still misses required
	//    fields fails the run before any analysis starts.
	s.updateStep(ctx, runID, stepCaseRecord, "in_progress")
	rec, err := models.NewCaseRecord(intake.Form, defaults, blob.Text())
	if err != nil {
		s.updateStep(ctx, runID, stepCaseRecord, "failed")
		s.markRunFailed(ctx, runID, err.Error())
		return fmt.Errorf("%w: %v", ErrMissingRequiredData, err)
	}
	if err := s.runRepo.SetRecord(ctx, runID, rec, blob.Summary()); err != nil {
		s.log.Warn("failed to persist case record", map[string]interface{}{
			"run_id": runID.String(),
			"error":  err.Error(),
		})
	}
	s.updateStep(ctx, runID, stepCaseRecord, "completed")

	// 4. Run the analysis stages
	opts := []pipeline.RunnerOption{
		pipeline.WithFailurePolicy(s.policy),
		pipeline.WithStageObserver(func(stage models.StageID, name string) {
			s.updateStep(ctx, runID, stepForStage(stage), "in_progress")
		}),
		pipeline.WithStageCompleted(func(out models.StageOutput) {
			if err := s.runRepo.AddStageOutput(ctx, runID, out); err != nil {
				s.log.Warn("failed to persist stage output", map[string]interface{}{
					"run_id": runID.String(),
					"stage":  string(out.Stage),
					"error":  err.Error(),
				})
			}
			s.updateStep(ctx, runID, stepForStage(out.Stage), stepStatus(out.Result))
		}),
	}
	if s.parallel {
		opts = append(opts, pipeline.WithParallelIndependents())
	}
	runner, err := pipeline.NewRunner(s.gen, s.log, opts...)
	if err != nil {
		s.markRunFailed(ctx, runID, err.Error())
		return err
	}
	outputs := runner.Run(ctx, rec)

	// 5. Compose the final advice memo
	s.updateStep(ctx, runID, stepFinalAdvice, "in_progress")
	composer := pipeline.NewComposer(s.gen, s.log, pipeline.ComposerWithFailurePolicy(s.policy))
	memo, memoOut := composer.Compose(ctx, rec, outputs, time.Now().Format("02/01/2006"))
	if err := s.runRepo.AddStageOutput(ctx, runID, memoOut); err != nil {
		s.log.Warn("failed to persist memo output", map[string]interface{}{
			"run_id": runID.String(),
			"error":  err.Error(),
		})
	}
	if err := s.runRepo.SetMemo(ctx, runID, memo, time.Now().Format("20060102_150405")); err != nil {
		s.log.Warn("failed to persist memo", map[string]interface{}{
			"run_id": runID.String(),
			"error":  err.Error(),
		})
	}
	s.updateStep(ctx, runID, stepFinalAdvice, stepStatus(memoOut.Result))

	// 6. Mark the run completed
	if err := s.runRepo.Complete(ctx, runID); err != nil {
		s.markRunFailed(ctx, runID, err.Error())
		return err
	}
	metrics.AdvisoryRunsTotal.WithLabelValues("completed").Inc()

	// 7. Archive both export renderings. Failures here leave the run
	//    completed; downloads render from the run itself.
	s.persistExports(ctx, runID)

	s.log.Info("advisory run completed", map[string]interface{}{
		"run_id":    runID.String(),
		"intake_id": intake.ID.String(),
	})
	return nil
}

// persistExports writes the text and JSON renderings of a completed run
// to storage and records their paths on the run.
func (s *AdviceService) persistExports(ctx context.Context, runID uuid.UUID) {
	if s.store == nil {
		return
	}
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return
	}
	record, err := export.NewRecord(run)
	if err != nil {
		s.log.Warn("failed to build export record", map[string]interface{}{
			"run_id": runID.String(),
			"error":  err.Error(),
		})
		return
	}

	paths := make(map[string]string, 2)
	txtPath, err := s.store.Upload(ctx, runID, record.TextFilename(), strings.NewReader(record.PlainText()))
	if err != nil {
		s.log.Warn("failed to archive advice text", map[string]interface{}{
			"run_id": runID.String(),
			"error":  err.Error(),
		})
	} else {
		paths["txt"] = txtPath
	}
	jsonData, err := record.JSON()
	if err != nil {
		s.log.Warn("failed to render analysis JSON", map[string]interface{}{
			"run_id": runID.String(),
			"error":  err.Error(),
		})
	} else {
		jsonPath, uploadErr := s.store.Upload(ctx, runID, record.JSONFilename(), bytes.NewReader(jsonData))
		if uploadErr != nil {
			s.log.Warn("failed to archive analysis JSON", map[string]interface{}{
				"run_id": runID.String(),
				"error":  uploadErr.Error(),
			})
		} else {
			paths["json"] = jsonPath
		}
	}
	if len(paths) == 0 {
		return
	}
	if err := s.runRepo.SetExportPaths(ctx, runID, paths); err != nil {
		s.log.Warn("failed to record export paths", map[string]interface{}{
			"run_id": runID.String(),
			"error":  err.Error(),
		})
	}
}

const (
	stepDocumentProcessing = "document_processing"
	stepFieldExtraction    = "field_extraction"
	stepCaseRecord         = "case_record"
	stepFinalAdvice        = "final_advice"
)

// buildSteps lays out the step plan clients poll against. The document
// steps exist only when the intake has documents.
func buildSteps(hasDocuments bool) []models.RunStep {
	var steps []models.RunStep
	if hasDocuments {
		steps = append(steps,
			models.RunStep{Name: stepDocumentProcessing, Status: "pending", Description: "Documenten verwerken en inhoud extraheren"},
			models.RunStep{Name: stepFieldExtraction, Status: "pending", Description: "Casusvelden afleiden uit documenten"},
		)
	}
	steps = append(steps, models.RunStep{Name: stepCaseRecord, Status: "pending", Description: "Casusdossier samenstellen"})
	for _, spec := range pipeline.DefaultGraph() {
		steps = append(steps, models.RunStep{
			Name:        stepForStage(spec.ID),
			Status:      "pending",
			Description: spec.Name,
		})
	}
	steps = append(steps, models.RunStep{Name: stepFinalAdvice, Status: "pending", Description: "Definitief advies opstellen"})
	return steps
}

func stepForStage(stage models.StageID) string {
	if stage == models.StageMemo {
		return stepFinalAdvice
	}
	return "agent_" + string(stage)
}

func stepStatus(res generative.Result) string {
	if res.Ok() {
		return "completed"
	}
	return "failed"
}

// loadFiles reads every document's bytes in upload order. A document
// that cannot be read keeps its slot and surfaces inside the blob as a
// failed unit.
func (s *AdviceService) loadFiles(ctx context.Context, docIDs []uuid.UUID) []ingest.UploadedFile {
	files := make([]ingest.UploadedFile, 0, len(docIDs))
	for _, docID := range docIDs {
		doc, err := s.docRepo.GetByID(ctx, docID)
		if err != nil {
			files = append(files, ingest.UploadedFile{Name: docID.String(), Err: err})
			continue
		}
		data, err := s.readDocument(ctx, doc)
		if err != nil {
			files = append(files, ingest.UploadedFile{Name: doc.Filename, Err: err})
			continue
		}
		files = append(files, ingest.UploadedFile{Name: doc.Filename, Data: data})
	}
	return files
}

func (s *AdviceService) readDocument(ctx context.Context, doc *models.Document) ([]byte, error) {
	reader, err := s.store.Download(ctx, doc.StoragePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// updateStep records a step transition. Step bookkeeping never aborts a
// run; a failed update is only logged.
func (s *AdviceService) updateStep(ctx context.Context, runID uuid.UUID, stepName, status string) {
	if err := s.runRepo.UpdateStep(ctx, runID, stepName, status); err != nil {
		s.log.Warn("failed to update run step", map[string]interface{}{
			"run_id": runID.String(),
			"step":   stepName,
			"error":  err.Error(),
		})
	}
}

// markRunFailed marks a run as failed with an error message
func (s *AdviceService) markRunFailed(ctx context.Context, runID uuid.UUID, errorMessage string) {
	if err := s.runRepo.Fail(ctx, runID, errorMessage); err != nil {
		s.log.Error("failed to mark run as failed", map[string]interface{}{
			"run_id": runID.String(),
			"error":  err.Error(),
		})
	}
	metrics.AdvisoryRunsTotal.WithLabelValues("failed").Inc()
}
