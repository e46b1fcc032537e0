package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"juridisch-advies-backend/generative"
	"juridisch-advies-backend/logger"
	"juridisch-advies-backend/models"
	"juridisch-advies-backend/repository"
	"juridisch-advies-backend/storage"
)

type stubGenerative struct {
	mu         sync.Mutex
	completeFn func(req generative.CompletionRequest) generative.Result
	describeFn func(req generative.VisualRequest) generative.Result
	completes  int
	describes  int
}

func (s *stubGenerative) Complete(ctx context.Context, req generative.CompletionRequest) generative.Result {
	s.mu.Lock()
	s.completes++
	fn := s.completeFn
	s.mu.Unlock()
	if fn == nil {
		return generative.OK("grondige analyse")
	}
	return fn(req)
}

func (s *stubGenerative) DescribeVisual(ctx context.Context, req generative.VisualRequest) generative.Result {
	s.mu.Lock()
	s.describes++
	fn := s.describeFn
	s.mu.Unlock()
	if fn == nil {
		return generative.Fail("geen visuele analyse in deze test")
	}
	return fn(req)
}

func (s *stubGenerative) completeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completes
}

type adviceFixture struct {
	svc       *AdviceService
	intakeSvc *IntakeService
	runRepo   *repository.RunRepository
	store     storage.Storage
	gen       *stubGenerative
}

func newAdviceFixture(t *testing.T, opts ...AdviceOption) *adviceFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	intakeRepo := repository.NewIntakeRepository()
	docRepo := repository.NewDocumentRepository()
	runRepo := repository.NewRunRepository()
	gen := &stubGenerative{}

	base := []AdviceOption{
		AdviceWithIntakeRepository(intakeRepo),
		AdviceWithDocumentRepository(docRepo),
		AdviceWithRunRepository(runRepo),
		AdviceWithStorage(store),
		AdviceWithGenerativeService(gen),
		AdviceWithLogger(logger.NewTestLogger(t)),
	}
	svc := NewAdviceService(append(base, opts...)...)

	intakeSvc := NewIntakeService(
		IntakeWithIntakeRepository(intakeRepo),
		IntakeWithDocumentRepository(docRepo),
		IntakeWithStorage(store),
		IntakeWithLogger(logger.NewTestLogger(t)),
	)
	return &adviceFixture{svc: svc, intakeSvc: intakeSvc, runRepo: runRepo, store: store, gen: gen}
}

// createIntake stores the given files and an intake referencing them.
func (fx *adviceFixture) createIntake(t *testing.T, form models.CaseForm, files map[string]string) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	var docIDs []uuid.UUID
	for name, content := range files {
		uploaded, err := fx.intakeSvc.UploadDocument(ctx, UploadDocumentRequest{
			Filename: name,
			Data:     strings.NewReader(content),
		})
		require.NoError(t, err)
		docIDs = append(docIDs, uploaded.Document.ID)
	}

	result, err := fx.intakeSvc.CreateIntake(ctx, CreateIntakeRequest{Form: form, DocumentIDs: docIDs})
	require.NoError(t, err)
	return result.Intake.ID
}

func TestStartRun_UnknownIntake(t *testing.T) {
	fx := newAdviceFixture(t)
	_, err := fx.svc.StartRun(context.Background(), StartRunRequest{IntakeID: uuid.New()})
	assert.ErrorIs(t, err, ErrIntakeNotFound)
}

func TestStartRun_FormOnlyValidatesUpFront(t *testing.T) {
	t.Run("complete form creates a pending run", func(t *testing.T) {
		fx := newAdviceFixture(t)
		intakeID := fx.createIntake(t, models.ExampleCase(), nil)

		result, err := fx.svc.StartRun(context.Background(), StartRunRequest{IntakeID: intakeID})
		require.NoError(t, err)
		assert.Equal(t, models.RunStatusPending, result.Status)

		run, err := fx.runRepo.GetByID(context.Background(), result.RunID)
		require.NoError(t, err)
		var names []string
		for _, step := range run.Steps {
			names = append(names, step.Name)
		}
		assert.Equal(t, []string{"case_record", "agent_1", "agent_2", "agent_3", "agent_4", "final_advice"}, names)
	})

	t.Run("incomplete form is rejected before a run exists", func(t *testing.T) {
		fx := newAdviceFixture(t)
		intakeID := fx.createIntake(t, models.CaseForm{ClientName: "NV TechStart"}, nil)

		_, err := fx.svc.StartRun(context.Background(), StartRunRequest{IntakeID: intakeID})
		assert.ErrorIs(t, err, ErrMissingRequiredData)

		_, err = fx.runRepo.GetByIntakeID(context.Background(), intakeID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestStartRun_DocumentsDeferValidation(t *testing.T) {
	fx := newAdviceFixture(t)
	intakeID := fx.createIntake(t, models.CaseForm{}, map[string]string{"stukken.pdf": "inhoud"})

	result, err := fx.svc.StartRun(context.Background(), StartRunRequest{IntakeID: intakeID})
	require.NoError(t, err)

	run, err := fx.runRepo.GetByID(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Len(t, run.Steps, 8)
	assert.Equal(t, "document_processing", run.Steps[0].Name)
	assert.Equal(t, "field_extraction", run.Steps[1].Name)
}

func TestProcessRun_FormOnlyCompletes(t *testing.T) {
	fx := newAdviceFixture(t)
	ctx := context.Background()
	intakeID := fx.createIntake(t, models.ExampleCase(), nil)
	result, err := fx.svc.StartRun(ctx, StartRunRequest{IntakeID: intakeID})
	require.NoError(t, err)

	require.NoError(t, fx.svc.ProcessRun(ctx, result.RunID))

	run, err := fx.runRepo.GetByID(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.NotNil(t, run.CompletedAt)
	require.NotNil(t, run.Record)
	assert.Equal(t, "NV TechStart", run.Record.ClientName)

	// Four analysis stages plus the memo, in order
	require.Len(t, run.StageOutputs, 5)
	assert.Equal(t, models.StageProClient, run.StageOutputs[0].Stage)
	assert.Equal(t, models.StageIntegration, run.StageOutputs[3].Stage)
	assert.Equal(t, models.StageMemo, run.StageOutputs[4].Stage)

	require.NotNil(t, run.Memo)
	assert.Equal(t, "grondige analyse", run.Memo.Text)
	assert.Regexp(t, `^\d{8}_\d{6}$`, run.Timestamp)

	for _, step := range run.Steps {
		assert.Equal(t, "completed", step.Status, "step %s", step.Name)
	}

	// No documents, so no extraction call: four stages and the composer
	assert.Equal(t, 5, fx.gen.completeCalls())
}

func TestProcessRun_ArchivesExports(t *testing.T) {
	fx := newAdviceFixture(t)
	ctx := context.Background()
	intakeID := fx.createIntake(t, models.ExampleCase(), nil)
	result, err := fx.svc.StartRun(ctx, StartRunRequest{IntakeID: intakeID})
	require.NoError(t, err)

	require.NoError(t, fx.svc.ProcessRun(ctx, result.RunID))

	run, err := fx.runRepo.GetByID(ctx, result.RunID)
	require.NoError(t, err)
	require.Contains(t, run.ExportPaths, "txt")
	require.Contains(t, run.ExportPaths, "json")
	assert.Contains(t, run.ExportPaths["txt"], "juridisch_advies_"+run.Timestamp)
	assert.Contains(t, run.ExportPaths["json"], "complete_analyse_"+run.Timestamp)

	reader, err := fx.store.Download(ctx, run.ExportPaths["txt"])
	require.NoError(t, err)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "JURIDISCH ADVIES\n"))
	assert.Contains(t, string(body), "grondige analyse")
}

func TestProcessRun_ParallelStagesComplete(t *testing.T) {
	fx := newAdviceFixture(t, AdviceWithParallelStages())
	ctx := context.Background()
	intakeID := fx.createIntake(t, models.ExampleCase(), nil)
	result, err := fx.svc.StartRun(ctx, StartRunRequest{IntakeID: intakeID})
	require.NoError(t, err)

	require.NoError(t, fx.svc.ProcessRun(ctx, result.RunID))

	run, err := fx.runRepo.GetByID(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Len(t, run.StageOutputs, 5)
}

func TestProcessRun_MissingFieldsFailBeforeAnalysis(t *testing.T) {
	fx := newAdviceFixture(t)
	fx.gen.completeFn = func(req generative.CompletionRequest) generative.Result {
		return generative.OK("geen bruikbare velden gevonden")
	}
	ctx := context.Background()

	// The unsupported file yields a failed unit, extraction finds
	// nothing, and the empty form cannot be completed
	intakeID := fx.createIntake(t, models.CaseForm{}, map[string]string{"notities.docx": "tekst"})
	result, err := fx.svc.StartRun(ctx, StartRunRequest{IntakeID: intakeID})
	require.NoError(t, err)

	err = fx.svc.ProcessRun(ctx, result.RunID)
	assert.ErrorIs(t, err, ErrMissingRequiredData)

	run, err := fx.runRepo.GetByID(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.NotNil(t, run.ErrorMessage)
	assert.Empty(t, run.StageOutputs)
	assert.Nil(t, run.Memo)

	for _, step := range run.Steps {
		if step.Name == "case_record" {
			assert.Equal(t, "failed", step.Status)
		}
	}

	// Only the extraction call went out before the run stopped
	assert.Equal(t, 1, fx.gen.completeCalls())
}

func TestProcessRun_DocumentFlow(t *testing.T) {
	fx := newAdviceFixture(t)
	fx.gen.describeFn = func(req generative.VisualRequest) generative.Result {
		return generative.OK("TEKST:\nDe foto toont waterschade aan het plafond.")
	}
	ctx := context.Background()

	intakeID := fx.createIntake(t, models.ExampleCase(), map[string]string{"foto.png": "pngbytes"})
	result, err := fx.svc.StartRun(ctx, StartRunRequest{IntakeID: intakeID})
	require.NoError(t, err)

	require.NoError(t, fx.svc.ProcessRun(ctx, result.RunID))

	run, err := fx.runRepo.GetByID(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.IngestionSummary.TotalUnits)
	assert.Equal(t, 0, run.IngestionSummary.FailedUnits)

	require.NotNil(t, run.Record)
	assert.Contains(t, run.Record.Facts, "waterschade aan het plafond")

	// Extraction, four stages and the composer
	assert.Equal(t, 6, fx.gen.completeCalls())
	assert.Equal(t, 1, fx.gen.describes)
}

func TestExportRun(t *testing.T) {
	fx := newAdviceFixture(t)
	ctx := context.Background()

	t.Run("unknown run", func(t *testing.T) {
		_, err := fx.svc.ExportRun(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrRunNotFound)
	})

	intakeID := fx.createIntake(t, models.ExampleCase(), nil)
	result, err := fx.svc.StartRun(ctx, StartRunRequest{IntakeID: intakeID})
	require.NoError(t, err)

	t.Run("pending run is not exportable", func(t *testing.T) {
		_, err := fx.svc.ExportRun(ctx, result.RunID)
		assert.ErrorIs(t, err, ErrRunNotCompleted)
	})

	t.Run("completed run exports", func(t *testing.T) {
		require.NoError(t, fx.svc.ProcessRun(ctx, result.RunID))

		rec, err := fx.svc.ExportRun(ctx, result.RunID)
		require.NoError(t, err)
		assert.Equal(t, "grondige analyse", rec.FinalAdvice)
		assert.Len(t, rec.AgentOutputs, 4)
		assert.Contains(t, rec.TextFilename(), rec.Timestamp)
	})
}

func TestGetRunForIntake(t *testing.T) {
	fx := newAdviceFixture(t)
	ctx := context.Background()
	intakeID := fx.createIntake(t, models.ExampleCase(), nil)
	result, err := fx.svc.StartRun(ctx, StartRunRequest{IntakeID: intakeID})
	require.NoError(t, err)

	run, err := fx.svc.GetRunForIntake(ctx, intakeID)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, run.ID)

	_, err = fx.svc.GetRunForIntake(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrRunNotFound)
}
