package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"juridisch-advies-backend/generative"
	"juridisch-advies-backend/logger"
	"juridisch-advies-backend/models"
	"juridisch-advies-backend/repository"
	"juridisch-advies-backend/service"
	"juridisch-advies-backend/storage"
)

type stubGenerative struct {
	completeFn func(req generative.CompletionRequest) generative.Result
	describeFn func(req generative.VisualRequest) generative.Result
}

func (s *stubGenerative) Complete(ctx context.Context, req generative.CompletionRequest) generative.Result {
	if s.completeFn == nil {
		return generative.OK("grondige analyse")
	}
	return s.completeFn(req)
}

func (s *stubGenerative) DescribeVisual(ctx context.Context, req generative.VisualRequest) generative.Result {
	if s.describeFn == nil {
		return generative.OK("TEKST:\ndocumentinhoud")
	}
	return s.describeFn(req)
}

type handlerFixture struct {
	router  *gin.Engine
	runRepo *repository.RunRepository
	gen     *stubGenerative
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	return newHandlerFixtureWithMax(t, 0)
}

func newHandlerFixtureWithMax(t *testing.T, maxFileSize int64) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	intakeRepo := repository.NewIntakeRepository()
	docRepo := repository.NewDocumentRepository()
	runRepo := repository.NewRunRepository()
	gen := &stubGenerative{}

	intakeSvc := service.NewIntakeService(
		service.IntakeWithIntakeRepository(intakeRepo),
		service.IntakeWithDocumentRepository(docRepo),
		service.IntakeWithStorage(store),
		service.IntakeWithLogger(logger.NewTestLogger(t)),
	)
	adviceSvc := service.NewAdviceService(
		service.AdviceWithIntakeRepository(intakeRepo),
		service.AdviceWithDocumentRepository(docRepo),
		service.AdviceWithRunRepository(runRepo),
		service.AdviceWithStorage(store),
		service.AdviceWithGenerativeService(gen),
		// The advisory pipeline runs on a goroutine that can outlive the
		// test body, so its logger must not be bound to t.
		service.AdviceWithLogger(logger.NewNoOpLogger()),
	)

	documentHandler := NewDocumentHandler(intakeSvc, maxFileSize)
	intakeHandler := NewIntakeHandler(intakeSvc)
	advisoryHandler := NewAdvisoryHandler(adviceSvc)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/documents", documentHandler.UploadDocument)
	api.GET("/documents/:id", documentHandler.GetDocument)
	api.POST("/intakes", intakeHandler.CreateIntake)
	api.GET("/intakes/:id", intakeHandler.GetIntake)
	api.POST("/intakes/:id/advise", advisoryHandler.StartAdvisory)
	api.GET("/runs/:id", advisoryHandler.GetRun)
	api.GET("/runs/:id/export", advisoryHandler.ExportRun)

	return &handlerFixture{router: r, runRepo: runRepo, gen: gen}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func perform(router http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func requireErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, "unexpected status, body: %s", w.Body.String())
	resp := decodeResponse(t, w)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code)
}

func multipartFile(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// uploadDocument uploads one file through the API and returns its ID.
func uploadDocument(t *testing.T, fx *handlerFixture, filename, content string) string {
	t.Helper()
	body, contentType := multipartFile(t, "file", filename, content)
	w := perform(fx.router, http.MethodPost, "/api/documents", body, contentType)
	require.Equal(t, http.StatusCreated, w.Code, "upload failed: %s", w.Body.String())

	var doc struct {
		ID string `json:"id"`
	}
	resp := decodeResponse(t, w)
	require.NoError(t, json.Unmarshal(resp.Data, &doc))
	return doc.ID
}

// createIntake posts the built-in example case plus document IDs and
// returns the intake ID.
func createIntake(t *testing.T, fx *handlerFixture, docIDs ...string) string {
	t.Helper()
	form := models.ExampleCase()
	payload := map[string]interface{}{
		"client_naam":           form.ClientName,
		"client_rol":            form.ClientRole,
		"tegenpartij_naam":      form.CounterpartyName,
		"tegenpartij_rol":       form.CounterpartyRole,
		"situatie_samenvatting": form.SituationSummary,
		"doel_client":           form.ClientObjective,
		"vorderingen":           form.Claims,
		"feitenrelaas":          form.Facts,
		"bewijsstukken":         form.Evidence,
		"document_ids":          docIDs,
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	w := perform(fx.router, http.MethodPost, "/api/intakes", bytes.NewReader(data), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, "create intake failed: %s", w.Body.String())

	var intake struct {
		ID string `json:"id"`
	}
	resp := decodeResponse(t, w)
	require.NoError(t, json.Unmarshal(resp.Data, &intake))
	return intake.ID
}
