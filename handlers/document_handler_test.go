package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadDocument_AcceptsSupportedTypes(t *testing.T) {
	fx := newHandlerFixture(t)

	body, contentType := multipartFile(t, "file", "contract.pdf", "pdf inhoud")
	w := perform(fx.router, http.MethodPost, "/api/documents", body, contentType)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	require.True(t, resp.Success)

	var doc struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		MimeType string `json:"mime_type"`
		Size     int64  `json:"size"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &doc))
	_, err := uuid.Parse(doc.ID)
	assert.NoError(t, err)
	assert.Equal(t, "contract.pdf", doc.Filename)
	// Multipart parts arrive as octet-stream; the extension decides
	assert.Equal(t, "application/pdf", doc.MimeType)
	assert.Equal(t, int64(len("pdf inhoud")), doc.Size)
}

func TestUploadDocument_MissingFile(t *testing.T) {
	fx := newHandlerFixture(t)
	w := perform(fx.router, http.MethodPost, "/api/documents", nil, "multipart/form-data")
	requireErrorCode(t, w, http.StatusBadRequest, "MISSING_FILE")
}

func TestUploadDocument_RejectsUnsupportedType(t *testing.T) {
	fx := newHandlerFixture(t)
	body, contentType := multipartFile(t, "file", "notities.docx", "tekst")
	w := perform(fx.router, http.MethodPost, "/api/documents", body, contentType)
	requireErrorCode(t, w, http.StatusBadRequest, "INVALID_FILE_TYPE")
}

func TestUploadDocument_RejectsOversizedFile(t *testing.T) {
	fx := newHandlerFixtureWithMax(t, 8)
	body, contentType := multipartFile(t, "file", "groot.pdf", "meer dan acht bytes")
	w := perform(fx.router, http.MethodPost, "/api/documents", body, contentType)
	requireErrorCode(t, w, http.StatusBadRequest, "FILE_TOO_LARGE")
}

func TestGetDocument_DownloadRoundTrip(t *testing.T) {
	fx := newHandlerFixture(t)
	docID := uploadDocument(t, fx, "bewijs.png", "pngbytes")

	w := perform(fx.router, http.MethodGet, "/api/documents/"+docID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pngbytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bewijs.png")
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestGetDocument_Errors(t *testing.T) {
	fx := newHandlerFixture(t)

	w := perform(fx.router, http.MethodGet, "/api/documents/geen-uuid", nil, "")
	requireErrorCode(t, w, http.StatusBadRequest, "INVALID_ID")

	w = perform(fx.router, http.MethodGet, "/api/documents/"+uuid.NewString(), nil, "")
	requireErrorCode(t, w, http.StatusNotFound, "NOT_FOUND")
}

func TestMimeTypeForFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"contract.pdf", "application/pdf"},
		{"FOTO.PNG", "image/png"},
		{"scan.jpg", "image/jpeg"},
		{"scan.jpeg", "image/jpeg"},
		{"schade.webp", "image/webp"},
		{"notities.txt", "application/octet-stream"},
		{"zonder-extensie", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, mimeTypeForFilename(tt.filename))
		})
	}
}
