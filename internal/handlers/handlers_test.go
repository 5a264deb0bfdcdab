package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"alfredoptarigan/resume-ingestor/internal/models"
	"alfredoptarigan/resume-ingestor/internal/repositories"
	"alfredoptarigan/resume-ingestor/internal/services"
)

type fakePipeline struct {
	result *services.IngestionResult
	err    error
	docs   []services.Document
}

func (f *fakePipeline) Submit(_ context.Context, doc services.Document) (*services.IngestionResult, error) {
	f.docs = append(f.docs, doc)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeExtractor struct {
	profile *models.Profile
	err     error
	calls   int
}

func (f *fakeExtractor) ExtractProfile(context.Context, string) (*models.Profile, error) {
	f.calls++
	return f.profile, f.err
}

type fakeCatalog struct {
	records []models.CandidateRecord
	err     error
}

func (f *fakeCatalog) ListAll(context.Context) ([]models.CandidateRecord, error) {
	return f.records, f.err
}

func (f *fakeCatalog) Get(_ context.Context, fileName string) (*models.CandidateRecord, error) {
	if strings.Contains(fileName, "..") {
		return nil, &services.ValidationError{Message: "bad name"}
	}
	for _, r := range f.records {
		if r.FileName == services.ParsedPrefix+fileName {
			return &r, nil
		}
	}
	return nil, &services.StorageError{Op: "get", Cause: services.ErrObjectNotFound}
}

func multipartRequest(t *testing.T, field, filename, contentType string, body []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploadpdf", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func newUploadApp(pipeline services.IngestionPipeline) *fiber.App {
	app := fiber.New()
	app.Post("/uploadpdf", NewUploadHandler(pipeline, 1024, arbor.NewLogger()).HandleUpload)
	return app
}

func TestUploadHandler(t *testing.T) {
	newResult := &services.IngestionResult{
		RawKey:    "abc.pdf",
		ParsedKey: "parsed/jane_q_doe-abcdef12.txt",
		Bucket:    "user-resumes-bucket",
		Uploaded:  true,
	}

	tests := []struct {
		name        string
		pipeline    *fakePipeline
		field       string
		contentType string
		body        []byte
		wantStatus  int
		wantError   string
		wantSubmits int
	}{
		{
			name:        "new document",
			pipeline:    &fakePipeline{result: newResult},
			field:       "file",
			contentType: "application/pdf",
			body:        []byte("%PDF-1.4"),
			wantStatus:  fiber.StatusOK,
			wantSubmits: 1,
		},
		{
			name:        "no file",
			pipeline:    &fakePipeline{result: newResult},
			wantStatus:  fiber.StatusBadRequest,
			wantError:   "No file uploaded",
			wantSubmits: 0,
		},
		{
			name:        "wrong field name",
			pipeline:    &fakePipeline{result: newResult},
			field:       "resume",
			contentType: "application/pdf",
			body:        []byte("%PDF-1.4"),
			wantStatus:  fiber.StatusBadRequest,
			wantError:   "No file uploaded",
		},
		{
			name:        "text file rejected before processing",
			pipeline:    &fakePipeline{result: newResult},
			field:       "file",
			contentType: "text/plain",
			body:        []byte("hello"),
			wantStatus:  fiber.StatusBadRequest,
			wantError:   "Only PDF files are allowed",
		},
		{
			name:        "too large",
			pipeline:    &fakePipeline{result: newResult},
			field:       "file",
			contentType: "application/pdf",
			body:        bytes.Repeat([]byte("a"), 2048),
			wantStatus:  fiber.StatusBadRequest,
		},
		{
			name:        "pipeline failure is generic",
			pipeline:    &fakePipeline{err: &services.PipelineError{Stage: services.StageExtractText, Err: errors.New("secret detail")}},
			field:       "file",
			contentType: "application/pdf",
			body:        []byte("%PDF-1.4"),
			wantStatus:  fiber.StatusInternalServerError,
			wantError:   "Failed to process resume",
			wantSubmits: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newUploadApp(tt.pipeline)

			resp, err := app.Test(multipartRequest(t, tt.field, "resume.pdf", tt.contentType, tt.body), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Len(t, tt.pipeline.docs, tt.wantSubmits)

			if tt.wantError != "" {
				var body map[string]string
				decodeBody(t, resp, &body)
				assert.Equal(t, tt.wantError, body["error"])
				assert.NotContains(t, body["error"], "secret")
			}
		})
	}
}

func TestUploadHandler_ResponseShape(t *testing.T) {
	pipeline := &fakePipeline{result: &services.IngestionResult{
		RawKey:    "abc.pdf",
		ParsedKey: "parsed/jane_q_doe-abcdef12.txt",
		Bucket:    "user-resumes-bucket",
		Uploaded:  false,
	}}
	app := newUploadApp(pipeline)

	resp, err := app.Test(multipartRequest(t, "file", "cv.pdf", "application/pdf", []byte("%PDF-1.4")), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body models.UploadResponse
	decodeBody(t, resp, &body)
	assert.False(t, body.Uploaded)
	assert.Equal(t, "File already exists", body.Message)
	assert.Equal(t, "abc.pdf", body.FileName)
	assert.Equal(t, "user-resumes-bucket", body.Bucket)
	assert.Equal(t, "parsed/jane_q_doe-abcdef12.txt", body.TxtFileName)

	require.Len(t, pipeline.docs, 1)
	assert.Equal(t, "cv.pdf", pipeline.docs[0].Filename)
	assert.Equal(t, "application/pdf", pipeline.docs[0].MediaType)
}

func TestParseHandler(t *testing.T) {
	profile := &models.Profile{Name: "Jane Q. Doe", Email: "jane@example.com", Skills: []string{}}

	tests := []struct {
		name       string
		extractor  *fakeExtractor
		body       string
		wantStatus int
		wantCalls  int
	}{
		{"ok", &fakeExtractor{profile: profile}, `{"rawpdf": "Jane Q. Doe jane@example.com"}`, fiber.StatusOK, 1},
		{"missing rawpdf", &fakeExtractor{profile: profile}, `{}`, fiber.StatusBadRequest, 0},
		{"blank rawpdf", &fakeExtractor{profile: profile}, `{"rawpdf": "   "}`, fiber.StatusBadRequest, 0},
		{"malformed json", &fakeExtractor{profile: profile}, `{"rawpdf":`, fiber.StatusBadRequest, 0},
		{"extraction failure", &fakeExtractor{err: &services.ValidationError{Message: "bad email"}}, `{"rawpdf": "text"}`, fiber.StatusInternalServerError, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/parseresume", NewParseHandler(tt.extractor, arbor.NewLogger()).HandleParseResume)

			req := httptest.NewRequest(http.MethodPost, "/parseresume", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, tt.extractor.calls)

			if tt.wantStatus == fiber.StatusOK {
				var got models.Profile
				decodeBody(t, resp, &got)
				assert.Equal(t, "jane@example.com", got.Email)
			}
		})
	}
}

func newCandidateApp(catalog services.CandidateCatalog, index services.CandidateIndex) *fiber.App {
	h := NewCandidateHandler(catalog, index, arbor.NewLogger())
	app := fiber.New()
	app.Get("/candidates/all", h.HandleListAll)
	app.Get("/candidates/search", h.HandleSearch)
	app.Get("/candidates/:fileName", h.HandleGetCandidate)
	return app
}

func TestCandidateHandler_ListAll(t *testing.T) {
	catalog := &fakeCatalog{records: []models.CandidateRecord{
		{Name: "jane_q_doe", FileName: "parsed/jane_q_doe-1a2b3c4d.txt", Content: "name: Jane Q. Doe\n"},
		{Name: "broken", FileName: "parsed/broken-00000000.txt", Error: "failed to fetch content"},
	}}
	app := newCandidateApp(catalog, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/candidates/all", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got []models.CandidateRecord
	decodeBody(t, resp, &got)
	assert.Equal(t, catalog.records, got)
}

func TestCandidateHandler_ListAllFailure(t *testing.T) {
	app := newCandidateApp(&fakeCatalog{err: errors.New("list failed")}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/candidates/all", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestCandidateHandler_Get(t *testing.T) {
	catalog := &fakeCatalog{records: []models.CandidateRecord{
		{Name: "jane_q_doe", FileName: "parsed/jane_q_doe-1a2b3c4d.txt", Content: "name: Jane"},
	}}
	app := newCandidateApp(catalog, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/candidates/jane_q_doe-1a2b3c4d.txt", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/candidates/nobody-00000000.txt", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

type fakeIndex struct {
	hits  []models.CandidateSearchHit
	query string
	limit int
}

func (f *fakeIndex) InitCollection(context.Context) error { return nil }

func (f *fakeIndex) IndexProfile(context.Context, services.IndexJob) error { return nil }

func (f *fakeIndex) SearchCandidates(_ context.Context, query string, limit int) ([]models.CandidateSearchHit, error) {
	f.query, f.limit = query, limit
	return f.hits, nil
}

func TestCandidateHandler_Search(t *testing.T) {
	index := &fakeIndex{hits: []models.CandidateSearchHit{{Name: "jane_q_doe", Score: 0.9}}}
	app := newCandidateApp(&fakeCatalog{}, index)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/candidates/search?q=golang+engineer&limit=5", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "golang engineer", index.query)
	assert.Equal(t, 5, index.limit)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/candidates/search", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	disabled := newCandidateApp(&fakeCatalog{}, nil)
	resp, err = disabled.Test(httptest.NewRequest(http.MethodGet, "/candidates/search?q=go", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotImplemented, resp.StatusCode)
}

type fakeIngestionRepo struct {
	records []models.IngestionRecord
}

func (f *fakeIngestionRepo) Create(*models.IngestionRecord) error { return nil }

func (f *fakeIngestionRepo) Update(*models.IngestionRecord) error { return nil }

func (f *fakeIngestionRepo) FindLatestByHash(hash string) (*models.IngestionRecord, error) {
	for _, r := range f.records {
		if r.ContentHash == hash {
			return &r, nil
		}
	}
	return nil, repositories.ErrIngestionNotFound
}

func (f *fakeIngestionRepo) FindRecent(limit int) ([]models.IngestionRecord, error) {
	return f.records[:min(limit, len(f.records))], nil
}

func TestIngestionHandler(t *testing.T) {
	known := services.ContentHash([]byte("%PDF-1.4 known"))
	repo := &fakeIngestionRepo{records: []models.IngestionRecord{
		{ContentHash: known, Status: models.IngestionStatusDone, ParsedKey: "parsed/jane-00000000.txt"},
	}}

	h := NewIngestionHandler(repo)
	app := fiber.New()
	app.Get("/ingestions", h.HandleListRecent)
	app.Get("/ingestions/:hash", h.HandleGetIngestion)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"known hash", "/ingestions/" + known, fiber.StatusOK},
		{"unknown hash", "/ingestions/" + strings.Repeat("0", 64), fiber.StatusNotFound},
		{"malformed hash", "/ingestions/not-a-hash", fiber.StatusBadRequest},
		{"recent", "/ingestions?limit=5", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestIngestionHandler_HidesInternalErrorText(t *testing.T) {
	failed := services.ContentHash([]byte("%PDF-1.4 failed"))
	repo := &fakeIngestionRepo{records: []models.IngestionRecord{{
		ContentHash:  failed,
		Status:       models.IngestionStatusFailed,
		FailedStage:  string(services.StagePersistRaw),
		ErrorMessage: "put gs://user-resumes-bucket/abc.pdf: googleapi: Error 403: svc-acct@proj.iam.gserviceaccount.com denied",
	}}}

	h := NewIngestionHandler(repo)
	app := fiber.New()
	app.Get("/ingestions", h.HandleListRecent)
	app.Get("/ingestions/:hash", h.HandleGetIngestion)

	for _, path := range []string{"/ingestions/" + failed, "/ingestions"} {
		t.Run(path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.NotContains(t, string(body), "error_message")
			assert.NotContains(t, string(body), "gs://")
			assert.NotContains(t, string(body), "googleapi")
			assert.Contains(t, string(body), `"failed_stage":"persist_raw"`)
		})
	}
}
