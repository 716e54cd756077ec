package resumes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/llm"
	"interview-backend/internal/shared/server/middleware"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth("dev"))
	NewHandler(svc, 1<<20).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func multipartBody(t *testing.T, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	_, _ = part.Write(data)
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, r *gin.Engine, userID int64, name, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, name, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resume/upload", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-User-Id", strconv.FormatInt(userID, 10))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestUploadHandlerReturnsResume(t *testing.T) {
	svc, _, user := newTestService(t, &fakeCompleter{reply: janeReply})
	resp := doUpload(t, newTestRouter(svc), user.ID, "cv.txt", "text/plain", []byte("Jane Doe, Python"))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		ID     int64            `json:"id"`
		Resume StructuredResume `json:"resume"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID == 0 || body.Resume.CandidateName != "Jane Doe" {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
	if strings.Contains(resp.Body.String(), "null") {
		t.Fatalf("lists must not be null: %s", resp.Body.String())
	}
}

func TestUploadHandlerErrorCodes(t *testing.T) {
	tests := []struct {
		name      string
		completer *fakeCompleter
		file      string
		mime      string
		status    int
		code      string
	}{
		{name: "unsupported", completer: &fakeCompleter{reply: janeReply}, file: "cv.png", mime: "image/png", status: http.StatusUnsupportedMediaType, code: "unsupported_document"},
		{name: "bad output", completer: &fakeCompleter{reply: "not json"}, file: "cv.txt", mime: "text/plain", status: http.StatusUnprocessableEntity, code: "extraction_failed"},
		{name: "model down", completer: &fakeCompleter{err: &llm.ServiceError{Provider: "openai", Status: 503, Err: errors.New("down")}}, file: "cv.txt", mime: "text/plain", status: http.StatusBadGateway, code: "llm_unavailable"},
		{name: "model timeout", completer: &fakeCompleter{err: &llm.ServiceError{Provider: "openai", Timeout: true, Err: context.DeadlineExceeded}}, file: "cv.txt", mime: "text/plain", status: http.StatusGatewayTimeout, code: "llm_timeout"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc, _, user := newTestService(t, tt.completer)
			resp := doUpload(t, newTestRouter(svc), user.ID, tt.file, tt.mime, []byte("Jane Doe"))
			if resp.Code != tt.status || !strings.Contains(resp.Body.String(), tt.code) {
				t.Fatalf("expected %d %s, got %d: %s", tt.status, tt.code, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestGetResumeOwnerOnly(t *testing.T) {
	svc, _, user := newTestService(t, &fakeCompleter{reply: janeReply})
	rec, err := svc.Save(context.Background(), user.ID, StructuredResume{CandidateName: "Jane Doe"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	r := newTestRouter(svc)

	get := func(userID int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/resume/"+strconv.FormatInt(rec.ID, 10), nil)
		req.Header.Set("X-User-Id", strconv.FormatInt(userID, 10))
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp
	}

	if resp := get(user.ID); resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "Jane Doe") {
		t.Fatalf("owner read failed: %d %s", resp.Code, resp.Body.String())
	}
	if resp := get(user.ID + 100); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for other user, got %d", resp.Code)
	}
}

func TestSaveHandlerValidates(t *testing.T) {
	svc, _, user := newTestService(t, &fakeCompleter{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resume", strings.NewReader(`{"skills":["Go"]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", strconv.FormatInt(user.ID, 10))
	resp := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest || !strings.Contains(resp.Body.String(), "candidateName") {
		t.Fatalf("expected 400 naming candidateName, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSourceDownload(t *testing.T) {
	svc, _, user := newTestService(t, &fakeCompleter{reply: janeReply})
	r := newTestRouter(svc)
	if resp := doUpload(t, r, user.ID, "cv.txt", "text/plain", []byte("Jane Doe, Python")); resp.Code != http.StatusCreated {
		t.Fatalf("upload failed: %d %s", resp.Code, resp.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resume/current/source", nil)
	req.Header.Set("X-User-Id", strconv.FormatInt(user.ID, 10))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || resp.Body.String() != "Jane Doe, Python" {
		t.Fatalf("unexpected download %d: %q", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Header().Get("Content-Disposition"), "cv.txt") {
		t.Fatalf("unexpected disposition %q", resp.Header().Get("Content-Disposition"))
	}
}
