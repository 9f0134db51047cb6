package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/brandsite-backend/internal/auth"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/content/domain"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/content/service"
	revdomain "github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/domain"
)

type stubService struct {
	form      domain.Form
	clientFP  string
	projectID string
	result    *service.SaveResult
	project   *domain.Project
	projects  []domain.Project
	err       error
}

func (s *stubService) SaveForm(ctx context.Context, id auth.Identity, projectID string, form domain.Form, fp string) (*service.SaveResult, error) {
	s.projectID, s.form, s.clientFP = projectID, form, fp
	return s.result, s.err
}

func (s *stubService) GetProject(ctx context.Context, id auth.Identity, projectID string) (*domain.Project, error) {
	return s.project, s.err
}

func (s *stubService) ListProjects(ctx context.Context, id auth.Identity) ([]domain.Project, error) {
	return s.projects, s.err
}

func (s *stubService) CreateProject(ctx context.Context, id auth.Identity, projectID, name string) (*domain.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Project{ProjectID: projectID, Name: name}, nil
}

func newRouter(svc ContentService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1/projects")
	g.Use(auth.HeaderIdentity())
	New(svc).Register(g)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "u-1")
	req.Header.Set("X-Project-Id", "jane")
	r.ServeHTTP(w, req)
	return w
}

func TestSaveContent(t *testing.T) {
	p := &domain.Project{ProjectID: "jane", Content: []domain.ContentItem{{Key: "bio", Value: "hi"}}}
	svc := &stubService{result: &service.SaveResult{
		Project:     p,
		Fingerprint: "00000000deadbeef",
		Publish:     revdomain.Outcome{State: revdomain.StateSucceeded},
	}}
	r := newRouter(svc)

	w := do(r, http.MethodPut, "/api/v1/projects/jane/content", `{"content":{"bio":"hi","name":"Jane"},"contentFingerprint":"abc"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp saveContentResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Saved)
	assert.True(t, resp.Publish.Revalidated)
	assert.Equal(t, "00000000deadbeef", resp.Fingerprint)
	assert.Equal(t, p.Content, resp.Content)

	assert.Equal(t, "jane", svc.projectID)
	assert.Equal(t, domain.Form{"bio": "hi", "name": "Jane"}, svc.form)
	assert.Equal(t, "abc", svc.clientFP)
}

func TestSaveContent_PublishFailureStillSaved(t *testing.T) {
	svc := &stubService{result: &service.SaveResult{
		Project:    &domain.Project{ProjectID: "jane"},
		Publish:    revdomain.Outcome{State: revdomain.StateFailed},
		PublishErr: fmt.Errorf("%w: boom", revdomain.ErrRegenerationFailure),
	}}
	r := newRouter(svc)

	w := do(r, http.MethodPut, "/api/v1/projects/jane/content", `{"content":{"bio":"hi"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp saveContentResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Saved)
	assert.False(t, resp.Publish.Revalidated)
	assert.Equal(t, revdomain.StateFailed, resp.Publish.State)
	assert.NotEmpty(t, resp.Publish.Error)
}

func TestSaveContent_BadBody(t *testing.T) {
	r := newRouter(&stubService{})
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/v1/projects/jane/content", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/api/v1/projects/jane/content", `{"content":{"a":1}}`).Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrUnauthorized, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrDuplicateKey, http.StatusBadRequest},
		{domain.ErrAlreadyExist, http.StatusConflict},
		{fmt.Errorf("%w: save: conn reset", domain.ErrStoreFailure), http.StatusServiceUnavailable},
		{revdomain.ErrRegenerationFailure, http.StatusBadGateway},
		{fmt.Errorf("surprise"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			r := newRouter(&stubService{err: tc.err})
			assert.Equal(t, tc.code, do(r, http.MethodGet, "/api/v1/projects/jane", "").Code)
		})
	}
}

func TestProjectsRoutes(t *testing.T) {
	svc := &stubService{
		projects: []domain.Project{{ProjectID: "jane"}},
		project:  &domain.Project{ProjectID: "jane"},
	}
	r := newRouter(svc)

	w := do(r, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"projectId":"jane"`)

	w = do(r, http.MethodPost, "/api/v1/projects", `{"projectId":"new","name":"New"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/api/v1/projects", `{"name":"New"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/projects/jane", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
