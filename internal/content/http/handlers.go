package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/brandsite-backend/internal/auth"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/content/domain"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/content/service"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/logging"
	revdomain "github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/domain"
)

// ContentService is what the handlers need from the service layer.
type ContentService interface {
	SaveForm(ctx context.Context, id auth.Identity, projectID string, form domain.Form, clientFingerprint string) (*service.SaveResult, error)
	GetProject(ctx context.Context, id auth.Identity, projectID string) (*domain.Project, error)
	ListProjects(ctx context.Context, id auth.Identity) ([]domain.Project, error)
	CreateProject(ctx context.Context, id auth.Identity, projectID, name string) (*domain.Project, error)
}

type Handler struct {
	svc ContentService
}

func New(svc ContentService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) create(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ProjectID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	id, _ := auth.IdentityFrom(c)
	p, err := h.svc.CreateProject(c.Request.Context(), id, req.ProjectID, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	items, err := h.svc.ListProjects(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	p, err := h.svc.GetProject(c.Request.Context(), id, c.Param("projectId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) saveContent(c *gin.Context) {
	var req saveContentReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "content is required"})
		return
	}

	id, _ := auth.IdentityFrom(c)
	res, err := h.svc.SaveForm(c.Request.Context(), id, c.Param("projectId"), domain.Form(req.Content), req.ContentFingerprint)
	if err != nil {
		writeError(c, err)
		return
	}

	publish := publishStatus{Revalidated: res.Publish.Revalidated(), State: res.Publish.State}
	if res.PublishErr != nil {
		if errors.Is(res.PublishErr, revdomain.ErrRegenerationFailure) {
			publish.Error = "regeneration failed; the page will be refreshed on the next successful publish"
		} else {
			publish.Error = res.PublishErr.Error()
		}
	}

	c.JSON(http.StatusOK, saveContentResp{
		Saved:       true,
		Project:     res.Project,
		Content:     res.Project.Content,
		Fingerprint: res.Fingerprint,
		Publish:     publish,
	})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "project not found"
	case errors.Is(err, domain.ErrAlreadyExist):
		status, msg = http.StatusConflict, "project already exists"
	case errors.Is(err, domain.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrStoreFailure):
		status, msg = http.StatusServiceUnavailable, "content store unavailable"
	case errors.Is(err, revdomain.ErrRegenerationFailure):
		status, msg = http.StatusBadGateway, "regeneration failed"
	}
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"ok": false, "error": msg})
}
