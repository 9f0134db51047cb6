package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/brandsite-backend/internal/auth"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/domain"
)

// Revalidator is the revalidation trigger.
type Revalidator interface {
	Revalidate(ctx context.Context, id auth.Identity, req domain.Request) (domain.Outcome, error)
}

// EventLister reads the audit log.
type EventLister interface {
	ListByProject(ctx context.Context, projectID string, limit int) ([]domain.Event, error)
}

type Handler struct {
	trigger Revalidator
	events  EventLister
}

// New builds the handler. events may be nil, which disables the audit route.
func New(trigger Revalidator, events EventLister) *Handler {
	return &Handler{trigger: trigger, events: events}
}

func (h *Handler) revalidate(c *gin.Context) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}

	var req revalidateReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Path) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "path is required"})
		return
	}

	r := domain.Request{
		Path:        strings.TrimSpace(req.Path),
		ProjectID:   strings.TrimSpace(req.ProjectID),
		Fingerprint: strings.TrimSpace(req.ContentFingerprint),
		Timestamp:   time.Now(),
	}
	if req.Timestamp != nil {
		r.Timestamp = time.UnixMilli(*req.Timestamp)
	}

	out, err := h.trigger.Revalidate(c.Request.Context(), id, r)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, toResp(out))
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"message": "not allowed to revalidate this path"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		resp := toResp(out)
		resp.Message = "error revalidating"
		c.JSON(http.StatusInternalServerError, resp)
	}
}

func (h *Handler) listEvents(c *gin.Context) {
	projectID := c.Param("projectId")
	id, _ := auth.IdentityFrom(c)
	if !id.CanEditProject(projectID) {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "forbidden"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	events, err := h.events.ListByProject(c.Request.Context(), projectID, limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "could not read revalidation history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "events": events})
}
