package http

import "github.com/gin-gonic/gin"

// Register attaches POST /revalidate to rg. Extra middleware (rate
// limiting) runs on that route only.
func (h *Handler) Register(rg *gin.RouterGroup, mw ...gin.HandlerFunc) {
	rg.POST("/revalidate", append(mw, h.revalidate)...)
}

// RegisterProjectRoutes attaches the audit log under a /projects group.
func (h *Handler) RegisterProjectRoutes(projects *gin.RouterGroup) {
	if h.events == nil {
		return
	}
	projects.GET("/:projectId/revalidations", h.listEvents)
}
