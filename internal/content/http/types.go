package http

import (
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/content/domain"
	revdomain "github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/domain"
)

type createProjectReq struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
}

// saveContentReq carries the flattened form state. Metadata keys (name,
// settings) travel inside content like any other field.
type saveContentReq struct {
	Content            map[string]string `json:"content"`
	ContentFingerprint string            `json:"contentFingerprint"`
}

type publishStatus struct {
	Revalidated bool            `json:"revalidated"`
	State       revdomain.State `json:"state"`
	Error       string          `json:"error,omitempty"`
}

type saveContentResp struct {
	Saved       bool                 `json:"saved"`
	Project     *domain.Project      `json:"project"`
	Content     []domain.ContentItem `json:"content"`
	Fingerprint string               `json:"fingerprint"`
	Publish     publishStatus        `json:"publish"`
}
