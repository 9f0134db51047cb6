package http

import (
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/domain"
)

// revalidateReq is the wire body of POST /revalidate. Timestamp is epoch
// milliseconds as sent by browsers.
type revalidateReq struct {
	Path               string `json:"path"`
	ContentFingerprint string `json:"contentFingerprint"`
	Timestamp          *int64 `json:"timestamp"`
	ProjectID          string `json:"projectId"`
}

type revalidateResp struct {
	Revalidated         bool                   `json:"revalidated"`
	State               domain.State           `json:"state"`
	Fingerprint         string                 `json:"fingerprint,omitempty"`
	PreviousFingerprint string                 `json:"previousFingerprint,omitempty"`
	Secondary           domain.SecondaryResult `json:"secondary"`
	Message             string                 `json:"message,omitempty"`
}

func toResp(o domain.Outcome) revalidateResp {
	return revalidateResp{
		Revalidated:         o.Revalidated(),
		State:               o.State,
		Fingerprint:         o.Fingerprint,
		PreviousFingerprint: o.Previous,
		Secondary:           o.Secondary,
	}
}
