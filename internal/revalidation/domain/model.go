package domain

import "time"

// State is a step of one revalidation attempt.
type State string

const (
	StateIdle                State = "idle"
	StateFingerprintComputed State = "fingerprint_computed"
	StateSkipped             State = "skipped"
	StateTriggering          State = "triggering"
	StateSucceeded           State = "succeeded"
	StateFailed              State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateSkipped || s == StateSucceeded || s == StateFailed
}

// Request asks for the public page at Path to be regenerated. It is never
// persisted. An empty Fingerprint forces regeneration.
type Request struct {
	Path        string
	ProjectID   string
	Fingerprint string
	Timestamp   time.Time
}

// SecondaryResult summarises the cache-bypass fetches of one attempt.
type SecondaryResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Outcome is the terminal result of one revalidation attempt.
type Outcome struct {
	State       State           `json:"state"`
	Path        string          `json:"path"`
	ProjectID   string          `json:"projectId,omitempty"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Previous    string          `json:"previousFingerprint,omitempty"`
	Secondary   SecondaryResult `json:"secondary"`
	Duration    time.Duration   `json:"-"`
	Error       string          `json:"error,omitempty"`
}

// Revalidated reports whether the render boundary regenerated the page.
func (o Outcome) Revalidated() bool {
	return o.State == StateSucceeded
}

// Event is one audit record of a triggering attempt.
type Event struct {
	ID                  string    `json:"id"`
	ProjectID           string    `json:"projectId"`
	Path                string    `json:"path"`
	Fingerprint         string    `json:"fingerprint"`
	PreviousFingerprint string    `json:"previousFingerprint"`
	State               State     `json:"state"`
	Error               string    `json:"error,omitempty"`
	SecondaryOK         int       `json:"secondaryOk"`
	SecondaryFailed     int       `json:"secondaryFailed"`
	DurationMs          int64     `json:"durationMs"`
	CreatedAt           time.Time `json:"createdAt"`
}

// EventFromOutcome builds the audit record of a finished attempt.
func EventFromOutcome(o Outcome) Event {
	return Event{
		ProjectID:           o.ProjectID,
		Path:                o.Path,
		Fingerprint:         o.Fingerprint,
		PreviousFingerprint: o.Previous,
		State:               o.State,
		Error:               o.Error,
		SecondaryOK:         o.Secondary.Succeeded,
		SecondaryFailed:     o.Secondary.Failed,
		DurationMs:          o.Duration.Milliseconds(),
	}
}
