package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/GoSim-25-26J-441/brandsite-backend/config"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/auth"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/logging"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/batch"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/domain"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/tracker"
)

// Renderer is the render boundary.
type Renderer interface {
	Regenerate(ctx context.Context, path string) error
	CacheBust(ctx context.Context, path string) error
}

// Toucher bumps a project's modification timestamp.
type Toucher interface {
	Touch(ctx context.Context, projectID string) error
}

// EventRecorder appends revalidation audit records.
type EventRecorder interface {
	Insert(ctx context.Context, ev domain.Event) (domain.Event, error)
}

// Trigger decides whether a public page needs regenerating and drives the
// render boundary when it does.
type Trigger struct {
	renderer Renderer
	tracker  tracker.Tracker
	toucher  Toucher
	events   EventRecorder

	supplementary        int
	supplementaryTimeout time.Duration
	sideTimeout          time.Duration

	flights singleflight.Group
	now     func() time.Time
}

// NewTrigger wires a trigger. toucher and events may be nil.
func NewTrigger(r Renderer, t tracker.Tracker, toucher Toucher, events EventRecorder, cfg config.RevalidationConfig) *Trigger {
	sideTimeout := cfg.TouchTimeout
	if sideTimeout <= 0 {
		sideTimeout = 2 * time.Second
	}
	return &Trigger{
		renderer:             r,
		tracker:              t,
		toucher:              toucher,
		events:               events,
		supplementary:        cfg.SupplementaryFetches,
		supplementaryTimeout: cfg.SupplementaryTimeout,
		sideTimeout:          sideTimeout,
		now:                  time.Now,
	}
}

// Revalidate runs one revalidation attempt for req on behalf of id.
//
// Unauthorized callers get ErrUnauthorized before anything is read or
// written. A fingerprint equal to the last revalidated one ends in
// StateSkipped. Otherwise the page is regenerated: StateSucceeded advances
// the tracker, StateFailed leaves it and returns ErrRegenerationFailure.
// An empty fingerprint always regenerates and never advances the tracker.
func (t *Trigger) Revalidate(ctx context.Context, id auth.Identity, req domain.Request) (domain.Outcome, error) {
	log := logging.FromContext(ctx)

	out := domain.Outcome{State: domain.StateIdle, Path: req.Path, Fingerprint: req.Fingerprint}

	projectID, err := authorize(id, req)
	if err != nil {
		log.Warn("revalidation rejected",
			slog.String("user_id", id.UserID),
			slog.String("path", req.Path),
			slog.Any("error", err))
		return out, err
	}
	out.ProjectID = projectID

	if err := validatePath(req.Path); err != nil {
		return out, err
	}

	key := tracker.Key(projectID, req.Path)
	out.State = domain.StateFingerprintComputed

	last, err := t.tracker.Last(ctx, key)
	if err != nil {
		// unknown last fingerprint only costs a redundant regeneration
		log.Warn("tracker read failed", slog.String("key", key), slog.Any("error", err))
		last = ""
	}
	out.Previous = last

	if req.Fingerprint != "" && req.Fingerprint == last {
		out.State = domain.StateSkipped
		log.Info("revalidation skipped, fingerprint unchanged",
			slog.String("path", req.Path),
			slog.String("fingerprint", req.Fingerprint))
		return out, nil
	}

	// Identical concurrent requests for the same page share one
	// regeneration. The shared call is detached from the first caller's
	// cancellation.
	flight := key + "|" + req.Path + "|" + req.Fingerprint
	v, _, _ := t.flights.Do(flight, func() (any, error) {
		return t.trigger(context.WithoutCancel(ctx), key, out), nil
	})
	res := v.(triggerResult)
	return res.outcome, res.err
}

type triggerResult struct {
	outcome domain.Outcome
	err     error
}

func (t *Trigger) trigger(ctx context.Context, key string, out domain.Outcome) triggerResult {
	log := logging.FromContext(ctx).With(
		slog.String("path", out.Path),
		slog.String("project_id", out.ProjectID),
		slog.String("fingerprint", out.Fingerprint))

	start := t.now()
	out.State = domain.StateTriggering

	if out.ProjectID != "" && t.toucher != nil {
		go t.touch(ctx, out.ProjectID)
	}

	secondary := make(chan batch.Result, 1)
	go func() {
		ops := make([]batch.Op, t.supplementary)
		for i := range ops {
			ops[i] = func(ctx context.Context) error { return t.renderer.CacheBust(ctx, out.Path) }
		}
		secondary <- batch.Run(ctx, t.supplementaryTimeout, ops...)
	}()

	primaryErr := t.renderer.Regenerate(ctx, out.Path)

	sec := <-secondary
	out.Secondary = domain.SecondaryResult{Attempted: sec.Attempted, Succeeded: sec.Succeeded, Failed: sec.Failed}
	if err := sec.Err(); err != nil {
		log.Warn("cache-bust fetches failed",
			slog.Int("failed", sec.Failed),
			slog.Int("attempted", sec.Attempted),
			slog.Any("error", err))
	}

	out.Duration = t.now().Sub(start)

	var err error
	if primaryErr != nil {
		out.State = domain.StateFailed
		out.Error = primaryErr.Error()
		err = fmt.Errorf("%w: %w", domain.ErrRegenerationFailure, primaryErr)
		log.Error("regeneration failed", slog.Any("error", primaryErr), slog.Duration("took", out.Duration))
	} else {
		out.State = domain.StateSucceeded
		if out.Fingerprint != "" {
			if aerr := t.tracker.Advance(ctx, key, out.Fingerprint); aerr != nil {
				log.Warn("tracker advance failed", slog.String("key", key), slog.Any("error", aerr))
			}
		}
		log.Info("page revalidated",
			slog.Int("secondary_ok", sec.Succeeded),
			slog.Duration("took", out.Duration))
	}

	t.record(ctx, out)
	return triggerResult{outcome: out, err: err}
}

func (t *Trigger) touch(ctx context.Context, projectID string) {
	ctx, cancel := context.WithTimeout(ctx, t.sideTimeout)
	defer cancel()
	if err := t.toucher.Touch(ctx, projectID); err != nil {
		logging.FromContext(ctx).Warn("touch failed", slog.String("project_id", projectID), slog.Any("error", err))
	}
}

func (t *Trigger) record(ctx context.Context, out domain.Outcome) {
	if t.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, t.sideTimeout)
	defer cancel()
	if _, err := t.events.Insert(ctx, domain.EventFromOutcome(out)); err != nil {
		logging.FromContext(ctx).Warn("audit record failed", slog.String("path", out.Path), slog.Any("error", err))
	}
}

// authorize resolves the project the request targets. Non-admins may only
// touch paths carrying their own project id.
func authorize(id auth.Identity, req domain.Request) (string, error) {
	if !id.CanRevalidatePath(req.Path) {
		return "", domain.ErrUnauthorized
	}
	if id.IsAdmin() {
		return req.ProjectID, nil
	}
	if req.ProjectID != "" && req.ProjectID != id.ProjectID {
		return "", domain.ErrUnauthorized
	}
	return id.ProjectID, nil
}

func validatePath(path string) error {
	switch {
	case path == "":
		return fmt.Errorf("%w: path is required", domain.ErrInvalidRequest)
	case !strings.HasPrefix(path, "/"):
		return fmt.Errorf("%w: path must start with /", domain.ErrInvalidRequest)
	case strings.ContainsAny(path, "?#"):
		return fmt.Errorf("%w: path must not carry a query or fragment", domain.ErrInvalidRequest)
	}
	return nil
}

// IsClientError reports whether err was caused by the caller.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrInvalidRequest)
}
