// Package sweeper re-publishes projects whose stored content no longer
// matches what the render boundary last regenerated, such as after a failed
// trigger.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/GoSim-25-26J-441/brandsite-backend/internal/auth"
	contentdomain "github.com/GoSim-25-26J-441/brandsite-backend/internal/content/domain"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/fingerprint"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/logging"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/domain"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/tracker"
)

// ProjectSource lists projects and reads their stored content.
type ProjectSource interface {
	ListProjects(ctx context.Context) ([]contentdomain.Project, error)
	GetContent(ctx context.Context, projectID string) ([]contentdomain.ContentItem, error)
}

// Revalidator is the revalidation trigger.
type Revalidator interface {
	Revalidate(ctx context.Context, id auth.Identity, req domain.Request) (domain.Outcome, error)
}

// Report tallies one sweep.
type Report struct {
	Checked   int
	Current   int
	Triggered int
	Failed    int
}

type Sweeper struct {
	projects   ProjectSource
	tracker    tracker.Tracker
	trigger    Revalidator
	publicPath func(projectID string) string
	log        *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

func New(projects ProjectSource, t tracker.Tracker, trigger Revalidator, publicPath func(string) string, log *slog.Logger) *Sweeper {
	return &Sweeper{
		projects:   projects,
		tracker:    t,
		trigger:    trigger,
		publicPath: publicPath,
		log:        log,
	}
}

// SweepOnce checks every project and triggers the stale ones as the system
// identity. Per-project failures are logged and counted; only a failure to
// list projects is returned.
func (s *Sweeper) SweepOnce(ctx context.Context) (Report, error) {
	var rep Report

	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return rep, err
	}

	ctx = logging.WithLogger(ctx, s.log)
	for _, p := range projects {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		rep.Checked++

		items, err := s.projects.GetContent(ctx, p.ProjectID)
		if err != nil {
			rep.Failed++
			s.log.Warn("sweep: read content failed", slog.String("project_id", p.ProjectID), slog.Any("error", err))
			continue
		}
		fp := fingerprint.FromItems(items).String()
		path := s.publicPath(p.ProjectID)

		last, err := s.tracker.Last(ctx, tracker.Key(p.ProjectID, path))
		if err == nil && last == fp {
			rep.Current++
			continue
		}

		_, err = s.trigger.Revalidate(ctx, auth.System, domain.Request{
			Path:        path,
			ProjectID:   p.ProjectID,
			Fingerprint: fp,
		})
		if err != nil {
			rep.Failed++
			if !errors.Is(err, domain.ErrRegenerationFailure) {
				s.log.Warn("sweep: trigger failed", slog.String("project_id", p.ProjectID), slog.Any("error", err))
			}
			continue
		}
		rep.Triggered++
	}

	return rep, nil
}

// Start runs SweepOnce on spec (robfig/cron syntax, e.g. "@every 5m") until
// ctx is done or Stop is called. Overlapping runs are skipped.
func (s *Sweeper) Start(ctx context.Context, spec string) error {
	logger := cronLogger{s.log}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	_, err := c.AddFunc(spec, func() {
		rep, err := s.SweepOnce(ctx)
		if err != nil {
			s.log.Error("sweep failed", slog.Any("error", err))
			return
		}
		s.log.Info("sweep finished",
			slog.Int("checked", rep.Checked),
			slog.Int("current", rep.Current),
			slog.Int("triggered", rep.Triggered),
			slog.Int("failed", rep.Failed))
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	s.log.Info("sweeper started", slog.String("spec", spec))
	c.Start()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
