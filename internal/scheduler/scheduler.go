// Package scheduler runs the nightly sweep that scores fatigue and advances
// every active plan whose phase is due to change.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"
	"golang.org/x/sync/errgroup"

	"periodizer/internal/config"
	"periodizer/internal/logger"
	"periodizer/internal/models"
	"periodizer/internal/service"
)

const sweepTimeout = 30 * time.Minute

// Engine is what a sweep needs from the service.
type Engine interface {
	ActivePlans(ctx context.Context) ([]models.PeriodizationPlan, error)
	AssessFatigue(ctx context.Context, userID string, day time.Time) (models.FatigueAssessment, error)
	AdvancePlan(ctx context.Context, planID string) (service.TransitionOutcome, error)
}

// Result summarises one sweep.
type Result struct {
	Plans     int
	Advanced  int
	Deloads   int
	Completed int
	Failed    int
}

// Scheduler runs the nightly sweep on a cron spec. At most one sweep runs at a time.
type Scheduler struct {
	log         *logger.Logger
	svc         Engine
	spec        string
	concurrency int
	now         func() time.Time

	cron    *cron.Cron
	running sync.Mutex
}

// New returns a scheduler for cfg; nothing runs until Start. A nil log discards output.
func New(log *logger.Logger, svc Engine, cfg config.SchedulerConfig) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		log:         log.With("component", "scheduler"),
		svc:         svc,
		spec:        cfg.Spec,
		concurrency: max(cfg.Concurrency, 1),
		now:         time.Now,
	}
}

// Start schedules the sweep on the configured cron spec.
func (s *Scheduler) Start() error {
	c := cron.New()
	if err := c.AddFunc(s.spec, s.run); err != nil {
		return fmt.Errorf("scheduling sweep %q: %w", s.spec, err)
	}
	c.Start()
	s.cron = c
	s.log.Info("sweep scheduled", "spec", s.spec, "concurrency", s.concurrency)
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.Sweep(ctx); err != nil {
		s.log.Error("sweep failed", "error", err)
	}
}

// Sweep evaluates every active plan once. A plan that fails is logged and
// counted; it does not stop the others. Overlapping sweeps are skipped.
func (s *Scheduler) Sweep(ctx context.Context) (Result, error) {
	if !s.running.TryLock() {
		s.log.Warn("previous sweep still running, skipping")
		return Result{}, nil
	}
	defer s.running.Unlock()

	start := s.now()
	plans, err := s.svc.ActivePlans(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing active plans: %w", err)
	}

	var (
		mu  sync.Mutex
		res = Result{Plans: len(plans)}
	)
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, plan := range plans {
		g.Go(func() error {
			out, err := s.sweepPlan(ctx, plan)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				s.log.Error("plan sweep failed", "plan_id", plan.ID, "user_id", plan.UserID, "error", err)
				return nil
			}
			if out.Applied {
				res.Advanced++
			}
			if out.DeloadEvent != nil {
				res.Deloads++
			}
			if out.Plan.Completed {
				res.Completed++
			}
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info("sweep finished", "plans", res.Plans, "advanced", res.Advanced,
		"deloads", res.Deloads, "completed", res.Completed, "failed", res.Failed,
		"took", s.now().Sub(start))
	return res, nil
}

func (s *Scheduler) sweepPlan(ctx context.Context, plan models.PeriodizationPlan) (service.TransitionOutcome, error) {
	if err := ctx.Err(); err != nil {
		return service.TransitionOutcome{}, err
	}
	if _, err := s.svc.AssessFatigue(ctx, plan.UserID, s.now()); err != nil {
		return service.TransitionOutcome{}, fmt.Errorf("assessing fatigue: %w", err)
	}
	return s.svc.AdvancePlan(ctx, plan.ID)
}
