package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	gocron "github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/lanraragi/lrrctl/internal/log"
	"github.com/lanraragi/lrrctl/internal/model"
	"github.com/lanraragi/lrrctl/internal/parallel"
)

type Scheduler struct {
	scheduler   gocron.Scheduler
	tasks       []Task
	immediately bool
	observe     func(Result)
}

type Option func(*Scheduler)

// WithStartImmediately runs every task once right when Do starts.
func WithStartImmediately() Option {
	return func(s *Scheduler) { s.immediately = true }
}

// WithObserver is called with the Result of every run.
func WithObserver(fn func(Result)) Option {
	return func(s *Scheduler) { s.observe = fn }
}

func NewScheduler(ctx context.Context, schedules []model.Schedule, actions Actions, scripts ScriptRunner, opts ...Option) (*Scheduler, error) {
	seen := make(map[string]struct{}, len(schedules))
	tasks := make([]Task, 0, len(schedules))
	for _, sch := range schedules {
		if _, ok := seen[sch.Name]; ok {
			return nil, fmt.Errorf("schedule %q: duplicate name", sch.Name)
		}
		seen[sch.Name] = struct{}{}
		t, err := newTask(ctx, sch, actions, scripts)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", sch.Name, err)
		}
		tasks = append(tasks, t)
	}

	g, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("initializing gocron scheduler: %w", err)
	}
	s := &Scheduler{
		scheduler: g,
		tasks:     tasks,
		observe:   func(Result) {},
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func (s *Scheduler) Tasks() []Task {
	return s.tasks
}

// Do registers the tasks, starts gocron and blocks until ctx is done.
// Runs in flight are waited for before it returns.
func (s *Scheduler) Do(ctx context.Context) error {
	slog.DebugContext(ctx, "starting a scheduler", "tasks", len(s.tasks))
	if len(s.tasks) == 0 {
		slog.WarnContext(ctx, "no schedule configured: nothing to do")
	}

	for _, t := range s.tasks {
		jobOpts := []gocron.JobOption{
			gocron.WithName(t.Name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		}
		if s.immediately {
			jobOpts = append(jobOpts, gocron.WithStartAt(gocron.WithStartImmediately()))
		}
		_, err := s.scheduler.NewJob(t.def, gocron.NewTask(func() { s.run(ctx, t) }), jobOpts...)
		if err != nil {
			_ = s.scheduler.Shutdown()
			return fmt.Errorf("initializing gocron job %q: %w", t.Name, err)
		}
	}

	s.scheduler.Start()
	<-ctx.Done()
	if err := s.scheduler.Shutdown(); err != nil {
		slog.ErrorContext(ctx, "shutting down gocron has failed", "error", err)
		return err
	}
	return nil
}

// RunOnce runs every task once, concurrently, and returns all failures joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return parallel.Each(ctx, len(s.tasks), slices.Values(s.tasks), func(ctx context.Context, t Task) error {
		return s.run(ctx, t).Err
	})
}

func (s *Scheduler) run(ctx context.Context, t Task) Result {
	res := Result{Name: t.Name, RunID: uuid.NewString(), Started: time.Now()}
	ctx = log.ContextAttrs(ctx,
		slog.String("task", t.Name),
		slog.String("kind", t.Kind),
		slog.String("run_id", res.RunID),
	)
	slog.InfoContext(ctx, "task started")

	err := t.fn(ctx)
	res.Stopped = time.Now()
	if err != nil {
		res.Err = fmt.Errorf("task %s: %w", t.Name, err)
		slog.ErrorContext(ctx, "task failed", "error", err, "took", res.Stopped.Sub(res.Started))
	} else {
		slog.InfoContext(ctx, "task finished", "took", res.Stopped.Sub(res.Started))
	}
	s.observe(res)
	return res
}
