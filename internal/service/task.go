package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocron "github.com/go-co-op/gocron/v2"

	"github.com/lanraragi/lrrctl/internal/client"
	"github.com/lanraragi/lrrctl/internal/model"
	"github.com/lanraragi/lrrctl/internal/ops"
	"github.com/lanraragi/lrrctl/internal/script"
)

// Actions are the operations a schedule can name.
type Actions interface {
	CleanTempFolder(ctx context.Context) (float64, error)
	InvalidateCache(ctx context.Context) error
	CleanDatabase(ctx context.Context) (ops.CleanResult, error)
	ClearNewFlags(ctx context.Context) error
	RegenerateThumbnails(ctx context.Context, force bool) error
}

type ScriptRunner interface {
	RunWith(ctx context.Context, namespace string, form script.Form) error
}

// Task is one configured schedule, resolved.
type Task struct {
	Name string
	Kind string
	def  gocron.JobDefinition
	fn   func(ctx context.Context) error
}

var ErrUnknownTask = errors.New("unknown task")

func newTask(ctx context.Context, sch model.Schedule, actions Actions, scripts ScriptRunner) (Task, error) {
	def, err := definition(ctx, sch)
	if err != nil {
		return Task{}, err
	}
	fn, err := action(sch, actions, scripts)
	if err != nil {
		return Task{}, err
	}
	return Task{Name: sch.Name, Kind: sch.Task, def: def, fn: fn}, nil
}

func definition(ctx context.Context, sch model.Schedule) (gocron.JobDefinition, error) {
	switch {
	case sch.Cron != "":
		every, err := model.ParseCron(sch.Cron)
		if err != nil {
			return nil, fmt.Errorf("parsing cron: %w", err)
		}
		slog.DebugContext(ctx, "successfully parsed", "cron", sch.Cron, "every", every.String())
		return gocron.CronJob(sch.Cron, false), nil
	case sch.Duration != "":
		d, err := model.ParseDuration(sch.Duration)
		if err != nil {
			return nil, fmt.Errorf("parsing duration: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("duration must be positive, got %s", sch.Duration)
		}
		slog.DebugContext(ctx, "successfully parsed", "duration", d.String())
		return gocron.DurationJob(d), nil
	default:
		return nil, errors.New("both cron and duration are empty")
	}
}

func action(sch model.Schedule, actions Actions, scripts ScriptRunner) (func(context.Context) error, error) {
	switch sch.Task {
	case model.TaskCleanTempFolder:
		return func(ctx context.Context) error {
			_, err := actions.CleanTempFolder(ctx)
			return err
		}, nil
	case model.TaskInvalidateCache:
		return actions.InvalidateCache, nil
	case model.TaskCleanDatabase:
		return func(ctx context.Context) error {
			_, err := actions.CleanDatabase(ctx)
			return err
		}, nil
	case model.TaskClearNewFlags:
		return actions.ClearNewFlags, nil
	case model.TaskRegenerateThumbs:
		force := sch.Arg == "force" || sch.Arg == "1"
		return func(ctx context.Context) error {
			return actions.RegenerateThumbnails(ctx, force)
		}, nil
	}

	if ns, ok := strings.CutPrefix(sch.Task, model.TaskScriptPrefix); ok && ns != "" {
		form := client.Values{ns + "_ARG": {sch.Arg}}
		return func(ctx context.Context) error {
			return scripts.RunWith(ctx, ns, form)
		}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownTask, sch.Task)
}

// Result of one run of a Task.
type Result struct {
	Name    string
	RunID   string
	Started time.Time
	Stopped time.Time
	Err     error
}
