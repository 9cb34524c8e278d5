// Package script runs server plugins as scripts, one at a time per process.
package script

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/lanraragi/lrrctl/internal/client"
	"github.com/lanraragi/lrrctl/internal/log"
	"github.com/lanraragi/lrrctl/internal/minion"
	"github.com/lanraragi/lrrctl/internal/model"
	"github.com/lanraragi/lrrctl/internal/notify"
)

var ErrScriptRunning = errors.New("a script is already running")

// ArgReader returns the argument the user set for a plugin namespace.
type ArgReader interface {
	Arg(namespace string) string
}

// Form is saved before the script is queued and provides its argument.
type Form interface {
	client.Form
	ArgReader
}

type Submitter interface {
	SaveForm(ctx context.Context, path string, form client.Form) error
	Call(ctx context.Context, call client.Call) (model.Response, error)
}

type Tracker interface {
	Poll(ctx context.Context, id model.JobID, onDone func(model.Job), onFail func(error), opts ...minion.PollOption) error
}

// Guard admits a single script run at a time. A run which finds another one
// in flight is rejected, never queued.
type Guard struct {
	running atomic.Bool

	submitter Submitter
	tracker   Tracker
	sink      notify.Sink
	view      notify.View
	form      Form
	formURL   string
}

type Option func(*Guard)

func WithView(v notify.View) Option {
	return func(g *Guard) { g.view = v }
}

// WithForm sets the form Run saves and reads the argument from.
func WithForm(f Form) Option {
	return func(g *Guard) { g.form = f }
}

func WithFormURL(path string) Option {
	return func(g *Guard) { g.formURL = path }
}

func NewGuard(submitter Submitter, tracker Tracker, sink notify.Sink, opts ...Option) *Guard {
	g := &Guard{
		submitter: submitter,
		tracker:   tracker,
		sink:      sink,
		view:      notify.NopView{},
		form:      client.Values{},
		formURL:   model.DefaultFormURL,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Running reports whether a run holds the guard.
func (g *Guard) Running() bool {
	return g.running.Load()
}

// Run saves the guard's form and runs the plugin namespace with its argument.
func (g *Guard) Run(ctx context.Context, namespace string) error {
	return g.RunWith(ctx, namespace, g.form)
}

// RunWith queues the plugin namespace as a script and blocks until its job
// is finished or failed. Every outcome is reported to the sink once; the
// returned error must not be reported again.
func (g *Guard) RunWith(ctx context.Context, namespace string, form Form) error {
	if !g.running.CompareAndSwap(false, true) {
		g.sink.Error("A script is already running.", "Please wait for it to terminate.")
		return ErrScriptRunning
	}
	ctx = log.ContextAttrs(ctx, slog.String("plugin", namespace))
	slog.DebugContext(ctx, "script guard acquired")

	g.view.SetRunningIndicator(true)
	g.view.SetControlsEnabled(false)
	released := false
	release := func() {
		if released {
			return
		}
		released = true
		g.view.SetRunningIndicator(false)
		g.view.SetControlsEnabled(true)
		g.running.Store(false)
		slog.DebugContext(ctx, "script guard released")
	}
	defer release()

	arg := form.Arg(namespace)
	if err := g.submitter.SaveForm(ctx, g.formURL, form); err != nil {
		return err
	}

	var id model.JobID
	_, err := g.submitter.Call(ctx, client.Call{
		Route:        client.PluginQueue(namespace, arg),
		ErrorMessage: "Error while executing Script :",
		OnSuccess: func(_ context.Context, resp model.Response) error {
			var err error
			id, err = client.DecodeJob(resp)
			return err
		},
	})
	if err != nil {
		return err
	}

	var scriptErr error
	err = g.tracker.Poll(ctx, id,
		func(job model.Job) {
			release()
			if job.Result.Success {
				g.sink.Info("Script result", job.Result.PrettyData(), true)
				return
			}
			g.sink.Error("Script failed: "+job.Result.Error, "")
			scriptErr = &model.JobFailure{JobID: job.ID, Message: job.Result.Error}
		},
		func(error) {
			release()
		},
		minion.Kind(model.TaskScriptPrefix+namespace),
	)
	if err != nil {
		return err
	}
	return scriptErr
}
