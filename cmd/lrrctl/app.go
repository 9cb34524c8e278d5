package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lanraragi/lrrctl/internal/client"
	"github.com/lanraragi/lrrctl/internal/journal"
	"github.com/lanraragi/lrrctl/internal/minion"
	"github.com/lanraragi/lrrctl/internal/model"
	"github.com/lanraragi/lrrctl/internal/notify"
	"github.com/lanraragi/lrrctl/internal/ops"
	"github.com/lanraragi/lrrctl/internal/script"
)

// app is everything a command needs, wired from the loaded config.
type app struct {
	client  *client.Client
	poller  *minion.Poller
	guard   *script.Guard
	ops     *ops.Ops
	journal *journal.Store
}

func journalPath(cfg model.Config) string {
	if cfg.Journal != nil && cfg.Journal.Path != "" {
		return cfg.Journal.Path
	}
	return filepath.Join(userConfigPath, "jobs.db")
}

func newApp(ctx context.Context, cfg model.Config, sink notify.Sink, view notify.View, form client.Values) (*app, error) {
	c, err := client.New(cfg.Server.URL, sink,
		client.WithAPIKey(cfg.Server.APIKey),
		client.WithTimeout(cfg.Timeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing client: %w", err)
	}

	a := &app{client: c}
	pollOpts := []minion.Option{minion.WithInterval(cfg.PollInterval())}
	if cfg.JournalEnabled() {
		store, err := journal.Open(ctx, journalPath(cfg))
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		a.journal = store
		pollOpts = append(pollOpts, minion.WithRecorder(store))
	}

	a.poller = minion.NewPoller(c, sink, pollOpts...)
	a.guard = script.NewGuard(c, a.poller, sink,
		script.WithView(view),
		script.WithForm(form),
		script.WithFormURL(cfg.FormURL()),
	)
	a.ops = ops.New(c, a.poller, sink, ops.WithView(view))
	return a, nil
}

func (a *app) Close(ctx context.Context) {
	if a.journal == nil {
		return
	}
	if err := a.journal.Close(); err != nil {
		slog.WarnContext(ctx, "closing journal failed", "error", err)
	}
}

// interactive wires the app to the terminal.
func interactive(ctx context.Context, form client.Values) (*app, error) {
	term := notify.NewTerminal(os.Stdout)
	return newApp(ctx, config, term, term, form)
}

// withApp runs fn with an interactive app and closes it afterwards.
func withApp(ctx context.Context, form client.Values, fn func(*app) error) error {
	a, err := interactive(ctx, form)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return fn(a)
}
