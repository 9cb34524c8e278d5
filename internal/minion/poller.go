// Package minion tracks background jobs of the server's Minion queue.
//
// A Poller fetches a fresh snapshot of a job at a fixed interval until the job
// is finished or failed, then calls exactly one of the two continuations it
// was given. There is no backoff and no limit on the number of polls; the
// only way to stop earlier is to cancel the context.
package minion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lanraragi/lrrctl/internal/log"
	"github.com/lanraragi/lrrctl/internal/model"
	"github.com/lanraragi/lrrctl/internal/notify"
)

const DefaultFailureHeading = "Error checking Minion job status"

type JobFetcher interface {
	FetchJob(ctx context.Context, id model.JobID) (model.Job, error)
}

// Recorder keeps track of the jobs a Poller followed.
type Recorder interface {
	Started(ctx context.Context, id model.JobID, kind string) error
	Finished(ctx context.Context, id model.JobID, err error) error
}

type Poller struct {
	fetcher  JobFetcher
	sink     notify.Sink
	interval time.Duration
	recorder Recorder
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Poller) { p.recorder = r }
}

func NewPoller(fetcher JobFetcher, sink notify.Sink, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		sink:     sink,
		interval: model.DefaultPollInterval,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type pollConfig struct {
	heading string
	kind    string
}

type PollOption func(*pollConfig)

// FailureHeading replaces the heading of the error reported for a failed job.
func FailureHeading(h string) PollOption {
	return func(c *pollConfig) { c.heading = h }
}

// Kind labels the job for the Recorder.
func Kind(k string) PollOption {
	return func(c *pollConfig) { c.kind = k }
}

// Poll blocks until the job reaches a terminal state or ctx is done.
//
// On finished, onDone gets the last snapshot. Otherwise the failure is
// reported to the sink and onFail gets the error. Either continuation may be
// nil. The returned error is the one passed to onFail.
func (p *Poller) Poll(ctx context.Context, id model.JobID, onDone func(model.Job), onFail func(error), opts ...PollOption) error {
	return p.poll(ctx, uuid.New(), id, onDone, onFail, opts...)
}

func (p *Poller) poll(ctx context.Context, session uuid.UUID, id model.JobID, onDone func(model.Job), onFail func(error), opts ...PollOption) error {
	cfg := pollConfig{heading: DefaultFailureHeading, kind: "job"}
	for _, o := range opts {
		o(&cfg)
	}
	ctx = log.ContextAttrs(ctx,
		slog.String("job_id", id.String()),
		slog.String("session", session.String()),
	)

	p.started(ctx, id, cfg.kind)
	job, err := p.track(ctx, id)
	p.finished(ctx, id, err)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			slog.WarnContext(ctx, "stopped tracking job", "error", err)
			p.sink.Warning("Stopped tracking Minion job", fmt.Sprintf("Job %s keeps running on the server.", id), false)
		} else {
			slog.DebugContext(ctx, "job failed", "error", err)
			p.sink.Error(cfg.heading, err.Error())
		}
		if onFail != nil {
			onFail(err)
		}
		return err
	}

	slog.DebugContext(ctx, "job finished")
	if onDone != nil {
		onDone(job)
	}
	return nil
}

// track polls sequentially, the next fetch starts an interval after the
// previous one was processed.
func (p *Poller) track(ctx context.Context, id model.JobID) (model.Job, error) {
	timer := time.NewTimer(p.interval)
	timer.Stop()
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		slog.DebugContext(ctx, "polling job", "attempt", attempt)
		job, err := p.fetcher.FetchJob(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return job, ctxErr
			}
			return job, err
		}
		if err := job.Err(); err != nil {
			return job, err
		}
		if job.State == model.JobFinished {
			return job, nil
		}

		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-timer.C:
		}
	}
}

func (p *Poller) started(ctx context.Context, id model.JobID, kind string) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Started(context.WithoutCancel(ctx), id, kind); err != nil {
		slog.WarnContext(ctx, "recording job start failed", "error", err)
	}
}

func (p *Poller) finished(ctx context.Context, id model.JobID, jobErr error) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Finished(context.WithoutCancel(ctx), id, jobErr); err != nil {
		slog.WarnContext(ctx, "recording job end failed", "error", err)
	}
}
