package minion_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lanraragi/lrrctl/internal/minion"
	"github.com/lanraragi/lrrctl/internal/model"
	"github.com/lanraragi/lrrctl/internal/notify"
	"github.com/lanraragi/lrrctl/internal/notify/notifytest"
	"github.com/stretchr/testify/require"
)

const interval = 20 * time.Millisecond

// scripted returns the snapshots in order and repeats the last one.
type scripted struct {
	mu     sync.Mutex
	jobs   []model.Job
	err    error
	calls  []time.Time
	called chan struct{}
}

func (s *scripted) FetchJob(_ context.Context, id model.JobID) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.calls)
	s.calls = append(s.calls, time.Now())
	if s.called != nil {
		select {
		case s.called <- struct{}{}:
		default:
		}
	}
	if s.err != nil {
		return model.Job{}, s.err
	}
	if i >= len(s.jobs) {
		i = len(s.jobs) - 1
	}
	j := s.jobs[i]
	j.ID = id
	return j, nil
}

func (s *scripted) Calls() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.calls...)
}

func states(ss ...model.JobState) []model.Job {
	jobs := make([]model.Job, 0, len(ss))
	for _, s := range ss {
		jobs = append(jobs, model.Job{State: s})
	}
	return jobs
}

type outcome struct {
	done []model.Job
	fail []error
}

func (o *outcome) onDone(j model.Job) { o.done = append(o.done, j) }
func (o *outcome) onFail(err error)   { o.fail = append(o.fail, err) }

func TestPoll_Finished(t *testing.T) {
	t.Parallel()
	fetcher := &scripted{jobs: states(model.JobQueued, model.JobActive, model.JobActive, model.JobFinished)}
	fetcher.jobs[3].Result = model.JobResult{Success: true}
	sink := &notifytest.Sink{}
	p := minion.NewPoller(fetcher, sink, minion.WithInterval(interval))

	var o outcome
	err := p.Poll(t.Context(), "7", o.onDone, o.onFail)
	require.NoError(t, err)

	calls := fetcher.Calls()
	require.Len(t, calls, 4)
	for i := 1; i < len(calls); i++ {
		require.GreaterOrEqual(t, calls[i].Sub(calls[i-1]), interval)
	}
	require.Len(t, o.done, 1)
	require.Empty(t, o.fail)
	require.Equal(t, model.JobID("7"), o.done[0].ID)
	require.True(t, bool(o.done[0].Result.Success))
	require.Empty(t, sink.All())
}

func TestPoll_Failed(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario string
		fetcher  *scripted
		opts     []minion.PollOption
		calls    int
		heading  string
		detail   string
	}{
		{
			scenario: "failed state",
			fetcher: &scripted{jobs: []model.Job{
				{State: model.JobQueued},
				{State: model.JobFailed, Result: model.JobResult{Error: "plugin died"}},
			}},
			calls:   2,
			heading: minion.DefaultFailureHeading,
			detail:  "plugin died",
		},
		{
			scenario: "top level error",
			fetcher:  &scripted{jobs: []model.Job{{State: model.JobActive, Error: "no such job"}}},
			calls:    1,
			heading:  minion.DefaultFailureHeading,
			detail:   "no such job",
		},
		{
			scenario: "failure heading",
			fetcher:  &scripted{jobs: states(model.JobActive, model.JobFailed)},
			opts:     []minion.PollOption{minion.FailureHeading("The thumbnail regen job failed!")},
			calls:    2,
			heading:  "The thumbnail regen job failed!",
			detail:   "job 9 failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			sink := &notifytest.Sink{}
			p := minion.NewPoller(tc.fetcher, sink, minion.WithInterval(interval))

			var o outcome
			err := p.Poll(t.Context(), "9", o.onDone, o.onFail, tc.opts...)
			require.ErrorIs(t, err, model.ErrJobFailed)
			require.Len(t, tc.fetcher.Calls(), tc.calls)
			require.Empty(t, o.done)
			require.Len(t, o.fail, 1)
			require.ErrorIs(t, o.fail[0], model.ErrJobFailed)
			require.Equal(t, []notifytest.Notification{
				{Kind: notify.KindError, Heading: tc.heading, Body: tc.detail},
			}, sink.All())
		})
	}
}

func TestPoll_FetchError(t *testing.T) {
	t.Parallel()
	fetcher := &scripted{err: &model.TransportError{Status: 500, Err: model.ErrResponseNotOK}}
	sink := &notifytest.Sink{}
	p := minion.NewPoller(fetcher, sink, minion.WithInterval(interval))

	var o outcome
	err := p.Poll(t.Context(), "1", o.onDone, o.onFail)
	require.ErrorIs(t, err, model.ErrResponseNotOK)
	require.Len(t, fetcher.Calls(), 1)
	require.Len(t, o.fail, 1)
	require.Empty(t, o.done)
	require.Equal(t, []notify.Kind{notify.KindError}, sink.Kinds())
}

func TestPoll_NilContinuations(t *testing.T) {
	t.Parallel()
	p := minion.NewPoller(&scripted{jobs: states(model.JobFinished)}, &notifytest.Sink{})
	require.NoError(t, p.Poll(t.Context(), "1", nil, nil))
}

func TestSession_Cancel(t *testing.T) {
	t.Parallel()
	fetcher := &scripted{jobs: states(model.JobActive), called: make(chan struct{}, 1)}
	sink := &notifytest.Sink{}
	p := minion.NewPoller(fetcher, sink, minion.WithInterval(time.Hour))

	var mu sync.Mutex
	var o outcome
	s := p.Start(t.Context(), "3",
		func(j model.Job) { mu.Lock(); defer mu.Unlock(); o.onDone(j) },
		func(err error) { mu.Lock(); defer mu.Unlock(); o.onFail(err) },
	)
	require.Equal(t, model.JobID("3"), s.JobID())
	require.NotEmpty(t, s.ID().String())

	<-fetcher.called
	s.Cancel()
	require.ErrorIs(t, s.Wait(), context.Canceled)

	select {
	case <-s.Done():
	default:
		t.Fatal("session is not done after Wait")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Empty(t, o.done)
	require.Len(t, o.fail, 1)
	require.True(t, errors.Is(o.fail[0], context.Canceled))
	require.Equal(t, []notify.Kind{notify.KindWarning}, sink.Kinds())
	require.Len(t, fetcher.Calls(), 1)
}

func TestSession_Finished(t *testing.T) {
	t.Parallel()
	p := minion.NewPoller(&scripted{jobs: states(model.JobQueued, model.JobFinished)}, &notifytest.Sink{}, minion.WithInterval(interval))

	done := make(chan model.Job, 1)
	s := p.Start(t.Context(), "5", func(j model.Job) { done <- j }, func(err error) { t.Errorf("unexpected failure: %v", err) })
	require.NoError(t, s.Wait())
	require.Equal(t, model.JobFinished, (<-done).State)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Started(_ context.Context, id model.JobID, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "start "+kind+" "+id.String())
	return nil
}

func (r *recorder) Finished(_ context.Context, id model.JobID, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "ok"
	if err != nil {
		status = err.Error()
	}
	r.events = append(r.events, "finish "+id.String()+" "+status)
	return errors.New("journal is read only")
}

func TestPoll_Recorder(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	fetcher := &scripted{jobs: []model.Job{{State: model.JobFailed, Result: model.JobResult{Error: "boom"}}}}
	p := minion.NewPoller(fetcher, &notifytest.Sink{}, minion.WithInterval(interval), minion.WithRecorder(rec))

	err := p.Poll(t.Context(), "11", nil, nil, minion.Kind("script:THUMB"))
	require.Error(t, err)
	require.Equal(t, []string{"start script:THUMB 11", "finish 11 boom"}, rec.events)
}
