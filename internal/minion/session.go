package minion

import (
	"context"

	"github.com/google/uuid"

	"github.com/lanraragi/lrrctl/internal/model"
)

// Session is a Poll running in its own goroutine.
type Session struct {
	id     uuid.UUID
	jobID  model.JobID
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start is the non blocking Poll. Cancelling the session ends it as a
// failure, so onFail still runs exactly once.
func (p *Poller) Start(ctx context.Context, id model.JobID, onDone func(model.Job), onFail func(error), opts ...PollOption) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:     uuid.New(),
		jobID:  id,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer cancel()
		s.err = p.poll(ctx, s.id, id, onDone, onFail, opts...)
	}()
	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) JobID() model.JobID {
	return s.jobID
}

// Cancel stops polling. It does not wait, use Wait or Done for that.
func (s *Session) Cancel() {
	s.cancel()
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session ends and returns its error.
func (s *Session) Wait() error {
	<-s.done
	return s.err
}
