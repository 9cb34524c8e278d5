package model

import (
	"errors"
	"fmt"
)

var (
	ErrResponseNotOK = errors.New("Response was not OK")
	ErrJobFailed     = errors.New("minion job failed")
)

// TransportError is a network failure, a non-OK status or a body which is not JSON.
type TransportError struct {
	Status int // 0 when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Err, e.Status)
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError is a well formed response carrying success: false.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return "request failed"
	}
	return e.Message
}

// JobFailure is a Minion job which reached the failed state or reported an error.
type JobFailure struct {
	JobID   JobID
	Message string
}

func (e *JobFailure) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("job %s failed", e.JobID)
	}
	return e.Message
}

func (e *JobFailure) Is(target error) bool {
	return target == ErrJobFailed
}
