package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type JobState string

const (
	JobQueued   JobState = "queued"
	JobActive   JobState = "active"
	JobInactive JobState = "inactive"
	JobFinished JobState = "finished"
	JobFailed   JobState = "failed"
)

// Terminal returns true for states no further transition happens from.
func (s JobState) Terminal() bool {
	return s == JobFinished || s == JobFailed
}

// JobID is the opaque job identifier. Minion hands out numbers, but the id is
// only ever echoed back, so it is kept as a string.
type JobID string

func (id *JobID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = JobID(s)
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return fmt.Errorf("invalid job id %s", raw)
	}
	*id = JobID(raw)
	return nil
}

func (id JobID) String() string {
	return string(id)
}

// Job is one snapshot of GET /api/minion/{id}.
type Job struct {
	ID     JobID           `json:"id"`
	Task   string          `json:"task,omitempty"`
	State  JobState        `json:"state"`
	Result JobResult       `json:"result"`
	Error  string          `json:"error,omitempty"`
	Notes  json.RawMessage `json:"notes,omitempty"`
}

// Err returns a *JobFailure when the snapshot carries a top-level error or the
// job is in the failed state, nil otherwise.
func (j Job) Err() error {
	switch {
	case j.Error != "":
		return &JobFailure{JobID: j.ID, Message: j.Error}
	case j.State == JobFailed:
		msg := j.Result.Error
		if msg == "" {
			msg = fmt.Sprintf("job %s failed", j.ID)
		}
		return &JobFailure{JobID: j.ID, Message: msg}
	}
	return nil
}

// JobResult is endpoint specific, but always carries a success discriminator.
type JobResult struct {
	Success Flag            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Errors  json.RawMessage `json:"errors,omitempty"`
}

// UnmarshalJSON also accepts a bare string, which is how Minion stores the
// exception of a failed job.
func (r *JobResult) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		*r = JobResult{}
		return nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*r = JobResult{Error: s}
		return nil
	}

	type plain JobResult
	var p plain
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	*r = JobResult(p)
	return nil
}

// PrettyData returns Data indented by four spaces.
func (r JobResult) PrettyData() string {
	if len(r.Data) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Data, "", "    "); err != nil {
		return string(r.Data)
	}
	return buf.String()
}

// ErrorsText renders Errors, which is either a string or a JSON value.
func (r JobResult) ErrorsText() string {
	if len(r.Errors) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Errors, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, r.Errors); err != nil {
		return string(r.Errors)
	}
	return buf.String()
}
