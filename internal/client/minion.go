package client

import (
	"context"
	"fmt"

	"github.com/lanraragi/lrrctl/internal/model"
)

// FetchJob returns a fresh snapshot of the job. Nothing is reported to the sink.
func (c *Client) FetchJob(ctx context.Context, id model.JobID) (model.Job, error) {
	resp, err := c.Execute(ctx, MinionJob(id), nil)
	if err != nil {
		return model.Job{}, err
	}
	var job model.Job
	if err := resp.Decode(&job); err != nil {
		return model.Job{}, &model.TransportError{Err: fmt.Errorf("%w: %w", model.ErrResponseNotOK, err)}
	}
	if job.ID == "" {
		job.ID = id
	}
	return job, nil
}

// JobReply is the body of every endpoint which queues a Minion job.
type JobReply struct {
	Job model.JobID `json:"job"`
}

// DecodeJob reads the queued job id out of resp.
func DecodeJob(resp model.Response) (model.JobID, error) {
	var reply JobReply
	if err := resp.Decode(&reply); err != nil {
		return "", fmt.Errorf("decoding job id: %w", err)
	}
	if reply.Job == "" {
		return "", fmt.Errorf("server did not return a job id")
	}
	return reply.Job, nil
}
