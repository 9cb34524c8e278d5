package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/lanraragi/lrrctl/internal/client"
	"github.com/lanraragi/lrrctl/internal/minion"
	"github.com/lanraragi/lrrctl/internal/model"
)

// RegenerateThumbnails queues the thumbnail job and follows it. Controls stay
// disabled until the job ends.
func (o *Ops) RegenerateThumbnails(ctx context.Context, force bool) error {
	var id model.JobID
	_, err := o.caller.Call(ctx, client.Call{
		Route:          client.RegenThumbnails(force),
		SuccessMessage: "Queued up a job to regenerate thumbnails! Stay tuned for updates or check the Minion console.",
		ErrorMessage:   "Error while sending job to Minion:",
		OnSuccess: func(_ context.Context, resp model.Response) error {
			var err error
			id, err = client.DecodeJob(resp)
			return err
		},
	})
	if err != nil {
		return err
	}

	o.view.SetControlsEnabled(false)
	return o.tracker.Poll(ctx, id,
		func(job model.Job) {
			o.view.SetControlsEnabled(true)
			o.sink.Success("All thumbnails generated! Encountered the following errors:", job.Result.ErrorsText())
		},
		func(error) {
			o.view.SetControlsEnabled(true)
		},
		minion.FailureHeading("The thumbnail regen job failed!"),
		minion.Kind(model.TaskRegenerateThumbs),
	)
}

// WaitJob follows any Minion job until it ends.
func (o *Ops) WaitJob(ctx context.Context, id model.JobID) (model.Job, error) {
	var done model.Job
	err := o.tracker.Poll(ctx, id,
		func(job model.Job) {
			done = job
			var body string
			if len(job.Result.Data) > 0 {
				body = job.Result.PrettyData()
			}
			if errs := job.Result.ErrorsText(); errs != "" {
				body = strings.TrimSpace(body + "\n" + errs)
			}
			o.sink.Success(fmt.Sprintf("Job %s finished!", id), body)
		},
		nil,
		minion.Kind("wait"),
	)
	return done, err
}
