// Package ops holds the single-shot maintenance operations of the server.
// Each one is a client.Call with its messages bound, some of them followed
// by a Minion job.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lanraragi/lrrctl/internal/client"
	"github.com/lanraragi/lrrctl/internal/minion"
	"github.com/lanraragi/lrrctl/internal/model"
	"github.com/lanraragi/lrrctl/internal/notify"
)

const DefaultConcurrency = 4

type Caller interface {
	Call(ctx context.Context, call client.Call) (model.Response, error)
	Execute(ctx context.Context, route client.Route, body client.Form) (model.Response, error)
}

type Tracker interface {
	Poll(ctx context.Context, id model.JobID, onDone func(model.Job), onFail func(error), opts ...minion.PollOption) error
}

type Ops struct {
	caller      Caller
	tracker     Tracker
	sink        notify.Sink
	view        notify.View
	concurrency int
}

type Option func(*Ops)

func WithView(v notify.View) Option {
	return func(o *Ops) { o.view = v }
}

// WithConcurrency bounds the requests of batch operations.
func WithConcurrency(n int) Option {
	return func(o *Ops) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func New(caller Caller, tracker Tracker, sink notify.Sink, opts ...Option) *Ops {
	o := &Ops{
		caller:      caller,
		tracker:     tracker,
		sink:        sink,
		view:        notify.NopView{},
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CleanTempFolder empties the temporary folder and returns its new size in MB.
func (o *Ops) CleanTempFolder(ctx context.Context) (float64, error) {
	var size float64
	_, err := o.caller.Call(ctx, client.Call{
		Route:          client.TempFolder(),
		SuccessMessage: "Temporary Folder Cleaned!",
		ErrorMessage:   "Error while cleaning Temporary Folder :",
		OnSuccess: func(_ context.Context, resp model.Response) error {
			var reply struct {
				NewSize json.Number `json:"newsize"`
			}
			if err := resp.Decode(&reply); err != nil {
				return err
			}
			if reply.NewSize == "" {
				return nil
			}
			var err error
			size, err = reply.NewSize.Float64()
			return err
		},
	})
	return size, err
}

func (o *Ops) InvalidateCache(ctx context.Context) error {
	_, err := o.caller.Call(ctx, client.Call{
		Route:          client.SearchCache(),
		SuccessMessage: "Threw away the Search Cache!",
		ErrorMessage:   "Error while deleting cache! Check Logs.",
	})
	return err
}

func (o *Ops) ClearNewFlags(ctx context.Context) error {
	_, err := o.caller.Call(ctx, client.Call{
		Route:          client.NewFlags(),
		SuccessMessage: "All archives are no longer new!",
		ErrorMessage:   "Error while clearing flags! Check Logs.",
	})
	return err
}

// DropDatabase resets the whole database. Callers confirm with the user first.
func (o *Ops) DropDatabase(ctx context.Context) error {
	_, err := o.caller.Call(ctx, client.Call{
		Route:          client.DropDatabase(),
		SuccessMessage: "Sayonara! The database has been reset.",
		ErrorMessage:   "Error while resetting the database? Check Logs.",
	})
	return err
}

type CleanResult struct {
	Deleted  int `json:"deleted"`
	Unlinked int `json:"unlinked"`
}

// CleanDatabase removes entries whose file is gone. Entries unlinked by this
// run are only deleted by the next one, which is worth a persistent warning.
func (o *Ops) CleanDatabase(ctx context.Context) (CleanResult, error) {
	var res CleanResult
	_, err := o.caller.Call(ctx, client.Call{
		Route:        client.CleanDatabase(),
		ErrorMessage: "Error while cleaning the database! Check Logs.",
		OnSuccess: func(_ context.Context, resp model.Response) error {
			if err := resp.Decode(&res); err != nil {
				return err
			}
			o.sink.Success(fmt.Sprintf("Successfully cleaned the database and removed %d entries!", res.Deleted), "")
			if res.Unlinked > 0 {
				o.sink.Warning(
					fmt.Sprintf("%d other entries have been unlinked from the database and will be deleted on the next cleanup!", res.Unlinked),
					"Do a backup now if some files disappeared from your archive index.",
					true,
				)
			}
			return nil
		},
	})
	return res, err
}

// DeleteArchive deletes the archive metadata and file. A false success flag
// means only the file could not be removed, which is a warning, not an error.
func (o *Ops) DeleteArchive(ctx context.Context, id string) (string, error) {
	resp, err := o.caller.Execute(ctx, client.DeleteArchive(id), nil)
	var appErr *model.ApplicationError
	switch {
	case errors.As(err, &appErr):
		o.sink.Warning(
			"Couldn't delete archive file. (Maybe it has already been deleted beforehand?)",
			"Archive metadata has been deleted properly. Please delete the file manually.",
			true,
		)
		return "", nil
	case err != nil:
		o.sink.Error("Error while deleting archive", err.Error())
		return "", err
	}

	var reply struct {
		Filename string `json:"filename"`
	}
	if err := resp.Decode(&reply); err != nil {
		o.sink.Error("Error while deleting archive", err.Error())
		return "", err
	}
	o.sink.Success("Archive successfully deleted.", "File name : "+reply.Filename)
	return reply.Filename, nil
}
