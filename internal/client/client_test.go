package client_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lanraragi/lrrctl/internal/client"
	"github.com/lanraragi/lrrctl/internal/model"
	"github.com/lanraragi/lrrctl/internal/notify"
	"github.com/lanraragi/lrrctl/internal/notify/notifytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.HandlerFunc, opts ...client.Option) (*client.Client, *notifytest.Sink) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	sink := &notifytest.Sink{}
	c, err := client.New(srv.URL, sink, opts...)
	require.NoError(t, err)
	return c, sink
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func TestNew_InvalidURL(t *testing.T) {
	t.Parallel()
	_, err := client.New("localhost:3000/", &notifytest.Sink{})
	require.Error(t, err)
}

func TestExecute_Headers(t *testing.T) {
	t.Parallel()
	var got http.Header
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		assert.Equal(t, "/api/search/cache", r.URL.Path)
		assert.Equal(t, http.MethodDelete, r.Method)
		_, _ = io.WriteString(w, `{"operation":"clear_cache","success":1}`)
	}, client.WithAPIKey("secret"))

	_, err := c.Execute(t.Context(), client.SearchCache(), nil)
	require.NoError(t, err)
	require.Equal(t, "application/json", got.Get("Accept"))
	require.Equal(t, "Bearer "+base64.StdEncoding.EncodeToString([]byte("secret")), got.Get("Authorization"))
}

func TestExecute(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario string
		handler  http.HandlerFunc
		then     func(t *testing.T, resp model.Response, err error)
	}{
		{
			scenario: "success as number",
			handler:  jsonBody(`{"success":1,"newsize":0.5}`),
			then: func(t *testing.T, resp model.Response, err error) {
				require.NoError(t, err)
				require.True(t, resp.OK())
				require.JSONEq(t, `{"success":1,"newsize":0.5}`, string(resp.Raw()))
			},
		},
		{
			scenario: "no success field",
			handler:  jsonBody(`{"state":"finished"}`),
			then: func(t *testing.T, resp model.Response, err error) {
				require.NoError(t, err)
				require.True(t, resp.OK())
			},
		},
		{
			scenario: "success false",
			handler:  jsonBody(`{"success":"0","error":"no such archive"}`),
			then: func(t *testing.T, resp model.Response, err error) {
				var appErr *model.ApplicationError
				require.ErrorAs(t, err, &appErr)
				require.Equal(t, "no such archive", appErr.Message)
				require.False(t, resp.OK())
			},
		},
		{
			scenario: "success null",
			handler:  jsonBody(`{"success":null,"error":"x"}`),
			then: func(t *testing.T, resp model.Response, err error) {
				var appErr *model.ApplicationError
				require.ErrorAs(t, err, &appErr)
				require.Equal(t, "x", appErr.Message)
				require.False(t, resp.OK())
			},
		},
		{
			scenario: "null body",
			handler:  jsonBody(`null`),
			then: func(t *testing.T, resp model.Response, err error) {
				var trErr *model.TransportError
				require.ErrorAs(t, err, &trErr)
				require.ErrorIs(t, err, model.ErrResponseNotOK)
				require.False(t, resp.OK())
			},
		},
		{
			scenario: "array body",
			handler:  jsonBody(`[{"success":1}]`),
			then: func(t *testing.T, resp model.Response, err error) {
				require.ErrorIs(t, err, model.ErrResponseNotOK)
				require.False(t, resp.OK())
			},
		},
		{
			scenario: "status not OK",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"success":0}`, http.StatusInternalServerError)
			},
			then: func(t *testing.T, resp model.Response, err error) {
				var trErr *model.TransportError
				require.ErrorAs(t, err, &trErr)
				require.Equal(t, http.StatusInternalServerError, trErr.Status)
				require.ErrorIs(t, err, model.ErrResponseNotOK)
				require.Equal(t, model.NotOK().Error, resp.Error)
				require.False(t, resp.OK())
			},
		},
		{
			scenario: "not JSON",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "<html>login</html>")
			},
			then: func(t *testing.T, resp model.Response, err error) {
				require.ErrorIs(t, err, model.ErrResponseNotOK)
				require.Equal(t, "Response was not OK", resp.Error)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			c, sink := newClient(t, tc.handler)
			resp, err := c.Execute(t.Context(), client.CleanDatabase(), nil)
			tc.then(t, resp, err)
			require.Empty(t, sink.All())
		})
	}
}

func TestExecute_NetworkError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := client.New(srv.URL, &notifytest.Sink{})
	require.NoError(t, err)
	resp, err := c.Execute(t.Context(), client.TempFolder(), nil)
	var trErr *model.TransportError
	require.ErrorAs(t, err, &trErr)
	require.Zero(t, trErr.Status)
	require.False(t, resp.OK())
}

func TestCall_Success(t *testing.T) {
	t.Parallel()
	const body = `{"operation":"cleantemp","success":1,"newsize":12.5}`
	c, sink := newClient(t, jsonBody(body))

	var calls int
	_, err := c.Call(t.Context(), client.Call{
		Route:          client.TempFolder(),
		SuccessMessage: "Temporary Folder Cleaned!",
		ErrorMessage:   "Error while cleaning Temporary Folder :",
		OnSuccess: func(_ context.Context, resp model.Response) error {
			calls++
			require.JSONEq(t, body, string(resp.Raw()))
			return nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, []notifytest.Notification{
		{Kind: notify.KindSuccess, Heading: "Temporary Folder Cleaned!"},
	}, sink.All())
}

func TestCall_Failure(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario string
		handler  http.HandlerFunc
		detail   string
	}{
		{
			scenario: "application",
			handler:  jsonBody(`{"success":false,"error":"locked"}`),
			detail:   "locked",
		},
		{
			scenario: "transport",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			detail: "Response was not OK (status 502)",
		},
		{
			scenario: "success null",
			handler:  jsonBody(`{"success":null,"error":"x"}`),
			detail:   "x",
		},
		{
			scenario: "null body",
			handler:  jsonBody(`null`),
			detail:   "Response was not OK (status 200)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			c, sink := newClient(t, tc.handler)
			_, err := c.Call(t.Context(), client.Call{
				Route:          client.NewFlags(),
				SuccessMessage: "All archives are no longer new!",
				ErrorMessage:   "Error while clearing flags! Check Logs.",
				OnSuccess: func(context.Context, model.Response) error {
					t.Fatal("OnSuccess must not run")
					return nil
				},
			})
			require.Error(t, err)
			require.Equal(t, []notifytest.Notification{
				{Kind: notify.KindError, Heading: "Error while clearing flags! Check Logs.", Body: tc.detail},
			}, sink.All())
		})
	}
}

func TestCall_OnSuccessError(t *testing.T) {
	t.Parallel()
	c, sink := newClient(t, jsonBody(`{"success":1}`))
	boom := errors.New("boom")
	_, err := c.Call(t.Context(), client.Call{
		Route:        client.DropDatabase(),
		ErrorMessage: "Error while resetting the database? Check Logs.",
		OnSuccess: func(context.Context, model.Response) error {
			return boom
		},
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, []notify.Kind{notify.KindError}, sink.Kinds())
}

func TestSaveForm(t *testing.T) {
	t.Parallel()
	c, sink := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/config/plugins", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "5", r.PostFormValue("THUMB_ARG"))
		assert.Equal(t, "1", r.PostFormValue("THUMB_enabled"))
		_, _ = io.WriteString(w, `{"success":1}`)
	})

	form := client.Values{"THUMB_ARG": {"5"}, "THUMB_enabled": {"1"}}
	require.Equal(t, "5", form.Arg("THUMB"))
	require.NoError(t, c.SaveForm(t.Context(), "/config/plugins", form))
	require.Equal(t, []notifytest.Notification{
		{Kind: notify.KindSuccess, Heading: "Saved Successfully!"},
	}, sink.All())
}

func TestFetchJob(t *testing.T) {
	t.Parallel()
	c, sink := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/minion/42", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":42,"state":"finished","task":"regen_all_thumbnails","result":{"success":1,"errors":"none"}}`)
	})

	job, err := c.FetchJob(t.Context(), "42")
	require.NoError(t, err)
	require.Equal(t, model.JobID("42"), job.ID)
	require.Equal(t, model.JobFinished, job.State)
	require.True(t, bool(job.Result.Success))
	require.Equal(t, "none", job.Result.ErrorsText())
	require.Empty(t, sink.All())
}

func TestRoutes(t *testing.T) {
	t.Parallel()
	require.Equal(t, client.Route{Method: http.MethodPost, Path: "/api/plugins/queue?arg=5&plugin=THUMB"}, client.PluginQueue("THUMB", "5"))
	require.Equal(t, "/api/regen_thumbs?force=1", client.RegenThumbnails(true).Path)
	require.Equal(t, "/api/regen_thumbs?force=0", client.RegenThumbnails(false).Path)
	require.Equal(t, client.Route{Method: http.MethodPut, Path: "/api/categories/SET_1/a%2Fb"}, client.AddToCategory("SET_1", "a/b"))
	require.Equal(t, "/api/minion/abc", client.MinionJob("abc").Path)
}

func TestExecute_EscapedPath(t *testing.T) {
	t.Parallel()
	var got string
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.EscapedPath()
		_, _ = io.WriteString(w, `{"success":1}`)
	})
	_, err := c.Execute(t.Context(), client.AddToCategory("SET_1", "a/b"), nil)
	require.NoError(t, err)
	require.Equal(t, "/api/categories/SET_1/a%2Fb", got)
}
