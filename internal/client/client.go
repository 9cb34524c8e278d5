// Package client talks to the server's JSON API. Every call goes through
// Execute, which turns transport and application failures into typed errors,
// and Call, which reports the outcome of one call to a notify.Sink.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lanraragi/lrrctl/internal/model"
	"github.com/lanraragi/lrrctl/internal/notify"
)

// maximum body size read from the server
const maxBody = 32 << 20

type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	sink   notify.Sink
}

type Option func(*Client)

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(serverURL string, sink notify.Sink, opts ...Option) (*Client, error) {
	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, errors.New("please define the server url with a scheme, e.g. `http://localhost:3000`")
	}
	parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")
	parsedURL.RawQuery = ""

	c := &Client{
		base: parsedURL,
		http: &http.Client{Timeout: model.DefaultTimeout},
		sink: sink,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Sink returns the sink Call reports to.
func (c *Client) Sink() notify.Sink {
	return c.sink
}

func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = c.base.EscapedPath() + "/" + strings.TrimLeft(ref.EscapedPath(), "/")
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

// Execute sends exactly one request.
//
// A network error, a non 2xx status or a body which is not JSON is returned
// as *model.TransportError together with model.NotOK(). A JSON body carrying
// a false success flag is returned as *model.ApplicationError together with
// the decoded response.
func (c *Client) Execute(ctx context.Context, route Route, body Form) (model.Response, error) {
	target, err := c.resolve(route.Path)
	if err != nil {
		return model.NotOK(), &model.TransportError{Err: err}
	}

	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		contentType, reader, err = body.Encode()
		if err != nil {
			return model.NotOK(), &model.TransportError{Err: fmt.Errorf("encoding request body: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, target, reader)
	if err != nil {
		return model.NotOK(), &model.TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+base64.StdEncoding.EncodeToString([]byte(c.apiKey)))
	}

	slog.DebugContext(ctx, "request", "method", route.Method, "endpoint", route.Path)
	resp, err := c.http.Do(req)
	if err != nil {
		return model.NotOK(), &model.TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return model.NotOK(), &model.TransportError{Status: resp.StatusCode, Err: model.ErrResponseNotOK}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return model.NotOK(), &model.TransportError{Status: resp.StatusCode, Err: err}
	}
	decoded, err := model.ParseResponse(bytes.TrimSpace(raw))
	if err != nil {
		slog.DebugContext(ctx, "response is not JSON", "endpoint", route.Path, "error", err)
		return model.NotOK(), &model.TransportError{Status: resp.StatusCode, Err: model.ErrResponseNotOK}
	}
	if !decoded.OK() {
		return decoded, &model.ApplicationError{Message: decoded.Failure()}
	}
	return decoded, nil
}

// Call is one Execute bound to the messages reported for it.
type Call struct {
	Route
	Body Form

	// SuccessMessage is reported before OnSuccess runs, unless empty.
	SuccessMessage string
	// ErrorMessage is the heading of the error notification.
	ErrorMessage string
	// OnSuccess receives the decoded body. A returned error is reported
	// like any other failure of the call.
	OnSuccess func(ctx context.Context, resp model.Response) error
}

// Call runs call and reports its outcome. On failure exactly one error is
// reported and OnSuccess is not invoked. The error is returned as well, it
// must not be reported again by the caller.
func (c *Client) Call(ctx context.Context, call Call) (model.Response, error) {
	resp, err := c.Execute(ctx, call.Route, call.Body)
	if err == nil {
		if call.SuccessMessage != "" {
			c.sink.Success(call.SuccessMessage, "")
		}
		if call.OnSuccess != nil {
			err = call.OnSuccess(ctx, resp)
		}
	}
	if err != nil {
		slog.DebugContext(ctx, "call failed", "endpoint", call.Path, "error", err)
		c.sink.Error(call.ErrorMessage, err.Error())
		return resp, err
	}
	return resp, nil
}
