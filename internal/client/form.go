package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/url"
	"slices"
)

// Form produces a request body. Its content is opaque to the client.
type Form interface {
	Encode() (contentType string, body io.Reader, err error)
}

// Values is a form made of plain fields, sent as multipart/form-data.
type Values url.Values

// Encode writes the fields in key order.
func (v Values) Encode() (string, io.Reader, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, val := range v[k] {
			if err := w.WriteField(k, val); err != nil {
				return "", nil, err
			}
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, err
	}
	return w.FormDataContentType(), &buf, nil
}

// Arg returns the argument field of the plugin namespace.
func (v Values) Arg(namespace string) string {
	return url.Values(v).Get(namespace + "_ARG")
}

// SaveForm posts form to path.
func (c *Client) SaveForm(ctx context.Context, path string, form Form) error {
	_, err := c.Call(ctx, Call{
		Route:          FormPost(path),
		Body:           form,
		SuccessMessage: "Saved Successfully!",
		ErrorMessage:   "Error while saving",
	})
	return err
}
