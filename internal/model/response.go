package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Flag is the success discriminator of the server's responses. The server is
// not consistent about its representation, so true/false, 0/1 and "0"/"1"
// are all accepted and mean the same thing. null decodes as false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch raw {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	case "false", "0", `"0"`, `"false"`, `""`, "null":
		*f = false
	default:
		return fmt.Errorf("unsupported success value %s", raw)
	}
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// Response is the envelope every API endpoint answers with:
//
//	{ "success": 1, "error": "...", ...payload }
//
// The endpoint specific payload stays in the raw body and can be read with Decode.
type Response struct {
	Success *Flag  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`

	raw json.RawMessage
}

// NotOK is the shape a transport failure is normalized to.
func NotOK() Response {
	f := Flag(false)
	return Response{Success: &f, Error: ErrResponseNotOK.Error()}
}

var errNotObject = errors.New("response body is not a JSON object")

// UnmarshalJSON accepts JSON objects only. A success field which is present,
// including as null, is decoded with Flag semantics.
func (r *Response) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || raw[0] != '{' {
		return errNotObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	var plain struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &plain); err != nil {
		return err
	}

	out := Response{Error: plain.Error, Message: plain.Message}
	if v, ok := fields["success"]; ok {
		var f Flag
		if len(v) > 0 {
			if err := f.UnmarshalJSON(v); err != nil {
				return err
			}
		}
		out.Success = &f
	}
	out.raw = append(json.RawMessage(nil), raw...)
	*r = out
	return nil
}

// ParseResponse decodes body into a Response and keeps body for Decode.
func ParseResponse(body []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(body, &r); err != nil {
		return Response{}, err
	}
	return r, nil
}

// OK reports whether the server considers the call successful. A body
// without a success field is a success, a null one is not.
func (r Response) OK() bool {
	return r.Success == nil || bool(*r.Success)
}

// Failure returns the server provided reason of a failed call.
func (r Response) Failure() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}

// Raw returns the body exactly as it was received.
func (r Response) Raw() json.RawMessage {
	return r.raw
}

// Decode unmarshals the raw body into v.
func (r Response) Decode(v any) error {
	if len(r.raw) == 0 {
		return fmt.Errorf("empty response body")
	}
	dec := json.NewDecoder(bytes.NewReader(r.raw))
	dec.UseNumber()
	return dec.Decode(v)
}
