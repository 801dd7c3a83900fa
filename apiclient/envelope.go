package apiclient

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

var ErrFieldMissing = errors.New("field missing from response")

// Envelope is the normalized view of a backend response.
// Lookups check `data.<name>` first then the top level, so callers never care which shape the backend used.
type Envelope struct {
	Status    int
	RequestID string

	raw  json.RawMessage
	top  map[string]json.RawMessage // nil when the body is not a JSON object
	data map[string]json.RawMessage // nil when there is no `data` object
}

func newEnvelope(status int, body []byte) (*Envelope, error) {
	env := &Envelope{Status: status, raw: body}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if len(trimmed) > 0 && !json.Valid(trimmed) {
			return nil, errors.New("invalid JSON body")
		}
		return env, nil
	}
	if err := json.Unmarshal(trimmed, &env.top); err != nil {
		return nil, err
	}
	if rawData, ok := env.top["data"]; ok {
		// `data` may legitimately be a list or null; only objects are searched
		_ = json.Unmarshal(rawData, &env.data)
	}
	return env, nil
}

func textEnvelope(status int, text string) *Envelope {
	b, _ := json.Marshal(map[string]interface{}{"success": false, "message": text})
	env, _ := newEnvelope(status, b)
	return env
}

// Raw returns the response body as received (empty for 204 responses).
func (e *Envelope) Raw() json.RawMessage { return e.raw }

// Field returns data.<name>, or the top-level <name>. JSON nulls count as missing.
func (e *Envelope) Field(name string) (json.RawMessage, bool) {
	for _, m := range []map[string]json.RawMessage{e.data, e.top} {
		if v, ok := m[name]; ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func (e *Envelope) Has(name string) bool {
	_, ok := e.Field(name)
	return ok
}

// Decode decodes the named field into v, see Field.
// With an empty name, the `data` object is decoded when present, the whole body otherwise.
func (e *Envelope) Decode(name string, v interface{}) error {
	var raw json.RawMessage
	if name == "" {
		raw = e.raw
		if d, ok := e.top["data"]; ok && e.data != nil {
			raw = d
		}
	} else {
		var ok bool
		if raw, ok = e.Field(name); !ok {
			return errors.Wrapf(ErrFieldMissing, "%q", name)
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.Wrap(ErrFieldMissing, "empty body")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrapf(err, "decoding %q", name)
	}
	return nil
}

// DecodeFirst decodes the first present field of names into v, falling back to Decode("", v).
func (e *Envelope) DecodeFirst(v interface{}, names ...string) error {
	for _, name := range names {
		if e.Has(name) {
			return e.Decode(name, v)
		}
	}
	return e.Decode("", v)
}

func (e *Envelope) Text(name string) string {
	raw, ok := e.Field(name)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Message returns the `message` field, or "".
func (e *Envelope) Message() string { return e.Text("message") }

// MessageOr returns the `message` field, or def when it is empty.
func (e *Envelope) MessageOr(def string) string {
	if msg := e.Message(); msg != "" {
		return msg
	}
	return def
}

// Success returns the top-level `success` flag and whether it was sent at all.
func (e *Envelope) Success() (success, present bool) {
	raw, ok := e.top["success"]
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		// anything but `true` is a failure
		return false, true
	}
	return b, true
}

// errorMessage is the message of a failed response: `message`, then `error`.
func (e *Envelope) errorMessage() string {
	if msg := e.Message(); msg != "" {
		return msg
	}
	if msg := e.Text("error"); msg != "" {
		return msg
	}
	// DRF style
	return e.Text("detail")
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
