package item

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind discriminates the payload carried in telemetry_data.
type Kind string

const (
	KindTrace                Kind = "trace"
	KindMetric               Kind = "metric"
	KindLog                  Kind = "log"
	KindException            Kind = "exception"
	KindHTTPRequest          Kind = "http_request"
	KindMessage              Kind = "message"
	KindCapturedError        Kind = "captured_error"
	KindCapturedErrorMessage Kind = "captured_error_message"
	KindBreadcrumb           Kind = "breadcrumb"
	KindUserContext          Kind = "user_context"
	KindExtraContext         Kind = "extra_context"
	KindTag                  Kind = "tag"
)

// Kinds lists every payload kind in a stable order.
var Kinds = []Kind{
	KindTrace,
	KindMetric,
	KindLog,
	KindException,
	KindHTTPRequest,
	KindMessage,
	KindCapturedError,
	KindCapturedErrorMessage,
	KindBreadcrumb,
	KindUserContext,
	KindExtraContext,
	KindTag,
}

// Payload is implemented by every telemetry_data variant.
type Payload interface {
	Kind() Kind
}

// Item is one unit of telemetry ready for transmission.
type Item struct {
	// ProjectID identifies the project on the backend. May be empty.
	ProjectID string

	// Data is the kind-specific payload.
	Data Payload

	// Metadata describes the emitting service.
	Metadata Metadata
}

// Metadata carries the service identity and the record time of an item.
type Metadata struct {
	ServiceName    string    `json:"service_name"`
	ServiceVersion string    `json:"service_version"`
	Timestamp      Timestamp `json:"timestamp"`
}

// New assembles an item from its parts.
func New(projectID string, meta Metadata, data Payload) Item {
	return Item{
		ProjectID: projectID,
		Data:      data,
		Metadata:  meta,
	}
}

// Kind returns the payload kind, or "" when the item carries no payload.
func (i Item) Kind() Kind {
	if i.Data == nil {
		return ""
	}
	return i.Data.Kind()
}

// MarshalJSON encodes the item in the flat project_id/telemetry_data/metadata
// shape, with the payload's "type" discriminator written first.
func (i Item) MarshalJSON() ([]byte, error) {
	if i.Data == nil {
		return nil, fmt.Errorf("item has no telemetry data")
	}

	data, err := marshalPayload(i.Data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(struct {
		ProjectID string          `json:"project_id"`
		Data      json.RawMessage `json:"telemetry_data"`
		Metadata  Metadata        `json:"metadata"`
	}{
		ProjectID: i.ProjectID,
		Data:      data,
		Metadata:  i.Metadata,
	})
}

// marshalPayload encodes p and splices the "type" member into the object.
func marshalPayload(p Payload) ([]byte, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", p.Kind(), err)
	}

	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("%s payload must encode as a JSON object", p.Kind())
	}

	kind, err := json.Marshal(string(p.Kind()))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(kind) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(kind)
	if rest := bytes.TrimSpace(body[1:]); len(rest) > 0 && rest[0] != '}' {
		buf.WriteByte(',')
	}
	buf.Write(body[1:])
	return buf.Bytes(), nil
}

// Timestamp is a wall-clock instant encoded as fractional Unix seconds.
type Timestamp time.Time

// Now returns the current wall-clock time as a Timestamp.
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the timestamp as a time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// Seconds returns fractional Unix seconds with microsecond precision.
func (t Timestamp) Seconds() float64 {
	return float64(time.Time(t).UnixMicro()) / 1e6
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, t.Seconds(), 'f', 6, 64), nil
}

// Fields is a free-form attribute or context map. A nil Fields encodes as an
// empty object rather than null.
type Fields map[string]any

// MarshalJSON implements json.Marshaler.
func (f Fields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(f))
}

// Clone returns a shallow copy of f. The copy is never nil.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge returns a new map holding f overlaid with extra; keys in extra win.
func (f Fields) Merge(extra Fields) Fields {
	out := make(Fields, len(f)+len(extra))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
