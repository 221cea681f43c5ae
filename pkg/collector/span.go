package collector

import (
	"crypto/rand"
	"encoding/hex"
	"sync/atomic"
	"time"

	"houdini-hq/houdini/pkg/item"
)

// Span is an in-flight timed operation. It is a one-shot handle: the first
// FinishTrace consumes it and later finishes are ignored. A nil *Span is the
// empty handle returned when tracing is disabled or the trace was sampled
// out; every method and FinishTrace accept it.
type Span struct {
	operationName string
	traceID       string
	spanID        string
	parentSpanID  string
	attributes    item.Fields
	start         time.Time

	finished atomic.Bool
}

// OperationName returns the span's operation name.
func (s *Span) OperationName() string {
	if s == nil {
		return ""
	}
	return s.operationName
}

// TraceID returns the 32-character hex trace ID.
func (s *Span) TraceID() string {
	if s == nil {
		return ""
	}
	return s.traceID
}

// SpanID returns the 16-character hex span ID.
func (s *Span) SpanID() string {
	if s == nil {
		return ""
	}
	return s.spanID
}

// ParentSpanID returns the remote parent span ID, if any.
func (s *Span) ParentSpanID() string {
	if s == nil {
		return ""
	}
	return s.parentSpanID
}

// StartTime returns the wall-clock start time.
func (s *Span) StartTime() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.start
}

// Finished reports whether the span has been consumed.
func (s *Span) Finished() bool {
	return s != nil && s.finished.Load()
}

// SpanOption configures StartTrace.
type SpanOption func(*spanOptions)

type spanOptions struct {
	traceID      string
	parentSpanID string
}

// WithRemoteParent continues an inbound trace: the new span reuses traceID
// and records spanID as its parent. Malformed IDs are ignored.
func WithRemoteParent(traceID, spanID string) SpanOption {
	return func(o *spanOptions) {
		if !validID(traceID, 16) || !validID(spanID, 8) {
			return
		}
		o.traceID = traceID
		o.parentSpanID = spanID
	}
}

// newSpan builds a span with fresh IDs.
func newSpan(operationName string, attributes item.Fields, opts []SpanOption) *Span {
	var o spanOptions
	for _, opt := range opts {
		opt(&o)
	}

	traceID := o.traceID
	if traceID == "" {
		traceID = randomHex(16)
	}

	return &Span{
		operationName: operationName,
		traceID:       traceID,
		spanID:        randomHex(8),
		parentSpanID:  o.parentSpanID,
		attributes:    attributes.Clone(),
		start:         time.Now(),
	}
}

// toTrace converts the span into a trace payload ending at end.
func (s *Span) toTrace(end time.Time, extra item.Fields) item.Trace {
	// Sub uses the monotonic clock when both readings carry one.
	duration := end.Sub(s.start)
	if duration < 0 {
		duration = 0
	}

	return item.Trace{
		OperationName: s.operationName,
		TraceID:       s.traceID,
		SpanID:        s.spanID,
		ParentSpanID:  s.parentSpanID,
		Attributes:    s.attributes.Merge(extra),
		StartTime:     item.Timestamp(s.start),
		EndTime:       item.Timestamp(end),
		Duration:      duration.Seconds(),
		Timestamp:     item.Timestamp(end),
	}
}

// randomHex returns n random bytes as lowercase hex.
func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// validID reports whether id is n bytes of lowercase hex and not all zeros.
func validID(id string, n int) bool {
	if len(id) != 2*n {
		return false
	}
	zero := true
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c == '0':
		case c >= '1' && c <= '9', c >= 'a' && c <= 'f':
			zero = false
		default:
			return false
		}
	}
	return !zero
}
