package collector

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"houdini-hq/houdini/pkg/item"
)

// StartTrace opens a span. It returns nil when tracing is disabled or the
// trace is sampled out; FinishTrace accepts the nil span.
func (c *Collector) StartTrace(operationName string, attributes item.Fields, opts ...SpanOption) *Span {
	if !c.enabled || !c.tracesEnabled || !c.sampled() {
		return nil
	}
	return newSpan(operationName, attributes, opts)
}

// FinishTrace closes span and records it as a trace item with extra merged
// over the start attributes. A span can be finished only once.
func (c *Collector) FinishTrace(span *Span, extra item.Fields) {
	if span == nil || !c.tracesEnabled {
		return
	}
	if !span.finished.CompareAndSwap(false, true) {
		c.logger.Debug("span already finished, ignoring",
			"operation", span.operationName,
			"span_id", span.spanID,
		)
		return
	}

	end := time.Now()
	c.enqueue(item.Timestamp(end), span.toTrace(end, extra))
}

// RecordMetric records one observation of a named value.
func (c *Collector) RecordMetric(name string, value float64, attributes item.Fields) {
	if !c.metricsEnabled {
		return
	}
	now := item.Now()
	c.enqueue(now, item.Metric{
		Name:       name,
		Value:      value,
		Attributes: attributes,
		Timestamp:  now,
	})
}

// RecordLog records an application log entry when logs are enabled and level
// is one of the configured levels.
func (c *Collector) RecordLog(level, message string, fields item.Fields) {
	if !c.logsEnabled || !c.acceptsLevel(level) {
		return
	}
	now := item.Now()
	c.enqueue(now, item.Log{
		Level:     level,
		Message:   message,
		Context:   fields,
		Timestamp: now,
	})
}

// RecordException records an error observed by a lifecycle hook. It is not
// subject to any category flag. The reported location is the innermost
// *StackError in err's chain, or the caller of RecordException.
func (c *Collector) RecordException(err error, fields item.Fields) {
	if err == nil || !c.enabled {
		return
	}
	d := describeError(err, 1)
	now := item.Now()
	c.enqueue(now, item.Exception{
		Class:     d.class,
		Message:   d.message,
		File:      d.file,
		Line:      d.line,
		Trace:     d.trace,
		Context:   fields,
		Timestamp: now,
	})
}

// RecordHTTPRequest records a served request. Sensitive headers are redacted
// before the item is built.
func (c *Collector) RecordHTTPRequest(method, url string, statusCode int, durationSeconds float64, headers http.Header) {
	if !c.enabled {
		return
	}
	now := item.Now()
	c.enqueue(now, item.HTTPRequest{
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Duration:   durationSeconds,
		Headers:    SanitizeHeaders(headers),
		Timestamp:  now,
	})
}

// CaptureMessage records a manually captured message and, when logs are
// enabled and level is accepted, writes it to the application logger.
func (c *Collector) CaptureMessage(message, level string, fields item.Fields) {
	if !c.enabled {
		return
	}
	now := item.Now()
	c.enqueue(now, item.Message{
		Message:          message,
		Level:            level,
		Context:          fields,
		CapturedManually: true,
		Timestamp:        now,
	})

	if c.logsEnabled && c.acceptsLevel(level) {
		c.appLogger.Log(context.Background(), slogLevel(level), message, fieldAttrs(fields)...)
	}
}

// CaptureError records a manually captured error, counts it in
// errors.captured.count and logs it at error level.
func (c *Collector) CaptureError(err error, fields item.Fields) {
	if err == nil || !c.enabled {
		return
	}
	d := describeError(err, 1)
	now := item.Now()
	c.enqueue(now, item.CapturedError{
		Class:            d.class,
		Message:          d.message,
		File:             d.file,
		Line:             d.line,
		Trace:            d.trace,
		Context:          fields,
		CapturedManually: true,
		Timestamp:        now,
	})

	c.RecordMetric("errors.captured.count", 1.0, item.Fields{
		"exception_class":   d.class,
		"manually_captured": true,
	})

	c.appLogger.Error("Manually captured error: "+d.message,
		"exception_class", d.class,
		"file", d.file,
		"line", d.line,
		slog.Any("context", fields),
	)
}

// CaptureErrorMessage records an error described only by a message.
func (c *Collector) CaptureErrorMessage(message string, fields item.Fields) {
	if !c.enabled {
		return
	}
	now := item.Now()
	c.enqueue(now, item.CapturedErrorMessage{
		Message:          message,
		Context:          fields,
		CapturedManually: true,
		Timestamp:        now,
	})

	c.RecordMetric("errors.captured.count", 1.0, item.Fields{
		"type":              "error_message",
		"manually_captured": true,
	})

	c.appLogger.Error("Manually captured error message: "+message, fieldAttrs(fields)...)
}

// CaptureBreadcrumb records a breadcrumb. Empty category and level default
// to "default" and "info".
func (c *Collector) CaptureBreadcrumb(message, category, level string, data item.Fields) {
	if category == "" {
		category = "default"
	}
	if level == "" {
		level = "info"
	}
	now := item.Now()
	c.enqueue(now, item.Breadcrumb{
		Message:   message,
		Category:  category,
		Level:     level,
		Data:      data,
		Timestamp: now,
	})
}

// SetUserContext records the current user.
func (c *Collector) SetUserContext(user item.Fields) {
	now := item.Now()
	c.enqueue(now, item.UserContext{UserData: user, Timestamp: now})
}

// SetExtraContext records an arbitrary key/value pair.
func (c *Collector) SetExtraContext(key string, value any) {
	now := item.Now()
	c.enqueue(now, item.ExtraContext{Key: key, Value: value, Timestamp: now})
}

// SetTag records a string tag.
func (c *Collector) SetTag(key, value string) {
	now := item.Now()
	c.enqueue(now, item.Tag{Key: key, Value: value, Timestamp: now})
}

// slogLevel maps a PSR-3 style level name onto a slog level.
func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info", "notice":
		return slog.LevelInfo
	case "warning":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func fieldAttrs(f item.Fields) []any {
	if len(f) == 0 {
		return nil
	}
	args := make([]any, 0, len(f))
	for k, v := range f {
		args = append(args, slog.Any(k, v))
	}
	return args
}
