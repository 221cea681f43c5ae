package item

// Trace is a finished span.
type Trace struct {
	OperationName string    `json:"operation_name"`
	TraceID       string    `json:"trace_id"`
	SpanID        string    `json:"span_id"`
	ParentSpanID  string    `json:"parent_span_id,omitempty"`
	Attributes    Fields    `json:"attributes"`
	StartTime     Timestamp `json:"start_time"`
	EndTime       Timestamp `json:"end_time"`
	// Duration is end_time - start_time in seconds.
	Duration  float64   `json:"duration"`
	Timestamp Timestamp `json:"timestamp"`
}

// Kind implements Payload.
func (Trace) Kind() Kind { return KindTrace }

// Metric is one discrete observation. There is no client-side aggregation.
type Metric struct {
	Name       string    `json:"name"`
	Value      float64   `json:"value"`
	Attributes Fields    `json:"attributes"`
	Timestamp  Timestamp `json:"timestamp"`
}

// Kind implements Payload.
func (Metric) Kind() Kind { return KindMetric }

// Log is an application log record.
type Log struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Context   Fields    `json:"context"`
	Timestamp Timestamp `json:"timestamp"`
}

// Kind implements Payload.
func (Log) Kind() Kind { return KindLog }

// Exception is an error observed by the lifecycle hooks.
type Exception struct {
	Class     string    `json:"class"`
	Message   string    `json:"message"`
	File      string    `json:"file"`
	Line      int       `json:"line"`
	Trace     string    `json:"trace"`
	Context   Fields    `json:"context"`
	Timestamp Timestamp `json:"timestamp"`
}

// Kind implements Payload.
func (Exception) Kind() Kind { return KindException }

// HTTPRequest summarizes one served HTTP request. Headers are sanitized
// before they are stored here.
type HTTPRequest struct {
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	StatusCode int               `json:"status_code"`
	Duration   float64           `json:"duration"`
	Headers    map[string]string `json:"headers"`
	Timestamp  Timestamp         `json:"timestamp"`
}

// Kind implements Payload.
func (HTTPRequest) Kind() Kind { return KindHTTPRequest }

// Message is a manually captured message.
type Message struct {
	Message          string    `json:"message"`
	Level            string    `json:"level"`
	Context          Fields    `json:"context"`
	CapturedManually bool      `json:"captured_manually"`
	Timestamp        Timestamp `json:"timestamp"`
}

// Kind implements Payload.
func (Message) Kind() Kind { return KindMessage }

// CapturedError is a manually captured error value.
type CapturedError struct {
	Class            string    `json:"class"`
	Message          string    `json:"message"`
	File             string    `json:"file"`
	Line             int       `json:"line"`
	Trace            string    `json:"trace"`
	Context          Fields    `json:"context"`
	CapturedManually bool      `json:"captured_manually"`
	Timestamp        Timestamp `json:"timestamp"`
}

// Kind implements Payload.
func (CapturedError) Kind() Kind { return KindCapturedError }

// CapturedErrorMessage is a manually captured error without an error value.
type CapturedErrorMessage struct {
	Message          string    `json:"message"`
	Context          Fields    `json:"context"`
	CapturedManually bool      `json:"captured_manually"`
	Timestamp        Timestamp `json:"timestamp"`
}

// Kind implements Payload.
func (CapturedErrorMessage) Kind() Kind { return KindCapturedErrorMessage }

// Breadcrumb is a lightweight contextual note that precedes error captures.
type Breadcrumb struct {
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	Level     string    `json:"level"`
	Data      Fields    `json:"data"`
	Timestamp Timestamp `json:"timestamp"`
}

// Kind implements Payload.
func (Breadcrumb) Kind() Kind { return KindBreadcrumb }

// UserContext identifies the user for subsequent captures.
type UserContext struct {
	UserData  Fields    `json:"user_data"`
	Timestamp Timestamp `json:"timestamp"`
}

// Kind implements Payload.
func (UserContext) Kind() Kind { return KindUserContext }

// ExtraContext attaches an arbitrary key/value to subsequent captures.
type ExtraContext struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	Timestamp Timestamp `json:"timestamp"`
}

// Kind implements Payload.
func (ExtraContext) Kind() Kind { return KindExtraContext }

// Tag attaches a string tag to subsequent captures.
type Tag struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Timestamp Timestamp `json:"timestamp"`
}

// Kind implements Payload.
func (Tag) Kind() Kind { return KindTag }
