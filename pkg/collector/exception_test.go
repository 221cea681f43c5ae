package collector

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"testing"

	"houdini-hq/houdini/pkg/item"
)

type orderError struct {
	id int
}

func (e *orderError) Error() string { return fmt.Sprintf("order %d not found", e.id) }

func TestErrorClass(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", errors.New("x"), "*errors.errorString"},
		{"custom", &orderError{id: 1}, "*collector.orderError"},
		{"wrapped", fmt.Errorf("loading: %w", &orderError{id: 1}), "*collector.orderError"},
		{"stack", WithStack(fs.ErrNotExist), "*errors.errorString"},
		{"panic value", NewPanicError("boom"), "*collector.PanicError"},
		{"panic error", NewPanicError(&orderError{id: 2}), "*collector.orderError"},
		{"joined", errors.Join(&orderError{id: 3}, fs.ErrNotExist), "*collector.orderError"},
		{"wrapped join", fmt.Errorf("saving: %w", errors.Join(nil, &orderError{id: 4})), "*collector.orderError"},
		{"multiple verbs", fmt.Errorf("%w and %w", WithStack(&orderError{id: 5}), fs.ErrNotExist), "*collector.orderError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorClass(tt.err); got != tt.want {
				t.Errorf("ErrorClass() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithStack(t *testing.T) {
	if WithStack(nil) != nil {
		t.Error("WithStack(nil) should be nil")
	}

	err := WithStack(errors.New("x"))
	if again := WithStack(err); again != err {
		t.Error("WithStack should not wrap twice")
	}

	var se *StackError
	if !errors.As(err, &se) {
		t.Fatal("expected *StackError")
	}
	frames := se.Frames()
	if len(frames) == 0 {
		t.Fatal("expected frames")
	}
	if !strings.HasSuffix(frames[0].Function, "TestWithStack") {
		t.Errorf("innermost frame = %s, want TestWithStack", frames[0].Function)
	}
}

func TestRecordException_CallSite(t *testing.T) {
	c := newTestCollector(t, testConfig(), &recordingSender{})

	_, file, line, _ := runtime.Caller(0)
	c.RecordException(&orderError{id: 42}, item.Fields{"request_uri": "/orders/42"})

	ex := buffered(c)[0].Data.(item.Exception)
	if ex.Class != "*collector.orderError" || ex.Message != "order 42 not found" {
		t.Errorf("unexpected exception %+v", ex)
	}
	if ex.File != file || ex.Line != line+1 {
		t.Errorf("location = %s:%d, want %s:%d", ex.File, ex.Line, file, line+1)
	}
	if !strings.Contains(ex.Trace, "TestRecordException_CallSite") {
		t.Errorf("trace does not mention the test: %q", ex.Trace)
	}
	if ex.Context["request_uri"] != "/orders/42" {
		t.Errorf("context = %v", ex.Context)
	}
}

func TestRecordException_StackErrorLocation(t *testing.T) {
	c := newTestCollector(t, testConfig(), &recordingSender{})

	_, file, line, _ := runtime.Caller(0)
	err := WithStack(errors.New("deep"))

	c.RecordException(fmt.Errorf("handler: %w", err), nil)

	ex := buffered(c)[0].Data.(item.Exception)
	if ex.File != file || ex.Line != line+1 {
		t.Errorf("location = %s:%d, want %s:%d", ex.File, ex.Line, file, line+1)
	}
	if ex.Message != "handler: deep" {
		t.Errorf("Message = %q", ex.Message)
	}
}

func TestRecordException_JoinedError(t *testing.T) {
	c := newTestCollector(t, testConfig(), &recordingSender{})

	c.RecordException(errors.Join(&orderError{id: 9}, errors.New("rollback failed")), nil)

	ex := buffered(c)[0].Data.(item.Exception)
	if ex.Class != "*collector.orderError" {
		t.Errorf("Class = %q, want *collector.orderError", ex.Class)
	}
	if ex.Message != "order 9 not found\nrollback failed" {
		t.Errorf("Message = %q", ex.Message)
	}
}

func panicky() {
	panic(&orderError{id: 7})
}

func TestRecordException_RecoveredPanic(t *testing.T) {
	c := newTestCollector(t, testConfig(), &recordingSender{})

	func() {
		defer func() {
			if r := recover(); r != nil {
				c.RecordException(NewPanicError(r), nil)
			}
		}()
		panicky()
	}()

	ex := buffered(c)[0].Data.(item.Exception)
	if ex.Class != "*collector.orderError" {
		t.Errorf("Class = %q, want *collector.orderError", ex.Class)
	}
	if !strings.HasPrefix(ex.Trace, "houdini-hq/houdini/pkg/collector.panicky()") {
		t.Errorf("trace should start at the panicking function, got:\n%s", ex.Trace)
	}
	if ex.Message != "panic: order 7 not found" {
		t.Errorf("Message = %q", ex.Message)
	}
}
