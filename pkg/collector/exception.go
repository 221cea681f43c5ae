package collector

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// maxStackDepth bounds captured stack traces.
const maxStackDepth = 32

// StackError attaches the call stack of its creation site to an error.
// RecordException and CaptureError report the file, line and trace of the
// innermost StackError in the chain instead of their own call site.
type StackError struct {
	Err error
	pcs []uintptr
}

// WithStack wraps err with the caller's stack. It returns err unchanged if
// it is nil or already carries a stack.
func WithStack(err error) error {
	return wrapStack(err, 1)
}

// WithStackSkip is WithStack for reporting helpers: the stack starts skip
// frames above the caller.
func WithStackSkip(err error, skip int) error {
	return wrapStack(err, skip+1)
}

func wrapStack(err error, skip int) error {
	if err == nil {
		return nil
	}
	var se *StackError
	if errors.As(err, &se) {
		return err
	}
	return &StackError{Err: err, pcs: callers(skip + 3)}
}

// Error implements the error interface.
func (e *StackError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *StackError) Unwrap() error {
	return e.Err
}

// Frames returns the captured stack, innermost first.
func (e *StackError) Frames() []runtime.Frame {
	return frames(e.pcs)
}

// PanicError is a recovered panic value. Its stack is captured where it is
// created, which inside a deferred recover still includes the panicking frames.
type PanicError struct {
	Value any
}

// NewPanicError converts a recovered value into an error carrying the stack.
func NewPanicError(v any) error {
	return &StackError{Err: &PanicError{Value: v}, pcs: callers(3)}
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// exceptionDetails is the source information reported for an error.
type exceptionDetails struct {
	class   string
	message string
	file    string
	line    int
	trace   string
}

// describeError extracts the class, message and location of err. skip is the
// number of frames above describeError's caller to attribute the capture to
// when err carries no stack.
func describeError(err error, skip int) exceptionDetails {
	d := exceptionDetails{
		class:   ErrorClass(err),
		message: err.Error(),
	}

	var fs []runtime.Frame
	if se := innermostStack(err); se != nil {
		fs = se.Frames()
	} else {
		fs = frames(callers(skip + 3))
	}

	if len(fs) > 0 {
		d.file = fs[0].File
		d.line = fs[0].Line
	}
	d.trace = formatFrames(fs)
	return d
}

// ErrorClass returns the dynamic type of the root of err's chain, skipping
// stack wrappers. Joined errors are followed through their first element.
// A recovered panic whose value is not an error reports *collector.PanicError.
func ErrorClass(err error) string {
	root := err
	for {
		next := unwrapFirst(root)
		if next == nil {
			break
		}
		root = next
	}
	return fmt.Sprintf("%T", root)
}

// unwrapFirst is errors.Unwrap that also descends into the first error of
// an errors.Join or multi-%w chain.
func unwrapFirst(err error) error {
	switch e := err.(type) {
	case interface{ Unwrap() error }:
		return e.Unwrap()
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if inner != nil {
				return inner
			}
		}
	}
	return nil
}

func innermostStack(err error) *StackError {
	var found *StackError
	for e := err; e != nil; e = unwrapFirst(e) {
		if se, ok := e.(*StackError); ok {
			found = se
		}
	}
	return found
}

func callers(skip int) []uintptr {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip, pcs)
	return pcs[:n]
}

func frames(pcs []uintptr) []runtime.Frame {
	if len(pcs) == 0 {
		return nil
	}
	out := make([]runtime.Frame, 0, len(pcs))
	it := runtime.CallersFrames(pcs)
	for {
		f, more := it.Next()
		switch {
		case f.Function == "runtime.gopanic":
			// Frames above the panic belong to the recovering defer.
			out = out[:0]
		case !strings.HasPrefix(f.Function, "runtime.") && !strings.HasPrefix(f.Function, "internal/runtime/"):
			out = append(out, f)
		}
		if !more {
			break
		}
	}
	return out
}

// formatFrames renders frames in the layout of runtime/debug.Stack.
func formatFrames(fs []runtime.Frame) string {
	var sb strings.Builder
	for i, f := range fs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s()\n\t%s:%d", f.Function, f.File, f.Line)
	}
	return sb.String()
}
