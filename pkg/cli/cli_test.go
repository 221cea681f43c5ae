package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"
	"time"

	"houdini-hq/houdini/pkg/config"
)

func TestConfigError(t *testing.T) {
	verr := config.ValidationError{Errors: []config.FieldError{
		{Field: "dsn", Message: "must be an absolute http(s) URL"},
		{Field: "traces.sample_rate", Message: "must be between 0 and 1"},
	}}
	err := NewConfigError("houdini.yaml", fmt.Errorf("configuration validation failed: %w", verr))

	if len(err.Fields) != 2 {
		t.Fatalf("Fields = %v, want 2 entries", err.Fields)
	}
	want := "config error in houdini.yaml: dsn: must be an absolute http(s) URL; traces.sample_rate: must be between 0 and 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.As(err, &verr) {
		t.Error("errors.As should reach the ValidationError")
	}
}

func TestConfigError_ReadFailure(t *testing.T) {
	cause := errors.New("no such file")
	err := NewConfigError("", cause)

	if err.Fields != nil {
		t.Errorf("Fields = %v, want nil", err.Fields)
	}
	if err.Error() != "config error in environment: no such file" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestCommandError(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("send", underlyingErr)

	expected := "command send failed: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("errors.Is() should work with CommandError.Unwrap()")
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

type summary struct {
	Sent int `json:"sent"`
}

func (s summary) Text() string { return fmt.Sprintf("sent %d items\n", s.Sent) }

func TestFormatters(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatJSON).FormatTo(&buf, summary{Sent: 3}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"sent\": 3\n}\n" {
		t.Errorf("json = %q", buf.String())
	}

	buf.Reset()
	if err := NewFormatter(FormatText).FormatTo(&buf, summary{Sent: 3}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "sent 3 items\n" {
		t.Errorf("text = %q", buf.String())
	}

	buf.Reset()
	_ = NewFormatter(FormatText).FormatTo(&buf, 42)
	if buf.String() != "42\n" {
		t.Errorf("text = %q", buf.String())
	}
}

func TestDeliveryProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewDeliveryProgress(&buf, 4)

	p.Report(2, 1)
	if got := buf.String(); got != "\rdelivered 2/4, failed 1, pending 1" {
		t.Errorf("progress line = %q", got)
	}

	p.Done(3, 1)
	out := buf.String()
	if !strings.Contains(out, "\rdelivered 3/4, failed 1, pending 0 in ") || !strings.HasSuffix(out, "\n") {
		t.Errorf("final line = %q", out)
	}
}

func TestDeliveryProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewDeliveryProgress(&buf, 0)
	p.Report(1, 0)
	if buf.Len() != 0 {
		t.Errorf("expected no output for zero total, got %q", buf.String())
	}
}

func TestSetupSignalHandler(t *testing.T) {
	ctx, stop := SetupSignalHandler(context.Background())
	defer stop()

	select {
	case <-ctx.Done():
		t.Fatal("context cancelled too early")
	case <-time.After(10 * time.Millisecond):
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
}

func TestSetupSignalHandler_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := SetupSignalHandler(parent)
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with its parent")
	}
}
