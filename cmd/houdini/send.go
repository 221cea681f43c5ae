package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"houdini-hq/houdini/pkg/cli"
	"houdini-hq/houdini/pkg/collector"
	"houdini-hq/houdini/pkg/item"
)

var sendFlags struct {
	message  string
	level    string
	count    int
	output   string
	progress bool
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send test messages through the telemetry pipeline",
	Long: `Capture test messages with the configured collector, wait for them to be
delivered and report how many the collector endpoint accepted.

The command fails when any item could not be delivered.

Examples:
  # Send one message to the endpoint in HOUDINI_DSN
  houdini send

  # Send 100 warnings and print a JSON summary
  houdini send --level warning --count 100 --output json`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendFlags.message, "message", "m", "houdini test message", "message to capture")
	sendCmd.Flags().StringVar(&sendFlags.level, "level", "info", "message level")
	sendCmd.Flags().IntVarP(&sendFlags.count, "count", "n", 1, "number of messages to send")
	sendCmd.Flags().StringVarP(&sendFlags.output, "output", "o", "text", "output format: text, json")
	sendCmd.Flags().BoolVar(&sendFlags.progress, "progress", false, "show delivery progress on stderr")
}

// countingSender tallies delivery outcomes and, when progress is set,
// redraws the status line after every send.
type countingSender struct {
	next      collector.Sender
	progress  *cli.DeliveryProgress
	delivered atomic.Int64
	failed    atomic.Int64
}

func (s *countingSender) Send(ctx context.Context, it item.Item) error {
	err := s.next.Send(ctx, it)
	if err != nil {
		s.failed.Add(1)
	} else {
		s.delivered.Add(1)
	}
	if s.progress != nil {
		s.progress.Report(s.delivered.Load(), s.failed.Load())
	}
	return err
}

type sendResult struct {
	Endpoint  string  `json:"endpoint"`
	Captured  int     `json:"captured"`
	Delivered int64   `json:"delivered"`
	Failed    int64   `json:"failed"`
	Duration  float64 `json:"duration_seconds"`
}

func (r sendResult) Text() string {
	var sb strings.Builder
	status := "✓"
	if r.Failed > 0 || r.Delivered < int64(r.Captured) {
		status = "✗"
	}
	fmt.Fprintf(&sb, "%s %d/%d items delivered to %s in %.2fs\n",
		status, r.Delivered, r.Captured, r.Endpoint, r.Duration)
	if r.Failed > 0 {
		fmt.Fprintf(&sb, "  %d failed\n", r.Failed)
	}
	return sb.String()
}

func runSend(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(sendFlags.output)
	if err != nil {
		return err
	}
	if sendFlags.count < 1 {
		return cli.NewCommandError("send", fmt.Errorf("--count must be at least 1"))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		return cli.NewCommandError("send", errors.New("telemetry is disabled (enabled: false)"))
	}

	logger, err := setupLogging(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var progress *cli.DeliveryProgress
	if sendFlags.progress {
		progress = cli.NewDeliveryProgress(cmd.ErrOrStderr(), int64(sendFlags.count))
	}

	var counter *countingSender
	p, err := newPipeline(cfg, logger, func(next collector.Sender) collector.Sender {
		counter = &countingSender{next: next, progress: progress}
		return counter
	})
	if err != nil {
		return cli.NewCommandError("send", err)
	}
	defer p.release()

	start := time.Now()
	for i := range sendFlags.count {
		p.collector.CaptureMessage(sendFlags.message, sendFlags.level, item.Fields{
			"sequence": i + 1,
			"source":   "houdini send",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Delivery.ShutdownTimeout)
	defer cancel()
	closeErr := p.collector.Close(ctx)
	if progress != nil {
		progress.Done(counter.delivered.Load(), counter.failed.Load())
	}

	result := sendResult{
		Endpoint:  cfg.DSN,
		Captured:  sendFlags.count,
		Delivered: counter.delivered.Load(),
		Failed:    counter.failed.Load(),
		Duration:  time.Since(start).Seconds(),
	}
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	switch {
	case closeErr != nil:
		return cli.NewCommandError("send", closeErr)
	case result.Delivered < int64(result.Captured):
		return cli.NewCommandError("send",
			fmt.Errorf("%d of %d items were not delivered", int64(result.Captured)-result.Delivered, result.Captured))
	}
	return nil
}
