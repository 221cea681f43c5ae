package main

import (
	"context"

	"github.com/spf13/cobra"

	"houdini-hq/houdini/pkg/cli"
	"houdini-hq/houdini/pkg/server"
)

var serveFlags struct {
	listenAddress string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the instrumented demo server",
	Long: `Run an HTTP server whose requests are recorded by Houdini.

The server exposes a small order API together with /health, /health/live,
/version and the self-metrics endpoint. On SIGINT or SIGTERM it stops
accepting requests and delivers buffered telemetry before exiting.

Examples:
  # Serve with a config file
  houdini serve --config houdini.yaml

  # Override listen address
  houdini serve --listen 0.0.0.0:8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override server.listen_address")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	logger, err := setupLogging(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, logger, nil)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer p.release()

	srv := server.NewServer(cfg, p.collector, p.transport, p.metrics,
		server.WithLogger(logger),
		server.WithVersion(Version, GitCommit, BuildDate),
	)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := cli.SetupSignalHandler(parent)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	return nil
}
