package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"arts_scrooper/scheduler"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the events API and run scheduled scrapes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		zap.L().Info("loaded site configs", zap.Int("count", len(cfg.Sites)))

		sched := scheduler.New(cfg.Scheduler, a.pipeline, a.sqlite)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		return a.server(fmt.Sprintf(":%d", port)).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 3000, "HTTP listen port (overrides server.port)")
}
