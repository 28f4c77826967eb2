package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yash-jain-1224/crm-dashboard/internal/bootstrap"
	"go.uber.org/zap"
)

type rootOptions struct {
	server  string
	timeout time.Duration
	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "crmupload",
		Short:        "Bulk upload CRM records from Excel files",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.server, "server", envOr("CRM_SERVER_URL", "http://localhost:8080"), "CRM API base URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Per-request timeout")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every poll")

	cmd.AddCommand(newUploadCmd(opts))
	cmd.AddCommand(newTemplateCmd(opts))
	return cmd
}

func (o *rootOptions) logger() *zap.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger, err := bootstrap.NewLogger(bootstrap.LoggerConfig{Development: true, Level: level})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
