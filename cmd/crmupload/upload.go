package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/yash-jain-1224/crm-dashboard/internal/client/progress"
)

const maxListedFailures = 10

type uploadOptions struct {
	async    bool
	interval time.Duration
}

func newUploadCmd(root *rootOptions) *cobra.Command {
	var opts uploadOptions

	cmd := &cobra.Command{
		Use:   "upload <entity> <file>",
		Short: "Upload an Excel file and follow its import progress",
		Long: "Upload an Excel file for one entity type and follow the import until it ends.\n\n" +
			"Ctrl-C only stops this client from watching. Rows already sent keep being\n" +
			"imported by the server; check the task later with the printed task id.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd.Context(), cmd.OutOrStdout(), root, opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&opts.async, "async", false, "Force background processing on the server")
	cmd.Flags().DurationVar(&opts.interval, "interval", 500*time.Millisecond, "Progress poll interval")

	return cmd
}

func runUpload(ctx context.Context, out io.Writer, root *rootOptions, opts uploadOptions, entity, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	logger := root.logger()
	defer func() { _ = logger.Sync() }()

	// Progress lines are written from the poll goroutine.
	out = &lockedWriter{w: out}

	controller := progress.NewController(
		progress.NewClient(root.server, root.timeout),
		progress.Config{PollInterval: opts.interval},
		logger,
	)
	controller.OnChange(newProgressPrinter(out))

	view, err := controller.Submit(ctx, progress.UploadRequest{
		Entity:   entity,
		FileName: filepath.Base(path),
		Size:     info.Size(),
		Content:  file,
		Async:    opts.async,
	})
	if err != nil {
		return err
	}

	if view.Async {
		fmt.Fprintf(out, "task %s: %d rows queued\n", view.TaskID, view.Total)
		view, err = controller.Wait(ctx)
		if ctx.Err() != nil {
			controller.Cancel()
			fmt.Fprintf(out, "stopped watching task %s; the server keeps processing it\n", view.TaskID)
			return nil
		}
	}

	printSummary(out, view)
	switch {
	case err != nil:
		return err
	case view.State == progress.StateFailed:
		return errors.New("upload failed")
	default:
		return nil
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// newProgressPrinter prints one line per change of state or processed count.
func newProgressPrinter(out io.Writer) func(progress.View) {
	var mu sync.Mutex
	var lastState progress.State
	lastProcessed := -1

	return func(v progress.View) {
		if v.State != progress.StatePolling && v.State != progress.StatePaused {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if v.State == lastState && v.Processed == lastProcessed {
			return
		}
		lastState, lastProcessed = v.State, v.Processed

		fmt.Fprintf(out, "%-9s %6.2f%%  %d/%d processed  %d ok  %d failed  %s\n",
			v.State, v.Percentage, v.Processed, v.Total, v.SuccessCount, v.FailedCount, v.Elapsed.Round(time.Millisecond))
	}
}

func printSummary(out io.Writer, v progress.View) {
	fmt.Fprintf(out, "%s: %d succeeded, %d failed\n", v.State, v.SuccessCount, v.FailedCount)
	if v.ErrorMessage != "" {
		fmt.Fprintf(out, "error: %s\n", v.ErrorMessage)
	}

	for i, failure := range v.Failures {
		if i == maxListedFailures {
			fmt.Fprintf(out, "  ... and %d more\n", len(v.Failures)-maxListedFailures)
			break
		}
		fmt.Fprintf(out, "  row %d: %s\n", failure.Row, failure.Error)
	}
}
