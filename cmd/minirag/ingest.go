package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"minirag/internal/logging"
	"minirag/internal/session"
)

func newIngestCmd(a *app) *cobra.Command {
	var watch bool
	var text string
	cmd := &cobra.Command{
		Use:   "ingest [file|-]",
		Short: "Ingest text from a file, stdin or --text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closer, err := logging.Open(a.cfg.Log.Level, a.cfg.Log.File, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			ctl := newController(a.cfg, logger)
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if watch {
				if path == "" || path == "-" {
					return fmt.Errorf("--watch needs a file path")
				}
				return watchAndIngest(cmd.Context(), ctl, path, cmd.OutOrStdout(), logger)
			}

			if path != "" {
				text, err = readInput(path, cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			err = ingestOnce(cmd.Context(), ctl, text, cmd.OutOrStdout())
			if err != nil {
				cmd.SilenceErrors = true
			}
			return err
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Text to ingest")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-ingest the file every time it is written")
	return cmd
}

func readInput(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func ingestOnce(ctx context.Context, ctl *session.Controller, text string, out io.Writer) error {
	ctl.SetInputText(text)
	err := ctl.SubmitIngest(ctx)
	printView(out, ctl.View())
	return err
}

// watchAndIngest ingests path now and again after every write until ctx ends.
// Failures are reported and watching continues.
func watchAndIngest(ctx context.Context, ctl *session.Controller, path string, out io.Writer, logger *logrus.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	// watch the directory so editors that replace the file are still seen
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	ingest := func() {
		text, err := readInput(abs, nil)
		if err != nil {
			fmt.Fprintln(out, "Error: "+err.Error())
			return
		}
		_ = ingestOnce(ctx, ctl, text, out)
	}
	ingest()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isWriteOf(event, abs) {
				continue
			}
			logger.WithField("path", abs).Debug("File changed, re-ingesting")
			ingest()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("File watcher error")
		}
	}
}

func isWriteOf(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

