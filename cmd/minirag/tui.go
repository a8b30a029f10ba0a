package main

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"minirag/internal/logging"
	"minirag/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive terminal UI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, a)
		},
	}
}

func runTUI(cmd *cobra.Command, a *app) error {
	// the terminal belongs to the UI; only log when a file is configured
	logger, closer, err := logging.Open(a.cfg.Log.Level, a.cfg.Log.File, io.Discard)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctl := newController(a.cfg, logger)
	logger.WithField("base_url", a.cfg.API.BaseURL).Info("Starting terminal UI")

	m := tui.New(cmd.Context(), ctl)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}
