package main

import (
	"strings"

	"github.com/spf13/cobra"

	"minirag/internal/logging"
)

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <question...>",
		Short: "Ask a question and print the answer with citations and metrics",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closer, err := logging.Open(a.cfg.Log.Level, a.cfg.Log.File, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			ctl := newController(a.cfg, logger)
			ctl.SetQueryText(strings.Join(args, " "))
			err = ctl.SubmitQuery(cmd.Context())
			printView(cmd.OutOrStdout(), ctl.View())
			if err != nil {
				cmd.SilenceErrors = true
			}
			return err
		},
	}
}
