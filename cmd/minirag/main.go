package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"minirag/internal/api"
	"minirag/internal/config"
	"minirag/internal/session"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app carries what every subcommand needs after flags are parsed.
type app struct {
	v       *viper.Viper
	cfgPath string
	cfg     *config.AppConfig
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("MINIRAG")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "minirag",
		Short:         "Ingest text into and ask questions of a RAG knowledge base",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, a)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/minirag/config.yaml if not provided)")
	pf.String("base-url", "", "Base URL of the knowledge base API")
	pf.Int("timeout", 0, "Request timeout in seconds")
	pf.String("source", "", "Source label for ingested text")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-file", "", "Write logs to this file")
	_ = a.v.BindPFlag("api.base_url", pf.Lookup("base-url"))
	_ = a.v.BindPFlag("api.timeout_secs", pf.Lookup("timeout"))
	_ = a.v.BindPFlag("ingest.source", pf.Lookup("source"))
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log.file", pf.Lookup("log-file"))

	root.AddCommand(
		newTUICmd(a),
		newIngestCmd(a),
		newQueryCmd(a),
		newDevServerCmd(a),
	)
	return root
}

func (a *app) loadConfig() error {
	var cfg *config.AppConfig
	var err error
	if a.cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(a.cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(a.v, cfg)
	a.cfg = cfg
	return nil
}

// applyOverrides copies flag and MINIRAG_* environment values over the file config.
func applyOverrides(v *viper.Viper, cfg *config.AppConfig) {
	if v.IsSet("api.base_url") && v.GetString("api.base_url") != "" {
		cfg.API.BaseURL = v.GetString("api.base_url")
	}
	if v.IsSet("api.timeout_secs") && v.GetInt("api.timeout_secs") > 0 {
		cfg.API.TimeoutSecs = v.GetInt("api.timeout_secs")
	}
	if v.IsSet("ingest.source") && v.GetString("ingest.source") != "" {
		cfg.Ingest.Source = v.GetString("ingest.source")
	}
	if v.IsSet("log.level") && v.GetString("log.level") != "" {
		cfg.Log.Level = v.GetString("log.level")
	}
	if v.IsSet("log.file") && v.GetString("log.file") != "" {
		cfg.Log.File = v.GetString("log.file")
	}
}

func newController(cfg *config.AppConfig, logger *logrus.Logger) *session.Controller {
	client := api.NewClient(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout(),
	}, logger)
	return session.New(client, session.Options{Source: cfg.Ingest.Source, Logger: logger})
}
