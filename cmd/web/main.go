package main

import (
	"fmt"
	"net"
	"os"

	handlers "github.com/de-tools/threat-response/pkg/handlers/finding"
	"github.com/de-tools/threat-response/pkg/runtime/app"
	"github.com/de-tools/threat-response/pkg/server"
	"github.com/de-tools/threat-response/pkg/services/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the finding intake server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the configuration file (environment variables are used when empty)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	ctx := logger.WithContext(cmd.Context())

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize remediation engine: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close history database")
		}
	}()

	var historyLister handlers.HistoryLister
	if a.History != nil {
		historyLister = a
	}

	for _, s := range a.Router.Strategies() {
		logger.Info().Msgf("Strategy: `%s`, Action: `%s`", s.GetResourceType(), s.Action())
	}

	api := server.NewWebAPI(server.Config{
		Addr: net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Dependencies: server.Dependencies{
			Events:     a.Handler,
			Strategies: a.Router,
			History:    historyLister,
			Logger:     logger,
		},
	})

	return api.Start()
}
