package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/de-tools/threat-response/pkg/models/api"
	"github.com/de-tools/threat-response/pkg/runtime/app"
	"github.com/de-tools/threat-response/pkg/services/config"
	"github.com/rs/zerolog"
)

type eventHandler interface {
	Handle(ctx context.Context, raw []byte) api.Response
}

// newInvocationHandler adapts the event handler to the Lambda runtime. The
// invocation never fails; remediation problems are reported through alerts.
func newInvocationHandler(logger zerolog.Logger, h eventHandler) func(context.Context, json.RawMessage) (api.Response, error) {
	return func(ctx context.Context, event json.RawMessage) (api.Response, error) {
		ctx = logger.WithContext(ctx)
		return h.Handle(ctx, event), nil
	}
}

func main() {
	cfg, err := config.Load(os.Getenv(config.EnvPrefix + "_CONFIG"))
	if err != nil {
		zerolog.New(os.Stdout).Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	ctx := logger.WithContext(context.Background())

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize remediation engine")
	}

	lambda.Start(newInvocationHandler(logger, a.Handler))
}
