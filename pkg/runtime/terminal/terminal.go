package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/threat-response/pkg/runtime/app"
	"github.com/de-tools/threat-response/pkg/runtime/terminal/commands"
	"github.com/de-tools/threat-response/pkg/runtime/terminal/export"
	"github.com/de-tools/threat-response/pkg/services/config"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	factory    app.Factory
	reporter   *export.Reporter
	logOutput  io.Writer
	rootCmd    *cobra.Command
	configPath string
	cfg        *config.Config
}

// Options contain configuration for the CLI
type Options struct {
	Factory app.Factory
	Output  io.Writer
	// LogOutput receives structured logs at the configured log_level.
	LogOutput io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.Factory == nil {
		opts.Factory = app.New
	}

	cli := &CLI{
		factory:   opts.Factory,
		reporter:  export.NewReporter(opts.Output),
		logOutput: opts.LogOutput,
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "threat-response",
		Short:             "Automated remediation of security findings",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.loadConfig,
	}

	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "",
		"Path to the configuration file (environment variables are used when empty)")

	cmd.AddCommand(commands.NewRemediateCmd(cli.loadEngine, cli.reporter))
	cmd.AddCommand(commands.NewStrategiesCmd(cli.loadEngine))
	cmd.AddCommand(commands.NewHistoryCmd(cli.loadEngine))

	return cmd
}

// loadConfig resolves the configuration once flags are parsed and attaches a
// logger at its log_level to the command context.
func (cli *CLI) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cli.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cli.cfg = cfg

	logger := app.NewLogger(cli.logOutput, cfg.LogLevel)
	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}

func (cli *CLI) loadEngine(ctx context.Context) (commands.Engine, error) {
	a, err := cli.factory(ctx, cli.cfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}
