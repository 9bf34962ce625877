package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/de-tools/threat-response/pkg/models/domain"
	"github.com/de-tools/threat-response/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

const stdinPath = "-"

type RemediateCmd struct {
	eventPath string
	load      EngineLoader
	reporter  *export.Reporter
}

func NewRemediateCmd(load EngineLoader, reporter *export.Reporter) *cobra.Command {
	rc := &RemediateCmd{load: load, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "remediate",
		Short: "Remediate a single finding event",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.eventPath, "event", "", "Path to the event JSON, or - to read from stdin")

	_ = cmd.MarkFlagRequired("event")

	return cmd
}

func (rc *RemediateCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	raw, err := rc.readEvent(cmd.InOrStdin())
	if err != nil {
		return err
	}

	engine, err := rc.load(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	f, outcome, err := engine.Process(ctx, raw)
	if err != nil {
		return err
	}

	if err = rc.reporter.Handle(f, outcome); err != nil {
		return fmt.Errorf("failed to render outcome: %w", err)
	}

	if outcome.Status == domain.OutcomeFailed {
		return fmt.Errorf("remediation of %s %s failed at step %s", outcome.ResourceType, outcome.Target, outcome.Step)
	}
	return nil
}

func (rc *RemediateCmd) readEvent(stdin io.Reader) ([]byte, error) {
	if rc.eventPath == stdinPath {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read event from stdin: %w", err)
		}
		return raw, nil
	}

	raw, err := os.ReadFile(rc.eventPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read event file %s: %w", rc.eventPath, err)
	}
	return raw, nil
}
