package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

type StrategiesCmd struct {
	load EngineLoader
}

func NewStrategiesCmd(load EngineLoader) *cobra.Command {
	sc := &StrategiesCmd{load: load}
	return &cobra.Command{
		Use:   "strategies",
		Short: "List resource types with an automated remediation",
		RunE:  sc.run,
	}
}

func (sc *StrategiesCmd) run(cmd *cobra.Command, _ []string) error {
	engine, err := sc.load(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	strategies := engine.Strategies()
	if len(strategies) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No remediation strategies registered")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Registered remediation strategies:")
	for _, s := range strategies {
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", s.GetResourceType(), s.Action())
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Other resource types are reported without remediation.")

	return nil
}
