package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

type HistoryCmd struct {
	limit int
	load  EngineLoader
}

func NewHistoryCmd(load EngineLoader) *cobra.Command {
	hc := &HistoryCmd{load: load}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent remediations from the local history",
		RunE:  hc.run,
	}

	cmd.Flags().IntVar(&hc.limit, "limit", 20, "Number of records to show")

	return cmd
}

func (hc *HistoryCmd) run(cmd *cobra.Command, _ []string) error {
	engine, err := hc.load(cmd.Context())
	if err != nil {
		return err
	}
	defer engine.Close()

	records, err := engine.ListHistory(cmd.Context(), hc.limit)
	if err != nil {
		return fmt.Errorf("failed to list remediation history: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No remediations recorded yet")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-20s  %-36s  %-10s  %-10s  %s\n", "RECORDED AT", "FINDING", "RESOURCE", "STATUS", "TARGET")
	for _, r := range records {
		fmt.Fprintf(out, "%-20s  %-36s  %-10s  %-10s  %s\n",
			r.RecordedAt.Format("2006-01-02 15:04:05"),
			r.Finding.ID,
			r.Finding.ResourceType,
			r.Outcome.Status,
			r.Outcome.Target)
	}

	return nil
}
