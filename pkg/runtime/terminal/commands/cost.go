package commands

import (
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/de-tools/sql-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/sql-atlas/pkg/services/azure"
	"github.com/de-tools/sql-atlas/pkg/services/cost"
	"github.com/spf13/cobra"
)

type CostCmd struct {
	profile  string
	duration int
	output   io.Writer
}

func NewCostCmd(output io.Writer) *cobra.Command {
	cc := &CostCmd{output: output}
	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Report actual SQL spend for the subscription",
		RunE:  cc.run,
	}

	cmd.Flags().StringVar(&cc.profile, "profile", "", "Azure profile to use (default profile if empty)")
	cmd.Flags().IntVar(&cc.duration, "duration", 30, "Duration in days to report")

	return cmd
}

func (cc *CostCmd) run(cmd *cobra.Command, _ []string) error {
	cfg, err := azure.LoadConfig(cc.profile)
	if err != nil {
		return fmt.Errorf("failed to load Azure credentials: %w", err)
	}

	factory, err := armcostmanagement.NewClientFactory(cfg.Credential, nil)
	if err != nil {
		return fmt.Errorf("failed to create cost management client factory: %w", err)
	}

	analyzer := cost.NewSQLAnalyzer(factory, cfg.SubscriptionID)
	report, err := analyzer.GenerateReport(cmd.Context(), cc.duration)
	if err != nil {
		return fmt.Errorf("failed to generate cost report: %w", err)
	}

	return export.NewReporter(cc.output).Handle(report)
}
