package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/de-tools/sql-atlas/pkg/services/azure"
	"github.com/de-tools/sql-atlas/pkg/services/deployment"
	"github.com/de-tools/sql-atlas/pkg/services/firewall"
	"github.com/de-tools/sql-atlas/pkg/services/probe"
	azstore "github.com/de-tools/sql-atlas/pkg/store/azure"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type FirewallCmd struct {
	specPath string
	profile  string
	output   io.Writer
}

// NewFirewallCmd reconciles firewall rules only, without touching the server,
// databases, or policies. The server must already exist.
func NewFirewallCmd(output io.Writer) *cobra.Command {
	fc := &FirewallCmd{output: output}
	cmd := &cobra.Command{
		Use:   "firewall",
		Short: "Reconcile server firewall rules onto the desired-state document",
		RunE:  fc.run,
	}

	cmd.Flags().StringVar(&fc.specPath, "spec", "", "Path to the deployment spec file")
	cmd.Flags().StringVar(&fc.profile, "profile", "", "Azure profile to use (default profile if empty)")

	_ = cmd.MarkFlagRequired("spec")

	return cmd
}

func (fc *FirewallCmd) run(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	spec, err := deployment.LoadSpec(fc.specPath)
	if err != nil {
		return err
	}
	req, err := spec.Request()
	if err != nil {
		return err
	}
	if req.FirewallRules == nil {
		return fmt.Errorf("deployment spec references no firewall document")
	}

	cfg, err := azure.LoadConfig(fc.profile)
	if err != nil {
		return fmt.Errorf("failed to load Azure credentials: %w", err)
	}
	sqlStore, err := azstore.NewSQLStore(cfg)
	if err != nil {
		return err
	}

	id := spec.Identity()
	handle, err := probe.NewProber(sqlStore, nil).Exists(ctx, id)
	if err != nil {
		return err
	}
	if handle == nil {
		return fmt.Errorf("server %s does not exist, run apply first", id)
	}

	if err := firewall.NewReconciler(sqlStore).Reconcile(ctx, id, req.FirewallRules); err != nil {
		return err
	}

	logger.Info().Str("server", id.Name).Int("rules", len(req.FirewallRules)).Msg("firewall reconciled")
	return nil
}
