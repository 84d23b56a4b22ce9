package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/de-tools/sql-atlas/pkg/pipeline"
	"github.com/de-tools/sql-atlas/pkg/services/azure"
	"github.com/de-tools/sql-atlas/pkg/services/deployment"
	"github.com/de-tools/sql-atlas/pkg/services/firewall"
	"github.com/de-tools/sql-atlas/pkg/services/policy"
	"github.com/de-tools/sql-atlas/pkg/services/probe"
	"github.com/de-tools/sql-atlas/pkg/services/provision"
	"github.com/de-tools/sql-atlas/pkg/services/secrets"
	"github.com/de-tools/sql-atlas/pkg/services/verify"
	azstore "github.com/de-tools/sql-atlas/pkg/store/azure"
	"github.com/de-tools/sql-atlas/pkg/store/vault"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type ApplyCmd struct {
	specPath       string
	profile        string
	verifyDatabase string
	output         io.Writer
}

func NewApplyCmd(output io.Writer) *cobra.Command {
	ac := &ApplyCmd{output: output}
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Converge a SQL server and its sub-resources onto the deployment spec",
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.specPath, "spec", "", "Path to the deployment spec file")
	cmd.Flags().StringVar(&ac.profile, "profile", "", "Azure profile to use (default profile if empty)")
	cmd.Flags().StringVar(&ac.verifyDatabase, "verify-db", "",
		"Run a connectivity check against this database after provisioning")

	_ = cmd.MarkFlagRequired("spec")

	return cmd
}

func (ac *ApplyCmd) run(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	spec, err := deployment.LoadSpec(ac.specPath)
	if err != nil {
		return err
	}
	req, err := spec.Request()
	if err != nil {
		return err
	}

	cfg, err := azure.LoadConfig(ac.profile)
	if err != nil {
		return fmt.Errorf("failed to load Azure credentials: %w", err)
	}

	sqlStore, err := azstore.NewSQLStore(cfg)
	if err != nil {
		return err
	}
	vaultClient, err := vault.NewClient(spec.Vault.Name, cfg.Credential)
	if err != nil {
		return err
	}

	flow := provision.NewFlow(
		probe.NewProber(sqlStore, nil),
		secrets.NewResolver(vaultClient),
		provision.NewCreator(sqlStore, sqlStore),
		firewall.NewReconciler(sqlStore),
		policy.NewApplier(sqlStore),
	)

	result, err := flow.Run(ctx, req)
	if err != nil {
		return err
	}

	if ac.verifyDatabase != "" {
		cred := domain.Credential{
			Username: spec.Admin.Username,
			Secret:   result.Outputs.AdminSecret,
		}
		checker, err := verify.Open(result.Outputs.FullyQualifiedDomainName, ac.verifyDatabase, cred)
		if err != nil {
			return err
		}
		defer func() { _ = checker.Close() }()
		if err := checker.Check(ctx); err != nil {
			return err
		}
	}

	if err := pipeline.NewEmitter(ac.output).Emit(result.Outputs); err != nil {
		return err
	}

	logger.Info().
		Str("server", spec.Server.Name).
		Str("fqdn", result.Outputs.FullyQualifiedDomainName).
		Bool("created", result.Created).
		Msg("provisioning run complete")
	return nil
}
