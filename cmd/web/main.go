package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/de-tools/sql-atlas/pkg/server"
	"github.com/de-tools/sql-atlas/pkg/services/azure"
	"github.com/de-tools/sql-atlas/pkg/services/firewall"
	"github.com/de-tools/sql-atlas/pkg/services/policy"
	"github.com/de-tools/sql-atlas/pkg/services/probe"
	"github.com/de-tools/sql-atlas/pkg/services/provision"
	"github.com/de-tools/sql-atlas/pkg/services/secrets"
	azstore "github.com/de-tools/sql-atlas/pkg/store/azure"
	"github.com/de-tools/sql-atlas/pkg/store/vault"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	profile       string
	resourceGroup string
	vaultName     string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the provisioning API server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVar(&profile, "profile", "",
		"Azure profile to use (default profile if empty)")
	rootCmd.Flags().StringVar(&resourceGroup, "resource-group", "",
		"Default resource group for status lookups")
	rootCmd.Flags().StringVar(&vaultName, "vault", "",
		"Key vault holding server admin secrets")

	_ = rootCmd.MarkFlagRequired("vault")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := azure.LoadConfig(profile)
	if err != nil {
		return fmt.Errorf("failed to load Azure credentials: %w", err)
	}

	sqlStore, err := azstore.NewSQLStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to create SQL store: %w", err)
	}
	vaultClient, err := vault.NewClient(vaultName, cfg.Credential)
	if err != nil {
		return fmt.Errorf("failed to create vault client: %w", err)
	}

	prober := probe.NewProber(sqlStore, nil)
	flow := provision.NewFlow(
		prober,
		secrets.NewResolver(vaultClient),
		provision.NewCreator(sqlStore, sqlStore),
		firewall.NewReconciler(sqlStore),
		policy.NewApplier(sqlStore),
	)

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr:            net.JoinHostPort(host, port),
		ShutdownTimeout: 10 * time.Second,
		Dependencies: server.Dependencies{
			Flow:          flow,
			Prober:        prober,
			ResourceGroup: resourceGroup,
		},
	})

	return api.Start()
}
