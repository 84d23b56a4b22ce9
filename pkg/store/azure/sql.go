// Package azure adapts the SQL management plane to the domain model used by
// the provisioning services.
package azure

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sql/armsql"
	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/de-tools/sql-atlas/pkg/services/azure"
)

const serverVersion = "12.0"

type SQLStore struct {
	servers   *armsql.ServersClient
	databases *armsql.DatabasesClient
	firewall  *armsql.FirewallRulesClient
	auditing  *armsql.ServerBlobAuditingPoliciesClient
	alerts    *armsql.ServerSecurityAlertPoliciesClient
}

func NewSQLStore(cfg *azure.Config) (*SQLStore, error) {
	servers, err := armsql.NewServersClient(cfg.SubscriptionID, cfg.Credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create servers client: %w", err)
	}
	databases, err := armsql.NewDatabasesClient(cfg.SubscriptionID, cfg.Credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create databases client: %w", err)
	}
	firewall, err := armsql.NewFirewallRulesClient(cfg.SubscriptionID, cfg.Credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create firewall rules client: %w", err)
	}
	auditing, err := armsql.NewServerBlobAuditingPoliciesClient(cfg.SubscriptionID, cfg.Credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create auditing policies client: %w", err)
	}
	alerts, err := armsql.NewServerSecurityAlertPoliciesClient(cfg.SubscriptionID, cfg.Credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create security alert policies client: %w", err)
	}

	return &SQLStore{
		servers:   servers,
		databases: databases,
		firewall:  firewall,
		auditing:  auditing,
		alerts:    alerts,
	}, nil
}

// GetServer looks up a server by exact name within the subscription. A nil
// handle with nil error means the server does not exist in this scope.
func (s *SQLStore) GetServer(ctx context.Context, id domain.ResourceIdentity) (*domain.ServerHandle, error) {
	resp, err := s.servers.Get(ctx, id.ResourceGroup, id.Name, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get server %s: %w", id, err)
	}
	return serverHandle(resp.Server), nil
}

// CreateServer issues a single creation call and blocks until the server is
// provisioned. Callers decide whether creation is safe; this method does not
// probe first.
func (s *SQLStore) CreateServer(
	ctx context.Context,
	id domain.ResourceIdentity,
	cred domain.Credential,
) (*domain.ServerHandle, error) {
	poller, err := s.servers.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, armsql.Server{
		Location: to.Ptr(string(id.Location)),
		Properties: &armsql.ServerProperties{
			AdministratorLogin:         to.Ptr(cred.Username),
			AdministratorLoginPassword: to.Ptr(cred.Secret),
			Version:                    to.Ptr(serverVersion),
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin server creation for %s: %w", id, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("server creation did not complete for %s: %w", id, err)
	}
	return serverHandle(resp.Server), nil
}

// DatabaseExists reports whether the named database exists on the server.
func (s *SQLStore) DatabaseExists(ctx context.Context, id domain.ResourceIdentity, name string) (bool, error) {
	_, err := s.databases.Get(ctx, id.ResourceGroup, id.Name, name, nil)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get database %s on server %s: %w", name, id, err)
	}
	return true, nil
}

// CreateDatabase creates a database with the requested edition and service
// objective and blocks until provisioning completes.
func (s *SQLStore) CreateDatabase(ctx context.Context, id domain.ResourceIdentity, spec domain.DatabaseSpec) error {
	db := armsql.Database{
		Location: to.Ptr(string(id.Location)),
	}
	if sku := databaseSKU(spec); sku != nil {
		db.SKU = sku
	}

	poller, err := s.databases.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, spec.Name, db, nil)
	if err != nil {
		return fmt.Errorf("failed to begin database creation for %s/%s: %w", id, spec.Name, err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("database creation did not complete for %s/%s: %w", id, spec.Name, err)
	}
	return nil
}

// ListFirewallRules fetches the live rule set of a server.
func (s *SQLStore) ListFirewallRules(ctx context.Context, id domain.ResourceIdentity) ([]domain.FirewallRule, error) {
	var rules []domain.FirewallRule
	pager := s.firewall.NewListByServerPager(id.ResourceGroup, id.Name, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list firewall rules on server %s: %w", id, err)
		}
		for _, rule := range page.Value {
			if rule == nil || rule.Name == nil || rule.Properties == nil {
				continue
			}
			rules = append(rules, domain.FirewallRule{
				Name:           *rule.Name,
				StartIPAddress: deref(rule.Properties.StartIPAddress),
				EndIPAddress:   deref(rule.Properties.EndIPAddress),
			})
		}
	}
	return rules, nil
}

// UpsertFirewallRule creates the rule or overwrites its address range.
func (s *SQLStore) UpsertFirewallRule(ctx context.Context, id domain.ResourceIdentity, rule domain.FirewallRule) error {
	_, err := s.firewall.CreateOrUpdate(ctx, id.ResourceGroup, id.Name, rule.Name, armsql.FirewallRule{
		Properties: &armsql.ServerFirewallRuleProperties{
			StartIPAddress: to.Ptr(rule.StartIPAddress),
			EndIPAddress:   to.Ptr(rule.EndIPAddress),
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to upsert firewall rule %q on server %s: %w", rule.Name, id, err)
	}
	return nil
}

// DeleteFirewallRule removes a rule by name.
func (s *SQLStore) DeleteFirewallRule(ctx context.Context, id domain.ResourceIdentity, name string) error {
	_, err := s.firewall.Delete(ctx, id.ResourceGroup, id.Name, name, nil)
	if err != nil {
		return fmt.Errorf("failed to delete firewall rule %q on server %s: %w", name, id, err)
	}
	return nil
}

// ApplyAuditingPolicy overwrites the server blob auditing policy.
func (s *SQLStore) ApplyAuditingPolicy(ctx context.Context, id domain.ResourceIdentity, policy domain.AuditingPolicy) error {
	poller, err := s.auditing.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name, armsql.ServerBlobAuditingPolicy{
		Properties: &armsql.ServerBlobAuditingPolicyProperties{
			State:                   to.Ptr(armsql.BlobAuditingPolicyStateEnabled),
			StorageEndpoint:         to.Ptr(policy.StorageEndpoint()),
			StorageAccountAccessKey: to.Ptr(policy.StorageKey),
			RetentionDays:           to.Ptr(policy.RetentionDays),
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to begin auditing policy update on server %s: %w", id, err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("auditing policy update did not complete on server %s: %w", id, err)
	}
	return nil
}

// ApplyThreatDetectionPolicy overwrites the server security alert policy.
func (s *SQLStore) ApplyThreatDetectionPolicy(
	ctx context.Context,
	id domain.ResourceIdentity,
	policy domain.ThreatDetectionPolicy,
) error {
	recipients := make([]*string, 0, len(policy.Recipients))
	for _, r := range policy.Recipients {
		recipients = append(recipients, to.Ptr(r))
	}

	poller, err := s.alerts.BeginCreateOrUpdate(ctx, id.ResourceGroup, id.Name,
		armsql.SecurityAlertPolicyNameDefault,
		armsql.ServerSecurityAlertPolicy{
			Properties: &armsql.SecurityAlertsPolicyProperties{
				State:                   to.Ptr(armsql.SecurityAlertsPolicyStateEnabled),
				EmailAddresses:          recipients,
				StorageEndpoint:         to.Ptr(policy.StorageEndpoint()),
				StorageAccountAccessKey: to.Ptr(policy.StorageKey),
				RetentionDays:           to.Ptr(policy.RetentionDays),
			},
		}, nil)
	if err != nil {
		return fmt.Errorf("failed to begin threat detection policy update on server %s: %w", id, err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("threat detection policy update did not complete on server %s: %w", id, err)
	}
	return nil
}

func serverHandle(server armsql.Server) *domain.ServerHandle {
	handle := &domain.ServerHandle{
		ID:   deref(server.ID),
		Name: deref(server.Name),
	}
	if server.Properties != nil {
		handle.FQDN = deref(server.Properties.FullyQualifiedDomainName)
	}
	return handle
}

// databaseSKU maps an edition/service-objective pair onto the provider SKU.
// Default and None leave the SKU unset so the provider picks its default.
func databaseSKU(spec domain.DatabaseSpec) *armsql.SKU {
	if spec.Edition == domain.EditionDefault || spec.Edition == domain.EditionNone || spec.Edition == "" {
		return nil
	}
	objective := spec.ServiceObjective
	if objective == "" {
		objective = string(spec.Edition)
	}
	return &armsql.SKU{
		Name: to.Ptr(objective),
		Tier: to.Ptr(string(spec.Edition)),
	}
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
