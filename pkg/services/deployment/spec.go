// Package deployment loads the declarative deployment spec that drives a
// provisioning run.
package deployment

import (
	"fmt"
	"path/filepath"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/de-tools/sql-atlas/pkg/services/firewall"
	"github.com/de-tools/sql-atlas/pkg/services/provision"
	"github.com/spf13/viper"
)

type ServerSpec struct {
	Name          string `mapstructure:"name"`
	ResourceGroup string `mapstructure:"resourceGroup"`
	Location      string `mapstructure:"location"`
}

type AdminSpec struct {
	Username string `mapstructure:"username"`
}

type VaultSpec struct {
	Name       string `mapstructure:"name"`
	SecretName string `mapstructure:"secretName"`
}

type DatabaseSpec struct {
	Name             string `mapstructure:"name"`
	Edition          string `mapstructure:"edition"`
	ServiceObjective string `mapstructure:"serviceObjective"`
}

type AuditingSpec struct {
	StorageAccount string `mapstructure:"storageAccount"`
	StorageKey     string `mapstructure:"storageKey"`
	RetentionDays  int32  `mapstructure:"retentionDays"`
}

type ThreatDetectionSpec struct {
	StorageAccount string   `mapstructure:"storageAccount"`
	StorageKey     string   `mapstructure:"storageKey"`
	RetentionDays  int32    `mapstructure:"retentionDays"`
	Recipients     []string `mapstructure:"recipients"`
}

// Spec is the deployment document. Everything a run needs is explicit here;
// there are no environment-variable defaults for location or resource group.
type Spec struct {
	Server           ServerSpec           `mapstructure:"server"`
	Admin            AdminSpec            `mapstructure:"admin"`
	Vault            VaultSpec            `mapstructure:"vault"`
	Databases        []DatabaseSpec       `mapstructure:"databases"`
	FirewallDocument string               `mapstructure:"firewallDocument"`
	Auditing         *AuditingSpec        `mapstructure:"auditing"`
	ThreatDetection  *ThreatDetectionSpec `mapstructure:"threatDetection"`

	dir string // directory of the spec file, for resolving relative paths
}

// LoadSpec reads and validates a deployment spec file (YAML or JSON).
func LoadSpec(path string) (*Spec, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read deployment spec: %w", err)
	}

	var spec Spec
	if err := v.Unmarshal(&spec); err != nil {
		return nil, fmt.Errorf("failed to parse deployment spec: %w", err)
	}
	spec.dir = filepath.Dir(path)

	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid deployment spec %s: %w", path, err)
	}
	return &spec, nil
}

func (s *Spec) validate() error {
	if s.Server.Name == "" {
		return fmt.Errorf("server.name is required")
	}
	if s.Server.ResourceGroup == "" {
		return fmt.Errorf("server.resourceGroup is required")
	}
	if _, err := domain.ParseLocation(s.Server.Location); err != nil {
		return err
	}
	if s.Admin.Username == "" {
		return fmt.Errorf("admin.username is required")
	}
	if s.Vault.Name == "" || s.Vault.SecretName == "" {
		return fmt.Errorf("vault.name and vault.secretName are required")
	}
	for _, db := range s.Databases {
		if db.Name == "" {
			return fmt.Errorf("every database needs a name")
		}
		if db.Edition != "" {
			if _, err := domain.ParseEdition(db.Edition); err != nil {
				return err
			}
		}
	}
	return nil
}

// Identity returns the server identity described by the spec.
func (s *Spec) Identity() domain.ResourceIdentity {
	return domain.ResourceIdentity{
		Name:          s.Server.Name,
		ResourceGroup: s.Server.ResourceGroup,
		Location:      domain.Location(s.Server.Location),
	}
}

// Request materializes the provisioning request, loading the firewall
// desired-state document when one is referenced. Relative document paths are
// resolved against the spec file's directory.
func (s *Spec) Request() (provision.Request, error) {
	req := provision.Request{
		Identity:      s.Identity(),
		AdminUsername: s.Admin.Username,
		SecretName:    s.Vault.SecretName,
	}

	for _, db := range s.Databases {
		edition := domain.DatabaseEdition(db.Edition)
		if db.Edition == "" {
			edition = domain.EditionDefault
		}
		req.Databases = append(req.Databases, domain.DatabaseSpec{
			Name:             db.Name,
			Edition:          edition,
			ServiceObjective: db.ServiceObjective,
		})
	}

	if s.FirewallDocument != "" {
		docPath := s.FirewallDocument
		if !filepath.IsAbs(docPath) {
			docPath = filepath.Join(s.dir, docPath)
		}
		rules, err := firewall.LoadDocument(docPath)
		if err != nil {
			return provision.Request{}, err
		}
		req.FirewallRules = rules
	}

	if s.Auditing != nil {
		req.Auditing = &domain.AuditingPolicy{
			StorageAccount: s.Auditing.StorageAccount,
			StorageKey:     s.Auditing.StorageKey,
			RetentionDays:  s.Auditing.RetentionDays,
		}
	}
	if s.ThreatDetection != nil {
		req.ThreatDetection = &domain.ThreatDetectionPolicy{
			StorageAccount: s.ThreatDetection.StorageAccount,
			StorageKey:     s.ThreatDetection.StorageKey,
			RetentionDays:  s.ThreatDetection.RetentionDays,
			Recipients:     s.ThreatDetection.Recipients,
		}
	}

	return req, nil
}
