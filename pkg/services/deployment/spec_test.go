package deployment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSpec = `
server:
  name: atlas-sql
  resourceGroup: atlas-rg
  location: westeurope
admin:
  username: sqladmin
vault:
  name: atlas-kv
  secretName: atlas-sql-admin
databases:
  - name: app
    edition: Standard
    serviceObjective: S1
  - name: scratch
auditing:
  storageAccount: atlaslogs
  storageKey: key
  retentionDays: 90
threatDetection:
  storageAccount: atlaslogs
  storageKey: key
  retentionDays: 90
  recipients:
    - ops@example.com
`

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deployment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSpec_ParsesCompleteSpec(t *testing.T) {
	spec, err := LoadSpec(writeSpec(t, validSpec))
	require.NoError(t, err)

	assert.Equal(t, "atlas-sql", spec.Server.Name)
	assert.Equal(t, "atlas-kv", spec.Vault.Name)
	require.Len(t, spec.Databases, 2)
	require.NotNil(t, spec.ThreatDetection)
	assert.Equal(t, []string{"ops@example.com"}, spec.ThreatDetection.Recipients)

	id := spec.Identity()
	assert.Equal(t, domain.LocationWestEurope, id.Location)
	assert.Equal(t, "atlas-sql.database.windows.net", id.FQDN())
}

func TestLoadSpec_Rejections(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{
			name: "unknown location",
			spec: `
server: {name: s, resourceGroup: rg, location: eastus}
admin: {username: a}
vault: {name: v, secretName: sn}
`,
		},
		{
			name: "unknown edition",
			spec: `
server: {name: s, resourceGroup: rg, location: westeurope}
admin: {username: a}
vault: {name: v, secretName: sn}
databases: [{name: db, edition: Hyperscale}]
`,
		},
		{
			name: "missing server name",
			spec: `
server: {resourceGroup: rg, location: westeurope}
admin: {username: a}
vault: {name: v, secretName: sn}
`,
		},
		{
			name: "missing vault",
			spec: `
server: {name: s, resourceGroup: rg, location: westeurope}
admin: {username: a}
`,
		},
		{
			name: "unnamed database",
			spec: `
server: {name: s, resourceGroup: rg, location: westeurope}
admin: {username: a}
vault: {name: v, secretName: sn}
databases: [{edition: Basic}]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSpec(writeSpec(t, tt.spec))
			assert.Error(t, err)
		})
	}
}

func TestSpecRequest_LoadsFirewallDocumentRelativeToSpec(t *testing.T) {
	dir := t.TempDir()

	firewallDoc := `[{"Name": "office", "StartIPAddress": "203.0.113.1", "EndIPAddress": "203.0.113.254"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "firewall.json"), []byte(firewallDoc), 0o600))

	specContent := `
server: {name: atlas-sql, resourceGroup: atlas-rg, location: northeurope}
admin: {username: sqladmin}
vault: {name: atlas-kv, secretName: atlas-sql-admin}
firewallDocument: firewall.json
`
	specPath := filepath.Join(dir, "deployment.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(specContent), 0o600))

	spec, err := LoadSpec(specPath)
	require.NoError(t, err)

	req, err := spec.Request()
	require.NoError(t, err)
	require.Len(t, req.FirewallRules, 1)
	assert.Equal(t, "office", req.FirewallRules[0].Name)
	assert.Equal(t, "atlas-sql-admin", req.SecretName)
}

func TestSpecRequest_EmptyFirewallDocumentYieldsEmptyDesiredSet(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "firewall.json"), []byte(`[]`), 0o600))

	specContent := `
server: {name: atlas-sql, resourceGroup: atlas-rg, location: northeurope}
admin: {username: sqladmin}
vault: {name: atlas-kv, secretName: atlas-sql-admin}
firewallDocument: firewall.json
`
	specPath := filepath.Join(dir, "deployment.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(specContent), 0o600))

	spec, err := LoadSpec(specPath)
	require.NoError(t, err)

	req, err := spec.Request()
	require.NoError(t, err)
	// An empty document still converges (deletes every live rule), so it must
	// stay distinguishable from a spec with no document at all.
	require.NotNil(t, req.FirewallRules)
	assert.Empty(t, req.FirewallRules)
}

func TestSpecRequest_NoFirewallDocumentLeavesRulesNil(t *testing.T) {
	spec, err := LoadSpec(writeSpec(t, validSpec))
	require.NoError(t, err)

	req, err := spec.Request()
	require.NoError(t, err)
	assert.Nil(t, req.FirewallRules)
}

func TestSpecRequest_MalformedFirewallDocumentFailsBeforeRequestIsBuilt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "firewall.json"), []byte(`{broken`), 0o600))

	specContent := `
server: {name: atlas-sql, resourceGroup: atlas-rg, location: northeurope}
admin: {username: sqladmin}
vault: {name: atlas-kv, secretName: atlas-sql-admin}
firewallDocument: firewall.json
`
	specPath := filepath.Join(dir, "deployment.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(specContent), 0o600))

	spec, err := LoadSpec(specPath)
	require.NoError(t, err)

	_, err = spec.Request()
	var parseErr *domain.ConfigParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestSpecRequest_DefaultsEditionWhenOmitted(t *testing.T) {
	spec, err := LoadSpec(writeSpec(t, validSpec))
	require.NoError(t, err)

	req, err := spec.Request()
	require.NoError(t, err)
	require.Len(t, req.Databases, 2)
	assert.Equal(t, domain.EditionStandard, req.Databases[0].Edition)
	assert.Equal(t, domain.EditionDefault, req.Databases[1].Edition)
}
