package api

// Deployment is the request body accepted by the provisioning endpoint.
type Deployment struct {
	Server        string         `json:"server"`
	ResourceGroup string         `json:"resourceGroup"`
	Location      string         `json:"location"`
	AdminUsername string         `json:"adminUsername"`
	Databases     []Database     `json:"databases,omitempty"`
	FirewallRules []FirewallRule `json:"firewallRules,omitempty"`
}

type Database struct {
	Name             string `json:"name"`
	Edition          string `json:"edition"`
	ServiceObjective string `json:"serviceObjective,omitempty"`
}

// FirewallRule mirrors the desired-state document entry. Field names and
// casing are a compatibility contract with existing documents.
type FirewallRule struct {
	Name           string `json:"Name"`
	StartIPAddress string `json:"StartIPAddress"`
	EndIPAddress   string `json:"EndIPAddress"`
}

// DeploymentStatus is returned by the status endpoint.
type DeploymentStatus struct {
	Server   string `json:"server"`
	Exists   bool   `json:"exists"`
	FQDN     string `json:"fqdn,omitempty"`
	Location string `json:"location,omitempty"`
}

// ProvisionResult is returned on a successful provisioning run. The admin
// secret is deliberately absent: it is only ever emitted through the pipeline
// output channel, marked sensitive.
type ProvisionResult struct {
	Server  string `json:"server"`
	FQDN    string `json:"fqdn"`
	Created bool   `json:"created"`
}
