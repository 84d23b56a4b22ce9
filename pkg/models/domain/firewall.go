package domain

// FirewallRule is a named IPv4 range allowed to reach a server. Name is the
// unique key within a server; reconciliation compares live and desired rule
// sets by name.
type FirewallRule struct {
	Name           string
	StartIPAddress string
	EndIPAddress   string
}

// Equal reports whether two rules describe the same address range.
func (r FirewallRule) Equal(other FirewallRule) bool {
	return r.Name == other.Name &&
		r.StartIPAddress == other.StartIPAddress &&
		r.EndIPAddress == other.EndIPAddress
}
