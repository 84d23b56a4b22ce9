package domain

// Credential is an administrator login for a provisioned server. The secret is
// created once per resource identity, persisted in the vault, and never rotated
// by this tool.
type Credential struct {
	Username string
	Secret   string
}

// String redacts the secret so credentials are safe to pass to loggers.
func (c Credential) String() string {
	return c.Username + ":[redacted]"
}
