package domain

// AuditingPolicy configures blob auditing on a server. Applied as a full
// overwrite once the server is confirmed present.
type AuditingPolicy struct {
	StorageAccount string
	StorageKey     string
	RetentionDays  int32
}

// StorageEndpoint returns the blob endpoint of the auditing storage account.
func (p AuditingPolicy) StorageEndpoint() string {
	return "https://" + p.StorageAccount + ".blob.core.windows.net/"
}

// ThreatDetectionPolicy configures security alerting on a server. Applied as a
// full overwrite, no diffing against the live policy.
type ThreatDetectionPolicy struct {
	StorageAccount string
	StorageKey     string
	RetentionDays  int32
	Recipients     []string
}

// StorageEndpoint returns the blob endpoint of the alert storage account.
func (p ThreatDetectionPolicy) StorageEndpoint() string {
	return "https://" + p.StorageAccount + ".blob.core.windows.net/"
}
