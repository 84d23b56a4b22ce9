package domain

// ProvisionOutputs are the values a successful run hands back to the calling
// orchestrator. AdminSecret must be marked sensitive by any consumer.
type ProvisionOutputs struct {
	FullyQualifiedDomainName string
	AdminSecret              string
}
