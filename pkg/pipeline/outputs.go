// Package pipeline emits named outputs for the calling orchestrator using
// Azure DevOps logging commands.
package pipeline

import (
	"fmt"
	"io"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
)

const (
	fqdnVariable   = "sqlServerFqdn"
	secretVariable = "sqlServerAdminPassword"
)

// Emitter writes task variables to the pipeline log stream.
type Emitter struct {
	writer io.Writer
}

func NewEmitter(writer io.Writer) *Emitter {
	return &Emitter{writer: writer}
}

// Emit publishes the run outputs: the server FQDN as a plain output variable
// and the admin secret marked sensitive so no consumer logs it in clear text.
func (e *Emitter) Emit(outputs domain.ProvisionOutputs) error {
	if _, err := fmt.Fprintf(e.writer,
		"##vso[task.setvariable variable=%s;isOutput=true]%s\n",
		fqdnVariable, outputs.FullyQualifiedDomainName); err != nil {
		return fmt.Errorf("failed to emit fqdn output: %w", err)
	}
	if _, err := fmt.Fprintf(e.writer,
		"##vso[task.setvariable variable=%s;isOutput=true;issecret=true]%s\n",
		secretVariable, outputs.AdminSecret); err != nil {
		return fmt.Errorf("failed to emit secret output: %w", err)
	}
	return nil
}
