package domain

import (
	"errors"
	"fmt"
)

// ErrSecretNotFound is returned by vault stores when a secret name has no
// entry. Resolvers treat it as a normal outcome, not a failure.
var ErrSecretNotFound = errors.New("secret not found")

// NameCollisionError signals that a desired server name resolves publicly but
// is not visible in the caller's subscription: the name is claimed by a
// deployment the caller cannot see. Fatal; raised before any creation attempt.
type NameCollisionError struct {
	Name string
	FQDN string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("server name %q is already claimed: %s resolves publicly but the server is not visible in this subscription", e.Name, e.FQDN)
}

// VaultAccessError wraps a secret read or write failure. Fatal, not retried.
type VaultAccessError struct {
	SecretName string
	Op         string // "get" or "set"
	Err        error
}

func (e *VaultAccessError) Error() string {
	return fmt.Sprintf("vault %s failed for secret %q: %v", e.Op, e.SecretName, e.Err)
}

func (e *VaultAccessError) Unwrap() error { return e.Err }

// CreationError wraps a failure from a primary resource creation call. The
// original cause is preserved, never swallowed. Fatal, no retry.
type CreationError struct {
	Resource string
	Err      error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("failed to create resource %q: %v", e.Resource, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// ConfigParseError signals a malformed or unreadable desired-state document.
// Raised before any mutation.
type ConfigParseError struct {
	Path string
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("failed to parse desired-state document %q: %v", e.Path, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

// PolicyApplyError wraps a failure applying an auditing or threat-detection
// policy. Surfaced to the caller but does not undo prior steps.
type PolicyApplyError struct {
	Server string
	Policy string
	Err    error
}

func (e *PolicyApplyError) Error() string {
	return fmt.Sprintf("failed to apply %s policy on server %q: %v", e.Policy, e.Server, e.Err)
}

func (e *PolicyApplyError) Unwrap() error { return e.Err }
