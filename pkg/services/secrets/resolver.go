// Package secrets resolves server admin credentials against a vault, creating
// them on first use.
package secrets

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Vault is the secret storage the resolver reads and writes.
type Vault interface {
	GetSecret(ctx context.Context, name string) (string, error)
	SetSecret(ctx context.Context, name, value string) error
}

type Resolver struct {
	vault Vault
}

func NewResolver(vault Vault) *Resolver {
	return &Resolver{vault: vault}
}

// Resolve returns the credential stored under secretName, creating and
// persisting a new one when no entry exists. An existing secret is returned
// unchanged; the resolver never rotates. Vault failures are fatal and reported
// as VaultAccessError.
func (r *Resolver) Resolve(ctx context.Context, secretName, username string) (domain.Credential, error) {
	logger := zerolog.Ctx(ctx)

	value, err := r.vault.GetSecret(ctx, secretName)
	if err == nil {
		return domain.Credential{Username: username, Secret: value}, nil
	}
	if !errors.Is(err, domain.ErrSecretNotFound) {
		return domain.Credential{}, &domain.VaultAccessError{SecretName: secretName, Op: "get", Err: err}
	}

	logger.Info().Str("secret", secretName).Msg("no vault entry found, generating new credential")

	value, err = generateSecret(32)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to generate secret: %w", err)
	}
	if err := r.vault.SetSecret(ctx, secretName, value); err != nil {
		return domain.Credential{}, &domain.VaultAccessError{SecretName: secretName, Op: "set", Err: err}
	}

	return domain.Credential{Username: username, Secret: value}, nil
}

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!#$%&*+-_"
)

// generateSecret produces a high-entropy password satisfying the provider's
// complexity requirements: at least one character from each class.
func generateSecret(length int) (string, error) {
	classes := []string{lowerChars, upperChars, digitChars, symbolChars}
	all := lowerChars + upperChars + digitChars + symbolChars

	if length < len(classes) {
		return "", fmt.Errorf("secret length %d is too short", length)
	}

	buf := make([]byte, length)
	for i, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}
	for i := len(classes); i < length; i++ {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}

	// Shuffle so the guaranteed class characters are not positional.
	for i := length - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

func randomChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, fmt.Errorf("failed to read random source: %w", err)
	}
	return charset[n.Int64()], nil
}
