// Package vault stores server credentials in Azure Key Vault.
package vault

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/de-tools/sql-atlas/pkg/models/domain"
)

type Client struct {
	secrets *azsecrets.Client
}

func NewClient(vaultName string, credential azcore.TokenCredential) (*Client, error) {
	vaultURL := fmt.Sprintf("https://%s.vault.azure.net", vaultName)
	client, err := azsecrets.NewClient(vaultURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create key vault client for %s: %w", vaultName, err)
	}
	return &Client{secrets: client}, nil
}

// GetSecret returns the latest version of the named secret. A missing entry is
// reported as domain.ErrSecretNotFound, not as a vault failure.
func (c *Client) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := c.secrets.GetSecret(ctx, name, "", nil)
	if err != nil {
		if isNotFound(err) {
			return "", domain.ErrSecretNotFound
		}
		return "", fmt.Errorf("failed to read secret %q: %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret %q has no value", name)
	}
	return *resp.Value, nil
}

// SetSecret creates or replaces the named secret.
func (c *Client) SetSecret(ctx context.Context, name, value string) error {
	_, err := c.secrets.SetSecret(ctx, name, azsecrets.SetSecretParameters{
		Value: to.Ptr(value),
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to write secret %q: %w", name, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}
