package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ApplyAuditingPolicy(ctx context.Context, id domain.ResourceIdentity, policy domain.AuditingPolicy) error {
	args := m.Called(ctx, id, policy)
	return args.Error(0)
}

func (m *mockStore) ApplyThreatDetectionPolicy(
	ctx context.Context,
	id domain.ResourceIdentity,
	policy domain.ThreatDetectionPolicy,
) error {
	args := m.Called(ctx, id, policy)
	return args.Error(0)
}

var testIdentity = domain.ResourceIdentity{
	Name:          "atlas-sql",
	ResourceGroup: "atlas-rg",
	Location:      domain.LocationWestEurope,
}

func TestApplyAuditing_WrapsStoreFailure(t *testing.T) {
	auditing := domain.AuditingPolicy{StorageAccount: "atlaslogs", RetentionDays: 90}

	store := new(mockStore)
	store.On("ApplyAuditingPolicy", mock.Anything, testIdentity, auditing).Return(assert.AnError)

	a := NewApplier(store)
	err := a.ApplyAuditing(context.Background(), testIdentity, auditing)

	var policyErr *domain.PolicyApplyError
	require.True(t, errors.As(err, &policyErr))
	assert.Equal(t, "atlas-sql", policyErr.Server)
	assert.Equal(t, "auditing", policyErr.Policy)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestApplyThreatDetection_WrapsStoreFailure(t *testing.T) {
	threat := domain.ThreatDetectionPolicy{
		StorageAccount: "atlaslogs",
		RetentionDays:  90,
		Recipients:     []string{"ops@example.com"},
	}

	store := new(mockStore)
	store.On("ApplyThreatDetectionPolicy", mock.Anything, testIdentity, threat).Return(assert.AnError)

	a := NewApplier(store)
	err := a.ApplyThreatDetection(context.Background(), testIdentity, threat)

	var policyErr *domain.PolicyApplyError
	require.True(t, errors.As(err, &policyErr))
	assert.Equal(t, "threat detection", policyErr.Policy)
}

func TestApply_SucceedsWhenStoreSucceeds(t *testing.T) {
	auditing := domain.AuditingPolicy{StorageAccount: "atlaslogs", RetentionDays: 90}

	store := new(mockStore)
	store.On("ApplyAuditingPolicy", mock.Anything, testIdentity, auditing).Return(nil)

	a := NewApplier(store)
	require.NoError(t, a.ApplyAuditing(context.Background(), testIdentity, auditing))
	store.AssertExpectations(t)
}
