package firewall

import (
	"context"
	"testing"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRuleStore struct {
	mock.Mock
}

func (m *mockRuleStore) ListFirewallRules(ctx context.Context, id domain.ResourceIdentity) ([]domain.FirewallRule, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]domain.FirewallRule), args.Error(1)
}

func (m *mockRuleStore) UpsertFirewallRule(ctx context.Context, id domain.ResourceIdentity, rule domain.FirewallRule) error {
	args := m.Called(ctx, id, rule)
	return args.Error(0)
}

func (m *mockRuleStore) DeleteFirewallRule(ctx context.Context, id domain.ResourceIdentity, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

var testIdentity = domain.ResourceIdentity{
	Name:          "atlas-sql",
	ResourceGroup: "atlas-rg",
	Location:      domain.LocationWestEurope,
}

func TestReconciler_ConvergesLiveSetOntoDesiredSet(t *testing.T) {
	store := new(mockRuleStore)

	ruleA := domain.FirewallRule{Name: "A", StartIPAddress: "0.0.0.0", EndIPAddress: "0.0.0.0"}
	ruleB := domain.FirewallRule{Name: "B", StartIPAddress: "1.1.1.1", EndIPAddress: "1.1.1.1"}
	ruleC := domain.FirewallRule{Name: "C", StartIPAddress: "2.2.2.2", EndIPAddress: "2.2.2.2"}

	store.On("ListFirewallRules", mock.Anything, testIdentity).
		Return([]domain.FirewallRule{ruleA, ruleC}, nil)
	// B is new and must be created; A matches and must not be touched.
	store.On("UpsertFirewallRule", mock.Anything, testIdentity, ruleB).Return(nil)
	// C is not in the desired document and must be deleted.
	store.On("DeleteFirewallRule", mock.Anything, testIdentity, "C").Return(nil)

	r := NewReconciler(store)
	err := r.Reconcile(context.Background(), testIdentity, []domain.FirewallRule{ruleA, ruleB})

	require.NoError(t, err)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "UpsertFirewallRule", mock.Anything, testIdentity, ruleA)
}

func TestReconciler_OverwritesChangedAddressRange(t *testing.T) {
	store := new(mockRuleStore)

	live := domain.FirewallRule{Name: "office", StartIPAddress: "10.0.0.1", EndIPAddress: "10.0.0.1"}
	desired := domain.FirewallRule{Name: "office", StartIPAddress: "10.0.0.1", EndIPAddress: "10.0.0.254"}

	store.On("ListFirewallRules", mock.Anything, testIdentity).
		Return([]domain.FirewallRule{live}, nil)
	store.On("UpsertFirewallRule", mock.Anything, testIdentity, desired).Return(nil)

	r := NewReconciler(store)
	err := r.Reconcile(context.Background(), testIdentity, []domain.FirewallRule{desired})

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReconciler_SecondRunWithSameDocumentIsNoOp(t *testing.T) {
	desired := []domain.FirewallRule{
		{Name: "A", StartIPAddress: "0.0.0.0", EndIPAddress: "0.0.0.0"},
		{Name: "B", StartIPAddress: "1.1.1.1", EndIPAddress: "1.1.1.1"},
	}

	store := new(mockRuleStore)
	// Live state already equals the desired document.
	store.On("ListFirewallRules", mock.Anything, testIdentity).Return(desired, nil)

	r := NewReconciler(store)
	err := r.Reconcile(context.Background(), testIdentity, desired)

	require.NoError(t, err)
	store.AssertNotCalled(t, "UpsertFirewallRule", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "DeleteFirewallRule", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconciler_EmptyDocumentDeletesEverything(t *testing.T) {
	store := new(mockRuleStore)

	store.On("ListFirewallRules", mock.Anything, testIdentity).Return([]domain.FirewallRule{
		{Name: "A", StartIPAddress: "0.0.0.0", EndIPAddress: "0.0.0.0"},
		{Name: "B", StartIPAddress: "1.1.1.1", EndIPAddress: "1.1.1.1"},
	}, nil)
	store.On("DeleteFirewallRule", mock.Anything, testIdentity, "A").Return(nil)
	store.On("DeleteFirewallRule", mock.Anything, testIdentity, "B").Return(nil)

	r := NewReconciler(store)
	err := r.Reconcile(context.Background(), testIdentity, nil)

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReconciler_PropagatesListFailure(t *testing.T) {
	store := new(mockRuleStore)
	store.On("ListFirewallRules", mock.Anything, testIdentity).
		Return([]domain.FirewallRule(nil), assert.AnError)

	r := NewReconciler(store)
	err := r.Reconcile(context.Background(), testIdentity, []domain.FirewallRule{
		{Name: "A", StartIPAddress: "0.0.0.0", EndIPAddress: "0.0.0.0"},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	store.AssertNotCalled(t, "UpsertFirewallRule", mock.Anything, mock.Anything, mock.Anything)
}
