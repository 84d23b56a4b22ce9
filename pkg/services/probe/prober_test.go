package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockIndex struct {
	mock.Mock
}

func (m *mockIndex) GetServer(ctx context.Context, id domain.ResourceIdentity) (*domain.ServerHandle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServerHandle), args.Error(1)
}

type fakeResolver struct {
	hosts map[string][]string
}

func (r *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	addrs, ok := r.hosts[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	return addrs, nil
}

var testIdentity = domain.ResourceIdentity{
	Name:          "atlas-sql",
	ResourceGroup: "atlas-rg",
	Location:      domain.LocationNorthEurope,
}

func TestProbe_ReturnsHandleWhenServerExistsInScope(t *testing.T) {
	index := new(mockIndex)
	handle := &domain.ServerHandle{Name: "atlas-sql", FQDN: "atlas-sql.database.windows.net"}
	index.On("GetServer", mock.Anything, testIdentity).Return(handle, nil)

	p := NewProber(index, &fakeResolver{})
	got, err := p.Probe(context.Background(), testIdentity)

	require.NoError(t, err)
	assert.Equal(t, handle, got)
}

func TestProbe_FailsFastOnNameCollision(t *testing.T) {
	index := new(mockIndex)
	index.On("GetServer", mock.Anything, testIdentity).Return(nil, nil)

	// The FQDN resolves publicly even though the server is invisible in scope:
	// the name belongs to someone else.
	resolver := &fakeResolver{hosts: map[string][]string{
		"atlas-sql.database.windows.net": {"40.68.37.158"},
	}}

	p := NewProber(index, resolver)
	got, err := p.Probe(context.Background(), testIdentity)

	assert.Nil(t, got)
	var collision *domain.NameCollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "atlas-sql", collision.Name)
	assert.Equal(t, "atlas-sql.database.windows.net", collision.FQDN)
}

func TestProbe_FreeNameYieldsNoHandleAndNoError(t *testing.T) {
	index := new(mockIndex)
	index.On("GetServer", mock.Anything, testIdentity).Return(nil, nil)

	p := NewProber(index, &fakeResolver{})
	got, err := p.Probe(context.Background(), testIdentity)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProbe_PropagatesIndexFailure(t *testing.T) {
	index := new(mockIndex)
	index.On("GetServer", mock.Anything, testIdentity).Return(nil, assert.AnError)

	p := NewProber(index, &fakeResolver{})
	_, err := p.Probe(context.Background(), testIdentity)

	assert.ErrorIs(t, err, assert.AnError)
}

func TestGloballyResolvable(t *testing.T) {
	resolver := &fakeResolver{hosts: map[string][]string{
		"claimed.database.windows.net": {"10.1.2.3"},
		"empty.database.windows.net":   {},
	}}
	p := NewProber(new(mockIndex), resolver)

	assert.True(t, p.GloballyResolvable(context.Background(), "claimed.database.windows.net"))
	assert.False(t, p.GloballyResolvable(context.Background(), "empty.database.windows.net"))
	assert.False(t, p.GloballyResolvable(context.Background(), "free.database.windows.net"))
}
