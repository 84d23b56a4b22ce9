package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEnsureServer_ReusesExistingHandle(t *testing.T) {
	servers := new(mockServerStore)
	c := NewCreator(servers, new(mockDatabaseStore))

	existing := &domain.ServerHandle{Name: "atlas-sql", FQDN: "atlas-sql.database.windows.net"}
	handle, created, err := c.EnsureServer(context.Background(), testIdentity, testCred, existing)

	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, existing, handle)
	servers.AssertNotCalled(t, "CreateServer", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureServer_WrapsCreationFailure(t *testing.T) {
	servers := new(mockServerStore)
	servers.On("CreateServer", mock.Anything, testIdentity, testCred).Return(nil, assert.AnError)

	c := NewCreator(servers, new(mockDatabaseStore))
	handle, created, err := c.EnsureServer(context.Background(), testIdentity, testCred, nil)

	assert.Nil(t, handle)
	assert.False(t, created)

	var creation *domain.CreationError
	require.True(t, errors.As(err, &creation))
	assert.Equal(t, "atlas-sql", creation.Resource)
}

func TestEnsureDatabase_SkipsExistingDatabase(t *testing.T) {
	databases := new(mockDatabaseStore)
	databases.On("DatabaseExists", mock.Anything, testIdentity, "app").Return(true, nil)

	c := NewCreator(new(mockServerStore), databases)
	err := c.EnsureDatabase(context.Background(), testIdentity, domain.DatabaseSpec{Name: "app"})

	require.NoError(t, err)
	databases.AssertNotCalled(t, "CreateDatabase", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureDatabase_WrapsCreationFailure(t *testing.T) {
	spec := domain.DatabaseSpec{Name: "app", Edition: domain.EditionBasic}
	databases := new(mockDatabaseStore)
	databases.On("DatabaseExists", mock.Anything, testIdentity, "app").Return(false, nil)
	databases.On("CreateDatabase", mock.Anything, testIdentity, spec).Return(assert.AnError)

	c := NewCreator(new(mockServerStore), databases)
	err := c.EnsureDatabase(context.Background(), testIdentity, spec)

	var creation *domain.CreationError
	require.True(t, errors.As(err, &creation))
	assert.Equal(t, "atlas-sql/app", creation.Resource)
}
