package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationVersionsAreSortedAndEmbedded(t *testing.T) {
	versions, err := migrationVersions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)

	assert.Equal(t, "0001_init.up.sql", versions[0])
	assert.IsIncreasing(t, versions)

	contents, err := migrationFiles.ReadFile("migrations/" + versions[0])
	require.NoError(t, err)
	for _, table := range []string{"workspaces", "members", "channels", "conversations", "messages", "reactions", "users"} {
		assert.Contains(t, string(contents), "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}
