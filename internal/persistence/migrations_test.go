package persistence

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestMigrationNamesSortedSQLOnly(t *testing.T) {
	files := fstest.MapFS{
		"002_add_index.sql":    {Data: []byte("SELECT 1")},
		"001_create_users.sql": {Data: []byte("SELECT 1")},
		"README.md":            {Data: []byte("notes")},
		"embed.go":             {Data: []byte("package migrations")},
	}

	names, err := migrationNames(files)
	require.NoError(t, err)
	require.Equal(t, []string{"001_create_users.sql", "002_add_index.sql"}, names)
}
