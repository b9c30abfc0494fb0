package migrations

import (
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	fsys := fstest.MapFS{
		"002_sessions.sql": {Data: []byte("SELECT 2;")},
		"001_init.sql":     {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("notes")},
		"010_settings.sql": {Data: []byte("SELECT 10;")},
	}

	files, err := List(fsys)
	require.NoError(t, err)

	assert.Equal(t, []Migration{
		{Version: "001", Name: "001_init.sql"},
		{Version: "002", Name: "002_sessions.sql"},
		{Version: "010", Name: "010_settings.sql"},
	}, files)
}

func TestList_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_init.sql":  {Data: []byte("SELECT 1;")},
		"001_again.sql": {Data: []byte("SELECT 1;")},
	}

	_, err := List(fsys)
	assert.ErrorContains(t, err, "duplicate migration version 001")
}

func TestPending(t *testing.T) {
	all := []Migration{{Version: "001"}, {Version: "002"}, {Version: "003"}}

	assert.Equal(t, []Migration{{Version: "002"}, {Version: "003"}}, Pending(all, map[string]bool{"001": true}))
	assert.Empty(t, Pending(all, map[string]bool{"001": true, "002": true, "003": true}))
}

func TestRepositoryMigrationsAreOrdered(t *testing.T) {
	files, err := List(os.DirFS("../../../migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001", files[0].Version)
}
