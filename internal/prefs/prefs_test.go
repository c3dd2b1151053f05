package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "prefs.toml"))
	require.NoError(t, err)

	_, ok := s.Get(KeyTheme)
	assert.False(t, ok)
}

func TestStore_SetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.toml")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyTheme, "dark"))

	reopened, err := Open(path)
	require.NoError(t, err)
	got, ok := reopened.Get(KeyTheme)
	assert.True(t, ok)
	assert.Equal(t, "dark", got)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte("theme = = ="), 0o600))

	_, err := Open(path)
	assert.Error(t, err)
}
