package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, "max_regions: 16\ndisplay_limit: 3\nhistory_file: \"\"\ncolor: false\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, c.MaxRegions)
	assert.Equal(t, 3, c.DisplayLimit)
	assert.Equal(t, 4096, c.ChunkSize)
	assert.Equal(t, 64, c.PeekSize)
	assert.Equal(t, "", c.HistoryFile)
	assert.False(t, c.Color)
}

func TestLoadMissingDefaultIsFine(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().MaxRegions, c.MaxRegions)
}

func TestLoadMissingExplicitFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeFile(t, "display_limit: 0\n"))
	assert.ErrorContains(t, err, "display_limit")

	_, err = Load(writeFile(t, "max_regions: [1, 2]\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	c.ChunkSize = -1
	assert.ErrorContains(t, c.Validate(), "chunk_size")
}
