package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 30000, c.Timeout)
	assert.Equal(t, "30s", c.TimeoutDuration().String())
	assert.True(t, c.GetFollowRedirects())
	assert.True(t, c.GetValidateSSL())
	assert.False(t, c.GetPooled())
	assert.True(t, c.IsDefault())
	require.NoError(t, c.Validate())
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	c, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.True(t, c.IsDefault())
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".chitose.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timeout: 5000
validateSSL: false
pooled: true
logLevel: debug
session: cookies.db
`), 0644))

	c, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 5000, c.Timeout)
	assert.False(t, c.GetValidateSSL())
	assert.True(t, c.GetPooled())
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "cookies.db", c.Session)
	assert.True(t, c.GetFollowRedirects())
	assert.False(t, c.IsDefault())
}

func TestLoadConfig_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chitose.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timeout": 1000, "followRedirects": false}`), 0644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, c.Timeout)
	assert.False(t, c.GetFollowRedirects())
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("logLevel: loud\n"), 0644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("timeout: [\n"), 0644))
	_, err = LoadConfig(broken)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	merged := base.Merge(&Config{
		Timeout:   2000,
		Pooled:    BoolPtr(true),
		LogFormat: "json",
	})

	assert.Equal(t, 2000, merged.Timeout)
	assert.True(t, merged.GetPooled())
	assert.Equal(t, "json", merged.LogFormat)
	assert.True(t, merged.GetValidateSSL())
	assert.Equal(t, 30000, base.Timeout, "merge must not modify the receiver")

	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	c := DefaultConfig()
	c.Timeout = 1234
	require.NoError(t, c.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, loaded.Timeout)
}
