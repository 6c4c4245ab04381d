package props

// Test Plan:
// 1. Load reads spyglass.yml and flattens nested keys to dotted paths
// 2. Environment variables override file values
// 3. A missing config file still yields defaults and environment values
// 4. Unset environment bindings do not show up as present keys
// 5. A malformed config file is a load error

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, "spyglass.yml"), []byte(content), 0o644)
	require.NoError(t, err)
}

func TestLoadFlattensFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
spyglass:
  search:
    port: 9001
  cluster:
    name: alpha
  path:
    home: /srv/app
`)

	set, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9001", set.Value("spyglass.search.port"))
	assert.Equal(t, "alpha", set.Value("spyglass.cluster.name"))
	assert.Equal(t, "/srv/app", set.Value("spyglass.path.home"))
	assert.Equal(t, dir, set.Value("spyglass.path.conf"))
	assert.Equal(t, filepath.Join(dir, "search.options"), set.Value("spyglass.search.options"))
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
spyglass:
  search:
    port: 9001
`)
	t.Setenv("SPYGLASS_SEARCH_PORT", "9301")
	t.Setenv("SPYGLASS_NODE_NAME", "from-env")

	set, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9301", set.Value("spyglass.search.port"))
	assert.Equal(t, "from-env", set.Value("spyglass.node.name"))
}

func TestLoadWithoutFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SPYGLASS_PATH_HOME", "/srv/app")

	set, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/srv/app", set.Value("spyglass.path.home"))
	assert.Equal(t, "spyglass", set.Value("spyglass.cluster.name"))
	assert.Equal(t, "5s", set.Value("spyglass.search.grace_period"))
}

func TestLoadUnsetBindingsStayAbsent(t *testing.T) {
	dir := t.TempDir()

	set, err := Load(dir)
	require.NoError(t, err)

	assert.False(t, set.Has("spyglass.search.port"))
	assert.False(t, set.Has("spyglass.node.name"))
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "spyglass: [unterminated")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}
