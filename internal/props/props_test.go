package props

// Test Plan:
// 1. New copies its input map, so callers cannot mutate the set afterwards
// 2. Has tells an empty value apart from an absent key
// 3. ValueDefault only falls back when the key is absent
// 4. Int parses valid values, rejects garbage, and reports unset keys
// 5. Bool accepts "true" in any case and treats everything else as false
// 6. Keys returns a sorted snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCopiesInput(t *testing.T) {
	t.Parallel()

	source := map[string]string{"spyglass.cluster.name": "alpha"}
	set := New(source)
	source["spyglass.cluster.name"] = "mutated"
	source["spyglass.search.port"] = "9001"

	assert.Equal(t, "alpha", set.Value("spyglass.cluster.name"))
	assert.False(t, set.Has("spyglass.search.port"))
}

func TestHasDistinguishesEmptyFromAbsent(t *testing.T) {
	t.Parallel()

	set := New(map[string]string{"spyglass.node.name": ""})

	assert.True(t, set.Has("spyglass.node.name"))
	assert.False(t, set.Has("spyglass.node.rack"))
	assert.Equal(t, "", set.Value("spyglass.node.name"))
	assert.Equal(t, "", set.Value("spyglass.node.rack"))
}

func TestValueDefault(t *testing.T) {
	t.Parallel()

	set := New(map[string]string{
		"spyglass.cluster.name": "alpha",
		"spyglass.node.name":    "",
	})

	assert.Equal(t, "alpha", set.ValueDefault("spyglass.cluster.name", "fallback"))
	assert.Equal(t, "", set.ValueDefault("spyglass.node.name", "fallback"),
		"explicit empty value must win over the default")
	assert.Equal(t, "fallback", set.ValueDefault("spyglass.node.rack", "fallback"))
}

func TestInt(t *testing.T) {
	t.Parallel()

	set := New(map[string]string{
		"spyglass.search.port": "9001",
		"padded":               " 42 ",
		"bad":                  "port-nine",
	})

	port, err := set.Int("spyglass.search.port")
	require.NoError(t, err)
	assert.Equal(t, 9001, port)

	padded, err := set.Int("padded")
	require.NoError(t, err)
	assert.Equal(t, 42, padded)

	_, err = set.Int("bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an integer")

	_, err = set.Int("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not set")
}

func TestBool(t *testing.T) {
	t.Parallel()

	set := New(map[string]string{
		"lower":   "true",
		"upper":   "TRUE",
		"mixed":   "True",
		"padded":  " true ",
		"no":      "false",
		"garbage": "yes",
		"empty":   "",
	})

	assert.True(t, set.Bool("lower", false))
	assert.True(t, set.Bool("upper", false))
	assert.True(t, set.Bool("mixed", false))
	assert.True(t, set.Bool("padded", false))
	assert.False(t, set.Bool("no", true))
	assert.False(t, set.Bool("garbage", true), "only the literal word true counts")
	assert.False(t, set.Bool("empty", true))
	assert.True(t, set.Bool("absent", true))
	assert.False(t, set.Bool("absent", false))
}

func TestKeysSorted(t *testing.T) {
	t.Parallel()

	set := New(map[string]string{
		"spyglass.path.home":    "/srv/app",
		"spyglass.cluster.name": "alpha",
		"spyglass.search.port":  "9001",
	})

	assert.Equal(t, []string{
		"spyglass.cluster.name",
		"spyglass.path.home",
		"spyglass.search.port",
	}, set.Keys())
}
