package factory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devboard/devboard/common/gerror"
)

func TestParseConfigDocument(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		doc, err := ParseConfigDocument("devfile.json", []byte(`{"schemaVersion": "2.2.0", "metadata": {"name": "x"}}`))
		require.NoError(t, err)
		require.Equal(t, "2.2.0", doc["schemaVersion"])
		require.Equal(t, map[string]interface{}{"name": "x"}, doc["metadata"])
	})

	t.Run("YAML", func(t *testing.T) {
		doc, err := ParseConfigDocument("devfile.yaml", []byte("schemaVersion: 2.2.0\ncomponents:\n  - name: tools\n    memory: 512\n"))
		require.NoError(t, err)
		require.Equal(t, "2.2.0", doc["schemaVersion"])
		components := doc["components"].([]interface{})
		require.Equal(t, map[string]interface{}{"name": "tools", "memory": 512}, components[0])
	})

	t.Run("Jsonnet", func(t *testing.T) {
		doc, err := ParseConfigDocument("devfile.jsonnet", []byte(`local v = "2.2.0"; { schemaVersion: v }`))
		require.NoError(t, err)
		require.Equal(t, "2.2.0", doc["schemaVersion"])
	})

	t.Run("Empty", func(t *testing.T) {
		doc, err := ParseConfigDocument("devfile.yaml", []byte("  \n"))
		require.NoError(t, err)
		require.Empty(t, doc)
	})

	t.Run("NotAnObject", func(t *testing.T) {
		_, err := ParseConfigDocument("devfile.yaml", []byte("- a\n- b\n"))
		require.True(t, gerror.IsValidationFailed(err))
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := ParseConfigDocument("devfile.yaml", []byte("a: [\n"))
		require.True(t, gerror.IsValidationFailed(err))
	})
}
