package normalize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passkeyradar/radar/pkg/errors"
)

func TestDefaultAliases(t *testing.T) {
	table, err := DefaultAliases()
	require.NoError(t, err)
	assert.Greater(t, table.Len(), 0)

	id, ok := table.Lookup("youtube.com")
	require.True(t, ok)
	gid, _ := table.Lookup("google.com")
	assert.Equal(t, gid, id)
}

func TestParseAliases(t *testing.T) {
	t.Run("keys are registered domains", func(t *testing.T) {
		table, err := ParseAliases([]byte(`{"acme": {"properties": ["www.acme.com", "acme-mail.co.uk"]}}`))
		require.NoError(t, err)
		id, ok := table.Lookup("acme.com")
		assert.True(t, ok)
		assert.Equal(t, "acme", id)
		_, ok = table.Lookup("acme-mail.co.uk")
		assert.True(t, ok)
	})

	t.Run("schema violation", func(t *testing.T) {
		_, err := ParseAliases([]byte(`{"acme": {"domains": ["acme.com"]}}`))
		require.Error(t, err)
		var schemaErr *errors.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.NotEmpty(t, schemaErr.Violations)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("wrong item type", func(t *testing.T) {
		_, err := ParseAliases([]byte(`{"acme": {"properties": [42]}}`))
		assert.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseAliases([]byte(`{`))
		assert.Error(t, err)
	})
}

func TestLoadAliases(t *testing.T) {
	table, err := LoadAliases(strings.NewReader(`{"x": {"properties": ["x.com", "twitter.com"]}}`))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	path := filepath.Join(t.TempDir(), "aliases.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"x": {"properties": ["x.com"]}}`), 0o644))
	table, err = LoadAliasesFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = LoadAliasesFile(filepath.Join(t.TempDir(), "missing.json"))
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)

	var nilTable *AliasTable
	_, ok := nilTable.Lookup("x.com")
	assert.False(t, ok)
	assert.Equal(t, 0, nilTable.Len())
}
