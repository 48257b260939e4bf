package dbcapabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID DatabaseID
		wantOK bool
	}{
		{"canonical id", "postgres", PostgreSQL, true},
		{"alias", "postgresql", PostgreSQL, true},
		{"short alias", "pgsql", PostgreSQL, true},
		{"product name", "PostgreSQL", PostgreSQL, true},
		{"mixed case", "MySQL", MySQL, true},
		{"whitespace", "  sqlite3  ", SQLite, true},
		{"mongo alias", "mongo", MongoDB, true},
		{"unknown", "oracle", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseID(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestCapabilityFlags(t *testing.T) {
	assert.True(t, SupportsTransactions(SQLite))
	assert.True(t, SupportsSavepoints(PostgreSQL))
	assert.True(t, SupportsQueryLanguage(MySQL))

	assert.False(t, SupportsTransactions(Redis))
	assert.False(t, SupportsSavepoints(MongoDB))
	assert.False(t, SupportsQueryLanguage(Supabase))

	assert.False(t, SupportsTransactions("unknown"))
}

func TestGet(t *testing.T) {
	c, ok := Get(MySQL)
	require.True(t, ok)
	assert.Equal(t, "MySQL", c.Name)
	assert.Equal(t, "?", c.Placeholder)

	_, ok = Get("cassandra")
	assert.False(t, ok)
}

func TestMustGetPanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { MustGet("nope") })
	assert.NotPanics(t, func() { MustGet(Redis) })
}

func TestIDsCoversAll(t *testing.T) {
	ids := IDs()
	assert.Len(t, ids, len(All))
	for _, id := range ids {
		_, ok := Get(id)
		assert.True(t, ok)
	}
}

func TestSupportsParadigm(t *testing.T) {
	assert.True(t, SupportsParadigm(MongoDB, ParadigmDocument))
	assert.True(t, SupportsParadigm(Supabase, ParadigmRelational))
	assert.False(t, SupportsParadigm(Redis, ParadigmRelational))
}
