package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/unidb/pkg/adapter"
	_ "github.com/redbco/unidb/pkg/database/sqlite"
	"github.com/redbco/unidb/pkg/dbcapabilities"
)

func TestAddListRemove(t *testing.T) {
	m := NewManager("")

	require.NoError(t, m.Add("dev", "sqlite", adapter.ConnectionConfig{FilePath: ":memory:"}, false))
	require.NoError(t, m.Add("cache", "redis", adapter.ConnectionConfig{Host: "localhost"}, false))

	assert.Equal(t, []string{"cache", "dev"}, m.List())
	assert.Equal(t, "dev", m.Default(), "first profile becomes default")

	require.NoError(t, m.Remove("cache"))
	assert.Equal(t, []string{"dev"}, m.List())

	err := m.Remove("cache")
	require.Error(t, err)
	assert.True(t, adapter.IsConfiguration(err))
}

func TestAddValidation(t *testing.T) {
	m := NewManager("")
	assert.True(t, adapter.IsConfiguration(m.Add("", "sqlite", adapter.ConnectionConfig{}, false)))
	assert.True(t, adapter.IsConfiguration(m.Add("dev", "", adapter.ConnectionConfig{}, false)))
}

func TestDefaultHandling(t *testing.T) {
	m := NewManager("")
	require.NoError(t, m.Add("a", "sqlite", adapter.ConnectionConfig{FilePath: ":memory:"}, false))
	require.NoError(t, m.Add("b", "sqlite", adapter.ConnectionConfig{FilePath: ":memory:"}, false))

	require.NoError(t, m.SetDefault("b"))
	assert.Equal(t, "b", m.Default())

	assert.True(t, adapter.IsConfiguration(m.SetDefault("nope")))

	require.NoError(t, m.Remove("b"))
	assert.Equal(t, "", m.Default(), "removing the default clears it")
}

func TestAddAsDefault(t *testing.T) {
	m := NewManager("")
	require.NoError(t, m.Add("a", "sqlite", adapter.ConnectionConfig{FilePath: ":memory:"}, false))
	require.NoError(t, m.Add("b", "sqlite", adapter.ConnectionConfig{FilePath: ":memory:"}, false))
	assert.Equal(t, "a", m.Default())

	require.NoError(t, m.Add("c", "sqlite", adapter.ConnectionConfig{FilePath: ":memory:"}, true))
	assert.Equal(t, "c", m.Default(), "setDefault overrides the existing default")
}

func TestClientBuildsFromProfile(t *testing.T) {
	m := NewManager("")
	require.NoError(t, m.Add("dev", "sqlite3", adapter.ConnectionConfig{FilePath: ":memory:"}, false))

	c, err := m.Client("dev")
	require.NoError(t, err)
	assert.Equal(t, dbcapabilities.SQLite, c.Type())
	assert.Equal(t, "dev", c.ID(), "profile name becomes the client id")
	assert.False(t, c.IsConnected())

	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))
	defer c.Disconnect(ctx)
	require.NoError(t, c.Ping(ctx))
}

func TestClientUsesDefault(t *testing.T) {
	m := NewManager("")
	require.NoError(t, m.Add("dev", "sqlite", adapter.ConnectionConfig{FilePath: ":memory:"}, false))

	c, err := m.Client("")
	require.NoError(t, err)
	assert.Equal(t, "dev", c.ID())
}

func TestClientErrors(t *testing.T) {
	m := NewManager("")

	_, err := m.Client("")
	assert.True(t, adapter.IsConfiguration(err), "no default set")

	_, err = m.Client("nope")
	assert.True(t, adapter.IsConfiguration(err))

	require.NoError(t, m.Add("bad", "not-a-db", adapter.ConnectionConfig{}, false))
	_, err = m.Client("bad")
	assert.True(t, adapter.IsConfiguration(err), "unregistered backend type")
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")

	m := NewManager(path)
	require.NoError(t, m.Add("dev", "sqlite", adapter.ConnectionConfig{FilePath: "/tmp/dev.db"}, false))
	require.NoError(t, m.Add("prod", "postgres", adapter.ConnectionConfig{
		Host: "db.example.com", Port: 5432, Username: "app", DatabaseName: "app",
	}, false))
	require.NoError(t, m.SetDefault("prod"))
	require.NoError(t, m.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"dev", "prod"}, loaded.List())
	assert.Equal(t, "prod", loaded.Default())

	p, err := loaded.Get("prod")
	require.NoError(t, err)
	assert.Equal(t, "postgres", p.Type)
	assert.Equal(t, "db.example.com", p.Config.Host)
}

func TestLoadMissingFile(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, m.List())
}

func TestExportImport(t *testing.T) {
	src := NewManager("")
	require.NoError(t, src.Add("dev", "sqlite", adapter.ConnectionConfig{FilePath: ":memory:"}, false))
	require.NoError(t, src.Add("cache", "redis", adapter.ConnectionConfig{Host: "localhost"}, false))
	require.NoError(t, src.SetDefault("cache"))

	data, err := src.Export()
	require.NoError(t, err)

	dst := NewManager("")
	require.NoError(t, dst.Add("local", "sqlite", adapter.ConnectionConfig{FilePath: ":memory:"}, false))
	require.NoError(t, dst.Import(data))

	assert.Equal(t, []string{"cache", "dev", "local"}, dst.List())
	assert.Equal(t, "local", dst.Default(), "existing default survives an import")

	empty := NewManager("")
	require.NoError(t, empty.Import(data))
	assert.Equal(t, "cache", empty.Default(), "imported default adopted when none is set")
}

func TestImportRejectsBadDocuments(t *testing.T) {
	m := NewManager("")
	assert.Error(t, m.Import([]byte("{not json")))

	err := m.Import([]byte(`{"databases":{"x":{"config":{}}}}`))
	assert.True(t, adapter.IsConfiguration(err), "profile without type")

	err = m.Import([]byte(`{"databases":{},"default":"ghost"}`))
	assert.True(t, adapter.IsConfiguration(err), "default without profile")
}
