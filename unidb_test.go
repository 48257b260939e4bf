package unidb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/unidb/pkg/adapter"
)

func TestAllBackendsRegistered(t *testing.T) {
	types := SupportedTypes()
	for _, want := range []string{"mysql", "postgres", "sqlite", "mongodb", "redis", "supabase"} {
		assert.Contains(t, types, want)
	}
}

func TestNewResolvesAliases(t *testing.T) {
	c, err := New("sqlite3", adapter.ConnectionConfig{FilePath: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", string(c.Type()))
}

func TestNewUnknownType(t *testing.T) {
	_, err := New("dbase", adapter.ConnectionConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrBackendNotFound)
}

func TestEndToEndSQLite(t *testing.T) {
	client, err := New("sqlite", adapter.ConnectionConfig{FilePath: ":memory:"})
	require.NoError(t, err)

	ctx := context.Background()
	err = adapter.WithClient(ctx, client, func(ctx context.Context, c adapter.Client) error {
		if _, err := c.Execute(ctx, "CREATE TABLE notes (id INTEGER PRIMARY KEY AUTOINCREMENT, body TEXT)"); err != nil {
			return err
		}
		if _, err := c.Insert(ctx, "notes", adapter.Record{"body": "hello"}); err != nil {
			return err
		}
		rows, err := c.Select(ctx, "notes", adapter.SelectOptions{})
		if err != nil {
			return err
		}
		assert.Len(t, rows, 1)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, client.IsConnected())
}
