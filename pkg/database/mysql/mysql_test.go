package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/dbcapabilities"
)

func TestNewClientValidation(t *testing.T) {
	base := adapter.ConnectionConfig{
		Host: "localhost", Username: "root", Password: "secret", DatabaseName: "app",
	}

	tests := []struct {
		name   string
		mutate func(*adapter.ConnectionConfig)
	}{
		{"missing host", func(c *adapter.ConnectionConfig) { c.Host = "" }},
		{"missing username", func(c *adapter.ConnectionConfig) { c.Username = "" }},
		{"missing database", func(c *adapter.ConnectionConfig) { c.DatabaseName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := base
			tt.mutate(&config)
			_, err := NewClient(config)
			require.Error(t, err)
			assert.True(t, adapter.IsConfiguration(err))
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(adapter.ConnectionConfig{
		Host: "localhost", Username: "root", Password: "secret", DatabaseName: "app",
	})
	require.NoError(t, err)
	assert.Equal(t, dbcapabilities.MySQL, c.Type())
	assert.NotEmpty(t, c.ID(), "generated id when config has no name")
	assert.False(t, c.IsConnected())
}

func TestRegisteredWithFactory(t *testing.T) {
	config := adapter.ConnectionConfig{
		Host: "localhost", Username: "root", Password: "secret", DatabaseName: "app",
	}
	for _, name := range []string{"mysql", "mariadb", "MySQL"} {
		c, err := adapter.Create(name, config)
		require.NoError(t, err, name)
		assert.Equal(t, dbcapabilities.MySQL, c.Type())
	}
}
