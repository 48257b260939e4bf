// Package mysql provides the MySQL client backend.
package mysql

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver

	"github.com/google/uuid"

	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/database/sqlclient"
	"github.com/redbco/unidb/pkg/database/sqlutil"
	"github.com/redbco/unidb/pkg/dbcapabilities"
)

func init() {
	adapter.Register(dbcapabilities.MySQL, NewClient)
}

// NewClient validates config and returns an unconnected MySQL client.
func NewClient(config adapter.ConnectionConfig) (adapter.Client, error) {
	if config.Host == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.MySQL, "host", "host is required")
	}
	if config.Username == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.MySQL, "username", "username is required")
	}
	if config.DatabaseName == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.MySQL, "database_name", "database name is required")
	}

	port := config.Port
	if port == 0 {
		port = 3306
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		config.Username, config.Password, config.Host, port, config.DatabaseName)
	if config.SSL {
		dsn += "&tls=true"
	}

	id := config.Name
	if id == "" {
		id = uuid.NewString()
	}

	return sqlclient.New(id, dbcapabilities.MySQL, "mysql", dsn, sqlutil.Question, config), nil
}
