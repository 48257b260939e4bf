package adapter

// ConnectionConfig contains the configuration for a database connection.
// This is a unified configuration that works across all backend types; each
// backend validates the fields it needs and ignores the rest. The core never
// inspects the config beyond handing it to the chosen constructor.
type ConnectionConfig struct {
	// Connection metadata
	Name string `json:"name,omitempty"`

	// Network backends
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// Database or keyspace selection
	DatabaseName string `json:"databaseName,omitempty"`

	// File-backed backends (SQLite)
	FilePath string `json:"filePath,omitempty"`

	// URL-addressed backends (MongoDB connection string, Supabase project URL)
	URL string `json:"url,omitempty"`

	// HTTP API backends
	APIKey string `json:"apiKey,omitempty"`

	// SSL/TLS configuration
	SSL     bool   `json:"ssl,omitempty"`
	SSLMode string `json:"sslMode,omitempty"`

	// Backend-specific options (use sparingly)
	Options map[string]any `json:"options,omitempty"`
}
