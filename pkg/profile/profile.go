// Package profile manages named connection profiles persisted as JSON, and
// turns them into clients through the backend registry.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-pkgz/lgr"

	"github.com/redbco/unidb/pkg/adapter"
)

// Profile pairs a database type with its connection config.
type Profile struct {
	Type   string                   `json:"type"`
	Config adapter.ConnectionConfig `json:"config"`
}

// store is the on-disk document shape.
type store struct {
	Databases map[string]Profile `json:"databases"`
	Default   string             `json:"default,omitempty"`
}

// Manager holds connection profiles. All methods are safe for concurrent
// use. A Manager without a path works purely in memory; Save then requires
// an explicit path.
type Manager struct {
	mu       sync.RWMutex
	path     string
	profiles map[string]Profile
	def      string
}

// NewManager returns an empty manager that persists to path when Save is
// called. An empty path keeps the manager memory-only.
func NewManager(path string) *Manager {
	return &Manager{path: path, profiles: map[string]Profile{}}
}

// Load reads profiles from path. A missing file leaves the manager empty
// and is not an error.
func Load(path string) (*Manager, error) {
	m := NewManager(path)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	if err := m.importJSON(data); err != nil {
		return nil, err
	}
	lgr.Printf("DEBUG loaded %d connection profiles from %s", len(m.profiles), path)
	return m, nil
}

// Save writes the profiles back to the manager's path.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.path == "" {
		return fmt.Errorf("profile manager has no file path")
	}
	data, err := m.exportJSON()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create profile dir: %w", err)
		}
	}
	// Profiles carry credentials.
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return nil
}

// Add registers a profile under name, replacing any existing one. The
// profile becomes the default when setDefault is true or when no default is
// set yet.
func (m *Manager) Add(name, dbType string, config adapter.ConnectionConfig, setDefault bool) error {
	if name == "" {
		return adapter.NewConfigurationError("", "name", "profile name is required")
	}
	if dbType == "" {
		return adapter.NewConfigurationError("", "type", "database type is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[name] = Profile{Type: dbType, Config: config}
	if setDefault || m.def == "" {
		m.def = name
	}
	return nil
}

// Remove deletes the named profile. Removing the default clears the default.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[name]; !ok {
		return adapter.NewConfigurationError("", "name", fmt.Sprintf("unknown profile %q", name))
	}
	delete(m.profiles, name)
	if m.def == name {
		m.def = ""
	}
	return nil
}

// SetDefault marks an existing profile as the default.
func (m *Manager) SetDefault(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[name]; !ok {
		return adapter.NewConfigurationError("", "name", fmt.Sprintf("unknown profile %q", name))
	}
	m.def = name
	return nil
}

// Default returns the default profile name, empty when none is set.
func (m *Manager) Default() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.def
}

// List returns profile names in sorted order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.profiles))
	for name := range m.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named profile.
func (m *Manager) Get(name string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[name]
	if !ok {
		return Profile{}, adapter.NewConfigurationError("", "name", fmt.Sprintf("unknown profile %q", name))
	}
	return p, nil
}

// Client builds an unconnected client for the named profile. An empty name
// selects the default profile.
func (m *Manager) Client(name string) (adapter.Client, error) {
	m.mu.RLock()
	if name == "" {
		name = m.def
	}
	p, ok := m.profiles[name]
	m.mu.RUnlock()

	if name == "" {
		return nil, adapter.NewConfigurationError("", "name", "no profile named and no default set")
	}
	if !ok {
		return nil, adapter.NewConfigurationError("", "name", fmt.Sprintf("unknown profile %q", name))
	}
	if p.Config.Name == "" {
		p.Config.Name = name
	}
	return adapter.Create(p.Type, p.Config)
}

// Export serializes all profiles to JSON.
func (m *Manager) Export() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exportJSON()
}

// Import merges profiles from a JSON document produced by Export. Imported
// profiles overwrite same-named existing ones; the imported default is
// adopted only when the manager has none set.
func (m *Manager) Import(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.importJSON(data)
}

func (m *Manager) exportJSON() ([]byte, error) {
	doc := store{Databases: m.profiles, Default: m.def}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode profiles: %w", err)
	}
	return data, nil
}

func (m *Manager) importJSON(data []byte) error {
	var doc store
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode profiles: %w", err)
	}
	if doc.Default != "" {
		if _, ok := doc.Databases[doc.Default]; !ok {
			return adapter.NewConfigurationError("", "default", fmt.Sprintf("default %q has no profile", doc.Default))
		}
	}
	for name, p := range doc.Databases {
		if p.Type == "" {
			return adapter.NewConfigurationError("", "type", fmt.Sprintf("profile %q has no type", name))
		}
		m.profiles[name] = p
	}
	if doc.Default != "" && m.def == "" {
		m.def = doc.Default
	}
	return nil
}
