package adapter

import (
	"fmt"
	"sync"

	"github.com/go-pkgz/lgr"

	"github.com/redbco/unidb/pkg/dbcapabilities"
)

// Constructor builds an unconnected client from a connection configuration.
// Constructors validate the parts of the config their backend requires and
// return a ConfigurationError when something is missing or malformed.
type Constructor func(config ConnectionConfig) (Client, error)

// Registry manages the registration and retrieval of backend constructors.
// It holds no backend-specific logic; registration is the sole extension
// point for adding backends.
type Registry struct {
	constructors map[dbcapabilities.DatabaseID]Constructor
	mu           sync.RWMutex
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[dbcapabilities.DatabaseID]Constructor),
	}
}

// Register maps a backend identifier to a constructor. A previous mapping for
// the same identifier is replaced: last registration wins, which lets tests
// and third parties override builtins.
func (r *Registry) Register(id dbcapabilities.DatabaseID, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[id]; exists {
		lgr.Printf("DEBUG overriding registered backend %q", id)
	}
	r.constructors[id] = ctor
}

// Unregister removes a backend from the registry.
func (r *Registry) Unregister(id dbcapabilities.DatabaseID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.constructors, id)
}

// IsRegistered checks whether a constructor is registered for the identifier.
func (r *Registry) IsRegistered(id dbcapabilities.DatabaseID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.constructors[id]
	return exists
}

// ListRegistered returns all registered backend identifiers.
func (r *Registry) ListRegistered() []dbcapabilities.DatabaseID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]dbcapabilities.DatabaseID, 0, len(r.constructors))
	for id := range r.constructors {
		ids = append(ids, id)
	}
	return ids
}

// resolve maps an arbitrary backend name to a registry key. Known aliases
// ("postgresql", "mongo", ...) collapse to their canonical identifier;
// anything else is used verbatim so third-party registrations keep working.
func (r *Registry) resolve(name string) dbcapabilities.DatabaseID {
	if id, ok := dbcapabilities.ParseID(name); ok {
		return id
	}
	return dbcapabilities.DatabaseID(name)
}

// Create resolves the backend identifier and invokes its constructor. The
// returned client is unconnected; callers Connect explicitly or use
// WithClient. An unregistered identifier is a ConfigurationError.
func (r *Registry) Create(dbType string, config ConnectionConfig) (Client, error) {
	id := r.resolve(dbType)

	r.mu.RLock()
	ctor, exists := r.constructors[id]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotFound, dbType)
	}

	client, err := ctor(config)
	if err != nil {
		return nil, err
	}

	lgr.Printf("DEBUG created %s client %s", id, client.ID())
	return client, nil
}

// globalRegistry is the default process-wide registry. Builtin backend
// packages register themselves here from init.
var globalRegistry = NewRegistry()

// Register registers a constructor in the global registry.
func Register(id dbcapabilities.DatabaseID, ctor Constructor) {
	globalRegistry.Register(id, ctor)
}

// Unregister removes a backend from the global registry.
func Unregister(id dbcapabilities.DatabaseID) {
	globalRegistry.Unregister(id)
}

// IsRegistered checks the global registry for a backend identifier.
func IsRegistered(id dbcapabilities.DatabaseID) bool {
	return globalRegistry.IsRegistered(id)
}

// ListRegistered returns all backend identifiers in the global registry.
func ListRegistered() []dbcapabilities.DatabaseID {
	return globalRegistry.ListRegistered()
}

// Create builds an unconnected client from the global registry.
func Create(dbType string, config ConnectionConfig) (Client, error) {
	return globalRegistry.Create(dbType, config)
}

// GlobalRegistry returns the global registry.
func GlobalRegistry() *Registry {
	return globalRegistry
}
