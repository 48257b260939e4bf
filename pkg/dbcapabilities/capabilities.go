package dbcapabilities

import "strings"

// DatabaseID is the canonical identifier for a database technology supported by unidb.
// Use these constants to look up capability information.
type DatabaseID string

const (
	// Relational SQL
	MySQL      DatabaseID = "mysql"
	PostgreSQL DatabaseID = "postgres"
	SQLite     DatabaseID = "sqlite"

	// NoSQL / Other paradigms
	MongoDB DatabaseID = "mongodb"
	Redis   DatabaseID = "redis"

	// Backend-as-a-service (PostgREST over HTTP)
	Supabase DatabaseID = "supabase"
)

// DataParadigm enumerates the primary data storage paradigms a database supports.
type DataParadigm string

const (
	ParadigmRelational DataParadigm = "relational" // Tables, schemas, SQL
	ParadigmDocument   DataParadigm = "document"   // Collections, documents
	ParadigmKeyValue   DataParadigm = "keyvalue"   // Key/Value
	ParadigmRemoteAPI  DataParadigm = "remoteapi"  // CRUD over a remote HTTP API
)

// Capability describes what a database supports in a way that the toolkit's
// cross-backend features can consume uniformly.
type Capability struct {
	// Human-friendly vendor or product name, e.g., "PostgreSQL".
	Name string `json:"name"`

	// Canonical ID used across the codebase (see DatabaseID constants), e.g., "postgres".
	ID DatabaseID `json:"id"`

	// Whether the database speaks a textual query language through Execute.
	SupportsQueryLanguage bool `json:"supportsQueryLanguage"`

	// Whether BEGIN/COMMIT/ROLLBACK have native semantics on a session.
	SupportsTransactions bool `json:"supportsTransactions"`

	// Whether named savepoints are available inside an open transaction.
	SupportsSavepoints bool `json:"supportsSavepoints"`

	// Whether the backend offers an atomic native upsert primitive.
	SupportsNativeUpsert bool `json:"supportsNativeUpsert"`

	// SQL parameter placeholder style for backends with a query language
	// ("?" for MySQL/SQLite, "$n" for PostgreSQL, "" otherwise).
	Placeholder string `json:"placeholder,omitempty"`

	// Primary data storage paradigms supported.
	Paradigms []DataParadigm `json:"paradigms"`

	// Common aliases (directory names, drivers, env labels) that map to this database.
	Aliases []string `json:"aliases,omitempty"`
}

// All is a registry of capabilities keyed by the canonical database ID.
var All = map[DatabaseID]Capability{
	MySQL: {
		Name:                  "MySQL",
		ID:                    MySQL,
		SupportsQueryLanguage: true,
		SupportsTransactions:  true,
		SupportsSavepoints:    true,
		SupportsNativeUpsert:  true,
		Placeholder:           "?",
		Paradigms:             []DataParadigm{ParadigmRelational},
		Aliases:               []string{"mariadb", "aurora-mysql"},
	},
	PostgreSQL: {
		Name:                  "PostgreSQL",
		ID:                    PostgreSQL,
		SupportsQueryLanguage: true,
		SupportsTransactions:  true,
		SupportsSavepoints:    true,
		SupportsNativeUpsert:  true,
		Placeholder:           "$",
		Paradigms:             []DataParadigm{ParadigmRelational},
		Aliases:               []string{"postgresql", "pgsql"},
	},
	SQLite: {
		Name:                  "SQLite",
		ID:                    SQLite,
		SupportsQueryLanguage: true,
		SupportsTransactions:  true,
		SupportsSavepoints:    true,
		SupportsNativeUpsert:  true,
		Placeholder:           "?",
		Paradigms:             []DataParadigm{ParadigmRelational},
		Aliases:               []string{"sqlite3"},
	},
	MongoDB: {
		Name:                  "MongoDB",
		ID:                    MongoDB,
		SupportsQueryLanguage: false,
		SupportsTransactions:  false,
		SupportsSavepoints:    false,
		SupportsNativeUpsert:  true,
		Paradigms:             []DataParadigm{ParadigmDocument},
		Aliases:               []string{"mongo"},
	},
	Redis: {
		Name:                  "Redis",
		ID:                    Redis,
		SupportsQueryLanguage: false,
		SupportsTransactions:  false,
		SupportsSavepoints:    false,
		SupportsNativeUpsert:  false,
		Paradigms:             []DataParadigm{ParadigmKeyValue},
		Aliases:               []string{"valkey"},
	},
	Supabase: {
		Name:                  "Supabase",
		ID:                    Supabase,
		SupportsQueryLanguage: false,
		SupportsTransactions:  false,
		SupportsSavepoints:    false,
		SupportsNativeUpsert:  true,
		Paradigms:             []DataParadigm{ParadigmRelational, ParadigmRemoteAPI},
	},
}

// nameToID is a normalized lookup index from any known name/alias to the canonical DatabaseID.
var nameToID map[string]DatabaseID

func init() {
	nameToID = make(map[string]DatabaseID, len(All)*2)
	for id, cap := range All {
		// Canonical ID
		nameToID[strings.ToLower(string(id))] = id
		// Also record vendor/product name
		if cap.Name != "" {
			nameToID[strings.ToLower(cap.Name)] = id
		}
		// Aliases
		for _, a := range cap.Aliases {
			if a == "" {
				continue
			}
			nameToID[strings.ToLower(a)] = id
		}
	}
}

// ParseID attempts to resolve an arbitrary database name (canonical id, alias, or product name)
// to a canonical DatabaseID. Returns false if unknown.
func ParseID(name string) (DatabaseID, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	id, ok := nameToID[n]
	return id, ok
}

// GetByName looks up capability metadata by any known name or alias.
func GetByName(name string) (Capability, bool) {
	id, ok := ParseID(name)
	if !ok {
		return Capability{}, false
	}
	return Get(id)
}

// MustGetByName is like GetByName but panics when the name is unknown.
func MustGetByName(name string) Capability {
	cap, ok := GetByName(name)
	if !ok {
		panic("dbcapabilities: unknown database name: " + name)
	}
	return cap
}

// IDs returns all canonical database IDs known to this build.
func IDs() []DatabaseID {
	ids := make([]DatabaseID, 0, len(All))
	for id := range All {
		ids = append(ids, id)
	}
	return ids
}

// Get returns the capability metadata for a canonical database ID.
func Get(id DatabaseID) (Capability, bool) {
	c, ok := All[id]
	return c, ok
}

// MustGet is like Get but panics when the ID is unknown.
func MustGet(id DatabaseID) Capability {
	c, ok := Get(id)
	if !ok {
		panic("dbcapabilities: unknown database id: " + string(id))
	}
	return c
}

// SupportsParadigm reports whether the database's primary paradigms include p.
func SupportsParadigm(id DatabaseID, p DataParadigm) bool {
	c, ok := Get(id)
	if !ok {
		return false
	}
	for _, got := range c.Paradigms {
		if got == p {
			return true
		}
	}
	return false
}

// SupportsTransactions reports whether the database has native session transactions.
func SupportsTransactions(id DatabaseID) bool {
	c, ok := Get(id)
	return ok && c.SupportsTransactions
}

// SupportsSavepoints reports whether the database supports named savepoints.
func SupportsSavepoints(id DatabaseID) bool {
	c, ok := Get(id)
	return ok && c.SupportsSavepoints
}

// SupportsQueryLanguage reports whether Execute accepts textual statements for the database.
func SupportsQueryLanguage(id DatabaseID) bool {
	c, ok := Get(id)
	return ok && c.SupportsQueryLanguage
}
