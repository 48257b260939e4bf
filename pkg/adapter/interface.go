package adapter

import (
	"context"

	"github.com/redbco/unidb/pkg/dbcapabilities"
)

// Record is one row or document as a field-to-value mapping.
type Record = map[string]any

// Condition is the uniform equality filter: every field must equal its value,
// and multiple fields conjoin with AND. Backends may accept richer filters
// through their own surfaces, but the contract only requires equality mapping.
type Condition = map[string]any

// OrderBy describes one sort key for Select.
type OrderBy struct {
	Field string
	Desc  bool
}

// SelectOptions carries the optional parts of a Select call. The zero value
// selects all fields of all matching rows with no ordering or paging.
type SelectOptions struct {
	Fields    []string
	Condition Condition
	Limit     int
	Offset    int
	OrderBy   []OrderBy
}

// State is the connection state a client owns. CRUD operations are only legal
// while the client is StateConnected; an unrecoverable backend error moves the
// client to StateFailed and callers must Connect again to recover.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// Result is what Execute returns: rows for statements that produce them,
// an affected-row count otherwise.
type Result struct {
	Rows         []Record
	RowsAffected int64
}

// Client is the capability contract every backend implementation must satisfy.
// A client owns exactly one backend connection handle and is not safe for
// concurrent use from multiple goroutines without external synchronization.
type Client interface {
	// Type returns the canonical database type identifier.
	Type() dbcapabilities.DatabaseID

	// ID returns the unique identifier of this client instance.
	ID() string

	// Connect establishes the underlying session. Idempotent when already
	// connected.
	Connect(ctx context.Context) error

	// Disconnect releases the session. Safe to call on an already
	// disconnected client.
	Disconnect(ctx context.Context) error

	// IsConnected is a pure state read; it never triggers I/O.
	IsConnected() bool

	// State returns the current connection state.
	State() State

	// Ping probes the backend. Unlike IsConnected it may touch the network.
	Ping(ctx context.Context) error

	// Execute runs a backend-native statement or command. Backends without a
	// textual query language treat this as their generic command dispatch
	// primitive, or fail with a QueryError when no such primitive exists.
	Execute(ctx context.Context, statement string, args ...any) (Result, error)

	// Insert stores one record and returns the backend-native identifier
	// (auto-increment id, generated key, or echoed primary key).
	Insert(ctx context.Context, table string, record Record) (any, error)

	// Update applies patch to every record matching condition and returns the
	// affected count.
	Update(ctx context.Context, table string, patch Record, condition Condition) (int64, error)

	// Delete removes every record matching condition and returns the
	// affected count.
	Delete(ctx context.Context, table string, condition Condition) (int64, error)

	// Select returns matching records projected to opts.Fields (all fields
	// when empty). A missing table or collection is a QueryError, never an
	// empty result.
	Select(ctx context.Context, table string, opts SelectOptions) ([]Record, error)

	// Config returns the configuration the client was constructed with.
	Config() ConnectionConfig

	// Raw returns the underlying database-specific connection object.
	// Use this only for operations not covered by the contract; type
	// assertion is required.
	Raw() any
}
