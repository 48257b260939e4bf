package adapter

import (
	"errors"
	"fmt"

	"github.com/redbco/unidb/pkg/dbcapabilities"
)

// Standard adapter errors. Every failure surfaced by a client or capability
// matches exactly one of the four taxonomy roots below through errors.Is;
// backend-native errors never cross the contract boundary unwrapped.
var (
	// ErrInvalidConfiguration is the root of the configuration taxonomy:
	// unknown backend identifiers, missing default profiles, malformed
	// connection configs rejected by a constructor.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrConnectionFailed is the root of the connection taxonomy.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotConnected is returned when an operation is attempted on a client
	// that is not in the connected state.
	ErrNotConnected = errors.New("client is not connected")

	// ErrQueryFailed is the root of the query taxonomy.
	ErrQueryFailed = errors.New("query failed")

	// ErrTableNotFound is returned when a table/collection does not exist.
	ErrTableNotFound = errors.New("table not found")

	// ErrOperationNotSupported is returned when a backend has no primitive
	// for the requested operation (e.g. SQL text on a key-value store).
	ErrOperationNotSupported = errors.New("operation not supported by this database")

	// ErrBackendNotFound is returned when a backend identifier has no
	// registered constructor. It is part of the configuration taxonomy.
	ErrBackendNotFound = fmt.Errorf("%w: backend not registered", ErrInvalidConfiguration)

	// ErrTransactionFailed is the root of the transaction taxonomy.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrNoTransaction is returned for commit/rollback without an open
	// transaction.
	ErrNoTransaction = errors.New("no transaction in progress")

	// ErrTransactionOpen is returned when Begin is called while a
	// transaction is already open.
	ErrTransactionOpen = errors.New("transaction already in progress")

	// ErrSavepointNotFound is returned when rolling back to a savepoint name
	// that is not on the stack.
	ErrSavepointNotFound = errors.New("savepoint not found")
)

// ConfigurationError reports an invalid or unresolvable configuration.
type ConfigurationError struct {
	DatabaseType dbcapabilities.DatabaseID
	Field        string
	Reason       string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: field '%s': %s", e.DatabaseType, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for %s: %s", e.DatabaseType, e.Reason)
}

// Is reports whether the error belongs to the configuration taxonomy.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(dbType dbcapabilities.DatabaseID, field, reason string) *ConfigurationError {
	return &ConfigurationError{DatabaseType: dbType, Field: field, Reason: reason}
}

// ConnectionError reports a failed connect/disconnect or an operation
// attempted without a connected session.
type ConnectionError struct {
	DatabaseType dbcapabilities.DatabaseID
	Operation    string
	Cause        error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.DatabaseType, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error belongs to the connection taxonomy.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(dbType dbcapabilities.DatabaseID, operation string, cause error) *ConnectionError {
	return &ConnectionError{DatabaseType: dbType, Operation: operation, Cause: cause}
}

// QueryError wraps a backend-native statement or CRUD failure with backend
// and operation context.
type QueryError struct {
	DatabaseType dbcapabilities.DatabaseID
	Operation    string
	Table        string
	Cause        error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("[%s] %s on %q: %v", e.DatabaseType, e.Operation, e.Table, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %v", e.DatabaseType, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error belongs to the query taxonomy.
func (e *QueryError) Is(target error) bool {
	return target == ErrQueryFailed
}

// NewQueryError creates a new QueryError.
func NewQueryError(dbType dbcapabilities.DatabaseID, operation, table string, cause error) *QueryError {
	return &QueryError{DatabaseType: dbType, Operation: operation, Table: table, Cause: cause}
}

// TransactionError reports an illegal transaction state transition or an
// unsupported transaction operation.
type TransactionError struct {
	DatabaseType dbcapabilities.DatabaseID
	Operation    string
	Cause        error
}

// Error implements the error interface.
func (e *TransactionError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.DatabaseType, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *TransactionError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error belongs to the transaction taxonomy.
func (e *TransactionError) Is(target error) bool {
	return target == ErrTransactionFailed
}

// NewTransactionError creates a new TransactionError.
func NewTransactionError(dbType dbcapabilities.DatabaseID, operation string, cause error) *TransactionError {
	return &TransactionError{DatabaseType: dbType, Operation: operation, Cause: cause}
}

// WrapQuery wraps err in a QueryError unless it already carries taxonomy
// context. Returns nil for a nil err.
func WrapQuery(dbType dbcapabilities.DatabaseID, operation, table string, err error) error {
	if err == nil {
		return nil
	}

	// Don't double-wrap
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return err
	}

	return NewQueryError(dbType, operation, table, err)
}

// IsConfiguration checks if an error belongs to the configuration taxonomy.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsConnection checks if an error belongs to the connection taxonomy.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsQuery checks if an error belongs to the query taxonomy.
func IsQuery(err error) bool {
	return errors.Is(err, ErrQueryFailed)
}

// IsTransaction checks if an error belongs to the transaction taxonomy.
func IsTransaction(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}

// IsUnsupported checks if an error indicates an unsupported operation.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrOperationNotSupported)
}
