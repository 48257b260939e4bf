// Package transaction drives explicit transactions and savepoints through a
// client's native statement channel. The capability is gated on the backend's
// declared support; backends without transactions fail at Begin rather than
// silently running unprotected.
package transaction

import (
	"context"
	"fmt"
	"regexp"
	"slices"

	"github.com/go-pkgz/lgr"

	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/dbcapabilities"
)

// savepoint names travel inside SQL text, so they are restricted to
// identifier characters.
var savepointName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Tx tracks one transaction on a client. A Tx is not safe for concurrent
// use, matching the single-session model of the clients it drives.
type Tx struct {
	client     adapter.Client
	open       bool
	savepoints []string
}

// New builds a transaction handle for client. The backend must support
// transactions.
func New(client adapter.Client) (*Tx, error) {
	if !dbcapabilities.SupportsTransactions(client.Type()) {
		return nil, adapter.NewTransactionError(client.Type(), "begin", adapter.ErrOperationNotSupported)
	}
	return &Tx{client: client}, nil
}

// Active reports whether a transaction is open.
func (t *Tx) Active() bool { return t.open }

// Begin opens a transaction. Beginning while one is open is an error; this
// capability does not model nesting, savepoints do.
func (t *Tx) Begin(ctx context.Context) error {
	if t.open {
		return adapter.NewTransactionError(t.client.Type(), "begin", adapter.ErrTransactionOpen)
	}
	if _, err := t.client.Execute(ctx, "BEGIN"); err != nil {
		return adapter.NewTransactionError(t.client.Type(), "begin", err)
	}
	t.open = true
	t.savepoints = t.savepoints[:0]
	return nil
}

// Commit makes the transaction's writes durable and closes it.
func (t *Tx) Commit(ctx context.Context) error {
	if !t.open {
		return adapter.NewTransactionError(t.client.Type(), "commit", adapter.ErrNoTransaction)
	}
	if _, err := t.client.Execute(ctx, "COMMIT"); err != nil {
		return adapter.NewTransactionError(t.client.Type(), "commit", err)
	}
	t.open = false
	t.savepoints = t.savepoints[:0]
	return nil
}

// Rollback discards the transaction's writes and closes it.
func (t *Tx) Rollback(ctx context.Context) error {
	if !t.open {
		return adapter.NewTransactionError(t.client.Type(), "rollback", adapter.ErrNoTransaction)
	}
	if _, err := t.client.Execute(ctx, "ROLLBACK"); err != nil {
		return adapter.NewTransactionError(t.client.Type(), "rollback", err)
	}
	t.open = false
	t.savepoints = t.savepoints[:0]
	return nil
}

// Savepoint marks a rollback point inside the open transaction. Re-using a
// name shadows the earlier savepoint, as the backends themselves do.
func (t *Tx) Savepoint(ctx context.Context, name string) error {
	if !t.open {
		return adapter.NewTransactionError(t.client.Type(), "savepoint", adapter.ErrNoTransaction)
	}
	if !dbcapabilities.SupportsSavepoints(t.client.Type()) {
		return adapter.NewTransactionError(t.client.Type(), "savepoint", adapter.ErrOperationNotSupported)
	}
	if !savepointName.MatchString(name) {
		return adapter.NewTransactionError(t.client.Type(), "savepoint",
			fmt.Errorf("invalid savepoint name %q", name))
	}
	if _, err := t.client.Execute(ctx, "SAVEPOINT "+name); err != nil {
		return adapter.NewTransactionError(t.client.Type(), "savepoint", err)
	}
	t.savepoints = append(t.savepoints, name)
	return nil
}

// RollbackTo rewinds the transaction to the named savepoint and pops it
// along with every savepoint set after it. Rolling back to the same name
// twice fails with ErrSavepointNotFound.
func (t *Tx) RollbackTo(ctx context.Context, name string) error {
	if !t.open {
		return adapter.NewTransactionError(t.client.Type(), "rollback_to", adapter.ErrNoTransaction)
	}
	idx := lastIndex(t.savepoints, name)
	if idx < 0 {
		return adapter.NewTransactionError(t.client.Type(), "rollback_to",
			fmt.Errorf("%w: %q", adapter.ErrSavepointNotFound, name))
	}
	if _, err := t.client.Execute(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
		return adapter.NewTransactionError(t.client.Type(), "rollback_to", err)
	}
	// The backend keeps the target alive after ROLLBACK TO; release it so
	// the server-side stack matches ours.
	if _, err := t.client.Execute(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return adapter.NewTransactionError(t.client.Type(), "rollback_to", err)
	}
	t.savepoints = t.savepoints[:idx]
	return nil
}

// Release drops the named savepoint and everything set after it.
func (t *Tx) Release(ctx context.Context, name string) error {
	if !t.open {
		return adapter.NewTransactionError(t.client.Type(), "release", adapter.ErrNoTransaction)
	}
	idx := lastIndex(t.savepoints, name)
	if idx < 0 {
		return adapter.NewTransactionError(t.client.Type(), "release",
			fmt.Errorf("%w: %q", adapter.ErrSavepointNotFound, name))
	}
	if _, err := t.client.Execute(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return adapter.NewTransactionError(t.client.Type(), "release", err)
	}
	t.savepoints = t.savepoints[:idx]
	return nil
}

// Savepoints returns the live savepoint names, oldest first.
func (t *Tx) Savepoints() []string { return slices.Clone(t.savepoints) }

func lastIndex(names []string, name string) int {
	for i := len(names) - 1; i >= 0; i-- {
		if names[i] == name {
			return i
		}
	}
	return -1
}

// Within runs fn inside a transaction on client: commit when fn returns nil,
// rollback otherwise. Exactly one of the two happens; a panic in fn rolls
// back before propagating. A rollback failure is logged but fn's error is
// what comes back.
func Within(ctx context.Context, client adapter.Client, fn func(ctx context.Context) error) error {
	tx, err := New(client)
	if err != nil {
		return err
	}
	if err := tx.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if !tx.Active() {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			lgr.Printf("WARN rollback after failure on %s: %v", client.Type(), rbErr)
		}
	}()

	if err := fn(ctx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
