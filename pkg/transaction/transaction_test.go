package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/database/sqlite"
	"github.com/redbco/unidb/pkg/dbcapabilities"
)

func newSQLiteClient(t *testing.T) adapter.Client {
	t.Helper()

	c, err := sqlite.NewClient(adapter.ConnectionConfig{FilePath: ":memory:"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))
	t.Cleanup(func() { c.Disconnect(context.Background()) })

	_, err = c.Execute(ctx, "CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)")
	require.NoError(t, err)
	return c
}

func count(t *testing.T, c adapter.Client) int {
	t.Helper()
	rows, err := c.Select(context.Background(), "items", adapter.SelectOptions{})
	require.NoError(t, err)
	return len(rows)
}

func TestCommitKeepsWrites(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()

	tx, err := New(c)
	require.NoError(t, err)
	require.NoError(t, tx.Begin(ctx))

	_, err = c.Insert(ctx, "items", adapter.Record{"name": "a"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, 1, count(t, c))
	assert.False(t, tx.Active())
}

func TestRollbackDiscardsWrites(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()

	tx, err := New(c)
	require.NoError(t, err)
	require.NoError(t, tx.Begin(ctx))

	_, err = c.Insert(ctx, "items", adapter.Record{"name": "a"})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	assert.Equal(t, 0, count(t, c))
}

func TestStateMachine(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()

	tx, err := New(c)
	require.NoError(t, err)

	assert.True(t, errors.Is(tx.Commit(ctx), adapter.ErrNoTransaction))
	assert.True(t, errors.Is(tx.Rollback(ctx), adapter.ErrNoTransaction))
	assert.True(t, errors.Is(tx.Savepoint(ctx, "sp"), adapter.ErrNoTransaction))

	require.NoError(t, tx.Begin(ctx))
	assert.True(t, errors.Is(tx.Begin(ctx), adapter.ErrTransactionOpen))
	require.NoError(t, tx.Rollback(ctx))
}

func TestSavepointRollbackTo(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()

	tx, err := New(c)
	require.NoError(t, err)
	require.NoError(t, tx.Begin(ctx))

	_, err = c.Insert(ctx, "items", adapter.Record{"name": "before"})
	require.NoError(t, err)
	require.NoError(t, tx.Savepoint(ctx, "mark"))

	_, err = c.Insert(ctx, "items", adapter.Record{"name": "after"})
	require.NoError(t, err)

	require.NoError(t, tx.RollbackTo(ctx, "mark"))
	require.NoError(t, tx.Commit(ctx))

	rows, err := c.Select(ctx, "items", adapter.SelectOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "before", rows[0]["name"])
}

func TestSavepointStack(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()

	tx, err := New(c)
	require.NoError(t, err)
	require.NoError(t, tx.Begin(ctx))

	require.NoError(t, tx.Savepoint(ctx, "a"))
	require.NoError(t, tx.Savepoint(ctx, "b"))
	require.NoError(t, tx.Savepoint(ctx, "c"))
	assert.Equal(t, []string{"a", "b", "c"}, tx.Savepoints())

	// Rewinding to b pops b and everything above it.
	require.NoError(t, tx.RollbackTo(ctx, "b"))
	assert.Equal(t, []string{"a"}, tx.Savepoints())

	err = tx.RollbackTo(ctx, "b")
	assert.True(t, errors.Is(err, adapter.ErrSavepointNotFound))
	err = tx.RollbackTo(ctx, "c")
	assert.True(t, errors.Is(err, adapter.ErrSavepointNotFound))

	require.NoError(t, tx.Release(ctx, "a"))
	assert.Empty(t, tx.Savepoints())

	require.NoError(t, tx.Rollback(ctx))
	assert.Empty(t, tx.Savepoints())
}

func TestRollbackToConsumesSavepoint(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()

	tx, err := New(c)
	require.NoError(t, err)
	require.NoError(t, tx.Begin(ctx))

	require.NoError(t, tx.Savepoint(ctx, "mark"))
	_, err = c.Insert(ctx, "items", adapter.Record{"name": "a"})
	require.NoError(t, err)

	require.NoError(t, tx.RollbackTo(ctx, "mark"))
	assert.Empty(t, tx.Savepoints())

	err = tx.RollbackTo(ctx, "mark")
	assert.True(t, errors.Is(err, adapter.ErrSavepointNotFound))

	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, 0, count(t, c))
}

func TestSavepointNameValidation(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()

	tx, err := New(c)
	require.NoError(t, err)
	require.NoError(t, tx.Begin(ctx))
	defer tx.Rollback(ctx)

	err = tx.Savepoint(ctx, "bad name; DROP TABLE items")
	require.Error(t, err)
	assert.True(t, adapter.IsTransaction(err))
}

func TestWithinCommitsOnSuccess(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()

	err := Within(ctx, c, func(ctx context.Context) error {
		_, err := c.Insert(ctx, "items", adapter.Record{"name": "a"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count(t, c))
}

func TestWithinRollsBackOnError(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := Within(ctx, c, func(ctx context.Context) error {
		if _, err := c.Insert(ctx, "items", adapter.Record{"name": "a"}); err != nil {
			return err
		}
		return boom
	})
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 0, count(t, c))
}

func TestWithinRollsBackOnPanic(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()

	func() {
		defer func() {
			require.NotNil(t, recover())
		}()
		Within(ctx, c, func(ctx context.Context) error {
			if _, err := c.Insert(ctx, "items", adapter.Record{"name": "a"}); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	assert.Equal(t, 0, count(t, c))
}

type fakeClient struct {
	adapter.Client
}

func (fakeClient) Type() dbcapabilities.DatabaseID { return dbcapabilities.Redis }

func TestUnsupportedBackend(t *testing.T) {
	_, err := New(fakeClient{})
	require.Error(t, err)
	assert.True(t, adapter.IsUnsupported(err))
	assert.True(t, adapter.IsTransaction(err))
}
