package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/unidb/pkg/dbcapabilities"
)

// memClient is an in-memory Client used to exercise the registry and the
// contract without a live backend.
type memClient struct {
	id        string
	config    ConnectionConfig
	state     int32
	nextID    int64
	tables    map[string][]Record
	failNext  bool
	connectN  int
	disconnN  int
	lastTable string
}

func newMemClient(config ConnectionConfig) (Client, error) {
	return &memClient{
		id:     "mem-1",
		config: config,
		tables: make(map[string][]Record),
	}, nil
}

func (m *memClient) Type() dbcapabilities.DatabaseID { return "mem" }
func (m *memClient) ID() string                      { return m.id }
func (m *memClient) State() State                    { return State(atomic.LoadInt32(&m.state)) }
func (m *memClient) IsConnected() bool               { return m.State() == StateConnected }
func (m *memClient) Config() ConnectionConfig        { return m.config }
func (m *memClient) Raw() any                        { return m.tables }

func (m *memClient) Connect(ctx context.Context) error {
	if m.failNext {
		m.failNext = false
		atomic.StoreInt32(&m.state, int32(StateFailed))
		return NewConnectionError("mem", "connect", ErrConnectionFailed)
	}
	m.connectN++
	atomic.StoreInt32(&m.state, int32(StateConnected))
	return nil
}

func (m *memClient) Disconnect(ctx context.Context) error {
	m.disconnN++
	atomic.StoreInt32(&m.state, int32(StateDisconnected))
	return nil
}

func (m *memClient) Ping(ctx context.Context) error {
	if !m.IsConnected() {
		return NewConnectionError("mem", "ping", ErrNotConnected)
	}
	return nil
}

func (m *memClient) Execute(ctx context.Context, statement string, args ...any) (Result, error) {
	return Result{}, NewQueryError("mem", "execute", "", ErrOperationNotSupported)
}

func (m *memClient) Insert(ctx context.Context, table string, record Record) (any, error) {
	if !m.IsConnected() {
		return nil, NewConnectionError("mem", "insert", ErrNotConnected)
	}
	m.nextID++
	stored := Record{"id": m.nextID}
	for k, v := range record {
		stored[k] = v
	}
	m.tables[table] = append(m.tables[table], stored)
	m.lastTable = table
	return m.nextID, nil
}

func (m *memClient) Update(ctx context.Context, table string, patch Record, condition Condition) (int64, error) {
	if !m.IsConnected() {
		return 0, NewConnectionError("mem", "update", ErrNotConnected)
	}
	rows, ok := m.tables[table]
	if !ok {
		return 0, NewQueryError("mem", "update", table, ErrTableNotFound)
	}
	var n int64
	for _, row := range rows {
		if matches(row, condition) {
			for k, v := range patch {
				row[k] = v
			}
			n++
		}
	}
	return n, nil
}

func (m *memClient) Delete(ctx context.Context, table string, condition Condition) (int64, error) {
	if !m.IsConnected() {
		return 0, NewConnectionError("mem", "delete", ErrNotConnected)
	}
	rows, ok := m.tables[table]
	if !ok {
		return 0, NewQueryError("mem", "delete", table, ErrTableNotFound)
	}
	kept := rows[:0]
	var n int64
	for _, row := range rows {
		if matches(row, condition) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	m.tables[table] = kept
	return n, nil
}

func (m *memClient) Select(ctx context.Context, table string, opts SelectOptions) ([]Record, error) {
	if !m.IsConnected() {
		return nil, NewConnectionError("mem", "select", ErrNotConnected)
	}
	rows, ok := m.tables[table]
	if !ok {
		return nil, NewQueryError("mem", "select", table, ErrTableNotFound)
	}
	var out []Record
	for _, row := range rows {
		if matches(row, opts.Condition) {
			out = append(out, row)
		}
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func matches(row Record, cond Condition) bool {
	for k, want := range cond {
		if fmt.Sprint(row[k]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry()
	r.Register("mem", newMemClient)

	client, err := r.Create("mem", ConnectionConfig{})
	require.NoError(t, err)
	assert.False(t, client.IsConnected())
	assert.Equal(t, dbcapabilities.DatabaseID("mem"), client.Type())
}

func TestRegistryCreateUnknownType(t *testing.T) {
	r := NewRegistry()

	_, err := r.Create("unknown_type", ConnectionConfig{})
	require.Error(t, err)
	assert.True(t, IsConfiguration(err))
	assert.ErrorIs(t, err, ErrBackendNotFound)
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	r := NewRegistry()
	r.Register("mem", func(ConnectionConfig) (Client, error) {
		return nil, errors.New("first")
	})
	r.Register("mem", newMemClient)

	client, err := r.Create("mem", ConnectionConfig{})
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestRegistryAliasResolution(t *testing.T) {
	r := NewRegistry()
	r.Register(dbcapabilities.PostgreSQL, newMemClient)

	// "postgresql" and "pgsql" collapse to the canonical identifier.
	for _, name := range []string{"postgres", "postgresql", "pgsql", "PostgreSQL"} {
		_, err := r.Create(name, ConnectionConfig{})
		assert.NoError(t, err, name)
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register("mem", newMemClient)
	require.True(t, r.IsRegistered("mem"))

	r.Unregister("mem")
	assert.False(t, r.IsRegistered("mem"))

	_, err := r.Create("mem", ConnectionConfig{})
	assert.True(t, IsConfiguration(err))
}

func TestRegistryListRegistered(t *testing.T) {
	r := NewRegistry()
	r.Register("mem", newMemClient)
	r.Register("other", newMemClient)

	ids := r.ListRegistered()
	assert.ElementsMatch(t, []dbcapabilities.DatabaseID{"mem", "other"}, ids)
}

func TestContractRoundTrip(t *testing.T) {
	r := NewRegistry()
	r.Register("mem", newMemClient)

	client, err := r.Create("mem", ConnectionConfig{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	defer client.Disconnect(ctx)

	id, err := client.Insert(ctx, "users", Record{"name": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	rows, err := client.Select(ctx, "users", SelectOptions{Condition: Condition{"name": "Alice"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "Alice", rows[0]["name"])
}

func TestSelectMissingTableIsQueryError(t *testing.T) {
	client, _ := newMemClient(ConnectionConfig{})
	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))

	_, err := client.Select(ctx, "missing_table", SelectOptions{})
	require.Error(t, err)
	assert.True(t, IsQuery(err))
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestOperationWhileDisconnected(t *testing.T) {
	client, _ := newMemClient(ConnectionConfig{})

	_, err := client.Insert(context.Background(), "users", Record{"name": "x"})
	require.Error(t, err)
	assert.True(t, IsConnection(err))
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestWithClientScope(t *testing.T) {
	raw, _ := newMemClient(ConnectionConfig{})
	mc := raw.(*memClient)
	ctx := context.Background()

	err := WithClient(ctx, raw, func(ctx context.Context, c Client) error {
		assert.True(t, c.IsConnected())
		return nil
	})
	require.NoError(t, err)
	assert.False(t, raw.IsConnected())
	assert.Equal(t, 1, mc.connectN)
	assert.Equal(t, 1, mc.disconnN)
}

func TestWithClientDisconnectsOnError(t *testing.T) {
	raw, _ := newMemClient(ConnectionConfig{})
	mc := raw.(*memClient)
	boom := errors.New("boom")

	err := WithClient(context.Background(), raw, func(ctx context.Context, c Client) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, raw.IsConnected())
	assert.Equal(t, 1, mc.disconnN)
}

func TestWithClientConnectFailure(t *testing.T) {
	raw, _ := newMemClient(ConnectionConfig{})
	mc := raw.(*memClient)
	mc.failNext = true

	called := false
	err := WithClient(context.Background(), raw, func(ctx context.Context, c Client) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, IsConnection(err))
	assert.False(t, called)
	assert.Zero(t, mc.disconnN)
}
