// Package mongodb provides the MongoDB client backend. Tables map to
// collections and conditions map to equality filters.
package mongodb

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/redbco/unidb/pkg/adapter"
	"github.com/redbco/unidb/pkg/dbcapabilities"
)

func init() {
	adapter.Register(dbcapabilities.MongoDB, NewClient)
}

// Client is a MongoDB adapter.Client.
type Client struct {
	id     string
	uri    string
	dbName string
	config adapter.ConnectionConfig

	client *mongo.Client
	db     *mongo.Database
	state  int32
}

// NewClient validates config and returns an unconnected MongoDB client. A
// full connection URL takes precedence over host/port fields.
func NewClient(config adapter.ConnectionConfig) (adapter.Client, error) {
	if config.DatabaseName == "" {
		return nil, adapter.NewConfigurationError(dbcapabilities.MongoDB, "database_name", "database name is required")
	}

	uri := config.URL
	if uri == "" {
		if config.Host == "" {
			return nil, adapter.NewConfigurationError(dbcapabilities.MongoDB, "host", "host or url is required")
		}
		port := config.Port
		if port == 0 {
			port = 27017
		}
		if config.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d/%s?authSource=admin",
				config.Username, config.Password, config.Host, port, config.DatabaseName)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d/%s", config.Host, port, config.DatabaseName)
		}
	}

	id := config.Name
	if id == "" {
		id = uuid.NewString()
	}

	return &Client{id: id, uri: uri, dbName: config.DatabaseName, config: config}, nil
}

func (c *Client) Type() dbcapabilities.DatabaseID  { return dbcapabilities.MongoDB }
func (c *Client) ID() string                       { return c.id }
func (c *Client) State() adapter.State             { return adapter.State(atomic.LoadInt32(&c.state)) }
func (c *Client) IsConnected() bool                { return c.State() == adapter.StateConnected }
func (c *Client) Config() adapter.ConnectionConfig { return c.config }

// Raw returns the underlying *mongo.Database, or nil before Connect.
func (c *Client) Raw() any { return c.db }

// Connect establishes the connection and verifies it with a ping.
func (c *Client) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}

	client, err := mongo.Connect(options.Client().ApplyURI(c.uri))
	if err != nil {
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(dbcapabilities.MongoDB, "connect", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(dbcapabilities.MongoDB, "connect", err)
	}

	c.client = client
	c.db = client.Database(c.dbName)
	atomic.StoreInt32(&c.state, int32(adapter.StateConnected))
	lgr.Printf("DEBUG mongodb client %s connected", c.id)
	return nil
}

// Disconnect releases the connection. Safe on an already disconnected client.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.client == nil {
		atomic.StoreInt32(&c.state, int32(adapter.StateDisconnected))
		return nil
	}

	err := c.client.Disconnect(ctx)
	c.client = nil
	c.db = nil
	atomic.StoreInt32(&c.state, int32(adapter.StateDisconnected))
	if err != nil {
		return adapter.NewConnectionError(dbcapabilities.MongoDB, "disconnect", err)
	}
	return nil
}

// Ping probes the primary.
func (c *Client) Ping(ctx context.Context) error {
	if !c.IsConnected() {
		return adapter.NewConnectionError(dbcapabilities.MongoDB, "ping", adapter.ErrNotConnected)
	}
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		atomic.StoreInt32(&c.state, int32(adapter.StateFailed))
		return adapter.NewConnectionError(dbcapabilities.MongoDB, "ping", err)
	}
	return nil
}

func (c *Client) guard(operation string) error {
	if !c.IsConnected() {
		return adapter.NewConnectionError(dbcapabilities.MongoDB, operation, adapter.ErrNotConnected)
	}
	return nil
}

// Execute is not supported: MongoDB has no textual statement language in
// this toolkit. Use the typed operations or Raw.
func (c *Client) Execute(ctx context.Context, statement string, args ...any) (adapter.Result, error) {
	return adapter.Result{}, adapter.NewQueryError(dbcapabilities.MongoDB, "execute", "", adapter.ErrOperationNotSupported)
}

func toFilter(condition adapter.Condition) bson.M {
	filter := bson.M{}
	for k, v := range condition {
		filter[k] = v
	}
	return filter
}

// Insert stores one document and returns its generated object id as a hex
// string.
func (c *Client) Insert(ctx context.Context, table string, record adapter.Record) (any, error) {
	if err := c.guard("insert"); err != nil {
		return nil, err
	}

	res, err := c.db.Collection(table).InsertOne(ctx, bson.M(record))
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.MongoDB, "insert", table, err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		return oid.Hex(), nil
	}
	return res.InsertedID, nil
}

// InsertMany stores documents in one driver call and returns their ids in
// input order.
func (c *Client) InsertMany(ctx context.Context, table string, records []adapter.Record) ([]any, error) {
	if err := c.guard("insert_many"); err != nil {
		return nil, err
	}

	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = bson.M(r)
	}
	res, err := c.db.Collection(table).InsertMany(ctx, docs)
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.MongoDB, "insert_many", table, err)
	}

	ids := make([]any, len(res.InsertedIDs))
	for i, id := range res.InsertedIDs {
		if oid, ok := id.(bson.ObjectID); ok {
			ids[i] = oid.Hex()
		} else {
			ids[i] = id
		}
	}
	return ids, nil
}

// Update applies patch to every document matching condition.
func (c *Client) Update(ctx context.Context, table string, patch adapter.Record, condition adapter.Condition) (int64, error) {
	if err := c.guard("update"); err != nil {
		return 0, err
	}

	res, err := c.db.Collection(table).UpdateMany(ctx, toFilter(condition), bson.M{"$set": bson.M(patch)})
	if err != nil {
		return 0, adapter.NewQueryError(dbcapabilities.MongoDB, "update", table, err)
	}
	return res.ModifiedCount, nil
}

// Delete removes every document matching condition.
func (c *Client) Delete(ctx context.Context, table string, condition adapter.Condition) (int64, error) {
	if err := c.guard("delete"); err != nil {
		return 0, err
	}

	res, err := c.db.Collection(table).DeleteMany(ctx, toFilter(condition))
	if err != nil {
		return 0, adapter.NewQueryError(dbcapabilities.MongoDB, "delete", table, err)
	}
	return res.DeletedCount, nil
}

// Select returns documents matching the options. Selecting from a collection
// that does not exist is an error, matching the relational backends.
func (c *Client) Select(ctx context.Context, table string, opts adapter.SelectOptions) ([]adapter.Record, error) {
	if err := c.guard("select"); err != nil {
		return nil, err
	}

	names, err := c.db.ListCollectionNames(ctx, bson.M{"name": table})
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.MongoDB, "select", table, err)
	}
	if !slices.Contains(names, table) {
		return nil, adapter.NewQueryError(dbcapabilities.MongoDB, "select", table, adapter.ErrTableNotFound)
	}

	findOpts := options.Find()
	if len(opts.Fields) > 0 {
		projection := bson.M{}
		for _, f := range opts.Fields {
			projection[f] = 1
		}
		findOpts.SetProjection(projection)
	}
	if len(opts.OrderBy) > 0 {
		sort := bson.D{}
		for _, ob := range opts.OrderBy {
			dir := 1
			if ob.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: ob.Field, Value: dir})
		}
		findOpts.SetSort(sort)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := c.db.Collection(table).Find(ctx, toFilter(opts.Condition), findOpts)
	if err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.MongoDB, "select", table, err)
	}
	defer cursor.Close(ctx)

	records := []adapter.Record{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, adapter.NewQueryError(dbcapabilities.MongoDB, "select", table, err)
		}
		record := adapter.Record(doc)
		if oid, ok := record["_id"].(bson.ObjectID); ok {
			record["_id"] = oid.Hex()
		}
		records = append(records, record)
	}
	if err := cursor.Err(); err != nil {
		return nil, adapter.NewQueryError(dbcapabilities.MongoDB, "select", table, err)
	}
	return records, nil
}

// Count returns the number of documents matching condition.
func (c *Client) Count(ctx context.Context, table string, condition adapter.Condition) (int64, error) {
	if err := c.guard("count"); err != nil {
		return 0, err
	}

	n, err := c.db.Collection(table).CountDocuments(ctx, toFilter(condition))
	if err != nil {
		return 0, adapter.NewQueryError(dbcapabilities.MongoDB, "count", table, err)
	}
	return n, nil
}

// Exists reports whether at least one document matches condition.
func (c *Client) Exists(ctx context.Context, table string, condition adapter.Condition) (bool, error) {
	n, err := c.Count(ctx, table, condition)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
