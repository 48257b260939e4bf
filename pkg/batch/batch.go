// Package batch layers bulk operations over any adapter.Client. Inserts run
// in chunks and collect per-record outcomes instead of stopping at the first
// failure; updates and deletes aggregate affected-row counts.
package batch

import (
	"context"
	"fmt"

	"github.com/go-pkgz/lgr"

	"github.com/redbco/unidb/pkg/adapter"
)

// DefaultChunkSize bounds how many records one insert chunk carries.
const DefaultChunkSize = 100

// InsertResult is the outcome of one record in an InsertMany call. Index
// refers to the record's position in the input slice.
type InsertResult struct {
	Index int
	ID    any
	Err   error
}

// Summary aggregates an InsertMany run.
type Summary struct {
	Succeeded int
	Failed    int
	Results   []InsertResult
}

// Ops provides batch operations over a connected client.
type Ops struct {
	client adapter.Client
	chunk  int
}

// New builds an Ops over client with the default chunk size.
func New(client adapter.Client) *Ops {
	return &Ops{client: client, chunk: DefaultChunkSize}
}

// WithChunkSize overrides the chunk size. Sizes below one fall back to the
// default.
func (o *Ops) WithChunkSize(n int) *Ops {
	if n < 1 {
		n = DefaultChunkSize
	}
	o.chunk = n
	return o
}

// bulkInserter is the optional fast path a backend can expose for whole
// chunks, e.g. a document store's native multi-insert.
type bulkInserter interface {
	InsertMany(ctx context.Context, table string, records []adapter.Record) ([]any, error)
}

// InsertMany stores records in chunks, continuing past individual failures.
// The returned summary carries one result per input record, in input order.
// Backends implementing bulkInserter get whole chunks; a failed chunk falls
// back to record-at-a-time so one bad record cannot take out its neighbors.
func (o *Ops) InsertMany(ctx context.Context, table string, records []adapter.Record) (Summary, error) {
	summary := Summary{Results: make([]InsertResult, 0, len(records))}
	bulk, _ := o.client.(bulkInserter)

	for start := 0; start < len(records); start += o.chunk {
		end := min(start+o.chunk, len(records))
		chunk := records[start:end]

		if bulk != nil {
			if ids, err := bulk.InsertMany(ctx, table, chunk); err == nil && len(ids) == len(chunk) {
				for i, id := range ids {
					summary.Succeeded++
					summary.Results = append(summary.Results, InsertResult{Index: start + i, ID: id})
				}
				continue
			}
		}

		for i, record := range chunk {
			idx := start + i
			id, err := o.client.Insert(ctx, table, record)
			if err != nil {
				summary.Failed++
				summary.Results = append(summary.Results, InsertResult{Index: idx, Err: err})
				continue
			}
			summary.Succeeded++
			summary.Results = append(summary.Results, InsertResult{Index: idx, ID: id})
		}
	}

	if summary.Failed > 0 {
		lgr.Printf("WARN batch insert into %s: %d of %d records failed", table, summary.Failed, len(records))
	}
	return summary, nil
}

// Update pairs a patch with the condition selecting the rows it applies to.
type Update struct {
	Patch     adapter.Record
	Condition adapter.Condition
}

// UpdateMany applies updates in order, continuing past individual failures
// like InsertMany does, and returns the total rows affected by the updates
// that succeeded. Failed updates are counted and logged, not propagated.
func (o *Ops) UpdateMany(ctx context.Context, table string, updates []Update) (int64, error) {
	var total int64
	var failed int
	for _, u := range updates {
		n, err := o.client.Update(ctx, table, u.Patch, u.Condition)
		if err != nil {
			failed++
			lgr.Printf("WARN batch update on %s: %v", table, err)
			continue
		}
		total += n
	}
	if failed > 0 {
		lgr.Printf("WARN batch update on %s: %d of %d updates failed", table, failed, len(updates))
	}
	return total, nil
}

// DeleteMany applies each condition in order, continuing past individual
// failures, and returns the total rows removed by the deletes that
// succeeded. Failed deletes are counted and logged, not propagated.
func (o *Ops) DeleteMany(ctx context.Context, table string, conditions []adapter.Condition) (int64, error) {
	var total int64
	var failed int
	for _, cond := range conditions {
		n, err := o.client.Delete(ctx, table, cond)
		if err != nil {
			failed++
			lgr.Printf("WARN batch delete on %s: %v", table, err)
			continue
		}
		total += n
	}
	if failed > 0 {
		lgr.Printf("WARN batch delete on %s: %d of %d deletes failed", table, failed, len(conditions))
	}
	return total, nil
}

// Upsert updates rows whose uniqueFields values match record's, inserting
// record when none match. The bool reports whether an insert happened. The
// select-then-write sequence is not atomic; wrap it in a transaction when
// the backend allows and concurrent writers are possible.
func (o *Ops) Upsert(ctx context.Context, table string, record adapter.Record, uniqueFields []string) (inserted bool, err error) {
	if len(uniqueFields) == 0 {
		return false, adapter.NewQueryError(o.client.Type(), "upsert", table,
			fmt.Errorf("no unique fields given"))
	}
	condition := adapter.Condition{}
	for _, f := range uniqueFields {
		v, ok := record[f]
		if !ok {
			return false, adapter.NewQueryError(o.client.Type(), "upsert", table,
				fmt.Errorf("record has no value for unique field %q", f))
		}
		condition[f] = v
	}

	rows, err := o.client.Select(ctx, table, adapter.SelectOptions{Condition: condition, Limit: 1})
	if err != nil {
		return false, err
	}

	if len(rows) > 0 {
		_, err := o.client.Update(ctx, table, record, condition)
		return false, err
	}
	_, err = o.client.Insert(ctx, table, record)
	return true, err
}
