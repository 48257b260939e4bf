// Package dbcapabilities provides a shared registry describing the capabilities of
// the databases supported by unidb. Cross-backend features import this package to
// make decisions based on uniform metadata (transactions, savepoints, paradigms)
// instead of switching on backend names.
//
// Minimal usage example:
//
//	import "github.com/redbco/unidb/pkg/dbcapabilities"
//
//	func canSavepoint(db string) bool {
//	    id, ok := dbcapabilities.ParseID(db)
//	    return ok && dbcapabilities.SupportsSavepoints(id)
//	}
//
// ParseID accepts canonical IDs ("postgres"), product names ("PostgreSQL") and
// common aliases ("postgresql", "pgsql"); lookups are case-insensitive.
package dbcapabilities
