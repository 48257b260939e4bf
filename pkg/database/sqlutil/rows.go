package sqlutil

import (
	"database/sql"
	"fmt"

	"github.com/redbco/unidb/pkg/adapter"
)

// ScanRows drains a database/sql result set into records keyed by column
// name. []byte values are converted to string for text-friendly results.
// The caller keeps ownership of rows and must close them.
func ScanRows(rows *sql.Rows) ([]adapter.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error reading columns: %w", err)
	}

	var result []adapter.Record
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}

		rowMap := make(adapter.Record, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				rowMap[col] = string(v)
			default:
				rowMap[col] = v
			}
		}
		result = append(result, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}
