package sqlsource

import (
	"database/sql"

	"github.com/pkg/errors"
)

// ScanFunc converts the current row of rows into an item.
type ScanFunc[T any] func(rows *sql.Rows) (T, error)

// ScanMap reads the current row into a map keyed by column name.
// []byte values are copied into strings.
func ScanMap(rows *sql.Rows) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, errors.WithStack(err)
	}

	row := make(map[string]any, len(cols))
	for i, c := range cols {
		if b, ok := values[i].([]byte); ok {
			row[c] = string(b)
			continue
		}
		row[c] = values[i]
	}
	return row, nil
}
