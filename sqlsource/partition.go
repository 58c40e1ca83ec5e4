// Package sqlsource splits relational tables into ranges and reads each range as a
// sequential fanin.Producer.
//
// Statements are built with goqu; the sqlite3 and postgres dialects are registered.
package sqlsource

import (
	"context"
	"database/sql"
	"math"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/pkg/errors"
)

// NoChunking passed as chunk size to Partition returns the whole table as one range.
const NoChunking int64 = -1

// DB is the subset of *sql.DB used by this package.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Range is a window of rows in a table ordered by its key.
type Range struct {
	Offset int64
	Length int64
}

// Partition counts the rows of table and splits them into ranges of at most
// chunkSize rows. With NoChunking the result is a single unbounded range.
func Partition(ctx context.Context, db DB, dialect, table string, chunkSize int64) (int64, []Range, error) {
	if chunkSize == 0 || chunkSize < NoChunking {
		return 0, nil, errors.Errorf("sqlsource: chunk size must be positive or %d, got %d", NoChunking, chunkSize)
	}

	query, _, err := goqu.Dialect(dialect).
		From(goqu.T(table)).
		Select(goqu.COUNT(goqu.Star())).
		ToSQL()
	if err != nil {
		return 0, nil, errors.WithStack(err)
	}

	var total int64
	if err := db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, nil, errors.Wrapf(err, "counting rows of %s", table)
	}

	if chunkSize == NoChunking {
		return total, []Range{{Offset: 0, Length: math.MaxInt64}}, nil
	}

	ranges := make([]Range, 0, (total+chunkSize-1)/chunkSize)
	for off := int64(0); off < total; off += chunkSize {
		ranges = append(ranges, Range{Offset: off, Length: min(chunkSize, total-off)})
	}
	return total, ranges, nil
}
