package sqlsource

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ygrebnov/fanin"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("sqlsource: producer closed")

// Query describes what to read from one table.
type Query struct {
	Table string
	// Key is the column rows are ordered by.
	Key string
	// Columns to select; all columns when empty.
	Columns []string
	// OrderByKey orders pages by Key. Otherwise they are ordered by the first
	// column of Columns, or by Key when Columns is empty.
	OrderByKey bool
}

func (q Query) orderColumn() string {
	if !q.OrderByKey && len(q.Columns) > 0 {
		return q.Columns[0]
	}
	return q.Key
}

// Producer reads one Range of a table page by page.
// Every page is read completely and its rows are closed before the first item of
// the page is returned, so no cursor is held open between calls to Next.
type Producer[T any] struct {
	db        DB
	dataset   *goqu.SelectDataset
	query     Query
	rng       Range
	fetchSize int64
	scan      ScanFunc[T]

	fetched int64
	page    []T
	pos     int
	last    bool
	current T
	closed  bool
}

var _ fanin.Producer[map[string]any] = (*Producer[map[string]any])(nil)

// NewProducer returns a Producer over rng of query.Table using pages of at most fetchSize rows.
func NewProducer[T any](db DB, dialect string, query Query, rng Range, fetchSize int64, scan ScanFunc[T]) (*Producer[T], error) {
	switch {
	case query.Table == "" || query.Key == "":
		return nil, errors.New("sqlsource: query needs a table and a key column")
	case fetchSize <= 0:
		return nil, errors.Errorf("sqlsource: fetch size must be > 0, got %d", fetchSize)
	case rng.Offset < 0 || rng.Length < 0:
		return nil, errors.Errorf("sqlsource: invalid range %+v", rng)
	case scan == nil:
		return nil, errors.New("sqlsource: scan function is nil")
	}

	var cols []any
	for _, c := range query.Columns {
		cols = append(cols, goqu.C(c))
	}
	ds := goqu.Dialect(dialect).From(goqu.T(query.Table))
	if len(cols) > 0 {
		ds = ds.Select(cols...)
	}
	ds = ds.Order(goqu.C(query.orderColumn()).Asc())

	return &Producer[T]{
		db:        db,
		dataset:   ds,
		query:     query,
		rng:       rng,
		fetchSize: fetchSize,
		scan:      scan,
	}, nil
}

// Next advances to the next row, fetching a new page when the current one is consumed.
func (p *Producer[T]) Next(ctx context.Context) (bool, error) {
	if p.closed {
		return false, ErrClosed
	}
	if p.pos >= len(p.page) {
		if p.last || p.fetched >= p.rng.Length {
			return false, nil
		}
		if err := p.fetch(ctx); err != nil {
			return false, err
		}
		if len(p.page) == 0 {
			return false, nil
		}
	}
	p.current = p.page[p.pos]
	p.pos++
	return true, nil
}

func (p *Producer[T]) Value() T { return p.current }

// Close drops the buffered page. It is idempotent.
func (p *Producer[T]) Close() error {
	p.closed = true
	p.page = nil
	return nil
}

func (p *Producer[T]) fetch(ctx context.Context) error {
	limit := min(p.fetchSize, p.rng.Length-p.fetched)
	query, _, err := p.dataset.
		Limit(uint(limit)).
		Offset(uint(p.rng.Offset + p.fetched)).
		ToSQL()
	if err != nil {
		return errors.WithStack(err)
	}

	page, err := p.readPage(ctx, query, int(limit))
	if err != nil {
		return err
	}

	p.page, p.pos = page, 0
	p.fetched += int64(len(page))
	p.last = int64(len(page)) < limit

	log.WithFields(log.Fields{
		"table":  p.query.Table,
		"offset": p.rng.Offset,
		"rows":   p.fetched,
	}).Trace("fetched page")
	return nil
}

func (p *Producer[T]) readPage(ctx context.Context, query string, capacity int) (page []T, err error) {
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", p.query.Table)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = errors.WithStack(cerr)
		}
	}()

	page = make([]T, 0, capacity)
	for rows.Next() {
		v, err := p.scan(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "scanning %s", p.query.Table)
		}
		page = append(page, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", p.query.Table)
	}
	return page, nil
}
