// Package loader copies configured source tables into a memstore through a single
// fan-in engine.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ygrebnov/fanin"
	"github.com/ygrebnov/fanin/internal/config"
	"github.com/ygrebnov/fanin/memstore"
	"github.com/ygrebnov/fanin/metrics"
	"github.com/ygrebnov/fanin/sqlsource"
)

// Summary describes one completed load.
type Summary struct {
	LoadID    string
	Producers int
	Rows      int
	// PerTable is the number of rows counted in each table when partitioning.
	PerTable map[string]int64
	Duration time.Duration
}

type Loader struct {
	db      sqlsource.DB
	cfg     config.LoadConfig
	dialect string
	store   *memstore.Store
	metrics metrics.Provider
	log     log.FieldLogger
}

func New(db sqlsource.DB, dialect string, cfg config.LoadConfig, store *memstore.Store, provider metrics.Provider) *Loader {
	if provider == nil {
		provider = metrics.NewNoopProvider()
	}
	return &Loader{
		db:      db,
		cfg:     cfg,
		dialect: dialect,
		store:   store,
		metrics: provider,
		log:     log.StandardLogger(),
	}
}

// Run partitions every table, drains all partitions through one engine and writes the
// rows into the store. The engine, and with it every producer, is closed before Run
// returns.
func (l *Loader) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{LoadID: uuid.NewString(), PerTable: map[string]int64{}}
	logger := l.log.WithField("load_id", summary.LoadID)

	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	producers, err := l.producers(ctx, logger, summary.PerTable)
	if err != nil {
		return summary, err
	}
	summary.Producers = len(producers)

	engine, err := fanin.New(ctx, producers,
		fanin.WithBatchSize(uint(l.cfg.FetchSize)),
		fanin.WithPoolSize(uint(l.cfg.PoolSize)),
		fanin.WithLogger(logger),
		fanin.WithMetrics(l.metrics),
	)
	if err != nil {
		closeAll(producers)
		return summary, err
	}
	defer engine.Close()

	logger.WithField("producers", len(producers)).Info("starting initial load")
	rows, err := l.store.Load(ctx, engine.All(), int(l.cfg.FetchSize))
	summary.Rows = rows
	summary.Duration = time.Since(start)
	if err != nil {
		return summary, errors.Wrapf(err, "load %s", summary.LoadID)
	}

	logger.WithFields(log.Fields{
		"rows":     rows,
		"duration": summary.Duration,
	}).Info("initial load finished")
	return summary, nil
}

// producers partitions all tables concurrently and returns one producer per range,
// grouped by table in configuration order.
func (l *Loader) producers(ctx context.Context, logger log.FieldLogger, perTable map[string]int64) ([]fanin.Producer[memstore.Record], error) {
	byTable := make([][]fanin.Producer[memstore.Record], len(l.cfg.Tables))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.PoolSize)
	for i, table := range l.cfg.Tables {
		g.Go(func() error {
			total, ranges, err := sqlsource.Partition(gctx, l.db, l.dialect, table.Name, l.cfg.ChunkSize)
			if err != nil {
				return err
			}

			query := sqlsource.Query{
				Table:      table.Name,
				Key:        table.Key,
				Columns:    table.Columns,
				OrderByKey: l.cfg.OrderByKey,
			}
			ps := make([]fanin.Producer[memstore.Record], 0, len(ranges))
			for _, r := range ranges {
				p, err := sqlsource.NewProducer(l.db, l.dialect, query, r, l.cfg.FetchSize, scanRecord(table.Name, table.Key))
				if err != nil {
					closeAll(ps)
					return err
				}
				ps = append(ps, p)
			}

			mu.Lock()
			byTable[i] = ps
			perTable[table.Name] = total
			mu.Unlock()

			logger.WithFields(log.Fields{
				"table":      table.Name,
				"rows":       total,
				"partitions": len(ranges),
			}).Info("partitioned table")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, ps := range byTable {
			closeAll(ps)
		}
		return nil, err
	}

	var all []fanin.Producer[memstore.Record]
	for _, ps := range byTable {
		all = append(all, ps...)
	}
	return all, nil
}

// scanRecord reads a row into a Record keyed by the value of the key column.
func scanRecord(table, key string) sqlsource.ScanFunc[memstore.Record] {
	return func(rows *sql.Rows) (memstore.Record, error) {
		fields, err := sqlsource.ScanMap(rows)
		if err != nil {
			return memstore.Record{}, err
		}
		k, ok := fields[key]
		if !ok || k == nil {
			return memstore.Record{}, errors.Errorf("row of %s has no value for key column %s", table, key)
		}
		return memstore.Record{Table: table, Key: fmt.Sprint(k), Fields: fields}, nil
	}
}

func closeAll(ps []fanin.Producer[memstore.Record]) {
	for _, p := range ps {
		if err := p.Close(); err != nil {
			log.WithError(err).Warn("failed to close producer")
		}
	}
}
