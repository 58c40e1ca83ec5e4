package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	_ "modernc.org/sqlite"

	"github.com/ygrebnov/fanin/internal/config"
	"github.com/ygrebnov/fanin/internal/loader"
	"github.com/ygrebnov/fanin/memstore"
	"github.com/ygrebnov/fanin/metrics"
)

const (
	configFlag      = "config"
	metricsAddrFlag = "metrics-addr"
)

func main() {
	config.ConfigureLogging()
	if err := rootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initload",
		Short: "initload copies source tables into memory through a parallel fan-in.",
		Long: `initload partitions every configured table, reads all partitions in parallel
and loads the rows into an in-memory store.

Example config:
database:
  driver: sqlite
  dsn: ./source.db
load:
  chunkSize: 100000
  tables:
    - name: users
      key: id

Every key can be overridden with a FANIN_ prefixed environment variable,
e.g. FANIN_LOAD_POOLSIZE=4.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString(configFlag)
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed(metricsAddrFlag) {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Address, _ = cmd.Flags().GetString(metricsAddrFlag)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, cfg)
		},
	}
	addFlags(cmd.Flags())
	return cmd
}

func addFlags(fs *pflag.FlagSet) {
	fs.String(configFlag, "", "Path to the yaml configuration file")
	fs.String(metricsAddrFlag, ":9090", "Serve Prometheus metrics on this address while loading")
}

func run(ctx context.Context, cfg *config.LoaderConfig) error {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("failed to close database")
		}
	}()
	db.SetMaxOpenConns(cfg.Load.PoolSize)

	var provider metrics.Provider = metrics.NewNoopProvider()
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		provider = metrics.NewPrometheusProvider(reg)
		stop := serveMetrics(cfg.Metrics.Address, reg)
		defer stop()
	}

	store, err := memstore.New()
	if err != nil {
		return err
	}

	summary, err := loader.New(db, cfg.Database.Dialect, cfg.Load, store, provider).Run(ctx)
	if err != nil {
		return err
	}

	for table, rows := range summary.PerTable {
		loaded, err := store.Count(table)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"load_id": summary.LoadID,
			"table":   table,
			"rows":    rows,
			"loaded":  loaded,
		}).Info("table loaded")
	}
	log.WithFields(log.Fields{
		"load_id":   summary.LoadID,
		"producers": summary.Producers,
		"rows":      summary.Rows,
		"duration":  summary.Duration,
	}).Info("load complete")
	return nil
}

// serveMetrics exposes reg on addr and returns a function that shuts the server down.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.WithField("address", addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("failed to stop metrics server")
		}
	}
}
