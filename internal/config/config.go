// Package config loads the initial load configuration from a yaml file and
// FANIN_ prefixed environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	DefaultChunkSize = 100000
	DefaultFetchSize = 10000
	DefaultPoolSize  = 10

	// NoChunking as load.chunkSize reads every table as a single range.
	NoChunking = -1
)

type LoaderConfig struct {
	Database DatabaseConfig
	Load     LoadConfig
	Metrics  MetricsConfig
}

type DatabaseConfig struct {
	// Driver is the database/sql driver name, e.g. "sqlite".
	Driver string
	DSN    string `mapstructure:"dsn"`
	// Dialect selects the SQL dialect used to build statements: "sqlite3" or "postgres".
	Dialect string
}

type LoadConfig struct {
	// ChunkSize is the number of rows per partition, or NoChunking.
	ChunkSize int64 `mapstructure:"chunkSize"`
	// FetchSize is the page size of a producer and the batch size of the engine.
	FetchSize int64 `mapstructure:"fetchSize"`
	// PoolSize is the number of tables partitioned and producers drained in parallel.
	PoolSize int `mapstructure:"poolSize"`
	// OrderByKey orders pages by the table key instead of the first selected column.
	OrderByKey bool `mapstructure:"orderByKey"`
	// Timeout bounds the whole load; zero means no limit.
	Timeout time.Duration
	Tables  []TableConfig
}

type TableConfig struct {
	Name    string
	Key     string
	Columns []string
}

type MetricsConfig struct {
	Enabled bool
	// Address the Prometheus handler listens on.
	Address string
}

var dialects = map[string]struct{}{"sqlite3": {}, "postgres": {}}

// Load reads the configuration file at path, applies environment overrides and validates
// the result. An empty path uses defaults and the environment only.
func Load(path string) (*LoaderConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FANIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	var cfg LoaderConfig
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dialect", "sqlite3")
	v.SetDefault("database.dsn", "")
	v.SetDefault("load.chunkSize", DefaultChunkSize)
	v.SetDefault("load.fetchSize", DefaultFetchSize)
	v.SetDefault("load.poolSize", DefaultPoolSize)
	v.SetDefault("load.orderByKey", true)
	v.SetDefault("load.timeout", "0s")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", ":9090")
}

// Validate reports every invalid field at once.
func (c *LoaderConfig) Validate() error {
	var result *multierror.Error
	if c.Database.DSN == "" {
		result = multierror.Append(result, errors.New("database.dsn is required"))
	}
	if _, ok := dialects[c.Database.Dialect]; !ok {
		result = multierror.Append(result, errors.Errorf("database.dialect %q is not supported", c.Database.Dialect))
	}
	if c.Load.ChunkSize <= 0 && c.Load.ChunkSize != NoChunking {
		result = multierror.Append(result, errors.Errorf("load.chunkSize must be positive or %d, got %d", NoChunking, c.Load.ChunkSize))
	}
	if c.Load.FetchSize < 1 {
		result = multierror.Append(result, errors.Errorf("load.fetchSize must be >= 1, got %d", c.Load.FetchSize))
	}
	if c.Load.PoolSize < 1 {
		result = multierror.Append(result, errors.Errorf("load.poolSize must be >= 1, got %d", c.Load.PoolSize))
	}
	if c.Load.Timeout < 0 {
		result = multierror.Append(result, errors.Errorf("load.timeout must not be negative, got %s", c.Load.Timeout))
	}
	if len(c.Load.Tables) == 0 {
		result = multierror.Append(result, errors.New("load.tables must not be empty"))
	}
	for i, t := range c.Load.Tables {
		if t.Name == "" || t.Key == "" {
			result = multierror.Append(result, errors.Errorf("load.tables[%d] needs a name and a key", i))
		}
	}
	return result.ErrorOrNil()
}

func ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)
}
