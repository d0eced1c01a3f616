package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendMinio = "minio"
)

// Config holds the main configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Storage  Storage  `mapstructure:"storage"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Retry    Retry    `mapstructure:"retry"`
	Batch    Batch    `mapstructure:"batch"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort string `mapstructure:"http_port"` // HTTP port to listen on
}

// Database holds database master and slave configuration.
type Database struct {
	Enabled bool           `mapstructure:"enabled"`
	Master  DatabaseNode   `mapstructure:"master"`
	Slaves  []DatabaseNode `mapstructure:"slaves"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DatabaseNode holds connection parameters for a single database node.
type DatabaseNode struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	SSLMode string `mapstructure:"ssl_mode"`
}

// Storage holds configuration for the file storage backend.
type Storage struct {
	Backend    string `mapstructure:"backend"`  // "local" or "minio"
	BaseDir    string `mapstructure:"base_dir"` // root for local output; empty means ~/Pictures
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	BucketName string `mapstructure:"bucket_name"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// Kafka holds configuration for the Kafka message queue.
type Kafka struct {
	Enabled       bool     `mapstructure:"enabled"`
	GroupID       string   `mapstructure:"group_id"`       // Consumer group ID
	RequestsTopic string   `mapstructure:"requests_topic"` // batch requests are consumed from here
	ResultsTopic  string   `mapstructure:"results_topic"`  // batch outcomes are published here
	Brokers       []string `mapstructure:"brokers"`        // List of Kafka broker addresses
}

// Retry defines retry policy configuration for transport calls.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

// Batch controls the filter engine.
type Batch struct {
	Workers     int    `mapstructure:"workers"`      // 0 means one per CPU
	Suffix      string `mapstructure:"suffix"`       // inserted before the output extension
	Overwrite   bool   `mapstructure:"overwrite"`    // replace existing outputs
	JPEGQuality int    `mapstructure:"jpeg_quality"` // 1-100
	AutoOrient  bool   `mapstructure:"auto_orient"`
}

// DSN returns the PostgreSQL DSN string for connecting to this database node.
func (n DatabaseNode) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		n.User, n.Pass, n.Host, n.Port, n.Name, n.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", ":8080")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.master.host", "localhost")
	v.SetDefault("database.master.port", "5432")
	v.SetDefault("database.master.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("storage.backend", BackendLocal)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.group_id", "image-filter")
	v.SetDefault("kafka.requests_topic", "image-filter.requests")
	v.SetDefault("kafka.results_topic", "image-filter.results")

	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", 500*time.Millisecond)
	v.SetDefault("retry.backoff", 2.0)

	v.SetDefault("batch.workers", 0)
	v.SetDefault("batch.suffix", "_processed")
	v.SetDefault("batch.overwrite", false)
	v.SetDefault("batch.jpeg_quality", 95)
	v.SetDefault("batch.auto_orient", true)
}

// bindEnv binds critical environment variables to Viper keys.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"database.master.host": "DB_HOST",
		"database.master.port": "DB_PORT",
		"database.master.user": "DB_USER",
		"database.master.pass": "DB_PASSWORD",
		"database.master.name": "DB_NAME",
		"storage.access_key":   "MINIO_ACCESS_KEY",
		"storage.secret_key":   "MINIO_SECRET_KEY",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	return nil
}

// Load reads the YAML file at path on top of the defaults. A missing file is
// not an error; every key can also come from the environment
// (e.g. BATCH_WORKERS) or from flags when flags is not nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"dest":      "storage.base_dir",
	"workers":   "batch.workers",
	"overwrite": "batch.overwrite",
	"suffix":    "batch.suffix",
	"quality":   "batch.jpeg_quality",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	return nil
}

// MustLoad loads the configuration from the specified file path.
// It panics if the configuration file cannot be loaded or unmarshaled.
func MustLoad(path string) *Config {
	cfg, err := Load(path, nil)
	if err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to load config")
	}

	return cfg
}
