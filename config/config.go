package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"friendspark/geohash"
)

// EnvPrefix prefixes every environment override, e.g. FRIENDSPARK_DB_HOST.
const EnvPrefix = "FRIENDSPARK"

// Event store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Geo index backends.
const (
	IndexRedis  = "redis"
	IndexMemory = "memory"
	IndexStore  = "store"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	DB         DBConfig         `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Geo        GeoConfig        `mapstructure:"geo"`
	Log        LogConfig        `mapstructure:"log"`
	Migrations MigrationsConfig `mapstructure:"migrations"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DBConfig struct {
	Driver       string `mapstructure:"driver"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type GeoConfig struct {
	// Index selects where candidate ids come from: redis, memory or store.
	Index            string `mapstructure:"index"`
	SearchPrecision  int    `mapstructure:"search_precision"`
	IndexedPrecision int    `mapstructure:"indexed_precision"`
	Limit            int    `mapstructure:"limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MigrationsConfig struct {
	Source string `mapstructure:"source"`
}

var defaults = map[string]any{
	"server.addr":             ":8080",
	"server.read_timeout":     "10s",
	"server.write_timeout":    "10s",
	"server.shutdown_timeout": "15s",
	"server.allowed_origins":  []string{"*"},

	"db.driver":         DriverPostgres,
	"db.user":           "postgres",
	"db.password":       "postgres",
	"db.dbname":         "friendspark",
	"db.sslmode":        "disable",
	"db.host":           "localhost",
	"db.port":           "5432",
	"db.max_open_conns": 10,

	"redis.addr":     "localhost:6379",
	"redis.password": "",
	"redis.db":       0,

	"geo.index":             IndexRedis,
	"geo.search_precision":  5,
	"geo.indexed_precision": 6,
	"geo.limit":             50,

	"log.level":  "info",
	"log.format": "text",

	"migrations.source": "embed://",
}

// Load reads the yaml file at path on top of the defaults, then applies
// FRIENDSPARK_* environment overrides. Variables from a .env file in the
// working directory are loaded first and never replace ones already set.
// An empty path or a missing file leaves defaults and environment only.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the rest of the program relies on.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("db.driver %q: want %s or %s", c.DB.Driver, DriverPostgres, DriverMemory)
	}
	switch c.Geo.Index {
	case IndexRedis, IndexMemory, IndexStore:
	default:
		return fmt.Errorf("geo.index %q: want %s, %s or %s", c.Geo.Index, IndexRedis, IndexMemory, IndexStore)
	}
	for name, p := range map[string]int{
		"geo.search_precision":  c.Geo.SearchPrecision,
		"geo.indexed_precision": c.Geo.IndexedPrecision,
	} {
		if p < geohash.MinPrecision || p > geohash.MaxPrecision {
			return fmt.Errorf("%s %d outside [%d, %d]", name, p, geohash.MinPrecision, geohash.MaxPrecision)
		}
	}
	if c.Geo.Limit <= 0 {
		return fmt.Errorf("geo.limit %d must be positive", c.Geo.Limit)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	return nil
}

// ConnString returns the lib/pq key/value connection string.
func (c DBConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the postgres:// form expected by golang-migrate.
func (c DBConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}
