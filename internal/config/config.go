package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/koustreak/dbverify/internal/database"
	"github.com/koustreak/dbverify/internal/errs"
	"github.com/koustreak/dbverify/internal/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

// EnvPrefix prefixes every environment override, e.g. DBVERIFY_DATABASE_HOST.
const EnvPrefix = "DBVERIFY"

const redacted = "********"

// Config holds all configuration for dbverify
type Config struct {
	// Database connection settings
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Logging
	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Report archive (object storage)
	Report ReportConfig `mapstructure:"report" yaml:"report"`

	// HTTP server used by "dbverify serve"
	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" yaml:"driver" validate:"required,oneof=postgres mysql"`
	Host     string `mapstructure:"host" yaml:"host" validate:"required_without=DSN"`
	Port     int    `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`
	User     string `mapstructure:"user" yaml:"user" validate:"required_without=DSN"`
	Password string `mapstructure:"password" yaml:"password"`
	Name     string `mapstructure:"name" yaml:"name" validate:"required_without=DSN"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode,omitempty" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`

	// DSN overrides every discrete field above when set.
	DSN string `mapstructure:"dsn" yaml:"dsn,omitempty"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error disabled"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json console"`
}

// ReportConfig controls archiving of run reports to object storage
type ReportConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint,omitempty" validate:"required_if=Enabled true"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key,omitempty" validate:"required_if=Enabled true"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key,omitempty" validate:"required_if=Enabled true"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket,omitempty" validate:"required_if=Enabled true"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Region    string `mapstructure:"region" yaml:"region,omitempty"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" validate:"required"`

	// RateLimit is the sustained number of /verify runs allowed per second.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gt=0"`
	Burst     int     `mapstructure:"burst" yaml:"burst" validate:"min=1"`

	// CORSOrigins enables CORS for the listed origins. Empty disables it.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults.
// Credentials and database name have no default.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:         string(database.DriverPostgres),
			Host:           "localhost",
			ConnectTimeout: 10 * time.Second,
			QueryTimeout:   30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Report: ReportConfig{
			Prefix: "dbverify",
		},
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 1,
			Burst:     3,
		},
	}
}

// LoadOptions selects the sources Load merges.
type LoadOptions struct {
	// File is an optional config file (YAML, TOML or JSON).
	File string

	// EnvFile is a dotenv file. Empty means ".env" if it exists.
	EnvFile string

	// Flags are command-line flags bound through FlagKeys.
	Flags *pflag.FlagSet
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"driver":          "database.driver",
	"host":            "database.host",
	"port":            "database.port",
	"user":            "database.user",
	"password":        "database.password",
	"dbname":          "database.name",
	"sslmode":         "database.sslmode",
	"dsn":             "database.dsn",
	"connect-timeout": "database.connect_timeout",
	"query-timeout":   "database.query_timeout",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"addr":            "server.addr",
}

// Load merges, from lowest to highest precedence: defaults, config file,
// environment (including the dotenv file), and explicitly set flags.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to load env file", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file", err)
		}
	}

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to bind flag "+name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to unmarshal config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults registers every key so environment variables are picked up by
// Unmarshal even when no config file mentions them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.connect_timeout", d.Database.ConnectTimeout)
	v.SetDefault("database.query_timeout", d.Database.QueryTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("report.enabled", d.Report.Enabled)
	v.SetDefault("report.endpoint", d.Report.Endpoint)
	v.SetDefault("report.access_key", d.Report.AccessKey)
	v.SetDefault("report.secret_key", d.Report.SecretKey)
	v.SetDefault("report.bucket", d.Report.Bucket)
	v.SetDefault("report.prefix", d.Report.Prefix)
	v.SetDefault("report.region", d.Report.Region)
	v.SetDefault("report.use_ssl", d.Report.UseSSL)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.burst", d.Server.Burst)
	v.SetDefault("server.cors_origins", append([]string{}, d.Server.CORSOrigins...))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	vd := validator.New(validator.WithRequiredStructEnabled())
	// Report config keys rather than Go field names.
	vd.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return vd
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid configuration", err)
	}

	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = describe(fe)
	}
	return errs.New(errs.ErrKindInvalidInput,
		fmt.Sprintf("validation errors:\n  - %s", strings.Join(msgs, "\n  - ")))
}

func describe(fe validator.FieldError) string {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "required_without":
		return key + " is required unless database.dsn is set"
	case "required_if":
		return key + " is required when report.enabled is true"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %q)", key, fe.Param(), fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s failed %s=%s", key, fe.Tag(), fe.Param())
	}
}

// DatabaseConfig converts the database section into the driver-level Config.
func (c *Config) DatabaseConfig() *database.Config {
	d := c.Database
	return &database.Config{
		Driver:         database.Driver(d.Driver),
		Host:           d.Host,
		Port:           d.Port,
		User:           d.User,
		Password:       d.Password,
		Database:       d.Name,
		SSLMode:        d.SSLMode,
		DSN:            d.DSN,
		ConnectTimeout: d.ConnectTimeout,
		QueryTimeout:   d.QueryTimeout,
	}
}

// LoggerConfig converts the log section into a logger.Config.
func (c *Config) LoggerConfig(noColor bool) *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	lc.NoColor = noColor
	return lc
}

// Redacted returns a copy with secrets masked.
func (c *Config) Redacted() *Config {
	r := *c
	if r.Database.Password != "" {
		r.Database.Password = redacted
	}
	if r.Database.DSN != "" {
		r.Database.DSN = redactDSN(r.Database.DSN)
	}
	if r.Report.SecretKey != "" {
		r.Report.SecretKey = redacted
	}
	return &r
}

// redactDSN masks the password of URL-style DSNs and hides anything else
// that may embed credentials.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" && u.Host != "" {
		return u.Redacted()
	}
	return redacted
}

// YAML renders the redacted configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}
