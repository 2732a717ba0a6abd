// Package config builds the server and client options from command-line
// flags, an optional YAML config file and environment variables, in that
// order of precedence (later wins).
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

// Environment prefixes. CAREBOOK_DATABASE_DSN maps to database_dsn, and a
// double underscore maps to a dot.
const (
	ServerEnvPrefix = "CAREBOOK_"
	ClientEnvPrefix = "CAREBOOK_CLIENT_"
)

// Token store backends.
const (
	TokenStorePostgres = "postgres"
	TokenStoreRedis    = "redis"
)

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `koanf:"addr" validate:"required,hostname_port"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `koanf:"database_dsn" validate:"required"`

	// Config is the path to the config file.
	Config string `koanf:"-"`

	LogLevel string `koanf:"log_level" validate:"required"`
	LogFile  string `koanf:"log_file"`

	// TokenStore selects where session tokens live.
	TokenStore string `koanf:"token_store" validate:"oneof=postgres redis"`
	RedisAddr  string `koanf:"redis_addr" validate:"required_if=TokenStore redis"`

	// RedisPassword is read from the file or environment only.
	RedisPassword string `koanf:"redis_password"`

	TokenTTL        time.Duration `koanf:"token_ttl" validate:"gt=0"`
	CleanupInterval time.Duration `koanf:"cleanup_interval" validate:"gt=0"`

	// TLS is enabled when both files are set.
	TLSCert string `koanf:"tls_cert" validate:"required_with=TLSKey"`
	TLSKey  string `koanf:"tls_key" validate:"required_with=TLSCert"`
}

// TLS reports whether the server should serve HTTPS.
func (o *Options) TLS() bool { return o.TLSCert != "" && o.TLSKey != "" }

// ClientOptions holds the configuration values for the interactive client.
type ClientOptions struct {
	BaseURL     string        `koanf:"url" validate:"required,url"`
	SessionFile string        `koanf:"session_file" validate:"required"`
	CAFile      string        `koanf:"ca_file"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	LogLevel    string        `koanf:"log_level" validate:"required"`
	LogFile     string        `koanf:"log_file"`

	Config string `koanf:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse parses args (without the program name) into server Options.
func Parse(args []string) (*Options, error) {
	opts := &Options{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&opts.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&opts.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&opts.Config, "config", "config.yaml", "path to config file")
	fs.StringVar(&opts.Config, "c", "config.yaml", "path to config file (shorthand)")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&opts.LogFile, "log-file", "", "also write JSON logs to this file")
	fs.StringVar(&opts.TokenStore, "token-store", TokenStorePostgres, "session token backend: postgres | redis")
	fs.StringVar(&opts.RedisAddr, "redis", "", "redis address (host:port)")
	fs.DurationVar(&opts.TokenTTL, "token-ttl", 30*24*time.Hour, "session token lifetime")
	fs.DurationVar(&opts.CleanupInterval, "cleanup-interval", time.Hour, "expired token cleanup interval")
	fs.StringVar(&opts.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&opts.TLSKey, "tls-key", "", "TLS key file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := load(opts.Config, ServerEnvPrefix, opts); err != nil {
		return nil, err
	}
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	return opts, nil
}

// ParseClient parses args (without the program name) into ClientOptions.
func ParseClient(args []string) (*ClientOptions, error) {
	opts := &ClientOptions{}
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&opts.BaseURL, "url", "http://localhost:8080", "server base URL")
	fs.StringVar(&opts.SessionFile, "session", defaultSessionFile(), "credential store file")
	fs.StringVar(&opts.CAFile, "ca", "", "path to CA cert for an HTTPS server")
	fs.DurationVar(&opts.Timeout, "timeout", 15*time.Second, "request timeout")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&opts.LogFile, "log-file", "carebook.log", "client log file")
	fs.StringVar(&opts.Config, "config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := load(opts.Config, ClientEnvPrefix, opts); err != nil {
		return nil, err
	}
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	return opts, nil
}

// load overlays the config file and the environment onto out. Keys absent
// from both keep the flag values already in out.
func load(path, prefix string, out any) error {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if p := os.Getenv(prefix + "CONFIG"); p != "" {
		path = p
	}

	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(prefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, prefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}

	if err := k.Unmarshal("", out); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(dir, "carebook", "session.json")
}
