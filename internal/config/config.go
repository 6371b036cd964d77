// Package config loads application settings from YAML and the environment.
package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Session  SessionConfig  `yaml:"session"`
	Import   ImportConfig   `yaml:"import"`
	OIDC     OIDCConfig     `yaml:"oidc"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"ADDR"                    env-default:":3000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds storage settings. Driver "memory" keeps everything
// in process and ignores the remaining fields.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"            env:"DATABASE_DRIVER"            env-default:"postgres"`
	URL             string        `yaml:"url"               env:"DATABASE_URL"`
	MaxOpenConns    int           `yaml:"max_open_conns"    env:"DATABASE_MAX_OPEN_CONNS"    env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns"    env:"DATABASE_MAX_IDLE_CONNS"    env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME" env-default:"5m"`
	QueryTimeout    time.Duration `yaml:"query_timeout"     env:"DATABASE_QUERY_TIMEOUT"     env-default:"5s"`
}

// AuthConfig holds password hashing settings.
type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST" env-default:"10"`
}

// SessionConfig holds session cookie and registry settings. A zero TTL
// means sessions live until logout or restart.
type SessionConfig struct {
	CookieName    string        `yaml:"cookie_name"    env:"SESSION_COOKIE_NAME"    env-default:"session_id"`
	Secret        string        `yaml:"secret"         env:"SESSION_SECRET"`
	Secure        bool          `yaml:"secure"         env:"SESSION_SECURE"         env-default:"false"`
	TTL           time.Duration `yaml:"ttl"            env:"SESSION_TTL"            env-default:"0s"`
	PurgeInterval time.Duration `yaml:"purge_interval" env:"SESSION_PURGE_INTERVAL" env-default:"10m"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"IMPORT_MAX_UPLOAD_BYTES" env-default:"10485760"`
}

// OIDCConfig holds optional single sign-on settings.
type OIDCConfig struct {
	Issuer       string `yaml:"issuer"        env:"OIDC_ISSUER"`
	ClientID     string `yaml:"client_id"     env:"OIDC_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"OIDC_CLIENT_SECRET"`
	RedirectURL  string `yaml:"redirect_url"  env:"OIDC_REDIRECT_URL"`
}

// Enabled reports whether every OIDC setting is present.
func (c OIDCConfig) Enabled() bool {
	return c.Issuer != "" && c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}
