// Package config provides application configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with built-in validation for production and development environments.
// Sections cover the HTTP server, the session store backend, editing sessions,
// security, CORS, rate limiting, logging and the CMS link set used by the
// notice templates.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config holds all application configuration / Contient toute la configuration de l'application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Environment string            `mapstructure:"environment"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Backup      BackupConfig      `mapstructure:"backup"`
	Session     SessionConfig     `mapstructure:"session"`
	Security    SecurityConfig    `mapstructure:"security"`
	Cors        CorsConfig        `mapstructure:"cors"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	CMS         domain.LinkSet    `mapstructure:"cms"`
}

// ServerConfig holds server configuration / Configuration serveur
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // Per-request handler deadline
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`  // Limit on form and JSON bodies
	BaseURL        string        `mapstructure:"base_url"`
}

// DatabaseConfig holds session store backend configuration / Configuration du backend de sessions
type DatabaseConfig struct {
	Type           string `mapstructure:"type"`            // "memory", "sqlite", "mysql" or "postgres"
	DSN            string `mapstructure:"dsn"`             // Data Source Name, unused for memory
	MigrationsPath string `mapstructure:"migrations_path"` // Migrations on disk; empty uses the embedded schema
	MaxOpenConns   int    `mapstructure:"max_open_conns"`  // Maximum number of open connections (default: 25)
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`  // Maximum number of idle connections (default: 5)
}

// BackupConfig holds database backup configuration / Configuration des sauvegardes de la base de données
type BackupConfig struct {
	Enabled       bool          `mapstructure:"enabled"`        // Enable automatic backups (sqlite only) / Active les sauvegardes automatiques
	Interval      time.Duration `mapstructure:"interval"`       // Backup interval (default: 24h) / Intervalle de sauvegarde
	Path          string        `mapstructure:"path"`           // Directory to store backups / Répertoire de stockage
	RetentionDays int           `mapstructure:"retention_days"` // Number of days to keep backups / Nombre de jours de rétention
}

// SessionConfig holds editing session and cookie configuration / Configuration des sessions d'édition
type SessionConfig struct {
	Secret        string        `mapstructure:"secret" masq:"secret"` // HMAC key of the session cookie, ≥32 bytes
	TTL           time.Duration `mapstructure:"ttl"`                  // Idle lifetime of a draft
	PurgeInterval time.Duration `mapstructure:"purge_interval"`       // How often expired drafts are removed
	CookieName    string        `mapstructure:"cookie_name"`
	CookiePath    string        `mapstructure:"cookie_path"`
	CookieDomain  string        `mapstructure:"cookie_domain"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`
}

// SecurityConfig holds security settings / Paramètres de sécurité
type SecurityConfig struct {
	EditorUser         string   `mapstructure:"editor_user"`                        // Basic auth user name of the editor gate
	EditorPasswordHash string   `mapstructure:"editor_password_hash" masq:"secret"` // bcrypt hash; empty disables the gate
	CSRFCookieName     string   `mapstructure:"csrf_cookie_name"`
	TrustedProxies     []string `mapstructure:"trusted_proxies"`
}

// EditorAuthEnabled reports whether the editor gate is on / Indique si l'accès éditeur est protégé
func (s SecurityConfig) EditorAuthEnabled() bool {
	return s.EditorPasswordHash != ""
}

// CorsConfig holds CORS configuration for the JSON API / Configuration CORS de l'API JSON
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

// RateLimiterConfig holds rate limiter configuration / Configuration limiteur de débit
type RateLimiterConfig struct {
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
	Enabled bool    `mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration / Configuration logging
type LoggingConfig struct {
	Level         string            `mapstructure:"level"`
	Format        string            `mapstructure:"format"`
	LokiEnabled   bool              `mapstructure:"loki_enabled"`
	LokiURL       string            `mapstructure:"loki_url"`
	LokiLabels    map[string]string `mapstructure:"loki_labels"`
	LokiBatchSize int               `mapstructure:"loki_batch_size"`
}

// IsProduction checks if environment is production / Vérifie si l'environnement est production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment checks if environment is development / Vérifie si l'environnement est development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig loads configuration from YAML and env vars / Charge la config depuis YAML et variables d'env
func LoadConfig() (*Config, error) {
	return Load(".")
}

// Load reads config.yaml from the given directories / Lit config.yaml depuis les répertoires donnés
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	v.BindEnv("session.secret", "SESSION_SECRET")
	v.BindEnv("database.dsn", "DATABASE_DSN")
	v.BindEnv("security.editor_password_hash", "EDITOR_PASSWORD_HASH")

	var cfg Config
	err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return nil, err
	}

	// Validation
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "15s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("environment", "development")

	// Nothing durable by default
	v.SetDefault("database.type", "memory")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.migrations_path", "")

	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", "2h")
	v.SetDefault("session.purge_interval", "10m")
	v.SetDefault("session.cookie_name", "noticegen_session")
	v.SetDefault("session.cookie_path", "/")
	v.SetDefault("session.cookie_domain", "")
	v.SetDefault("session.cookie_secure", false)

	v.SetDefault("security.editor_user", "editor")
	v.SetDefault("security.editor_password_hash", "")
	v.SetDefault("security.csrf_cookie_name", "noticegen_csrf")
	v.SetDefault("security.trusted_proxies", []string{}) // Empty by default - don't trust proxy headers unless explicitly configured

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:8080"})
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("rate_limiter.rps", 10)
	v.SetDefault("rate_limiter.burst", 20)
	v.SetDefault("rate_limiter.enabled", true)

	// Backup defaults
	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.interval", "24h")
	v.SetDefault("backup.path", "./backups")
	v.SetDefault("backup.retention_days", 7)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.loki_enabled", false)
	v.SetDefault("logging.loki_url", "http://localhost:3100")
	v.SetDefault("logging.loki_labels", map[string]string{
		"app":         "noticegen",
		"environment": "development",
	})
	v.SetDefault("logging.loki_batch_size", 10)

	links := domain.DefaultLinks()
	v.SetDefault("cms.client_service_centre.uuid", links.ClientServiceCentre.UUID)
	v.SetDefault("cms.client_service_centre.href", links.ClientServiceCentre.Href)
	v.SetDefault("cms.correspondence_procedures.uuid", links.CorrespondenceProcedures.UUID)
	v.SetDefault("cms.correspondence_procedures.href", links.CorrespondenceProcedures.Href)
	v.SetDefault("cms.alert_link.uuid", links.AlertTarget.UUID)
	v.SetDefault("cms.alert_link.href", links.AlertTarget.Href)
}

// Validate validates configuration / Valide la configuration
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateSession(); err != nil {
		return err
	}

	if err := c.validateRateLimiter(); err != nil {
		return err
	}

	if err := c.validateCMS(); err != nil {
		return err
	}

	return nil
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes must not be negative")
	}
	return nil
}

// validateDatabase validates database configuration
func (c *Config) validateDatabase() error {
	validDBTypes := []string{"memory", "sqlite", "sqlite3", "mysql", "postgres", "postgresql", ""}
	dbType := strings.ToLower(c.Database.Type)

	if !slices.Contains(validDBTypes, dbType) {
		return errors.New("database.type must be one of: memory, sqlite, mysql, postgres")
	}

	if dbType != "" && dbType != "memory" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for %s", dbType)
	}

	if c.Backup.Enabled && !strings.HasPrefix(dbType, "sqlite") {
		return errors.New("backup.enabled is only supported with sqlite")
	}

	if c.Backup.Enabled && c.Backup.Interval <= 0 {
		return errors.New("backup.interval must be positive when backup is enabled")
	}

	return nil
}

// validateSession validates session cookie and lifetime settings
func (c *Config) validateSession() error {
	if c.Session.Secret != "" && len(c.Session.Secret) < 32 {
		return errors.New("session.secret must be ≥32 chars")
	}

	// Production-specific session validation
	if c.IsProduction() {
		if c.Session.Secret == "" {
			return errors.New("session.secret is required in production - set SESSION_SECRET environment variable")
		}
		if !c.Session.CookieSecure {
			return errors.New("session.cookie_secure must be true in production")
		}
	}

	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}

	if c.Session.PurgeInterval <= 0 {
		return errors.New("session.purge_interval must be positive")
	}

	if c.Session.CookieName == "" {
		return errors.New("session.cookie_name is required")
	}

	return nil
}

// validateRateLimiter validates rate limiter configuration
func (c *Config) validateRateLimiter() error {
	if !c.RateLimiter.Enabled {
		return nil
	}

	if c.RateLimiter.RPS <= 0 {
		return errors.New("rate_limiter.rps must be positive when enabled")
	}

	if c.RateLimiter.Burst <= 0 {
		return errors.New("rate_limiter.burst must be positive when enabled")
	}

	return nil
}

// validateCMS validates the link set used by the notice templates
func (c *Config) validateCMS() error {
	return c.CMS.Validate()
}
