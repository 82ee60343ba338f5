// Package config loads configuration for the favorites API and the guide CLI.
//
// Precedence, highest first:
//  1. Environment variables (SERVER_PORT, DATABASE_HOST, PLACES_API_KEY, ...)
//  2. YAML file named by LOCAL_GUIDE_CONFIG (or passed to Load)
//  3. Defaults
//
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// PathEnv names the environment variable holding the YAML config path.
const PathEnv = "LOCAL_GUIDE_CONFIG"

const maxConfigFileSize = 1024 * 1024

// envSections are the top-level keys environment variables may override.
var envSections = map[string]struct{}{
	"server": {}, "database": {}, "auth": {}, "observability": {},
	"places": {}, "guide": {}, "log": {},
}

type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Auth          AuthConfig          `koanf:"auth"`
	Observability ObservabilityConfig `koanf:"observability"`
	Places        PlacesConfig        `koanf:"places"`
	Guide         GuideConfig         `koanf:"guide"`
	Log           LogConfig           `koanf:"log"`
}

type ServerConfig struct {
	Host               string        `koanf:"host"`
	Port               int           `koanf:"port"`
	ReadTimeout        time.Duration `koanf:"read_timeout"`
	WriteTimeout       time.Duration `koanf:"write_timeout"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout"`
	RateLimitPerSecond int           `koanf:"rate_limit_per_second"`
	RateLimitBurst     int           `koanf:"rate_limit_burst"`
	AllowedOrigins     []string      `koanf:"allowed_origins"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"ssl_mode"`
	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
}

// DSN returns URL when set, otherwise a postgres URL built from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

type AuthConfig struct {
	JWTSecret     string `koanf:"jwt_secret"`
	SessionSecret string `koanf:"session_secret"`
	SessionName   string `koanf:"session_name"`
	// Token is the bearer credential the CLI sends to the favorites API.
	Token string `koanf:"token"`
}

type ObservabilityConfig struct {
	MetricsEnabled bool   `koanf:"metrics_enabled"`
	ServiceName    string `koanf:"service_name"`
}

type PlacesConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	PhotoMaxWidth     int           `koanf:"photo_max_width"`
	LanguageCode      string        `koanf:"language_code"`
}

type GuideConfig struct {
	DataPath            string        `koanf:"data_path"`
	FavoritesURL        string        `koanf:"favorites_url"`
	FavoritesTimeout    time.Duration `koanf:"favorites_timeout"`
	NearbyTTL           time.Duration `koanf:"nearby_ttl"`
	SearchTTL           time.Duration `koanf:"search_ttl"`
	MinDiscoverInterval time.Duration `koanf:"min_discover_interval"`
	MaxResults          int           `koanf:"max_results"`
	MinQueryLength      int           `koanf:"min_query_length"`
	MoveThresholdKm     float64       `koanf:"move_threshold_km"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads configuration. An empty path falls back to $LOCAL_GUIDE_CONFIG;
// when neither is set only the environment and defaults apply.
func Load(path string) (*Config, error) {
	// optional
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(PathEnv)
	}

	k := koanf.New(".")
	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// envKey maps SECTION_FIELD_NAME to section.field_name. Variables outside the
// known sections are dropped.
func envKey(s string) string {
	parts := strings.SplitN(strings.ToLower(s), "_", 2)
	if len(parts) != 2 {
		return ""
	}
	if _, ok := envSections[parts[0]]; !ok {
		return ""
	}
	return parts[0] + "." + parts[1]
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:8081"}
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "local_guide"
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 25
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = 5
	}
	if cfg.Database.MaxConnLifetime == 0 {
		cfg.Database.MaxConnLifetime = 5 * time.Minute
	}
	if cfg.Database.MaxConnIdleTime == 0 {
		cfg.Database.MaxConnIdleTime = 10 * time.Minute
	}

	if cfg.Auth.SessionName == "" {
		cfg.Auth.SessionName = "local_guide_session"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "local-guide"
	}

	if cfg.Places.Timeout == 0 {
		cfg.Places.Timeout = 15 * time.Second
	}
	if cfg.Places.PhotoMaxWidth == 0 {
		cfg.Places.PhotoMaxWidth = 800
	}

	if cfg.Guide.DataPath == "" {
		cfg.Guide.DataPath = defaultDataPath()
	}
	if cfg.Guide.FavoritesTimeout == 0 {
		cfg.Guide.FavoritesTimeout = 15 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func defaultDataPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "local_guide.db"
	}
	return dir + string(os.PathSeparator) + "local-guide" + string(os.PathSeparator) + "guide.db"
}

// Validate checks ranges and enumerations. Secrets are checked where they are used.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.RateLimitPerSecond < 0 || c.Server.RateLimitBurst < 0 {
		errs = append(errs, errors.New("server rate limit must not be negative"))
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, fmt.Errorf("database.min_conns %d exceeds max_conns %d", c.Database.MinConns, c.Database.MaxConns))
	}
	if c.Places.RequestsPerSecond < 0 || c.Places.Burst < 0 {
		errs = append(errs, errors.New("places rate limit must not be negative"))
	}
	if c.Guide.FavoritesURL != "" {
		if u, err := url.Parse(c.Guide.FavoritesURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("guide.favorites_url %q is not an absolute URL", c.Guide.FavoritesURL))
		}
	}
	if c.Guide.MoveThresholdKm < 0 {
		errs = append(errs, errors.New("guide.move_threshold_km must not be negative"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Leveler maps the configured level name to a slog level.
func (l LogConfig) Leveler() slog.Leveler {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.Leveler()}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
