package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apierrors "energydash/internal/errors"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "ENERGYDASH"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Auth      AuthConfig      `yaml:"auth" envconfig:"AUTH"`
	Sources   []SourceConfig  `yaml:"sources" ignored:"true"`
	Sites     SitesConfig     `yaml:"sites" envconfig:"SITES"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Influx    InfluxConfig    `yaml:"influx" envconfig:"INFLUX"`
	Kafka     KafkaConfig     `yaml:"kafka" envconfig:"KAFKA"`
	OTel      OTelConfig      `yaml:"otel" envconfig:"OTEL"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ExportDir     string `yaml:"export_dir" envconfig:"EXPORT_DIR"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// AuthConfig holds the dashboard access gate. The credential pair is a
// placeholder compared verbatim; SettingsFile, when set, supplies it.
type AuthConfig struct {
	Enabled      bool   `yaml:"enabled" envconfig:"ENABLED"`
	Username     string `yaml:"username" envconfig:"USERNAME"`
	Password     string `yaml:"password" envconfig:"PASSWORD"`
	SettingsFile string `yaml:"settings_file" envconfig:"SETTINGS_FILE"`
	CookieName   string `yaml:"cookie_name" envconfig:"COOKIE_NAME"`
}

// SitesConfig maps opaque equipment codes and site aliases to canonical sites.
type SitesConfig struct {
	Codes   map[string]string `yaml:"codes" envconfig:"CODES"`
	Aliases map[string]string `yaml:"aliases" envconfig:"ALIASES"`
}

// PipelineConfig holds ingestion and aggregation policies.
type PipelineConfig struct {
	WeekPolicy       string   `yaml:"week_policy" envconfig:"WEEK_POLICY"`
	Years            []int    `yaml:"years" envconfig:"YEARS"`
	ExcludedMachines []string `yaml:"excluded_machines" envconfig:"EXCLUDED_MACHINES"`
	ClipOutliers     bool     `yaml:"clip_outliers" envconfig:"CLIP_OUTLIERS"`
	LoadConcurrency  int      `yaml:"load_concurrency" envconfig:"LOAD_CONCURRENCY"`
}

// SheetsConfig configures access to Google Sheets sources.
type SheetsConfig struct {
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// InfluxConfig configures the InfluxDB record sink.
type InfluxConfig struct {
	Enabled     bool   `yaml:"enabled" envconfig:"ENABLED"`
	URL         string `yaml:"url" envconfig:"URL"`
	Token       string `yaml:"token" envconfig:"TOKEN"`
	Org         string `yaml:"org" envconfig:"ORG"`
	Bucket      string `yaml:"bucket" envconfig:"BUCKET"`
	Measurement string `yaml:"measurement" envconfig:"MEASUREMENT"`
}

// KafkaConfig configures the Kafka event publisher.
type KafkaConfig struct {
	Enabled  bool     `yaml:"enabled" envconfig:"ENABLED"`
	Brokers  []string `yaml:"brokers" envconfig:"BROKERS"`
	Topic    string   `yaml:"topic" envconfig:"TOPIC"`
	ClientID string   `yaml:"client_id" envconfig:"CLIENT_ID"`
}

// OTelConfig configures tracing and metrics.
type OTelConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load loads configuration from defaults, the first config file found and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file path. An empty path skips the file.
func LoadFile(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(configFile); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if cfg.Auth.SettingsFile != "" {
		if err := cfg.Auth.loadSettings(); err != nil {
			return nil, fmt.Errorf("failed to load auth settings: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, apierrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// authSettings is the layout of the standalone credential file.
type authSettings struct {
	Auth struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"auth"`
}

func (a *AuthConfig) loadSettings() error {
	data, err := os.ReadFile(a.SettingsFile)
	if err != nil {
		return err
	}
	var s authSettings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return err
	}
	if s.Auth.Username != "" {
		a.Username = s.Auth.Username
	}
	if s.Auth.Password != "" {
		a.Password = s.Auth.Password
	}
	return nil
}

// resolvePaths anchors relative paths on the config file directory, or on
// the executable directory when no file was used.
func (c *Config) resolvePaths(configFile string) error {
	base := c.Paths.ExecutableDir
	if base == "" {
		if configFile != "" {
			abs, err := filepath.Abs(filepath.Dir(configFile))
			if err != nil {
				return err
			}
			base = abs
		} else {
			dir, err := executableDir()
			if err != nil {
				return err
			}
			base = dir
		}
		c.Paths.ExecutableDir = base
	}

	c.Paths.DataDir = anchor(base, c.Paths.DataDir)
	c.Paths.ExportDir = anchor(base, c.Paths.ExportDir)
	c.Paths.LogsDir = anchor(base, c.Paths.LogsDir)
	if c.Auth.SettingsFile != "" {
		c.Auth.SettingsFile = anchor(base, c.Auth.SettingsFile)
	}
	if c.Sheets.CredentialsFile != "" {
		c.Sheets.CredentialsFile = anchor(base, c.Sheets.CredentialsFile)
	}
	for i := range c.Sources {
		if c.Sources[i].Path != "" {
			c.Sources[i].Path = anchor(c.Paths.DataDir, c.Sources[i].Path)
		}
	}
	return nil
}

func anchor(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	switch strings.ToLower(c.Pipeline.WeekPolicy) {
	case "", "iso", "calendar":
	default:
		return fmt.Errorf("unknown week policy %q", c.Pipeline.WeekPolicy)
	}

	if c.Pipeline.LoadConcurrency <= 0 {
		c.Pipeline.LoadConcurrency = 1
	}

	if c.Auth.Enabled && c.Auth.Password == "" {
		return fmt.Errorf("auth is enabled but no password is configured")
	}

	seen := make(map[string]bool)
	for i, src := range c.Sources {
		if err := src.validate(); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name %q", src.Name)
		}
		seen[src.Name] = true
	}

	if c.Influx.Enabled && (c.Influx.URL == "" || c.Influx.Bucket == "") {
		return fmt.Errorf("influx is enabled but url or bucket is missing")
	}

	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka is enabled but brokers or topic is missing")
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/energydash.log",
		},
		Paths: PathsConfig{
			DataDir:   "data",
			ExportDir: "exports",
			LogsDir:   "logs",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
		Auth: AuthConfig{
			CookieName: "energydash_session",
		},
		Sites: SitesConfig{
			Codes: map[string]string{
				"GI153881": "PTWE89",
				"GI087131": "PTWE35",
				"GI060319": "PTWE42",
			},
			Aliases: map[string]string{
				"PTWE42 Andrézieux": "PTWE42",
			},
		},
		Pipeline: PipelineConfig{
			WeekPolicy:       "iso",
			ExcludedMachines: []string{"F4B,"},
			LoadConcurrency:  4,
		},
		Influx: InfluxConfig{
			URL:         "http://localhost:8086",
			Measurement: "energy_consumption",
		},
		Kafka: KafkaConfig{
			Topic:    "energydash.events",
			ClientID: "energydash",
		},
		OTel: OTelConfig{
			ServiceName:    "energydash",
			Environment:    "development",
			TracingEnabled: false,
			MetricsEnabled: true,
		},
	}
}
