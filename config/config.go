package config

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings. Scalar settings come from the
// environment (with defaults); the provider list and tracked locations come
// from the YAML file only, since lists are awkward to express in env vars.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Weather WeatherConfig `yaml:"weather"`
	Report  ReportConfig  `yaml:"report"`
}

type AppConfig struct {
	Name    string `envconfig:"APP_NAME" default:"weather-ensemble"`
	Version string `envconfig:"APP_VERSION" default:"1.0.0"`
	Env     string `envconfig:"APP_ENV" default:"development"`
}

type ServerConfig struct {
	Port         string `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout  int    `envconfig:"SERVER_READ_TIMEOUT" default:"10"`
	WriteTimeout int    `envconfig:"SERVER_WRITE_TIMEOUT" default:"10"`
	IdleTimeout  int    `envconfig:"SERVER_IDLE_TIMEOUT" default:"120"`
}

type LogConfig struct {
	Level     string `envconfig:"LOG_LEVEL" default:"info"`
	Format    string `envconfig:"LOG_FORMAT" default:"json"`
	SentryDSN string `envconfig:"SENTRY_DSN"`
}

type WeatherConfig struct {
	// APIs lists the enabled providers. A provider whose API key is missing
	// is skipped at wiring time, not a startup failure.
	APIs []WeatherAPIConfig `yaml:"apis"`

	// Locations are warm-refreshed periodically by the scheduler.
	Locations []string `yaml:"locations"`

	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"10s"`
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	CacheCapacity   int           `envconfig:"CACHE_CAPACITY" default:"256"`
	SweepInterval   time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"5m"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"30m"`
}

type WeatherAPIConfig struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

type ReportConfig struct {
	// BackendURL points at the text-generation backend. Empty means the
	// deterministic template is always used.
	BackendURL string        `envconfig:"REPORT_BACKEND_URL"`
	Model      string        `envconfig:"REPORT_MODEL" default:"llama3"`
	Timeout    time.Duration `envconfig:"REPORT_TIMEOUT" default:"20s"`
}

// ConfigProvider abstracts where the YAML document comes from so tests can
// point at a nonexistent or in-memory source.
type ConfigProvider interface {
	Read() ([]byte, error)
}

type FileConfigProvider struct {
	path string
}

func NewFileConfigProvider(path string) *FileConfigProvider {
	return &FileConfigProvider{path: path}
}

func (p *FileConfigProvider) Read() ([]byte, error) {
	return os.ReadFile(p.path)
}

// NewConfigWithProvider builds the config from the given YAML source, then
// applies environment overrides. A missing YAML source is not an error.
func NewConfigWithProvider(provider ConfigProvider) (*Config, error) {
	var cnf Config

	if yamlData, err := provider.Read(); err == nil {
		if err := yaml.Unmarshal(yamlData, &cnf); err != nil {
			return nil, errors.Wrap(err, "parse YAML config")
		}
	}

	if err := envconfig.Process("", &cnf); err != nil {
		return nil, errors.Wrap(err, "process environment variables")
	}

	return &cnf, nil
}

func NewConfig() (*Config, error) {
	return NewConfigWithProvider(NewFileConfigProvider("config/config.yaml"))
}
