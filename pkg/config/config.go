package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5"`
	Environment               string        `koanf:"environment" default:"production"`
	JWTSecret                 string        `koanf:"jwt_secret" required:"true"`
	ServerHost                string        `koanf:"server_host" default:"0.0.0.0"`
	ServerPort                int           `koanf:"server_port" default:"8000"`

	// Catalog behaviour.
	BooksPageSize       int           `koanf:"books_page_size" default:"2"`
	LoansPageSize       int           `koanf:"loans_page_size" default:"10"`
	RenewalDefaultWeeks int           `koanf:"renewal_default_weeks" default:"3"`
	RenewalMaxWeeks     int           `koanf:"renewal_max_weeks" default:"4"`
	SessionMaxAge       time.Duration `koanf:"session_max_age" default:"336h"`

	// Login attempts per second per client IP, and the burst allowed on top.
	LoginRateLimit float64 `koanf:"login_rate_limit" default:"5"`
	LoginRateBurst int     `koanf:"login_rate_burst" default:"10"`
}

// EnvironmentTest enables the fixture routes under /test.
const EnvironmentTest = "test"

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/catalog.yaml"
)

// New loads the config from defaults, then the YAML config file, then
// environment variables, each layer overriding the previous one.
func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
		}
	}

	keys := configKeys()
	envProvider := env.ProviderWithValue("", "", func(key, value string) (string, interface{}) {
		key = strings.ToLower(key)
		if _, ok := keys[key]; !ok || value == "" {
			return "", nil
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := validateRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config suitable for tests, backed by an in-memory
// database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.DatabaseConnectRetryCount = 1
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	cfg.Environment = EnvironmentTest
	return cfg
}

// RenewalDefault is how far out a renewal is proposed when none is given.
func (cfg *Config) RenewalDefault() time.Duration {
	return time.Duration(cfg.RenewalDefaultWeeks) * 7 * 24 * time.Hour
}

// RenewalMax is the furthest a due date may be set from today.
func (cfg *Config) RenewalMax() time.Duration {
	return time.Duration(cfg.RenewalMaxWeeks) * 7 * 24 * time.Hour
}

func configKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		keys[fileKey(t.Field(i))] = struct{}{}
	}
	return keys
}

func validateRequired(cfg *Config) error {
	var missing []string
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("required") != "true" {
			continue
		}
		if v.Field(i).IsZero() {
			key := fileKey(field)
			missing = append(missing, strings.ToUpper(key)+" (env) / "+key+" (file)")
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func fileKey(field reflect.StructField) string {
	if tag := field.Tag.Get("koanf"); tag != "" {
		return tag
	}
	return toSnakeCase(field.Name)
}

func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}
