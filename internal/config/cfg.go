package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/Nazarious-ucu/newsletter-api/internal/models"
)

const (
	envPrefix         = "APP"
	configPathEnv     = "APP_CONFIG_FILE"
	defaultConfigPath = "configs.yml"

	defaultHost           = "127.0.0.1"
	defaultReadTimeout    = 10
	defaultRequestTimeout = 10
	defaultScheme         = "postgres"
	defaultMaxOpenConns   = 10
	defaultMaxIdleConns   = 5
	defaultConnectTimeout = 5
	defaultEmailTimeoutMs = 10000
	defaultLogLevel       = "info"
	defaultServiceName    = "newsletter"
)

// ErrInvalidConfig is returned for any settings document that cannot be used to start the service.
var ErrInvalidConfig = errors.New("invalid configuration")

type DatabaseSettings struct {
	Scheme                string `yaml:"scheme" split_words:"true"`
	Username              string `yaml:"username" split_words:"true" validate:"required"`
	Password              string `yaml:"password" split_words:"true"`
	Host                  string `yaml:"host" split_words:"true" validate:"required"`
	Port                  uint16 `yaml:"port" split_words:"true" validate:"required"`
	DatabaseName          string `yaml:"database_name" split_words:"true" validate:"required"`
	SSLMode               string `yaml:"ssl_mode" split_words:"true" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"` //nolint:lll
	MaxOpenConns          int    `yaml:"max_open_conns" split_words:"true" validate:"gte=0"`
	MaxIdleConns          int    `yaml:"max_idle_conns" split_words:"true" validate:"gte=0"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds" split_words:"true" validate:"gte=0"`
}

type EmailClientSettings struct {
	BaseURL             string `yaml:"base_url" split_words:"true" validate:"omitempty,url"`
	SenderEmail         string `yaml:"sender_email" split_words:"true" validate:"required_with=BaseURL"`
	AuthorizationToken  string `yaml:"authorization_token" split_words:"true"`
	TimeoutMilliseconds int    `yaml:"timeout_milliseconds" split_words:"true" validate:"gte=0"`
}

type LogSettings struct {
	Level       string `yaml:"level" split_words:"true" validate:"omitempty,oneof=debug info warn error"`
	FilePath    string `yaml:"file_path" split_words:"true"`
	ServiceName string `yaml:"service_name" split_words:"true"`
}

type Settings struct {
	ApplicationHost       string `yaml:"application_host" split_words:"true"`
	ApplicationPort       uint16 `yaml:"application_port" split_words:"true"`
	ReadTimeoutSeconds    int    `yaml:"read_timeout_seconds" split_words:"true" validate:"gte=0"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds" split_words:"true" validate:"gte=0"`

	Database    DatabaseSettings    `yaml:"database" split_words:"true"`
	EmailClient EmailClientSettings `yaml:"email_client" split_words:"true"`
	Log         LogSettings         `yaml:"log" split_words:"true"`
}

// LoadDotEnv exports the variables in the given .env files (.env by default).
// A missing file is not an error.
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// NewConfig loads the document named by APP_CONFIG_FILE (configs.yml by default).
func NewConfig() (*Settings, error) {
	path := os.Getenv(configPathEnv)
	if path == "" {
		path = defaultConfigPath
	}
	return Load(path)
}

// Load reads a YAML settings document, applies APP_* environment overrides and
// validates the result. Every failure wraps ErrInvalidConfig.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidConfig, path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Settings, error) {
	var s Settings

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidConfig, err)
	}
	if err := requirePresent(data); err != nil {
		return nil, err
	}

	if err := envconfig.Process(envPrefix, &s); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrInvalidConfig, err)
	}

	s.setDefaults()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// presentKeys records which keys without a usable zero value appear in the document.
type presentKeys struct {
	ApplicationPort *uint16 `yaml:"application_port"`
	Database        struct {
		Password *string `yaml:"password"`
	} `yaml:"database"`
}

// requirePresent rejects a document that omits application_port or
// database.password unless the matching APP_* variable supplies it.
// An explicit application_port of 0 asks for an ephemeral port.
func requirePresent(data []byte) error {
	var keys presentKeys
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrInvalidConfig, err)
	}

	var missing []string
	if keys.ApplicationPort == nil && !envSet("APP_APPLICATION_PORT") {
		missing = append(missing, "application_port")
	}
	if keys.Database.Password == nil && !envSet("APP_DATABASE_PASSWORD") {
		missing = append(missing, "database.password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required keys: %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func (s *Settings) setDefaults() {
	if s.ApplicationHost == "" {
		s.ApplicationHost = defaultHost
	}
	if s.ReadTimeoutSeconds == 0 {
		s.ReadTimeoutSeconds = defaultReadTimeout
	}
	if s.RequestTimeoutSeconds == 0 {
		s.RequestTimeoutSeconds = defaultRequestTimeout
	}
	if s.Database.Scheme == "" {
		s.Database.Scheme = defaultScheme
	}
	if s.Database.MaxOpenConns == 0 {
		s.Database.MaxOpenConns = defaultMaxOpenConns
	}
	if s.Database.MaxIdleConns == 0 {
		s.Database.MaxIdleConns = defaultMaxIdleConns
	}
	if s.Database.ConnectTimeoutSeconds == 0 {
		s.Database.ConnectTimeoutSeconds = defaultConnectTimeout
	}
	if s.EmailClient.TimeoutMilliseconds == 0 {
		s.EmailClient.TimeoutMilliseconds = defaultEmailTimeoutMs
	}
	if s.Log.Level == "" {
		s.Log.Level = defaultLogLevel
	}
	if s.Log.ServiceName == "" {
		s.Log.ServiceName = defaultServiceName
	}
}

// Validate checks struct constraints and that a configured sender is a valid address.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if s.EmailClient.Enabled() {
		if _, err := s.EmailClient.Sender(); err != nil {
			return fmt.Errorf("%w: email_client.sender_email: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (s *Settings) ServerAddress() string {
	return net.JoinHostPort(s.ApplicationHost, strconv.Itoa(int(s.ApplicationPort)))
}

func (s *Settings) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// ConnectionString interpolates every field verbatim; values must already be URI-escaped.
func (d DatabaseSettings) ConnectionString() string {
	return fmt.Sprintf("%s/%s", d.ConnectionStringWithoutDatabaseName(), d.DatabaseName)
}

func (d DatabaseSettings) ConnectionStringWithoutDatabaseName() string {
	return fmt.Sprintf("%s://%s:%s@%s:%d", d.Scheme, d.Username, d.Password, d.Host, d.Port)
}

// DSN is the connection string handed to the driver, with sslmode appended when set.
func (d DatabaseSettings) DSN() string {
	return withSSLMode(d.ConnectionString(), d.SSLMode)
}

// ServerDSN is DSN without the database name, for server-level statements like CREATE DATABASE.
func (d DatabaseSettings) ServerDSN() string {
	return withSSLMode(d.ConnectionStringWithoutDatabaseName(), d.SSLMode)
}

func (d DatabaseSettings) ConnectTimeout() time.Duration {
	return time.Duration(d.ConnectTimeoutSeconds) * time.Second
}

func withSSLMode(dsn, mode string) string {
	if mode == "" {
		return dsn
	}
	return dsn + "?sslmode=" + mode
}

func (e EmailClientSettings) Enabled() bool {
	return e.BaseURL != ""
}

func (e EmailClientSettings) Sender() (models.SubscriberEmail, error) {
	return models.ParseSubscriberEmail(e.SenderEmail)
}

func (e EmailClientSettings) Timeout() time.Duration {
	return time.Duration(e.TimeoutMilliseconds) * time.Millisecond
}
