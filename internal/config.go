package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/nuage/internal/kv"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Auth    AuthConfig        `yaml:"auth"`
	Assets  AssetsConfig      `yaml:"assets"`
	Widget  WidgetConfig      `yaml:"widget"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Assets.Validate(); err != nil {
		return fmt.Errorf("assets: %w", err)
	}
	return c.Widget.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the key-value backend holding the note collection.
type StorageConfig struct {
	Driver string      `yaml:"driver"`
	Dir    string      `yaml:"dir"`
	Path   string      `yaml:"path"`
	Redis  RedisConfig `yaml:"redis"`
}

// Validate checks the driver and the fields that driver needs.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(kv.DriverFS, kv.DriverSQLite, kv.DriverRedis, kv.DriverMemory)),
		validation.Field(&c.Dir, validation.When(c.Driver == kv.DriverFS, validation.Required)),
		validation.Field(&c.Path, validation.When(c.Driver == kv.DriverSQLite, validation.Required)),
		validation.Field(&c.Redis, validation.Skip.When(c.Driver != kv.DriverRedis)),
	)
}

// Options converts the config into kv.Open options.
func (c *StorageConfig) Options() kv.Options {
	return kv.Options{
		Driver: c.Driver,
		Dir:    c.Dir,
		Path:   c.Path,
		Redis: kv.RedisOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Redis.Prefix,
		},
	}
}

// RedisConfig holds the redis backend connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Validate validates the redis configuration.
func (c RedisConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DB, validation.Min(0)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): the API is open, fine on a single device.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// AssetsConfig holds the directory voice recordings are uploaded to.
type AssetsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the assets configuration.
func (c *AssetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// WidgetConfig controls the home-screen refresh feed.
type WidgetConfig struct {
	// Throttle is the minimum gap between two widget.refresh events.
	Throttle time.Duration `yaml:"throttle"`
	// Debounce is how long the fs watcher waits for a file to settle.
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the widget configuration.
func (c *WidgetConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: kv.DriverFS,
			Dir:    "./data",
			Path:   "./nuage.db",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "nuage:",
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Assets: AssetsConfig{
			Path: "./data/assets",
		},
		Widget: WidgetConfig{
			Throttle: 2 * time.Second,
			Debounce: 200 * time.Millisecond,
		},
	}
}
