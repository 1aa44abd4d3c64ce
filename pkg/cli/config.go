package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".execlive"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
	// DefaultPersonasFile holds persona overrides next to the config
	DefaultPersonasFile = "personas.yaml"
)

// Config is the on-disk configuration of a CLI app: a set of named
// contexts and the one currently in use.
type Config struct {
	// AppName is the application name (e.g., "execlive")
	AppName string `yaml:"-"`

	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context holds the settings for one assistant setup. Fields tagged env
// can be overridden from the environment, see ApplyEnv.
type Context struct {
	Name string `yaml:"name"`

	// APIKey authenticates against the Live API.
	APIKey string `yaml:"api_key,omitempty" env:"EXECLIVE_API_KEY"`

	// BaseURL overrides the Live API endpoint.
	BaseURL string `yaml:"base_url,omitempty" env:"EXECLIVE_BASE_URL"`

	// Model is the native-audio Live model.
	Model string `yaml:"model,omitempty" env:"EXECLIVE_MODEL"`

	// Persona is the id of the persona to start with.
	Persona string `yaml:"persona,omitempty" env:"EXECLIVE_PERSONA"`

	// Voice overrides the persona's voice.
	Voice string `yaml:"voice,omitempty" env:"EXECLIVE_VOICE"`

	// FeedAddr is the listen address of the canvas feed. Empty disables it.
	FeedAddr string `yaml:"feed_addr,omitempty" env:"EXECLIVE_FEED_ADDR"`

	// TimeZone is the IANA zone reported to the model. Empty means local.
	TimeZone string `yaml:"time_zone,omitempty" env:"EXECLIVE_TIME_ZONE"`

	// MaxRetries is the number of extra connect attempts.
	MaxRetries int `yaml:"max_retries,omitempty" env:"EXECLIVE_MAX_RETRIES"`
}

// apiKeys are the conventional Gemini key variables.
type apiKeys struct {
	Gemini string `env:"GEMINI_API_KEY"`
	Google string `env:"GOOGLE_API_KEY"`
}

// ApplyEnv overlays environment variables on ctx. GEMINI_API_KEY, then
// GOOGLE_API_KEY, replace the stored key; EXECLIVE_* variables win over
// both. Unset variables leave fields untouched.
func (ctx *Context) ApplyEnv() error {
	keys, err := env.ParseAs[apiKeys]()
	if err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	switch {
	case keys.Gemini != "":
		ctx.APIKey = keys.Gemini
	case keys.Google != "":
		ctx.APIKey = keys.Google
	}
	if err := env.Parse(ctx); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Location loads TimeZone, falling back to time.Local when unset.
func (ctx *Context) Location() (*time.Location, error) {
	if ctx.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(ctx.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time_zone %q: %w", ctx.TimeZone, err)
	}
	return loc, nil
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		paths, err := NewPaths(appName)
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = paths.ConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// PersonasFile returns the persona override file next to the config.
func (c *Config) PersonasFile() string {
	return filepath.Join(c.Dir(), DefaultPersonasFile)
}

// AddContext adds or replaces a context
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// ResolveContext returns a copy of the named context, or of the current
// one when name is empty, with the environment applied. Without a name or
// current context the copy starts empty, so the assistant can run from
// environment variables alone.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		name = c.CurrentContext
	}
	resolved := &Context{Name: name}
	if name != "" {
		stored, err := c.GetContext(name)
		if err != nil {
			return nil, err
		}
		*resolved = *stored
	}
	if err := resolved.ApplyEnv(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// ListContexts returns all context names, sorted
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// MaskAPIKey masks the API key for display
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
