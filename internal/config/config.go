// Package config loads site settings from .env, an optional YAML file and
// FOLIO_* environment variables, in that order of precedence (last wins).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Port     int    `koanf:"port" default:"8080" validate:"min=0,max=65535"`
	// Mode is gin's mode. Debug enables the development admin login, so it
	// has to be asked for.
	Mode     string `koanf:"mode" default:"release" validate:"oneof=debug release test"`
	LogLevel string `koanf:"log_level" default:"info" validate:"oneof=debug info warn error"`
	// LogFile, when set, also writes logs to a rotated file.
	LogFile string `koanf:"log_file"`

	Content ContentConfig `koanf:"content"`
	Mail    MailConfig    `koanf:"mail"`
	DB      DBConfig      `koanf:"db"`
	Admin   AdminConfig   `koanf:"admin"`
	Scroll  ScrollConfig  `koanf:"scroll"`
	Session SessionConfig `koanf:"session"`
}

type ContentConfig struct {
	Provider   string        `koanf:"provider" default:"yaml" validate:"oneof=sanity yaml sqlite"`
	ProjectID  string        `koanf:"project_id" validate:"required_if=Provider sanity"`
	Dataset    string        `koanf:"dataset" default:"production"`
	APIVersion string        `koanf:"api_version" default:"2024-01-01"`
	File       string        `koanf:"file" default:"content.yaml" validate:"required_if=Provider yaml"`
	Timeout    time.Duration `koanf:"timeout" default:"10s"`
}

type MailConfig struct {
	Provider   string        `koanf:"provider" default:"emailjs" validate:"oneof=emailjs smtp"`
	ServiceID  string        `koanf:"service_id"`
	TemplateID string        `koanf:"template_id"`
	PublicKey  string        `koanf:"public_key"`
	PrivateKey string        `koanf:"private_key"`
	Throttle   time.Duration `koanf:"throttle" default:"10s"`
	SMTP       SMTPConfig    `koanf:"smtp"`
}

type SMTPConfig struct {
	Host string `koanf:"host"`
	Port string `koanf:"port"`
	User string `koanf:"user"`
	Pass string `koanf:"pass"`
	To   string `koanf:"to"`
}

type DBConfig struct {
	Path string `koanf:"path" default:"folio.db" validate:"required"`
}

type AdminConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

type ScrollConfig struct {
	Mode      string `koanf:"mode" default:"container" validate:"oneof=window container"`
	Container string `koanf:"container" default:"scroll-root"`
}

type SessionConfig struct {
	MaxIdle time.Duration `koanf:"max_idle" default:"30m"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// envAliases maps the unprefixed names the site has always read (PORT,
// SMTP_*, ADMIN_*, EMAILJS_*) onto config keys.
var envAliases = map[string]string{
	"PORT":                "port",
	"GIN_MODE":            "mode",
	"SMTP_HOST":           "mail.smtp.host",
	"SMTP_PORT":           "mail.smtp.port",
	"SMTP_USER":           "mail.smtp.user",
	"SMTP_PASS":           "mail.smtp.pass",
	"TO_EMAIL":            "mail.smtp.to",
	"ADMIN_USERNAME":      "admin.username",
	"ADMIN_PASSWORD":      "admin.password",
	"EMAILJS_SERVICE_ID":  "mail.service_id",
	"EMAILJS_TEMPLATE_ID": "mail.template_id",
	"EMAILJS_PUBLIC_KEY":  "mail.public_key",
	"EMAILJS_PRIVATE_KEY": "mail.private_key",
	"SANITY_PROJECT_ID":   "content.project_id",
}

// Load reads .env (if present), the YAML file at path (if present), then
// the environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envAliases[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env aliases: %w", err)
	}

	// FOLIO_MAIL__SERVICE_ID -> mail.service_id
	if err := k.Load(env.Provider("FOLIO_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "FOLIO_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultAdminLogin reports whether the admin area would accept the
// development credentials.
func (c *Config) DefaultAdminLogin() bool {
	return c.Mode == "debug" && (c.Admin.Username == "" || c.Admin.Password == "")
}

// Addr is the listen address.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
