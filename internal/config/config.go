package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "AUTOREPLY"

// Empty BaseURL and Model fall back to the provider defaults.
type AIConfig struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

type DelayConfig struct {
	SeenPolicy   string `yaml:"seen_policy"`
	TypingPolicy string `yaml:"typing_policy"`
}

type WhatsAppConfig struct {
	StoreDialect string        `yaml:"store_dialect"`
	StoreDSN     string        `yaml:"store_dsn"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
	ReadyRetries int           `yaml:"ready_retries"`
}

type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

type HistoryConfig struct {
	Limit int `yaml:"limit"`
}

type StyleConfig struct {
	WordLimits string `yaml:"word_limits"`
}

type HTTPConfig struct {
	// Addr of the status server; empty disables it.
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	AI        AIConfig       `yaml:"ai"`
	Admins    []string       `yaml:"admins"`
	AutoReply bool           `yaml:"auto_reply"`
	Queue     QueueConfig    `yaml:"queue"`
	History   HistoryConfig  `yaml:"history"`
	Delays    DelayConfig    `yaml:"delays"`
	Style     StyleConfig    `yaml:"style"`
	WhatsApp  WhatsAppConfig `yaml:"whatsapp"`
	HTTP      HTTPConfig     `yaml:"http"`
	Logging   LoggingConfig  `yaml:"logging"`
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("auto_reply", true)
	v.SetDefault("queue.capacity", 0)
	v.SetDefault("history.limit", 10)
	v.SetDefault("delays.seen_policy", "recency")
	v.SetDefault("delays.typing_policy", "tiered")
	v.SetDefault("style.word_limits", "compact")
	v.SetDefault("whatsapp.store_dialect", "sqlite")
	v.SetDefault("whatsapp.store_dsn", "file:whatsapp-session.db?_pragma=foreign_keys(1)")
	v.SetDefault("whatsapp.ready_timeout", 2*time.Minute)
	v.SetDefault("whatsapp.ready_retries", 3)
	v.SetDefault("http.addr", "127.0.0.1:8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("ai.base_url", EnvPrefix+"_AI_BASE_URL", "OPENAI_BASE_URL")
	_ = v.BindEnv("ai.model", EnvPrefix+"_AI_MODEL", "OPENAI_MODEL")
}

// Load reads the optional config file, then the environment.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)

	if configFile = strings.TrimSpace(configFile); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := Config{
		AI: AIConfig{
			Provider: strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
			APIKey:   strings.TrimSpace(v.GetString("ai.api_key")),
			BaseURL:  strings.TrimSpace(v.GetString("ai.base_url")),
			Model:    strings.TrimSpace(v.GetString("ai.model")),
			Timeout:  v.GetDuration("ai.timeout"),
		},
		Admins:    splitList(v.GetStringSlice("admins")),
		AutoReply: v.GetBool("auto_reply"),
		Queue:     QueueConfig{Capacity: v.GetInt("queue.capacity")},
		History:   HistoryConfig{Limit: v.GetInt("history.limit")},
		Delays: DelayConfig{
			SeenPolicy:   v.GetString("delays.seen_policy"),
			TypingPolicy: v.GetString("delays.typing_policy"),
		},
		Style: StyleConfig{WordLimits: v.GetString("style.word_limits")},
		WhatsApp: WhatsAppConfig{
			StoreDialect: strings.ToLower(strings.TrimSpace(v.GetString("whatsapp.store_dialect"))),
			StoreDSN:     strings.TrimSpace(v.GetString("whatsapp.store_dsn")),
			ReadyTimeout: v.GetDuration("whatsapp.ready_timeout"),
			ReadyRetries: v.GetInt("whatsapp.ready_retries"),
		},
		HTTP: HTTPConfig{Addr: strings.TrimSpace(v.GetString("http.addr"))},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error

	switch c.AI.Provider {
	case "openai":
		if c.AI.APIKey == "" {
			errs = append(errs, errors.New("ai.api_key is required for the openai provider"))
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown ai.provider %q", c.AI.Provider))
	}

	switch c.WhatsApp.StoreDialect {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown whatsapp.store_dialect %q", c.WhatsApp.StoreDialect))
	}
	if c.WhatsApp.StoreDSN == "" {
		errs = append(errs, errors.New("whatsapp.store_dsn is required"))
	}

	if c.Queue.Capacity < 0 {
		errs = append(errs, errors.New("queue.capacity must be >= 0"))
	}
	if c.History.Limit < 0 {
		errs = append(errs, errors.New("history.limit must be >= 0"))
	}

	return errors.Join(errs...)
}

// Masked returns a copy safe to print.
func (c Config) Masked() Config {
	if c.AI.APIKey != "" {
		c.AI.APIKey = mask(c.AI.APIKey)
	}
	if c.WhatsApp.StoreDialect == "postgres" {
		c.WhatsApp.StoreDSN = "***"
	}
	return c
}

func mask(s string) string {
	if len(s) <= 6 {
		return "***"
	}
	return s[:3] + "***" + s[len(s)-3:]
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
