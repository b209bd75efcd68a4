package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	App      AppConfig      `yaml:"app"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Agent    AgentConfig    `yaml:"agent"`
	Redis    RedisConfig    `yaml:"redis"`
	Reminder ReminderConfig `yaml:"reminder"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

// AppConfig holds settings that shape reviewer-facing links.
type AppConfig struct {
	Origin         string   `yaml:"origin"`          // e.g. https://feedback.example.com/
	AllowedOrigins []string `yaml:"allowed_origins"` // CORS origins; empty allows any
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig selects the assessment repository.
// Driver "memory" keeps everything in process; sqlite, mysql and postgres go through gorm.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// AgentConfig lists the LLM providers tried in order for every agent call.
type AgentConfig struct {
	TimeoutSeconds int              `yaml:"timeout_seconds"`
	Providers      []ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	Name        string  `yaml:"name"`
	Provider    string  `yaml:"provider"` // openai, azure, anthropic, ollama, gemini, bedrock
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Region      string  `yaml:"region"` // bedrock only
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// RedisConfig for optional async task queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ReminderConfig drives the periodic re-invitation of reviewers who have not responded.
type ReminderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`    // standard 5-field cron expression
	Country string `yaml:"country"` // holiday calendar code, NONE for weekdays only
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := DefaultConfig()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		App: AppConfig{
			Origin: "http://localhost:5173/",
		},
		Log: LogConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Driver: "memory",
			DSN:    "feedback360.db",
		},
		Agent: AgentConfig{
			TimeoutSeconds: 120,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Reminder: ReminderConfig{
			Enabled: false,
			Cron:    "0 9 * * *",
			Country: "NONE",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if origin := os.Getenv("APP_ORIGIN"); origin != "" {
		c.App.Origin = origin
	}
	if origins := os.Getenv("APP_ALLOWED_ORIGINS"); origins != "" {
		c.App.AllowedOrigins = splitList(origins)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if timeout := os.Getenv("AGENT_TIMEOUT_SECONDS"); timeout != "" {
		if v, err := strconv.Atoi(timeout); err == nil {
			c.Agent.TimeoutSeconds = v
		}
	}
	// A bare OpenAI key without a provider list still gives a usable agent.
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		c.ensureProvider("openai").APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		c.ensureProvider("openai").BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.ensureProvider("openai").Model = model
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		c.ensureProvider("anthropic").APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		c.ensureProvider("gemini").APIKey = apiKey
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
	if enabled := os.Getenv("REMINDER_ENABLED"); enabled != "" {
		c.Reminder.Enabled = enabled == "true"
	}
	if expr := os.Getenv("REMINDER_CRON"); expr != "" {
		c.Reminder.Cron = expr
	}
	if country := os.Getenv("REMINDER_COUNTRY"); country != "" {
		c.Reminder.Country = strings.ToUpper(country)
	}
}

// splitList parses a comma separated env value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ensureProvider returns the first provider entry of the given kind, appending one if absent.
func (c *Config) ensureProvider(kind string) *ProviderConfig {
	for i := range c.Agent.Providers {
		if c.Agent.Providers[i].Provider == kind {
			return &c.Agent.Providers[i]
		}
	}
	c.Agent.Providers = append(c.Agent.Providers, ProviderConfig{Name: kind, Provider: kind})
	return &c.Agent.Providers[len(c.Agent.Providers)-1]
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// Password format: :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
