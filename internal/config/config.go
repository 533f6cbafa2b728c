// Package config loads the JSON configuration file, expanding ${VAR} and
// ${VAR:default} references from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/rowandev/apilot/internal/similarity"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig       `json:"server"`
	Providers []ProviderConfig   `json:"providers"`
	Cache     CacheConfig        `json:"cache"`
	Corpus    CorpusConfig       `json:"corpus"`
	Matcher   similarity.Options `json:"matcher"`
	Assistant AssistantConfig    `json:"assistant"`
	Catalog   []CatalogEntry     `json:"catalog"`
	Gateway   GatewayConfig      `json:"gateway"`
	Database  DatabaseConfig     `json:"database"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type ProviderConfig struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"` // openai|anthropic
	Name     string   `json:"name"`
	Endpoint string   `json:"endpoint"`
	APIKey   string   `json:"api_key"`
	Models   []string `json:"models,omitempty"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	Backend    string `json:"backend"` // memory|redis|postgres
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

// CorpusConfig selects where the lexical corpus comes from.
type CorpusConfig struct {
	Source         string `json:"source"` // builtin|file|neo4j
	Path           string `json:"path,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

type AssistantConfig struct {
	Model         string  `json:"model"`
	Temperature   float64 `json:"temperature,omitempty"`
	MaxTokens     int     `json:"max_tokens,omitempty"`
	MaxToolRounds int     `json:"max_tool_rounds,omitempty"`
	SystemPrompt  string  `json:"system_prompt,omitempty"`
	ReviewPolicy  string  `json:"review_policy,omitempty"` // auto|read_only
}

// CatalogEntry is one API operation loaded at startup.
type CatalogEntry struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	BaseURL     string            `json:"base_url"`
	Headers     map[string]string `json:"headers,omitempty"`
	Parameters  []CatalogParam    `json:"parameters,omitempty"`
}

type CatalogParam struct {
	Name        string `json:"name"`
	In          string `json:"in"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type GatewayConfig struct {
	Slack   SlackGatewayConfig   `json:"slack"`
	Discord DiscordGatewayConfig `json:"discord"`
}

type SlackGatewayConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
	AppToken string `json:"app_token"`
}

type DiscordGatewayConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
	Neo4j    Neo4jConfig    `json:"neo4j"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

type Neo4jConfig struct {
	URI      string `json:"uri"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Corpus.Source == "" {
		c.Corpus.Source = "builtin"
	}
	if c.Corpus.TimeoutSeconds == 0 {
		c.Corpus.TimeoutSeconds = 5
	}
	if c.Matcher.PrefixMinLen == 0 {
		c.Matcher = similarity.DefaultOptions()
	}
}
