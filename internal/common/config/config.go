// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Session  SessionConfig  `mapstructure:"session"`
	Composer ComposerConfig `mapstructure:"composer"`
	Chitchat ChitchatConfig `mapstructure:"chitchat"`
	Camunda  CamundaConfig  `mapstructure:"camunda"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address        string `mapstructure:"address"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	ProductsIndex string   `mapstructure:"products_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CatalogConfig tunes the catalog gateway adapters.
type CatalogConfig struct {
	SearchBackend       string `mapstructure:"search_backend"` // postgres | elasticsearch
	MinFuzzyTokenLength int    `mapstructure:"min_fuzzy_token_length"`
	MaxSearchResults    int    `mapstructure:"max_search_results"`
	CacheTTL            int    `mapstructure:"cache_ttl"` // seconds, 0 disables the cache
	Timeout             int    `mapstructure:"timeout"`   // milliseconds
}

// OracleConfig selects and tunes the NLU oracle backend.
type OracleConfig struct {
	Provider   string `mapstructure:"provider"` // http | gemini
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

type SessionConfig struct {
	Backend   string `mapstructure:"backend"` // memory | redis
	TTL       int    `mapstructure:"ttl"`     // seconds
	KeyPrefix string `mapstructure:"key_prefix"`
}

type ComposerConfig struct {
	CurrencySymbol   string `mapstructure:"currency_symbol"`
	DimensionUnit    string `mapstructure:"dimension_unit"`
	ListingCap       int    `mapstructure:"listing_cap"`
	PhraseWithOracle bool   `mapstructure:"phrase_with_oracle"`
}

type ChitchatConfig struct {
	RegistryPath string   `mapstructure:"registry_path"`
	Categories   []string `mapstructure:"categories"`
}

type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
