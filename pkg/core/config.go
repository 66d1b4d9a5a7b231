package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config contains the complete configuration of an assistant engine.
//
// Example:
//
//	config := &core.Config{
//	    Oracle: core.LLMConfig{
//	        Provider: "openai",
//	        APIKey:   "sk-...",
//	        Model:    "gpt-4o",
//	    },
//	    Store: core.StoreConfig{
//	        Provider: "sqlite",
//	        SQLite:   core.SQLiteConfig{Path: "./atlas.db"},
//	    },
//	}
type Config struct {
	// Oracle configures the LLM that interprets utterances. An empty
	// provider runs the engine without an oracle: every utterance then
	// resolves to the fallback intent.
	Oracle LLMConfig `json:"oracle" yaml:"oracle"`

	// Store configures where the durable snapshot lives.
	Store StoreConfig `json:"store" yaml:"store"`

	// Personality is used until a saved personality is loaded.
	Personality Personality `json:"personality" yaml:"personality"`

	Engine EngineConfig `json:"engine" yaml:"engine"`
	Log    LogConfig    `json:"log" yaml:"log"`
}

// LLMConfig contains configuration for the oracle's LLM provider.
//
// Supported providers: openai, deepseek, anthropic, ollama
type LLMConfig struct {
	// Provider is the LLM provider name.
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is required for every provider except ollama.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Model is the model name. Vision input needs a vision model.
	Model string `json:"model" yaml:"model"`

	// BaseURL overrides the provider default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// TimeoutSeconds bounds one oracle query. Default: 30
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// StoreConfig selects and configures the snapshot store.
//
// Supported providers: file, sqlite, postgres, oceanbase
type StoreConfig struct {
	Provider string `json:"provider" yaml:"provider"`

	File      FileConfig      `json:"file,omitempty" yaml:"file,omitempty"`
	SQLite    SQLiteConfig    `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	Postgres  PostgresConfig  `json:"postgres,omitempty" yaml:"postgres,omitempty"`
	OceanBase OceanBaseConfig `json:"oceanbase,omitempty" yaml:"oceanbase,omitempty"`
}

// FileConfig configures the JSON file store.
type FileConfig struct {
	Path string `json:"path" yaml:"path"`
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	Path        string `json:"path" yaml:"path"`
	TablePrefix string `json:"table_prefix,omitempty" yaml:"table_prefix,omitempty"`
}

// PostgresConfig configures the PostgreSQL store.
type PostgresConfig struct {
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	User        string `json:"user" yaml:"user"`
	Password    string `json:"password" yaml:"password"`
	DBName      string `json:"db_name" yaml:"db_name"`
	SSLMode     string `json:"ssl_mode,omitempty" yaml:"ssl_mode,omitempty"`
	TablePrefix string `json:"table_prefix,omitempty" yaml:"table_prefix,omitempty"`
}

// OceanBaseConfig configures the OceanBase (MySQL protocol) store.
type OceanBaseConfig struct {
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	User        string `json:"user" yaml:"user"`
	Password    string `json:"password" yaml:"password"`
	DBName      string `json:"db_name" yaml:"db_name"`
	TablePrefix string `json:"table_prefix,omitempty" yaml:"table_prefix,omitempty"`
}

// EngineConfig tunes memory sizes and execution pacing.
type EngineConfig struct {
	// ShortTermCapacity bounds the short-term memory. Default: 100
	ShortTermCapacity int `json:"short_term_capacity,omitempty" yaml:"short_term_capacity,omitempty"`

	// RecentActionsCapacity bounds the recent actions window. Default: 20
	RecentActionsCapacity int `json:"recent_actions_capacity,omitempty" yaml:"recent_actions_capacity,omitempty"`

	// StepPacingMs is the pause after each executed step. Default: 500
	StepPacingMs int `json:"step_pacing_ms,omitempty" yaml:"step_pacing_ms,omitempty"`

	// RoutinePacingMs is the pause between routine actions. Default: 1000
	RoutinePacingMs int `json:"routine_pacing_ms,omitempty" yaml:"routine_pacing_ms,omitempty"`

	// FollowUpDelayMs is the pause before offering a follow-up. Default: 2000
	FollowUpDelayMs int `json:"follow_up_delay_ms,omitempty" yaml:"follow_up_delay_ms,omitempty"`

	// NodeID is the snowflake node for memory record ids. Default: 1
	NodeID int64 `json:"node_id,omitempty" yaml:"node_id,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Debug bool `json:"debug" yaml:"debug"`
}

// Defaults applied by ApplyDefaults.
const (
	DefaultShortTermCapacity     = 100
	DefaultRecentActionsCapacity = 20
	DefaultOracleTimeout         = 30 * time.Second
	DefaultStepPacing            = 500 * time.Millisecond
	DefaultRoutinePacing         = time.Second
	DefaultFollowUpDelay         = 2 * time.Second
	DefaultSnapshotPath          = "./atlas_memory.json"
)

// DefaultConfig returns a configuration with no oracle and a file store
// at DefaultSnapshotPath.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Store.Provider == "" {
		c.Store.Provider = "file"
	}
	if c.Store.Provider == "file" && c.Store.File.Path == "" {
		c.Store.File.Path = DefaultSnapshotPath
	}
	if c.Oracle.TimeoutSeconds <= 0 {
		c.Oracle.TimeoutSeconds = int(DefaultOracleTimeout / time.Second)
	}
	if c.Personality == (Personality{}) {
		c.Personality = DefaultPersonality()
	}
	def := DefaultPersonality()
	if c.Personality.Name == "" {
		c.Personality.Name = def.Name
	}
	if c.Personality.Tone == "" {
		c.Personality.Tone = def.Tone
	}
	if c.Personality.Verbosity == "" {
		c.Personality.Verbosity = def.Verbosity
	}

	e := &c.Engine
	if e.ShortTermCapacity <= 0 {
		e.ShortTermCapacity = DefaultShortTermCapacity
	}
	if e.RecentActionsCapacity <= 0 {
		e.RecentActionsCapacity = DefaultRecentActionsCapacity
	}
	if e.StepPacingMs <= 0 {
		e.StepPacingMs = int(DefaultStepPacing / time.Millisecond)
	}
	if e.RoutinePacingMs <= 0 {
		e.RoutinePacingMs = int(DefaultRoutinePacing / time.Millisecond)
	}
	if e.FollowUpDelayMs <= 0 {
		e.FollowUpDelayMs = int(DefaultFollowUpDelay / time.Millisecond)
	}
	if e.NodeID == 0 {
		e.NodeID = 1
	}
}

// OracleTimeout returns the oracle query bound.
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.Oracle.TimeoutSeconds) * time.Second
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - ORACLE_PROVIDER (openai, deepseek, anthropic, ollama), ORACLE_API_KEY,
//     ORACLE_MODEL, ORACLE_BASE_URL, ORACLE_TIMEOUT_SECONDS
//   - STORE_PROVIDER (file, sqlite, postgres, oceanbase), STORE_TABLE_PREFIX
//   - SNAPSHOT_PATH, SQLITE_PATH
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, etc.
//   - OCEANBASE_HOST, OCEANBASE_PORT, OCEANBASE_USER, OCEANBASE_PASSWORD, etc.
//   - ASSISTANT_NAME, ASSISTANT_TONE, ASSISTANT_VERBOSITY, ASSISTANT_PROACTIVE
//   - SHORT_TERM_CAPACITY, STEP_PACING_MS, LOG_DEBUG
//
// Example:
//
//	config, err := core.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnv() (*Config, error) {
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("ORACLE_PROVIDER", "openai")
	var baseURL, defaultModel string
	switch provider {
	case "deepseek":
		baseURL = getEnvOrDefault("ORACLE_BASE_URL", "https://api.deepseek.com")
		defaultModel = "deepseek-chat"
	case "ollama":
		baseURL = getEnvOrDefault("ORACLE_BASE_URL", "http://localhost:11434")
		defaultModel = "llava"
	case "anthropic":
		baseURL = getEnvOrDefault("ORACLE_BASE_URL", "https://api.anthropic.com")
		defaultModel = "claude-3-5-sonnet-20240620"
	default:
		baseURL = os.Getenv("ORACLE_BASE_URL")
		defaultModel = "gpt-4o"
	}

	timeout, err := envInt("ORACLE_TIMEOUT_SECONDS", int(DefaultOracleTimeout/time.Second))
	if err != nil {
		return nil, err
	}

	store, err := storeConfigFromEnv()
	if err != nil {
		return nil, err
	}

	def := DefaultPersonality()
	proactive, err := envBool("ASSISTANT_PROACTIVE", def.Proactive)
	if err != nil {
		return nil, err
	}
	shortTerm, err := envInt("SHORT_TERM_CAPACITY", DefaultShortTermCapacity)
	if err != nil {
		return nil, err
	}
	pacing, err := envInt("STEP_PACING_MS", int(DefaultStepPacing/time.Millisecond))
	if err != nil {
		return nil, err
	}
	debug, err := envBool("LOG_DEBUG", false)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Oracle: LLMConfig{
			Provider:       provider,
			APIKey:         os.Getenv("ORACLE_API_KEY"),
			Model:          getEnvOrDefault("ORACLE_MODEL", defaultModel),
			BaseURL:        baseURL,
			TimeoutSeconds: timeout,
		},
		Store: store,
		Personality: Personality{
			Name:      getEnvOrDefault("ASSISTANT_NAME", def.Name),
			Tone:      getEnvOrDefault("ASSISTANT_TONE", def.Tone),
			Verbosity: getEnvOrDefault("ASSISTANT_VERBOSITY", def.Verbosity),
			Proactive: proactive,
		},
		Engine: EngineConfig{
			ShortTermCapacity: shortTerm,
			StepPacingMs:      pacing,
		},
		Log: LogConfig{Debug: debug},
	}
	config.ApplyDefaults()
	return config, nil
}

func storeConfigFromEnv() (StoreConfig, error) {
	cfg := StoreConfig{Provider: getEnvOrDefault("STORE_PROVIDER", "file")}
	prefix := os.Getenv("STORE_TABLE_PREFIX")

	switch cfg.Provider {
	case "file":
		cfg.File.Path = getEnvOrDefault("SNAPSHOT_PATH", DefaultSnapshotPath)
	case "sqlite":
		cfg.SQLite = SQLiteConfig{
			Path:        getEnvOrDefault("SQLITE_PATH", "./atlas.db"),
			TablePrefix: prefix,
		}
	case "postgres":
		port, err := envInt("POSTGRES_PORT", 5432)
		if err != nil {
			return cfg, err
		}
		cfg.Postgres = PostgresConfig{
			Host:        getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:        port,
			User:        getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password:    os.Getenv("POSTGRES_PASSWORD"),
			DBName:      getEnvOrDefault("POSTGRES_DATABASE", "atlas"),
			SSLMode:     getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
			TablePrefix: prefix,
		}
	case "oceanbase":
		port, err := envInt("OCEANBASE_PORT", 2881)
		if err != nil {
			return cfg, err
		}
		cfg.OceanBase = OceanBaseConfig{
			Host:        getEnvOrDefault("OCEANBASE_HOST", "127.0.0.1"),
			Port:        port,
			User:        getEnvOrDefault("OCEANBASE_USER", "root@sys"),
			Password:    os.Getenv("OCEANBASE_PASSWORD"),
			DBName:      getEnvOrDefault("OCEANBASE_DATABASE", "atlas"),
			TablePrefix: prefix,
		}
	}
	return cfg, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file. Unset fields
// get their defaults.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewEngineError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewEngineError("LoadConfigFromJSON", err)
	}
	config.ApplyDefaults()
	return &config, nil
}

// LoadConfigFromYAML loads configuration from a YAML file. Unset fields
// get their defaults.
func LoadConfigFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewEngineError("LoadConfigFromYAML", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, NewEngineError("LoadConfigFromYAML", err)
	}
	config.ApplyDefaults()
	return &config, nil
}

// Validate validates the configuration.
//
// Checks that:
//   - the oracle provider, if set, is known and has an API key when it
//     needs one
//   - the store provider is known and its location is set
//   - engine sizes are not negative
func (c *Config) Validate() error {
	switch c.Oracle.Provider {
	case "":
	case "openai", "deepseek", "anthropic":
		if c.Oracle.APIKey == "" {
			return NewEngineError("Validate", fmt.Errorf("%w: %s oracle requires an API key", ErrInvalidConfig, c.Oracle.Provider))
		}
	case "ollama":
	default:
		return NewEngineError("Validate", fmt.Errorf("%w: unknown oracle provider %q", ErrInvalidConfig, c.Oracle.Provider))
	}

	switch c.Store.Provider {
	case "file":
		if c.Store.File.Path == "" {
			return NewEngineError("Validate", fmt.Errorf("%w: file store requires a path", ErrInvalidConfig))
		}
	case "sqlite":
		if c.Store.SQLite.Path == "" {
			return NewEngineError("Validate", fmt.Errorf("%w: sqlite store requires a path", ErrInvalidConfig))
		}
	case "postgres", "oceanbase":
	default:
		return NewEngineError("Validate", fmt.Errorf("%w: unknown store provider %q", ErrInvalidConfig, c.Store.Provider))
	}

	if c.Engine.ShortTermCapacity < 0 || c.Engine.RecentActionsCapacity < 0 {
		return NewEngineError("Validate", fmt.Errorf("%w: negative capacity", ErrInvalidConfig))
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, NewEngineError("LoadConfigFromEnv", fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v))
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, NewEngineError("LoadConfigFromEnv", fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v))
	}
	return b, nil
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
