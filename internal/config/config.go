package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// SnowflakeConfig holds connection details for the platform session.
// The password is never stored in the file; it is read from the
// environment variable named by PasswordEnv.
type SnowflakeConfig struct {
	Account     string `yaml:"account"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"password_env"`
	Database    string `yaml:"database"`
	Schema      string `yaml:"schema"`
	Warehouse   string `yaml:"warehouse"`
	Role        string `yaml:"role,omitempty"`
}

// CorpusConfig names the stage and tables holding the document corpus.
// These are spliced into SQL as identifiers and therefore validated
// against identifierPattern at load time.
type CorpusConfig struct {
	Stage          string `yaml:"stage"`
	ChunksTable    string `yaml:"chunks_table"`
	AccessTable    string `yaml:"access_table"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// RetrievalConfig configures the similarity search.
type RetrievalConfig struct {
	NumChunks int `yaml:"num_chunks"`
}

// PresignConfig configures source-link generation.
type PresignConfig struct {
	TTLSecs int `yaml:"ttl_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Snowflake SnowflakeConfig `yaml:"snowflake"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Presign   PresignConfig   `yaml:"presign"`
	Models    []string        `yaml:"models,omitempty"`
}

// identifierPattern accepts unquoted Snowflake object names, optionally
// qualified (db.schema.table). Anything else is rejected rather than
// escaped: identifiers cannot be bound as query parameters.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*){0,2}$`)

// defaultModels is the fixed completion-model selection exposed in the UI.
var defaultModels = []string{
	"mixtral-8x7b",
	"snowflake-arctic",
	"mistral-large",
	"llama3-8b",
	"llama3-70b",
	"reka-flash",
	"mistral-7b",
	"llama2-70b-chat",
	"gemma-7b",
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults (connection fields must then come from the environment
// via the gosnowflake DSN anyway, so startup will fail loudly).
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	for _, id := range []struct{ name, value string }{
		{"corpus.stage", c.Corpus.Stage},
		{"corpus.chunks_table", c.Corpus.ChunksTable},
		{"corpus.access_table", c.Corpus.AccessTable},
	} {
		if !identifierPattern.MatchString(id.value) {
			return fmt.Errorf("config %s: %q is not a valid identifier", id.name, id.value)
		}
	}
	if c.Retrieval.NumChunks <= 0 {
		return fmt.Errorf("config retrieval.num_chunks must be positive, got %d", c.Retrieval.NumChunks)
	}
	if c.Presign.TTLSecs <= 0 {
		return fmt.Errorf("config presign.ttl_secs must be positive, got %d", c.Presign.TTLSecs)
	}
	if len(c.Models) == 0 {
		return errors.New("config models must not be empty")
	}
	return nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Snowflake.PasswordEnv == "" {
		cfg.Snowflake.PasswordEnv = "SNOWFLAKE_PASSWORD"
	}
	if cfg.Corpus.Stage == "" {
		cfg.Corpus.Stage = "docs"
	}
	if cfg.Corpus.ChunksTable == "" {
		cfg.Corpus.ChunksTable = "docs_chunks_table"
	}
	if cfg.Corpus.AccessTable == "" {
		cfg.Corpus.AccessTable = "docs_access_control"
	}
	if cfg.Corpus.EmbeddingModel == "" {
		cfg.Corpus.EmbeddingModel = "snowflake-arctic-embed-m"
	}
	if cfg.Retrieval.NumChunks == 0 {
		cfg.Retrieval.NumChunks = 3
	}
	if cfg.Presign.TTLSecs == 0 {
		cfg.Presign.TTLSecs = 360
	}
	if len(cfg.Models) == 0 {
		cfg.Models = append([]string(nil), defaultModels...)
	}
}
