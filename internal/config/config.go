package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	StrategyParagraph = "paragraph"
	StrategyFixed     = "fixed"

	BackendChromem  = "chromem"
	BackendPostgres = "postgres"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
	DSN        string `yaml:"dsn"`
	Password   string `yaml:"password"`
	Debug      bool   `yaml:"debug"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize         int     `yaml:"chunk_size"`
	ChunkOverlap      int     `yaml:"chunk_overlap"`
	Strategy          string  `yaml:"strategy"`
	NResults          int     `yaml:"n_results"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
}

type Config struct {
	Server   ServerConfig `yaml:"server"`
	Store    StoreConfig  `yaml:"store"`
	EmbedLLM LLMConfig    `yaml:"embed_llm"`
	InferLLM LLMConfig    `yaml:"infer_llm"`
	RAG      RAGConfig    `yaml:"rag"`
}

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 100
	defaultNResults     = 3
	defaultThreshold    = 1.2
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a config usable without a yaml file, e.g. in tests.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendChromem
	}
	if c.Store.Path == "" {
		c.Store.Path = "./chroma_db"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "ml_documents"
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if c.RAG.Strategy == "" {
		c.RAG.Strategy = StrategyParagraph
	}
	if c.RAG.NResults == 0 {
		c.RAG.NResults = defaultNResults
	}
	if c.RAG.DistanceThreshold == 0 {
		c.RAG.DistanceThreshold = defaultThreshold
	}

	// API keys come from the environment when not set in the file.
	if v := os.Getenv("EMBED_API_KEY"); v != "" && c.EmbedLLM.Key == "" {
		c.EmbedLLM.Key = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" && c.InferLLM.Key == "" {
		c.InferLLM.Key = v
	}
	if v := os.Getenv("STORE_PASSWORD"); v != "" && c.Store.Password == "" {
		c.Store.Password = v
	}
}

// Validate normalizes the chunking parameters. An overlap at or above the
// chunk size would stall the fixed-size chunker, so it is clamped to half
// the chunk size instead of rejected.
func (c *Config) Validate() error {
	switch c.RAG.Strategy {
	case StrategyParagraph, StrategyFixed:
	default:
		return fmt.Errorf("unknown chunking strategy: %s", c.RAG.Strategy)
	}
	switch c.Store.Backend {
	case BackendChromem, BackendPostgres:
	default:
		return fmt.Errorf("unknown store backend: %s", c.Store.Backend)
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.ChunkOverlap < 0 {
		c.RAG.ChunkOverlap = 0
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		c.RAG.ChunkOverlap = c.RAG.ChunkSize / 2
	}
	if c.RAG.NResults < 1 || c.RAG.NResults > 10 {
		c.RAG.NResults = defaultNResults
	}
	if c.RAG.DistanceThreshold <= 0 {
		c.RAG.DistanceThreshold = defaultThreshold
	}
	return nil
}
