package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App     AppConfig     `yaml:"app"`
	Backend BackendConfig `yaml:"backend"`
	Memory  MemoryConfig  `yaml:"memory"`
	Logging LoggingConfig `yaml:"logging"`
	Tools   []ToolConfig  `yaml:"tools"`
}

type AppConfig struct {
	Name        string   `yaml:"name"`
	PromptsDir  string   `yaml:"prompts_dir"`
	PromptOrder []string `yaml:"prompt_order"`
}

// BackendConfig configures the chat endpoint and the request adapter:
// extra headers merged into every call and an optional fixed system
// text that overrides whatever the request carries.
type BackendConfig struct {
	Endpoint string            `yaml:"endpoint"`
	Headers  map[string]string `yaml:"headers"`
	System   string            `yaml:"system"`
}

type MemoryConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Dir string `yaml:"dir"`
}

// ToolConfig declares a frontend tool surfaced to the backend.
type ToolConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Parameters  map[string]any `yaml:"parameters"`
}

func LoadConfig(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("failed to decode config file: %v", err)
	}

	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "stride"
	}
	if c.Backend.Endpoint == "" {
		c.Backend.Endpoint = "http://localhost:8000/api/chat"
	}
	if c.Memory.Path == "" {
		c.Memory.Path = "stride.db"
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
}
