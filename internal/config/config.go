// Package config holds SecondBrain configuration loaded from YAML with
// environment overrides for secrets. Intent and triage keyword sets live here
// as data so they can be tuned and tested independently of dispatch logic.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all SecondBrain configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Storage   StorageConfig   `yaml:"storage"`
	Policy    PolicyConfig    `yaml:"policy"`
	Intents   IntentsConfig   `yaml:"intents"`
	Triage    TriageConfig    `yaml:"triage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LLMConfig configures the generation capability.
type LLMConfig struct {
	Provider string `yaml:"provider"` // genai, openai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// EmbeddingConfig configures the embedding capability.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // genai, openai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	TaskType string `yaml:"task_type"`
}

// StorageConfig configures on-disk persistence paths.
type StorageConfig struct {
	BrainPath  string `yaml:"brain_path"`  // personal_brain.json
	MemoryPath string `yaml:"memory_path"` // memory.json (vector index)
}

// PolicyConfig configures standing behavioral rules.
type PolicyConfig struct {
	// MorningShieldStart/End delimit the protected window [start, end) in
	// which schedule_meeting actions are rejected.
	MorningShieldActive bool   `yaml:"morning_shield_active"`
	MorningShieldStart  int    `yaml:"morning_shield_start"`
	MorningShieldEnd    int    `yaml:"morning_shield_end"`
	MorningShieldReason string `yaml:"morning_shield_reason"`
}

// IntentsConfig holds the keyword sets driving request routing. Matching is
// case-insensitive substring containment; overlap across domains is
// intentional broad recall, not a bug to precision-tune away.
type IntentsConfig struct {
	Domains map[string][]string `yaml:"domains"` // domain -> trigger terms

	Calendar []string `yaml:"calendar"`
	Tasks    []string `yaml:"tasks"`
	Mail     []string `yaml:"mail"`
	Create   []string `yaml:"create"`

	Sync []string `yaml:"sync"` // coarse briefing catch-all

	// LoginURLs maps a domain to the URL surfaced in auth_redirect payloads.
	LoginURLs map[string]string `yaml:"login_urls"`
}

// TriageConfig holds the keyword sets for inbox-style Eisenhower triage.
type TriageConfig struct {
	UrgentKeywords    []string `yaml:"urgent_keywords"`
	ImportantKeywords []string `yaml:"important_keywords"`
}

// LoggingConfig configures process logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration. Keyword defaults mirror
// the sets the assistant shipped with; several are German because that is the
// primary user language.
func DefaultConfig() *Config {
	return &Config{
		Name:    "SecondBrain",
		Version: "2.0.0",

		LLM: LLMConfig{
			Provider: "genai",
			Model:    "gemini-2.0-flash",
			Timeout:  "120s",
		},

		Embedding: EmbeddingConfig{
			Provider: "genai",
			Model:    "gemini-embedding-001",
			TaskType: "SEMANTIC_SIMILARITY",
		},

		Storage: StorageConfig{
			BrainPath:  filepath.Join("data", "brain", "personal_brain.json"),
			MemoryPath: filepath.Join("data", "memory.json"),
		},

		Policy: PolicyConfig{
			MorningShieldActive: true,
			MorningShieldStart:  0,
			MorningShieldEnd:    10,
			MorningShieldReason: "Thomas arbeitet morgens am liebsten konzentriert. Meetings erst ab 10:00 Uhr vorschlagen.",
		},

		Intents: IntentsConfig{
			Domains: map[string][]string{
				"gmail":      {"mail", "gmail", "sync", "eisenhauer"},
				"salesforce": {"salesforce", "sf", "opp"},
				"ms_graph":   {"termin", "kalender", "calendar", "microsoft", "outlook", "meeting"},
				"tasks":      {"task", "aufgabe", "todo"},
			},
			Calendar: []string{"termin", "kalender", "calendar", "meeting"},
			Tasks:    []string{"task", "aufgabe", "todo"},
			Mail:     []string{"mail", "gmail", "outlook"},
			Create:   []string{"lege", "anlegen", "erstelle", "neuer termin", "neue", "create", "add", "new"},
			Sync:     []string{"sync", "routine", "morgen", "morning", "review", "week", "today", "summary", "overview"},
			LoginURLs: map[string]string{
				"gmail":    "/api/auth/google/login",
				"ms_graph": "/api/auth/microsoft/login",
			},
		},

		Triage: TriageConfig{
			UrgentKeywords:    []string{"urgent", "asap", "today", "deadline", "blocking"},
			ImportantKeywords: []string{"ceo", "contract", "invoice", "security", "client", "production"},
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file, overlaying it on defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides for secrets.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = key
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.LLM.Provider == "openai" {
		c.LLM.APIKey = key
		if c.Embedding.Provider == "openai" {
			c.Embedding.APIKey = key
		}
	}
	if path := os.Getenv("SECONDBRAIN_DATA"); path != "" {
		c.Storage.BrainPath = filepath.Join(path, "brain", "personal_brain.json")
		c.Storage.MemoryPath = filepath.Join(path, "memory.json")
	}
}
