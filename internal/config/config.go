package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Server    ServerConfig
	Data      DataConfig
	OpenAI    OpenAIConfig
	Retrieval RetrievalConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type DataConfig struct {
	// FixtureDir is the root of the read-only JSON fixture tree
	// (entities/, shipments/, analytics/, chatbot/, ...).
	FixtureDir string
	// RunDir holds runtime artifacts: PID file, log file.
	RunDir string
}

type OpenAIConfig struct {
	// APIKey is optional at load time. When empty the chat endpoint
	// answers 503 per request; the rest of the API keeps working.
	APIKey  string
	BaseURL string
	Model   string
}

type RetrievalConfig struct {
	TopN        int
	MaxDocChars int
}

type LogConfig struct {
	Level string
	// File receives a JSON copy of the log stream; empty disables it.
	File string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Data: DataConfig{
			FixtureDir: filepath.Join("mock-data", "v1"),
			RunDir:     defaultRunDir(),
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Retrieval: RetrievalConfig{
			TopN:        3,
			MaxDocChars: 3000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/supplydeck/config.json, then applies SUPPLYDECK_*
// environment overrides. A missing config file is not an error.
//
// The OpenAI API key is deliberately not required here: its absence
// disables the chat feature per-request rather than failing startup.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	return cfg, nil
}

func defaultRunDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "supplydeck-data"
		}
	}
	return filepath.Join(dir, "supplydeck")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "supplydeck", "config.json")
}
