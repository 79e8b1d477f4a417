package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "SUPPLYDECK_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "data.fixture_dir", typ: kString, env: "SUPPLYDECK_DATA_FIXTURE_DIR",
		apply:   func(cfg *Config, v any) { cfg.Data.FixtureDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Data.FixtureDir },
	},
	{
		key: "data.run_dir", typ: kString, env: "SUPPLYDECK_DATA_RUN_DIR",
		apply:   func(cfg *Config, v any) { cfg.Data.RunDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Data.RunDir },
	},
	{
		key: "openai.api_key", typ: kString, env: "SUPPLYDECK_OPENAI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.OpenAI.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenAI.APIKey },
	},
	{
		key: "openai.base_url", typ: kString, env: "SUPPLYDECK_OPENAI_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.OpenAI.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenAI.BaseURL },
	},
	{
		key: "openai.model", typ: kString, env: "SUPPLYDECK_OPENAI_MODEL",
		apply:   func(cfg *Config, v any) { cfg.OpenAI.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenAI.Model },
	},
	{
		key: "retrieval.top_n", typ: kInt, env: "SUPPLYDECK_RETRIEVAL_TOP_N",
		apply:   func(cfg *Config, v any) { cfg.Retrieval.TopN = v.(int) },
		extract: func(cfg Config) any { return cfg.Retrieval.TopN },
	},
	{
		key: "retrieval.max_doc_chars", typ: kInt, env: "SUPPLYDECK_RETRIEVAL_MAX_DOC_CHARS",
		apply:   func(cfg *Config, v any) { cfg.Retrieval.MaxDocChars = v.(int) },
		extract: func(cfg Config) any { return cfg.Retrieval.MaxDocChars },
	},
	{
		key: "log.level", typ: kString, env: "SUPPLYDECK_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "log.file", typ: kString, env: "SUPPLYDECK_LOG_FILE",
		apply:   func(cfg *Config, v any) { cfg.Log.File = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.File },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading config key %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading config key %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw, ok := os.LookupEnv(s.env)
		if !ok || raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] ignoring %s: %v\n", s.env, err)
			}
		}
	}
}
