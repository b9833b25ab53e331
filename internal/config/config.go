package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	OpenAI  OpenAIConfig       `toml:"openai"`
	Data    DataConfig         `toml:"data"`
	Watch   WatchConfig        `toml:"watch"`
	Weights map[string]float64 `toml:"weights" validate:"dive,gte=0,lte=100"`
}

type OpenAIConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

type DataConfig struct {
	// Dir is where validate and watch look for clients/workers/tasks files.
	Dir string `toml:"dir"`
}

type WatchConfig struct {
	DebounceMS int  `toml:"debounce_ms" validate:"gte=50,lte=60000"`
	Notify     bool `toml:"notify"`
}

// DefaultWeights matches the slider defaults of the planning UI this tool
// feeds: every criterion starts at 50 on a 0-100 scale.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		"clientPriority":  50,
		"taskCompletion":  50,
		"workerBalance":   50,
		"skillMatch":      50,
		"phaseEfficiency": 50,
	}
}

func DefaultConfig() Config {
	return Config{
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Data: DataConfig{
			Dir: ".",
		},
		Watch: WatchConfig{
			DebounceMS: 400,
			Notify:     true,
		},
		Weights: DefaultWeights(),
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "preflight"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadPath(path)
}

// LoadPath reads a config file over the defaults, applies env overrides and
// validates the result. A missing file is not an error; the defaults stand.
func LoadPath(path string) (*Config, error) {
	cfg := DefaultConfig()
	// An explicit [weights] table replaces the defaults wholesale instead of
	// merging into them, so decoding starts from an empty map.
	cfg.Weights = nil

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if cfg.Weights == nil {
		cfg.Weights = DefaultWeights()
	}

	applyEnvOverrides(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("PREFLIGHT_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// Save writes cfg to the default config path.
func Save(cfg Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SavePath(path, cfg)
}

func SavePath(path string, cfg Config) error {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}
