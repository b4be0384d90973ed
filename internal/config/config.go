package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultMaxPlayers  = 6
	defaultGracePeriod = 10 * time.Second
)

type Config struct {
	ServerAddr     string
	AllowedOrigins []string
	WordsDir       string

	// MaxPlayers is the server-side ceiling applied to every room no matter
	// what the client asked for.
	MaxPlayers int
	// GracePeriod is how long a disconnected player's seat is held for a
	// rejoin.
	GracePeriod time.Duration
	// Languages maps a language code to its word-list file inside WordsDir.
	Languages map[string]string
}

// gameFile is the optional YAML game configuration.
type gameFile struct {
	MaxPlayers         int               `yaml:"max_players"`
	GracePeriodSeconds int               `yaml:"grace_period_seconds"`
	Languages          map[string]string `yaml:"languages"`
}

func NewConfig(serverAddr, wordsDir, gameConfigPath string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if wordsDir == "" {
		return nil, fmt.Errorf("words directory cannot be empty")
	}

	cfg := &Config{
		ServerAddr:     serverAddr,
		AllowedOrigins: allowedOrigins,
		WordsDir:       wordsDir,
		MaxPlayers:     defaultMaxPlayers,
		GracePeriod:    defaultGracePeriod,
		Languages: map[string]string{
			"en":  "en.txt",
			"fr":  "fr.txt",
			"lat": "lat.txt",
		},
	}

	if gameConfigPath != "" {
		if err := cfg.applyGameFile(gameConfigPath); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (cfg *Config) applyGameFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read game config: %w", err)
	}

	var gf gameFile
	if err := yaml.Unmarshal(raw, &gf); err != nil {
		return fmt.Errorf("parse game config: %w", err)
	}

	if gf.MaxPlayers < 0 {
		return fmt.Errorf("max_players cannot be negative")
	}
	if gf.GracePeriodSeconds < 0 {
		return fmt.Errorf("grace_period_seconds cannot be negative")
	}

	if gf.MaxPlayers > 0 {
		cfg.MaxPlayers = gf.MaxPlayers
	}
	if gf.GracePeriodSeconds > 0 {
		cfg.GracePeriod = time.Duration(gf.GracePeriodSeconds) * time.Second
	}
	if len(gf.Languages) > 0 {
		cfg.Languages = gf.Languages
	}

	return nil
}
