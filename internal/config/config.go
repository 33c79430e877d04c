// Package config provides configuration management for voicebuilder
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Chat    ChatConfig    `mapstructure:"chat"`
	STT     STTConfig     `mapstructure:"stt"`
	TTS     TTSConfig     `mapstructure:"tts"`
	Builder BuilderConfig `mapstructure:"builder"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ChatConfig configures the structured inference client
type ChatConfig struct {
	APIKey                string        `mapstructure:"api_key"`
	BaseURL               string        `mapstructure:"base_url"`
	Model                 string        `mapstructure:"model"`
	ReasoningEffort       string        `mapstructure:"reasoning_effort"`
	MaxOutputTokens       int           `mapstructure:"max_output_tokens"`
	MaxOutputTokensEditor int           `mapstructure:"max_output_tokens_editor"`
	Timeout               time.Duration `mapstructure:"timeout"`
}

// STTConfig configures speech capture
type STTConfig struct {
	Provider       string `mapstructure:"provider"` // deepgram, script
	DeepgramAPIKey string `mapstructure:"deepgram_api_key"`
	Language       string `mapstructure:"language"`
	SampleRate     int    `mapstructure:"sample_rate"`
	InterimResults bool   `mapstructure:"interim_results"`
	FilterFillers  bool   `mapstructure:"filter_fillers"`
}

// TTSConfig configures speech synthesis
type TTSConfig struct {
	Provider         string  `mapstructure:"provider"` // elevenlabs, openai
	Voice            string  `mapstructure:"voice"`    // voice name or raw provider id
	Model            string  `mapstructure:"model"`
	ElevenLabsAPIKey string  `mapstructure:"elevenlabs_api_key"`
	OpenAIAPIKey     string  `mapstructure:"openai_api_key"`
	Stability        float64 `mapstructure:"stability"`
	SimilarityBoost  float64 `mapstructure:"similarity_boost"`
	Style            float64 `mapstructure:"style"`
	SpeakerBoost     bool    `mapstructure:"speaker_boost"`
}

// BuilderConfig configures the artifact builder command channel
type BuilderConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Dir     string `mapstructure:"dir"`
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Chat: ChatConfig{
			BaseURL:               "https://api.openai.com/v1",
			Model:                 "gpt-5-mini",
			ReasoningEffort:       "minimal",
			MaxOutputTokens:       600,
			MaxOutputTokensEditor: 400,
			Timeout:               60 * time.Second,
		},
		STT: STTConfig{
			Provider:       "deepgram",
			Language:       "en-US",
			SampleRate:     16000,
			InterimResults: true,
			FilterFillers:  true,
		},
		TTS: TTSConfig{
			Provider:        "elevenlabs",
			Voice:           "jessa",
			Model:           "eleven_turbo_v2_5",
			Stability:       0.3,
			SimilarityBoost: 0.75,
			Style:           0.85,
			SpeakerBoost:    true,
		},
		Builder: BuilderConfig{
			ServerURL: "http://localhost:8080",
			Timeout:   30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configDir, err := Dir()
	if err != nil {
		return cfg, err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("VOICEBUILDER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// Config file not found, use defaults and create one
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	applyEnvKeys(cfg)
	return cfg, nil
}

// applyEnvKeys fills API keys from the conventional environment variables
// when the config file leaves them empty.
func applyEnvKeys(cfg *Config) {
	if cfg.Chat.APIKey == "" {
		cfg.Chat.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.STT.DeepgramAPIKey == "" {
		cfg.STT.DeepgramAPIKey = os.Getenv("DEEPGRAM_API_KEY")
	}
	if cfg.TTS.ElevenLabsAPIKey == "" {
		cfg.TTS.ElevenLabsAPIKey = os.Getenv("ELEVENLABS_API_KEY")
	}
	if cfg.TTS.OpenAIAPIKey == "" {
		cfg.TTS.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Save writes the configuration to file
func Save(cfg *Config) error {
	configDir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	viper.Set("chat", cfg.Chat)
	viper.Set("stt", cfg.STT)
	viper.Set("tts", cfg.TTS)
	viper.Set("builder", cfg.Builder)
	viper.Set("logging", cfg.Logging)

	return viper.WriteConfigAs(filepath.Join(configDir, "config.yaml"))
}

// Dir returns the configuration directory path
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".voicebuilder"), nil
}
