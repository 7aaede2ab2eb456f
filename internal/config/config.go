package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores process-level configuration. User-facing settings such as the
// API key live in the settings store, not here.
type Config struct {
	Logging     LoggingConfig
	Settings    SettingsConfig
	Translation TranslationConfig
	Selection   SelectionConfig
	Speech      SpeechConfig
}

type LoggingConfig struct {
	Level string
	File  string
}

type SettingsConfig struct {
	Path string
}

type TranslationConfig struct {
	ReadChunkSize int
	ModelsTimeout time.Duration
}

type SelectionConfig struct {
	CaptureDelay time.Duration
	Notify       bool
}

type SpeechConfig struct {
	Command       string
	Args          []string
	Model         string
	Voice         string
	SampleRate    int
	Mode          string
	PlayerCommand string
	LexiconPath   string
}

// Load reads an optional .env file, then resolves configuration from
// environment variables and defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	configDir, err := os.UserConfigDir()
	if err != nil {
		return Config{}, errors.New("could not determine config directory")
	}
	appDir := filepath.Join(configDir, "snaptrans")

	cfg := Config{
		Logging: LoggingConfig{
			Level: envOrDefault("SNAPTRANS_LOG_LEVEL", "info"),
			File:  strings.TrimSpace(os.Getenv("SNAPTRANS_LOG_FILE")),
		},
		Settings: SettingsConfig{
			Path: envOrDefault("SNAPTRANS_SETTINGS_FILE", filepath.Join(appDir, "settings.json")),
		},
		Translation: TranslationConfig{
			ReadChunkSize: envOrDefaultInt("SNAPTRANS_READ_CHUNK_SIZE", 4096),
			ModelsTimeout: time.Duration(envOrDefaultInt("SNAPTRANS_MODELS_TIMEOUT_MS", 15000)) * time.Millisecond,
		},
		Selection: SelectionConfig{
			CaptureDelay: time.Duration(envOrDefaultInt("SNAPTRANS_CAPTURE_DELAY_MS", 200)) * time.Millisecond,
			Notify:       envOrDefaultBool("SNAPTRANS_NOTIFY", true),
		},
		Speech: SpeechConfig{
			Command:       envOrDefault("SNAPTRANS_TTS_COMMAND", "piper"),
			Args:          strings.Fields(os.Getenv("SNAPTRANS_TTS_ARGS")),
			Model:         firstNonEmpty(os.Getenv("SNAPTRANS_TTS_MODEL"), filepath.Join(appDir, "voices", "en_US-lessac-medium.onnx")),
			Voice:         strings.TrimSpace(os.Getenv("SNAPTRANS_TTS_VOICE")),
			SampleRate:    envOrDefaultInt("SNAPTRANS_TTS_SAMPLE_RATE", 22050),
			Mode:          strings.ToLower(envOrDefault("SNAPTRANS_TTS_MODE", "stream")),
			PlayerCommand: envOrDefault("SNAPTRANS_PLAYER_COMMAND", "ffplay"),
			LexiconPath:   envOrDefault("SNAPTRANS_LEXICON_FILE", filepath.Join(appDir, "lexicon.txt")),
		},
	}

	if cfg.Translation.ReadChunkSize < 256 {
		cfg.Translation.ReadChunkSize = 4096
	}
	if cfg.Translation.ModelsTimeout <= 0 {
		cfg.Translation.ModelsTimeout = 15 * time.Second
	}
	if cfg.Selection.CaptureDelay <= 0 {
		cfg.Selection.CaptureDelay = 200 * time.Millisecond
	}
	if cfg.Speech.SampleRate <= 0 {
		cfg.Speech.SampleRate = 22050
	}
	if cfg.Speech.Mode != "stream" && cfg.Speech.Mode != "buffer" {
		cfg.Speech.Mode = "stream"
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
