package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"snaptrans/internal/domain"
)

// ValidationError reports the first settings field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ShortcutValidator checks an accelerator string. A nil validator accepts anything.
type ShortcutValidator func(accelerator string) error

// FileStore keeps settings in a single JSON file.
type FileStore struct {
	path          string
	checkShortcut ShortcutValidator
	logger        *zap.Logger

	mu sync.Mutex
}

// DefaultPath returns the per-user settings location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine config directory: %w", err)
	}
	return filepath.Join(dir, "snaptrans", "settings.json"), nil
}

func NewFileStore(path string, checkShortcut ShortcutValidator, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, checkShortcut: checkShortcut, logger: logger}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns the stored settings merged over the defaults. A missing,
// unreadable or invalid file yields the defaults.
func (s *FileStore) Load() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := domain.DefaultSettings()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to read settings; using defaults", zap.String("path", s.path), zap.Error(err))
		}
		return defaults
	}

	var stored storedSettings
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.logger.Warn("Malformed settings file; using defaults", zap.String("path", s.path), zap.Error(err))
		return defaults
	}
	merged, err := stored.mergeInto(defaults)
	if err != nil {
		s.logger.Warn("Invalid settings file; using defaults", zap.String("path", s.path), zap.Error(err))
		return defaults
	}
	return merged
}

// Save validates and atomically persists settings.
func (s *FileStore) Save(settings domain.Settings) error {
	if err := s.Validate(settings); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	s.logger.Info("Settings saved", zap.String("path", s.path), zap.String("model", settings.Model))
	return nil
}

// Validate applies the save-time rules.
func (s *FileStore) Validate(settings domain.Settings) error {
	if err := validateEndpoint(settings.APIEndpoint); err != nil {
		return err
	}
	if strings.TrimSpace(settings.APIKey) == "" {
		return &ValidationError{Field: "apiKey", Message: "API Key is required"}
	}
	if strings.TrimSpace(settings.Model) == "" {
		return &ValidationError{Field: "model", Message: "Model is required"}
	}
	if err := validateSpeed(settings.TTSSpeed); err != nil {
		return err
	}
	if settings.ShortcutKey != "" && s.checkShortcut != nil {
		if err := s.checkShortcut(settings.ShortcutKey); err != nil {
			return &ValidationError{Field: "shortcutKey", Message: err.Error()}
		}
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	parsed, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || !parsed.IsAbs() || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return &ValidationError{Field: "apiEndpoint", Message: "API Endpoint must be a valid URL"}
	}
	return nil
}

func validateSpeed(speed float64) error {
	if speed < domain.MinTTSSpeed || speed > domain.MaxTTSSpeed {
		return &ValidationError{
			Field:   "ttsSpeed",
			Message: fmt.Sprintf("speed must be between %.1f and %.1f", domain.MinTTSSpeed, domain.MaxTTSSpeed),
		}
	}
	return nil
}

// storedSettings distinguishes absent fields from zero values.
type storedSettings struct {
	APIEndpoint  *string  `json:"apiEndpoint"`
	APIKey       *string  `json:"apiKey"`
	Model        *string  `json:"model"`
	SystemPrompt *string  `json:"systemPrompt"`
	ShortcutKey  *string  `json:"shortcutKey"`
	TTSSpeed     *float64 `json:"ttsSpeed"`
}

func (s storedSettings) mergeInto(base domain.Settings) (domain.Settings, error) {
	if s.APIEndpoint != nil {
		if err := validateEndpoint(*s.APIEndpoint); err != nil {
			return base, err
		}
		base.APIEndpoint = *s.APIEndpoint
	}
	if s.APIKey != nil {
		if *s.APIKey == "" {
			return base, &ValidationError{Field: "apiKey", Message: "API Key is required"}
		}
		base.APIKey = *s.APIKey
	}
	if s.Model != nil {
		if *s.Model == "" {
			return base, &ValidationError{Field: "model", Message: "Model is required"}
		}
		base.Model = *s.Model
	}
	if s.SystemPrompt != nil {
		base.SystemPrompt = *s.SystemPrompt
	}
	if s.ShortcutKey != nil {
		base.ShortcutKey = *s.ShortcutKey
	}
	if s.TTSSpeed != nil {
		if err := validateSpeed(*s.TTSSpeed); err != nil {
			return base, err
		}
		base.TTSSpeed = *s.TTSSpeed
	}
	return base, nil
}
