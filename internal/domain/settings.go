package domain

const (
	DefaultAPIEndpoint  = "https://api.openai.com/v1/chat/completions"
	DefaultModel        = "gpt-4o"
	DefaultShortcutKey  = "CommandOrControl+J"
	DefaultTTSSpeed     = 1.0
	DefaultSystemPrompt = "You are a professional translator. Translate the text considering context, idiomatic expressions, and common usage patterns. Produce natural, fluent output as a native speaker of the target language would express it. Do not translate word-by-word; convey the intended meaning. Output only the translated text."

	MinTTSSpeed = 0.5
	MaxTTSSpeed = 2.0
)

// Settings is the persisted user configuration.
type Settings struct {
	APIEndpoint  string  `json:"apiEndpoint"`
	APIKey       string  `json:"apiKey"`
	Model        string  `json:"model"`
	SystemPrompt string  `json:"systemPrompt"`
	ShortcutKey  string  `json:"shortcutKey"`
	TTSSpeed     float64 `json:"ttsSpeed"`
}

// DefaultSettings returns the first-run configuration.
func DefaultSettings() Settings {
	return Settings{
		APIEndpoint:  DefaultAPIEndpoint,
		APIKey:       "",
		Model:        DefaultModel,
		SystemPrompt: DefaultSystemPrompt,
		ShortcutKey:  DefaultShortcutKey,
		TTSSpeed:     DefaultTTSSpeed,
	}
}
