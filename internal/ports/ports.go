package ports

import (
	"context"

	"snaptrans/internal/domain"
)

// ChatRequest is the provider-agnostic input to one streaming completion.
type ChatRequest struct {
	Endpoint     string
	APIKey       string
	Model        string
	SystemPrompt string
	UserText     string
	Temperature  float64
}

// TranslationStream is an in-flight translation. Events is closed when the
// stream finishes, fails, or is aborted through its context.
type TranslationStream interface {
	Events() <-chan domain.TranslationEvent
	Wait() error
}

// TranslationProvider starts streaming chat completions.
type TranslationProvider interface {
	StartStreaming(ctx context.Context, req ChatRequest) (TranslationStream, error)
}

// ModelLister fetches the models offered by an endpoint.
type ModelLister interface {
	ListModels(ctx context.Context, endpoint string, apiKey string) ([]domain.ModelInfo, error)
}

// SettingsStore persists user settings.
type SettingsStore interface {
	Load() domain.Settings
	Save(settings domain.Settings) error
}

// SelectionCapture reads the text currently selected in the foreground app.
type SelectionCapture interface {
	CaptureSelection(ctx context.Context) string
}

// AcceleratorBinder installs one global keyboard accelerator at a time.
type AcceleratorBinder interface {
	Register(accelerator string, onTrigger func()) error
	Unregister() error
}

// WindowPresenter brings the application window to the front.
type WindowPresenter interface {
	Show()
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// ClipboardReadWriter is the raw clipboard used around a selection capture.
type ClipboardReadWriter interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// KeyPresser simulates the platform copy chord.
type KeyPresser interface {
	PressCopy() error
}

// PermissionChecker reports whether the OS allows synthetic key events.
type PermissionChecker interface {
	Trusted() bool
	Prompt() error
}

// Notifier shows a desktop notification.
type Notifier interface {
	Notify(title string, message string) error
}

// SpeechStream yields PCM frames from a running synthesis.
type SpeechStream interface {
	Frames() <-chan domain.AudioFrame
	Wait() error
	Stop() error
}

// SpeechSynthesizer converts text to audio using a local model.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, speed float64) (SpeechStream, error)
}

// AudioSink is a live playback session fed with PCM frames.
type AudioSink interface {
	Write(frame domain.AudioFrame) error
	Drain() error
	Stop() error
}

// AudioPlayer plays PCM either incrementally or as one buffer.
type AudioPlayer interface {
	Open(ctx context.Context, sampleRate int) (AudioSink, error)
	PlayBuffer(ctx context.Context, audio domain.AudioFrame) error
}

// PronunciationLexicon rewrites text before synthesis.
type PronunciationLexicon interface {
	Apply(text string) string
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	SessionStateChanged(sessionID string, state domain.SessionState)
	TranslateChunk(text string)
	TranslateDone()
	TranslateError(err *domain.TranslateError)
	SelectionText(text string)
	SpeechStateChanged(state domain.SpeechState)
	SpeechError(detail string)
}
