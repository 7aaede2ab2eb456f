package domain

// SessionState models the translation session lifecycle.
type SessionState string

const (
	SessionStateIdle       SessionState = "idle"
	SessionStateRequesting SessionState = "requesting"
	SessionStateStreaming  SessionState = "streaming"
	SessionStateDone       SessionState = "done"
	SessionStateError      SessionState = "error"
	SessionStateAborted    SessionState = "aborted"
)

// Direction selects the translation language pair.
type Direction string

const (
	DirectionJaToEn Direction = "ja-to-en"
	DirectionEnToJa Direction = "en-to-ja"
)

// Hint returns the instruction appended to the system prompt.
func (d Direction) Hint() string {
	if d == DirectionJaToEn {
		return "Translate from Japanese to English."
	}
	return "Translate from English to Japanese."
}

// Valid reports whether d is one of the supported directions.
func (d Direction) Valid() bool {
	return d == DirectionJaToEn || d == DirectionEnToJa
}

// TranslateRequest is one translation submitted by the UI.
type TranslateRequest struct {
	Text      string    `json:"text"`
	Direction Direction `json:"direction"`
}

// EventKind identifies a translation stream event.
type EventKind string

const (
	EventKindChunk EventKind = "chunk"
	EventKindDone  EventKind = "done"
	EventKindError EventKind = "error"
)

// TranslationEvent is one element of a translation stream.
type TranslationEvent struct {
	Kind EventKind
	Text string
	Err  *TranslateError
}

// ModelInfo describes a model offered by the configured endpoint.
type ModelInfo struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

// Status summarizes the current translation status.
type Status struct {
	State     SessionState `json:"state"`
	Active    bool         `json:"active"`
	SessionID string       `json:"sessionId,omitempty"`
	Message   string       `json:"message,omitempty"`
}

// SpeechState models speech playback.
type SpeechState string

const (
	SpeechStateIdle     SpeechState = "idle"
	SpeechStateLoading  SpeechState = "loading"
	SpeechStateSpeaking SpeechState = "speaking"
)

// AudioFrame is a block of signed 16-bit little-endian mono PCM.
type AudioFrame struct {
	PCM        []byte
	SampleRate int
}
