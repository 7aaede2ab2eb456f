package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"snaptrans/internal/domain"
	"snaptrans/internal/ports"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}

// fakeStep scripts one StartStreaming call. When hold is set the stream stays
// open after the scripted events until its context is cancelled.
type fakeStep struct {
	events []domain.TranslationEvent
	hold   bool
}

type fakeProvider struct {
	mu       sync.Mutex
	steps    []fakeStep
	err      error
	requests []ports.ChatRequest
	contexts []context.Context
}

func (f *fakeProvider) StartStreaming(ctx context.Context, req ports.ChatRequest) (ports.TranslationStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	f.contexts = append(f.contexts, ctx)
	if f.err != nil {
		return nil, f.err
	}
	call := len(f.requests) - 1
	if call >= len(f.steps) {
		return nil, errors.New("no stream configured")
	}
	return newFakeTranslationStream(ctx, f.steps[call]), nil
}

func (f *fakeProvider) snapshotRequests() []ports.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.ChatRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeProvider) contextAt(i int) context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contexts[i]
}

type fakeTranslationStream struct {
	events chan domain.TranslationEvent
}

func newFakeTranslationStream(ctx context.Context, step fakeStep) *fakeTranslationStream {
	s := &fakeTranslationStream{events: make(chan domain.TranslationEvent)}
	go func() {
		defer close(s.events)
		for _, event := range step.events {
			select {
			case s.events <- event:
			case <-ctx.Done():
				return
			}
		}
		if step.hold {
			<-ctx.Done()
		}
	}()
	return s
}

func (s *fakeTranslationStream) Events() <-chan domain.TranslationEvent { return s.events }

func (s *fakeTranslationStream) Wait() error { return nil }

type fakeEventSink struct {
	mu sync.Mutex

	states       []domain.SessionState
	sessionIDs   []string
	chunks       []string
	doneCount    int
	errors       []*domain.TranslateError
	selections   []string
	speechStates []domain.SpeechState
	speechErrors []string
}

func (f *fakeEventSink) SessionStateChanged(sessionID string, state domain.SessionState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionIDs = append(f.sessionIDs, sessionID)
	f.states = append(f.states, state)
}

func (f *fakeEventSink) TranslateChunk(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, text)
}

func (f *fakeEventSink) TranslateDone() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doneCount++
}

func (f *fakeEventSink) TranslateError(err *domain.TranslateError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, err)
}

func (f *fakeEventSink) SelectionText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selections = append(f.selections, text)
}

func (f *fakeEventSink) SpeechStateChanged(state domain.SpeechState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speechStates = append(f.speechStates, state)
}

func (f *fakeEventSink) SpeechError(detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speechErrors = append(f.speechErrors, detail)
}

func (f *fakeEventSink) snapshotStates() []domain.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.SessionState, len(f.states))
	copy(out, f.states)
	return out
}

func (f *fakeEventSink) snapshotChunks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.chunks))
	copy(out, f.chunks)
	return out
}

func (f *fakeEventSink) snapshotErrors() []*domain.TranslateError {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.TranslateError, len(f.errors))
	copy(out, f.errors)
	return out
}

func (f *fakeEventSink) snapshotDone() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doneCount
}

func (f *fakeEventSink) snapshotSpeechStates() []domain.SpeechState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.SpeechState, len(f.speechStates))
	copy(out, f.speechStates)
	return out
}

func (f *fakeEventSink) snapshotSpeechErrors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.speechErrors))
	copy(out, f.speechErrors)
	return out
}

type fakeSynthesizer struct {
	mu      sync.Mutex
	streams []*fakeSpeechStream
	err     error
	texts   []string
	speeds  []float64
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text string, speed float64) (ports.SpeechStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.texts = append(f.texts, text)
	f.speeds = append(f.speeds, speed)
	if f.err != nil {
		return nil, f.err
	}
	call := len(f.texts) - 1
	if call >= len(f.streams) {
		return nil, errors.New("no speech stream configured")
	}
	stream := f.streams[call]
	stream.start()
	return stream, nil
}

func (f *fakeSynthesizer) snapshotTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.texts))
	copy(out, f.texts)
	return out
}

type fakeSpeechStream struct {
	pcm     [][]byte
	hold    bool
	waitErr error

	frames   chan domain.AudioFrame
	quit     chan struct{}
	quitOnce sync.Once

	mu        sync.Mutex
	stopCalls int
}

func newFakeSpeechStream(hold bool, pcm ...[]byte) *fakeSpeechStream {
	return &fakeSpeechStream{
		pcm:    pcm,
		hold:   hold,
		frames: make(chan domain.AudioFrame),
		quit:   make(chan struct{}),
	}
}

func (s *fakeSpeechStream) start() {
	go func() {
		defer close(s.frames)
		for _, pcm := range s.pcm {
			select {
			case s.frames <- domain.AudioFrame{PCM: pcm, SampleRate: 22050}:
			case <-s.quit:
				return
			}
		}
		if s.hold {
			<-s.quit
		}
	}()
}

func (s *fakeSpeechStream) Frames() <-chan domain.AudioFrame { return s.frames }

func (s *fakeSpeechStream) Wait() error { return s.waitErr }

func (s *fakeSpeechStream) Stop() error {
	s.mu.Lock()
	s.stopCalls++
	s.mu.Unlock()
	s.quitOnce.Do(func() { close(s.quit) })
	return nil
}

func (s *fakeSpeechStream) stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCalls
}

type fakePlayer struct {
	mu        sync.Mutex
	sinks     []*fakeAudioSink
	openErr   error
	buffers   []domain.AudioFrame
	bufferErr error
}

func (f *fakePlayer) Open(_ context.Context, sampleRate int) (ports.AudioSink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	sink := &fakeAudioSink{sampleRate: sampleRate}
	f.sinks = append(f.sinks, sink)
	return sink, nil
}

func (f *fakePlayer) PlayBuffer(_ context.Context, audio domain.AudioFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffers = append(f.buffers, audio)
	return f.bufferErr
}

func (f *fakePlayer) sinkAt(i int) *fakeAudioSink {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.sinks) {
		return nil
	}
	return f.sinks[i]
}

func (f *fakePlayer) snapshotBuffers() []domain.AudioFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.AudioFrame, len(f.buffers))
	copy(out, f.buffers)
	return out
}

type fakeAudioSink struct {
	sampleRate int

	mu      sync.Mutex
	written []byte
	drained bool
	stopped bool
}

func (s *fakeAudioSink) Write(frame domain.AudioFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.New("sink stopped")
	}
	s.written = append(s.written, frame.PCM...)
	return nil
}

func (s *fakeAudioSink) Drain() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drained = true
	return nil
}

func (s *fakeAudioSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fakeAudioSink) snapshot() (string, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.written), s.drained, s.stopped
}

type fakeLexicon struct {
	from string
	to   string
}

func (f fakeLexicon) Apply(text string) string {
	return strings.ReplaceAll(text, f.from, f.to)
}
