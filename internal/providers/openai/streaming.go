package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"snaptrans/internal/domain"
	"snaptrans/internal/ports"
)

const defaultReadChunkSize = 4096

// Config controls the chat-completions client.
type Config struct {
	HTTPClient    *http.Client
	ReadChunkSize int
	Logger        *zap.Logger
}

// Provider implements ports.TranslationProvider for OpenAI-compatible endpoints.
type Provider struct {
	client    *http.Client
	chunkSize int
	logger    *zap.Logger
}

func NewProvider(cfg Config) *Provider {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.ReadChunkSize < 256 {
		cfg.ReadChunkSize = defaultReadChunkSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Provider{client: cfg.HTTPClient, chunkSize: cfg.ReadChunkSize, logger: cfg.Logger}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

func buildRequestBody(req ports.ChatRequest) ([]byte, error) {
	return json.Marshal(chatCompletionRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserText},
		},
		Stream:      true,
		Temperature: req.Temperature,
	})
}

// StartStreaming issues the request in the background and returns immediately.
// Cancelling ctx aborts the request; an aborted stream closes without emitting
// a done or error event.
func (p *Provider) StartStreaming(ctx context.Context, req ports.ChatRequest) (ports.TranslationStream, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return nil, domain.NewUnconfiguredError()
	}

	body, err := buildRequestBody(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewTransportError("invalid API endpoint", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	session := &streamingSession{
		ctx:       ctx,
		events:    make(chan domain.TranslationEvent, 64),
		done:      make(chan struct{}),
		chunkSize: p.chunkSize,
		logger:    p.logger,
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		session.run(p.client, httpReq)
	})
	go func() {
		if recovered := wg.WaitAndRecover(); recovered != nil {
			session.fail(domain.NewTransportError("translation stream crashed", recovered.AsError()))
		}
		close(session.events)
		close(session.done)
	}()

	return session, nil
}

type streamingSession struct {
	ctx       context.Context
	events    chan domain.TranslationEvent
	done      chan struct{}
	chunkSize int
	logger    *zap.Logger

	errMu sync.Mutex
	err   error
}

func (s *streamingSession) Events() <-chan domain.TranslationEvent {
	return s.events
}

func (s *streamingSession) Wait() error {
	<-s.done
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *streamingSession) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *streamingSession) aborted() bool {
	return s.ctx.Err() != nil
}

func (s *streamingSession) abort() {
	s.setErr(domain.NewAbortedError(s.ctx.Err()))
}

// emit delivers one event unless the session has been aborted.
func (s *streamingSession) emit(event domain.TranslationEvent) bool {
	if s.aborted() {
		return false
	}
	select {
	case s.events <- event:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *streamingSession) fail(err *domain.TranslateError) {
	if s.aborted() {
		s.abort()
		return
	}
	s.setErr(err)
	s.emit(domain.TranslationEvent{Kind: domain.EventKindError, Err: err})
}

func (s *streamingSession) run(client *http.Client, req *http.Request) {
	resp, err := client.Do(req)
	if err != nil {
		s.fail(domain.NewTransportError("request failed", err))
		return
	}
	if resp.Body == nil {
		s.fail(domain.NewTransportError("No response body", nil))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, readErr := io.ReadAll(resp.Body)
		if readErr != nil && s.aborted() {
			s.abort()
			return
		}
		s.fail(domain.NewHTTPError(resp.StatusCode, string(payload)))
		return
	}

	s.readStream(resp.Body)
}

// readStream emits deltas in arrival order, then Done at EOF. A final line
// without a trailing newline is still parsed before Done.
func (s *streamingSession) readStream(body io.Reader) {
	var lines lineBuffer
	buf := make([]byte, s.chunkSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range lines.Feed(buf[:n]) {
				if !s.handleLine(line) {
					s.abort()
					return
				}
			}
		}
		if readErr == nil {
			continue
		}

		if s.aborted() {
			s.abort()
			return
		}
		if !errors.Is(readErr, io.EOF) {
			s.fail(domain.NewTransportError("stream read failed", readErr))
			return
		}

		if line, ok := lines.Flush(); ok {
			if !s.handleLine(line) {
				s.abort()
				return
			}
		}
		s.emit(domain.TranslationEvent{Kind: domain.EventKindDone})
		return
	}
}

func (s *streamingSession) handleLine(line string) bool {
	delta, kind := parseLine(line)
	switch kind {
	case lineDelta:
		return s.emit(domain.TranslationEvent{Kind: domain.EventKindChunk, Text: delta})
	case lineMalformed:
		s.logger.Debug("Skipping malformed stream line", zap.Int("length", len(line)))
	}
	return !s.aborted()
}
