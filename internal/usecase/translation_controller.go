package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"snaptrans/internal/domain"
	"snaptrans/internal/ports"
)

// TranslationTemperature is the fixed sampling temperature for translations.
const TranslationTemperature = 0.2

var ErrNoActiveSession = errors.New("no active translation session")

// TranslationController runs at most one streaming translation at a time.
// Starting a new session aborts the previous one before the new request is issued.
type TranslationController struct {
	provider ports.TranslationProvider
	events   ports.EventSink
	logger   *zap.Logger

	// opMu serializes Start and Cancel so replacement is atomic.
	opMu sync.Mutex

	mu         sync.Mutex
	current    *activeSession
	lastResult string
	lastState  domain.SessionState
}

func NewTranslationController(provider ports.TranslationProvider, events ports.EventSink, logger *zap.Logger) *TranslationController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranslationController{
		provider:  provider,
		events:    events,
		logger:    logger,
		lastState: domain.SessionStateIdle,
	}
}

// BuildSystemPrompt appends the direction hint to the configured prompt.
func BuildSystemPrompt(base string, direction domain.Direction) string {
	return base + "\n" + direction.Hint()
}

// Start begins a new translation session, superseding any active one.
// It returns once the request has been handed to the provider; events arrive
// asynchronously on the EventSink.
func (c *TranslationController) Start(ctx context.Context, req domain.TranslateRequest, settings domain.Settings) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if strings.TrimSpace(settings.APIKey) == "" {
		err := domain.NewUnconfiguredError()
		c.events.TranslateError(err)
		return err
	}
	if !req.Direction.Valid() {
		err := &domain.TranslateError{Kind: domain.ErrorKindInvalidRequest, Message: "unsupported translation direction: " + string(req.Direction)}
		c.events.TranslateError(err)
		return err
	}

	c.cancelCurrent()

	sessionCtx, cancel := context.WithCancel(ctx)
	active := newActiveSession(uuid.NewString(), cancel)

	c.mu.Lock()
	c.current = active
	c.lastResult = ""
	c.lastState = domain.SessionStateRequesting
	c.mu.Unlock()

	logger := c.logger.With(zap.String("session_id", active.id))
	logger.Info("Translation started",
		zap.String("direction", string(req.Direction)),
		zap.String("model", settings.Model),
		zap.Int("input_length", len(req.Text)),
	)
	c.events.SessionStateChanged(active.id, domain.SessionStateRequesting)

	stream, err := c.provider.StartStreaming(sessionCtx, ports.ChatRequest{
		Endpoint:     settings.APIEndpoint,
		APIKey:       settings.APIKey,
		Model:        settings.Model,
		SystemPrompt: BuildSystemPrompt(settings.SystemPrompt, req.Direction),
		UserText:     req.Text,
		Temperature:  TranslationTemperature,
	})
	if err != nil {
		translateErr := asTranslateError(err)
		active.deliver(func() {
			c.events.TranslateError(translateErr)
		})
		c.finishSession(active, domain.SessionStateError, logger)
		return err
	}

	active.wg.Go(func() {
		c.forward(active, stream, logger)
	})
	return nil
}

// Cancel aborts the active session silently.
func (c *TranslationController) Cancel() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if !c.cancelCurrent() {
		return ErrNoActiveSession
	}
	return nil
}

func (c *TranslationController) cancelCurrent() bool {
	c.mu.Lock()
	active := c.current
	c.current = nil
	c.mu.Unlock()

	if active == nil {
		return false
	}

	active.abort()
	active.wait()

	c.mu.Lock()
	if c.current == nil {
		c.lastState = domain.SessionStateIdle
	}
	c.mu.Unlock()

	c.events.SessionStateChanged(active.id, domain.SessionStateAborted)
	c.logger.Info("Translation aborted", zap.String("session_id", active.id))
	return true
}

// Status returns the current session status.
func (c *TranslationController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return domain.Status{State: c.lastState, Active: false}
	}
	return domain.Status{State: c.lastState, Active: true, SessionID: c.current.id}
}

// LastResult returns the text accumulated by the most recent session.
func (c *TranslationController) LastResult() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResult
}

func (c *TranslationController) forward(active *activeSession, stream ports.TranslationStream, logger *zap.Logger) {
	streaming := false
	final := domain.SessionStateAborted

	for event := range stream.Events() {
		switch event.Kind {
		case domain.EventKindChunk:
			if !streaming {
				streaming = true
				c.setState(active, domain.SessionStateStreaming)
			}
			active.deliver(func() {
				c.appendResult(active, event.Text)
				c.events.TranslateChunk(event.Text)
			})
		case domain.EventKindDone:
			if active.deliver(c.events.TranslateDone) {
				final = domain.SessionStateDone
			}
		case domain.EventKindError:
			if active.deliver(func() { c.events.TranslateError(event.Err) }) {
				final = domain.SessionStateError
				logger.Warn("Translation failed",
					zap.String("kind", string(event.Err.Kind)),
					zap.Int("status", event.Err.StatusCode),
					zap.Error(event.Err),
				)
			}
		}
	}

	_ = stream.Wait()
	if final != domain.SessionStateAborted {
		logger.Info("Translation finished", zap.String("state", string(final)))
		c.finishSession(active, final, logger)
	}
}

func (c *TranslationController) setState(active *activeSession, state domain.SessionState) {
	c.mu.Lock()
	if c.current == active {
		c.lastState = state
	}
	c.mu.Unlock()

	active.deliver(func() {
		c.events.SessionStateChanged(active.id, state)
	})
}

func (c *TranslationController) appendResult(active *activeSession, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == active {
		c.lastResult += text
	}
}

func (c *TranslationController) finishSession(active *activeSession, state domain.SessionState, logger *zap.Logger) {
	c.mu.Lock()
	owned := c.current == active
	if owned {
		c.current = nil
		c.lastState = state
	}
	c.mu.Unlock()

	if !owned {
		return
	}
	active.deliver(func() {
		c.events.SessionStateChanged(active.id, state)
	})
	active.cancel()
	logger.Debug("Translation session released")
}

func asTranslateError(err error) *domain.TranslateError {
	var translateErr *domain.TranslateError
	if errors.As(err, &translateErr) {
		return translateErr
	}
	return domain.NewTransportError("failed to start translation", err)
}

// activeSession is the handle of one in-flight translation. The emission gate
// guarantees nothing reaches the sink once abort has returned.
type activeSession struct {
	id     string
	cancel context.CancelFunc
	wg     conc.WaitGroup

	gateMu  sync.Mutex
	aborted bool
}

func newActiveSession(id string, cancel context.CancelFunc) *activeSession {
	return &activeSession{id: id, cancel: cancel}
}

// deliver runs emit unless the session was aborted, reporting whether it ran.
func (s *activeSession) deliver(emit func()) bool {
	s.gateMu.Lock()
	defer s.gateMu.Unlock()
	if s.aborted {
		return false
	}
	emit()
	return true
}

func (s *activeSession) abort() {
	s.gateMu.Lock()
	s.aborted = true
	s.gateMu.Unlock()
	s.cancel()
}

func (s *activeSession) wait() {
	s.wg.Wait()
}
