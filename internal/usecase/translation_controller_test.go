package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"snaptrans/internal/domain"
)

func configuredSettings() domain.Settings {
	settings := domain.DefaultSettings()
	settings.APIKey = "sk-test"
	return settings
}

func chunk(text string) domain.TranslationEvent {
	return domain.TranslationEvent{Kind: domain.EventKindChunk, Text: text}
}

func done() domain.TranslationEvent {
	return domain.TranslationEvent{Kind: domain.EventKindDone}
}

func TestTranslationControllerStreamsChunksThenDone(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	provider := &fakeProvider{steps: []fakeStep{{events: []domain.TranslationEvent{chunk("こ"), chunk("んにちは"), done()}}}}
	events := &fakeEventSink{}
	controller := NewTranslationController(provider, events, zap.New(core))

	err := controller.Start(context.Background(), domain.TranslateRequest{Text: "hello", Direction: domain.DirectionEnToJa}, configuredSettings())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, func() bool { return len(events.snapshotStates()) == 3 })

	if got := events.snapshotChunks(); !reflect.DeepEqual(got, []string{"こ", "んにちは"}) {
		t.Fatalf("unexpected chunks: %#v", got)
	}
	if events.snapshotDone() != 1 {
		t.Fatalf("expected exactly one done event, got %d", events.snapshotDone())
	}
	if len(events.snapshotErrors()) != 0 {
		t.Fatalf("expected no error events")
	}

	wantStates := []domain.SessionState{domain.SessionStateRequesting, domain.SessionStateStreaming, domain.SessionStateDone}
	if got := events.snapshotStates(); !reflect.DeepEqual(got, wantStates) {
		t.Fatalf("unexpected states: %v", got)
	}
	if controller.LastResult() != "こんにちは" {
		t.Fatalf("unexpected last result: %q", controller.LastResult())
	}
	if status := controller.Status(); status.State != domain.SessionStateDone {
		t.Fatalf("unexpected final status: %+v", status)
	}

	requests := provider.snapshotRequests()
	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	req := requests[0]
	if req.SystemPrompt != domain.DefaultSystemPrompt+"\nTranslate from English to Japanese." {
		t.Fatalf("unexpected system prompt: %q", req.SystemPrompt)
	}
	if req.UserText != "hello" || req.APIKey != "sk-test" || req.Model != domain.DefaultModel {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Temperature != TranslationTemperature {
		t.Fatalf("unexpected temperature: %v", req.Temperature)
	}

	started := logs.FilterMessage("Translation started").All()
	if len(started) != 1 {
		t.Fatalf("expected one start log, got %d", len(started))
	}
	if _, ok := started[0].ContextMap()["session_id"]; !ok {
		t.Fatalf("expected session_id on start log")
	}
}

func TestTranslationControllerUnconfiguredSkipsProvider(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	events := &fakeEventSink{}
	controller := NewTranslationController(provider, events, nil)

	err := controller.Start(context.Background(), domain.TranslateRequest{Text: "x", Direction: domain.DirectionJaToEn}, domain.DefaultSettings())

	var translateErr *domain.TranslateError
	if !errors.As(err, &translateErr) || translateErr.Kind != domain.ErrorKindUnconfigured {
		t.Fatalf("expected unconfigured error, got %v", err)
	}
	if len(provider.snapshotRequests()) != 0 {
		t.Fatalf("expected zero provider calls")
	}
	errorsGot := events.snapshotErrors()
	if len(errorsGot) != 1 || errorsGot[0].Message != domain.UnconfiguredMessage {
		t.Fatalf("expected one unconfigured event, got %+v", errorsGot)
	}
}

func TestTranslationControllerUnconfiguredKeepsActiveSession(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{steps: []fakeStep{{events: []domain.TranslationEvent{chunk("a")}, hold: true}}}
	events := &fakeEventSink{}
	controller := NewTranslationController(provider, events, nil)

	if err := controller.Start(context.Background(), domain.TranslateRequest{Text: "x", Direction: domain.DirectionJaToEn}, configuredSettings()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, func() bool { return len(events.snapshotChunks()) == 1 })

	_ = controller.Start(context.Background(), domain.TranslateRequest{Text: "y", Direction: domain.DirectionJaToEn}, domain.DefaultSettings())

	if !controller.Status().Active {
		t.Fatalf("expected first session to stay active")
	}
	if err := controller.Cancel(); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
}

func TestTranslationControllerInvalidDirection(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	events := &fakeEventSink{}
	controller := NewTranslationController(provider, events, nil)

	err := controller.Start(context.Background(), domain.TranslateRequest{Text: "x", Direction: "fr-to-de"}, configuredSettings())
	var translateErr *domain.TranslateError
	if !errors.As(err, &translateErr) || translateErr.Kind != domain.ErrorKindInvalidRequest {
		t.Fatalf("expected invalid request error, got %v", err)
	}
	if len(provider.snapshotRequests()) != 0 {
		t.Fatalf("expected zero provider calls")
	}
}

func TestTranslationControllerSupersedesActiveSession(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{steps: []fakeStep{
		{events: []domain.TranslationEvent{chunk("old")}, hold: true},
		{events: []domain.TranslationEvent{chunk("new"), done()}},
	}}
	events := &fakeEventSink{}
	controller := NewTranslationController(provider, events, nil)
	req := domain.TranslateRequest{Text: "x", Direction: domain.DirectionJaToEn}

	if err := controller.Start(context.Background(), req, configuredSettings()); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	waitFor(t, func() bool { return len(events.snapshotChunks()) == 1 })

	if err := controller.Start(context.Background(), req, configuredSettings()); err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if provider.contextAt(0).Err() == nil {
		t.Fatalf("expected first session context to be cancelled")
	}

	waitFor(t, func() bool { return events.snapshotDone() == 1 })

	if got := events.snapshotChunks(); !reflect.DeepEqual(got, []string{"old", "new"}) {
		t.Fatalf("unexpected chunks: %#v", got)
	}
	if len(events.snapshotErrors()) != 0 {
		t.Fatalf("superseded session must not report errors")
	}
	if controller.LastResult() != "new" {
		t.Fatalf("unexpected last result: %q", controller.LastResult())
	}

	states := events.snapshotStates()
	if states[2] != domain.SessionStateAborted {
		t.Fatalf("expected aborted state for the superseded session, got %v", states)
	}
}

func TestTranslationControllerCancelIsSilent(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{steps: []fakeStep{{hold: true}}}
	events := &fakeEventSink{}
	controller := NewTranslationController(provider, events, nil)

	if err := controller.Start(context.Background(), domain.TranslateRequest{Text: "x", Direction: domain.DirectionJaToEn}, configuredSettings()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := controller.Cancel(); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if events.snapshotDone() != 0 || len(events.snapshotErrors()) != 0 {
		t.Fatalf("cancel must not surface done or error events")
	}
	status := controller.Status()
	if status.Active || status.State != domain.SessionStateIdle {
		t.Fatalf("unexpected status after cancel: %+v", status)
	}
	if err := controller.Cancel(); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestTranslationControllerForwardsStreamError(t *testing.T) {
	t.Parallel()

	httpErr := domain.NewHTTPError(401, "invalid key")
	provider := &fakeProvider{steps: []fakeStep{{events: []domain.TranslationEvent{{Kind: domain.EventKindError, Err: httpErr}}}}}
	events := &fakeEventSink{}
	controller := NewTranslationController(provider, events, nil)

	if err := controller.Start(context.Background(), domain.TranslateRequest{Text: "x", Direction: domain.DirectionJaToEn}, configuredSettings()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, func() bool { return len(events.snapshotStates()) == 2 })

	errorsGot := events.snapshotErrors()
	if len(errorsGot) != 1 || errorsGot[0].Message != "API error (401): invalid key" {
		t.Fatalf("unexpected errors: %+v", errorsGot)
	}
	if events.snapshotDone() != 0 {
		t.Fatalf("expected no done event")
	}
	states := events.snapshotStates()
	if states[len(states)-1] != domain.SessionStateError {
		t.Fatalf("expected error state, got %v", states)
	}
}

func TestTranslationControllerProviderStartFailure(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{err: errors.New("dial failed")}
	events := &fakeEventSink{}
	controller := NewTranslationController(provider, events, nil)

	err := controller.Start(context.Background(), domain.TranslateRequest{Text: "x", Direction: domain.DirectionJaToEn}, configuredSettings())
	if err == nil {
		t.Fatalf("expected start error")
	}

	errorsGot := events.snapshotErrors()
	if len(errorsGot) != 1 || errorsGot[0].Kind != domain.ErrorKindTransport {
		t.Fatalf("expected one transport error, got %+v", errorsGot)
	}
	if controller.Status().Active {
		t.Fatalf("expected no active session")
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	t.Parallel()

	got := BuildSystemPrompt("base", domain.DirectionJaToEn)
	if got != "base\nTranslate from Japanese to English." {
		t.Fatalf("unexpected prompt: %q", got)
	}
}
