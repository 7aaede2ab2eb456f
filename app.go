package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"snaptrans/internal/bootstrap"
	"snaptrans/internal/domain"
	"snaptrans/internal/hotkey"
	"snaptrans/internal/platform"
	"snaptrans/internal/ports"
	"snaptrans/internal/usecase"
)

const (
	eventTranslateChunk = "translate:chunk"
	eventTranslateDone  = "translate:done"
	eventTranslateError = "translate:error"
	eventTranslateState = "translate:state"
	eventSelectionText  = "selection:text"
	eventSpeechState    = "speech:state"
	eventSpeechError    = "speech:error"
	eventStartupError   = "app:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	services  bootstrap.Services
	ready     bool
	bootErr   error
	logger    *zap.Logger
	clipboard ports.Clipboard

	// emit is swapped in tests; it defaults to the Wails event bus.
	emit func(event string, payload ...interface{})
}

func NewApp() *App {
	a := &App{logger: zap.NewNop(), clipboard: &wailsClipboard{}}
	a.emit = a.emitRuntime
	return a
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	rt, err := bootstrap.LoadRuntime()
	if err != nil {
		a.fail(err)
		return
	}

	services, err := bootstrap.Build(rt, a, a, bootstrap.Platform{
		Binder:     platform.NewGlobalBinder(rt.Logger.Named("binder")),
		Clipboard:  platform.NewSystemClipboard(),
		Keys:       platform.NewCopyPresser(),
		Permission: platform.NewAccessibilityChecker(),
		Notifier:   platform.NewDesktopNotifier(""),
	})
	if err != nil {
		a.fail(err)
		return
	}
	a.attach(services)

	services.Capture.EnsureAccessibility()
	if err := services.Hotkeys.Register(services.Settings.Load().ShortcutKey); err != nil {
		a.logger.Warn("Global shortcut unavailable", zap.Error(err))
	}
	a.logger.Info("snaptrans started")
}

func (a *App) shutdown(_ context.Context) {
	if !a.ready {
		return
	}
	a.services.Hotkeys.Close()
	a.services.Speech.Stop()
	_ = a.services.Translator.Cancel()
	_ = a.logger.Sync()
}

func (a *App) attach(services bootstrap.Services) {
	a.services = services
	a.logger = services.Logger
	a.ready = true
}

func (a *App) fail(err error) {
	a.bootErr = err
	a.emit(eventStartupError, map[string]string{"message": err.Error()})
}

// TranslateStart begins a translation. Failures arrive as translate:error events.
func (a *App) TranslateStart(req domain.TranslateRequest) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.Translator.Start(a.context(), req, a.services.Settings.Load()); err != nil {
		a.logger.Debug("Translation not started", zap.Error(err))
	}
	return nil
}

// TranslateCancel aborts the active translation, if any.
func (a *App) TranslateCancel() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.Translator.Cancel(); err != nil && !errors.Is(err, usecase.ErrNoActiveSession) {
		return err
	}
	return nil
}

// SettingsGet returns the stored settings merged over defaults.
func (a *App) SettingsGet() (domain.Settings, error) {
	if err := a.requireReady(); err != nil {
		return domain.DefaultSettings(), err
	}
	return a.services.Settings.Load(), nil
}

// SettingsSet validates and persists settings, then re-registers the shortcut.
func (a *App) SettingsSet(settings domain.Settings) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.services.Settings.Save(settings); err != nil {
		return err
	}
	if err := a.services.Hotkeys.Register(settings.ShortcutKey); err != nil {
		return fmt.Errorf("settings saved but the shortcut could not be registered: %w", err)
	}
	return nil
}

// ModelsGet lists the models offered by endpoint.
func (a *App) ModelsGet(endpoint string, apiKey string) ([]domain.ModelInfo, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Models.ListModels(a.context(), endpoint, apiKey)
}

// ClipboardCopy writes text to the system clipboard.
func (a *App) ClipboardCopy(text string) error {
	return a.clipboard.SetText(a.context(), text)
}

// ShortcutSuspend removes the global shortcut while the UI records a new one.
func (a *App) ShortcutSuspend() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Hotkeys.Suspend()
	return nil
}

// ShortcutResume reinstates the global shortcut.
func (a *App) ShortcutResume() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Hotkeys.Resume()
}

// SpeakStart speaks text, or the last translation when text is blank.
func (a *App) SpeakStart(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		text = a.services.Translator.LastResult()
	}
	return a.services.Speech.Play(a.context(), text, a.services.Settings.Load().TTSSpeed)
}

// SpeakStop halts speech playback.
func (a *App) SpeakStop() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Speech.Stop()
	return nil
}

// GetStatus returns the current translation status.
func (a *App) GetStatus() domain.Status {
	if !a.ready {
		if a.bootErr != nil {
			return domain.Status{State: domain.SessionStateError, Active: false, Message: a.bootErr.Error()}
		}
		return domain.Status{State: domain.SessionStateIdle, Active: false}
	}
	return a.services.Translator.Status()
}

// GetShortcutLabels returns display glyphs for the configured shortcut.
func (a *App) GetShortcutLabels() []string {
	if !a.ready {
		return hotkey.Labels(domain.DefaultShortcutKey)
	}
	return hotkey.Labels(a.services.Settings.Load().ShortcutKey)
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	if !a.ready {
		return map[string]string{}
	}

	cfg := a.services.Config
	current := a.services.Settings.Load()
	return map[string]string{
		"endpoint":         current.APIEndpoint,
		"model":            current.Model,
		"apiKeyConfigured": strconv.FormatBool(strings.TrimSpace(current.APIKey) != ""),
		"settingsFile":     cfg.Settings.Path,
		"speechMode":       cfg.Speech.Mode,
		"ttsCommand":       cfg.Speech.Command,
		"playerCommand":    cfg.Speech.PlayerCommand,
		"lexiconFile":      cfg.Speech.LexiconPath,
		"shortcutBound":    strconv.FormatBool(a.services.Hotkeys.Bound()),
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if !a.ready {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

func (a *App) context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// Show brings the window to the front.
func (a *App) Show() {
	if a.ctx == nil {
		return
	}
	runtime.WindowUnminimise(a.ctx)
	runtime.WindowShow(a.ctx)
}

// SessionStateChanged emits translation lifecycle updates.
func (a *App) SessionStateChanged(sessionID string, state domain.SessionState) {
	a.emit(eventTranslateState, map[string]string{
		"sessionId": sessionID,
		"state":     string(state),
	})
}

// TranslateChunk emits one translated text fragment.
func (a *App) TranslateChunk(text string) {
	a.emit(eventTranslateChunk, text)
}

// TranslateDone emits the end of a successful translation.
func (a *App) TranslateDone() {
	a.emit(eventTranslateDone)
}

// TranslateError emits the single error of a failed translation.
func (a *App) TranslateError(err *domain.TranslateError) {
	a.emit(eventTranslateError, translateErrorPayload(err))
}

// SelectionText delivers captured text to the UI.
func (a *App) SelectionText(text string) {
	a.emit(eventSelectionText, text)
}

// SpeechStateChanged emits speech playback updates.
func (a *App) SpeechStateChanged(state domain.SpeechState) {
	a.emit(eventSpeechState, string(state))
}

// SpeechError emits a speech failure.
func (a *App) SpeechError(detail string) {
	a.emit(eventSpeechError, map[string]string{"message": detail})
}

func (a *App) emitRuntime(event string, payload ...interface{}) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, event, payload...)
}

func translateErrorPayload(err *domain.TranslateError) map[string]interface{} {
	if err == nil {
		return map[string]interface{}{"kind": "unknown", "message": "Unknown error"}
	}
	payload := map[string]interface{}{
		"kind":    string(err.Kind),
		"message": err.Error(),
	}
	if err.StatusCode != 0 {
		payload["status"] = err.StatusCode
	}
	if err.Kind == domain.ErrorKindUnconfigured {
		payload["openSettings"] = true
	}
	return payload
}

type wailsClipboard struct{}

func (c *wailsClipboard) SetText(ctx context.Context, text string) error {
	return runtime.ClipboardSetText(ctx, text)
}
