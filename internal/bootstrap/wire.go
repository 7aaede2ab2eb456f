package bootstrap

import (
	"net/http"

	"go.uber.org/zap"

	"snaptrans/internal/config"
	"snaptrans/internal/hotkey"
	"snaptrans/internal/lexicon"
	"snaptrans/internal/logging"
	"snaptrans/internal/ports"
	"snaptrans/internal/providers/openai"
	"snaptrans/internal/selection"
	"snaptrans/internal/settings"
	"snaptrans/internal/speech"
	"snaptrans/internal/usecase"
)

// Runtime is the process configuration plus the logger built from it.
type Runtime struct {
	Config config.Config
	Logger *zap.Logger
}

// Platform carries the OS adapters, which need cgo and a desktop session.
type Platform struct {
	Binder     ports.AcceleratorBinder
	Clipboard  ports.ClipboardReadWriter
	Keys       ports.KeyPresser
	Permission ports.PermissionChecker
	Notifier   ports.Notifier
}

// Services is the assembled runtime graph.
type Services struct {
	Config     config.Config
	Logger     *zap.Logger
	Settings   *settings.FileStore
	Translator *usecase.TranslationController
	Models     ports.ModelLister
	Speech     *usecase.SpeechController
	Capture    *selection.Capturer
	Hotkeys    *hotkey.Manager
}

// LoadRuntime resolves configuration and builds the logger.
func LoadRuntime() (Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return Runtime{}, err
	}
	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return Runtime{}, err
	}
	return Runtime{Config: cfg, Logger: logger}, nil
}

// Build wires all backend dependencies for the current runtime.
func Build(rt Runtime, events ports.EventSink, window ports.WindowPresenter, platform Platform) (Services, error) {
	cfg := rt.Config
	logger := rt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lex, err := lexicon.Load(cfg.Speech.LexiconPath)
	if err != nil {
		return Services{}, err
	}

	store := settings.NewFileStore(cfg.Settings.Path, hotkey.Validate, logger.Named("settings"))

	translator := usecase.NewTranslationController(
		openai.NewProvider(openai.Config{
			HTTPClient:    &http.Client{},
			ReadChunkSize: cfg.Translation.ReadChunkSize,
			Logger:        logger.Named("openai"),
		}),
		events,
		logger.Named("translate"),
	)

	models := openai.NewModelLister(&http.Client{Timeout: cfg.Translation.ModelsTimeout}, logger.Named("models"))

	speechController := usecase.NewSpeechController(
		speech.NewCommandSynthesizer(speech.SynthesizerConfig{
			Command:    cfg.Speech.Command,
			Args:       cfg.Speech.Args,
			Model:      cfg.Speech.Model,
			Voice:      cfg.Speech.Voice,
			SampleRate: cfg.Speech.SampleRate,
		}, logger.Named("tts")),
		speech.NewCommandPlayer(speech.PlayerConfig{Command: cfg.Speech.PlayerCommand}, logger.Named("player")),
		lex,
		events,
		usecase.SpeechMode(cfg.Speech.Mode),
		logger.Named("speech"),
	)

	notifier := platform.Notifier
	if !cfg.Selection.Notify {
		notifier = nil
	}
	capture := selection.NewCapturer(
		platform.Clipboard,
		platform.Keys,
		platform.Permission,
		notifier,
		cfg.Selection.CaptureDelay,
		logger.Named("selection"),
	)

	hotkeys := hotkey.NewManager(platform.Binder, capture, window, events, logger.Named("hotkey"))

	logger.Info("Services assembled",
		zap.String("settings_file", cfg.Settings.Path),
		zap.String("speech_mode", cfg.Speech.Mode),
		zap.Int("lexicon_entries", lex.Len()),
	)

	return Services{
		Config:     cfg,
		Logger:     logger,
		Settings:   store,
		Translator: translator,
		Models:     models,
		Speech:     speechController,
		Capture:    capture,
		Hotkeys:    hotkeys,
	}, nil
}
