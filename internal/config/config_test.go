package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func isolateEnv(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, key := range []string{
		"SNAPTRANS_LOG_LEVEL", "SNAPTRANS_LOG_FILE", "SNAPTRANS_SETTINGS_FILE",
		"SNAPTRANS_READ_CHUNK_SIZE", "SNAPTRANS_MODELS_TIMEOUT_MS", "SNAPTRANS_CAPTURE_DELAY_MS",
		"SNAPTRANS_NOTIFY", "SNAPTRANS_TTS_COMMAND", "SNAPTRANS_TTS_ARGS", "SNAPTRANS_TTS_MODEL",
		"SNAPTRANS_TTS_VOICE", "SNAPTRANS_TTS_SAMPLE_RATE", "SNAPTRANS_TTS_MODE",
		"SNAPTRANS_PLAYER_COMMAND", "SNAPTRANS_LEXICON_FILE",
	} {
		t.Setenv(key, "")
	}

	// godotenv reads .env from the working directory; keep the test hermetic.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(home); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		t.Fatalf("user config dir: %v", err)
	}
	appDir := filepath.Join(configDir, "snaptrans")

	if cfg.Logging.Level != "info" || cfg.Logging.File != "" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Settings.Path != filepath.Join(appDir, "settings.json") {
		t.Fatalf("unexpected settings path: %q", cfg.Settings.Path)
	}
	if cfg.Translation.ReadChunkSize != 4096 || cfg.Translation.ModelsTimeout != 15*time.Second {
		t.Fatalf("unexpected translation config: %+v", cfg.Translation)
	}
	if cfg.Selection.CaptureDelay != 200*time.Millisecond || !cfg.Selection.Notify {
		t.Fatalf("unexpected selection config: %+v", cfg.Selection)
	}
	if cfg.Speech.Command != "piper" || cfg.Speech.Mode != "stream" || cfg.Speech.SampleRate != 22050 {
		t.Fatalf("unexpected speech config: %+v", cfg.Speech)
	}
	if cfg.Speech.PlayerCommand != "ffplay" || cfg.Speech.LexiconPath != filepath.Join(appDir, "lexicon.txt") {
		t.Fatalf("unexpected speech paths: %+v", cfg.Speech)
	}
	if len(cfg.Speech.Args) != 0 {
		t.Fatalf("expected default args to be left to the synthesizer, got %#v", cfg.Speech.Args)
	}
}

func TestLoadRespectsOverridesAndFallbacks(t *testing.T) {
	home := isolateEnv(t)

	t.Setenv("SNAPTRANS_LOG_LEVEL", "debug")
	t.Setenv("SNAPTRANS_LOG_FILE", filepath.Join(home, "app.log"))
	t.Setenv("SNAPTRANS_SETTINGS_FILE", filepath.Join(home, "s.json"))
	t.Setenv("SNAPTRANS_READ_CHUNK_SIZE", "100")
	t.Setenv("SNAPTRANS_MODELS_TIMEOUT_MS", "2500")
	t.Setenv("SNAPTRANS_CAPTURE_DELAY_MS", "-5")
	t.Setenv("SNAPTRANS_NOTIFY", "off")
	t.Setenv("SNAPTRANS_TTS_COMMAND", "my-tts")
	t.Setenv("SNAPTRANS_TTS_ARGS", "--voice {voice} --rate {rate}")
	t.Setenv("SNAPTRANS_TTS_VOICE", "alba")
	t.Setenv("SNAPTRANS_TTS_SAMPLE_RATE", "16000")
	t.Setenv("SNAPTRANS_TTS_MODE", "BUFFER")
	t.Setenv("SNAPTRANS_PLAYER_COMMAND", "aplay")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.File != filepath.Join(home, "app.log") {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Settings.Path != filepath.Join(home, "s.json") {
		t.Fatalf("unexpected settings path: %q", cfg.Settings.Path)
	}
	if cfg.Translation.ReadChunkSize != 4096 {
		t.Fatalf("expected chunk size floor fallback, got %d", cfg.Translation.ReadChunkSize)
	}
	if cfg.Translation.ModelsTimeout != 2500*time.Millisecond {
		t.Fatalf("unexpected models timeout: %v", cfg.Translation.ModelsTimeout)
	}
	if cfg.Selection.CaptureDelay != 200*time.Millisecond || cfg.Selection.Notify {
		t.Fatalf("unexpected selection config: %+v", cfg.Selection)
	}
	if cfg.Speech.Command != "my-tts" || cfg.Speech.Voice != "alba" || cfg.Speech.SampleRate != 16000 {
		t.Fatalf("unexpected speech config: %+v", cfg.Speech)
	}
	if !reflect.DeepEqual(cfg.Speech.Args, []string{"--voice", "{voice}", "--rate", "{rate}"}) {
		t.Fatalf("unexpected speech args: %#v", cfg.Speech.Args)
	}
	if cfg.Speech.Mode != "buffer" || cfg.Speech.PlayerCommand != "aplay" {
		t.Fatalf("unexpected speech mode/player: %+v", cfg.Speech)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	home := isolateEnv(t)

	if err := os.WriteFile(filepath.Join(home, ".env"), []byte("SNAPTRANS_TTS_MODE=buffer\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	os.Unsetenv("SNAPTRANS_TTS_MODE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Speech.Mode != "buffer" {
		t.Fatalf("expected .env value, got %q", cfg.Speech.Mode)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	t.Setenv("SNAPTRANS_TEST_BOOL", "maybe")
	if !envOrDefaultBool("SNAPTRANS_TEST_BOOL", true) {
		t.Fatalf("expected fallback for unknown value")
	}
	t.Setenv("SNAPTRANS_TEST_BOOL", "YES")
	if !envOrDefaultBool("SNAPTRANS_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
}
