package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"snaptrans/internal/domain"
	"snaptrans/internal/ports"
)

var errStreamStopped = errors.New("speech stream stopped")

// SynthesizerConfig describes the local TTS command.
type SynthesizerConfig struct {
	Command    string
	Args       []string
	Model      string
	Voice      string
	SampleRate int
	// FrameSize is the number of PCM bytes per emitted frame.
	FrameSize int
}

// CommandSynthesizer runs a local TTS model as a subprocess. The command reads
// text on stdin and writes raw s16le mono PCM on stdout.
type CommandSynthesizer struct {
	cfg    SynthesizerConfig
	logger *zap.Logger
}

func DefaultSynthesizerArgs() []string {
	return []string{"--model", "{model}", "--output-raw", "--length_scale", "{length_scale}"}
}

func NewCommandSynthesizer(cfg SynthesizerConfig, logger *zap.Logger) *CommandSynthesizer {
	if cfg.Command == "" {
		cfg.Command = "piper"
	}
	if len(cfg.Args) == 0 {
		cfg.Args = DefaultSynthesizerArgs()
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 22050
	}
	if cfg.FrameSize <= 0 {
		// 100ms of mono 16-bit audio.
		cfg.FrameSize = cfg.SampleRate / 10 * 2
	}
	if cfg.FrameSize%2 != 0 {
		cfg.FrameSize++
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandSynthesizer{cfg: cfg, logger: logger}
}

func (s *CommandSynthesizer) Synthesize(ctx context.Context, text string, speed float64) (ports.SpeechStream, error) {
	if speed <= 0 {
		speed = domain.DefaultTTSSpeed
	}

	args := expandArgs(s.cfg.Args, map[string]string{
		"model":        s.cfg.Model,
		"voice":        s.cfg.Voice,
		"speed":        formatFloat(speed),
		"length_scale": formatFloat(1 / speed),
		"rate":         strconv.Itoa(s.cfg.SampleRate),
	})

	cmd := exec.CommandContext(ctx, s.cfg.Command, args...)
	cmd.Stdin = strings.NewReader(text + "\n")

	stream := &commandStream{
		frames:     make(chan domain.AudioFrame, 16),
		quit:       make(chan struct{}),
		sampleRate: s.cfg.SampleRate,
	}
	writer := &frameWriter{stream: stream, frameSize: s.cfg.FrameSize}
	cmd.Stdout = writer

	proc, err := startProcess(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to start TTS command: %w", err)
	}
	stream.proc = proc

	s.logger.Debug("TTS command started",
		zap.String("command", s.cfg.Command),
		zap.Float64("speed", speed),
		zap.Int("text_length", len(text)),
	)

	go func() {
		<-proc.done
		writer.flush()
		close(stream.frames)
	}()

	return stream, nil
}

type commandStream struct {
	proc       *process
	frames     chan domain.AudioFrame
	quit       chan struct{}
	sampleRate int

	quitOnce sync.Once
}

func (s *commandStream) Frames() <-chan domain.AudioFrame {
	return s.frames
}

func (s *commandStream) Wait() error {
	err := s.proc.wait()
	select {
	case <-s.quit:
		return nil
	default:
	}
	if err != nil {
		return fmt.Errorf("TTS command failed: %w", err)
	}
	return nil
}

func (s *commandStream) Stop() error {
	s.quitOnce.Do(func() {
		close(s.quit)
	})
	return s.proc.stop()
}

func (s *commandStream) send(pcm []byte) error {
	select {
	case s.frames <- domain.AudioFrame{PCM: pcm, SampleRate: s.sampleRate}:
		return nil
	case <-s.quit:
		return errStreamStopped
	}
}

// frameWriter slices the command's stdout into fixed-size frames.
type frameWriter struct {
	stream    *commandStream
	frameSize int
	pending   []byte
}

func (w *frameWriter) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)
	for len(w.pending) >= w.frameSize {
		frame := make([]byte, w.frameSize)
		copy(frame, w.pending[:w.frameSize])
		w.pending = w.pending[w.frameSize:]
		if err := w.stream.send(frame); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// flush emits the trailing partial frame, trimmed to whole samples.
func (w *frameWriter) flush() {
	n := len(w.pending) - len(w.pending)%2
	if n == 0 {
		return
	}
	frame := make([]byte, n)
	copy(frame, w.pending[:n])
	w.pending = nil
	_ = w.stream.send(frame)
}
