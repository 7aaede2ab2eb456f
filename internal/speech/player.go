package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"snaptrans/internal/domain"
	"snaptrans/internal/ports"
)

// PlayerConfig describes the audio player command.
type PlayerConfig struct {
	Command    string
	StreamArgs []string
	FileArgs   []string
	TempDir    string
}

// CommandPlayer plays audio through an external player such as ffplay.
type CommandPlayer struct {
	cfg    PlayerConfig
	logger *zap.Logger
}

func DefaultStreamArgs() []string {
	return []string{
		"-nodisp", "-autoexit",
		"-loglevel", "warning",
		"-f", "s16le",
		"-ar", "{rate}",
		"-ch_layout", "mono",
		"-i", "-",
	}
}

func DefaultFileArgs() []string {
	return []string{"-nodisp", "-autoexit", "-loglevel", "warning", "{file}"}
}

func NewCommandPlayer(cfg PlayerConfig, logger *zap.Logger) *CommandPlayer {
	if cfg.Command == "" {
		cfg.Command = "ffplay"
	}
	if len(cfg.StreamArgs) == 0 {
		cfg.StreamArgs = DefaultStreamArgs()
	}
	if len(cfg.FileArgs) == 0 {
		cfg.FileArgs = DefaultFileArgs()
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandPlayer{cfg: cfg, logger: logger}
}

// Open starts a player fed incrementally through stdin.
func (p *CommandPlayer) Open(ctx context.Context, sampleRate int) (ports.AudioSink, error) {
	args := expandArgs(p.cfg.StreamArgs, map[string]string{"rate": strconv.Itoa(sampleRate)})
	cmd := exec.CommandContext(ctx, p.cfg.Command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create player stdin pipe: %w", err)
	}
	proc, err := startProcess(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to start audio player: %w", err)
	}

	return &pipeSink{stdin: stdin, proc: proc}, nil
}

// PlayBuffer writes the audio to a temporary WAV file and plays it to completion.
func (p *CommandPlayer) PlayBuffer(ctx context.Context, audio domain.AudioFrame) error {
	path := filepath.Join(p.cfg.TempDir, "snaptrans_"+uuid.NewString()+".wav")
	if err := writeWAV(path, audio); err != nil {
		return err
	}
	defer os.Remove(path)

	args := expandArgs(p.cfg.FileArgs, map[string]string{"file": path})
	proc, err := startProcess(exec.CommandContext(ctx, p.cfg.Command, args...))
	if err != nil {
		return fmt.Errorf("failed to start audio player: %w", err)
	}

	select {
	case <-proc.done:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := proc.wait(); err != nil {
			return fmt.Errorf("audio player failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		_ = proc.stop()
		return ctx.Err()
	}
}

type pipeSink struct {
	stdin io.WriteCloser
	proc  *process
}

func (s *pipeSink) Write(frame domain.AudioFrame) error {
	if _, err := s.stdin.Write(frame.PCM); err != nil {
		return fmt.Errorf("failed to write audio frame: %w", err)
	}
	return nil
}

// Drain closes the input and waits for the player to finish the queued audio.
func (s *pipeSink) Drain() error {
	_ = s.stdin.Close()
	if err := s.proc.wait(); err != nil {
		return fmt.Errorf("audio player failed: %w", err)
	}
	return nil
}

func (s *pipeSink) Stop() error {
	_ = s.stdin.Close()
	return s.proc.stop()
}
