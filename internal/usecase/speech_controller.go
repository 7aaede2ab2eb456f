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

var ErrEmptySpeechText = errors.New("nothing to speak")

// SpeechMode selects how synthesized audio reaches the player.
type SpeechMode string

const (
	// SpeechModeStream feeds frames to the player as they are generated.
	SpeechModeStream SpeechMode = "stream"
	// SpeechModeBuffer collects the whole utterance and plays it as one file.
	SpeechModeBuffer SpeechMode = "buffer"
)

// SpeechController plays at most one utterance at a time.
type SpeechController struct {
	synth   ports.SpeechSynthesizer
	player  ports.AudioPlayer
	lexicon ports.PronunciationLexicon
	events  ports.EventSink
	mode    SpeechMode
	logger  *zap.Logger

	opMu sync.Mutex

	mu      sync.Mutex
	current *playback
	state   domain.SpeechState
}

func NewSpeechController(
	synth ports.SpeechSynthesizer,
	player ports.AudioPlayer,
	lexicon ports.PronunciationLexicon,
	events ports.EventSink,
	mode SpeechMode,
	logger *zap.Logger,
) *SpeechController {
	if mode != SpeechModeBuffer {
		mode = SpeechModeStream
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpeechController{
		synth:   synth,
		player:  player,
		lexicon: lexicon,
		events:  events,
		mode:    mode,
		logger:  logger,
		state:   domain.SpeechStateIdle,
	}
}

// Play stops any current playback and starts speaking text.
func (c *SpeechController) Play(ctx context.Context, text string, speed float64) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if strings.TrimSpace(text) == "" {
		return ErrEmptySpeechText
	}

	c.stopCurrent()

	if c.lexicon != nil {
		text = c.lexicon.Apply(text)
	}

	playCtx, cancel := context.WithCancel(ctx)
	p := &playback{id: uuid.NewString(), cancel: cancel}
	logger := c.logger.With(zap.String("speech_id", p.id))

	c.mu.Lock()
	c.current = p
	c.mu.Unlock()
	c.setState(p, domain.SpeechStateLoading)

	stream, err := c.synth.Synthesize(playCtx, text, speed)
	if err != nil {
		logger.Warn("Speech synthesis failed to start", zap.Error(err))
		p.deliver(func() { c.events.SpeechError(err.Error()) })
		c.finish(p)
		return err
	}
	p.setStream(stream)

	logger.Info("Speech started",
		zap.String("mode", string(c.mode)),
		zap.Float64("speed", speed),
		zap.Int("text_length", len(text)),
	)

	p.wg.Go(func() {
		var runErr error
		if c.mode == SpeechModeBuffer {
			runErr = c.runBuffered(playCtx, p, stream)
		} else {
			runErr = c.runStreaming(playCtx, p, stream)
		}
		if runErr != nil {
			_ = stream.Stop()
			if p.deliver(func() { c.events.SpeechError(runErr.Error()) }) {
				logger.Warn("Speech failed", zap.Error(runErr))
			}
		}
		c.finish(p)
	})
	return nil
}

// Stop halts playback and generation. It is a no-op when idle.
func (c *SpeechController) Stop() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.stopCurrent()
}

// State returns the current speech state.
func (c *SpeechController) State() domain.SpeechState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *SpeechController) runStreaming(ctx context.Context, p *playback, stream ports.SpeechStream) error {
	var sink ports.AudioSink
	for frame := range stream.Frames() {
		if sink == nil {
			opened, err := c.player.Open(ctx, frame.SampleRate)
			if err != nil {
				return err
			}
			sink = opened
			p.setSink(sink)
			c.setState(p, domain.SpeechStateSpeaking)
		}
		if err := sink.Write(frame); err != nil {
			return err
		}
	}

	if err := stream.Wait(); err != nil {
		if sink != nil {
			_ = sink.Stop()
		}
		return err
	}
	if sink == nil {
		return nil
	}
	return sink.Drain()
}

func (c *SpeechController) runBuffered(ctx context.Context, p *playback, stream ports.SpeechStream) error {
	var collected domain.AudioFrame
	for frame := range stream.Frames() {
		collected.SampleRate = frame.SampleRate
		collected.PCM = append(collected.PCM, frame.PCM...)
	}
	if err := stream.Wait(); err != nil {
		return err
	}
	if len(collected.PCM) == 0 || p.isAborted() {
		return nil
	}

	c.setState(p, domain.SpeechStateSpeaking)
	if err := c.player.PlayBuffer(ctx, collected); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

func (c *SpeechController) stopCurrent() {
	c.mu.Lock()
	p := c.current
	c.current = nil
	c.mu.Unlock()

	if p == nil {
		return
	}

	p.abort()
	p.wg.Wait()

	c.mu.Lock()
	c.state = domain.SpeechStateIdle
	c.mu.Unlock()
	c.events.SpeechStateChanged(domain.SpeechStateIdle)
	c.logger.Info("Speech stopped", zap.String("speech_id", p.id))
}

func (c *SpeechController) setState(p *playback, state domain.SpeechState) {
	p.deliver(func() {
		c.mu.Lock()
		c.state = state
		c.mu.Unlock()
		c.events.SpeechStateChanged(state)
	})
}

func (c *SpeechController) finish(p *playback) {
	c.mu.Lock()
	owned := c.current == p
	if owned {
		c.current = nil
	}
	c.mu.Unlock()

	if owned {
		c.setState(p, domain.SpeechStateIdle)
	}
	p.cancel()
}

// playback is one utterance. Like activeSession it gates emission so a
// stopped playback stays silent.
type playback struct {
	id     string
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu      sync.Mutex
	aborted bool
	stream  ports.SpeechStream
	sink    ports.AudioSink
}

func (p *playback) deliver(emit func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.aborted {
		return false
	}
	emit()
	return true
}

func (p *playback) isAborted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aborted
}

func (p *playback) setStream(stream ports.SpeechStream) {
	p.mu.Lock()
	p.stream = stream
	p.mu.Unlock()
}

func (p *playback) setSink(sink ports.AudioSink) {
	p.mu.Lock()
	aborted := p.aborted
	p.sink = sink
	p.mu.Unlock()

	if aborted {
		_ = sink.Stop()
	}
}

func (p *playback) abort() {
	p.mu.Lock()
	p.aborted = true
	stream := p.stream
	sink := p.sink
	p.mu.Unlock()

	p.cancel()
	if sink != nil {
		_ = sink.Stop()
	}
	if stream != nil {
		_ = stream.Stop()
	}
}
