package platform

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.design/x/hotkey"

	shortcut "snaptrans/internal/hotkey"
)

var keyCodes = map[string]hotkey.Key{
	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD,
	"E": hotkey.KeyE, "F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH,
	"I": hotkey.KeyI, "J": hotkey.KeyJ, "K": hotkey.KeyK, "L": hotkey.KeyL,
	"M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO, "P": hotkey.KeyP,
	"Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX,
	"Y": hotkey.KeyY, "Z": hotkey.KeyZ,

	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,

	"F1": hotkey.KeyF1, "F2": hotkey.KeyF2, "F3": hotkey.KeyF3, "F4": hotkey.KeyF4,
	"F5": hotkey.KeyF5, "F6": hotkey.KeyF6, "F7": hotkey.KeyF7, "F8": hotkey.KeyF8,
	"F9": hotkey.KeyF9, "F10": hotkey.KeyF10, "F11": hotkey.KeyF11, "F12": hotkey.KeyF12,
	"F13": hotkey.KeyF13, "F14": hotkey.KeyF14, "F15": hotkey.KeyF15, "F16": hotkey.KeyF16,
	"F17": hotkey.KeyF17, "F18": hotkey.KeyF18, "F19": hotkey.KeyF19, "F20": hotkey.KeyF20,

	"Space":  hotkey.KeySpace,
	"Tab":    hotkey.KeyTab,
	"Return": hotkey.KeyReturn,
	"Escape": hotkey.KeyEscape,
	"Delete": hotkey.KeyDelete,
	"Up":     hotkey.KeyUp,
	"Down":   hotkey.KeyDown,
	"Left":   hotkey.KeyLeft,
	"Right":  hotkey.KeyRight,
}

// GlobalBinder installs one system-wide hotkey.
type GlobalBinder struct {
	logger *zap.Logger

	mu   sync.Mutex
	hk   *hotkey.Hotkey
	done chan struct{}
}

func NewGlobalBinder(logger *zap.Logger) *GlobalBinder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GlobalBinder{logger: logger}
}

// Register implements ports.AcceleratorBinder.
func (b *GlobalBinder) Register(accelerator string, onTrigger func()) error {
	parsed, err := shortcut.Parse(accelerator)
	if err != nil {
		return err
	}
	key, ok := keyCodes[parsed.Key]
	if !ok {
		return fmt.Errorf("key %q is not supported on this platform", parsed.Key)
	}
	mods := make([]hotkey.Modifier, 0, len(parsed.Modifiers))
	for _, mod := range parsed.Modifiers {
		native, ok := nativeModifier(mod)
		if !ok {
			return fmt.Errorf("modifier %q is not supported on this platform", mod)
		}
		mods = append(mods, native)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.unregisterLocked()

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return err
	}
	done := make(chan struct{})
	b.hk = hk
	b.done = done

	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-hk.Keydown():
				if !ok {
					return
				}
				onTrigger()
			}
		}
	}()
	return nil
}

// Unregister implements ports.AcceleratorBinder.
func (b *GlobalBinder) Unregister() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unregisterLocked()
}

func (b *GlobalBinder) unregisterLocked() error {
	if b.hk == nil {
		return nil
	}
	close(b.done)
	err := b.hk.Unregister()
	b.hk = nil
	b.done = nil
	if err != nil {
		b.logger.Debug("Hotkey unregister failed", zap.Error(err))
	}
	return err
}
