package hotkey

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"snaptrans/internal/ports"
)

const captureTimeout = 2 * time.Second

// Manager owns the single global accelerator and what happens when it fires.
type Manager struct {
	binder  ports.AcceleratorBinder
	capture ports.SelectionCapture
	window  ports.WindowPresenter
	events  ports.EventSink
	logger  *zap.Logger

	mu          sync.Mutex
	accelerator string
	bound       bool
	suspended   bool

	// triggerMu runs captures one at a time; a press during a capture waits for it.
	triggerMu sync.Mutex
}

func NewManager(
	binder ports.AcceleratorBinder,
	capture ports.SelectionCapture,
	window ports.WindowPresenter,
	events ports.EventSink,
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		binder:  binder,
		capture: capture,
		window:  window,
		events:  events,
		logger:  logger,
	}
}

// Register replaces the current accelerator. An empty accelerator leaves
// nothing bound. While suspended the binding is deferred until Resume.
func (m *Manager) Register(accelerator string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unbindLocked()
	m.accelerator = ""

	accelerator = strings.TrimSpace(accelerator)
	if accelerator == "" {
		m.logger.Info("Global shortcut cleared")
		return nil
	}
	if err := Validate(accelerator); err != nil {
		return err
	}

	m.accelerator = accelerator
	if m.suspended {
		return nil
	}
	return m.bindLocked()
}

// Suspend removes the binding, e.g. while the user records a new shortcut.
func (m *Manager) Suspend() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.suspended = true
	m.unbindLocked()
}

// Resume reinstates the current accelerator after Suspend.
func (m *Manager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.suspended = false
	if m.bound || m.accelerator == "" {
		return nil
	}
	return m.bindLocked()
}

// Close releases the binding for shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unbindLocked()
}

// Accelerator returns the configured accelerator, bound or not.
func (m *Manager) Accelerator() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accelerator
}

// Bound reports whether the accelerator is currently installed.
func (m *Manager) Bound() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bound
}

func (m *Manager) bindLocked() error {
	if err := m.binder.Register(m.accelerator, m.trigger); err != nil {
		return fmt.Errorf("failed to register shortcut %q: %w", m.accelerator, err)
	}
	m.bound = true
	m.logger.Info("Global shortcut registered", zap.String("accelerator", m.accelerator))
	return nil
}

func (m *Manager) unbindLocked() {
	if !m.bound {
		return
	}
	if err := m.binder.Unregister(); err != nil {
		m.logger.Warn("Failed to unregister shortcut", zap.String("accelerator", m.accelerator), zap.Error(err))
	}
	m.bound = false
}

func (m *Manager) trigger() {
	m.triggerMu.Lock()
	defer m.triggerMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()

	text := m.capture.CaptureSelection(ctx)
	m.window.Show()
	if text != "" {
		m.events.SelectionText(text)
	}
}
