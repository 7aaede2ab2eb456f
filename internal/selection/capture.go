package selection

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"snaptrans/internal/ports"
)

const (
	DefaultCaptureDelay = 200 * time.Millisecond
	pollInterval        = 20 * time.Millisecond

	permissionTitle   = "snaptrans"
	permissionMessage = "Accessibility permission is required to read the selected text. Enable it in System Settings > Privacy & Security > Accessibility."
)

// Capturer reads the foreground selection by simulating the copy chord and
// watching the clipboard. The previous clipboard text is always restored.
type Capturer struct {
	clipboard  ports.ClipboardReadWriter
	keys       ports.KeyPresser
	permission ports.PermissionChecker
	notifier   ports.Notifier
	delay      time.Duration
	logger     *zap.Logger

	notifyOnce sync.Once
	// mu keeps overlapping captures from restoring each other's clipboard.
	mu sync.Mutex
}

func NewCapturer(
	clipboard ports.ClipboardReadWriter,
	keys ports.KeyPresser,
	permission ports.PermissionChecker,
	notifier ports.Notifier,
	delay time.Duration,
	logger *zap.Logger,
) *Capturer {
	if delay <= 0 {
		delay = DefaultCaptureDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capturer{
		clipboard:  clipboard,
		keys:       keys,
		permission: permission,
		notifier:   notifier,
		delay:      delay,
		logger:     logger,
	}
}

// EnsureAccessibility prompts for the permission when it is missing and
// reports whether it is currently granted.
func (c *Capturer) EnsureAccessibility() bool {
	if c.permission == nil || c.permission.Trusted() {
		return true
	}
	if err := c.permission.Prompt(); err != nil {
		c.logger.Warn("Failed to open accessibility settings", zap.Error(err))
	}
	return false
}

// CaptureSelection returns the selected text, or "" when nothing could be read.
func (c *Capturer) CaptureSelection(ctx context.Context) string {
	if c.permission != nil && !c.permission.Trusted() {
		c.logger.Warn("Selection capture skipped: accessibility permission missing")
		c.notifyMissingPermission()
		return ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	previous, err := c.clipboard.ReadText()
	if err != nil {
		c.logger.Debug("Clipboard read failed; treating as empty", zap.Error(err))
		previous = ""
	}
	defer func() {
		if err := c.clipboard.WriteText(previous); err != nil {
			c.logger.Warn("Failed to restore clipboard", zap.Error(err))
		}
	}()

	// Clearing first lets us tell a fresh copy apart from stale contents.
	if err := c.clipboard.WriteText(""); err != nil {
		c.logger.Warn("Failed to clear clipboard", zap.Error(err))
		return ""
	}
	if err := c.keys.PressCopy(); err != nil {
		c.logger.Warn("Failed to simulate copy", zap.Error(err))
		return ""
	}

	text := c.poll(ctx)
	c.logger.Debug("Selection captured", zap.Int("length", len(text)))
	return text
}

func (c *Capturer) poll(ctx context.Context) string {
	deadline := time.NewTimer(c.delay)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if text, err := c.clipboard.ReadText(); err == nil && text != "" {
			return text
		}
		select {
		case <-ctx.Done():
			return ""
		case <-deadline.C:
			text, err := c.clipboard.ReadText()
			if err != nil {
				return ""
			}
			return text
		case <-ticker.C:
		}
	}
}

func (c *Capturer) notifyMissingPermission() {
	if c.notifier == nil {
		return
	}
	c.notifyOnce.Do(func() {
		if err := c.notifier.Notify(permissionTitle, permissionMessage); err != nil {
			c.logger.Debug("Notification failed", zap.Error(err))
		}
	})
}
