//go:build !darwin

package platform

// AccessibilityChecker always reports trusted; only macOS gates synthetic input.
type AccessibilityChecker struct{}

func NewAccessibilityChecker() *AccessibilityChecker {
	return &AccessibilityChecker{}
}

func (AccessibilityChecker) Trusted() bool { return true }

func (AccessibilityChecker) Prompt() error { return nil }
