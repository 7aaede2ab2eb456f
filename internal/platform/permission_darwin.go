//go:build darwin

package platform

import (
	"context"
	"os/exec"
	"time"
)

const (
	probeScript      = `tell application "System Events" to get name of first process`
	accessibilityURL = "x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility"
)

// AccessibilityChecker probes whether synthetic key events are allowed.
type AccessibilityChecker struct{}

func NewAccessibilityChecker() *AccessibilityChecker {
	return &AccessibilityChecker{}
}

// Trusted asks System Events for a process name, which fails without the permission.
func (AccessibilityChecker) Trusted() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "/usr/bin/osascript", "-e", probeScript).Run() == nil
}

// Prompt opens the Accessibility pane of System Settings.
func (AccessibilityChecker) Prompt() error {
	return exec.Command("/usr/bin/open", accessibilityURL).Run()
}
