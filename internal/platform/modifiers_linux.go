//go:build linux

package platform

import (
	"golang.design/x/hotkey"

	shortcut "snaptrans/internal/hotkey"
)

// X11 maps Alt to Mod1 and Super to Mod4 on common layouts.
func nativeModifier(mod shortcut.Modifier) (hotkey.Modifier, bool) {
	switch mod {
	case shortcut.ModPrimary, shortcut.ModControl:
		return hotkey.ModCtrl, true
	case shortcut.ModCommand, shortcut.ModSuper:
		return hotkey.Mod4, true
	case shortcut.ModAlt:
		return hotkey.Mod1, true
	case shortcut.ModShift:
		return hotkey.ModShift, true
	}
	return 0, false
}
