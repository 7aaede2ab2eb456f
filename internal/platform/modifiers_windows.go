//go:build windows

package platform

import (
	"golang.design/x/hotkey"

	shortcut "snaptrans/internal/hotkey"
)

func nativeModifier(mod shortcut.Modifier) (hotkey.Modifier, bool) {
	switch mod {
	case shortcut.ModPrimary, shortcut.ModControl:
		return hotkey.ModCtrl, true
	case shortcut.ModCommand, shortcut.ModSuper:
		return hotkey.ModWin, true
	case shortcut.ModAlt:
		return hotkey.ModAlt, true
	case shortcut.ModShift:
		return hotkey.ModShift, true
	}
	return 0, false
}
