//go:build darwin

package platform

import (
	"golang.design/x/hotkey"

	shortcut "snaptrans/internal/hotkey"
)

func nativeModifier(mod shortcut.Modifier) (hotkey.Modifier, bool) {
	switch mod {
	case shortcut.ModPrimary, shortcut.ModCommand, shortcut.ModSuper:
		return hotkey.ModCmd, true
	case shortcut.ModControl:
		return hotkey.ModCtrl, true
	case shortcut.ModAlt:
		return hotkey.ModOption, true
	case shortcut.ModShift:
		return hotkey.ModShift, true
	}
	return 0, false
}
