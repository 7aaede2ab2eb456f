package platform

import (
	"github.com/gen2brain/beeep"
)

// DesktopNotifier shows native notifications.
type DesktopNotifier struct {
	appIcon string
}

func NewDesktopNotifier(appIcon string) *DesktopNotifier {
	return &DesktopNotifier{appIcon: appIcon}
}

func (n *DesktopNotifier) Notify(title string, message string) error {
	return beeep.Notify(title, message, n.appIcon)
}
