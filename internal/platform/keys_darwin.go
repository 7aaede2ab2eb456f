//go:build darwin

package platform

import (
	"time"

	"github.com/micmonay/keybd_event"
)

const bondingWarmup time.Duration = 0

func setCopyModifier(kb *keybd_event.KeyBonding) {
	kb.HasSuper(true)
}
