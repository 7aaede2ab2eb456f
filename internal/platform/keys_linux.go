//go:build linux

package platform

import (
	"time"

	"github.com/micmonay/keybd_event"
)

const bondingWarmup = 2 * time.Second

func setCopyModifier(kb *keybd_event.KeyBonding) {
	kb.HasCTRL(true)
}
