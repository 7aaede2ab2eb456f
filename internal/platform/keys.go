package platform

import (
	"fmt"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

// CopyPresser sends the platform copy chord to the foreground app.
type CopyPresser struct {
	once    sync.Once
	kb      keybd_event.KeyBonding
	initErr error

	mu sync.Mutex
}

func NewCopyPresser() *CopyPresser {
	return &CopyPresser{}
}

// PressCopy implements ports.KeyPresser.
func (p *CopyPresser) PressCopy() error {
	p.once.Do(func() {
		p.kb, p.initErr = keybd_event.NewKeyBonding()
		if p.initErr == nil && bondingWarmup > 0 {
			// Linux needs a moment before the new virtual device receives events.
			time.Sleep(bondingWarmup)
		}
	})
	if p.initErr != nil {
		return fmt.Errorf("failed to create virtual keyboard: %w", p.initErr)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.kb.Clear()
	p.kb.SetKeys(keybd_event.VK_C)
	setCopyModifier(&p.kb)
	if err := p.kb.Launching(); err != nil {
		return fmt.Errorf("failed to press copy: %w", err)
	}
	return nil
}
