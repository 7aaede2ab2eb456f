package platform

import (
	"github.com/atotto/clipboard"
)

// SystemClipboard reads and writes plain text on the OS clipboard.
type SystemClipboard struct{}

func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

func (SystemClipboard) ReadText() (string, error) {
	return clipboard.ReadAll()
}

func (SystemClipboard) WriteText(text string) error {
	return clipboard.WriteAll(text)
}
