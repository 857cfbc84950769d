//go:build !windows

package input

import "cabalhelper/internal/window"

type unsupportedPoster struct{}

// NewSystemPoster на этой платформе возвращает заглушку
func NewSystemPoster() Poster {
	return unsupportedPoster{}
}

func (unsupportedPoster) Post(uintptr, uint32, uintptr, uintptr) error {
	return window.ErrUnsupportedPlatform
}

func (unsupportedPoster) KeyForRune(rune) (uint16, bool, bool) { return 0, false, false }
func (unsupportedPoster) ScanCode(uint16) uint32               { return 0 }
