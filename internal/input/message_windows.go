//go:build windows

package input

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procPostMessageW   = user32.NewProc("PostMessageW")
	procVkKeyScanW     = user32.NewProc("VkKeyScanW")
	procMapVirtualKeyW = user32.NewProc("MapVirtualKeyW")
)

const mapvkVKToVSC = 0

type systemPoster struct{}

// NewSystemPoster Poster поверх PostMessageW
func NewSystemPoster() Poster {
	return systemPoster{}
}

func (systemPoster) Post(hwnd uintptr, msg uint32, wparam, lparam uintptr) error {
	r, _, err := procPostMessageW.Call(hwnd, uintptr(msg), wparam, lparam)
	if r != 0 {
		return nil
	}
	if errors.Is(err, windows.ERROR_INVALID_WINDOW_HANDLE) {
		return fmt.Errorf("%w: 0x%X", ErrTargetLost, hwnd)
	}
	return fmt.Errorf("PostMessage 0x%04X failed: %w", msg, err)
}

func (systemPoster) KeyForRune(r rune) (uint16, bool, bool) {
	if r > 0xFFFF {
		return 0, false, false
	}
	res, _, _ := procVkKeyScanW.Call(uintptr(r))
	v := int16(res)
	if v == -1 {
		return 0, false, false
	}
	return uint16(v & 0xFF), v&0x100 != 0, true
}

func (systemPoster) ScanCode(vk uint16) uint32 {
	r, _, _ := procMapVirtualKeyW.Call(uintptr(vk), mapvkVKToVSC)
	return uint32(r)
}
