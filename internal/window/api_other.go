//go:build !windows

package window

import "cabalhelper/internal/types"

type unsupportedAPI struct{}

// NewSystemAPI на этой платформе возвращает заглушку
func NewSystemAPI() API {
	return unsupportedAPI{}
}

// EnableDPIAwareness на этой платформе недоступен
func EnableDPIAwareness() error {
	return ErrUnsupportedPlatform
}

func (unsupportedAPI) FindByClass(string) (uintptr, bool) { return 0, false }
func (unsupportedAPI) TopLevelWindows() ([]Handle, error) { return nil, ErrUnsupportedPlatform }
func (unsupportedAPI) Describe(hwnd uintptr) Handle       { return Handle{HWND: hwnd} }
func (unsupportedAPI) IsWindow(uintptr) bool              { return false }
func (unsupportedAPI) DPI(uintptr) (uint32, error)        { return 96, ErrUnsupportedPlatform }
func (unsupportedAPI) WindowRect(uintptr) (types.Rect, error) {
	return types.Rect{}, ErrUnsupportedPlatform
}
func (unsupportedAPI) ClientRect(uintptr) (types.Rect, error) {
	return types.Rect{}, ErrUnsupportedPlatform
}
