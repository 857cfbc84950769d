//go:build !windows

package screenshot

import (
	"image"

	"cabalhelper/internal/types"
	"cabalhelper/internal/window"
)

type unsupportedGrabber struct{}

// NewWindowGrabber на этой платформе возвращает заглушку
func NewWindowGrabber() Grabber {
	return unsupportedGrabber{}
}

func (unsupportedGrabber) Name() string { return "window" }

func (unsupportedGrabber) Grab(window.Handle, types.Rect, types.Rect) (*image.RGBA, error) {
	return nil, window.ErrUnsupportedPlatform
}
