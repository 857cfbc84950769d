package screenshot

import (
	"image"

	"cabalhelper/internal/coords"
	"cabalhelper/internal/types"
	"cabalhelper/internal/window"

	"github.com/kbinani/screenshot"
)

// screenGrabber читает композицию экрана. Перекрытое окно даст чужие пиксели.
type screenGrabber struct{}

// NewScreenGrabber захват через композицию экрана
func NewScreenGrabber() Grabber {
	return screenGrabber{}
}

func (screenGrabber) Name() string { return "screen" }

func (screenGrabber) Grab(_ window.Handle, region types.Rect, client types.Rect) (*image.RGBA, error) {
	abs := coords.RectToAbsolute(region, client)
	return screenshot.CaptureRect(abs.ImageRect())
}
