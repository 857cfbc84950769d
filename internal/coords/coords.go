package coords

import (
	"errors"
	"fmt"
	"image"
	"math"

	"cabalhelper/internal/types"
	"cabalhelper/internal/window"
)

// ErrClientUnavailable клиентская область нулевого размера (например, окно свернуто)
var ErrClientUnavailable = errors.New("client area unavailable")

// ClientRectSource источник клиентской области окна в экранных координатах
type ClientRectSource interface {
	ClientRect(h window.Handle) (types.Rect, error)
}

// Normalizer переводит координаты между экраном и клиентской областью окна.
// Якорем всегда служит клиентская область, а не внешний прямоугольник окна:
// толщина рамки и заголовка разная в оконном, borderless и полноэкранном режимах.
type Normalizer struct {
	src ClientRectSource
}

// NewNormalizer создает новый экземпляр Normalizer
func NewNormalizer(src ClientRectSource) *Normalizer {
	return &Normalizer{src: src}
}

// ClientRectInScreenCoords клиентская область окна в экранных координатах
func (n *Normalizer) ClientRectInScreenCoords(h window.Handle) (types.Rect, error) {
	r, err := n.src.ClientRect(h)
	if err != nil {
		return types.Rect{}, err
	}
	if r.Empty() {
		return types.Rect{}, fmt.Errorf("%w: %s", ErrClientUnavailable, r)
	}
	return r, nil
}

// ClientToScreen переводит точку клиентской области в экранные координаты
func (n *Normalizer) ClientToScreen(h window.Handle, p image.Point) (image.Point, error) {
	client, err := n.ClientRectInScreenCoords(h)
	if err != nil {
		return image.Point{}, err
	}
	return ToAbsolute(p, client), nil
}

// ScreenToClient переводит экранную точку в координаты клиентской области
func (n *Normalizer) ScreenToClient(h window.Handle, p image.Point) (image.Point, error) {
	client, err := n.ClientRectInScreenCoords(h)
	if err != nil {
		return image.Point{}, err
	}
	return ToClientRelative(p, client), nil
}

// ToClientRelative экранная точка → точка относительно клиентской области
func ToClientRelative(screen image.Point, client types.Rect) image.Point {
	return screen.Sub(client.Min())
}

// ToAbsolute точка клиентской области → экранная точка
func ToAbsolute(p image.Point, client types.Rect) image.Point {
	return p.Add(client.Min())
}

// RectToAbsolute прямоугольник клиентской области → экранный прямоугольник
func RectToAbsolute(r types.Rect, client types.Rect) types.Rect {
	return r.Translate(client.Min())
}

// ClipToClient обрезает регион (в координатах клиента) по размеру клиентской области
func ClipToClient(region types.Rect, client types.Rect) types.Rect {
	return region.Intersect(types.NewRect(0, 0, client.Width, client.Height))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// NormalizePoint переводит точку клиентской области в доли размера клиента
func NormalizePoint(p image.Point, client types.Rect) (types.NormPoint, error) {
	if client.Empty() {
		return types.NormPoint{}, ErrClientUnavailable
	}
	return types.NormPoint{
		X: clamp01(float64(p.X) / float64(client.Width)),
		Y: clamp01(float64(p.Y) / float64(client.Height)),
	}, nil
}

// DenormalizePoint обратное преобразование, результат всегда внутри клиентской области
func DenormalizePoint(np types.NormPoint, client types.Rect) (image.Point, error) {
	if client.Empty() {
		return image.Point{}, ErrClientUnavailable
	}
	maxX := float64(client.Width - 1)
	maxY := float64(client.Height - 1)
	return image.Point{
		X: int(math.Round(clamp01(np.X) * maxX)),
		Y: int(math.Round(clamp01(np.Y) * maxY)),
	}, nil
}

// NormalizeRect переводит регион клиентской области в доли размера клиента
func NormalizeRect(r types.Rect, client types.Rect) (types.NormRect, error) {
	if client.Empty() {
		return types.NormRect{}, ErrClientUnavailable
	}
	w, h := float64(client.Width), float64(client.Height)
	return types.NormRect{
		X:      clamp01(float64(r.X) / w),
		Y:      clamp01(float64(r.Y) / h),
		Width:  clamp01(float64(r.Width) / w),
		Height: clamp01(float64(r.Height) / h),
	}, nil
}

// DenormalizeRect обратное преобразование, регион обрезается по клиентской области
func DenormalizeRect(nr types.NormRect, client types.Rect) (types.Rect, error) {
	if client.Empty() {
		return types.Rect{}, ErrClientUnavailable
	}
	w, h := float64(client.Width), float64(client.Height)
	left := int(math.Round(clamp01(nr.X) * w))
	top := int(math.Round(clamp01(nr.Y) * h))
	width := int(math.Round(clamp01(nr.Width) * w))
	height := int(math.Round(clamp01(nr.Height) * h))
	if left+width > client.Width {
		width = client.Width - left
	}
	if top+height > client.Height {
		height = client.Height - top
	}
	return types.NewRect(left, top, width, height), nil
}
