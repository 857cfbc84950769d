package input

import (
	"fmt"
	"image"
	"time"

	"cabalhelper/internal/window"
)

const (
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202

	mkLButton = 0x0001

	vkShift = 0x10
)

// Poster отправка оконных сообщений. Post не ждет обработки сообщения окном.
type Poster interface {
	Post(hwnd uintptr, msg uint32, wparam, lparam uintptr) error
	// KeyForRune виртуальный код клавиши для символа и нужен ли Shift
	KeyForRune(r rune) (vk uint16, shift bool, ok bool)
	// ScanCode скан-код для виртуального кода
	ScanCode(vk uint16) uint32
}

// MessageBackend кладет сообщения мыши и клавиатуры в очередь окна.
// Фокус окна не нужен, физический курсор не двигается.
type MessageBackend struct {
	poster   Poster
	keyDelay time.Duration
}

// NewMessageBackend создает новый экземпляр MessageBackend
func NewMessageBackend(poster Poster) *MessageBackend {
	return &MessageBackend{poster: poster, keyDelay: 10 * time.Millisecond}
}

func (b *MessageBackend) Name() string { return "message" }
func (b *MessageBackend) Space() Space { return SpaceClient }

// Click WM_MOUSEMOVE, WM_LBUTTONDOWN, WM_LBUTTONUP в клиентских координатах
func (b *MessageBackend) Click(h window.Handle, p image.Point) error {
	lparam := pointLParam(p)
	if err := b.poster.Post(h.HWND, wmMouseMove, 0, lparam); err != nil {
		return err
	}
	if err := b.poster.Post(h.HWND, wmLButtonDown, mkLButton, lparam); err != nil {
		return err
	}
	return b.poster.Post(h.HWND, wmLButtonUp, 0, lparam)
}

// KeyPress WM_KEYDOWN и WM_KEYUP, для заглавных и символов с Shift
// оборачивается нажатием Shift
func (b *MessageBackend) KeyPress(h window.Handle, r rune) error {
	vk, shift, ok := b.poster.KeyForRune(r)
	if !ok {
		return fmt.Errorf("символ %q не набирается на текущей раскладке", r)
	}

	if shift {
		if err := b.key(h, vkShift, true); err != nil {
			return err
		}
		defer b.key(h, vkShift, false)
	}

	if err := b.key(h, vk, true); err != nil {
		return err
	}
	if b.keyDelay > 0 {
		time.Sleep(b.keyDelay)
	}
	return b.key(h, vk, false)
}

func (b *MessageBackend) key(h window.Handle, vk uint16, down bool) error {
	scan := b.poster.ScanCode(vk)
	if down {
		return b.poster.Post(h.HWND, wmKeyDown, uintptr(vk), keyLParam(scan, true))
	}
	return b.poster.Post(h.HWND, wmKeyUp, uintptr(vk), keyLParam(scan, false))
}

// pointLParam упаковывает клиентскую точку как MAKELPARAM(x, y)
func pointLParam(p image.Point) uintptr {
	return uintptr(uint32(uint16(int16(p.X))) | uint32(uint16(int16(p.Y)))<<16)
}

// keyLParam счетчик повторов 1, скан-код в битах 16-23; для отпускания
// еще бит предыдущего состояния и бит перехода
func keyLParam(scan uint32, down bool) uintptr {
	lparam := uintptr(1) | uintptr(scan&0xFF)<<16
	if !down {
		lparam |= 1<<30 | 1<<31
	}
	return lparam
}
