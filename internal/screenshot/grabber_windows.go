//go:build windows

package screenshot

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/windows"

	"cabalhelper/internal/types"
	"cabalhelper/internal/window"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procGetDC       = user32.NewProc("GetDC")
	procReleaseDC   = user32.NewProc("ReleaseDC")
	procPrintWindow = user32.NewProc("PrintWindow")

	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
)

const (
	dibRGBColors = 0
	biRGB        = 0

	pwClientOnly        = 0x1
	pwRenderFullContent = 0x2
	maxCaptureBytes     = 500 * 1024 * 1024
)

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// printWindowGrabber просит окно отрисовать клиентскую область в память.
// Работает для перекрытого окна, так как не читает экран.
type printWindowGrabber struct{}

// NewWindowGrabber захват содержимого окна через PrintWindow
func NewWindowGrabber() Grabber {
	return printWindowGrabber{}
}

func (printWindowGrabber) Name() string { return "window" }

func (printWindowGrabber) Grab(h window.Handle, region types.Rect, client types.Rect) (*image.RGBA, error) {
	width, height := int32(client.Width), int32(client.Height)
	if int64(width)*int64(height)*4 > maxCaptureBytes {
		return nil, fmt.Errorf("клиентская область слишком большая: %dx%d", width, height)
	}

	hdc, _, _ := procGetDC.Call(h.HWND)
	if hdc == 0 {
		return nil, errors.New("GetDC failed")
	}
	defer procReleaseDC.Call(h.HWND, hdc)

	memDC, _, _ := procCreateCompatibleDC.Call(hdc)
	if memDC == 0 {
		return nil, errors.New("CreateCompatibleDC failed")
	}
	defer procDeleteDC.Call(memDC)

	hBitmap, src, err := createDIB(memDC, width, height)
	if err != nil {
		return nil, err
	}
	defer procDeleteObject.Call(hBitmap)

	old, _, _ := procSelectObject.Call(memDC, hBitmap)
	if old == 0 {
		return nil, errors.New("SelectObject failed")
	}
	defer procSelectObject.Call(memDC, old)

	if r, _, err := procPrintWindow.Call(h.HWND, memDC, pwClientOnly|pwRenderFullContent); r == 0 {
		return nil, fmt.Errorf("PrintWindow failed: %w", err)
	}

	return cropBGRA(src, int(width)*4, region), nil
}

// createDIB создает 32-битную top-down DIB секцию и возвращает ее пиксели.
// Память принадлежит hBitmap и живет до DeleteObject.
func createDIB(dc uintptr, width, height int32) (uintptr, []byte, error) {
	// отрицательная высота дает top-down DIB, (0,0) в левом верхнем углу
	bmi := bitmapInfoHeader{
		Size:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		Width:       width,
		Height:      -height,
		Planes:      1,
		BitCount:    32,
		Compression: biRGB,
	}

	var bits unsafe.Pointer
	hBitmap, _, _ := procCreateDIBSection.Call(
		dc,
		uintptr(unsafe.Pointer(&bmi)),
		dibRGBColors,
		uintptr(unsafe.Pointer(&bits)),
		0, 0,
	)
	if hBitmap == 0 || bits == nil {
		return 0, nil, errors.New("CreateDIBSection failed")
	}
	return hBitmap, unsafe.Slice((*byte)(bits), int(width)*4*int(height)), nil
}

// cropBGRA копирует регион из BGRA буфера в RGBA, альфа всегда 255
func cropBGRA(src []byte, stride int, region types.Rect) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, region.Width, region.Height))
	for y := 0; y < region.Height; y++ {
		row := src[(region.Y+y)*stride+region.X*4:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < region.Width; x++ {
			dst[x*4] = row[x*4+2]
			dst[x*4+1] = row[x*4+1]
			dst[x*4+2] = row[x*4]
			dst[x*4+3] = 255
		}
	}
	return img
}
