//go:build windows

package window

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"cabalhelper/internal/types"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	shcore = windows.NewLazySystemDLL("shcore.dll")

	procFindWindowW              = user32.NewProc("FindWindowW")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
	procIsWindow                 = user32.NewProc("IsWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetClientRect            = user32.NewProc("GetClientRect")
	procClientToScreen           = user32.NewProc("ClientToScreen")
	procMonitorFromWindow        = user32.NewProc("MonitorFromWindow")
	procGetDpiForWindow          = user32.NewProc("GetDpiForWindow")
	procSetProcessDpiAwareCtx    = user32.NewProc("SetProcessDpiAwarenessContext")
	procSetProcessDPIAware       = user32.NewProc("SetProcessDPIAware")

	procGetDpiForMonitor = shcore.NewProc("GetDpiForMonitor")
)

// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2 == (HANDLE)-4
var dpiAwarenessPerMonitorV2 = ^uintptr(3)

const (
	monitorDefaultToNearest = 2
	defaultDPI              = 96
)

type rect struct {
	Left, Top, Right, Bottom int32
}

type point struct {
	X, Y int32
}

// EnumWindows принимает только callback, созданный через NewCallback,
// а их число на процесс ограничено, поэтому callback один на весь пакет.
var (
	enumMu       sync.Mutex
	enumFound    []uintptr
	enumCallback = windows.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		enumFound = append(enumFound, hwnd)
		return 1
	})
)

type systemAPI struct {
	pid uint32
}

// NewSystemAPI возвращает API поверх user32
func NewSystemAPI() API {
	return &systemAPI{pid: windows.GetCurrentProcessId()}
}

// EnableDPIAwareness объявляет процесс Per-Monitor DPI Aware (V2).
// Вызывается один раз на старте, до любых запросов координат.
func EnableDPIAwareness() error {
	if procSetProcessDpiAwareCtx.Find() == nil {
		r, _, err := procSetProcessDpiAwareCtx.Call(dpiAwarenessPerMonitorV2)
		if r != 0 {
			return nil
		}
		// ERROR_ACCESS_DENIED: режим уже выставлен манифестом
		if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
			return nil
		}
	}
	if r, _, _ := procSetProcessDPIAware.Call(); r == 0 {
		return fmt.Errorf("не удалось включить DPI awareness")
	}
	return nil
}

func (a *systemAPI) FindByClass(class string) (uintptr, bool) {
	ptr, err := windows.UTF16PtrFromString(class)
	if err != nil {
		return 0, false
	}
	hwnd, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(ptr)), 0)
	return hwnd, hwnd != 0
}

func (a *systemAPI) TopLevelWindows() ([]Handle, error) {
	enumMu.Lock()
	enumFound = enumFound[:0]
	r, _, err := procEnumWindows.Call(enumCallback, 0)
	hwnds := append([]uintptr(nil), enumFound...)
	enumMu.Unlock()

	if r == 0 && len(hwnds) == 0 {
		return nil, fmt.Errorf("EnumWindows: %v", err)
	}

	result := make([]Handle, 0, len(hwnds))
	for _, hwnd := range hwnds {
		if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
			continue
		}
		var pid uint32
		procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
		if pid == a.pid {
			continue
		}
		h := a.Describe(hwnd)
		if h.Title == "" {
			continue
		}
		result = append(result, h)
	}
	return result, nil
}

func (a *systemAPI) Describe(hwnd uintptr) Handle {
	title := make([]uint16, 256)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&title[0])), uintptr(len(title)))
	class := make([]uint16, 256)
	m, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&class[0])), uintptr(len(class)))
	return Handle{
		HWND:  hwnd,
		Title: windows.UTF16ToString(title[:n]),
		Class: windows.UTF16ToString(class[:m]),
	}
}

func (a *systemAPI) IsWindow(hwnd uintptr) bool {
	if hwnd == 0 {
		return false
	}
	r, _, _ := procIsWindow.Call(hwnd)
	return r != 0
}

func (a *systemAPI) WindowRect(hwnd uintptr) (types.Rect, error) {
	var rc rect
	if r, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&rc))); r == 0 {
		return types.Rect{}, ErrWindowGone
	}
	return types.NewRect(int(rc.Left), int(rc.Top), int(rc.Right-rc.Left), int(rc.Bottom-rc.Top)), nil
}

func (a *systemAPI) ClientRect(hwnd uintptr) (types.Rect, error) {
	var rc rect
	if r, _, _ := procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&rc))); r == 0 {
		return types.Rect{}, ErrWindowGone
	}
	// (0,0) клиентской области в экранные координаты
	var topLeft point
	if r, _, _ := procClientToScreen.Call(hwnd, uintptr(unsafe.Pointer(&topLeft))); r == 0 {
		return types.Rect{}, ErrWindowGone
	}
	return types.NewRect(int(topLeft.X), int(topLeft.Y), int(rc.Right-rc.Left), int(rc.Bottom-rc.Top)), nil
}

func (a *systemAPI) DPI(hwnd uintptr) (uint32, error) {
	if procGetDpiForWindow.Find() == nil {
		if r, _, _ := procGetDpiForWindow.Call(hwnd); r != 0 {
			return uint32(r), nil
		}
	}

	// Windows 8.1: DPI монитора
	hMon, _, _ := procMonitorFromWindow.Call(hwnd, monitorDefaultToNearest)
	if hMon != 0 && procGetDpiForMonitor.Find() == nil {
		var dx, dy uint32
		// MDT_EFFECTIVE_DPI = 0
		r, _, _ := procGetDpiForMonitor.Call(hMon, 0, uintptr(unsafe.Pointer(&dx)), uintptr(unsafe.Pointer(&dy)))
		if r == 0 {
			return dx, nil
		}
	}
	return defaultDPI, fmt.Errorf("не удалось определить DPI окна 0x%X", hwnd)
}
