// Package windowtest содержит подделку window.API для тестов.
package windowtest

import (
	"sync"

	"cabalhelper/internal/types"
	"cabalhelper/internal/window"
)

// Window описание поддельного окна
type Window struct {
	Handle window.Handle
	Outer  types.Rect
	Client types.Rect
	DPI    uint32
	Alive  bool
}

// FakeAPI потокобезопасная реализация window.API в памяти
type FakeAPI struct {
	mu      sync.Mutex
	windows []*Window
	// IsWindowCalls сколько раз вызывали IsWindow
	IsWindowCalls int
}

// NewFakeAPI создает FakeAPI с заданными окнами, все окна живые
func NewFakeAPI(ws ...Window) *FakeAPI {
	f := &FakeAPI{}
	for i := range ws {
		w := ws[i]
		w.Alive = true
		f.windows = append(f.windows, &w)
	}
	return f
}

// Kill помечает окно закрытым
func (f *FakeAPI) Kill(hwnd uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w := f.find(hwnd); w != nil {
		w.Alive = false
	}
}

// Move меняет клиентскую область окна
func (f *FakeAPI) Move(hwnd uintptr, client types.Rect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w := f.find(hwnd); w != nil {
		w.Client = client
	}
}

func (f *FakeAPI) find(hwnd uintptr) *Window {
	for _, w := range f.windows {
		if w.Handle.HWND == hwnd {
			return w
		}
	}
	return nil
}

func (f *FakeAPI) FindByClass(class string) (uintptr, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.windows {
		if w.Alive && w.Handle.Class == class {
			return w.Handle.HWND, true
		}
	}
	return 0, false
}

func (f *FakeAPI) TopLevelWindows() ([]window.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []window.Handle
	for _, w := range f.windows {
		if w.Alive {
			out = append(out, w.Handle)
		}
	}
	return out, nil
}

func (f *FakeAPI) Describe(hwnd uintptr) window.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w := f.find(hwnd); w != nil {
		return w.Handle
	}
	return window.Handle{HWND: hwnd}
}

func (f *FakeAPI) IsWindow(hwnd uintptr) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.IsWindowCalls++
	w := f.find(hwnd)
	return w != nil && w.Alive
}

func (f *FakeAPI) WindowRect(hwnd uintptr) (types.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.find(hwnd)
	if w == nil || !w.Alive {
		return types.Rect{}, window.ErrWindowGone
	}
	return w.Outer, nil
}

func (f *FakeAPI) ClientRect(hwnd uintptr) (types.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.find(hwnd)
	if w == nil || !w.Alive {
		return types.Rect{}, window.ErrWindowGone
	}
	return w.Client, nil
}

func (f *FakeAPI) DPI(hwnd uintptr) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.find(hwnd)
	if w == nil || !w.Alive {
		return 0, window.ErrWindowGone
	}
	if w.DPI == 0 {
		return 96, nil
	}
	return w.DPI, nil
}
