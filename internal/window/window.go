package window

import (
	"errors"
	"fmt"
	"strings"

	"cabalhelper/internal/types"
)

var (
	// ErrWindowNotFound ни одна стратегия поиска не нашла окно
	ErrWindowNotFound = errors.New("window not found")

	// ErrWindowGone хэндл окна больше не валиден
	ErrWindowGone = errors.New("window is gone or invalid")

	// ErrUnsupportedPlatform функции ОС недоступны на этой платформе
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// DefaultClass стабильный класс окна клиента игры
const DefaultClass = "D3D Window"

// Handle найденное окно ОС: сырой хэндл плюс закешированные заголовок и класс
type Handle struct {
	HWND  uintptr
	Title string
	Class string
}

// Valid возвращает false для пустого хэндла
func (h Handle) Valid() bool {
	return h.HWND != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("0x%X %q [%s]", h.HWND, h.Title, h.Class)
}

// API сервисы ОС, которые нужны локатору. Все координаты в физических пикселях.
type API interface {
	// FindByClass ищет окно верхнего уровня по классу
	FindByClass(class string) (uintptr, bool)
	// TopLevelWindows возвращает видимые окна верхнего уровня чужих процессов
	TopLevelWindows() ([]Handle, error)
	// Describe читает заголовок и класс окна
	Describe(hwnd uintptr) Handle
	IsWindow(hwnd uintptr) bool
	// WindowRect внешний прямоугольник окна (с рамкой) в экранных координатах
	WindowRect(hwnd uintptr) (types.Rect, error)
	// ClientRect клиентская область в экранных координатах
	ClientRect(hwnd uintptr) (types.Rect, error)
	DPI(hwnd uintptr) (uint32, error)
}

// Locator ищет окно игры и отвечает на вопросы о его геометрии
type Locator struct {
	api   API
	class string
}

// NewLocator создает новый экземпляр Locator.
// Пустой class отключает поиск по классу.
func NewLocator(api API, class string) *Locator {
	return &Locator{
		api:   api,
		class: class,
	}
}

// Locate ищет окно сначала по классу, затем по подстроке заголовка без учета регистра.
// Порядок перечисления окон определяется ОС, поэтому при нескольких кандидатах
// первое совпадение не гарантировано одним и тем же.
func (l *Locator) Locate(titleHint string) (Handle, error) {
	if l.class != "" {
		if hwnd, ok := l.api.FindByClass(l.class); ok && l.api.IsWindow(hwnd) {
			return l.api.Describe(hwnd), nil
		}
	}

	hint := strings.ToLower(strings.TrimSpace(titleHint))
	if hint == "" {
		return Handle{}, fmt.Errorf("%w: class %q", ErrWindowNotFound, l.class)
	}

	windows, err := l.api.TopLevelWindows()
	if err != nil {
		return Handle{}, fmt.Errorf("ошибка перечисления окон: %w", err)
	}
	for _, w := range windows {
		if strings.Contains(strings.ToLower(w.Title), hint) {
			return w, nil
		}
	}

	return Handle{}, fmt.Errorf("%w: class %q, title %q", ErrWindowNotFound, l.class, titleHint)
}

// IsAlive проверяет, что ранее найденное окно еще существует
func (l *Locator) IsAlive(h Handle) bool {
	return h.Valid() && l.api.IsWindow(h.HWND)
}

// ClientRect клиентская область окна в экранных координатах
func (l *Locator) ClientRect(h Handle) (types.Rect, error) {
	if !l.IsAlive(h) {
		return types.Rect{}, ErrWindowGone
	}
	return l.api.ClientRect(h.HWND)
}

// WindowRect внешний прямоугольник окна в экранных координатах
func (l *Locator) WindowRect(h Handle) (types.Rect, error) {
	if !l.IsAlive(h) {
		return types.Rect{}, ErrWindowGone
	}
	return l.api.WindowRect(h.HWND)
}

// DPI возвращает DPI монитора, на котором находится окно
func (l *Locator) DPI(h Handle) (uint32, error) {
	if !l.IsAlive(h) {
		return 0, ErrWindowGone
	}
	return l.api.DPI(h.HWND)
}
