package interrupt

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"cabalhelper/internal/logger"
)

// виртуальные коды клавиш, которые можно назначить в конфигурации
var keyCodes = map[string]uint32{
	"LSHIFT":   0xA0,
	"RSHIFT":   0xA1,
	"LCONTROL": 0xA2,
	"RCONTROL": 0xA3,
	"LMENU":    0xA4,
	"RMENU":    0xA5,
	"RETURN":   0x0D,
	"ESCAPE":   0x1B,
	"SPACE":    0x20,
	"CAPITAL":  0x14,
	"PAUSE":    0x13,
}

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		keyCodes[string(c)] = uint32(c)
	}
	for c := '0'; c <= '9'; c++ {
		keyCodes[string(c)] = uint32(c)
	}
	for i := 1; i <= 12; i++ {
		keyCodes[fmt.Sprintf("F%d", i)] = uint32(0x70 + i - 1)
	}
}

// ParseKey виртуальный код клавиши по имени (Q, F9, LSHIFT, RETURN).
// Пустое имя дает 0.
func ParseKey(name string) (uint32, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return 0, nil
	}
	if vk, ok := keyCodes[name]; ok {
		return vk, nil
	}
	return 0, fmt.Errorf("неизвестная клавиша %q", name)
}

// Hotkeys виртуальные коды горячих клавиш. Start срабатывает только
// при зажатом Modifier, если он задан.
type Hotkeys struct {
	Modifier uint32
	Start    uint32
	Stop     uint32
}

// ParseHotkeys разбирает имена клавиш из конфигурации
func ParseHotkeys(modifier, start, stop string) (Hotkeys, error) {
	var hk Hotkeys
	var err error
	if hk.Modifier, err = ParseKey(modifier); err != nil {
		return hk, err
	}
	if hk.Start, err = ParseKey(start); err != nil {
		return hk, err
	}
	if hk.Stop, err = ParseKey(stop); err != nil {
		return hk, err
	}
	return hk, nil
}

// InterruptManager управляет прерываниями и горячими клавишами
type InterruptManager struct {
	hotkeys             Hotkeys
	scriptInterruptChan chan bool
	scriptStartChan     chan bool
	isScriptRunning     atomic.Bool
	loggerManager       *logger.LoggerManager

	mu              sync.Mutex
	modifierPressed bool
}

// NewInterruptManager создает новый менеджер прерываний
func NewInterruptManager(hotkeys Hotkeys, loggerManager *logger.LoggerManager) *InterruptManager {
	if loggerManager == nil {
		loggerManager = logger.NewNop()
	}
	return &InterruptManager{
		hotkeys:             hotkeys,
		scriptInterruptChan: make(chan bool, 1),
		scriptStartChan:     make(chan bool, 1),
		loggerManager:       loggerManager,
	}
}

// GetScriptInterruptChan возвращает канал для прерывания скрипта
func (im *InterruptManager) GetScriptInterruptChan() <-chan bool {
	return im.scriptInterruptChan
}

// GetScriptStartChan возвращает канал для запуска скрипта
func (im *InterruptManager) GetScriptStartChan() <-chan bool {
	return im.scriptStartChan
}

// SetScriptRunning устанавливает состояние выполнения скрипта
func (im *InterruptManager) SetScriptRunning(running bool) {
	im.isScriptRunning.Store(running)
}

// IsScriptRunning возвращает состояние выполнения скрипта
func (im *InterruptManager) IsScriptRunning() bool {
	return im.isScriptRunning.Load()
}

// сообщения низкоуровневого хука клавиатуры. При зажатом Alt приходят WM_SYS*.
const (
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
)

// handleMessage переводит сообщение хука в нажатие или отпускание
func (im *InterruptManager) handleMessage(msg uintptr, vk uint32) {
	switch msg {
	case wmKeyDown, wmSysKeyDown:
		im.handleKey(vk, true)
	case wmKeyUp, wmSysKeyUp:
		im.handleKey(vk, false)
	}
}

// handleKey обрабатывает одно событие клавиатуры
func (im *InterruptManager) handleKey(vk uint32, down bool) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if im.hotkeys.Modifier != 0 && vk == im.hotkeys.Modifier {
		im.modifierPressed = down
		return
	}
	if !down {
		return
	}

	modifierOK := im.hotkeys.Modifier == 0 || im.modifierPressed
	switch {
	case vk == im.hotkeys.Start && modifierOK && !im.IsScriptRunning():
		im.loggerManager.Debug("🔥 Горячая клавиша запуска")
		signal(im.scriptStartChan)
	case vk == im.hotkeys.Stop && im.IsScriptRunning():
		im.loggerManager.Debug("🛑 Горячая клавиша остановки")
		signal(im.scriptInterruptChan)
	}
}

// signal не блокируется, если предыдущий сигнал еще не прочитан
func signal(ch chan bool) {
	select {
	case ch <- true:
	default:
	}
}
