//go:build windows

package interrupt

import (
	"context"
	"fmt"

	"github.com/moutend/go-hook/pkg/keyboard"
	"github.com/moutend/go-hook/pkg/types"
)

// StartMonitoring ставит глобальный хук клавиатуры и обрабатывает события
// до отмены ctx
func (im *InterruptManager) StartMonitoring(ctx context.Context) error {
	eventChan := make(chan types.KeyboardEvent, 100)
	if err := keyboard.Install(nil, eventChan); err != nil {
		return fmt.Errorf("ошибка установки хука клавиатуры: %w", err)
	}

	go func() {
		defer func() {
			if err := keyboard.Uninstall(); err != nil {
				im.loggerManager.LogError(err, "Ошибка снятия хука клавиатуры")
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventChan:
				im.handleMessage(uintptr(event.Message), uint32(event.VKCode))
			}
		}
	}()
	return nil
}
