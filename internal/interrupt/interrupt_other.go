//go:build !windows

package interrupt

import (
	"context"
	"errors"
)

// StartMonitoring глобальный хук клавиатуры есть только в Windows
func (im *InterruptManager) StartMonitoring(context.Context) error {
	return errors.New("global keyboard hook is not supported on this platform")
}
