package database

import (
	"context"
	"time"

	"cabalhelper/internal/logger"
)

// DefaultPollInterval интервал опроса, если задан неположительный
const DefaultPollInterval = 2 * time.Second

// ActionQueue источник удаленных команд
type ActionQueue interface {
	GetLatestUnexecutedAction(ctx context.Context) (*Action, error)
	MarkActionAsExecuted(ctx context.Context, id int64) error
}

// WatchActions опрашивает очередь каждые interval и вызывает fn для каждой
// новой команды, после чего помечает ее выполненной. Ошибки опроса
// логируются, опрос продолжается до отмены ctx.
func WatchActions(ctx context.Context, q ActionQueue, interval time.Duration, loggerManager *logger.LoggerManager, fn func(Action)) {
	if loggerManager == nil {
		loggerManager = logger.NewNop()
	}
	if interval <= 0 {
		loggerManager.Warn("⚠️ Интервал опроса %s, используется %s", interval, DefaultPollInterval)
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		action, err := q.GetLatestUnexecutedAction(ctx)
		if err != nil {
			if ctx.Err() == nil {
				loggerManager.LogError(err, "Ошибка получения действий")
			}
			continue
		}
		if action == nil {
			continue
		}

		loggerManager.Info("📥 Получено действие %q (ID %d)", action.Action, action.ID)
		fn(*action)
		if err := q.MarkActionAsExecuted(ctx, action.ID); err != nil {
			loggerManager.LogError(err, "Ошибка отметки действия")
		}
	}
}
