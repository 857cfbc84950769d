package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"cabalhelper/internal/automation"
	"cabalhelper/internal/database"
	"cabalhelper/internal/interrupt"
	"cabalhelper/internal/scripts"
)

func newRunCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:       "run <image-clicker|fixed-clicker>",
		Short:     "Запустить инструмент (по горячей клавише или сразу с --once)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"image-clicker", "fixed-clicker"},
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := strings.ReplaceAll(args[0], "-", "_")
			return runTool(tool, once)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Запустить сразу, без горячих клавиш, и остановить по Ctrl+C")
	return cmd
}

func runTool(tool string, once bool) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a.loggerManager.Info("🚀 Запуск cabalhelper: %s", tool)
	a.serveMetrics(ctx)

	// проверяем конфигурацию до ожидания горячих клавиш
	h, err := a.locate()
	if err != nil {
		return err
	}
	if _, err := scripts.NewSession(tool, a.cfg, h); err != nil {
		return err
	}

	driver := automation.NewDriver(tool, a.locator, a.screenshots, a.clicks, a.loggerManager, a.metrics)

	var dm *database.DatabaseManager
	if a.cfg.Database.Enabled {
		db, err := database.Open(ctx, a.cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer func(db *sql.DB) {
			if err := db.Close(); err != nil {
				a.loggerManager.LogError(err, "Error closing database")
			}
		}(db)

		dm = database.NewDatabaseManager(db, a.loggerManager)
		if err := dm.EnsureSchema(ctx); err != nil {
			return err
		}
		a.loggerManager.Info("✅ Успешное подключение к базе данных")

		driver.OnStatus(func(st automation.Status) {
			if sess := driver.Session(); sess != nil {
				if err := dm.UpdateSessionStatus(context.Background(), sess.ID.String(), st.String()); err != nil {
					a.loggerManager.LogError(err, "Ошибка обновления статуса в БД")
				}
			}
		})
	}

	newSession := func() (*automation.Session, error) {
		h, err := a.locate()
		if err != nil {
			return nil, err
		}
		sess, err := scripts.NewSession(tool, a.cfg, h)
		if err != nil {
			return nil, err
		}
		if dm != nil {
			if err := dm.RecordSessionStart(ctx, sess.ID.String(), tool, h.Title); err != nil {
				a.loggerManager.LogError(err, "Ошибка записи сессии в БД")
			}
		}
		return sess, nil
	}
	runner := scripts.NewRunner(driver, newSession, a.loggerManager)

	if dm != nil {
		go database.WatchActions(ctx, dm, a.cfg.Database.PollInterval, a.loggerManager, func(action database.Action) {
			if action.Action != database.ActionStop {
				return
			}
			sess := driver.Session()
			if action.SessionID == "" || (sess != nil && sess.ID.String() == action.SessionID) {
				runner.RequestStop()
			}
		})
	}

	if !once && a.cfg.Hotkeys.Enabled {
		hk, err := interrupt.ParseHotkeys(a.cfg.Hotkeys.Modifier, a.cfg.Hotkeys.Start, a.cfg.Hotkeys.Stop)
		if err != nil {
			return err
		}
		interruptManager := interrupt.NewInterruptManager(hk, a.loggerManager)
		if err := interruptManager.StartMonitoring(ctx); err != nil {
			a.loggerManager.LogError(err, "Горячие клавиши недоступны, запуск сразу")
		} else {
			a.loggerManager.Info("⏸️ Программа готова к работе. %s+%s для запуска, %s для остановки",
				a.cfg.Hotkeys.Modifier, a.cfg.Hotkeys.Start, a.cfg.Hotkeys.Stop)
			return runner.RunWithHotkeys(ctx, interruptManager)
		}
	}

	st, err := runner.RunOnce(ctx, nil)
	if err != nil {
		return err
	}
	a.loggerManager.Info("✅ %s завершен: %s", tool, st)
	for _, line := range driver.StatusLog() {
		a.loggerManager.Debug("%s", line)
	}
	if st.State == automation.StateError {
		return fmt.Errorf("%s остановлен с ошибкой: %s", tool, st)
	}
	return nil
}
