package scripts

import (
	"context"
	"errors"

	"cabalhelper/internal/automation"
	"cabalhelper/internal/logger"
)

// Hotkeys сигналы запуска и остановки от горячих клавиш
type Hotkeys interface {
	GetScriptStartChan() <-chan bool
	GetScriptInterruptChan() <-chan bool
	SetScriptRunning(running bool)
}

// Runner запускает сессии на драйвере и останавливает их по сигналам
type Runner struct {
	driver     *automation.Driver
	newSession func() (*automation.Session, error)
	logger     *logger.LoggerManager
	stopChan   chan struct{}
}

// NewRunner создает новый экземпляр Runner. newSession вызывается на каждый запуск,
// так что каждая сессия получает свежий хэндл окна и новый идентификатор.
func NewRunner(driver *automation.Driver, newSession func() (*automation.Session, error), loggerManager *logger.LoggerManager) *Runner {
	if loggerManager == nil {
		loggerManager = logger.NewNop()
	}
	return &Runner{
		driver:     driver,
		newSession: newSession,
		logger:     loggerManager,
		stopChan:   make(chan struct{}, 1),
	}
}

// RequestStop просит текущую сессию остановиться (например, по команде из БД)
func (r *Runner) RequestStop() {
	select {
	case r.stopChan <- struct{}{}:
	default:
	}
}

// RunOnce запускает одну сессию и ждет ее завершения, отмены ctx,
// сигнала interrupt или RequestStop
func (r *Runner) RunOnce(ctx context.Context, interrupt <-chan bool) (automation.Status, error) {
	// старый запрос остановки не должен гасить новую сессию
	select {
	case <-r.stopChan:
	default:
	}

	sess, err := r.newSession()
	if err != nil {
		return automation.Status{}, err
	}
	if err := r.driver.Start(sess); err != nil {
		return automation.Status{}, err
	}

	finished := make(chan struct{})
	go func() {
		_ = r.driver.Wait(context.Background())
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		r.logger.Info("⏹️ Остановка %s: завершение программы", sess.Tool)
	case <-interrupt:
		r.logger.Info("⏹️ Прерывание %s по запросу пользователя", sess.Tool)
	case <-r.stopChan:
		r.logger.Info("⏹️ Остановка %s по удаленной команде", sess.Tool)
	}
	r.driver.Stop()
	<-finished

	return r.driver.Status(), nil
}

// RunWithHotkeys ждет горячую клавишу запуска и запускает сессию, пока не отменен ctx
func (r *Runner) RunWithHotkeys(ctx context.Context, hk Hotkeys) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hk.GetScriptStartChan():
		}

		r.logger.Info("🚀 Запуск по горячей клавише")
		hk.SetScriptRunning(true)
		st, err := r.RunOnce(ctx, hk.GetScriptInterruptChan())
		hk.SetScriptRunning(false)

		switch {
		case errors.Is(err, automation.ErrAlreadyRunning):
			r.logger.Info("⚠️ Сессия уже запущена")
		case err != nil:
			r.logger.LogError(err, "Ошибка запуска сессии")
		default:
			r.logger.Info("✅ Сессия завершена: %s. Ожидание следующего запуска", st)
		}
	}
}
