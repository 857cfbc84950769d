package automation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"

	"cabalhelper/internal/coords"
	imageInternal "cabalhelper/internal/image"
	"cabalhelper/internal/logger"
	"cabalhelper/internal/metrics"
	"cabalhelper/internal/screenshot"
	"cabalhelper/internal/types"
	"cabalhelper/internal/window"
)

var (
	// ErrAlreadyRunning у драйвера уже есть активная сессия
	ErrAlreadyRunning = errors.New("automation already running")

	// ErrNoWindow у сессии нет живого окна
	ErrNoWindow = errors.New("session has no target window")
)

// сколько строк статуса хранит драйвер
const statusLogSize = 200

// WindowProbe вопросы к окну, которые задает цикл
type WindowProbe interface {
	IsAlive(h window.Handle) bool
	ClientRect(h window.Handle) (types.Rect, error)
	DPI(h window.Handle) (uint32, error)
}

// Capturer захват региона клиентской области
type Capturer interface {
	Capture(ctx context.Context, h window.Handle, region types.Rect) (*screenshot.Frame, error)
}

// Clicker клик в точке клиентской области
type Clicker interface {
	Click(ctx context.Context, h window.Handle, clientPt image.Point) error
}

// Driver цикл автоматизации одного инструмента: захват, поиск, клик, пауза.
// Start, Stop и Status можно вызывать из любой горутины.
type Driver struct {
	tool     string
	win      WindowProbe
	capturer Capturer
	clicker  Clicker
	logger   *logger.LoggerManager
	metrics  *metrics.Metrics

	mu       sync.Mutex
	status   Status
	session  *Session
	cancel   context.CancelFunc
	done     chan struct{}
	onStatus func(Status)
	log      []string
}

// NewDriver создает новый экземпляр Driver
func NewDriver(tool string, win WindowProbe, capturer Capturer, clicker Clicker, loggerManager *logger.LoggerManager, m *metrics.Metrics) *Driver {
	if loggerManager == nil {
		loggerManager = logger.NewNop()
	}
	return &Driver{
		tool:     tool,
		win:      win,
		capturer: capturer,
		clicker:  clicker,
		logger:   loggerManager,
		metrics:  m,
	}
}

// OnStatus задает колбэк на каждое изменение состояния. Колбэк вызывается
// без удержания блокировок драйвера.
func (d *Driver) OnStatus(fn func(Status)) {
	d.mu.Lock()
	d.onStatus = fn
	d.mu.Unlock()
}

// Status текущее состояние
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Session текущая или последняя сессия
func (d *Driver) Session() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}

// StatusLog последние строки статуса, от старых к новым
func (d *Driver) StatusLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.log...)
}

// Start проверяет сессию, загружает шаблон и запускает цикл в отдельной горутине
func (d *Driver) Start(sess *Session) error {
	d.mu.Lock()
	if d.status.State == StateRunning || d.status.State == StateStopping {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.mu.Unlock()

	if sess == nil || !d.win.IsAlive(sess.Window) {
		return ErrNoWindow
	}
	sess.Config = sess.Config.withDefaults()

	tpl, err := d.prepareTemplate(sess)
	if err != nil {
		return err
	}

	d.mu.Lock()
	// повторная проверка: пока грузился шаблон, мог стартовать другой вызов
	if d.status.State == StateRunning || d.status.State == StateStopping {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	d.session = sess
	d.cancel = cancel
	d.done = done
	st := d.setStatusLocked(Status{State: StateRunning})
	d.appendLogLocked(fmt.Sprintf("🚀 Запуск %s, сессия %s, окно %s", sess.Tool, sess.ID, sess.Window))
	cb := d.onStatus
	d.mu.Unlock()

	d.logger.Info("🚀 Запуск %s (сессия %s)", sess.Tool, sess.ID)
	d.metrics.SessionStarted(d.tool)

	// цикл ждет started, чтобы Running пришел в колбэк первым;
	// Stop из колбэка отменяет ctx и не ждет вечно
	started := make(chan struct{})
	go d.run(ctx, done, started, sess, tpl)
	d.notify(cb, st)
	close(started)
	return nil
}

// Stop останавливает цикл и ждет его завершения. После возврата
// не будет ни одного захвата или клика этой сессии.
func (d *Driver) Stop() {
	d.mu.Lock()
	if d.status.State != StateRunning && d.status.State != StateStopping {
		d.mu.Unlock()
		return
	}
	cancel, done := d.cancel, d.done
	var cb func(Status)
	var st Status
	if d.status.State == StateRunning {
		st = d.setStatusLocked(Status{State: StateStopping})
		cb = d.onStatus
	}
	d.mu.Unlock()

	d.notify(cb, st)
	cancel()
	<-done
}

// Wait блокируется до завершения текущей сессии или отмены ctx
func (d *Driver) Wait(ctx context.Context) error {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) prepareTemplate(sess *Session) (*imageInternal.Template, error) {
	if sess.Config.Mode != ModeTemplate {
		return nil, nil
	}

	tpl := sess.Template
	if tpl == nil {
		var err error
		tpl, err = imageInternal.LoadTemplate(sess.TemplatePath)
		if err != nil {
			return nil, err
		}
		sess.Template = tpl
	}

	if sess.Config.ScaleWithDPI {
		dpi, err := d.win.DPI(sess.Window)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения DPI окна: %w", err)
		}
		scaled, err := tpl.Scaled(float64(dpi) / 96)
		if err != nil {
			return nil, err
		}
		tpl = scaled
	}
	return tpl, nil
}

// run тело цикла. Единственное место, где решается, продолжать или остановиться.
func (d *Driver) run(ctx context.Context, done, started chan struct{}, sess *Session, tpl *imageInternal.Template) {
	var cause error
	defer func() {
		d.finish(sess, cause)
		close(done)
	}()

	select {
	case <-started:
	case <-ctx.Done():
		return
	}

	failures := 0
	for {
		if ctx.Err() != nil {
			return
		}

		err := d.iterate(ctx, sess, tpl)
		switch {
		case err == nil:
			failures = 0
		case ctx.Err() != nil:
			return
		case !errors.Is(err, window.ErrWindowGone) && !d.win.IsAlive(sess.Window):
			// окно закрылось посреди итерации
			cause = fmt.Errorf("%w: %w", window.ErrWindowGone, err)
			return
		case transient(err):
			failures++
			d.metrics.RecordIteration(d.tool, "transient_error")
			d.appendLog(fmt.Sprintf("⚠️ Ошибка %d/%d: %v", failures, sess.Config.MaxCaptureFailures, err))
			if failures >= sess.Config.MaxCaptureFailures {
				cause = err
				return
			}
		default:
			cause = err
			return
		}

		if !sleep(ctx, sess.Config.Interval) {
			return
		}
	}
}

// iterate одна итерация: проверка окна, затем действие режима
func (d *Driver) iterate(ctx context.Context, sess *Session, tpl *imageInternal.Template) error {
	if !d.win.IsAlive(sess.Window) {
		return fmt.Errorf("%w: %s", window.ErrWindowGone, sess.Window)
	}
	if sess.Config.Mode == ModeFixed {
		return d.clickFixed(ctx, sess)
	}
	return d.matchAndClick(ctx, sess, tpl)
}

func (d *Driver) clickFixed(ctx context.Context, sess *Session) error {
	cfg := sess.Config
	p := cfg.Target
	if p == (image.Point{}) && cfg.TargetNorm != (types.NormPoint{}) {
		client, err := d.win.ClientRect(sess.Window)
		if err != nil {
			return err
		}
		if p, err = coords.DenormalizePoint(cfg.TargetNorm, client); err != nil {
			return err
		}
	}

	if err := d.clicker.Click(ctx, sess.Window, p); err != nil {
		return err
	}
	d.metrics.RecordIteration(d.tool, "clicked")
	return nil
}

func (d *Driver) matchAndClick(ctx context.Context, sess *Session, tpl *imageInternal.Template) error {
	cfg := sess.Config

	region, err := d.searchRegion(sess)
	if err != nil {
		return err
	}

	frame, err := d.capturer.Capture(ctx, sess.Window, region)
	if err != nil {
		return err
	}

	start := time.Now()
	matches := d.match(frame, tpl, cfg)
	d.metrics.RecordMatch(time.Since(start), len(matches))

	if len(matches) == 0 {
		d.metrics.RecordIteration(d.tool, "no_match")
		return nil
	}

	for _, m := range matches {
		p := frame.ToClient(m.Center())
		if err := d.clicker.Click(ctx, sess.Window, p); err != nil {
			return err
		}
		d.mu.Lock()
		d.appendLogLocked(fmt.Sprintf("🖱️ Клик по совпадению (%d,%d), уверенность %.3f", p.X, p.Y, m.Confidence))
		d.mu.Unlock()
		d.logger.Zap().Debug("🖱️ Клик по совпадению",
			zap.String("session", sess.ID.String()),
			zap.Int("x", p.X),
			zap.Int("y", p.Y),
			zap.Float64("confidence", m.Confidence),
		)

		if cfg.PostClickDelay > 0 && !sleep(ctx, cfg.PostClickDelay) {
			return ctx.Err()
		}
	}
	d.metrics.RecordIteration(d.tool, "clicked")
	return nil
}

func (d *Driver) match(frame *screenshot.Frame, tpl *imageInternal.Template, cfg Config) imageInternal.MatchSet {
	if !cfg.ClickAll && !cfg.ColorFilter.Enabled() {
		best, ok := imageInternal.FindBest(frame.Image, tpl, cfg.Threshold)
		if !ok {
			return nil
		}
		return imageInternal.MatchSet{best}
	}

	matches := imageInternal.FindAll(frame.Image, tpl, cfg.Threshold, cfg.MinSeparation)
	matches = cfg.ColorFilter.Apply(frame.Image, matches)
	if !cfg.ClickAll && len(matches) > 1 {
		matches = matches[:1]
	}
	return matches
}

// searchRegion регион поиска в координатах клиента для текущего размера окна
func (d *Driver) searchRegion(sess *Session) (types.Rect, error) {
	cfg := sess.Config
	if !cfg.Region.Empty() {
		return cfg.Region, nil
	}

	client, err := d.win.ClientRect(sess.Window)
	if err != nil {
		return types.Rect{}, err
	}
	if client.Empty() {
		return types.Rect{}, fmt.Errorf("%w: %w", screenshot.ErrCaptureFailed, coords.ErrClientUnavailable)
	}
	if cfg.RegionNorm != (types.NormRect{}) {
		return coords.DenormalizeRect(cfg.RegionNorm, client)
	}
	return types.NewRect(0, 0, client.Width, client.Height), nil
}

// finish переводит драйвер в Idle или Error после выхода из цикла
func (d *Driver) finish(sess *Session, cause error) {
	st := Status{State: StateIdle}
	if cause != nil {
		st = Status{State: StateError, Reason: reason(cause)}
		d.logger.Error("❌ %s остановлен: %v", sess.Tool, cause)
	} else {
		d.logger.Info("⏹️ %s остановлен", sess.Tool)
	}
	d.metrics.SessionFinished(d.tool)

	d.mu.Lock()
	st = d.setStatusLocked(st)
	d.appendLogLocked(fmt.Sprintf("⏹️ Сессия %s завершена: %s", sess.ID, st))
	cb := d.onStatus
	d.mu.Unlock()

	d.notify(cb, st)
}

func (d *Driver) setStatusLocked(st Status) Status {
	d.status = st
	d.appendLogLocked("Статус: " + st.String())
	return st
}

func (d *Driver) appendLog(line string) {
	d.mu.Lock()
	d.appendLogLocked(line)
	d.mu.Unlock()
	d.logger.Debug("%s", line)
}

func (d *Driver) appendLogLocked(line string) {
	d.log = append(d.log, time.Now().Format("15:04:05")+" "+line)
	if len(d.log) > statusLogSize {
		d.log = append(d.log[:0], d.log[len(d.log)-statusLogSize:]...)
	}
}

func (d *Driver) notify(cb func(Status), st Status) {
	if cb != nil {
		cb(st)
	}
}

// sleep ждет d или отмены ctx; false, если ctx отменен
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
