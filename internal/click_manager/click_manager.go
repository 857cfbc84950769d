package click_manager

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"golang.org/x/time/rate"

	"cabalhelper/internal/coords"
	"cabalhelper/internal/input"
	"cabalhelper/internal/logger"
	"cabalhelper/internal/metrics"
	"cabalhelper/internal/types"
	"cabalhelper/internal/window"
)

// Target окно, в которое отправляются клики
type Target interface {
	IsAlive(h window.Handle) bool
	ClientRect(h window.Handle) (types.Rect, error)
}

// ClickManager переводит клиентские точки в систему координат бэкенда
// и отправляет клики. Мертвое окно дает input.ErrTargetLost.
type ClickManager struct {
	target     Target
	normalizer *coords.Normalizer
	backend    input.Backend
	limiter    *rate.Limiter
	logger     *logger.LoggerManager
	metrics    *metrics.Metrics
}

// NewClickManager создает новый экземпляр ClickManager.
// cooldown > 0 задает минимальный интервал между кликами.
func NewClickManager(target Target, backend input.Backend, cooldown time.Duration, loggerManager *logger.LoggerManager, m *metrics.Metrics) *ClickManager {
	if loggerManager == nil {
		loggerManager = logger.NewNop()
	}
	cm := &ClickManager{
		target:     target,
		normalizer: coords.NewNormalizer(target),
		backend:    backend,
		logger:     loggerManager,
		metrics:    m,
	}
	if cooldown > 0 {
		cm.limiter = rate.NewLimiter(rate.Every(cooldown), 1)
	}
	return cm
}

// Backend текущий бэкенд ввода
func (m *ClickManager) Backend() input.Backend {
	return m.backend
}

// Click левый клик в точке клиентской области
func (m *ClickManager) Click(ctx context.Context, h window.Handle, clientPt image.Point) error {
	if !m.target.IsAlive(h) {
		return fmt.Errorf("%w: %s", input.ErrTargetLost, h)
	}
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	p, err := m.toBackendSpace(h, clientPt)
	if err != nil {
		return err
	}

	err = m.backend.Click(h, p)
	m.metrics.RecordClick(m.backend.Name(), err)
	if err != nil {
		return m.classify(h, err)
	}

	m.logger.Debug("🖱️ Клик %s в %v (клиент %v)", m.backend.Name(), p, clientPt)
	return nil
}

// ClickNorm клик в точке, заданной долями размера клиентской области
func (m *ClickManager) ClickNorm(ctx context.Context, h window.Handle, np types.NormPoint) error {
	client, err := m.normalizer.ClientRectInScreenCoords(h)
	if err != nil {
		return m.classify(h, err)
	}
	p, err := coords.DenormalizePoint(np, client)
	if err != nil {
		return err
	}
	return m.Click(ctx, h, p)
}

// TypeText набирает текст посимвольно
func (m *ClickManager) TypeText(ctx context.Context, h window.Handle, text string) error {
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !m.target.IsAlive(h) {
			return fmt.Errorf("%w: %s", input.ErrTargetLost, h)
		}
		if err := m.backend.KeyPress(h, r); err != nil {
			return m.classify(h, err)
		}
	}
	return nil
}

func (m *ClickManager) toBackendSpace(h window.Handle, clientPt image.Point) (image.Point, error) {
	if m.backend.Space() == input.SpaceClient {
		return clientPt, nil
	}
	p, err := m.normalizer.ClientToScreen(h, clientPt)
	if err != nil {
		return image.Point{}, m.classify(h, err)
	}
	return p, nil
}

// classify сводит исчезновение окна к input.ErrTargetLost
func (m *ClickManager) classify(h window.Handle, err error) error {
	if errors.Is(err, input.ErrTargetLost) {
		return err
	}
	if errors.Is(err, window.ErrWindowGone) || !m.target.IsAlive(h) {
		return fmt.Errorf("%w: %w", input.ErrTargetLost, err)
	}
	return err
}
