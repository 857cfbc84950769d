package screenshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"cabalhelper/internal/coords"
	imageInternal "cabalhelper/internal/image"
	"cabalhelper/internal/logger"
	"cabalhelper/internal/metrics"
	"cabalhelper/internal/types"
	"cabalhelper/internal/window"
)

var (
	// ErrCaptureFailed ОС не отдала пиксели: таймаут, окно свернуто, устройство потеряно
	ErrCaptureFailed = errors.New("capture failed")

	// ErrEmptyRegion регион нулевого размера (сразу или после обрезки по окну)
	ErrEmptyRegion = errors.New("empty capture region")
)

// DefaultTimeout ограничение на один захват
const DefaultTimeout = 2 * time.Second

// Frame снимок региона клиентской области. Создается заново на каждой итерации.
type Frame struct {
	Image *image.RGBA
	// Screen регион в экранных координатах, откуда взяты пиксели
	Screen types.Rect
	// Region тот же регион в координатах клиентской области
	Region types.Rect
	At     time.Time
}

func (f *Frame) Width() int  { return f.Image.Rect.Dx() }
func (f *Frame) Height() int { return f.Image.Rect.Dy() }

// PixelFormat порядок каналов в Bytes
func (f *Frame) PixelFormat() string { return "RGBA8" }

// Bytes пиксели построчно, 4 байта на пиксель
func (f *Frame) Bytes() []byte { return f.Image.Pix }

// ToClient переводит точку кадра в координаты клиентской области
func (f *Frame) ToClient(p image.Point) image.Point {
	return p.Add(f.Region.Min())
}

// Grabber источник пикселей. region задан в координатах клиента и уже
// обрезан по клиентской области, client это клиентская область на экране.
type Grabber interface {
	Name() string
	Grab(h window.Handle, region types.Rect, client types.Rect) (*image.RGBA, error)
}

// Target окно, из которого снимаются кадры
type Target interface {
	IsAlive(h window.Handle) bool
	ClientRect(h window.Handle) (types.Rect, error)
}

// ScreenshotManager захватывает кадры клиентской области окна
type ScreenshotManager struct {
	target        Target
	normalizer    *coords.Normalizer
	grabber       Grabber
	timeout       time.Duration
	loggerManager *logger.LoggerManager
	metrics       *metrics.Metrics

	saveAll bool
	saveDir string
}

// NewScreenshotManager создает новый экземпляр ScreenshotManager
func NewScreenshotManager(target Target, grabber Grabber, timeout time.Duration, loggerManager *logger.LoggerManager, m *metrics.Metrics) *ScreenshotManager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if loggerManager == nil {
		loggerManager = logger.NewNop()
	}
	return &ScreenshotManager{
		target:        target,
		normalizer:    coords.NewNormalizer(target),
		grabber:       grabber,
		timeout:       timeout,
		loggerManager: loggerManager,
		metrics:       m,
	}
}

// SetSaveAllScreenshots включает сохранение каждого кадра в dir для отладки
func (sm *ScreenshotManager) SetSaveAllScreenshots(save bool, dir string) {
	sm.saveAll = save
	sm.saveDir = dir
}

// Capture снимает регион клиентской области. Регион с нулевой шириной или
// высотой отклоняется с ErrEmptyRegion.
func (sm *ScreenshotManager) Capture(ctx context.Context, h window.Handle, region types.Rect) (*Frame, error) {
	if region.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRegion, region)
	}
	if !sm.target.IsAlive(h) {
		return nil, fmt.Errorf("%w: %s", window.ErrWindowGone, h)
	}

	client, err := sm.normalizer.ClientRectInScreenCoords(h)
	if err != nil {
		if errors.Is(err, window.ErrWindowGone) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}

	clipped := coords.ClipToClient(region, client)
	if clipped.Empty() {
		return nil, fmt.Errorf("%w: %s вне клиентской области %dx%d", ErrEmptyRegion, region, client.Width, client.Height)
	}

	start := time.Now()
	img, err := sm.grab(ctx, h, clipped, client)
	sm.metrics.RecordCapture(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	frame := &Frame{
		Image:  img,
		Screen: coords.RectToAbsolute(clipped, client),
		Region: clipped,
		At:     start,
	}

	if sm.saveAll {
		name := filepath.Join(sm.saveDir, fmt.Sprintf("frame_%d.png", start.UnixNano()))
		if err := imageInternal.SaveImage(img, name); err != nil {
			sm.loggerManager.LogError(err, "Ошибка сохранения кадра")
		} else {
			sm.loggerManager.Debug("📸 Кадр сохранен локально: %s", name)
		}
	}

	return frame, nil
}

// CaptureClient снимает всю клиентскую область
func (sm *ScreenshotManager) CaptureClient(ctx context.Context, h window.Handle) (*Frame, error) {
	client, err := sm.normalizer.ClientRectInScreenCoords(h)
	if err != nil {
		if errors.Is(err, window.ErrWindowGone) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	return sm.Capture(ctx, h, types.NewRect(0, 0, client.Width, client.Height))
}

type grabResult struct {
	img *image.RGBA
	err error
}

// grab вызывает grabber с ограничением по времени
func (sm *ScreenshotManager) grab(ctx context.Context, h window.Handle, region, client types.Rect) (*image.RGBA, error) {
	ctx, cancel := context.WithTimeout(ctx, sm.timeout)
	defer cancel()

	done := make(chan grabResult, 1)
	go func() {
		img, err := sm.grabber.Grab(h, region, client)
		done <- grabResult{img: img, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %w", ErrCaptureFailed, sm.grabber.Name(), ctx.Err())
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, ErrCaptureFailed) {
				return nil, res.err
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrCaptureFailed, sm.grabber.Name(), res.err)
		}
		if res.img == nil || len(res.img.Pix) == 0 || res.img.Rect.Empty() {
			return nil, fmt.Errorf("%w: %s: пустые данные кадра", ErrCaptureFailed, sm.grabber.Name())
		}
		return normalizeOrigin(res.img), nil
	}
}

// normalizeOrigin сдвигает начало координат изображения в (0,0)
func normalizeOrigin(img *image.RGBA) *image.RGBA {
	if img.Rect.Min == (image.Point{}) {
		return img
	}
	out := *img
	out.Rect = image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy())
	return &out
}

// NewGrabber выбирает источник пикселей по имени из конфигурации
func NewGrabber(name string) (Grabber, error) {
	switch name {
	case "", "window":
		return NewWindowGrabber(), nil
	case "screen":
		return NewScreenGrabber(), nil
	default:
		return nil, fmt.Errorf("неизвестный источник захвата %q", name)
	}
}
