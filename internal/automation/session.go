package automation

import (
	"image"
	"time"

	"github.com/google/uuid"

	imageInternal "cabalhelper/internal/image"
	"cabalhelper/internal/types"
	"cabalhelper/internal/window"
)

// Mode что делает цикл на каждой итерации
type Mode int

const (
	// ModeTemplate захват, поиск шаблона, клик по найденному
	ModeTemplate Mode = iota
	// ModeFixed клик по фиксированной точке без захвата
	ModeFixed
)

const (
	DefaultInterval           = 100 * time.Millisecond
	DefaultThreshold          = 0.85
	DefaultMinSeparation      = 10.0
	DefaultMaxCaptureFailures = 3
)

// Config параметры сессии
type Config struct {
	Mode     Mode
	Interval time.Duration

	// ModeTemplate. Нулевые значения берутся из Default*, поэтому
	// конфигурация не допускает threshold 0.
	Threshold     float64
	MinSeparation float64
	// Region регион поиска в координатах клиента. Если пуст, берется
	// RegionNorm, если пуст и он, то вся клиентская область.
	Region             types.Rect
	RegionNorm         types.NormRect
	ClickAll           bool
	PostClickDelay     time.Duration
	MaxCaptureFailures int
	ColorFilter        imageInternal.ColorFilter
	ScaleWithDPI       bool

	// ModeFixed, Target в координатах клиента или TargetNorm в долях
	Target     image.Point
	TargetNorm types.NormPoint
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.MinSeparation <= 0 {
		c.MinSeparation = DefaultMinSeparation
	}
	if c.MaxCaptureFailures <= 0 {
		c.MaxCaptureFailures = DefaultMaxCaptureFailures
	}
	return c
}

// Session один запуск инструмента. Шаблон и хэндл окна после Start только читаются.
type Session struct {
	ID           uuid.UUID
	Tool         string
	Window       window.Handle
	TemplatePath string
	Template     *imageInternal.Template
	Config       Config
}

// NewSession создает сессию с новым идентификатором
func NewSession(tool string, h window.Handle, cfg Config) *Session {
	return &Session{
		ID:     uuid.New(),
		Tool:   tool,
		Window: h,
		Config: cfg,
	}
}
