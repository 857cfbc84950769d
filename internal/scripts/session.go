package scripts

import (
	"fmt"

	"cabalhelper/internal/automation"
	"cabalhelper/internal/config"
	imageInternal "cabalhelper/internal/image"
	"cabalhelper/internal/window"
)

const (
	ToolImageClicker = "image_clicker"
	ToolFixedClicker = "fixed_clicker"
)

// Tools инструменты, которые умеет запускать бот
var Tools = []string{ToolImageClicker, ToolFixedClicker}

// ImageClickerSession сессия кликера по шаблону. Шаблон загружается сразу,
// ошибка загрузки возвращается до запуска цикла.
func ImageClickerSession(c *config.Config, h window.Handle) (*automation.Session, error) {
	ic := c.ImageClicker
	if ic.Template == "" {
		return nil, fmt.Errorf("%w: image_clicker.template не задан", imageInternal.ErrTemplateLoadFailed)
	}
	tpl, err := imageInternal.LoadTemplate(ic.Template)
	if err != nil {
		return nil, err
	}

	sess := automation.NewSession(ToolImageClicker, h, automation.Config{
		Mode:               automation.ModeTemplate,
		Interval:           ic.Interval,
		Threshold:          ic.Threshold,
		MinSeparation:      ic.MinSeparation,
		Region:             ic.Region,
		RegionNorm:         ic.RegionNorm,
		ClickAll:           ic.ClickAll,
		PostClickDelay:     ic.PostClickDelay,
		MaxCaptureFailures: ic.MaxCaptureFailures,
		ColorFilter:        ic.ColorFilter,
		ScaleWithDPI:       ic.ScaleWithDPI,
	})
	sess.TemplatePath = ic.Template
	sess.Template = tpl
	return sess, nil
}

// FixedClickerSession сессия кликера по фиксированной точке
func FixedClickerSession(c *config.Config, h window.Handle) *automation.Session {
	fc := c.FixedClicker
	return automation.NewSession(ToolFixedClicker, h, automation.Config{
		Mode:       automation.ModeFixed,
		Interval:   fc.Interval,
		Target:     fc.Target,
		TargetNorm: fc.TargetNorm,
	})
}

// NewSession сессия инструмента по имени
func NewSession(tool string, c *config.Config, h window.Handle) (*automation.Session, error) {
	switch tool {
	case ToolImageClicker:
		return ImageClickerSession(c, h)
	case ToolFixedClicker:
		return FixedClickerSession(c, h), nil
	default:
		return nil, fmt.Errorf("неизвестный инструмент %q", tool)
	}
}
