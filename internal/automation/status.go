package automation

import (
	"errors"
	"fmt"

	"cabalhelper/internal/coords"
	imageInternal "cabalhelper/internal/image"
	"cabalhelper/internal/input"
	"cabalhelper/internal/screenshot"
	"cabalhelper/internal/window"
)

// State состояние драйвера
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateError
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateError:
		return "Error"
	default:
		return "Idle"
	}
}

// Status снимок состояния для опроса и колбэков
type Status struct {
	State  State
	Reason string
}

func (s Status) String() string {
	if s.State == StateError {
		return fmt.Sprintf("Error(%s)", s.Reason)
	}
	return s.State.String()
}

// причины остановки с ошибкой
const (
	ReasonWindowGone     = "WindowGone"
	ReasonTargetLost     = "TargetLost"
	ReasonCaptureFailed  = "CaptureFailed"
	ReasonEmptyRegion    = "EmptyRegion"
	ReasonTemplateFailed = "TemplateLoadFailed"
)

// reason короткое имя ошибки для Status
func reason(err error) string {
	switch {
	case errors.Is(err, window.ErrWindowGone):
		return ReasonWindowGone
	case errors.Is(err, input.ErrTargetLost):
		return ReasonTargetLost
	case errors.Is(err, screenshot.ErrEmptyRegion):
		return ReasonEmptyRegion
	case errors.Is(err, screenshot.ErrCaptureFailed), errors.Is(err, coords.ErrClientUnavailable):
		return ReasonCaptureFailed
	case errors.Is(err, imageInternal.ErrTemplateLoadFailed):
		return ReasonTemplateFailed
	default:
		return err.Error()
	}
}

// transient ошибки, после которых цикл продолжает работу
func transient(err error) bool {
	return errors.Is(err, screenshot.ErrCaptureFailed) ||
		errors.Is(err, screenshot.ErrEmptyRegion) ||
		errors.Is(err, coords.ErrClientUnavailable)
}
