package input

import (
	"errors"
	"image"

	"cabalhelper/internal/window"
)

// ErrTargetLost окно-получатель исчезло до или во время отправки ввода
var ErrTargetLost = errors.New("input target lost")

// Space система координат, в которой бэкенд принимает точки
type Space int

const (
	// SpaceClient координаты относительно клиентской области окна
	SpaceClient Space = iota
	// SpaceScreen абсолютные экранные координаты
	SpaceScreen
)

func (s Space) String() string {
	if s == SpaceScreen {
		return "screen"
	}
	return "client"
}

// Backend способ доставки синтетического ввода в окно
type Backend interface {
	Name() string
	Space() Space
	// Click левый клик в точке p в системе координат Space()
	Click(h window.Handle, p image.Point) error
	KeyPress(h window.Handle, r rune) error
}
