package input

import (
	"image"

	"cabalhelper/internal/window"
)

// ArduinoDevice плата, эмулирующая USB мышь и клавиатуру
type ArduinoDevice interface {
	Click(x, y int) error
	KeyPress(key string) error
}

// ArduinoBackend аппаратный ввод через плату. Двигает реальный курсор,
// поэтому принимает экранные координаты и требует видимого окна.
type ArduinoBackend struct {
	device ArduinoDevice
}

// NewArduinoBackend создает новый экземпляр ArduinoBackend
func NewArduinoBackend(device ArduinoDevice) *ArduinoBackend {
	return &ArduinoBackend{device: device}
}

func (b *ArduinoBackend) Name() string { return "arduino" }
func (b *ArduinoBackend) Space() Space { return SpaceScreen }

func (b *ArduinoBackend) Click(_ window.Handle, p image.Point) error {
	return b.device.Click(p.X, p.Y)
}

func (b *ArduinoBackend) KeyPress(_ window.Handle, r rune) error {
	return b.device.KeyPress(string(r))
}
