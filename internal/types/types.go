package types

import (
	"fmt"
	"image"
)

// Rect прямоугольник в физических пикселях {X, Y, Width, Height}.
// Если не оговорено иное, координаты экранные.
// Прямоугольник нулевой площади означает "недоступно".
type Rect struct {
	X      int `mapstructure:"x"`
	Y      int `mapstructure:"y"`
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// NewRect создает Rect, отрицательные размеры обрезаются до нуля
func NewRect(x, y, width, height int) Rect {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// FromImageRect конвертирует image.Rectangle в Rect
func FromImageRect(r image.Rectangle) Rect {
	r = r.Canon()
	return NewRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}

// Empty возвращает true для прямоугольника нулевой площади
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Min левый верхний угол
func (r Rect) Min() image.Point {
	return image.Point{X: r.X, Y: r.Y}
}

// Max правый нижний угол (не включительно)
func (r Rect) Max() image.Point {
	return image.Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Center центр прямоугольника
func (r Rect) Center() image.Point {
	return image.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains проверяет, лежит ли точка внутри прямоугольника
func (r Rect) Contains(p image.Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Translate сдвигает прямоугольник на d
func (r Rect) Translate(d image.Point) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, Width: r.Width, Height: r.Height}
}

// Intersect пересечение двух прямоугольников
func (r Rect) Intersect(o Rect) Rect {
	return FromImageRect(r.ImageRect().Intersect(o.ImageRect()))
}

// ImageRect конвертирует в image.Rectangle
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// NormRect прямоугольник в долях размера клиентской области, каждое поле в [0,1]
type NormRect struct {
	X      float64 `mapstructure:"x"`
	Y      float64 `mapstructure:"y"`
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// NormPoint точка в долях размера клиентской области
type NormPoint struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
}
