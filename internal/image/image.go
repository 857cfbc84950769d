package image

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// GetPixelColor возвращает цвет пикселя по координатам в диапазоне 0-255.
// Для точки вне изображения возвращает ошибку.
func GetPixelColor(img image.Image, x int, y int) (int, int, int, error) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return 0, 0, 0, fmt.Errorf("точка (%d,%d) вне изображения %v", x, y, img.Bounds())
	}

	// RGBA() отдает 0-65535, сдвигаем до 0-255
	r, g, b, _ := img.At(x, y).RGBA()
	return int(r >> 8), int(g >> 8), int(b >> 8), nil
}

// SaveImage сохраняет изображение в PNG, создавая директорию при необходимости
var SaveImage = func(img image.Image, filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create dir: %w", err)
		}
	}

	outFile, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer outFile.Close()

	if err := png.Encode(outFile, img); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// toRGBA возвращает *image.RGBA с началом координат в (0,0)
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// luma яркость пикселей RGBA изображения построчно, по ширине без stride
func luma(img *image.RGBA) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			out[y*w+x] = 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
		}
	}
	return out
}
