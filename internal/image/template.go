package image

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/floats"
)

// ErrTemplateLoadFailed файл шаблона отсутствует или не декодируется
var ErrTemplateLoadFailed = errors.New("template load failed")

// Template эталонное изображение маркера. После загрузки только читается
// и может разделяться между горутинами.
type Template struct {
	Path   string
	Width  int
	Height int

	img   *image.RGBA
	raw   []float64 // яркость
	plane []float64 // яркость минус среднее
	mean  float64
	norm  float64 // ||plane||
}

// LoadImage читает и декодирует png, jpeg или gif
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("декодирование %s: %w", path, err)
	}
	return img, nil
}

// LoadTemplate читает и декодирует файл шаблона
func LoadTemplate(path string) (*Template, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateLoadFailed, err)
	}
	return NewTemplate(img, path)
}

// NewTemplate строит шаблон из уже декодированного изображения
func NewTemplate(img image.Image, path string) (*Template, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s: пустое изображение", ErrTemplateLoadFailed, path)
	}

	rgba := toRGBA(img)
	raw := luma(rgba)
	plane := make([]float64, len(raw))
	copy(plane, raw)

	mean := floats.Sum(plane) / float64(len(plane))
	floats.AddConst(-mean, plane)

	return &Template{
		Path:   path,
		Width:  b.Dx(),
		Height: b.Dy(),
		img:    rgba,
		raw:    raw,
		plane:  plane,
		mean:   mean,
		norm:   floats.Norm(plane, 2),
	}, nil
}

// Image исходное изображение шаблона
func (t *Template) Image() *image.RGBA {
	return t.img
}

// Scaled возвращает шаблон, масштабированный в factor раз (например, DPI/96).
// При factor <= 0 или 1 возвращается тот же шаблон.
func (t *Template) Scaled(factor float64) (*Template, error) {
	if factor <= 0 || math.Abs(factor-1) < 1e-3 {
		return t, nil
	}
	w := uint(math.Max(1, math.Round(float64(t.Width)*factor)))
	h := uint(math.Max(1, math.Round(float64(t.Height)*factor)))
	return NewTemplate(resize.Resize(w, h, t.img, resize.Bilinear), t.Path)
}

// flat шаблон без текстуры, корреляция для него не определена
func (t *Template) flat() bool {
	return t.norm*t.norm < flatVariancePerPixel*float64(len(t.plane))
}
