package image

import (
	"image"
	"math"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// дисперсия на пиксель, ниже которой окно считается однотонным
const flatVariancePerPixel = 1e-3

// MatchResult найденное вхождение шаблона. X, Y левый верхний угол в координатах кадра.
type MatchResult struct {
	X          int
	Y          int
	Width      int
	Height     int
	Confidence float64
}

// Center центр вхождения в координатах кадра
func (m MatchResult) Center() image.Point {
	return image.Point{X: m.X + m.Width/2, Y: m.Y + m.Height/2}
}

// Bounds прямоугольник вхождения в координатах кадра
func (m MatchResult) Bounds() image.Rectangle {
	return image.Rect(m.X, m.Y, m.X+m.Width, m.Y+m.Height)
}

// MatchSet результаты после подавления немаксимумов: никакие два центра
// не ближе min_separation друг к другу
type MatchSet []MatchResult

// FindBest возвращает одно вхождение с максимальной уверенностью,
// если она не ниже threshold
func FindBest(frame image.Image, tpl *Template, threshold float64) (MatchResult, bool) {
	sm := scoreMap(frame, tpl)
	if sm == nil {
		return MatchResult{}, false
	}

	best := -1
	for i, s := range sm.scores {
		if best < 0 || s > sm.scores[best] {
			best = i
		}
	}
	if best < 0 || sm.scores[best] < threshold {
		return MatchResult{}, false
	}
	return sm.result(best, tpl), true
}

// FindAll возвращает все вхождения с уверенностью не ниже threshold.
// Жадно подавляет вхождения, центр которых ближе minSeparation пикселей
// к уже принятому вхождению с большей уверенностью.
func FindAll(frame image.Image, tpl *Template, threshold float64, minSeparation float64) MatchSet {
	sm := scoreMap(frame, tpl)
	if sm == nil {
		return nil
	}

	var candidates []MatchResult
	for i, s := range sm.scores {
		if s >= threshold {
			candidates = append(candidates, sm.result(i, tpl))
		}
	}
	return Suppress(candidates, minSeparation)
}

// Suppress подавление немаксимумов по расстоянию между центрами
func Suppress(candidates []MatchResult, minSeparation float64) MatchSet {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	var accepted MatchSet
	for _, c := range candidates {
		cc := c.Center()
		keep := true
		for _, a := range accepted {
			ac := a.Center()
			if math.Hypot(float64(cc.X-ac.X), float64(cc.Y-ac.Y)) <= minSeparation {
				keep = false
				break
			}
		}
		if keep {
			accepted = append(accepted, c)
		}
	}
	return accepted
}

type scores struct {
	cols   int
	scores []float64
}

func (s *scores) result(i int, tpl *Template) MatchResult {
	return MatchResult{
		X:          i % s.cols,
		Y:          i / s.cols,
		Width:      tpl.Width,
		Height:     tpl.Height,
		Confidence: s.scores[i],
	}
}

// scoreMap считает нормированную взаимную корреляцию шаблона со всеми
// позициями кадра. Уверенность лежит в [0,1]: 1 для точной копии,
// около 0 для несхожих областей. nil, если шаблон не помещается в кадр.
func scoreMap(frame image.Image, tpl *Template) *scores {
	if frame == nil || tpl == nil {
		return nil
	}
	rgba := toRGBA(frame)
	fw, fh := rgba.Rect.Dx(), rgba.Rect.Dy()
	tw, th := tpl.Width, tpl.Height
	if fw < tw || fh < th {
		return nil
	}

	gray := luma(rgba)
	sum, sumSq := integral(gray, fw, fh)

	cols, rows := fw-tw+1, fh-th+1
	out := &scores{cols: cols, scores: make([]float64, cols*rows)}
	n := float64(tw * th)
	flatTpl := tpl.flat()

	windowStats := func(x, y int) (s, ss float64) {
		stride := fw + 1
		a, b := y*stride+x, y*stride+x+tw
		c, d := (y+th)*stride+x, (y+th)*stride+x+tw
		return sum[d] - sum[b] - sum[c] + sum[a], sumSq[d] - sumSq[b] - sumSq[c] + sumSq[a]
	}

	scoreRow := func(y int) {
		for x := 0; x < cols; x++ {
			s, ss := windowStats(x, y)
			variance := ss - s*s/n

			var score float64
			switch {
			case flatTpl:
				score = flatScore(gray, fw, x, y, tpl)
			case variance < flatVariancePerPixel*n:
				score = 0
			default:
				var num float64
				for r := 0; r < th; r++ {
					off := (y+r)*fw + x
					num += floats.Dot(tpl.plane[r*tw:(r+1)*tw], gray[off:off+tw])
				}
				score = num / (tpl.norm * math.Sqrt(variance))
			}
			out.scores[y*cols+x] = math.Max(0, math.Min(1, score))
		}
	}

	workers := runtime.NumCPU()
	if workers > rows {
		workers = rows
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for y := w; y < rows; y += workers {
				scoreRow(y)
			}
		}(w)
	}
	wg.Wait()

	return out
}

// flatScore для однотонного шаблона: 1 минус средняя абсолютная разница яркости
func flatScore(gray []float64, fw, x, y int, tpl *Template) float64 {
	var diff float64
	for r := 0; r < tpl.Height; r++ {
		row := gray[(y+r)*fw+x : (y+r)*fw+x+tpl.Width]
		for c, v := range row {
			diff += math.Abs(v - tpl.raw[r*tpl.Width+c])
		}
	}
	return 1 - diff/float64(tpl.Width*tpl.Height)/255
}

// integral интегральные изображения суммы и суммы квадратов, размер (w+1)*(h+1)
func integral(gray []float64, w, h int) (sum, sumSq []float64) {
	stride := w + 1
	sum = make([]float64, stride*(h+1))
	sumSq = make([]float64, stride*(h+1))
	for y := 0; y < h; y++ {
		var rowSum, rowSq float64
		for x := 0; x < w; x++ {
			v := gray[y*w+x]
			rowSum += v
			rowSq += v * v
			sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + rowSum
			sumSq[(y+1)*stride+x+1] = sumSq[y*stride+x+1] + rowSq
		}
	}
	return sum, sumSq
}
