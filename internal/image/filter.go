package image

import "image"

// ColorFilter отсеивает вхождения, у которых центральный пиксель не красный.
// Нужен, когда серые и красные маркеры одинаковы по форме и в яркости
// корреляция их не различает.
type ColorFilter struct {
	MinRed       int `mapstructure:"min_red"`
	RedDominance int `mapstructure:"red_dominance"`
}

// Enabled фильтр с нулевыми порогами пропускает все
func (f ColorFilter) Enabled() bool {
	return f.MinRed > 0 || f.RedDominance > 0
}

// Apply оставляет вхождения, прошедшие фильтр. Координаты вхождений
// считаются относительно Bounds().Min кадра.
func (f ColorFilter) Apply(frame image.Image, matches MatchSet) MatchSet {
	if !f.Enabled() {
		return matches
	}
	origin := frame.Bounds().Min
	var out MatchSet
	for _, m := range matches {
		c := m.Center().Add(origin)
		r, g, b, err := GetPixelColor(frame, c.X, c.Y)
		if err != nil {
			continue
		}
		if r >= f.MinRed && r >= g+f.RedDominance && r >= b+f.RedDominance {
			out = append(out, m)
		}
	}
	return out
}
