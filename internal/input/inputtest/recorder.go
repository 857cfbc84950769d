// Package inputtest содержит записывающий input.Backend для тестов.
package inputtest

import (
	"image"
	"sync"
	"time"

	"cabalhelper/internal/input"
	"cabalhelper/internal/window"
)

// Click записанный клик
type Click struct {
	Handle window.Handle
	Point  image.Point
	At     time.Time
}

// Recorder запоминает все вызовы. Err, если задан, возвращается из каждого вызова.
type Recorder struct {
	mu     sync.Mutex
	space  input.Space
	clicks []Click
	keys   []rune
	Err    error
}

// NewRecorder создает Recorder, принимающий координаты в space
func NewRecorder(space input.Space) *Recorder {
	return &Recorder{space: space}
}

func (r *Recorder) Name() string      { return "recorder" }
func (r *Recorder) Space() input.Space { return r.space }

func (r *Recorder) Click(h window.Handle, p image.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.clicks = append(r.clicks, Click{Handle: h, Point: p, At: time.Now()})
	return nil
}

func (r *Recorder) KeyPress(_ window.Handle, k rune) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.keys = append(r.keys, k)
	return nil
}

// Clicks копия записанных кликов
func (r *Recorder) Clicks() []Click {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Click(nil), r.clicks...)
}

// Keys набранные символы
func (r *Recorder) Keys() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.keys)
}
