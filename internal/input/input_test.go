package input

import (
	"errors"
	"image"
	"testing"

	"cabalhelper/internal/window"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	hwnd           uintptr
	msg            uint32
	wparam, lparam uintptr
}

type fakePoster struct {
	sent []message
	err  error
}

func (p *fakePoster) Post(hwnd uintptr, msg uint32, wparam, lparam uintptr) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, message{hwnd, msg, wparam, lparam})
	return nil
}

func (p *fakePoster) KeyForRune(r rune) (uint16, bool, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return uint16(r - 'a' + 'A'), false, true
	case r >= 'A' && r <= 'Z':
		return uint16(r), true, true
	}
	return 0, false, false
}

func (p *fakePoster) ScanCode(vk uint16) uint32 {
	return uint32(vk) - 0x20
}

func TestMessageClick(t *testing.T) {
	p := &fakePoster{}
	b := NewMessageBackend(p)
	h := window.Handle{HWND: 0x10}

	require.NoError(t, b.Click(h, image.Pt(55, 300)))
	assert.Equal(t, SpaceClient, b.Space())

	lparam := uintptr(55 | 300<<16)
	assert.Equal(t, []message{
		{0x10, wmMouseMove, 0, lparam},
		{0x10, wmLButtonDown, mkLButton, lparam},
		{0x10, wmLButtonUp, 0, lparam},
	}, p.sent)
}

func TestMessageKeyPress(t *testing.T) {
	p := &fakePoster{}
	b := NewMessageBackend(p)
	b.keyDelay = 0
	h := window.Handle{HWND: 0x10}

	require.NoError(t, b.KeyPress(h, 'a'))
	require.Len(t, p.sent, 2)
	assert.Equal(t, uint32(wmKeyDown), p.sent[0].msg)
	assert.Equal(t, uintptr('A'), p.sent[0].wparam)
	assert.Equal(t, uintptr(1|0x21<<16), p.sent[0].lparam)
	assert.Equal(t, uint32(wmKeyUp), p.sent[1].msg)
	assert.Equal(t, uintptr(1|0x21<<16|1<<30|1<<31), p.sent[1].lparam)

	p.sent = nil
	require.NoError(t, b.KeyPress(h, 'B'))
	require.Len(t, p.sent, 4)
	assert.Equal(t, uintptr(vkShift), p.sent[0].wparam)
	assert.Equal(t, uintptr('B'), p.sent[1].wparam)
	assert.Equal(t, uintptr(vkShift), p.sent[3].wparam)
	assert.Equal(t, uint32(wmKeyUp), p.sent[3].msg)

	assert.Error(t, b.KeyPress(h, '€'))
}

func TestMessageTargetLost(t *testing.T) {
	p := &fakePoster{err: ErrTargetLost}
	err := NewMessageBackend(p).Click(window.Handle{HWND: 1}, image.Pt(1, 1))
	assert.ErrorIs(t, err, ErrTargetLost)
}

func TestPointLParamNegative(t *testing.T) {
	assert.Equal(t, uintptr(0xFFFF|0xFFFE<<16), pointLParam(image.Pt(-1, -2)))
}

type fakeDevice struct {
	clicks []image.Point
	keys   []string
	err    error
}

func (d *fakeDevice) Click(x, y int) error {
	d.clicks = append(d.clicks, image.Pt(x, y))
	return d.err
}

func (d *fakeDevice) KeyPress(key string) error {
	d.keys = append(d.keys, key)
	return d.err
}

func TestArduinoBackend(t *testing.T) {
	d := &fakeDevice{}
	b := NewArduinoBackend(d)

	assert.Equal(t, SpaceScreen, b.Space())
	require.NoError(t, b.Click(window.Handle{}, image.Pt(65, 75)))
	require.NoError(t, b.KeyPress(window.Handle{}, 'x'))
	assert.Equal(t, []image.Point{image.Pt(65, 75)}, d.clicks)
	assert.Equal(t, []string{"x"}, d.keys)

	d.err = errors.New("port closed")
	assert.Error(t, b.Click(window.Handle{}, image.Pt(0, 0)))
}
