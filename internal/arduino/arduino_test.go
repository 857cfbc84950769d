package arduino

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort отвечает заранее заданными строками на каждую запись
type fakePort struct {
	mu      sync.Mutex
	written bytes.Buffer
	replies []string
	pending []byte
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written.Write(b)
	if len(p.replies) > 0 {
		p.pending = append(p.pending, p.replies[0]...)
		p.replies = p.replies[1:]
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return 0, io.EOF
	}
	// отдаем по два байта, чтобы проверить сборку строки
	n := copy(b[:min(2, len(b))], p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func TestClickProtocol(t *testing.T) {
	port := &fakePort{replies: []string{"received\r\n"}}
	am := NewArduinoManager(port, time.Second, nil)

	require.NoError(t, am.Click(65, 75))
	assert.Equal(t, "click:65,75\n", port.written.String())
}

func TestKeyPress(t *testing.T) {
	port := &fakePort{replies: []string{"received\n", "received\n"}}
	am := NewArduinoManager(port, time.Second, nil)

	require.NoError(t, am.KeyPress("a"))
	assert.Equal(t, "key_down:a\nkey_up:a\n", port.written.String())
}

func TestUnexpectedResponse(t *testing.T) {
	port := &fakePort{replies: []string{"busy\n"}}
	am := NewArduinoManager(port, time.Second, nil)

	err := am.Click(1, 2)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.True(t, strings.Contains(err.Error(), "busy"))
}

func TestNoResponse(t *testing.T) {
	am := NewArduinoManager(&fakePort{}, 30*time.Millisecond, nil)

	start := time.Now()
	err := am.KeyDown("b")
	assert.ErrorIs(t, err, ErrNoResponse)
	assert.Less(t, time.Since(start), time.Second)
}

// noisyPort бесконечно отдает мусор без перевода строки
type noisyPort struct{}

func (noisyPort) Write(b []byte) (int, error) { return len(b), nil }

func (noisyPort) Read(b []byte) (int, error) {
	time.Sleep(time.Millisecond)
	return copy(b, "xx"), nil
}

func TestNoResponseWhileBoardKeepsTalking(t *testing.T) {
	am := NewArduinoManager(noisyPort{}, 30*time.Millisecond, nil)

	done := make(chan error, 1)
	go func() { done <- am.Click(1, 2) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrNoResponse)
	case <-time.After(2 * time.Second):
		t.Fatal("Click не вернулся после таймаута")
	}
}
