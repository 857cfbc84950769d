package click_manager

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"cabalhelper/internal/input"
	"cabalhelper/internal/input/inputtest"
	"cabalhelper/internal/metrics"
	"cabalhelper/internal/types"
	"cabalhelper/internal/window"
	"cabalhelper/internal/window/windowtest"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hwnd = 0x77

func setup(space input.Space, cooldown time.Duration) (*windowtest.FakeAPI, *inputtest.Recorder, *ClickManager, *metrics.Metrics) {
	api := windowtest.NewFakeAPI(windowtest.Window{
		Handle: window.Handle{HWND: hwnd, Title: "Cabal"},
		Client: types.NewRect(10, 20, 200, 200),
	})
	rec := inputtest.NewRecorder(space)
	m := metrics.NewMetrics()
	cm := NewClickManager(window.NewLocator(api, ""), rec, cooldown, nil, m)
	return api, rec, cm, m
}

func TestClickScreenSpace(t *testing.T) {
	_, rec, cm, m := setup(input.SpaceScreen, 0)

	require.NoError(t, cm.Click(context.Background(), window.Handle{HWND: hwnd}, image.Pt(55, 55)))
	clicks := rec.Clicks()
	require.Len(t, clicks, 1)
	assert.Equal(t, image.Pt(65, 75), clicks[0].Point)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Clicks.WithLabelValues("recorder", "ok")))
}

func TestClickClientSpace(t *testing.T) {
	_, rec, cm, _ := setup(input.SpaceClient, 0)

	require.NoError(t, cm.Click(context.Background(), window.Handle{HWND: hwnd}, image.Pt(55, 55)))
	assert.Equal(t, image.Pt(55, 55), rec.Clicks()[0].Point)
}

func TestClickDeadWindow(t *testing.T) {
	api, rec, cm, _ := setup(input.SpaceScreen, 0)
	api.Kill(hwnd)

	var err error
	assert.NotPanics(t, func() {
		err = cm.Click(context.Background(), window.Handle{HWND: hwnd}, image.Pt(1, 1))
	})
	assert.ErrorIs(t, err, input.ErrTargetLost)
	assert.Empty(t, rec.Clicks())

	assert.ErrorIs(t, cm.TypeText(context.Background(), window.Handle{HWND: hwnd}, "hi"), input.ErrTargetLost)
}

func TestClickBackendError(t *testing.T) {
	_, rec, cm, m := setup(input.SpaceClient, 0)
	boom := errors.New("queue full")
	rec.Err = boom

	err := cm.Click(context.Background(), window.Handle{HWND: hwnd}, image.Pt(1, 1))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, input.ErrTargetLost)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Clicks.WithLabelValues("recorder", "error")))
}

func TestClickNorm(t *testing.T) {
	_, rec, cm, _ := setup(input.SpaceClient, 0)

	require.NoError(t, cm.ClickNorm(context.Background(), window.Handle{HWND: hwnd}, types.NormPoint{X: 0.5, Y: 1}))
	assert.Equal(t, image.Pt(100, 199), rec.Clicks()[0].Point)
}

func TestCooldown(t *testing.T) {
	_, rec, cm, _ := setup(input.SpaceClient, 50*time.Millisecond)
	h := window.Handle{HWND: hwnd}

	require.NoError(t, cm.Click(context.Background(), h, image.Pt(1, 1)))
	require.NoError(t, cm.Click(context.Background(), h, image.Pt(2, 2)))

	clicks := rec.Clicks()
	require.Len(t, clicks, 2)
	assert.GreaterOrEqual(t, clicks[1].At.Sub(clicks[0].At), 40*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, cm.Click(ctx, h, image.Pt(3, 3)))
	assert.Len(t, rec.Clicks(), 2)
}

func TestTypeText(t *testing.T) {
	_, rec, cm, _ := setup(input.SpaceClient, 0)

	require.NoError(t, cm.TypeText(context.Background(), window.Handle{HWND: hwnd}, "heil"))
	assert.Equal(t, "heil", rec.Keys())
}
