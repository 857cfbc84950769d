package automation

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"math/rand"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cabalhelper/internal/click_manager"
	imageInternal "cabalhelper/internal/image"
	"cabalhelper/internal/input"
	"cabalhelper/internal/input/inputtest"
	"cabalhelper/internal/metrics"
	"cabalhelper/internal/screenshot"
	"cabalhelper/internal/types"
	"cabalhelper/internal/window"
	"cabalhelper/internal/window/windowtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hwnd = 0x99

func noise(w, h int, seed int64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rand.New(rand.NewSource(seed)).Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// sceneGrabber отдает регион заранее нарисованной клиентской области
type sceneGrabber struct {
	scene *image.RGBA
	calls atomic.Int32
	fails atomic.Int32 // сколько следующих вызовов завершатся ошибкой, -1 всегда
}

func (g *sceneGrabber) Name() string { return "scene" }

func (g *sceneGrabber) Grab(_ window.Handle, region types.Rect, _ types.Rect) (*image.RGBA, error) {
	g.calls.Add(1)
	if f := g.fails.Load(); f != 0 {
		if f > 0 {
			g.fails.Add(-1)
		}
		return nil, errors.New("device lost")
	}
	return g.scene.SubImage(region.ImageRect()).(*image.RGBA), nil
}

type harness struct {
	api     *windowtest.FakeAPI
	grabber *sceneGrabber
	rec     *inputtest.Recorder
	driver  *Driver
	tpl     *imageInternal.Template
	h       window.Handle

	mu       sync.Mutex
	statuses []Status
}

func newHarness(t *testing.T, markers ...image.Point) *harness {
	t.Helper()

	api := windowtest.NewFakeAPI(windowtest.Window{
		Handle: window.Handle{HWND: hwnd, Title: "Cabal", Class: window.DefaultClass},
		Client: types.NewRect(10, 20, 200, 200),
	})
	loc := window.NewLocator(api, window.DefaultClass)

	marker := noise(10, 10, 1)
	scene := noise(200, 200, 2)
	for _, at := range markers {
		draw.Draw(scene, marker.Bounds().Add(at), marker, image.Point{}, draw.Src)
	}
	tpl, err := imageInternal.NewTemplate(marker, "marker.png")
	require.NoError(t, err)

	g := &sceneGrabber{scene: scene}
	rec := inputtest.NewRecorder(input.SpaceScreen)
	sm := screenshot.NewScreenshotManager(loc, g, time.Second, nil, nil)
	cm := click_manager.NewClickManager(loc, rec, 0, nil, nil)

	hs := &harness{
		api:     api,
		grabber: g,
		rec:     rec,
		tpl:     tpl,
		h:       window.Handle{HWND: hwnd},
		driver:  NewDriver("image_clicker", loc, sm, cm, nil, metrics.NewMetrics()),
	}
	hs.driver.OnStatus(func(st Status) {
		hs.mu.Lock()
		hs.statuses = append(hs.statuses, st)
		hs.mu.Unlock()
	})
	t.Cleanup(hs.driver.Stop)
	return hs
}

func (hs *harness) session(cfg Config) *Session {
	s := NewSession("image_clicker", hs.h, cfg)
	s.Template = hs.tpl
	return s
}

func (hs *harness) seen() []Status {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return append([]Status(nil), hs.statuses...)
}

func TestSingleIterationClicksMatchCenter(t *testing.T) {
	hs := newHarness(t, image.Pt(50, 50))

	require.NoError(t, hs.driver.Start(hs.session(Config{Interval: time.Hour})))
	assert.Equal(t, "Running", hs.driver.Status().String())

	require.Eventually(t, func() bool { return len(hs.rec.Clicks()) == 1 }, 2*time.Second, 5*time.Millisecond)
	hs.driver.Stop()

	clicks := hs.rec.Clicks()
	require.Len(t, clicks, 1)
	assert.Equal(t, image.Pt(65, 75), clicks[0].Point)
	assert.Equal(t, int32(1), hs.grabber.calls.Load())
	assert.Equal(t, "Idle", hs.driver.Status().String())
}

func TestIntervalRespected(t *testing.T) {
	hs := newHarness(t, image.Pt(50, 50))
	interval := 40 * time.Millisecond

	require.NoError(t, hs.driver.Start(hs.session(Config{Interval: interval})))
	require.Eventually(t, func() bool { return len(hs.rec.Clicks()) >= 3 }, 3*time.Second, 5*time.Millisecond)
	hs.driver.Stop()

	clicks := hs.rec.Clicks()
	for i := 1; i < len(clicks); i++ {
		assert.GreaterOrEqual(t, clicks[i].At.Sub(clicks[i-1].At), interval)
	}
}

func TestNoMatchNoClick(t *testing.T) {
	hs := newHarness(t)

	require.NoError(t, hs.driver.Start(hs.session(Config{Interval: 5 * time.Millisecond})))
	require.Eventually(t, func() bool { return hs.grabber.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	hs.driver.Stop()

	assert.Empty(t, hs.rec.Clicks())
}

func TestWindowGoneStopsLoop(t *testing.T) {
	hs := newHarness(t, image.Pt(50, 50))

	require.NoError(t, hs.driver.Start(hs.session(Config{Interval: 5 * time.Millisecond})))
	require.Eventually(t, func() bool { return len(hs.rec.Clicks()) >= 1 }, 2*time.Second, 5*time.Millisecond)

	hs.api.Kill(hwnd)
	require.Eventually(t, func() bool {
		return hs.driver.Status().String() == "Error(WindowGone)"
	}, 2*time.Second, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, hs.driver.Wait(ctx))

	grabs, clicks := hs.grabber.calls.Load(), len(hs.rec.Clicks())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, grabs, hs.grabber.calls.Load())
	assert.Equal(t, clicks, len(hs.rec.Clicks()))

	seen := hs.seen()
	require.NotEmpty(t, seen)
	assert.Equal(t, Status{State: StateError, Reason: ReasonWindowGone}, seen[len(seen)-1])
}

func TestStopPreventsFurtherCalls(t *testing.T) {
	hs := newHarness(t, image.Pt(50, 50))

	require.NoError(t, hs.driver.Start(hs.session(Config{Interval: time.Millisecond})))
	require.Eventually(t, func() bool { return len(hs.rec.Clicks()) >= 3 }, 2*time.Second, time.Millisecond)

	hs.driver.Stop()
	grabs, clicks := hs.grabber.calls.Load(), len(hs.rec.Clicks())
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, grabs, hs.grabber.calls.Load())
	assert.Equal(t, clicks, len(hs.rec.Clicks()))
	assert.Equal(t, StateIdle, hs.driver.Status().State)

	seen := hs.seen()
	assert.Equal(t, []Status{{State: StateRunning}, {State: StateStopping}, {State: StateIdle}}, seen)

	// повторный Stop ничего не делает
	hs.driver.Stop()
}

func TestStopFromStatusCallback(t *testing.T) {
	hs := newHarness(t, image.Pt(50, 50))
	hs.driver.OnStatus(func(st Status) {
		hs.mu.Lock()
		hs.statuses = append(hs.statuses, st)
		hs.mu.Unlock()
		if st.State == StateRunning {
			hs.driver.Stop()
		}
	})

	started := make(chan error, 1)
	go func() { started <- hs.driver.Start(hs.session(Config{Interval: time.Millisecond})) }()

	select {
	case err := <-started:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start не вернулся, когда колбэк вызвал Stop")
	}

	assert.Equal(t, StateIdle, hs.driver.Status().State)
	assert.Equal(t, []Status{{State: StateRunning}, {State: StateStopping}, {State: StateIdle}}, hs.seen())
	assert.Zero(t, hs.grabber.calls.Load())
	assert.Empty(t, hs.rec.Clicks())
}

func TestTransientFailuresEscalate(t *testing.T) {
	hs := newHarness(t, image.Pt(50, 50))
	hs.grabber.fails.Store(-1)

	require.NoError(t, hs.driver.Start(hs.session(Config{Interval: time.Millisecond})))
	require.Eventually(t, func() bool {
		return hs.driver.Status().State == StateError
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, "Error(CaptureFailed)", hs.driver.Status().String())
	assert.Equal(t, int32(DefaultMaxCaptureFailures), hs.grabber.calls.Load())
	assert.Empty(t, hs.rec.Clicks())
}

func TestTransientFailuresRecover(t *testing.T) {
	hs := newHarness(t, image.Pt(50, 50))
	hs.grabber.fails.Store(2)

	require.NoError(t, hs.driver.Start(hs.session(Config{Interval: time.Millisecond})))
	require.Eventually(t, func() bool { return len(hs.rec.Clicks()) >= 1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, StateRunning, hs.driver.Status().State)

	hs.grabber.fails.Store(2)
	require.Eventually(t, func() bool { return len(hs.rec.Clicks()) >= 2 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, StateRunning, hs.driver.Status().State)
}

func TestStartErrors(t *testing.T) {
	hs := newHarness(t, image.Pt(50, 50))

	t.Run("already running", func(t *testing.T) {
		require.NoError(t, hs.driver.Start(hs.session(Config{Interval: time.Hour})))
		assert.ErrorIs(t, hs.driver.Start(hs.session(Config{})), ErrAlreadyRunning)
		hs.driver.Stop()
	})

	t.Run("template load failed", func(t *testing.T) {
		s := NewSession("image_clicker", hs.h, Config{})
		s.TemplatePath = filepath.Join(t.TempDir(), "missing.png")
		assert.ErrorIs(t, hs.driver.Start(s), imageInternal.ErrTemplateLoadFailed)
		assert.Equal(t, StateIdle, hs.driver.Status().State)
	})

	t.Run("no window", func(t *testing.T) {
		s := hs.session(Config{})
		s.Window = window.Handle{}
		assert.ErrorIs(t, hs.driver.Start(s), ErrNoWindow)
	})
}

func TestClickAllWithSeparation(t *testing.T) {
	hs := newHarness(t, image.Pt(20, 20), image.Pt(150, 120))

	require.NoError(t, hs.driver.Start(hs.session(Config{Interval: time.Hour, ClickAll: true})))
	require.Eventually(t, func() bool { return len(hs.rec.Clicks()) == 2 }, 2*time.Second, 5*time.Millisecond)
	hs.driver.Stop()

	var pts []image.Point
	for _, c := range hs.rec.Clicks() {
		pts = append(pts, c.Point)
	}
	assert.ElementsMatch(t, []image.Point{image.Pt(35, 45), image.Pt(165, 145)}, pts)
}

func TestRegionRestrictsSearch(t *testing.T) {
	hs := newHarness(t, image.Pt(50, 50))

	cfg := Config{Interval: time.Hour, Region: types.NewRect(100, 100, 100, 100)}
	require.NoError(t, hs.driver.Start(hs.session(cfg)))
	require.Eventually(t, func() bool { return hs.grabber.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	hs.driver.Stop()

	assert.Empty(t, hs.rec.Clicks())
}

func TestFixedMode(t *testing.T) {
	hs := newHarness(t)

	cfg := Config{Mode: ModeFixed, Interval: time.Hour, Target: image.Pt(30, 40)}
	require.NoError(t, hs.driver.Start(hs.session(cfg)))
	require.Eventually(t, func() bool { return len(hs.rec.Clicks()) == 1 }, 2*time.Second, 5*time.Millisecond)
	hs.driver.Stop()

	assert.Equal(t, image.Pt(40, 60), hs.rec.Clicks()[0].Point)
	assert.Zero(t, hs.grabber.calls.Load())
}

func TestFixedModeNormalizedTarget(t *testing.T) {
	hs := newHarness(t)

	cfg := Config{Mode: ModeFixed, Interval: time.Hour, TargetNorm: types.NormPoint{X: 0.5, Y: 0.5}}
	require.NoError(t, hs.driver.Start(hs.session(cfg)))
	require.Eventually(t, func() bool { return len(hs.rec.Clicks()) == 1 }, 2*time.Second, 5*time.Millisecond)
	hs.driver.Stop()

	assert.Equal(t, image.Pt(10+100, 20+100), hs.rec.Clicks()[0].Point)
}

func TestStatusLogBounded(t *testing.T) {
	d := NewDriver("x", nil, nil, nil, nil, nil)
	for i := 0; i < 3*statusLogSize; i++ {
		d.appendLog("строка")
	}
	assert.Len(t, d.StatusLog(), statusLogSize)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Idle", Status{}.String())
	assert.Equal(t, "Stopping", Status{State: StateStopping}.String())
	assert.Equal(t, "Error(TargetLost)", Status{State: StateError, Reason: ReasonTargetLost}.String())
}
