package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"cabalhelper/internal/arduino"
	"cabalhelper/internal/click_manager"
	"cabalhelper/internal/config"
	"cabalhelper/internal/input"
	"cabalhelper/internal/logger"
	"cabalhelper/internal/metrics"
	"cabalhelper/internal/screenshot"
	"cabalhelper/internal/window"
)

// app общие для всех команд менеджеры
type app struct {
	cfg           *config.Config
	loggerManager *logger.LoggerManager
	metrics       *metrics.Metrics
	locator       *window.Locator
	screenshots   *screenshot.ScreenshotManager
	clicks        *click_manager.ClickManager
	closers       []func() error
}

// newApp читает конфигурацию и поднимает менеджеры. withInput=false
// пропускает бэкенд ввода (команды, которые ничего не кликают).
func newApp(withInput bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := logger.LogLevel(cfg.LogLevel)
	if verbose {
		level = logger.DEBUG
	}
	loggerManager, err := logger.NewLoggerManager(cfg.LogFilePath, level)
	if err != nil {
		log.Printf("Error initializing logger: %v", err)
		return nil, err
	}

	a := &app{
		cfg:           cfg,
		loggerManager: loggerManager,
		metrics:       metrics.NewMetrics(),
	}
	a.closers = append(a.closers, loggerManager.Close)

	if err := window.EnableDPIAwareness(); err != nil {
		loggerManager.Warn("⚠️ Не удалось включить DPI awareness, координаты могут быть масштабированы: %v", err)
	}

	a.locator = window.NewLocator(window.NewSystemAPI(), cfg.Window.Class)

	grabber, err := screenshot.NewGrabber(cfg.Capture.Backend)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.screenshots = screenshot.NewScreenshotManager(a.locator, grabber, cfg.Capture.Timeout, loggerManager, a.metrics)
	a.screenshots.SetSaveAllScreenshots(cfg.Capture.SaveAllScreenshots == 1, cfg.Capture.ScreenshotDir)

	if withInput {
		backend, err := a.newBackend()
		if err != nil {
			a.Close()
			return nil, err
		}
		a.clicks = click_manager.NewClickManager(a.locator, backend, cfg.Input.Cooldown, loggerManager, a.metrics)
		loggerManager.Info("🖱️ Бэкенд ввода: %s", backend.Name())
	}

	return a, nil
}

func (a *app) newBackend() (input.Backend, error) {
	switch a.cfg.Input.Backend {
	case "arduino":
		port, err := arduino.OpenPort(a.cfg.Input.Port, a.cfg.Input.BaudRate, a.cfg.Input.ReadTimeout)
		if err != nil {
			return nil, fmt.Errorf("ошибка открытия порта arduino %s: %w", a.cfg.Input.Port, err)
		}
		a.closers = append(a.closers, port.Close)
		am := arduino.NewArduinoManager(port, a.cfg.Input.ReadTimeout, a.loggerManager)
		return input.NewArduinoBackend(am), nil
	default:
		return input.NewMessageBackend(input.NewSystemPoster()), nil
	}
}

// locate ищет окно игры по конфигурации
func (a *app) locate() (window.Handle, error) {
	h, err := a.locator.Locate(a.cfg.Window.Title)
	if err != nil {
		return window.Handle{}, err
	}
	a.loggerManager.Info("✅ Найдено окно %s", h)
	return h, nil
}

// serveMetrics отдает /metrics до отмены ctx, если задан metrics.addr
func (a *app) serveMetrics(ctx context.Context) {
	if a.cfg.Metrics.Addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.loggerManager.Info("📈 Метрики на http://%s/metrics", a.cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.loggerManager.LogError(err, "Ошибка сервера метрик")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// Close закрывает порт и лог в обратном порядке
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("Error closing: %v", err)
		}
	}
}
