package config

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	imageInternal "cabalhelper/internal/image"
	"cabalhelper/internal/types"

	"github.com/spf13/viper"
)

// Window параметры поиска окна игры
type Window struct {
	Class string `mapstructure:"class"`
	Title string `mapstructure:"title"`
}

// Capture параметры захвата кадров
type Capture struct {
	Backend            string        `mapstructure:"backend"` // window | screen
	Timeout            time.Duration `mapstructure:"timeout"`
	SaveAllScreenshots int           `mapstructure:"save_all_screenshots"`
	ScreenshotDir      string        `mapstructure:"screenshot_dir"`
}

// Input параметры синтеза ввода
type Input struct {
	Backend     string        `mapstructure:"backend"` // message | arduino
	Port        string        `mapstructure:"port"`
	BaudRate    int           `mapstructure:"baud_rate"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
}

// ImageClicker настройки кликера по шаблону
type ImageClicker struct {
	Template           string                    `mapstructure:"template"`
	Interval           time.Duration             `mapstructure:"interval"`
	Threshold          float64                   `mapstructure:"threshold"`
	MinSeparation      float64                   `mapstructure:"min_separation"`
	Region             types.Rect                `mapstructure:"region"`
	RegionNorm         types.NormRect            `mapstructure:"region_norm"`
	ClickAll           bool                      `mapstructure:"click_all"`
	PostClickDelay     time.Duration             `mapstructure:"post_click_delay"`
	MaxCaptureFailures int                       `mapstructure:"max_capture_failures"`
	ScaleWithDPI       bool                      `mapstructure:"scale_with_dpi"`
	ColorFilter        imageInternal.ColorFilter `mapstructure:"color_filter"`
}

// FixedClicker настройки кликера по фиксированной точке
type FixedClicker struct {
	Interval   time.Duration   `mapstructure:"interval"`
	Target     image.Point     `mapstructure:"target"`
	TargetNorm types.NormPoint `mapstructure:"target_norm"`
}

// Hotkeys горячие клавиши запуска и остановки
type Hotkeys struct {
	Enabled  bool   `mapstructure:"enabled"`
	Modifier string `mapstructure:"modifier"`
	Start    string `mapstructure:"start"`
	Stop     string `mapstructure:"stop"`
}

// Database журнал сессий и удаленные команды остановки
type Database struct {
	Enabled      bool          `mapstructure:"enabled"`
	DSN          string        `mapstructure:"dsn"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// Metrics HTTP endpoint для prometheus
type Metrics struct {
	Addr string `mapstructure:"addr"`
}

// Основная структура конфигурации
type Config struct {
	LogFilePath  string       `mapstructure:"log_file_path"`
	LogLevel     string       `mapstructure:"log_level"`
	Window       Window       `mapstructure:"window"`
	Capture      Capture      `mapstructure:"capture"`
	Input        Input        `mapstructure:"input"`
	ImageClicker ImageClicker `mapstructure:"image_clicker"`
	FixedClicker FixedClicker `mapstructure:"fixed_clicker"`
	Hotkeys      Hotkeys      `mapstructure:"hotkeys"`
	Database     Database     `mapstructure:"database"`
	Metrics      Metrics      `mapstructure:"metrics"`
}

// SetDefaults задает значения по умолчанию
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_file_path", "logs/cabalhelper.log")
	v.SetDefault("log_level", "INFO")

	v.SetDefault("window.class", "D3D Window")
	v.SetDefault("window.title", "Cabal")

	v.SetDefault("capture.backend", "window")
	v.SetDefault("capture.timeout", 2*time.Second)
	v.SetDefault("capture.save_all_screenshots", 0)
	v.SetDefault("capture.screenshot_dir", "data")

	v.SetDefault("input.backend", "message")
	v.SetDefault("input.baud_rate", 9600)
	v.SetDefault("input.read_timeout", 2*time.Second)
	v.SetDefault("input.cooldown", 0)

	v.SetDefault("image_clicker.interval", 100*time.Millisecond)
	v.SetDefault("image_clicker.threshold", 0.85)
	v.SetDefault("image_clicker.min_separation", 10.0)
	v.SetDefault("image_clicker.post_click_delay", 500*time.Millisecond)
	v.SetDefault("image_clicker.max_capture_failures", 3)
	v.SetDefault("image_clicker.color_filter.min_red", 0)
	v.SetDefault("image_clicker.color_filter.red_dominance", 0)

	v.SetDefault("fixed_clicker.interval", 200*time.Millisecond)

	v.SetDefault("hotkeys.enabled", true)
	v.SetDefault("hotkeys.modifier", "LSHIFT")
	v.SetDefault("hotkeys.start", "RETURN")
	v.SetDefault("hotkeys.stop", "Q")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.poll_interval", 2*time.Second)
}

// Load читает config.yaml из каталога path (или указанный файл) и
// переменные окружения с префиксом CABAL_
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if path == "" {
			path = "."
		}
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("CABAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет значения, которые нельзя исправить по умолчанию
func (c *Config) Validate() error {
	switch c.Capture.Backend {
	case "window", "screen":
	default:
		return fmt.Errorf("неизвестный capture.backend %q", c.Capture.Backend)
	}
	switch c.Input.Backend {
	case "message":
	case "arduino":
		if c.Input.Port == "" {
			return errors.New("input.port обязателен для arduino")
		}
	default:
		return fmt.Errorf("неизвестный input.backend %q", c.Input.Backend)
	}
	if c.ImageClicker.Threshold <= 0 || c.ImageClicker.Threshold > 1 {
		return fmt.Errorf("image_clicker.threshold %.2f вне (0,1]", c.ImageClicker.Threshold)
	}
	if c.Database.Enabled {
		if c.Database.DSN == "" {
			return errors.New("database.dsn обязателен при database.enabled")
		}
		if c.Database.PollInterval <= 0 {
			return fmt.Errorf("database.poll_interval должен быть больше нуля, задан %s", c.Database.PollInterval)
		}
	}
	return nil
}
