package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cabalhelper",
		Short: "Автоматизация повторяющихся действий в окне Cabal",
		Long: `cabalhelper находит окно игры, ищет на кадрах клиентской области
заданный шаблон и кликает по найденным местам без фокуса окна.

Пример:
  cabalhelper run image-clicker
  cabalhelper match frame.png templates/red_dot.png --all`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "Каталог с config.yaml или путь к yaml файлу")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный лог (уровень DEBUG)")

	rootCmd.AddCommand(
		newRunCmd(),
		newLocateCmd(),
		newCaptureCmd(),
		newMatchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
