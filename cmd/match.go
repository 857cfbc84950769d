package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	imageInternal "cabalhelper/internal/image"
)

func newMatchCmd() *cobra.Command {
	var (
		threshold     float64
		minSeparation float64
		all           bool
		filter        imageInternal.ColorFilter
	)

	cmd := &cobra.Command{
		Use:   "match <frame.png> <template.png>",
		Short: "Найти шаблон на сохраненном кадре (калибровка порога)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := imageInternal.LoadImage(args[0])
			if err != nil {
				return err
			}
			tpl, err := imageInternal.LoadTemplate(args[1])
			if err != nil {
				return err
			}

			start := time.Now()
			var matches imageInternal.MatchSet
			if all {
				matches = filter.Apply(frame, imageInternal.FindAll(frame, tpl, threshold, minSeparation))
			} else if m, ok := imageInternal.FindBest(frame, tpl, threshold); ok {
				matches = filter.Apply(frame, imageInternal.MatchSet{m})
			}

			fmt.Printf("Шаблон %dx%d, кадр %v, %d совпадений за %s\n",
				tpl.Width, tpl.Height, frame.Bounds().Size(), len(matches), time.Since(start).Round(time.Millisecond))
			for _, m := range matches {
				fmt.Printf("  (%d,%d) центр %v уверенность %.4f\n", m.X, m.Y, m.Center(), m.Confidence)
			}
			return nil
		},
	}

	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0.85, "Минимальная уверенность")
	cmd.Flags().Float64Var(&minSeparation, "min-separation", 10, "Минимальное расстояние между центрами")
	cmd.Flags().BoolVar(&all, "all", false, "Все совпадения, а не только лучшее")
	cmd.Flags().IntVar(&filter.MinRed, "min-red", 0, "Фильтр по цвету: минимальный красный в центре")
	cmd.Flags().IntVar(&filter.RedDominance, "red-dominance", 0, "Фильтр по цвету: перевес красного над G и B")
	return cmd
}
