package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	imageInternal "cabalhelper/internal/image"
	"cabalhelper/internal/screenshot"
	"cabalhelper/internal/types"
)

func newCaptureCmd() *cobra.Command {
	var (
		out    string
		region types.Rect
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Снять кадр клиентской области (или региона) в PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			h, err := a.locate()
			if err != nil {
				return err
			}

			var frame *screenshot.Frame
			if region.Width == 0 && region.Height == 0 {
				frame, err = a.screenshots.CaptureClient(context.Background(), h)
			} else {
				frame, err = a.screenshots.Capture(context.Background(), h, region)
			}
			if err != nil {
				return err
			}

			if err := imageInternal.SaveImage(frame.Image, out); err != nil {
				return err
			}
			fmt.Printf("📸 %dx%d %s с экрана %s сохранен в %s\n", frame.Width(), frame.Height(), frame.PixelFormat(), frame.Screen, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "frame.png", "Файл для сохранения")
	cmd.Flags().IntVar(&region.X, "x", 0, "Левый край региона в координатах клиента")
	cmd.Flags().IntVar(&region.Y, "y", 0, "Верхний край региона в координатах клиента")
	cmd.Flags().IntVar(&region.Width, "width", 0, "Ширина региона (0 - вся клиентская область)")
	cmd.Flags().IntVar(&region.Height, "height", 0, "Высота региона (0 - вся клиентская область)")
	return cmd
}
