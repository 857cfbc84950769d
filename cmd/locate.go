package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Найти окно игры и показать его геометрию",
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
			outer, err := a.locator.WindowRect(h)
			if err != nil {
				return err
			}
			client, err := a.locator.ClientRect(h)
			if err != nil {
				return err
			}
			dpi, err := a.locator.DPI(h)
			if err != nil {
				return err
			}

			fmt.Printf("Окно:     %s\n", h)
			fmt.Printf("Внешний:  %s\n", outer)
			fmt.Printf("Клиент:   %s\n", client)
			fmt.Printf("DPI:      %d (масштаб %.2f)\n", dpi, float64(dpi)/96)
			return nil
		},
	}
}
