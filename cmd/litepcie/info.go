package main

import (
	"fmt"

	litepcie "github.com/kevmo314/go-litepcie"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show which device nodes opened",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("go-litepcie %s\n\n", litepcie.Version())
		fmt.Printf("  %-10s %-20s %s\n", "control", cfg.ControlPath, status(conn.IsOpen()))
		for i := 0; i < litepcie.MaxEndpoints; i++ {
			path := "-"
			if i < len(cfg.EndpointPaths) && cfg.EndpointPaths[i] != "" {
				path = cfg.EndpointPaths[i]
			}
			fmt.Printf("  %-10s %-20s %s\n", fmt.Sprintf("endpoint%d", i), path, status(conn.EndpointAvailable(i)))
		}
		fmt.Printf("\n  %s\n", dimFmt(fmt.Sprintf("packet size %d bytes, %d buffer(s) per channel", cfg.PacketSize, conn.BuffersCount())))
		return nil
	},
}

func status(ok bool) string {
	if ok {
		return okFmt("open")
	}
	return errFmt("unavailable")
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
