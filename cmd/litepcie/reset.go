package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Stop every armed DMA channel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := conn.ResetAll(); err != nil {
			return err
		}
		fmt.Println(okFmt("DMA channels reset"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
