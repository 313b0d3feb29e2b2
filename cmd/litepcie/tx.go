package main

import (
	"fmt"
	"os"
	"time"

	litepcie "github.com/kevmo314/go-litepcie"
	"github.com/spf13/cobra"
)

var (
	txEndpoint int
	txIn       string
	txChunk    int
	txTimeout  time.Duration
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Transmit a file to an endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if txIn == "" {
			return fmt.Errorf("--in is required: %w", litepcie.ErrInvalidParameter)
		}
		if txChunk <= 0 {
			return fmt.Errorf("--chunk must be positive: %w", litepcie.ErrInvalidParameter)
		}
		data, err := os.ReadFile(txIn)
		if err != nil {
			return err
		}
		defer conn.AbortTransmit(txEndpoint)

		total := 0
		for total < len(data) {
			want := min(txChunk, len(data)-total)
			n, err := conn.Send(data[total:total+want], txEndpoint, txTimeout)
			total += n
			if err != nil {
				return err
			}
			if n < want {
				fmt.Printf("%s endpoint %d stalled after %d/%d bytes\n", warnFmt("timeout"), txEndpoint, total, len(data))
				return nil
			}
		}
		fmt.Printf("%s sent %d bytes to endpoint %d\n", okFmt("ok"), total, txEndpoint)
		return nil
	},
}

func init() {
	txCmd.Flags().IntVar(&txEndpoint, "endpoint", 0, "Endpoint to transmit on")
	txCmd.Flags().StringVar(&txIn, "in", "", "File to transmit")
	txCmd.Flags().IntVar(&txChunk, "chunk", 16*litepcie.DefaultPacketSize, "Bytes per Send call")
	txCmd.Flags().DurationVar(&txTimeout, "timeout", time.Second, "Timeout for each chunk")
	rootCmd.AddCommand(txCmd)
}
