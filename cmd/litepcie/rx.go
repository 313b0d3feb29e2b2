package main

import (
	"fmt"
	"os"
	"time"

	litepcie "github.com/kevmo314/go-litepcie"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	rxEndpoints string
	rxBytes     int
	rxChunk     int
	rxTimeout   time.Duration
	rxOut       string
)

var rxCmd = &cobra.Command{
	Use:   "rx",
	Short: "Capture a stream from one or more endpoints",
	Long: `Capture bytes from one or more endpoints concurrently. Each endpoint is
written to <out>-ep<N>.bin. Capture stops once --bytes have been read or
a chunk times out without data.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoints, err := parseEndpoints(rxEndpoints)
		if err != nil {
			return err
		}
		if rxBytes <= 0 || rxChunk <= 0 {
			return fmt.Errorf("--bytes and --chunk must be positive: %w", litepcie.ErrInvalidParameter)
		}

		var g errgroup.Group
		totals := make([]int, len(endpoints))
		for i, ep := range endpoints {
			i, ep := i, ep
			g.Go(func() error {
				n, err := capture(ep, fmt.Sprintf("%s-ep%d.bin", rxOut, ep))
				totals[i] = n
				return err
			})
		}
		err = g.Wait()

		for i, ep := range endpoints {
			line := fmt.Sprintf("endpoint %d: %d/%d bytes", ep, totals[i], rxBytes)
			if totals[i] < rxBytes {
				fmt.Println(warnFmt(line))
			} else {
				fmt.Println(okFmt(line))
			}
		}
		return err
	},
}

func capture(ep int, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	defer conn.AbortReceive(ep)

	buf := make([]byte, rxChunk)
	total := 0
	for total < rxBytes {
		want := min(rxChunk, rxBytes-total)
		n, err := conn.Receive(buf[:want], ep, rxTimeout)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += n
		}
		if err != nil {
			return total, err
		}
		if n < want {
			break
		}
	}
	return total, nil
}

func init() {
	rxCmd.Flags().StringVar(&rxEndpoints, "endpoints", "0", "Comma separated endpoints to capture from")
	rxCmd.Flags().IntVar(&rxBytes, "bytes", 1<<20, "Bytes to capture per endpoint")
	rxCmd.Flags().IntVar(&rxChunk, "chunk", 16*litepcie.DefaultPacketSize, "Bytes per Receive call")
	rxCmd.Flags().DurationVar(&rxTimeout, "timeout", time.Second, "Timeout for each chunk")
	rxCmd.Flags().StringVar(&rxOut, "out", "capture", "Output file prefix")
	rootCmd.AddCommand(rxCmd)
}
