package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	responseSize    int
	responseTimeout time.Duration
	noResponse      bool
)

var commandCmd = &cobra.Command{
	Use:   "command <hex>",
	Short: "Send a raw control command and print the response",
	Long: `Send a raw control command to the device and wait for its response.

The command is given as hex; spaces and a 0x prefix are ignored:

  litepcie command "0x0001 0000"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireControl(); err != nil {
			return err
		}
		payload, err := parseHex(args[0])
		if err != nil {
			return err
		}

		n, err := conn.SendCommand(payload)
		if err != nil {
			return err
		}
		if n != len(payload) {
			return fmt.Errorf("device accepted %d of %d command bytes", n, len(payload))
		}
		if noResponse {
			fmt.Printf("%s sent %d bytes\n", okFmt("ok"), n)
			return nil
		}

		buf := make([]byte, responseSize)
		n, err = conn.ReceiveResponse(buf, responseTimeout)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Printf("%s no response within %s\n", warnFmt("timeout"), responseTimeout)
			return nil
		}
		fmt.Println(hex.EncodeToString(buf[:n]))
		return nil
	},
}

func init() {
	commandCmd.Flags().IntVar(&responseSize, "response-size", 64, "Maximum response size in bytes")
	commandCmd.Flags().DurationVar(&responseTimeout, "timeout", 100*time.Millisecond, "How long to wait for the response")
	commandCmd.Flags().BoolVar(&noResponse, "no-response", false, "Do not wait for a response")
	rootCmd.AddCommand(commandCmd)
}
