package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"time"

	litepcie "github.com/kevmo314/go-litepcie"
)

func main() {
	// Check if running as root
	if os.Getuid() != 0 {
		fmt.Println("Warning: This program may require root privileges to access /dev/litepcie*")
	}

	conn, err := litepcie.Open(litepcie.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to open connection: %v", err)
	}
	defer conn.Close()

	if !conn.IsOpen() {
		log.Fatalf("Control device %s is not available", litepcie.DefaultControlPath)
	}
	for i := 0; i < litepcie.MaxEndpoints; i++ {
		fmt.Printf("Endpoint %d available: %v\n", i, conn.EndpointAvailable(i))
	}
	if !conn.EndpointAvailable(0) {
		log.Fatalf("Endpoint 0 is not available")
	}
	defer conn.ResetAll()

	// One packet of a ramp, sent on endpoint 0 and read back from it.
	// The board must be built with the DMA loopback enabled.
	out := make([]byte, litepcie.DefaultPacketSize)
	for i := range out {
		out[i] = byte(i)
	}

	start := time.Now()
	tx := conn.BeginSend(out, 0)
	rx := conn.BeginReceive(make([]byte, len(out)), 0)

	sent, err := conn.FinishSend(out, tx)
	if err != nil {
		log.Fatalf("Send failed: %v", err)
	}
	fmt.Printf("Sent %d bytes\n", sent)

	in := make([]byte, len(out))
	if !conn.WaitReceiveReady(rx, time.Second) {
		log.Fatalf("Receive never became ready")
	}
	got, err := conn.FinishReceive(in, rx)
	if err != nil {
		log.Fatalf("Receive failed: %v", err)
	}
	fmt.Printf("Received %d bytes in %v\n", got, time.Since(start))

	if got == len(out) && bytes.Equal(in, out) {
		fmt.Println("Loopback OK")
	} else {
		fmt.Println("Loopback data mismatch")
	}
}
