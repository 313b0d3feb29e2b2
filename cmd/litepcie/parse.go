package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	litepcie "github.com/kevmo314/go-litepcie"
)

// parseEndpoints parses a comma separated endpoint list such as "0,2".
func parseEndpoints(s string) ([]int, error) {
	var eps []int
	seen := make(map[int]bool)
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		ep, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", field, litepcie.ErrInvalidEndpoint)
		}
		if ep < 0 || ep >= litepcie.MaxEndpoints {
			return nil, fmt.Errorf("endpoint %d out of range: %w", ep, litepcie.ErrInvalidEndpoint)
		}
		if seen[ep] {
			return nil, fmt.Errorf("endpoint %d listed twice: %w", ep, litepcie.ErrInvalidParameter)
		}
		seen[ep] = true
		eps = append(eps, ep)
	}
	if len(eps) == 0 {
		return nil, fmt.Errorf("no endpoints given: %w", litepcie.ErrInvalidParameter)
	}
	return eps, nil
}

// parseHex decodes a command payload, ignoring whitespace and 0x prefixes.
func parseHex(s string) ([]byte, error) {
	var b strings.Builder
	for _, field := range strings.Fields(s) {
		field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
		b.WriteString(field)
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("empty command: %w", litepcie.ErrInvalidParameter)
	}
	data, err := hex.DecodeString(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex command: %w", err)
	}
	return data, nil
}
