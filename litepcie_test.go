package litepcie

import (
	"testing"
)

func TestVersion(t *testing.T) {
	version := Version()
	if version == "" {
		t.Error("Version string is empty")
	}

	expected := "1.0.0"
	if version != expected {
		t.Errorf("Version mismatch: got %s, expected %s", version, expected)
	}
}

func TestDirectionString(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{DirectionRX, "rx"},
		{DirectionTX, "tx"},
		{Direction(7), "direction(7)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.dir.String(); got != tt.want {
				t.Errorf("Direction(%d).String() = %q, want %q", uint8(tt.dir), got, tt.want)
			}
		})
	}
}

func TestChunkCount(t *testing.T) {
	tests := []struct {
		name    string
		packets int
		extra   int
		want    int
	}{
		{"zero packets", 0, 0, 1},
		{"partial packet", 0, 100, 1},
		{"one packet", 1, 0, 1},
		{"one and a half packets", 1, DefaultPacketSize / 2, 1},
		{"sixteen packets", 16, 0, 16},
		{"seventeen packets", 17, 0, 16},
		{"thousand packets", 1000, 0, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			length := tt.packets*DefaultPacketSize + tt.extra
			if got := chunkCount(length, DefaultPacketSize); got != tt.want {
				t.Errorf("chunkCount(%d) = %d, want %d", length, got, tt.want)
			}
		})
	}
}
