package litepcie

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"gopkg.in/yaml.v3"
)

// Default device nodes created by the LitePCIe driver.
const (
	DefaultControlPath = "/dev/litepcie0"
)

// DefaultEndpointPaths lists the streaming endpoint nodes, one per endpoint.
var DefaultEndpointPaths = []string{"/dev/litepcie1", "/dev/litepcie2", "/dev/litepcie3"}

const (
	// DefaultPacketSize is the size of one FPGA data packet.
	DefaultPacketSize = 4096

	DefaultStatusPollInterval = 250 * time.Microsecond
	DefaultReceiveBackoff     = 100 * time.Microsecond
	DefaultSendBackoff        = 500 * time.Microsecond
)

// Config describes where the device nodes live and how transfers poll them.
type Config struct {
	ControlPath   string   `yaml:"control_path"`
	EndpointPaths []string `yaml:"endpoint_paths"`

	// PacketSize is the DMA buffer unit in bytes.
	PacketSize int `yaml:"packet_size"`

	// StatusPollInterval is the sleep between control status reads.
	StatusPollInterval time.Duration `yaml:"status_poll_interval"`
	// ReceiveBackoff is the sleep after a zero-byte endpoint read.
	ReceiveBackoff time.Duration `yaml:"receive_backoff"`
	// SendBackoff is the sleep after a zero-byte endpoint write.
	SendBackoff time.Duration `yaml:"send_backoff"`

	// OpenFile opens device nodes. If nil, uses OpenDeviceFile.
	OpenFile OpenFunc `yaml:"-"`
	// DMA starts and stops DMA channels. If nil, uses IoctlDMA.
	DMA DMAEngine `yaml:"-"`
	// Clock drives deadlines and backoff sleeps. If nil, uses the wall clock.
	Clock clock.Clock `yaml:"-"`
	// Logger for open failures and DMA state changes. If nil, uses slog.Default().
	Logger *slog.Logger `yaml:"-"`
	// Metrics, if set, records transfer and DMA counters.
	Metrics *Metrics `yaml:"-"`
}

// DefaultConfig returns a Config for the standard device nodes.
func DefaultConfig() Config {
	return Config{
		ControlPath:        DefaultControlPath,
		EndpointPaths:      append([]string(nil), DefaultEndpointPaths...),
		PacketSize:         DefaultPacketSize,
		StatusPollInterval: DefaultStatusPollInterval,
		ReceiveBackoff:     DefaultReceiveBackoff,
		SendBackoff:        DefaultSendBackoff,
	}
}

// LoadConfig decodes YAML from r on top of DefaultConfig. An empty document
// yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.ControlPath == "" {
		return fmt.Errorf("%w: control_path is empty", ErrInvalidConfig)
	}
	if len(c.EndpointPaths) > MaxEndpoints {
		return fmt.Errorf("%w: %d endpoint paths, at most %d supported", ErrInvalidConfig, len(c.EndpointPaths), MaxEndpoints)
	}
	if c.PacketSize <= 0 {
		return fmt.Errorf("%w: packet_size must be positive, got %d", ErrInvalidConfig, c.PacketSize)
	}
	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"status_poll_interval", c.StatusPollInterval},
		{"receive_backoff", c.ReceiveBackoff},
		{"send_backoff", c.SendBackoff},
	}
	for _, iv := range intervals {
		if iv.d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, iv.name, iv.d)
		}
	}
	return nil
}

// withCollaborators fills in the platform defaults for unset collaborators.
func (c Config) withCollaborators() Config {
	if c.OpenFile == nil {
		c.OpenFile = OpenDeviceFile
	}
	if c.DMA == nil {
		c.DMA = IoctlDMA{}
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
