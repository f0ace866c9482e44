package matrix

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/flavioheleno/dm163/framepool"
	"github.com/flavioheleno/dm163/image8x8"
	"github.com/flavioheleno/dm163/ingest"
	"github.com/flavioheleno/dm163/screensaver"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("matrix: invalid config")

// Backend names for GPIOConfig.Backend.
const (
	BackendPeriph = "periph" // periph.io host drivers, pins by name
	BackendCdev   = "cdev"   // Linux GPIO character device, pins by line offset
	BackendSim    = "sim"    // in-memory pins, no hardware
)

type ScreensaverConfig struct {
	Mode           string `yaml:"mode"` // "text" | "gradient" | "mixed"
	Text           string `yaml:"text"`
	IdleMs         int    `yaml:"idle_ms"`     // frame interval while animating
	DebounceMs     int    `yaml:"debounce_ms"` // quiet time before resuming after traffic
	GradientFrames int    `yaml:"gradient_frames"`
}

type SerialConfig struct {
	Port string `yaml:"port"` // empty disables the serial source
	Baud int    `yaml:"baud"`
}

type WebSocketConfig struct {
	Addr string `yaml:"addr"` // empty disables the WebSocket source
	Path string `yaml:"path"`
}

type GPIOConfig struct {
	Backend string   `yaml:"backend"`
	Chip    string   `yaml:"chip"` // cdev only, e.g. gpiochip0
	SB      string   `yaml:"sb"`
	LAT     string   `yaml:"lat"`
	RST     string   `yaml:"rst"`
	SCK     string   `yaml:"sck"`
	SDA     string   `yaml:"sda"`
	Rows    []string `yaml:"rows"` // top row first
	ResetMs int      `yaml:"reset_ms"`
}

type Config struct {
	RefreshHz int `yaml:"refresh_hz"` // full frames per second
	PoolSlots int `yaml:"pool_slots"`
	RxQueue   int `yaml:"rx_queue"` // receive interrupt queue length in bytes

	Screensaver ScreensaverConfig `yaml:"screensaver"`
	Serial      SerialConfig      `yaml:"serial"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	GPIO        GPIOConfig        `yaml:"gpio"`
}

// DefaultConfig returns the configuration of the reference board: 60Hz refresh,
// three frame buffers, 38400 baud serial and a simulated GPIO backend.
func DefaultConfig() Config {
	return Config{
		RefreshHz: 60,
		PoolSlots: framepool.DefaultSlots,
		RxQueue:   1024,
		Screensaver: ScreensaverConfig{
			Mode:           screensaver.ModeText.String(),
			Text:           "DM163",
			IdleMs:         60,
			DebounceMs:     1000,
			GradientFrames: 16,
		},
		Serial:    SerialConfig{Baud: ingest.DefaultBaud},
		WebSocket: WebSocketConfig{Path: "/frames"},
		GPIO: GPIOConfig{
			Backend: BackendSim,
			Chip:    "gpiochip0",
			SB:      "GPIO5",
			LAT:     "GPIO6",
			RST:     "GPIO13",
			SCK:     "GPIO19",
			SDA:     "GPIO26",
			Rows:    []string{"GPIO4", "GPIO17", "GPIO27", "GPIO22", "GPIO23", "GPIO24", "GPIO25", "GPIO12"},
			ResetMs: 100,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Keys absent from the file keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("matrix: parse %s: %w", path, err)
	}
	return c, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.RefreshHz <= 0:
		return fmt.Errorf("%w: refresh_hz must be positive", ErrInvalidConfig)
	case c.PoolSlots < framepool.DefaultSlots:
		return fmt.Errorf("%w: pool_slots must be at least %d", ErrInvalidConfig, framepool.DefaultSlots)
	case c.RxQueue <= 0:
		return fmt.Errorf("%w: rx_queue must be positive", ErrInvalidConfig)
	case c.Screensaver.IdleMs <= 0 || c.Screensaver.DebounceMs <= 0:
		return fmt.Errorf("%w: screensaver intervals must be positive", ErrInvalidConfig)
	case c.Screensaver.GradientFrames < 0:
		return fmt.Errorf("%w: gradient_frames must not be negative", ErrInvalidConfig)
	case c.Serial.Baud < 0:
		return fmt.Errorf("%w: serial baud must not be negative", ErrInvalidConfig)
	case c.GPIO.ResetMs < 0:
		return fmt.Errorf("%w: reset_ms must not be negative", ErrInvalidConfig)
	}
	if _, err := screensaver.ParseMode(c.Screensaver.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.GPIO.Backend {
	case BackendPeriph, BackendCdev, BackendSim:
	default:
		return fmt.Errorf("%w: unknown gpio backend %q", ErrInvalidConfig, c.GPIO.Backend)
	}
	if len(c.GPIO.Rows) != image8x8.Height {
		return fmt.Errorf("%w: gpio needs %d rows, got %d", ErrInvalidConfig, image8x8.Height, len(c.GPIO.Rows))
	}
	return nil
}

// RowPeriod is the time each row stays lit: one eighth of a refresh period.
func (c Config) RowPeriod() time.Duration {
	return (physic.Frequency(c.RefreshHz) * physic.Hertz * image8x8.Height).Period()
}

// IdleInterval is the screensaver frame interval.
func (c Config) IdleInterval() time.Duration {
	return time.Duration(c.Screensaver.IdleMs) * time.Millisecond
}

// DebounceInterval is how long the screensaver stays quiet after live traffic.
func (c Config) DebounceInterval() time.Duration {
	return time.Duration(c.Screensaver.DebounceMs) * time.Millisecond
}

// ScreensaverOptions converts the screensaver section. The mode must be valid.
func (c Config) ScreensaverOptions() screensaver.Options {
	m, _ := screensaver.ParseMode(c.Screensaver.Mode)
	return screensaver.Options{
		Mode:           m,
		Text:           c.Screensaver.Text,
		GradientFrames: c.Screensaver.GradientFrames,
	}
}
