// Package env provides the tester configuration.
//
// Defaults are overridden by environment variables at init, then by a
// board profile (YAML) and finally by command line flags.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/robotalks/sutcheck/pkg/capture"
	"github.com/robotalks/sutcheck/pkg/regfile"
	"github.com/robotalks/sutcheck/pkg/sharedmem"
	"github.com/robotalks/sutcheck/pkg/uart"
)

// MemoryConfig describes a memory-mapped window.
type MemoryConfig struct {
	// Device is the file to map, e.g. /dev/mem or a shared image file.
	Device string `yaml:"device"`
	// Offset is the file offset of the window.
	Offset int64 `yaml:"offset"`
	// Base is the address the window starts at in the tester's view.
	Base uint64 `yaml:"base"`
	// Size of the window in bytes.
	Size int `yaml:"size"`
}

// Config is the tester configuration.
type Config struct {
	TesterID string `yaml:"tester_id"`

	// Freq and Baud apply to channels which don't set their own.
	Freq    uint32      `yaml:"freq"`
	Baud    uint32      `yaml:"baud"`
	Console uart.Config `yaml:"console"`
	Peer    uart.Config `yaml:"peer"`
	// Exclusive models a single UART re-initialized on every switch.
	Exclusive bool `yaml:"exclusive"`

	// Debug echoes captured bytes to the console while capturing.
	Debug    bool `yaml:"debug"`
	Capacity int  `yaml:"capacity"`

	RegFile   MemoryConfig    `yaml:"regfile"`
	Registers []regfile.Field `yaml:"registers"`

	// SharedMem enables the shared memory string check.
	SharedMem bool         `yaml:"shared_mem"`
	Memory    MemoryConfig `yaml:"memory"`
	AddrWidth uint         `yaml:"addr_width"`
	MaxString int          `yaml:"max_string"`

	Expect map[string]uint32 `yaml:"expect"`

	// MQTTURL enables report publishing, e.g. mqtt://localhost:1883/sut/
	MQTTURL string `yaml:"mqtt"`
}

// Defaults
const (
	DefaultFreq      = 100000000
	DefaultBaud      = 115200
	DefaultAddrWidth = 32
	DefaultPeerURL   = "tcp://localhost:5005"
)

var defaultConfig = Config{
	Freq:      DefaultFreq,
	Baud:      DefaultBaud,
	Console:   uart.Config{Name: "console", URL: "stdio:"},
	Peer:      uart.Config{Name: "peer", URL: DefaultPeerURL},
	Capacity:  capture.DefaultCapacity,
	RegFile:   MemoryConfig{Size: 4096},
	AddrWidth: DefaultAddrWidth,
	MaxString: sharedmem.DefaultMaxString,
}

var profilePath string

func init() {
	if val := os.Getenv("SUT_CONSOLE"); val != "" {
		defaultConfig.Console.URL = val
	}
	if val := os.Getenv("SUT_PEER"); val != "" {
		defaultConfig.Peer.URL = val
	}
	if val := os.Getenv("SUT_REGFILE"); val != "" {
		defaultConfig.RegFile.Device = val
	}
	if val := os.Getenv("SUT_MEMORY"); val != "" {
		defaultConfig.Memory.Device = val
		defaultConfig.SharedMem = true
	}
	if val := os.Getenv("SUT_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("SUT_DEBUG"); val != "" {
		defaultConfig.Debug, _ = strconv.ParseBool(val)
	}
	profilePath = os.Getenv("SUT_PROFILE")
}

// SetupFlags sets command line flags.
func SetupFlags() {
	SetupFlagsOn(flag.CommandLine, &defaultConfig)
	flag.StringVar(&profilePath, "profile", profilePath, "Board profile (YAML). Flags given explicitly override it.")
}

// SetupFlagsOn binds the flags of conf on fs.
func SetupFlagsOn(fs *flag.FlagSet, conf *Config) {
	fs.StringVar(&conf.TesterID, "tester-id", conf.TesterID, "Tester ID, defaults to a machine ID.")
	fs.StringVar(&conf.Console.URL, "console", conf.Console.URL, "Console channel URL.")
	fs.StringVar(&conf.Peer.URL, "peer", conf.Peer.URL, "SUT channel URL (tty:///dev/ttyUSB1, tcp://host:port, ws://host:port/uart).")
	fs.Var(uint32Value{&conf.Freq}, "freq", "System clock frequency (Hz).")
	fs.Var(uint32Value{&conf.Baud}, "baud", "Baud rate.")
	fs.BoolVar(&conf.Exclusive, "exclusive", conf.Exclusive, "Re-open the UART on every channel switch.")
	fs.BoolVar(&conf.Debug, "debug", conf.Debug, "Echo SUT messages to the console while capturing.")
	fs.IntVar(&conf.Capacity, "capacity", conf.Capacity, "Capture buffer capacity in bytes, including the terminator.")
	fs.StringVar(&conf.RegFile.Device, "regfile", conf.RegFile.Device, "Register file device to map.")
	fs.Var(uint64Value{&conf.RegFile.Base}, "regfile-base", "Register file base address.")
	fs.BoolVar(&conf.SharedMem, "shared-mem", conf.SharedMem, "Read the SUT string from shared memory.")
	fs.StringVar(&conf.Memory.Device, "memory", conf.Memory.Device, "Shared memory device to map.")
	fs.Var(uint64Value{&conf.Memory.Base}, "memory-base", "Shared memory base address (tester view).")
	fs.IntVar(&conf.Memory.Size, "memory-size", conf.Memory.Size, "Shared memory window size.")
	fs.UintVar(&conf.AddrWidth, "addr-width", conf.AddrWidth, "Memory address width (bits).")
	fs.IntVar(&conf.MaxString, "max-string", conf.MaxString, "Maximum shared memory string length.")
	fs.StringVar(&conf.MQTTURL, "mqtt", conf.MQTTURL, "MQTT broker URL to publish the report to.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load returns the effective configuration. Must be called after
// flag.Parse.
func Load() (*Config, error) {
	conf := NewConfig()
	if profilePath != "" {
		if err := conf.LoadProfile(profilePath); err != nil {
			return nil, err
		}
		// flags given explicitly win over the profile.
		fs := flag.NewFlagSet("profile", flag.ContinueOnError)
		SetupFlagsOn(fs, conf)
		var err error
		flag.Visit(func(f *flag.Flag) {
			if fs.Lookup(f.Name) != nil && err == nil {
				err = fs.Set(f.Name, f.Value.String())
			}
		})
		if err != nil {
			return nil, err
		}
	}
	conf.ApplyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// MustLoad loads the config and fails on error.
func MustLoad() *Config {
	conf, err := Load()
	if err != nil {
		log.Fatalln(err)
	}
	return conf
}

// ApplyDefaults fills in derived values.
func (c *Config) ApplyDefaults() {
	if c.TesterID == "" {
		c.TesterID = MachineID()
	}
	if c.Console.Name == "" {
		c.Console.Name = "console"
	}
	if c.Peer.Name == "" {
		c.Peer.Name = "peer"
	}
	for _, ch := range []*uart.Config{&c.Console, &c.Peer} {
		if ch.Freq == 0 {
			ch.Freq = c.Freq
		}
		if ch.Baud == 0 {
			ch.Baud = c.Baud
		}
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Peer.URL == "" {
		return fmt.Errorf("peer channel URL must be specified")
	}
	if c.Console.URL == "" {
		return fmt.Errorf("console channel URL must be specified")
	}
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", c.Capacity)
	}
	if c.RegFile.Device != "" && c.RegFile.Size <= 0 {
		return fmt.Errorf("register file window size must be positive")
	}
	if c.SharedMem {
		if c.AddrWidth == 0 || c.AddrWidth > 64 {
			return fmt.Errorf("addr-width must be in 1..64, got %d", c.AddrWidth)
		}
		if c.Memory.Device == "" || c.Memory.Size <= 0 {
			return fmt.Errorf("shared memory requires a device and a size")
		}
	}
	return nil
}

type uint32Value struct{ p *uint32 }

func (v uint32Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.FormatUint(uint64(*v.p), 10)
}

func (v uint32Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return err
	}
	*v.p = uint32(n)
	return nil
}

type uint64Value struct{ p *uint64 }

func (v uint64Value) String() string {
	if v.p == nil {
		return "0"
	}
	return fmt.Sprintf("%#x", *v.p)
}

func (v uint64Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return err
	}
	*v.p = n
	return nil
}
