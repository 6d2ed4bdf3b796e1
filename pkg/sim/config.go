package sim

import (
	"flag"
	"fmt"
	"os"

	"github.com/robotalks/sutcheck/pkg/env"
	"github.com/robotalks/sutcheck/pkg/mmio"
	"github.com/robotalks/sutcheck/pkg/regfile"
)

// Config defines the simulated SUT.
type Config struct {
	Listen    string
	RegFile   env.MemoryConfig
	Memory    env.MemoryConfig
	AddrWidth uint
	Once      bool

	Noise        string
	Messages     string
	Reg3         uint
	Reg4         uint
	String       string
	StringOffset uint64
}

// Defaults
const (
	DefaultListen   = "tcp://localhost:5005"
	DefaultMessages = "Hello from SUT!\n"
	DefaultString   = "String written by SUT into shared memory"
)

var defaultConfig = Config{
	Listen:    DefaultListen,
	RegFile:   env.MemoryConfig{Size: 4096},
	Memory:    env.MemoryConfig{Base: 0x80000000, Size: 4096},
	AddrWidth: env.DefaultAddrWidth,
	Messages:  DefaultMessages,
	Reg3:      42,
	Reg4:      1234,
	String:    DefaultString,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Listen, "listen", defaultConfig.Listen, "Listen URL, tcp://host:port or ws://host:port/path.")
	flag.StringVar(&defaultConfig.RegFile.Device, "regfile", defaultConfig.RegFile.Device, "Register file image, created when missing.")
	flag.Uint64Var(&defaultConfig.RegFile.Base, "regfile-base", defaultConfig.RegFile.Base, "Register file base address.")
	flag.StringVar(&defaultConfig.Memory.Device, "memory", defaultConfig.Memory.Device, "Shared memory image, created when missing. Empty disables the string.")
	flag.Uint64Var(&defaultConfig.Memory.Base, "memory-base", defaultConfig.Memory.Base, "Shared memory base address in the tester view.")
	flag.IntVar(&defaultConfig.Memory.Size, "memory-size", defaultConfig.Memory.Size, "Shared memory size.")
	flag.UintVar(&defaultConfig.AddrWidth, "addr-width", defaultConfig.AddrWidth, "Memory address width (bits).")
	flag.BoolVar(&defaultConfig.Once, "once", defaultConfig.Once, "Exit after one handshake.")
	flag.StringVar(&defaultConfig.Noise, "noise", defaultConfig.Noise, "Bytes sent before the enquiry.")
	flag.StringVar(&defaultConfig.Messages, "messages", defaultConfig.Messages, "Messages sent to the tester.")
	flag.UintVar(&defaultConfig.Reg3, "reg3", defaultConfig.Reg3, "Value written to REG3.")
	flag.UintVar(&defaultConfig.Reg4, "reg4", defaultConfig.Reg4, "Value written to REG4.")
	flag.StringVar(&defaultConfig.String, "string", defaultConfig.String, "String placed in shared memory.")
	flag.Uint64Var(&defaultConfig.StringOffset, "string-offset", defaultConfig.StringOffset, "Offset of the string in shared memory.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Program gets the program the SUT runs.
func (c *Config) Program() Program {
	return Program{
		Noise:    []byte(c.Noise),
		Messages: []byte(c.Messages),
		Registers: map[string]uint32{
			regfile.Reg3: uint32(c.Reg3),
			regfile.Reg4: uint32(c.Reg4),
		},
		String:       []byte(c.String),
		StringOffset: c.StringOffset,
	}
}

// NewBoard maps the images, creating them as needed.
func (c *Config) NewBoard() (*Board, error) {
	if c.RegFile.Device == "" {
		return nil, fmt.Errorf("register file image must be specified")
	}
	b := &Board{AddrWidth: c.AddrWidth}
	var err error
	if b.Regs, err = mapImage(c.RegFile); err != nil {
		return nil, err
	}
	if c.Memory.Device != "" {
		if b.Memory, err = mapImage(c.Memory); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

// NewServer creates the board and the server.
func (c *Config) NewServer() (*Server, error) {
	board, err := c.NewBoard()
	if err != nil {
		return nil, err
	}
	s, err := Listen(&SUT{Board: board, Program: c.Program()}, c.Listen)
	if err != nil {
		board.Close()
		return nil, err
	}
	s.Once = c.Once
	return s, nil
}

func mapImage(conf env.MemoryConfig) (*mmio.Region, error) {
	f, err := os.OpenFile(conf.Device, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err == nil && info.Size() < conf.Offset+int64(conf.Size) {
		err = f.Truncate(conf.Offset + int64(conf.Size))
	}
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("preparing %s: %w", conf.Device, err)
	}
	return mmio.MapWritable(conf.Device, conf.Offset, conf.Base, conf.Size)
}
