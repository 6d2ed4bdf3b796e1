// Package sh is an interactive shell around a tester configuration.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/sutcheck/pkg/env"
	"github.com/robotalks/sutcheck/pkg/harness"
	"github.com/robotalks/sutcheck/pkg/mmio"
	"github.com/robotalks/sutcheck/pkg/regfile"
	"github.com/robotalks/sutcheck/pkg/report"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *env.Config

	regs *mmio.Region
	mem  *mmio.Region
}

const (
	shellKey = "$shell"
	prompt   = "sut > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&RunCmd,
		&RegsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// RegFile maps the register file on first use.
func (s *Shell) RegFile() (*regfile.RegFile, error) {
	if s.regs == nil {
		conf := s.Config.RegFile
		if conf.Device == "" {
			return nil, fmt.Errorf("no register file configured")
		}
		r, err := mmio.Map(conf.Device, conf.Offset, conf.Base, conf.Size)
		if err != nil {
			return nil, err
		}
		s.regs = r
	}
	return regfile.New(s.regs, s.Config.RegFile.Base, s.Config.Registers), nil
}

// Memory maps the shared memory on first use.
func (s *Shell) Memory() (*mmio.Region, error) {
	if s.mem == nil {
		conf := s.Config.Memory
		if conf.Device == "" {
			return nil, fmt.Errorf("no shared memory configured")
		}
		r, err := mmio.Map(conf.Device, conf.Offset, conf.Base, conf.Size)
		if err != nil {
			return nil, err
		}
		s.mem = r
	}
	return s.mem, nil
}

// RunTester runs one tester session.
func (s *Shell) RunTester(ctx context.Context) (*report.Report, error) {
	t, err := harness.NewFromConfig(s.Config)
	if err != nil {
		return nil, err
	}
	defer t.Close()
	err = t.Run(ctx)
	return t.Report(), err
}

// Print prints v as JSON if requested, otherwise as text.
func (s *Shell) Print(c *ishell.Context, v interface{}, text string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Print(text)
}

// Close unmaps the memory windows.
func (s *Shell) Close() {
	for _, r := range []*mmio.Region{s.regs, s.mem} {
		if r != nil {
			r.Close()
		}
	}
	s.regs, s.mem = nil, nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// ParseAddr parses an address argument, accepting 0x prefixes.
func ParseAddr(arg string) (uint64, error) {
	addr, err := strconv.ParseUint(arg, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", arg)
	}
	return addr, nil
}

var (
	// RunCmd runs a tester session.
	RunCmd = ishell.Cmd{
		Name:    "run",
		Aliases: []string{"r"},
		Help:    "run a tester session",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			r, err := s.RunTester(context.Background())
			if r != nil {
				s.Print(c, r, fmt.Sprintf("passed=%v failures=%d\n", r.Passed, len(r.Failures)))
			}
			if err != nil {
				c.Err(err)
			}
		},
	}

	// RegsCmd dumps the register file.
	RegsCmd = ishell.Cmd{
		Name:    "regs",
		Aliases: []string{"rf"},
		Help:    "dump the register file",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			regs, err := s.RegFile()
			if err != nil {
				c.Err(err)
				return
			}
			values := make(map[string]uint32)
			var text string
			for _, f := range regs.Fields() {
				val, err := regs.Get(f.Name)
				if err != nil {
					c.Err(err)
					return
				}
				values[f.Name] = val
				text += fmt.Sprintf("%-6s %#06x %s %#x (%d)\n", f.Name, regs.Base()+f.Offset, f.Access, val, val)
			}
			s.Print(c, values, text)
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := env.Load()
	if err != nil {
		log.Fatalln(err)
	}
	New(conf).Run(flag.Args()...)
}
