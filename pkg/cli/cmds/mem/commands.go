package mem

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/sutcheck/pkg/cli/sh"
	"github.com/robotalks/sutcheck/pkg/sharedmem"
)

const defaultPeekLen = 64

var (
	// PeekCmd dumps shared memory at a tester view address.
	PeekCmd = ishell.Cmd{
		Name:    "peek",
		Aliases: []string{"p"},
		Help:    "ADDR [LEN]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ADDR required"))
				return
			}
			addr, err := sh.ParseAddr(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			n := defaultPeekLen
			if len(c.Args) > 1 {
				if n, err = strconv.Atoi(c.Args[1]); err != nil || n <= 0 {
					c.Err(fmt.Errorf("Invalid LEN: %s", c.Args[1]))
					return
				}
			}
			s := sh.ShellFrom(c)
			mem, err := s.Memory()
			if err != nil {
				c.Err(err)
				return
			}
			data := make([]byte, peekLen(n, mem.Size()))
			if n, err = mem.ReadMemory(addr, data); err != nil {
				c.Err(err)
				return
			}
			s.Print(c, data[:n], hex.Dump(data[:n]))
		},
	}

	// XformCmd shows the tester address of a SUT pointer and the string
	// there.
	XformCmd = ishell.Cmd{
		Name:    "xform",
		Aliases: []string{"x"},
		Help:    "ADDR",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ADDR required"))
				return
			}
			raw, err := sh.ParseAddr(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			capability, err := sharedmem.Derive(raw, s.Config.AddrWidth)
			if err != nil {
				c.Err(err)
				return
			}
			mem, err := s.Memory()
			if err != nil {
				s.Print(c, capability, capability.String()+"\n")
				return
			}
			str, err := sharedmem.ReadString(mem, capability, s.Config.MaxString)
			if err != nil {
				c.Err(err)
			}
			s.Print(c, map[string]interface{}{
				"raw":    capability.Raw,
				"addr":   capability.Addr,
				"string": string(str),
			}, fmt.Sprintf("%s: %q\n", capability, str))
		},
	}
)

// peekLen bounds a requested dump to the mapped window.
func peekLen(n, size int) int {
	if n > size {
		return size
	}
	return n
}

func init() {
	sh.AddCmds(&PeekCmd, &XformCmd)
}
