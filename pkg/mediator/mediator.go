// Package mediator multiplexes the console and peer channels.
//
// Only one channel is active at a time. All byte-level I/O goes to the
// active channel, and switching is an explicit state transition.
package mediator

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/sutcheck/pkg/uart"
)

// Role identifies a logical channel.
type Role int

// Roles
const (
	// None means no channel has been selected.
	None Role = iota
	// Console is the local channel for human-readable output.
	Console
	// Peer is the channel wired to the SUT.
	Peer
)

func (r Role) String() string {
	switch r {
	case Console:
		return "console"
	case Peer:
		return "peer"
	}
	return "none"
}

// ErrNoActiveChannel indicates I/O was attempted before any Select.
var ErrNoActiveChannel = errors.New("no active channel")

// Mediator owns the channels of both roles and tracks the active one.
type Mediator struct {
	// Exclusive models hardware with a single UART: selecting a role
	// closes the previously active port and re-opens the target.
	// Otherwise both ports stay live and switching is an assignment.
	Exclusive bool

	opener  uart.Opener
	configs map[Role]uart.Config

	// lock guards the fields below, which the cancel path reads from
	// another goroutine. It is never held across port I/O.
	lock    sync.Mutex
	ports   map[Role]uart.Port
	aborted map[Role]bool
	active  Role
	opens   int
}

// New creates a Mediator. opener defaults to uart.Open.
func New(opener uart.Opener, console, peer uart.Config) *Mediator {
	if opener == nil {
		opener = uart.Open
	}
	if console.Name == "" {
		console.Name = Console.String()
	}
	if peer.Name == "" {
		peer.Name = Peer.String()
	}
	return &Mediator{
		opener:  opener,
		configs: map[Role]uart.Config{Console: console, Peer: peer},
		ports:   make(map[Role]uart.Port),
		aborted: make(map[Role]bool),
	}
}

// Active returns the currently active role.
func (m *Mediator) Active() Role {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.active
}

// Opens counts how many times a port has been opened, for diagnostics.
func (m *Mediator) Opens() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.opens
}

// Select makes role the active channel. A role aborted through its Closer
// can't be selected again until it is finished.
func (m *Mediator) Select(role Role) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	conf, ok := m.configs[role]
	if !ok {
		return fmt.Errorf("select %v: unknown role", role)
	}
	if m.aborted[role] {
		return fmt.Errorf("select %v: %w", role, uart.ErrClosed)
	}
	if m.active == role && m.ports[role] != nil {
		return nil
	}
	if m.Exclusive && m.active != None && m.active != role {
		if err := m.close(m.active); err != nil {
			return err
		}
	}
	if m.ports[role] == nil {
		port, err := m.opener(conf)
		if err != nil {
			return fmt.Errorf("select %v: %w", role, err)
		}
		m.ports[role] = port
		m.opens++
	}
	glog.V(2).Infof("channel %v -> %v", m.active, role)
	m.active = role
	return nil
}

// Finish closes the port of role. If role is active, no channel is active
// afterwards.
func (m *Mediator) Finish(role Role) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.active == role {
		m.active = None
	}
	delete(m.aborted, role)
	return m.close(role)
}

// Send transmits one byte on the active channel.
func (m *Mediator) Send(b byte) error {
	port, err := m.port()
	if err != nil {
		return err
	}
	return port.Send(b)
}

// Recv blocks for one byte on the active channel.
func (m *Mediator) Recv() (byte, error) {
	port, err := m.port()
	if err != nil {
		return 0, err
	}
	return port.Recv()
}

// Write implements io.Writer on the active channel.
func (m *Mediator) Write(p []byte) (int, error) {
	port, err := m.port()
	if err != nil {
		return 0, err
	}
	return port.Write(p)
}

// Echo sends b on the console and switches back to the peer.
func (m *Mediator) Echo(b byte) error {
	return m.OnConsole(func() error { return m.Send(b) })
}

// OnConsole runs fn with the console active, then restores the previous role.
func (m *Mediator) OnConsole(fn func() error) error {
	prev := m.Active()
	if err := m.Select(Console); err != nil {
		return err
	}
	err := fn()
	if prev != None && prev != Console {
		if serr := m.Select(prev); err == nil {
			err = serr
		}
	}
	return err
}

// Close finishes all open ports.
func (m *Mediator) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	var first error
	for role := range m.ports {
		if err := m.close(role); err != nil && first == nil {
			first = err
		}
	}
	m.aborted = make(map[Role]bool)
	m.active = None
	return first
}

// Closer returns an io.Closer aborting the currently active role, used to
// unblock a pending Recv on cancellation. Close acts on the port serving
// the role when it is called, so exclusive re-opens are covered. The role
// can't be selected again until it is finished.
func (m *Mediator) Closer() io.Closer {
	return &roleCloser{m: m, role: m.Active()}
}

type roleCloser struct {
	m    *Mediator
	role Role
}

func (c *roleCloser) Close() error {
	if c.role == None {
		return nil
	}
	c.m.lock.Lock()
	c.m.aborted[c.role] = true
	port := c.m.ports[c.role]
	c.m.lock.Unlock()
	glog.V(2).Infof("abort %v channel", c.role)
	if port == nil {
		return nil
	}
	// the port stays registered so Finish still releases it.
	return port.Close()
}

func (m *Mediator) port() (uart.Port, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if port := m.ports[m.active]; port != nil {
		return port, nil
	}
	return nil, ErrNoActiveChannel
}

// close must be called with lock held.
func (m *Mediator) close(role Role) error {
	port := m.ports[role]
	if port == nil {
		return nil
	}
	delete(m.ports, role)
	return port.Close()
}
