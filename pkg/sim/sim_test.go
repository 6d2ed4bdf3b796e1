package sim

import (
	"context"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sutcheck/pkg/capture"
	"github.com/robotalks/sutcheck/pkg/mmio"
	"github.com/robotalks/sutcheck/pkg/regfile"
	"github.com/robotalks/sutcheck/pkg/sharedmem"
	"github.com/robotalks/sutcheck/pkg/uart"
)

func newTestBoard() *Board {
	return &Board{
		Regs:      mmio.NewRegion(0x1000, make([]byte, 0x20)),
		Memory:    mmio.NewRegion(0x80000000, make([]byte, 64)),
		AddrWidth: 32,
	}
}

func TestBoardSetRegister(t *testing.T) {
	b := newTestBoard()
	require.NoError(t, b.SetRegister(regfile.Reg3, 0x1ff))
	require.NoError(t, b.SetRegister(regfile.Reg4, 0x12345))
	val, err := b.Regs.Read32(0x1008)
	require.NoError(t, err)
	require.EqualValues(t, 0xff, val)
	val, err = b.Regs.Read32(0x100c)
	require.NoError(t, err)
	require.EqualValues(t, 0x2345, val)

	err = b.SetRegister("REG9", 1)
	require.IsType(t, &regfile.UnknownFieldError{}, err)
}

func TestBoardPlaceString(t *testing.T) {
	b := newTestBoard()
	addr, err := b.PlaceString(8, []byte("abc"))
	require.NoError(t, err)
	require.EqualValues(t, 0x8, addr)
	require.Equal(t, []byte("abc\x00"), b.Memory.Bytes()[8:12])

	c, err := sharedmem.Derive(addr, 32)
	require.NoError(t, err)
	s, err := sharedmem.ReadString(b.Memory, c, 0)
	require.NoError(t, err)
	require.Equal(t, "abc", string(s))

	_, err = b.PlaceString(62, []byte("abc"))
	require.IsType(t, &mmio.AccessError{}, err)
}

func TestPrepare(t *testing.T) {
	sut := &SUT{
		Board: newTestBoard(),
		Program: Program{
			Registers:    map[string]uint32{regfile.Reg3: 7},
			String:       []byte("hi"),
			StringOffset: 4,
		},
	}
	require.NoError(t, sut.Prepare())
	regs := regfile.New(sut.Board.Regs, 0x1000, nil)
	val, err := regs.Get(regfile.Reg5)
	require.NoError(t, err)
	require.EqualValues(t, 4, val)
	val, err = regs.Get(regfile.Reg3)
	require.NoError(t, err)
	require.EqualValues(t, 7, val)
}

func TestHandshake(t *testing.T) {
	sut := &SUT{Program: Program{Noise: []byte("xy"), Messages: []byte("Hi")}}
	tester, peer := net.Pipe()
	defer tester.Close()
	errCh := make(chan error, 1)
	go func() {
		errCh <- sut.Handshake(peer)
		peer.Close()
	}()

	in := make([]byte, 3)
	_, err := io.ReadFull(tester, in)
	require.NoError(t, err)
	require.Equal(t, []byte{'x', 'y', byte(capture.Start)}, in)
	_, err = tester.Write([]byte{'?', byte(capture.Ack)})
	require.NoError(t, err)
	in = make([]byte, 3)
	_, err = io.ReadFull(tester, in)
	require.NoError(t, err)
	require.Equal(t, []byte{'H', 'i', byte(capture.End)}, in)
	require.NoError(t, <-errCh)
}

func runServer(t *testing.T, scheme string) {
	sut := &SUT{Board: newTestBoard(), Program: Program{Messages: []byte("ok")}}
	s, err := Listen(sut, scheme+"://127.0.0.1:0/uart")
	require.NoError(t, err)
	s.Once = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	port, err := uart.Open(uart.Config{Name: "peer", URL: fmt.Sprintf("%s://%s/uart", scheme, s.Addr())})
	require.NoError(t, err)
	defer port.Close()
	var got []byte
	for {
		b, err := port.Recv()
		require.NoError(t, err)
		if b == byte(capture.Start) {
			break
		}
	}
	require.NoError(t, port.Send(byte(capture.Ack)))
	for {
		b, err := port.Recv()
		require.NoError(t, err)
		if b == byte(capture.End) {
			break
		}
		got = append(got, b)
	}
	require.Equal(t, "ok", string(got))
	require.NoError(t, <-errCh)
}

func TestServerTCP(t *testing.T) {
	runServer(t, "tcp")
}

func TestServerWebsocket(t *testing.T) {
	runServer(t, "ws")
}

func TestListenUnsupported(t *testing.T) {
	_, err := Listen(&SUT{}, "udp://127.0.0.1:0")
	require.Error(t, err)
}
