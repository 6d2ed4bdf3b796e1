package sim

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/sutcheck/pkg/framework"
)

// Server exposes a SUT on a listener, one handshake per connection.
// Connections are served one at a time as there is only one SUT.
type Server struct {
	SUT *SUT
	// Once stops the server after the first handshake.
	Once bool

	listener net.Listener
	handled  chan error
	lock     sync.Mutex
}

// Listen creates a Server listening on rawURL: tcp://host:port or
// ws://host:port/path.
func Listen(sut *SUT, rawURL string) (*Server, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, err
	}
	s := &Server{SUT: sut, listener: ln}
	switch u.Scheme {
	case "tcp":
	case "ws":
		s.handled = make(chan error, 1)
	default:
		ln.Close()
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return s, nil
}

// Addr is the listening address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "sut"
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	if err := s.SUT.Prepare(); err != nil {
		s.listener.Close()
		return err
	}
	glog.Infof("SUT listening on %s", s.listener.Addr())
	if s.handled != nil {
		return framework.RunWithContextCloser(ctx, s.listener, s.serveWebsocket)
	}
	return framework.RunWithContextCloser(ctx, s.listener, s.serveTCP)
}

func (s *Server) serveTCP() error {
	defer s.listener.Close()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		err = s.handle(conn)
		conn.Close()
		if s.Once {
			return err
		}
	}
}

func (s *Server) serveWebsocket() error {
	mux := http.NewServeMux()
	mux.Handle("/", websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		err := s.handle(conn)
		select {
		case s.handled <- err:
		default:
		}
	}))
	srv := &http.Server{Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(s.listener)
	}()
	for {
		select {
		case err := <-errCh:
			return err
		case err := <-s.handled:
			if s.Once {
				srv.Close()
				<-errCh
				return err
			}
		}
	}
}

func (s *Server) handle(conn net.Conn) error {
	glog.Infof("tester connected from %s", conn.RemoteAddr())
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.SUT.Handshake(conn); err != nil {
		glog.Errorf("handshake: %v", err)
		return err
	}
	glog.Info("handshake completed")
	return nil
}
