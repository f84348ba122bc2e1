// Package transport carries call frames in over TCP and top-of-book
// snapshots out over UDP multicast.
package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/yanun0323/logs"

	"market/internal/obs"
	"market/internal/rpc"
	"market/pkg/exception"
)

const (
	tcpNetwork     = "tcp"
	readBufferSize = 4096
	pumpBacklog    = 1024
)

// Submitter accepts one call (function id plus arguments). It is only ever
// called from the server's pump goroutine.
type Submitter interface {
	Submit(call []byte) bool
}

// Server accepts order entry connections. Every connection reassembles
// frames from its byte stream and forwards them to a single pump goroutine,
// so Submit always sees one producer no matter how many clients connect.
type Server struct {
	addr    string
	ln      net.Listener
	submit  Submitter
	metrics *obs.Metrics
	ids     *obs.IDGenerator
	frames  chan rpc.Frame
}

// NewServer creates a server for the provided listen address.
func NewServer(addr string, submit Submitter, metrics *obs.Metrics) (*Server, error) {
	if addr == "" {
		return nil, exception.ErrEmptyAddress
	}
	if submit == nil {
		return nil, exception.ErrNilInstance
	}
	return &Server{
		addr:    addr,
		submit:  submit,
		metrics: metrics,
		ids:     obs.NewIDGenerator(0),
		frames:  make(chan rpc.Frame, pumpBacklog),
	}, nil
}

// Listen binds the configured address.
func (s *Server) Listen() error {
	if s.ln != nil {
		return exception.ErrAlreadyListening
	}
	ln, err := net.Listen(tcpNetwork, s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until ctx is done. It returns after every
// connection handler and the pump have exited.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return exception.ErrNotListening
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.pump(ctx)
	}()

	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			logs.Errorf("transport: accept, err: %+v", err)
			continue
		}
		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			s.handleConn(ctx, c)
		}(conn)
	}

	cancel()
	wg.Wait()
	return nil
}

// Close stops the listener.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-s.frames:
			s.submit.Submit(f.Bytes())
		}
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	id := s.ids.Next()
	s.metrics.AddConnections(1)
	defer s.metrics.AddConnections(-1)
	logs.Infof("transport: connection %d from %s", id, conn.RemoteAddr())

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	var (
		asm rpc.Assembler
		buf = make([]byte, readBufferSize)
	)
	emit := func(call []byte) {
		f, err := rpc.NewFrame(call)
		if err != nil {
			s.metrics.IncMalformedCall()
			return
		}
		select {
		case s.frames <- f:
		case <-ctx.Done():
		}
	}

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			asm.Feed(buf[:n], emit)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				logs.Infof("transport: connection %d closed", id)
				return
			}
			logs.Errorf("transport: read connection %d, err: %+v", id, err)
			return
		}
	}
}
