// internal/transport/server.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/sensorlink/internal/protocol"
	"github.com/tamzrod/sensorlink/internal/record"
)

// Delivery is one decoded record as handed to the Handler.
type Delivery struct {
	Record record.SensorRecord

	// ElapsedSeconds runs from accept to read completion, or -1 when the
	// measurement is unreliable.
	ElapsedSeconds float64

	// Size is the number of payload bytes received.
	Size   int
	Remote net.Addr
}

// Handler consumes a delivery and returns the machine id to acknowledge with.
// A returned error (or a panic) turns the reply into GotWrongResponse.
type Handler interface {
	Handle(d Delivery) (uint8, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(d Delivery) (uint8, error)

func (f HandlerFunc) Handle(d Delivery) (uint8, error) { return f(d) }

// Server is a sequential accept loop: one connection is read, decoded,
// handled and acknowledged before the next accept is issued.
type Server struct {
	ln      net.Listener
	handler Handler
	log     log.FieldLogger
}

// NewServer wraps a bound listener. See Listen.
func NewServer(ln net.Listener, handler Handler, logger log.FieldLogger) (*Server, error) {
	if ln == nil {
		return nil, errors.New("transport: listener required")
	}
	if handler == nil {
		return nil, errors.New("transport: handler required")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Server{ln: ln, handler: handler, log: logger}, nil
}

// Addr is the bound listen address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Close stops the listener. A running Serve returns nil.
func (s *Server) Close() error { return s.ln.Close() }

// Serve accepts until ctx is cancelled. A pending accept is released by
// closing the listener; cancellation is checked right after every accept.
// Per-connection failures are logged and never end the loop.
func (s *Server) Serve(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = s.ln.Close()
		case <-done:
		}
	}()

	var tempDelay time.Duration

	for {
		conn, err := s.ln.Accept()

		if ctx.Err() != nil {
			if conn != nil {
				_ = conn.Close()
			}
			return nil
		}

		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			// Transient accept failures (EMFILE, ECONNABORTED...) back off
			// the way net/http does instead of spinning.
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if tempDelay > time.Second {
				tempDelay = time.Second
			}
			s.log.Errorf("accept failed: %v; retrying in %v", err, tempDelay)
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0

		s.serveConn(conn)
	}
}

// serveConn runs one read/decode/handle/reply exchange and closes conn.
func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	sw := startStopwatch()
	logger := s.log.WithField("remote", conn.RemoteAddr().String())

	buf := make([]byte, protocol.MaxPayload)
	n, err := conn.Read(buf)
	if err != nil {
		logger.Errorf("encountered an error while receiving data from the client: %v", err)
		s.reply(logger, conn, protocol.Failure)
		return
	}
	sw.Stop()

	logger.Infof("received byte array of size %d", n)

	rec, err := record.Decode(buf[:n])
	if err != nil {
		logger.Errorf("could not parse payload of %d bytes: %v", n, err)
		s.reply(logger, conn, protocol.Failure)
		return
	}

	id, err := s.handle(Delivery{
		Record:         rec,
		ElapsedSeconds: sw.Seconds(),
		Size:           n,
		Remote:         conn.RemoteAddr(),
	})
	if err != nil {
		logger.Errorf("handler failed: %v", err)
		s.reply(logger, conn, protocol.Failure)
		return
	}

	if s.reply(logger, conn, protocol.Reply{Code: protocol.AllOk, MachineID: id}) {
		logger.WithField("machine_id", id).Info("sensor data received and processed successfully")
	}
}

// handle calls the handler, converting a panic into an error.
func (s *Server) handle(d Delivery) (id uint8, err error) {
	defer func() {
		if p := recover(); p != nil {
			id = 0
			err = fmt.Errorf("transport: handler panic: %v", p)
		}
	}()
	return s.handler.Handle(d)
}

// reply writes the 2-byte acknowledgement. Failures are logged only.
func (s *Server) reply(logger log.FieldLogger, conn net.Conn, r protocol.Reply) bool {
	if _, err := conn.Write(protocol.EncodeReply(r)); err != nil {
		logger.Errorf("%v: client disconnected before being acknowledged: %v", protocol.ErrReplyWrite, err)
		return false
	}
	logger.Debugf("sent %s reply", r.Code)
	return true
}
