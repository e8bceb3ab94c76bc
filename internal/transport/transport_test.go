// internal/transport/transport_test.go
package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/sensorlink/internal/protocol"
	"github.com/tamzrod/sensorlink/internal/record"
)

// ---- helpers ----

type recordingHandler struct {
	mu         sync.Mutex
	deliveries []Delivery
	id         uint8
	err        error
}

func (h *recordingHandler) Handle(d Delivery) (uint8, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliveries = append(h.deliveries, d)
	if h.err != nil {
		return 0, h.err
	}
	if d.Record.MachineID != 0 {
		return d.Record.MachineID, nil
	}
	return h.id, nil
}

func (h *recordingHandler) at(i int) Delivery {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deliveries[i]
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.deliveries)
}

// startServer runs a server on a loopback ephemeral port.
func startServer(t *testing.T, h Handler) (string, int, *test.Hook) {
	t.Helper()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	ln, err := Listen("127.0.0.1", 0, protocol.MinBacklog)
	require.NoError(t, err)

	srv, err := NewServer(ln, h, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Errorf("server did not stop after cancellation")
		}
	})

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, hook
}

// rawExchange writes payload and returns whatever the server replies.
func rawExchange(t *testing.T, port int, payload []byte) []byte {
	t.Helper()

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(payload)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	return resp
}

func hasErrorEntry(hook *test.Hook) bool {
	for _, e := range hook.AllEntries() {
		if e.Level == log.ErrorLevel {
			return true
		}
	}
	return false
}

// ---- validation ----

func TestCheckValid(t *testing.T) {
	assert.True(t, CheckValid("192.168.1.10", "29482"))
	assert.True(t, CheckValid("0.0.0.0", "0"))
	assert.True(t, CheckValid("255.255.255.255", "-1"))

	assert.False(t, CheckValid("not.an.ip", "29482"))
	assert.False(t, CheckValid("1.2.3.4", "abc"))
	assert.False(t, CheckValid("", "1"))
	assert.False(t, CheckValid("1.2.3.4", ""))
	assert.False(t, CheckValid("1.2.3", "1"))
	assert.False(t, CheckValid("1.2.3.4.5", "1"))
	assert.False(t, CheckValid("1.2.3.256", "1"))
	assert.False(t, CheckValid("1..3.4", "1"))

	// Parsing is strict: no padding, no explicit sign.
	assert.False(t, CheckValid("1.2.3.4", " 80"))
	assert.False(t, CheckValid("1.2.3.4", "+80"))
	assert.False(t, CheckValid(" 1.2.3.4", "80"))
	assert.False(t, CheckValid("1.2.3.+4", "80"))
}

// ---- client ----

func TestSend_AllOkWithAssignedID(t *testing.T) {
	h := &recordingHandler{id: 6}
	addr, port, _ := startServer(t, h)

	r := record.SensorRecord{
		Accelerometer: record.Vector3{X: 0.25, Enabled: true},
		DeviceKind:    record.DevicePhone,
	}

	code, id := NewClient(nil).SendRecord(context.Background(), addr, port, r)
	assert.Equal(t, protocol.AllOk, code)
	assert.Equal(t, uint8(6), id)

	require.Equal(t, 1, h.count())
	d := h.at(0)
	assert.True(t, r.Equal(d.Record))
	assert.Equal(t, protocol.RecordSize, d.Size)
	assert.GreaterOrEqual(t, d.ElapsedSeconds, 0.0)
	assert.NotNil(t, d.Remote)
}

func TestSend_KnownIDEchoed(t *testing.T) {
	addr, port, _ := startServer(t, &recordingHandler{id: 6})

	code, id := NewClient(nil).SendRecord(context.Background(), addr, port, record.SensorRecord{MachineID: 42})
	assert.Equal(t, protocol.AllOk, code)
	assert.Equal(t, uint8(42), id)
}

func TestSend_TextPayload(t *testing.T) {
	h := &recordingHandler{id: 1}
	addr, port, _ := startServer(t, h)

	r := record.SensorRecord{Compass: record.Compass{HeadingDegrees: 181.5, Enabled: true}}
	code, id := NewClient(nil).Send(context.Background(), addr, port, []byte(record.EncodeText(r)))
	assert.Equal(t, protocol.AllOk, code)
	assert.Equal(t, uint8(1), id)

	require.Equal(t, 1, h.count())
	assert.True(t, r.Equal(h.at(0).Record))
}

func TestSend_UnreachablePeer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	code, id := NewClient(nil).SendRecord(context.Background(), "127.0.0.1", port, record.SensorRecord{})
	assert.Equal(t, protocol.CouldNotConnect, code)
	assert.Equal(t, uint8(0), id)
}

func TestSend_WrongResponse(t *testing.T) {
	// A peer that answers with an unknown status ordinal.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, protocol.MaxPayload)
		_, _ = conn.Read(buf)
		_, _ = conn.Write([]byte("NA"))
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	code, id := NewClient(nil).SendRecord(context.Background(), "127.0.0.1", port, record.SensorRecord{})
	assert.Equal(t, protocol.GotWrongResponse, code)
	assert.Equal(t, uint8(0), id)
}

func TestSend_PeerClosesWithoutReply(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, protocol.MaxPayload)
		_, _ = conn.Read(buf)
		_ = conn.Close()
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	code, _ := NewClient(nil).SendRecord(context.Background(), "127.0.0.1", port, record.SensorRecord{})
	assert.Equal(t, protocol.GotWrongResponse, code)
}

// ---- server ----

func TestServer_MalformedPayloadThenContinues(t *testing.T) {
	h := &recordingHandler{id: 3}
	addr, port, hook := startServer(t, h)

	resp := rawExchange(t, port, []byte("this is neither binary nor json"))
	assert.Equal(t, []byte{byte(protocol.GotWrongResponse), 0}, resp)
	assert.Equal(t, 0, h.count())
	assert.True(t, hasErrorEntry(hook))

	// The loop keeps accepting.
	code, id := NewClient(nil).SendRecord(context.Background(), addr, port, record.SensorRecord{})
	assert.Equal(t, protocol.AllOk, code)
	assert.Equal(t, uint8(3), id)
}

func TestServer_HandlerErrorRepliesFailure(t *testing.T) {
	h := &recordingHandler{err: errors.New("boom")}
	_, port, hook := startServer(t, h)

	resp := rawExchange(t, port, record.EncodeBinary(record.SensorRecord{}))
	assert.Equal(t, []byte{byte(protocol.GotWrongResponse), 0}, resp)
	assert.True(t, hasErrorEntry(hook))
}

func TestServer_HandlerPanicRepliesFailure(t *testing.T) {
	calls := 0
	h := HandlerFunc(func(d Delivery) (uint8, error) {
		calls++
		if calls == 1 {
			panic("handler exploded")
		}
		return 9, nil
	})
	addr, port, _ := startServer(t, h)

	resp := rawExchange(t, port, record.EncodeBinary(record.SensorRecord{}))
	assert.Equal(t, []byte{byte(protocol.GotWrongResponse), 0}, resp)

	code, id := NewClient(nil).SendRecord(context.Background(), addr, port, record.SensorRecord{})
	assert.Equal(t, protocol.AllOk, code)
	assert.Equal(t, uint8(9), id)
}

func TestServer_EmptyConnectionDoesNotStopLoop(t *testing.T) {
	h := &recordingHandler{id: 2}
	addr, port, hook := startServer(t, h)

	conn, err := net.Dial("tcp", net.JoinHostPort(addr, strconv.Itoa(port)))
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	code, id := NewClient(nil).SendRecord(context.Background(), addr, port, record.SensorRecord{})
	assert.Equal(t, protocol.AllOk, code)
	assert.Equal(t, uint8(2), id)
	assert.True(t, hasErrorEntry(hook))
}

func TestServer_CancelReleasesPendingAccept(t *testing.T) {
	ln, err := Listen("127.0.0.1", 0, protocol.MinBacklog)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	srv, err := NewServer(ln, &recordingHandler{}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestNewServer_RequiresArguments(t *testing.T) {
	_, err := NewServer(nil, &recordingHandler{}, nil)
	assert.Error(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, err = NewServer(ln, nil, nil)
	assert.Error(t, err)
}

func TestStopwatch(t *testing.T) {
	sw := startStopwatch()
	assert.Equal(t, -1.0, sw.Seconds())

	sw.Stop()
	first := sw.Seconds()
	assert.GreaterOrEqual(t, first, 0.0)

	sw.Stop()
	assert.Equal(t, first, sw.Seconds())
}

func TestListen_RejectsBadInterface(t *testing.T) {
	_, err := Listen("localhost", 0, protocol.MinBacklog)
	assert.Error(t, err)
}
