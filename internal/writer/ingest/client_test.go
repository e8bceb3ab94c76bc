// internal/writer/ingest/client_test.go
package ingest

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// fakeEndpoint accepts one packet and answers with status.
func fakeEndpoint(t *testing.T, status byte) (string, <-chan []byte) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		header := make([]byte, HeaderSize)
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		n, err := PayloadLen(header)
		if err != nil {
			return
		}
		payload := make([]byte, n)
		if _, err := io.ReadFull(conn, payload); err != nil {
			return
		}
		got <- append(header, payload...)
		_, _ = conn.Write([]byte{status})
	}()

	return ln.Addr().String(), got
}

func TestWriteRegisters_PacketLayout(t *testing.T) {
	addr, got := fakeEndpoint(t, StatusOK)

	c, err := NewClient(Config{Endpoint: addr, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if err := c.WriteRegisters(5, 0x0102, []uint16{0xABCD, 0x0001}); err != nil {
		t.Fatalf("WriteRegisters: %v", err)
	}

	pkt := <-got
	want := []byte{
		'R', 'I', 0x01, 3,
		0x00, 0x05,
		0x01, 0x02,
		0x00, 0x02,
		0xAB, 0xCD, 0x00, 0x01,
	}
	if string(pkt) != string(want) {
		t.Fatalf("packet mismatch:\n got=% x\nwant=% x", pkt, want)
	}
}

func TestWriteRegisters_Rejected(t *testing.T) {
	addr, _ := fakeEndpoint(t, StatusRejected)

	c, err := NewClient(Config{Endpoint: addr, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	err = c.WriteRegisters(1, 0, []uint16{1})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestWriteRegisters_Unreachable(t *testing.T) {
	c, err := NewClient(Config{Endpoint: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := c.WriteRegisters(1, 0, []uint16{1}); err == nil {
		t.Fatalf("expected dial error, got nil")
	}
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestUnmarshalBinary(t *testing.T) {
	in := Packet{Area: AreaHoldingRegisters, UnitID: 200, Address: 640, Registers: []uint16{1, 2, 3}}
	b, err := in.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var out Packet
	if err := out.UnmarshalBinary(b); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if out.Area != in.Area || out.UnitID != in.UnitID || out.Address != in.Address || len(out.Registers) != 3 || out.Registers[2] != 3 {
		t.Fatalf("decoded %+v", out)
	}

	bad := [][]byte{
		b[:HeaderSize-1],
		append([]byte{'X'}, b[1:]...),
		b[:len(b)-1],
	}
	for i, p := range bad {
		if err := new(Packet).UnmarshalBinary(p); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
