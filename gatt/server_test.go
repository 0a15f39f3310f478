package gatt

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kryptco-kr/gattcore/att"
	"github.com/kryptco-kr/gattcore/uuid"
)

type mockTransport struct {
	mu   sync.Mutex
	sent [][]byte
}

func (m *mockTransport) SendPacket(_ int, pdu []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, append([]byte(nil), pdu...))
	return nil
}

func (m *mockTransport) last(t *testing.T) []byte {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		m.mu.Lock()
		n := len(m.sent)
		m.mu.Unlock()
		if n > 0 {
			m.mu.Lock()
			defer m.mu.Unlock()
			return m.sent[len(m.sent)-1]
		}
		select {
		case <-deadline:
			t.Fatalf("no packet sent before timeout")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestServerDispatchesReadRequestToHandler(t *testing.T) {
	db := NewStaticDatabase([]StaticAttribute{
		{Attribute: attr(1, uuid.FromUint16(0x2A00), Readable), Value: []byte("hi")},
	})
	transport := &mockTransport{}
	s := NewServer(db, transport, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)
	defer s.Stop()

	pdu := []byte{byte(att.ReadRequestCode), 1, 0}
	s.Dispatch(pdu)

	resp := transport.last(t)
	if resp[0] != byte(att.ReadResponseCode) {
		t.Fatalf("expected ReadResponse, got opcode %#x", resp[0])
	}
	if string(resp[1:]) != "hi" {
		t.Fatalf("expected value %q, got %q", "hi", resp[1:])
	}
}

func TestServerNegotiatesMTU(t *testing.T) {
	db := NewStaticDatabase(nil)
	transport := &mockTransport{}
	s := NewServer(db, transport, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)
	defer s.Stop()

	pdu := []byte{byte(att.ExchangeMTURequestCode), 0xF4, 0x00} // 244
	s.Dispatch(pdu)

	resp := transport.last(t)
	if resp[0] != byte(att.ExchangeMTUResponseCode) {
		t.Fatalf("expected ExchangeMTUResponse, got opcode %#x", resp[0])
	}
	if s.mtu != 244 {
		t.Fatalf("expected negotiated mtu 244, got %d", s.mtu)
	}
}

func TestServerRejectsUnsupportedOpcodeWithErrorResponse(t *testing.T) {
	db := NewStaticDatabase(nil)
	transport := &mockTransport{}
	s := NewServer(db, transport, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)
	defer s.Stop()

	pdu := []byte{byte(att.PrepareWriteRequestCode), 1, 0, 0, 0}
	s.Dispatch(pdu)

	resp := transport.last(t)
	errResp := att.ErrorResponse(resp)
	if errResp.ErrorCode() != att.RequestNotSupported {
		t.Fatalf("expected RequestNotSupported, got %v", errResp.ErrorCode())
	}
}

func TestServerDropsResponseOpcodeReceivedByServerRole(t *testing.T) {
	db := NewStaticDatabase(nil)
	transport := &mockTransport{}
	s := NewServer(db, transport, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)
	defer s.Stop()

	s.Dispatch([]byte{byte(att.ReadResponseCode), 0xAA})

	time.Sleep(20 * time.Millisecond)
	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.sent) != 0 {
		t.Fatalf("expected no packet sent for a dropped response opcode, got %d", len(transport.sent))
	}
}

func TestServerRunsWriteCommandWithoutResponse(t *testing.T) {
	var written []byte
	db := NewStaticDatabase([]StaticAttribute{
		{
			Attribute: attr(1, uuid.FromUint16(0x2A00), WritableWithoutResponse),
			Write:     func(data []byte) att.ErrorCode { written = data; return att.Success },
		},
	})
	transport := &mockTransport{}
	s := NewServer(db, transport, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)
	defer s.Stop()

	pdu := append([]byte{byte(att.WriteCommandCode), 1, 0}, []byte("go")...)
	s.Dispatch(pdu)

	deadline := time.After(time.Second)
	for written == nil {
		select {
		case <-deadline:
			t.Fatalf("write command never reached the database")
		case <-time.After(time.Millisecond):
		}
	}
	if string(written) != "go" {
		t.Fatalf("expected write %q, got %q", "go", written)
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.sent) != 0 {
		t.Fatalf("write command must never produce a response, got %d packets", len(transport.sent))
	}
}
