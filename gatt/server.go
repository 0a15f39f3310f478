package gatt

import (
	"context"

	"github.com/kryptco-kr/gattcore/att"
)

// DefaultMTU is the ATT_MTU in effect before ExchangeMTURequest negotiates a
// larger one (Core Spec 5.3 Vol 3F 3.2.8).
const DefaultMTU = 23

// Server is the per-bearer request dispatcher: it classifies each
// incoming PDU, routes requests to the Handle* functions one at a time, and lets
// commands run concurrently with whatever request is in flight. It owns no
// database state of its own; ReadAttribute/WriteAttribute on db are the only
// points where it suspends.
type Server struct {
	db        AttDatabase
	transport Transport
	tcbIdx    int
	mtu       int

	reqs chan []byte
	cmds chan []byte
	done chan struct{}
}

// NewServer builds a dispatcher for one bearer. Call Serve to start it
// draining requests and commands; call Dispatch to feed it incoming PDUs.
func NewServer(db AttDatabase, transport Transport, tcbIdx int) *Server {
	return &Server{
		db:        db,
		transport: transport,
		tcbIdx:    tcbIdx,
		mtu:       DefaultMTU,
		reqs:      make(chan []byte, 8),
		cmds:      make(chan []byte, 8),
		done:      make(chan struct{}),
	}
}

// Serve runs the request loop and the command loop until ctx is cancelled.
// The request loop processes one PDU to completion before starting the
// next, giving the "at most one request in flight per bearer" invariant;
// the command loop runs independently, in the order commands arrived.
func (s *Server) Serve(ctx context.Context) {
	go s.runCommands(ctx)
	s.runRequests(ctx)
}

func (s *Server) runRequests(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case pdu := <-s.reqs:
			resp := s.handleRequest(ctx, pdu)
			if len(resp) > 0 {
				if err := s.transport.SendPacket(s.tcbIdx, resp); err != nil {
					logger.Errorf("send response on bearer %d: %v", s.tcbIdx, err)
				}
			}
		}
	}
}

func (s *Server) runCommands(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case pdu := <-s.cmds:
			s.handleCommand(ctx, pdu)
		}
	}
}

// Stop tears down both loops. Safe to call from any goroutine.
func (s *Server) Stop() { close(s.done) }

// Dispatch classifies an incoming PDU and queues it onto the request or
// command path. Response, Notification, Indication, and Confirmation
// opcodes are not applicable to the server role and are dropped.
func (s *Server) Dispatch(pdu []byte) {
	op, err := att.DecodeOpcode(pdu)
	if err != nil {
		logger.Warningf("bearer %d: %v", s.tcbIdx, err)
		return
	}
	switch att.Classify(op) {
	case att.OpRequest:
		s.reqs <- pdu
	case att.OpCommand:
		s.cmds <- pdu
	default:
		logger.Debugf("bearer %d: dropping inapplicable opcode %#x on server role", s.tcbIdx, op)
	}
}

func (s *Server) handleRequest(ctx context.Context, pdu []byte) []byte {
	op, err := att.DecodeOpcode(pdu)
	if err != nil {
		return nil
	}
	switch op {
	case att.ExchangeMTURequestCode:
		return s.handleExchangeMTU(pdu)
	case att.FindInformationRequestCode:
		req, ok := att.DecodeFindInformationRequest(pdu)
		if !ok {
			return att.NewErrorResponse(op, 0, att.InvalidPDU)
		}
		return HandleFindInformation(s.db, s.mtu, req)
	case att.FindByTypeValueRequestCode:
		req, ok := att.DecodeFindByTypeValueRequest(pdu)
		if !ok {
			return att.NewErrorResponse(op, 0, att.InvalidPDU)
		}
		return HandleFindByTypeValue(ctx, s.db, s.mtu, req)
	case att.ReadByTypeRequestCode:
		req, ok := att.DecodeReadByTypeRequest(pdu)
		if !ok {
			return att.NewErrorResponse(op, 0, att.InvalidPDU)
		}
		return HandleReadByType(ctx, s.db, s.mtu, req)
	case att.ReadRequestCode:
		req, ok := att.DecodeReadRequest(pdu)
		if !ok {
			return att.NewErrorResponse(op, 0, att.InvalidPDU)
		}
		return HandleRead(ctx, s.db, s.mtu, req)
	case att.ReadBlobRequestCode:
		req, ok := att.DecodeReadBlobRequest(pdu)
		if !ok {
			return att.NewErrorResponse(op, 0, att.InvalidPDU)
		}
		return HandleReadBlob(ctx, s.db, s.mtu, req)
	case att.ReadByGroupTypeRequestCode:
		req, ok := att.DecodeReadByGroupTypeRequest(pdu)
		if !ok {
			return att.NewErrorResponse(op, 0, att.InvalidPDU)
		}
		return HandleReadByGroupType(ctx, s.db, s.mtu, req)
	case att.WriteRequestCode:
		req, ok := att.DecodeWriteRequest(pdu)
		if !ok {
			return att.NewErrorResponse(op, 0, att.InvalidPDU)
		}
		return HandleWrite(ctx, s.db, req)
	case att.ReadMultipleRequestCode,
		att.PrepareWriteRequestCode,
		att.ExecuteWriteRequestCode,
		att.ReadMultipleVariableRequestCode:
		return att.NewErrorResponse(op, 0, att.RequestNotSupported)
	default:
		return att.NewErrorResponse(op, 0, att.RequestNotSupported)
	}
}

func (s *Server) handleCommand(ctx context.Context, pdu []byte) {
	op, err := att.DecodeOpcode(pdu)
	if err != nil {
		return
	}
	switch op {
	case att.WriteCommandCode, att.SignedWriteCommandCode:
		req, ok := att.DecodeWriteCommand(pdu)
		if !ok {
			return
		}
		HandleWriteCommand(ctx, s.db, req)
	default:
		logger.Debugf("bearer %d: unsupported command opcode %#x", s.tcbIdx, op)
	}
}

func (s *Server) handleExchangeMTU(pdu []byte) []byte {
	req, ok := att.DecodeExchangeMTURequest(pdu)
	if !ok {
		return att.NewErrorResponse(att.ExchangeMTURequestCode, 0, att.InvalidPDU)
	}
	clientMTU := int(req.ClientRxMTU())
	if clientMTU < DefaultMTU {
		return att.NewErrorResponse(att.ExchangeMTURequestCode, 0, att.InvalidPDU)
	}
	s.mtu = clientMTU
	return att.NewExchangeMTUResponse(uint16(s.mtu))
}
