package gatt

import (
	"bytes"
	"context"
	"testing"

	"github.com/kryptco-kr/gattcore/att"
	"github.com/kryptco-kr/gattcore/uuid"
)

func readRequest(t *testing.T, handle uint16) att.ReadRequest {
	t.Helper()
	req, ok := att.DecodeReadRequest([]byte{byte(att.ReadRequestCode), byte(handle), byte(handle >> 8)})
	if !ok {
		t.Fatalf("DecodeReadRequest rejected a well-formed PDU")
	}
	return req
}

func TestHandleReadReturnsValue(t *testing.T) {
	db := NewStaticDatabase([]StaticAttribute{
		{Attribute: attr(3, uuid.FromUint16(0x1234), Readable), Value: []byte{4, 5}},
	})

	resp := HandleRead(context.Background(), db, 31, readRequest(t, 3))

	if resp[0] != byte(att.ReadResponseCode) {
		t.Fatalf("expected ReadResponse, got opcode %#x", resp[0])
	}
	if !bytes.Equal(resp[1:], []byte{4, 5}) {
		t.Fatalf("expected value [4 5], got %v", resp[1:])
	}
}

func TestHandleReadTruncatesToMTUMinusOne(t *testing.T) {
	db := NewStaticDatabase([]StaticAttribute{
		{Attribute: attr(3, uuid.FromUint16(0x1234), Readable), Value: []byte{4, 5}},
	})

	resp := HandleRead(context.Background(), db, 2, readRequest(t, 3))

	if !bytes.Equal(resp[1:], []byte{4}) {
		t.Fatalf("expected truncated value [4], got %v", resp[1:])
	}
}

func TestHandleReadUnknownHandle(t *testing.T) {
	db := NewStaticDatabase(nil)

	resp := HandleRead(context.Background(), db, 31, readRequest(t, 9))

	errResp := att.ErrorResponse(resp)
	if errResp.OpcodeInError() != att.ReadRequestCode {
		t.Fatalf("expected opcode-in-error ReadRequest, got %#x", errResp.OpcodeInError())
	}
	if errResp.HandleInError() != 9 {
		t.Fatalf("expected handle-in-error 9, got %d", errResp.HandleInError())
	}
	if errResp.ErrorCode() != att.InvalidHandle {
		t.Fatalf("expected InvalidHandle, got %v", errResp.ErrorCode())
	}
}

func TestHandleReadNotPermitted(t *testing.T) {
	db := NewStaticDatabase([]StaticAttribute{
		{Attribute: attr(3, uuid.FromUint16(0x1234), WritableWithResponse), Value: []byte{1}},
	})

	resp := HandleRead(context.Background(), db, 31, readRequest(t, 3))

	if att.ErrorResponse(resp).ErrorCode() != att.ReadNotPermitted {
		t.Fatalf("expected ReadNotPermitted, got %v", att.ErrorResponse(resp).ErrorCode())
	}
}

func readBlobRequest(t *testing.T, handle, offset uint16) att.ReadBlobRequest {
	t.Helper()
	req, ok := att.DecodeReadBlobRequest([]byte{
		byte(att.ReadBlobRequestCode),
		byte(handle), byte(handle >> 8),
		byte(offset), byte(offset >> 8),
	})
	if !ok {
		t.Fatalf("DecodeReadBlobRequest rejected a well-formed PDU")
	}
	return req
}

func TestHandleReadBlobSlicesAtOffset(t *testing.T) {
	db := NewStaticDatabase([]StaticAttribute{
		{Attribute: attr(3, uuid.FromUint16(0x1234), Readable), Value: []byte{10, 11, 12, 13}},
	})

	resp := HandleReadBlob(context.Background(), db, 31, readBlobRequest(t, 3, 2))

	if resp[0] != byte(att.ReadBlobResponseCode) {
		t.Fatalf("expected ReadBlobResponse, got opcode %#x", resp[0])
	}
	if !bytes.Equal(resp[1:], []byte{12, 13}) {
		t.Fatalf("expected value [12 13], got %v", resp[1:])
	}
}

func TestHandleReadBlobRejectsOffsetPastValue(t *testing.T) {
	db := NewStaticDatabase([]StaticAttribute{
		{Attribute: attr(3, uuid.FromUint16(0x1234), Readable), Value: []byte{10, 11}},
	})

	resp := HandleReadBlob(context.Background(), db, 31, readBlobRequest(t, 3, 3))

	if att.ErrorResponse(resp).ErrorCode() != att.InvalidOffset {
		t.Fatalf("expected InvalidOffset, got %v", att.ErrorResponse(resp).ErrorCode())
	}
}
