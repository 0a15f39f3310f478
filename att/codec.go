package att

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrEmptyPDU is returned by Decode helpers when handed a zero-length PDU.
var ErrEmptyPDU = errors.New("att: empty PDU")

// fixed-offset PDU views, byte-slice backed, following the same layout the
// wire itself uses. Each type only exposes the fields its opcode defines.

// ErrorResponse is Error Response (0x01), Core Spec 5.3 Vol 3F 3.4.1.1.
type ErrorResponse []byte

// NewErrorResponse builds an Error Response for opcodeInError/handleInError/code.
func NewErrorResponse(opcodeInError Opcode, handleInError uint16, code ErrorCode) ErrorResponse {
	r := make(ErrorResponse, 5)
	r[0] = byte(ErrorResponseCode)
	r[1] = byte(opcodeInError)
	binary.LittleEndian.PutUint16(r[2:4], handleInError)
	r[4] = byte(code)
	return r
}

func (r ErrorResponse) OpcodeInError() Opcode { return Opcode(r[1]) }
func (r ErrorResponse) HandleInError() uint16 { return binary.LittleEndian.Uint16(r[2:4]) }
func (r ErrorResponse) ErrorCode() ErrorCode  { return ErrorCode(r[4]) }

// ExchangeMTURequest is Exchange MTU Request (0x02).
type ExchangeMTURequest []byte

func (r ExchangeMTURequest) ClientRxMTU() uint16 { return binary.LittleEndian.Uint16(r[1:3]) }

// DecodeExchangeMTURequest validates and views b as an ExchangeMTURequest.
func DecodeExchangeMTURequest(b []byte) (ExchangeMTURequest, bool) {
	if len(b) != 3 {
		return nil, false
	}
	return ExchangeMTURequest(b), true
}

// ExchangeMTUResponse is Exchange MTU Response (0x03).
type ExchangeMTUResponse []byte

// NewExchangeMTUResponse builds an Exchange MTU Response advertising serverRxMTU.
func NewExchangeMTUResponse(serverRxMTU uint16) ExchangeMTUResponse {
	r := make(ExchangeMTUResponse, 3)
	r[0] = byte(ExchangeMTUResponseCode)
	binary.LittleEndian.PutUint16(r[1:3], serverRxMTU)
	return r
}

// FindInformationRequest is Find Information Request (0x04).
type FindInformationRequest []byte

func (r FindInformationRequest) StartingHandle() uint16 { return binary.LittleEndian.Uint16(r[1:3]) }
func (r FindInformationRequest) EndingHandle() uint16   { return binary.LittleEndian.Uint16(r[3:5]) }

// DecodeFindInformationRequest validates and views b as a FindInformationRequest.
func DecodeFindInformationRequest(b []byte) (FindInformationRequest, bool) {
	if len(b) != 5 {
		return nil, false
	}
	return FindInformationRequest(b), true
}

// FindInformationResponseBuilder greedily assembles a Find Information
// Response, enforcing that every entry shares the same UUID-length format
// (0x01 = 16-bit entries, 0x02 = 128-bit entries) as Core Spec 5.3 Vol 3F
// 3.4.3.2 requires.
type FindInformationResponseBuilder struct {
	buf    bytes.Buffer
	format uint8
	budget int
}

// NewFindInformationResponseBuilder starts a builder with the given payload
// budget (typically mtu-2).
func NewFindInformationResponseBuilder(budget int) *FindInformationResponseBuilder {
	return &FindInformationResponseBuilder{budget: budget}
}

// TryAppend attempts to append {handle, uuidWire}; uuidWire must be 2 or 16
// bytes. It fails (returns false, state unchanged) if uuidWire's format
// disagrees with entries already committed, or if the entry would not fit.
func (b *FindInformationResponseBuilder) TryAppend(handle uint16, uuidWire []byte) bool {
	var entryFormat uint8
	switch len(uuidWire) {
	case 2:
		entryFormat = 0x01
	case 16:
		entryFormat = 0x02
	default:
		return false
	}
	if b.format != 0 && b.format != entryFormat {
		return false
	}
	entryLen := 2 + len(uuidWire)
	if b.buf.Len()+entryLen > b.budget {
		return false
	}
	b.format = entryFormat
	var h [2]byte
	binary.LittleEndian.PutUint16(h[:], handle)
	b.buf.Write(h[:])
	b.buf.Write(uuidWire)
	return true
}

// Empty reports whether no entry has been committed yet.
func (b *FindInformationResponseBuilder) Empty() bool { return b.format == 0 }

// Build renders the accumulated entries into a full Find Information Response PDU.
func (b *FindInformationResponseBuilder) Build() []byte {
	out := make([]byte, 2+b.buf.Len())
	out[0] = byte(FindInformationResponseCode)
	out[1] = b.format
	copy(out[2:], b.buf.Bytes())
	return out
}

// FindByTypeValueRequest is Find By Type Value Request (0x06).
type FindByTypeValueRequest []byte

func (r FindByTypeValueRequest) StartingHandle() uint16 { return binary.LittleEndian.Uint16(r[1:3]) }
func (r FindByTypeValueRequest) EndingHandle() uint16   { return binary.LittleEndian.Uint16(r[3:5]) }
func (r FindByTypeValueRequest) AttributeType() uint16  { return binary.LittleEndian.Uint16(r[5:7]) }
func (r FindByTypeValueRequest) AttributeValue() []byte { return r[7:] }

// DecodeFindByTypeValueRequest validates and views b as a FindByTypeValueRequest.
func DecodeFindByTypeValueRequest(b []byte) (FindByTypeValueRequest, bool) {
	if len(b) < 7 {
		return nil, false
	}
	return FindByTypeValueRequest(b), true
}

// HandleRange is one {found_handle, group_end_handle} element of a Find By
// Type Value Response.
type HandleRange struct {
	FoundHandle    uint16
	GroupEndHandle uint16
}

// HandleRangeWireLen is a HandleRange's encoded size.
const HandleRangeWireLen = 4

// NewFindByTypeValueResponse renders ranges into a Find By Type Value
// Response PDU. The caller is responsible for having bounded ranges to the
// response budget.
func NewFindByTypeValueResponse(ranges []HandleRange) []byte {
	out := make([]byte, 1+HandleRangeWireLen*len(ranges))
	out[0] = byte(FindByTypeValueResponseCode)
	for i, r := range ranges {
		binary.LittleEndian.PutUint16(out[1+HandleRangeWireLen*i:], r.FoundHandle)
		binary.LittleEndian.PutUint16(out[3+HandleRangeWireLen*i:], r.GroupEndHandle)
	}
	return out
}

// ReadByTypeRequest is Read By Type Request (0x08).
type ReadByTypeRequest []byte

func (r ReadByTypeRequest) StartingHandle() uint16 { return binary.LittleEndian.Uint16(r[1:3]) }
func (r ReadByTypeRequest) EndingHandle() uint16   { return binary.LittleEndian.Uint16(r[3:5]) }
func (r ReadByTypeRequest) AttributeType() []byte  { return r[5:] }

// DecodeReadByTypeRequest validates and views b as a ReadByTypeRequest. The
// attribute type is either a 2- or 16-byte UUID, so the PDU is either 7 or
// 21 bytes.
func DecodeReadByTypeRequest(b []byte) (ReadByTypeRequest, bool) {
	if len(b) != 7 && len(b) != 21 {
		return nil, false
	}
	return ReadByTypeRequest(b), true
}

// ReadByTypeResponseBuilder assembles {handle, value} tuples, all of which
// must share a single element length per Core Spec 5.3 Vol 3F 3.4.4.2.
type ReadByTypeResponseBuilder struct {
	buf     bytes.Buffer
	elemLen int
	budget  int
}

func NewReadByTypeResponseBuilder(budget int) *ReadByTypeResponseBuilder {
	return &ReadByTypeResponseBuilder{budget: budget}
}

func (b *ReadByTypeResponseBuilder) TryAppend(handle uint16, value []byte) bool {
	entryLen := 2 + len(value)
	if entryLen > 255 {
		entryLen = 255
		value = value[:253]
	}
	if b.elemLen == 0 {
		b.elemLen = entryLen
	} else if entryLen != b.elemLen {
		return false
	}
	if b.buf.Len()+b.elemLen > b.budget {
		return false
	}
	var h [2]byte
	binary.LittleEndian.PutUint16(h[:], handle)
	b.buf.Write(h[:])
	b.buf.Write(value[:b.elemLen-2])
	return true
}

func (b *ReadByTypeResponseBuilder) Empty() bool { return b.elemLen == 0 }

func (b *ReadByTypeResponseBuilder) Build() []byte {
	out := make([]byte, 2+b.buf.Len())
	out[0] = byte(ReadByTypeResponseCode)
	out[1] = byte(b.elemLen)
	copy(out[2:], b.buf.Bytes())
	return out
}

// ReadRequest is Read Request (0x0A).
type ReadRequest []byte

func (r ReadRequest) AttributeHandle() uint16 { return binary.LittleEndian.Uint16(r[1:3]) }

func DecodeReadRequest(b []byte) (ReadRequest, bool) {
	if len(b) != 3 {
		return nil, false
	}
	return ReadRequest(b), true
}

// NewReadResponse builds a Read Response, truncating value to mtu-1 bytes.
func NewReadResponse(value []byte, mtu int) []byte {
	if budget := mtu - 1; len(value) > budget {
		value = value[:budget]
	}
	out := make([]byte, 1+len(value))
	out[0] = byte(ReadResponseCode)
	copy(out[1:], value)
	return out
}

// ReadBlobRequest is Read Blob Request (0x0C).
type ReadBlobRequest []byte

func (r ReadBlobRequest) AttributeHandle() uint16 { return binary.LittleEndian.Uint16(r[1:3]) }
func (r ReadBlobRequest) ValueOffset() uint16     { return binary.LittleEndian.Uint16(r[3:5]) }

func DecodeReadBlobRequest(b []byte) (ReadBlobRequest, bool) {
	if len(b) != 5 {
		return nil, false
	}
	return ReadBlobRequest(b), true
}

// NewReadBlobResponse builds a Read Blob Response, truncating value to mtu-1 bytes.
func NewReadBlobResponse(value []byte, mtu int) []byte {
	if budget := mtu - 1; len(value) > budget {
		value = value[:budget]
	}
	out := make([]byte, 1+len(value))
	out[0] = byte(ReadBlobResponseCode)
	copy(out[1:], value)
	return out
}

// ReadByGroupTypeRequest is Read By Group Type Request (0x10).
type ReadByGroupTypeRequest []byte

func (r ReadByGroupTypeRequest) StartingHandle() uint16     { return binary.LittleEndian.Uint16(r[1:3]) }
func (r ReadByGroupTypeRequest) EndingHandle() uint16       { return binary.LittleEndian.Uint16(r[3:5]) }
func (r ReadByGroupTypeRequest) AttributeGroupType() []byte { return r[5:] }

func DecodeReadByGroupTypeRequest(b []byte) (ReadByGroupTypeRequest, bool) {
	if len(b) != 7 && len(b) != 21 {
		return nil, false
	}
	return ReadByGroupTypeRequest(b), true
}

// ReadByGroupTypeResponseBuilder assembles {handle, group_end_handle, value}
// tuples, all of which must share a single element length.
type ReadByGroupTypeResponseBuilder struct {
	buf     bytes.Buffer
	elemLen int
	budget  int
}

func NewReadByGroupTypeResponseBuilder(budget int) *ReadByGroupTypeResponseBuilder {
	return &ReadByGroupTypeResponseBuilder{budget: budget}
}

func (b *ReadByGroupTypeResponseBuilder) TryAppend(handle, groupEndHandle uint16, value []byte) bool {
	entryLen := 4 + len(value)
	if entryLen > 255 {
		entryLen = 255
		value = value[:251]
	}
	if b.elemLen == 0 {
		b.elemLen = entryLen
	} else if entryLen != b.elemLen {
		return false
	}
	if b.buf.Len()+b.elemLen > b.budget {
		return false
	}
	var hdr [4]byte
	binary.LittleEndian.PutUint16(hdr[0:2], handle)
	binary.LittleEndian.PutUint16(hdr[2:4], groupEndHandle)
	b.buf.Write(hdr[:])
	b.buf.Write(value[:b.elemLen-4])
	return true
}

func (b *ReadByGroupTypeResponseBuilder) Empty() bool { return b.elemLen == 0 }

func (b *ReadByGroupTypeResponseBuilder) Build() []byte {
	out := make([]byte, 2+b.buf.Len())
	out[0] = byte(ReadByGroupTypeResponseCode)
	out[1] = byte(b.elemLen)
	copy(out[2:], b.buf.Bytes())
	return out
}

// WriteRequest is Write Request (0x12).
type WriteRequest []byte

func (r WriteRequest) AttributeHandle() uint16 { return binary.LittleEndian.Uint16(r[1:3]) }
func (r WriteRequest) AttributeValue() []byte  { return r[3:] }

func DecodeWriteRequest(b []byte) (WriteRequest, bool) {
	if len(b) < 3 {
		return nil, false
	}
	return WriteRequest(b), true
}

// NewWriteResponse builds a Write Response (zero-length body).
func NewWriteResponse() []byte { return []byte{byte(WriteResponseCode)} }

// WriteCommand is Write Command (0x52); same layout as WriteRequest.
type WriteCommand []byte

func (r WriteCommand) AttributeHandle() uint16 { return binary.LittleEndian.Uint16(r[1:3]) }
func (r WriteCommand) AttributeValue() []byte  { return r[3:] }

func DecodeWriteCommand(b []byte) (WriteCommand, bool) {
	if len(b) <= 3 {
		return nil, false
	}
	return WriteCommand(b), true
}

// NewHandleValueNotification builds a Handle Value Notification (0x1B),
// truncating value to mtu-3 bytes.
func NewHandleValueNotification(handle uint16, value []byte, mtu int) []byte {
	if budget := mtu - 3; len(value) > budget {
		value = value[:budget]
	}
	out := make([]byte, 3+len(value))
	out[0] = byte(HandleValueNotificationCode)
	binary.LittleEndian.PutUint16(out[1:3], handle)
	copy(out[3:], value)
	return out
}

// NewHandleValueIndication builds a Handle Value Indication (0x1D),
// truncating value to mtu-3 bytes.
func NewHandleValueIndication(handle uint16, value []byte, mtu int) []byte {
	if budget := mtu - 3; len(value) > budget {
		value = value[:budget]
	}
	out := make([]byte, 3+len(value))
	out[0] = byte(HandleValueIndicationCode)
	binary.LittleEndian.PutUint16(out[1:3], handle)
	copy(out[3:], value)
	return out
}

// HandleValueConfirmationCode-tagged PDU carries no payload beyond the opcode.
var HandleValueConfirmation = []byte{byte(HandleValueConfirmationCode)}

// DecodeOpcode returns the opcode byte of a raw PDU, or ErrEmptyPDU for an
// empty PDU.
func DecodeOpcode(pdu []byte) (Opcode, error) {
	if len(pdu) == 0 {
		return 0, ErrEmptyPDU
	}
	return Opcode(pdu[0]), nil
}
