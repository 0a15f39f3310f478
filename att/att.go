// Package att implements the Attribute Protocol wire format: opcodes, error
// codes, and operation classification for every opcode in Core Spec 5.3 Vol
// 3F 3.3, plus PDU encoding/decoding for the opcodes the server handlers
// use. Read Multiple, Prepare Write, Execute Write, Signed Write Command and
// Read Multiple Variable have opcode values and a classification here but
// no PDU encoder or decoder of their own.
package att

import "fmt"

// Opcode identifies an Attribute PDU's operation.
type Opcode uint8

// Opcode values, Core Spec 5.3 Vol 3F 3.4.
const (
	ErrorResponseCode               Opcode = 0x01
	ExchangeMTURequestCode          Opcode = 0x02
	ExchangeMTUResponseCode         Opcode = 0x03
	FindInformationRequestCode      Opcode = 0x04
	FindInformationResponseCode     Opcode = 0x05
	FindByTypeValueRequestCode      Opcode = 0x06
	FindByTypeValueResponseCode     Opcode = 0x07
	ReadByTypeRequestCode           Opcode = 0x08
	ReadByTypeResponseCode          Opcode = 0x09
	ReadRequestCode                 Opcode = 0x0A
	ReadResponseCode                Opcode = 0x0B
	ReadBlobRequestCode             Opcode = 0x0C
	ReadBlobResponseCode            Opcode = 0x0D
	ReadMultipleRequestCode         Opcode = 0x0E
	ReadMultipleResponseCode        Opcode = 0x0F
	ReadByGroupTypeRequestCode      Opcode = 0x10
	ReadByGroupTypeResponseCode     Opcode = 0x11
	WriteRequestCode                Opcode = 0x12
	WriteResponseCode               Opcode = 0x13
	PrepareWriteRequestCode         Opcode = 0x16
	PrepareWriteResponseCode        Opcode = 0x17
	ExecuteWriteRequestCode         Opcode = 0x18
	ExecuteWriteResponseCode        Opcode = 0x19
	HandleValueNotificationCode     Opcode = 0x1B
	HandleValueIndicationCode       Opcode = 0x1D
	HandleValueConfirmationCode     Opcode = 0x1E
	ReadMultipleVariableRequestCode Opcode = 0x20
	ReadMultipleVariableRespCode    Opcode = 0x21
	WriteCommandCode                Opcode = 0x52
	SignedWriteCommandCode          Opcode = 0xD2
)

// OperationType is the broad class of traffic an Opcode belongs to, per
// Core Spec 5.3 Vol 3F 3.3.
type OperationType int

const (
	// OpCommand is client -> server, no response expected.
	OpCommand OperationType = iota
	// OpRequest is client -> server, a single paired response is expected.
	OpRequest
	// OpResponse is server -> client, answering a Request.
	OpResponse
	// OpNotification is server -> client, no confirmation expected.
	OpNotification
	// OpIndication is server -> client, a Confirmation is expected.
	OpIndication
	// OpConfirmation is client -> server, answering an Indication.
	OpConfirmation
	// OpUnknown is any opcode this codec does not recognize.
	OpUnknown
)

// Classify reports the OperationType of op, used by the dispatcher to route
// or drop incoming PDUs by role.
func Classify(op Opcode) OperationType {
	switch op {
	case ErrorResponseCode, ExchangeMTUResponseCode, FindInformationResponseCode,
		FindByTypeValueResponseCode, ReadByTypeResponseCode, ReadResponseCode,
		ReadBlobResponseCode, ReadMultipleResponseCode, ReadByGroupTypeResponseCode,
		WriteResponseCode, PrepareWriteResponseCode, ExecuteWriteResponseCode,
		ReadMultipleVariableRespCode:
		return OpResponse
	case ExchangeMTURequestCode, FindInformationRequestCode, FindByTypeValueRequestCode,
		ReadByTypeRequestCode, ReadRequestCode, ReadBlobRequestCode, ReadMultipleRequestCode,
		ReadByGroupTypeRequestCode, WriteRequestCode, PrepareWriteRequestCode,
		ExecuteWriteRequestCode, ReadMultipleVariableRequestCode:
		return OpRequest
	case WriteCommandCode, SignedWriteCommandCode:
		return OpCommand
	case HandleValueNotificationCode:
		return OpNotification
	case HandleValueIndicationCode:
		return OpIndication
	case HandleValueConfirmationCode:
		return OpConfirmation
	default:
		return OpUnknown
	}
}

// ErrorCode is the Attribute Protocol error code, Core Spec 5.3 Vol 3F 3.4.1.1.
type ErrorCode uint8

// Error codes. Values above InsufficientResources are either reserved,
// application-defined, or profile-defined and are rendered generically.
const (
	Success                       ErrorCode = 0x00
	InvalidHandle                 ErrorCode = 0x01
	ReadNotPermitted              ErrorCode = 0x02
	WriteNotPermitted             ErrorCode = 0x03
	InvalidPDU                    ErrorCode = 0x04
	InsufficientAuthentication    ErrorCode = 0x05
	RequestNotSupported           ErrorCode = 0x06
	InvalidOffset                 ErrorCode = 0x07
	InsufficientAuthorization     ErrorCode = 0x08
	PrepareQueueFull              ErrorCode = 0x09
	AttributeNotFound             ErrorCode = 0x0A
	AttributeNotLong              ErrorCode = 0x0B
	InsufficientEncryptionKeySize ErrorCode = 0x0C
	InvalidAttributeValueLength   ErrorCode = 0x0D
	UnlikelyError                 ErrorCode = 0x0E
	InsufficientEncryption        ErrorCode = 0x0F
	UnsupportedGroupType          ErrorCode = 0x10
	InsufficientResources         ErrorCode = 0x11
)

var errorName = map[ErrorCode]string{
	Success:                       "success",
	InvalidHandle:                 "invalid handle",
	ReadNotPermitted:              "read not permitted",
	WriteNotPermitted:             "write not permitted",
	InvalidPDU:                    "invalid PDU",
	InsufficientAuthentication:    "insufficient authentication",
	RequestNotSupported:           "request not supported",
	InvalidOffset:                 "invalid offset",
	InsufficientAuthorization:     "insufficient authorization",
	PrepareQueueFull:              "prepare queue full",
	AttributeNotFound:             "attribute not found",
	AttributeNotLong:              "attribute not long",
	InsufficientEncryptionKeySize: "insufficient encryption key size",
	InvalidAttributeValueLength:   "invalid attribute value length",
	UnlikelyError:                 "unlikely error",
	InsufficientEncryption:        "insufficient encryption",
	UnsupportedGroupType:          "unsupported group type",
	InsufficientResources:         "insufficient resources",
}

func (e ErrorCode) Error() string {
	switch i := int(e); {
	case i <= 0x11:
		return errorName[e]
	case i >= 0x80 && i <= 0x9F:
		return fmt.Sprintf("application error code (0x%02X)", i)
	default:
		return fmt.Sprintf("reserved error code (0x%02X)", i)
	}
}
