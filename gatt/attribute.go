// Package gatt implements the attribute database, the MTU-bounded
// transaction handlers built on it, and the per-bearer request dispatcher
// that routes decoded ATT PDUs to them.
package gatt

import (
	"github.com/op/go-logging"

	"github.com/kryptco-kr/gattcore/uuid"
)

var logger = logging.MustGetLogger("gatt")

// AttHandle is a 16-bit attribute handle. Handle 0 is reserved for error
// responses and never assigned to a real attribute.
type AttHandle uint16

// AttPermissions is a bit-set of the operations an attribute supports.
// Values match Core Spec 5.3 Vol 3G 3.3.1.1 Characteristic Properties and
// what Android's JNI layer uses internally. Unlisted bits are reserved and
// must be zero on construction; ignored on read.
type AttPermissions uint8

const (
	// Readable permits READ_REQ/READ_BLOB_REQ.
	Readable AttPermissions = 0x02
	// WritableWithoutResponse permits WRITE_CMD.
	WritableWithoutResponse AttPermissions = 0x04
	// WritableWithResponse permits WRITE_REQ.
	WritableWithResponse AttPermissions = 0x08
	// Indicate permits the value to be sent via HANDLE_VALUE_IND.
	Indicate AttPermissions = 0x20
)

func (p AttPermissions) Readable() bool                { return p&Readable != 0 }
func (p AttPermissions) WritableWithResponse() bool    { return p&WritableWithResponse != 0 }
func (p AttPermissions) WritableWithoutResponse() bool { return p&WritableWithoutResponse != 0 }
func (p AttPermissions) Indicates() bool               { return p&Indicate != 0 }

// AttAttribute is a single row of the attribute database: a handle, its
// type, and the permissions governing access to it. Values live outside
// this struct, fetched through AttDatabase.
type AttAttribute struct {
	Handle      AttHandle
	Type        uuid.UUID
	Permissions AttPermissions
}

// Grouping UUIDs (Core Spec 5.3 Vol 3G 3.3): a "group" starts at an
// attribute whose type is one of these and extends to the attribute just
// before the next declaration at the same or a higher grouping level, or
// to the end of the database. Service declarations are the higher level:
// a service's group spans its own characteristics and their descriptors,
// stopping only at the next service declaration. A characteristic
// declaration's group is the narrower one nested inside it, stopping at
// the next characteristic declaration too.
var (
	PrimaryServiceDeclarationUUID   = uuid.FromUint16(0x2800)
	SecondaryServiceDeclarationUUID = uuid.FromUint16(0x2801)
	CharacteristicUUID              = uuid.FromUint16(0x2803)

	// ClientCharacteristicConfigUUID is not a grouping type; used by
	// BuildServiceTable to tag the notify/indicate subscription descriptor.
	ClientCharacteristicConfigUUID = uuid.FromUint16(0x2902)
)

func isServiceDeclaration(t uuid.UUID) bool {
	return t == PrimaryServiceDeclarationUUID || t == SecondaryServiceDeclarationUUID
}

func isGroupingType(t uuid.UUID) bool {
	return isServiceDeclaration(t) || t == CharacteristicUUID
}

// GroupEnd scans attrs (assumed sorted by handle, as any list_attributes
// snapshot must be) starting just after the attribute at index start,
// returning the handle of the last attribute in start's group, or the
// handle of the last attribute in attrs if the group runs to the end.
// Only a grouping-type attribute actually owns a group extending past
// itself; any other attribute's group end is its own handle. A service
// declaration's group stops only at the next service declaration (a
// characteristic nested inside it doesn't end the group); a
// characteristic declaration's group stops at the next declaration of
// either kind.
func GroupEnd(attrs []AttAttribute, start int) AttHandle {
	end := attrs[start].Handle
	t := attrs[start].Type

	var boundary func(uuid.UUID) bool
	switch {
	case isServiceDeclaration(t):
		boundary = isServiceDeclaration
	case t == CharacteristicUUID:
		boundary = isGroupingType
	default:
		return end
	}

	for i := start + 1; i < len(attrs); i++ {
		if boundary(attrs[i].Type) {
			break
		}
		end = attrs[i].Handle
	}
	return end
}
