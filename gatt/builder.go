package gatt

import (
	"encoding/binary"

	"github.com/kryptco-kr/gattcore/att"
	"github.com/kryptco-kr/gattcore/uuid"
)

// DescriptorDef describes one characteristic descriptor before handles are
// assigned.
type DescriptorDef struct {
	UUID        uuid.UUID
	Permissions AttPermissions
	Value       []byte
	Read        func() ([]byte, att.ErrorCode)
	Write       func([]byte) att.ErrorCode
}

// CharacteristicDef describes one characteristic, value, and its
// descriptors before handles are assigned.
type CharacteristicDef struct {
	UUID        uuid.UUID
	Permissions AttPermissions
	Value       []byte
	Read        func() ([]byte, att.ErrorCode)
	Write       func([]byte) att.ErrorCode
	Descriptors []DescriptorDef
}

// ServiceDef describes one primary service and its characteristics before
// handles are assigned.
type ServiceDef struct {
	UUID            uuid.UUID
	Characteristics []CharacteristicDef
}

// BuildServiceTable lays out services, starting at base, into the flat,
// strictly-increasing StaticAttribute list a StaticDatabase (or any other
// AttDatabase) expects: one declaration attribute per service, one
// declaration plus one value attribute per characteristic, and one
// attribute per descriptor.
func BuildServiceTable(services []ServiceDef, base AttHandle) []StaticAttribute {
	var rows []StaticAttribute
	h := base

	for _, svc := range services {
		svcHandle := h
		h++

		var svcRows []StaticAttribute
		for _, ch := range svc.Characteristics {
			declHandle := h
			valueHandle := h + 1
			h += 2

			declValue := make([]byte, 3+len(ch.UUID.ShortestBytes()))
			declValue[0] = byte(ch.Permissions)
			binary.LittleEndian.PutUint16(declValue[1:3], uint16(valueHandle))
			copy(declValue[3:], ch.UUID.ShortestBytes())

			svcRows = append(svcRows,
				StaticAttribute{
					Attribute: AttAttribute{Handle: declHandle, Type: CharacteristicUUID, Permissions: Readable},
					Value:     declValue,
				},
				StaticAttribute{
					Attribute: AttAttribute{Handle: valueHandle, Type: ch.UUID, Permissions: ch.Permissions},
					Value:     ch.Value,
					Read:      ch.Read,
					Write:     ch.Write,
				},
			)

			for _, d := range ch.Descriptors {
				svcRows = append(svcRows, StaticAttribute{
					Attribute: AttAttribute{Handle: h, Type: d.UUID, Permissions: d.Permissions},
					Value:     d.Value,
					Read:      d.Read,
					Write:     d.Write,
				})
				h++
			}
		}

		rows = append(rows, StaticAttribute{
			Attribute: AttAttribute{Handle: svcHandle, Type: PrimaryServiceDeclarationUUID, Permissions: Readable},
			Value:     svc.UUID.ShortestBytes(),
		})
		rows = append(rows, svcRows...)
	}

	return rows
}
