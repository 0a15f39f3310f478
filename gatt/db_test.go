package gatt

import (
	"context"
	"testing"

	"github.com/kryptco-kr/gattcore/att"
	"github.com/kryptco-kr/gattcore/uuid"
)

func TestStaticDatabaseEnforcesReadPermission(t *testing.T) {
	db := NewStaticDatabase([]StaticAttribute{
		{Attribute: attr(1, uuid.FromUint16(0x2A00), WritableWithResponse), Value: []byte{1}},
	})

	if _, code := db.ReadAttribute(context.Background(), 1); code != att.ReadNotPermitted {
		t.Fatalf("expected ReadNotPermitted, got %v", code)
	}
	if _, code := db.ReadAttribute(context.Background(), 9); code != att.InvalidHandle {
		t.Fatalf("expected InvalidHandle for an unknown handle, got %v", code)
	}
}

func TestStaticDatabaseEnforcesWritePermission(t *testing.T) {
	db := NewStaticDatabase([]StaticAttribute{
		{Attribute: attr(1, uuid.FromUint16(0x2A00), Readable), Value: []byte{1}},
	})

	if code := db.WriteAttribute(context.Background(), 1, []byte{2}); code != att.WriteNotPermitted {
		t.Fatalf("expected WriteNotPermitted, got %v", code)
	}
	if code := db.WriteAttribute(context.Background(), 9, []byte{2}); code != att.InvalidHandle {
		t.Fatalf("expected InvalidHandle for an unknown handle, got %v", code)
	}
}

func TestStaticDatabaseWriteNoResponseDropsSilently(t *testing.T) {
	db := NewStaticDatabase([]StaticAttribute{
		{Attribute: attr(1, uuid.FromUint16(0x2A00), Readable|WritableWithResponse), Value: []byte{1}},
	})

	db.WriteNoResponseAttribute(context.Background(), 1, []byte{2})
	db.WriteNoResponseAttribute(context.Background(), 9, []byte{2})

	value, code := db.ReadAttribute(context.Background(), 1)
	if code != att.Success {
		t.Fatalf("expected Success, got %v", code)
	}
	if len(value) != 1 || value[0] != 1 {
		t.Fatalf("a dropped write must leave the value untouched, got %v", value)
	}
}

func TestSnapshotListIsStrictlyIncreasing(t *testing.T) {
	db := NewStaticDatabase([]StaticAttribute{
		{Attribute: attr(1, uuid.FromUint16(0x2800), Readable)},
		{Attribute: attr(2, uuid.FromUint16(0x2803), Readable)},
		{Attribute: attr(3, uuid.FromUint16(0x2A00), Readable)},
	})

	attrs := NewSnapshot(db).ListAttributes()
	for i := 1; i < len(attrs); i++ {
		if attrs[i].Handle <= attrs[i-1].Handle {
			t.Fatalf("handles not strictly increasing at index %d: %d then %d", i, attrs[i-1].Handle, attrs[i].Handle)
		}
	}
}

type shrinkingDB struct {
	*StaticDatabase
	full   []AttAttribute
	shrunk bool
}

func (d *shrinkingDB) ListAttributes() []AttAttribute {
	if d.shrunk {
		return d.full[:1]
	}
	return d.full
}

func TestSnapshotSurvivesBackingListChange(t *testing.T) {
	rows := []StaticAttribute{
		{Attribute: attr(1, uuid.FromUint16(0x2A00), Readable), Value: []byte{1}},
		{Attribute: attr(2, uuid.FromUint16(0x2A01), Readable), Value: []byte{2}},
	}
	static := NewStaticDatabase(rows)
	db := &shrinkingDB{StaticDatabase: static, full: static.ListAttributes()}

	snap := NewSnapshot(db)
	db.shrunk = true

	if got := len(snap.ListAttributes()); got != 2 {
		t.Fatalf("snapshot must keep the list it captured, got %d attributes", got)
	}
	if got := len(db.ListAttributes()); got != 1 {
		t.Fatalf("backing database should have shrunk, got %d attributes", got)
	}
}

func TestSnapshotSubrangeClampsBounds(t *testing.T) {
	db := NewStaticDatabase([]StaticAttribute{
		{Attribute: attr(2, uuid.FromUint16(0x2A00), Readable)},
		{Attribute: attr(4, uuid.FromUint16(0x2A01), Readable)},
		{Attribute: attr(6, uuid.FromUint16(0x2A02), Readable)},
	})
	snap := NewSnapshot(db)

	got := snap.Subrange(3, 0xFFFF)
	if len(got) != 2 || got[0].Handle != 4 || got[1].Handle != 6 {
		t.Fatalf("expected handles [4 6], got %v", got)
	}
	if snap.Subrange(7, 0xFFFF) != nil {
		t.Fatal("expected an empty subrange past the last handle")
	}
}

func TestGroupEndStopsCharacteristicAtNextDeclaration(t *testing.T) {
	attrs := []AttAttribute{
		attr(1, PrimaryServiceDeclarationUUID, Readable),
		attr(2, CharacteristicUUID, Readable),
		attr(3, uuid.FromUint16(0x2A00), Readable),
		attr(4, CharacteristicUUID, Readable),
		attr(5, uuid.FromUint16(0x2A01), Readable),
	}

	if end := GroupEnd(attrs, 1); end != 3 {
		t.Fatalf("characteristic group should end at handle 3, got %d", end)
	}
	if end := GroupEnd(attrs, 0); end != 5 {
		t.Fatalf("service group should span all its characteristics to handle 5, got %d", end)
	}
	if end := GroupEnd(attrs, 2); end != 3 {
		t.Fatalf("a non-grouping attribute's group is itself, got %d", end)
	}
}
