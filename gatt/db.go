package gatt

import (
	"context"
	"sort"

	"github.com/kryptco-kr/gattcore/att"
)

// AttDatabase is the suspension-point boundary handlers read and write
// through. Implementations may be purely in-memory (StaticDatabase) or may
// bridge to an external upper layer (see package callback), in which case
// read_attribute/write_attribute genuinely suspend the calling goroutine.
type AttDatabase interface {
	// ListAttributes returns every attribute in handle order. Callers that
	// need the list to stay valid across a suspension point should use
	// Snapshot instead of calling this repeatedly.
	ListAttributes() []AttAttribute
	// ReadAttribute reads the value at handle, applying permission checks.
	ReadAttribute(ctx context.Context, handle AttHandle) ([]byte, att.ErrorCode)
	// WriteAttribute writes data to handle, applying permission checks.
	WriteAttribute(ctx context.Context, handle AttHandle, data []byte) att.ErrorCode
	// WriteNoResponseAttribute writes data to handle without waiting for or
	// reporting a result; silently drops the write if handle isn't
	// writable-without-response.
	WriteNoResponseAttribute(ctx context.Context, handle AttHandle, data []byte)
}

// Snapshot is a stable-ordered view of an AttDatabase's attribute list,
// valid across suspension points (reads/writes still hit the
// live backing database; only the handle/type/permissions triples are
// frozen).
type Snapshot struct {
	attributes []AttAttribute
	backing    AttDatabase
}

// NewSnapshot captures db's current attribute list and returns a view that
// keeps using it even if db's list changes concurrently.
func NewSnapshot(db AttDatabase) *Snapshot {
	return &Snapshot{attributes: db.ListAttributes(), backing: db}
}

func (s *Snapshot) ListAttributes() []AttAttribute { return s.attributes }

func (s *Snapshot) ReadAttribute(ctx context.Context, handle AttHandle) ([]byte, att.ErrorCode) {
	return s.backing.ReadAttribute(ctx, handle)
}

func (s *Snapshot) WriteAttribute(ctx context.Context, handle AttHandle, data []byte) att.ErrorCode {
	return s.backing.WriteAttribute(ctx, handle, data)
}

func (s *Snapshot) WriteNoResponseAttribute(ctx context.Context, handle AttHandle, data []byte) {
	s.backing.WriteNoResponseAttribute(ctx, handle, data)
}

// FindAttribute looks up handle within the frozen list.
func (s *Snapshot) FindAttribute(handle AttHandle) (AttAttribute, bool) {
	for _, a := range s.attributes {
		if a.Handle == handle {
			return a, true
		}
	}
	return AttAttribute{}, false
}

// Subrange returns the attributes in the frozen list whose handles fall in
// [start, end], preserving order. It never panics on out-of-range bounds.
func (s *Snapshot) Subrange(start, end AttHandle) []AttAttribute {
	lo := sort.Search(len(s.attributes), func(i int) bool { return s.attributes[i].Handle >= start })
	hi := sort.Search(len(s.attributes), func(i int) bool { return s.attributes[i].Handle > end })
	if lo >= hi {
		return nil
	}
	return s.attributes[lo:hi]
}

// GroupEndFor returns the group-end handle for the attribute at
// handle, scanning the full frozen list rather than any subrange, since a
// group may extend past the range a request asked about.
func (s *Snapshot) GroupEndFor(handle AttHandle) AttHandle {
	for i, a := range s.attributes {
		if a.Handle == handle {
			return GroupEnd(s.attributes, i)
		}
	}
	return handle
}

// StaticDatabase is an in-memory AttDatabase backed by fixed values plus
// optional read/write callback functions per attribute, mirroring the
// read/write-handler-per-attribute model a locally defined GATT server
// (rather than one bridged from an external process) typically wants.
type StaticDatabase struct {
	attrs []AttAttribute
	byH   map[AttHandle]*staticEntry
}

type staticEntry struct {
	attr  AttAttribute
	value []byte
	read  func() ([]byte, att.ErrorCode)
	write func([]byte) att.ErrorCode
}

// StaticAttribute is one row supplied to NewStaticDatabase. Exactly one of
// Value or Read should be set for a readable attribute. A nil Read with the
// readable bit set falls back to the static Value; a nil Write with a write
// permission bit set stores the written bytes as the new static Value.
type StaticAttribute struct {
	Attribute AttAttribute
	Value     []byte
	Read      func() ([]byte, att.ErrorCode)
	Write     func([]byte) att.ErrorCode
}

// NewStaticDatabase builds a StaticDatabase from rows already laid out with
// final handles (see BuildServiceTable for handle assignment).
func NewStaticDatabase(rows []StaticAttribute) *StaticDatabase {
	db := &StaticDatabase{byH: make(map[AttHandle]*staticEntry, len(rows))}
	for _, row := range rows {
		e := &staticEntry{attr: row.Attribute, value: row.Value, read: row.Read, write: row.Write}
		db.attrs = append(db.attrs, row.Attribute)
		db.byH[row.Attribute.Handle] = e
	}
	return db
}

func (db *StaticDatabase) ListAttributes() []AttAttribute { return db.attrs }

func (db *StaticDatabase) ReadAttribute(_ context.Context, handle AttHandle) ([]byte, att.ErrorCode) {
	e, ok := db.byH[handle]
	if !ok {
		return nil, att.InvalidHandle
	}
	if !e.attr.Permissions.Readable() {
		return nil, att.ReadNotPermitted
	}
	if e.read != nil {
		return e.read()
	}
	return e.value, att.Success
}

func (db *StaticDatabase) WriteAttribute(_ context.Context, handle AttHandle, data []byte) att.ErrorCode {
	e, ok := db.byH[handle]
	if !ok {
		return att.InvalidHandle
	}
	if !e.attr.Permissions.WritableWithResponse() {
		return att.WriteNotPermitted
	}
	if e.write != nil {
		return e.write(data)
	}
	e.value = append([]byte(nil), data...)
	return att.Success
}

func (db *StaticDatabase) WriteNoResponseAttribute(_ context.Context, handle AttHandle, data []byte) {
	e, ok := db.byH[handle]
	if !ok || !e.attr.Permissions.WritableWithoutResponse() {
		return
	}
	if e.write != nil {
		e.write(data)
		return
	}
	e.value = append([]byte(nil), data...)
}
