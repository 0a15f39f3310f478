package gatt

import (
	"context"

	"github.com/kryptco-kr/gattcore/att"
	"github.com/kryptco-kr/gattcore/uuid"
)

// HandleReadByType implements ReadByTypeRequest (Core Spec 5.3 Vol 3F
// 3.4.4.1/3.4.4.2): filters the range to attributes of the requested type,
// reads each value, and accumulates {handle, value} tuples of uniform
// length under an mtu-2 budget. If reading an attribute fails partway
// through, whatever was already accumulated is returned; only an empty
// result surfaces the error.
func HandleReadByType(ctx context.Context, db AttDatabase, mtu int, req att.ReadByTypeRequest) []byte {
	starting, ending := req.StartingHandle(), req.EndingHandle()
	if code, ok := validateRange(att.ReadByTypeRequestCode, starting, ending); !ok {
		return att.NewErrorResponse(att.ReadByTypeRequestCode, starting, code)
	}

	requestType, ok := uuid.FromWireBytes(req.AttributeType())
	if !ok {
		return att.NewErrorResponse(att.ReadByTypeRequestCode, starting, att.InvalidPDU)
	}

	snap := NewSnapshot(db)
	attrs := snap.Subrange(AttHandle(starting), AttHandle(ending))

	// Core Spec 5.3 Vol 3F 3.4.4.1: MTU-4 bounds a single value; MTU-2
	// bounds the whole response.
	valueBudget := mtu - 4
	out := att.NewReadByTypeResponseBuilder(mtu - 2)

	for _, a := range attrs {
		if a.Type != requestType {
			continue
		}
		value, code := db.ReadAttribute(ctx, a.Handle)
		if code != att.Success {
			if out.Empty() {
				return att.NewErrorResponse(att.ReadByTypeRequestCode, starting, code)
			}
			break
		}
		if valueBudget >= 0 && len(value) > valueBudget {
			value = value[:valueBudget]
		}
		if !out.TryAppend(uint16(a.Handle), value) {
			break
		}
	}

	if out.Empty() {
		return att.NewErrorResponse(att.ReadByTypeRequestCode, starting, att.AttributeNotFound)
	}
	return out.Build()
}
