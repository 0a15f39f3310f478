package gatt

import (
	"context"

	"github.com/kryptco-kr/gattcore/att"
	"github.com/kryptco-kr/gattcore/uuid"
)

// HandleReadByGroupType implements ReadByGroupTypeRequest (Core Spec 5.3 Vol
// 3F 3.4.4.9/3.4.4.10). It behaves like ReadByType but additionally reports
// each match's group end handle, and only accepts a grouping attribute type
// (a service or characteristic declaration) as the requested type.
func HandleReadByGroupType(ctx context.Context, db AttDatabase, mtu int, req att.ReadByGroupTypeRequest) []byte {
	starting, ending := req.StartingHandle(), req.EndingHandle()
	if code, ok := validateRange(att.ReadByGroupTypeRequestCode, starting, ending); !ok {
		return att.NewErrorResponse(att.ReadByGroupTypeRequestCode, starting, code)
	}

	requestType, ok := uuid.FromWireBytes(req.AttributeGroupType())
	if !ok {
		return att.NewErrorResponse(att.ReadByGroupTypeRequestCode, starting, att.InvalidPDU)
	}
	if !isGroupingType(requestType) {
		return att.NewErrorResponse(att.ReadByGroupTypeRequestCode, starting, att.UnsupportedGroupType)
	}

	snap := NewSnapshot(db)
	attrs := snap.Subrange(AttHandle(starting), AttHandle(ending))

	// Each element is a 4-byte handle pair plus the value, so MTU-6 bounds a
	// single value; MTU-2 bounds the whole response.
	valueBudget := mtu - 6
	out := att.NewReadByGroupTypeResponseBuilder(mtu - 2)

	for _, a := range attrs {
		if a.Type != requestType {
			continue
		}
		value, code := db.ReadAttribute(ctx, a.Handle)
		if code != att.Success {
			if out.Empty() {
				return att.NewErrorResponse(att.ReadByGroupTypeRequestCode, starting, code)
			}
			break
		}
		if valueBudget >= 0 && len(value) > valueBudget {
			value = value[:valueBudget]
		}
		groupEnd := snap.GroupEndFor(a.Handle)
		if !out.TryAppend(uint16(a.Handle), uint16(groupEnd), value) {
			break
		}
	}

	if out.Empty() {
		return att.NewErrorResponse(att.ReadByGroupTypeRequestCode, starting, att.AttributeNotFound)
	}
	return out.Build()
}
