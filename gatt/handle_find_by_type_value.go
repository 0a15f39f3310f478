package gatt

import (
	"context"

	"github.com/kryptco-kr/gattcore/att"
	"github.com/kryptco-kr/gattcore/uuid"
)

// HandleFindByTypeValue implements FindByTypeValueRequest (Core Spec 5.3 Vol
// 3F 3.4.3.3/3.4.3.4): scans the range for attributes matching both the
// requested type and value, returning {found_handle, group_end_handle} pairs
// under an mtu-1 budget. A read failure on a type-matching attribute is
// logged and skipped rather than aborting the scan.
func HandleFindByTypeValue(ctx context.Context, db AttDatabase, mtu int, req att.FindByTypeValueRequest) []byte {
	starting, ending := req.StartingHandle(), req.EndingHandle()
	if code, ok := validateRange(att.FindByTypeValueRequestCode, starting, ending); !ok {
		return att.NewErrorResponse(att.FindByTypeValueRequestCode, starting, code)
	}

	requestType := uuid.FromUint16(req.AttributeType())
	requestValue := req.AttributeValue()

	snap := NewSnapshot(db)
	attrs := snap.Subrange(AttHandle(starting), AttHandle(ending))

	acc := NewAccumulator[att.HandleRange](mtu-1, func(att.HandleRange) int { return att.HandleRangeWireLen })

	for _, a := range attrs {
		if a.Type != requestType {
			continue
		}
		value, code := db.ReadAttribute(ctx, a.Handle)
		if code != att.Success {
			logger.Warningf("skipping handle %d in FindByTypeValueRequest: read failed", a.Handle)
			continue
		}
		if !bytesEqual(value, requestValue) {
			continue
		}
		groupEnd := snap.GroupEndFor(a.Handle)
		if !acc.Push(att.HandleRange{FoundHandle: uint16(a.Handle), GroupEndHandle: uint16(groupEnd)}) {
			break
		}
	}

	if acc.IsEmpty() {
		return att.NewErrorResponse(att.FindByTypeValueRequestCode, starting, att.AttributeNotFound)
	}
	return att.NewFindByTypeValueResponse(acc.IntoSlice())
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
