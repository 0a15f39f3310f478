package gatt

import "github.com/kryptco-kr/gattcore/att"

// HandleFindInformation implements FindInformationRequest (Core Spec 5.3
// Vol 3F 3.4.3.1/3.4.3.2). It prefers the short (16-bit UUID) response
// format: if the range's leading attributes are 16-bit-compatible, it
// commits to short entries and stops at the first one that isn't; only if
// no attribute at the head of the range is 16-bit-compatible does it fall
// back to the long (128-bit UUID) format.
func HandleFindInformation(db AttDatabase, mtu int, req att.FindInformationRequest) []byte {
	starting, ending := req.StartingHandle(), req.EndingHandle()
	if code, ok := validateRange(att.FindInformationRequestCode, starting, ending); !ok {
		return att.NewErrorResponse(att.FindInformationRequestCode, starting, code)
	}

	snap := NewSnapshot(db)
	attrs := snap.Subrange(AttHandle(starting), AttHandle(ending))

	budget := mtu - 2
	short := att.NewFindInformationResponseBuilder(budget)
	for _, a := range attrs {
		wire := a.Type.ShortestBytes()
		if len(wire) != 2 {
			break
		}
		if !short.TryAppend(uint16(a.Handle), wire) {
			break
		}
	}
	if !short.Empty() {
		return short.Build()
	}

	long := att.NewFindInformationResponseBuilder(budget)
	for _, a := range attrs {
		if !long.TryAppend(uint16(a.Handle), a.Type.WireBytes()) {
			break
		}
	}
	if !long.Empty() {
		return long.Build()
	}

	return att.NewErrorResponse(att.FindInformationRequestCode, starting, att.AttributeNotFound)
}
