package gatt

import (
	"context"

	"github.com/kryptco-kr/gattcore/att"
)

// HandleRead implements ReadRequest (Core Spec 5.3 Vol 3F 3.4.4.3/3.4.4.4):
// reads the target handle, truncates to mtu-1 bytes on success.
func HandleRead(ctx context.Context, db AttDatabase, mtu int, req att.ReadRequest) []byte {
	handle := AttHandle(req.AttributeHandle())
	value, code := db.ReadAttribute(ctx, handle)
	if code != att.Success {
		return att.NewErrorResponse(att.ReadRequestCode, uint16(handle), code)
	}
	return att.NewReadResponse(value, mtu)
}

// HandleReadBlob implements ReadBlobRequest (Core Spec 5.3 Vol 3F
// 3.4.4.5/3.4.4.6), a variant of Read with an explicit value offset.
// The AttDatabase surface has no offset-aware read primitive, so this reads
// the full value and slices it locally, matching how a fixed in-memory
// attribute answers blob reads.
func HandleReadBlob(ctx context.Context, db AttDatabase, mtu int, req att.ReadBlobRequest) []byte {
	handle := AttHandle(req.AttributeHandle())
	value, code := db.ReadAttribute(ctx, handle)
	if code != att.Success {
		return att.NewErrorResponse(att.ReadBlobRequestCode, uint16(handle), code)
	}
	offset := int(req.ValueOffset())
	if offset > len(value) {
		return att.NewErrorResponse(att.ReadBlobRequestCode, uint16(handle), att.InvalidOffset)
	}
	return att.NewReadBlobResponse(value[offset:], mtu)
}
