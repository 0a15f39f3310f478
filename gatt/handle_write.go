package gatt

import (
	"context"

	"github.com/kryptco-kr/gattcore/att"
)

// HandleWrite implements WriteRequest (Core Spec 5.3 Vol 3F 3.4.5.1/3.4.5.2):
// writes the value and emits a zero-length WriteResponse on success.
func HandleWrite(ctx context.Context, db AttDatabase, req att.WriteRequest) []byte {
	handle := AttHandle(req.AttributeHandle())
	if code := db.WriteAttribute(ctx, handle, req.AttributeValue()); code != att.Success {
		return att.NewErrorResponse(att.WriteRequestCode, uint16(handle), code)
	}
	return att.NewWriteResponse()
}

// HandleWriteCommand implements WriteCommand (Core Spec 5.3 Vol 3F 3.4.5.3):
// fire-and-forget, no response is ever emitted, even on permission failure.
func HandleWriteCommand(ctx context.Context, db AttDatabase, req att.WriteCommand) {
	handle := AttHandle(req.AttributeHandle())
	db.WriteNoResponseAttribute(ctx, handle, req.AttributeValue())
}
