package gatt

import "github.com/kryptco-kr/gattcore/att"

// validateRange enforces the precondition shared by every ranged handler:
// starting <= ending, and starting must be nonzero.
func validateRange(op att.Opcode, starting, ending uint16) (att.ErrorCode, bool) {
	if starting == 0 || starting > ending {
		return att.InvalidHandle, false
	}
	return att.Success, true
}
