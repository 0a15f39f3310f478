package gatt

// Transport is the boundary a dispatcher hands finished PDUs across (Core
// Spec link-layer/L2CAP fixed channel 0x0004 in the real stack). tcbIdx
// identifies which bearer/connection the packet belongs to.
type Transport interface {
	SendPacket(tcbIdx int, pdu []byte) error
}
