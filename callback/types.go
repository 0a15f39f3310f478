// Package callback bridges the asynchronous AttDatabase interface the
// dispatcher expects to an external callback-style API (the shape a JNI or
// D-Bus upper layer offers): reads and writes are dispatched out to
// GattCallbacks and the call only resumes once the upper layer calls back
// into Manager.SendResponse, or a timeout elapses.
package callback

import "github.com/kryptco-kr/gattcore/gatt"

// TransportIndex identifies a physical link/bearer, independent of which
// server on that link a request targets.
type TransportIndex int

// ServerID identifies one of possibly several GATT servers multiplexed
// over the same transport.
type ServerID int

// ConnectionID names a (transport, server) pair a transaction belongs to.
type ConnectionID struct {
	TransportIndex TransportIndex
	ServerID       ServerID
}

// TransactionID identifies one outstanding read/write/execute dispatched to
// the upper layer. Allocated from a counter starting at 1 that wraps
// around (through 0) on overflow.
type TransactionID uint32

// AttributeBackingType distinguishes a characteristic value from a
// descriptor when the same handle space backs both.
type AttributeBackingType int

const (
	Characteristic AttributeBackingType = iota
	Descriptor
)

func (t AttributeBackingType) String() string {
	if t == Descriptor {
		return "descriptor"
	}
	return "characteristic"
}

// GattWriteRequestType distinguishes the two ATT operations that produce a
// response-bearing write: an ordinary write request and a queued prepared
// write (Core Spec 5.3 Vol 3F 3.4.6.1/3.4.6.3).
type GattWriteRequestType int

const (
	WriteRequestType GattWriteRequestType = iota
	PrepareWriteRequestType
)

// GattWriteKind tags whether a write reaching the upper layer expects a
// response at all.
type GattWriteKind int

const (
	WriteCommandKind GattWriteKind = iota
	WriteRequestKind
)

// GattWriteType is the write-classification passed to OnServerWrite.
// RequestType is only meaningful when Kind is WriteRequestKind.
type GattWriteType struct {
	Kind        GattWriteKind
	RequestType GattWriteRequestType
}

// TransactionDecision is the outcome carried by an ExecuteWriteRequest
// (Core Spec 5.3 Vol 3F 3.4.6.3's Flags field).
type TransactionDecision int

const (
	Cancel TransactionDecision = iota
	Commit
)

// GattCallbacks is the external upper layer a Manager dispatches to. Every
// method is fire-and-forget from the Manager's perspective: the eventual
// result comes back later through Manager.SendResponse.
type GattCallbacks interface {
	OnServerRead(connID ConnectionID, transID TransactionID, handle gatt.AttHandle, attrType AttributeBackingType, offset int)
	OnServerWrite(connID ConnectionID, transID TransactionID, handle gatt.AttHandle, attrType AttributeBackingType, writeType GattWriteType, data []byte)
	OnExecute(connID ConnectionID, transID TransactionID, decision TransactionDecision)
}

// ResponseErrorKind classifies why SendResponse could not be delivered.
type ResponseErrorKind int

const (
	// NonExistentTransaction means transID was never issued for connID, or
	// has already been completed or timed out.
	NonExistentTransaction ResponseErrorKind = iota
	// ListenerHungUp means the waiter for transID gave up (e.g. its context
	// was cancelled when the bearer disconnected) before the answer arrived.
	// The orphaned entry lingers until either this report clears it or the
	// response timeout reaps it.
	ListenerHungUp
)

// ResponseError is returned by Manager.SendResponse. It is never surfaced
// on the wire; it only tells the caller the callback it just answered
// doesn't need an answer anymore.
type ResponseError struct {
	Kind          ResponseErrorKind
	TransactionID TransactionID
}

func (e *ResponseError) Error() string {
	switch e.Kind {
	case ListenerHungUp:
		return "callback: listener hung up for transaction"
	default:
		return "callback: no such pending transaction"
	}
}
