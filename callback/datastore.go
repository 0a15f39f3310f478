package callback

import (
	"context"

	"github.com/kryptco-kr/gattcore/att"
	"github.com/kryptco-kr/gattcore/gatt"
)

// Datastore adapts a Manager into a gatt.AttDatabase for one (transport,
// server) pair: attribute metadata (handle/type/permissions) is fixed and
// supplied up front, exactly as the handlers need for snapshotting, while
// the values themselves are bridged out to the upper layer transaction by
// transaction.
type Datastore struct {
	manager     *Manager
	connID      ConnectionID
	attrs       []gatt.AttAttribute
	backingType func(gatt.AttHandle) AttributeBackingType
}

// NewDatastore builds a Datastore. backingType may be nil, in which case
// every handle is reported as AttributeBackingType Characteristic.
func NewDatastore(manager *Manager, tcbIdx TransportIndex, serverID ServerID, attrs []gatt.AttAttribute, backingType func(gatt.AttHandle) AttributeBackingType) *Datastore {
	if backingType == nil {
		backingType = func(gatt.AttHandle) AttributeBackingType { return Characteristic }
	}
	return &Datastore{
		manager:     manager,
		connID:      ConnectionID{TransportIndex: tcbIdx, ServerID: serverID},
		attrs:       attrs,
		backingType: backingType,
	}
}

func (d *Datastore) ListAttributes() []gatt.AttAttribute { return d.attrs }

func (d *Datastore) ReadAttribute(ctx context.Context, handle gatt.AttHandle) ([]byte, att.ErrorCode) {
	transID, pt := d.manager.startTransaction(d.connID)
	d.manager.callbacks.OnServerRead(d.connID, transID, handle, d.backingType(handle), 0)
	return d.manager.wait(ctx, d.connID, transID, pt)
}

func (d *Datastore) WriteAttribute(ctx context.Context, handle gatt.AttHandle, data []byte) att.ErrorCode {
	transID, pt := d.manager.startTransaction(d.connID)
	writeType := GattWriteType{Kind: WriteRequestKind, RequestType: WriteRequestType}
	d.manager.callbacks.OnServerWrite(d.connID, transID, handle, d.backingType(handle), writeType, data)
	_, code := d.manager.wait(ctx, d.connID, transID, pt)
	return code
}

func (d *Datastore) WriteNoResponseAttribute(_ context.Context, handle gatt.AttHandle, data []byte) {
	transID := d.manager.allocTransactionID()
	writeType := GattWriteType{Kind: WriteCommandKind}
	d.manager.callbacks.OnServerWrite(d.connID, transID, handle, d.backingType(handle), writeType, data)
}

// Execute dispatches the ExecuteWriteRequest decision to the upper layer
// and waits for it to resolve the queued prepared writes. The queue itself
// lives entirely on the upper-layer side; this only carries the decision
// across the callback boundary.
func (d *Datastore) Execute(ctx context.Context, decision TransactionDecision) att.ErrorCode {
	transID, pt := d.manager.startTransaction(d.connID)
	d.manager.callbacks.OnExecute(d.connID, transID, decision)
	_, code := d.manager.wait(ctx, d.connID, transID, pt)
	return code
}
