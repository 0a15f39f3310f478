package callback

import (
	"context"
	"testing"
	"time"

	"github.com/kryptco-kr/gattcore/att"
	"github.com/kryptco-kr/gattcore/gatt"
	"github.com/kryptco-kr/gattcore/uuid"
)

type recordedRead struct {
	connID   ConnectionID
	transID  TransactionID
	handle   gatt.AttHandle
	attrType AttributeBackingType
}

type recordedWrite struct {
	connID    ConnectionID
	transID   TransactionID
	handle    gatt.AttHandle
	attrType  AttributeBackingType
	writeType GattWriteType
	data      []byte
}

type mockCallbacks struct {
	reads  chan recordedRead
	writes chan recordedWrite
}

func newMockCallbacks() *mockCallbacks {
	return &mockCallbacks{
		reads:  make(chan recordedRead, 8),
		writes: make(chan recordedWrite, 8),
	}
}

func (m *mockCallbacks) OnServerRead(connID ConnectionID, transID TransactionID, handle gatt.AttHandle, attrType AttributeBackingType, offset int) {
	m.reads <- recordedRead{connID, transID, handle, attrType}
}

func (m *mockCallbacks) OnServerWrite(connID ConnectionID, transID TransactionID, handle gatt.AttHandle, attrType AttributeBackingType, writeType GattWriteType, data []byte) {
	m.writes <- recordedWrite{connID, transID, handle, attrType, writeType, append([]byte(nil), data...)}
}

func (m *mockCallbacks) OnExecute(connID ConnectionID, transID TransactionID, decision TransactionDecision) {
}

func TestDatastoreReadRoundTripsThroughSendResponse(t *testing.T) {
	cb := newMockCallbacks()
	mgr := NewManager(cb)
	attrs := []gatt.AttAttribute{{Handle: 3, Type: uuid.FromUint16(0x2A00), Permissions: gatt.Readable}}
	ds := NewDatastore(mgr, 0, 0, attrs, nil)

	resultCh := make(chan []byte, 1)
	go func() {
		value, code := ds.ReadAttribute(context.Background(), 3)
		if code != att.Success {
			t.Errorf("expected Success, got %v", code)
		}
		resultCh <- value
	}()

	read := <-cb.reads
	if read.handle != 3 {
		t.Fatalf("expected read for handle 3, got %d", read.handle)
	}
	if err := mgr.SendResponse(read.connID, read.transID, []byte("value"), att.Success); err != nil {
		t.Fatalf("SendResponse: %v", err)
	}

	select {
	case v := <-resultCh:
		if string(v) != "value" {
			t.Fatalf("expected %q, got %q", "value", v)
		}
	case <-time.After(time.Second):
		t.Fatal("ReadAttribute never returned")
	}
}

func TestDatastoreWriteNoResponseNeverWaits(t *testing.T) {
	cb := newMockCallbacks()
	mgr := NewManager(cb)
	ds := NewDatastore(mgr, 0, 0, nil, nil)

	ds.WriteNoResponseAttribute(context.Background(), 5, []byte("cmd"))

	write := <-cb.writes
	if write.writeType.Kind != WriteCommandKind {
		t.Fatalf("expected WriteCommandKind, got %v", write.writeType.Kind)
	}
	if string(write.data) != "cmd" {
		t.Fatalf("expected data %q, got %q", "cmd", write.data)
	}
}

func TestSendResponseRejectsUnknownTransaction(t *testing.T) {
	mgr := NewManager(newMockCallbacks())
	err := mgr.SendResponse(ConnectionID{}, 999, nil, att.Success)
	if err == nil {
		t.Fatal("expected an error for an unknown transaction")
	}
	respErr, ok := err.(*ResponseError)
	if !ok || respErr.Kind != NonExistentTransaction {
		t.Fatalf("expected NonExistentTransaction, got %v", err)
	}
}

func TestReadAttributeTimesOutWhenNeverAnswered(t *testing.T) {
	cb := newMockCallbacks()
	mgr := NewManager(cb)
	ds := NewDatastore(mgr, 0, 0, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, code := ds.ReadAttribute(ctx, 1)
	if code != att.UnlikelyError {
		t.Fatalf("expected UnlikelyError after context deadline, got %v", code)
	}
}

func TestWriteAttributeReportsUpperLayerErrorCode(t *testing.T) {
	cb := newMockCallbacks()
	mgr := NewManager(cb)
	ds := NewDatastore(mgr, 0, 0, nil, nil)

	resultCh := make(chan att.ErrorCode, 1)
	go func() {
		resultCh <- ds.WriteAttribute(context.Background(), 7, []byte("x"))
	}()

	write := <-cb.writes
	if err := mgr.SendResponse(write.connID, write.transID, nil, att.WriteNotPermitted); err != nil {
		t.Fatalf("SendResponse: %v", err)
	}

	select {
	case code := <-resultCh:
		if code != att.WriteNotPermitted {
			t.Fatalf("expected WriteNotPermitted, got %v", code)
		}
	case <-time.After(time.Second):
		t.Fatal("WriteAttribute never returned")
	}
}

func TestExecuteDispatchesDecisionAndWaits(t *testing.T) {
	cb := newMockCallbacks()
	executes := make(chan TransactionDecision, 1)
	transIDs := make(chan struct {
		conn  ConnectionID
		trans TransactionID
	}, 1)
	cb2 := &executeCallbacks{mockCallbacks: cb, executes: executes, transIDs: transIDs}
	mgr := NewManager(cb2)
	ds := NewDatastore(mgr, 1, 2, nil, nil)

	resultCh := make(chan att.ErrorCode, 1)
	go func() {
		resultCh <- ds.Execute(context.Background(), Commit)
	}()

	id := <-transIDs
	if d := <-executes; d != Commit {
		t.Fatalf("expected Commit, got %v", d)
	}
	if err := mgr.SendResponse(id.conn, id.trans, nil, att.Success); err != nil {
		t.Fatalf("SendResponse: %v", err)
	}

	select {
	case code := <-resultCh:
		if code != att.Success {
			t.Fatalf("expected Success, got %v", code)
		}
	case <-time.After(time.Second):
		t.Fatal("Execute never returned")
	}
}

type executeCallbacks struct {
	*mockCallbacks
	executes chan TransactionDecision
	transIDs chan struct {
		conn  ConnectionID
		trans TransactionID
	}
}

func (c *executeCallbacks) OnExecute(connID ConnectionID, transID TransactionID, decision TransactionDecision) {
	c.transIDs <- struct {
		conn  ConnectionID
		trans TransactionID
	}{connID, transID}
	c.executes <- decision
}

func TestSendResponseReportsListenerHungUp(t *testing.T) {
	cb := newMockCallbacks()
	mgr := NewManager(cb)
	ds := NewDatastore(mgr, 0, 0, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ds.ReadAttribute(ctx, 1)
		close(done)
	}()
	read := <-cb.reads

	cancel()
	<-done

	// The awaiter is gone but the entry is retained until the response
	// timeout reaps it, so a late answer learns the listener hung up.
	err := mgr.SendResponse(read.connID, read.transID, []byte{2}, att.Success)
	respErr, ok := err.(*ResponseError)
	if !ok || respErr.Kind != ListenerHungUp {
		t.Fatalf("expected ListenerHungUp for an orphaned transaction, got %v", err)
	}

	// The entry was removed along the way: answering again is now
	// NonExistentTransaction.
	err = mgr.SendResponse(read.connID, read.transID, []byte{2}, att.Success)
	respErr, ok = err.(*ResponseError)
	if !ok || respErr.Kind != NonExistentTransaction {
		t.Fatalf("expected NonExistentTransaction after the orphan was cleared, got %v", err)
	}
}
