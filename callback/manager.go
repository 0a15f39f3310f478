package callback

import (
	"context"
	"sync"
	"time"

	"github.com/op/go-logging"

	"github.com/kryptco-kr/gattcore/alarm"
	"github.com/kryptco-kr/gattcore/att"
)

var logger = logging.MustGetLogger("callback")

// ResponseTimeout bounds how long a read/write/execute transaction waits
// for SendResponse before giving up with UnlikelyError. Kept comfortably
// under the 30s ATT timeout that would otherwise disconnect the peer.
const ResponseTimeout = 15 * time.Second

type result struct {
	value []byte
	code  att.ErrorCode
}

type pendingTransaction struct {
	response chan result
	alarm    alarm.Alarm
	// hungUp marks an orphaned transaction: the awaiter gave up, but the
	// entry stays in the pending map so a late SendResponse gets told
	// ListenerHungUp rather than NonExistentTransaction, until the response
	// timeout reaps it. Guarded by Manager.mu.
	hungUp bool
}

type pendingKey struct {
	conn  ConnectionID
	trans TransactionID
}

// Manager converts the asynchronous read/write operations a Datastore
// presents to the dispatcher into calls against GattCallbacks, and
// resumes the waiting caller when the upper layer answers through
// SendResponse.
type Manager struct {
	callbacks GattCallbacks

	mu                sync.Mutex
	pending           map[pendingKey]*pendingTransaction
	nextTransactionID uint32
}

// NewManager wraps callbacks with transaction bookkeeping.
func NewManager(callbacks GattCallbacks) *Manager {
	return &Manager{
		callbacks:         callbacks,
		pending:           make(map[pendingKey]*pendingTransaction),
		nextTransactionID: 1,
	}
}

func (m *Manager) allocTransactionID() TransactionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := TransactionID(m.nextTransactionID)
	m.nextTransactionID++
	return id
}

// startTransaction allocates a transaction id and registers a pending
// waiter for it under connID, returning both so the caller can invoke the
// matching GattCallbacks method and then wait.
func (m *Manager) startTransaction(connID ConnectionID) (TransactionID, *pendingTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := TransactionID(m.nextTransactionID)
	m.nextTransactionID++
	pt := &pendingTransaction{response: make(chan result, 1)}
	if a, err := alarm.New(); err != nil {
		logger.Warningf("transaction %d: no wakeable alarm available (%v), falling back to time.After", id, err)
	} else {
		pt.alarm = a
		_ = a.Reset(ResponseTimeout)
	}
	m.pending[pendingKey{conn: connID, trans: id}] = pt
	return id, pt
}

// wait blocks for SendResponse to resolve the transaction, the response
// timeout, or ctx cancellation. On timeout it removes the pending entry; on
// ctx cancellation it orphans the entry, which stays in the map until a late
// SendResponse or the still-armed timeout removes it. Both cases return
// UnlikelyError. The
// timeout itself is driven by a suspend-aware alarm.Alarm rather than a bare
// time.After, so a pending transaction still times out on schedule even if
// the host suspends while the upper layer is silent.
func (m *Manager) wait(ctx context.Context, connID ConnectionID, transID TransactionID, pt *pendingTransaction) ([]byte, att.ErrorCode) {
	var timeout <-chan struct{}
	if pt.alarm != nil {
		timeout = pt.alarm.Expired()
	} else {
		fallback := time.After(ResponseTimeout)
		ch := make(chan struct{})
		go func() { <-fallback; close(ch) }()
		timeout = ch
	}
	select {
	case r := <-pt.response:
		m.closeAlarm(pt)
		return r.value, r.code
	case <-timeout:
		m.forget(connID, transID)
		m.closeAlarm(pt)
		logger.Warningf("no response received for transaction %d after timeout - returning UnlikelyError", transID)
		return nil, att.UnlikelyError
	case <-ctx.Done():
		m.orphan(connID, transID, pt, timeout)
		return nil, att.UnlikelyError
	}
}

func (m *Manager) closeAlarm(pt *pendingTransaction) {
	if pt.alarm != nil {
		pt.alarm.Close()
	}
}

// orphan marks a transaction whose awaiter gave up. The pending entry is
// retained so SendResponse can report ListenerHungUp, and the still-armed
// response timeout reaps it if no answer ever comes.
func (m *Manager) orphan(connID ConnectionID, transID TransactionID, pt *pendingTransaction, timeout <-chan struct{}) {
	m.mu.Lock()
	if _, ok := m.pending[pendingKey{conn: connID, trans: transID}]; ok {
		pt.hungUp = true
	}
	m.mu.Unlock()
	go func() {
		<-timeout
		m.forget(connID, transID)
		m.closeAlarm(pt)
	}()
}

func (m *Manager) forget(connID ConnectionID, transID TransactionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, pendingKey{conn: connID, trans: transID})
}

// SendResponse is the re-entry point the upper layer calls once it has an
// answer for a transaction previously dispatched via GattCallbacks.
func (m *Manager) SendResponse(connID ConnectionID, transID TransactionID, value []byte, code att.ErrorCode) error {
	key := pendingKey{conn: connID, trans: transID}

	m.mu.Lock()
	pt, ok := m.pending[key]
	if ok {
		delete(m.pending, key)
	}
	hungUp := ok && pt.hungUp
	m.mu.Unlock()

	if !ok {
		return &ResponseError{Kind: NonExistentTransaction, TransactionID: transID}
	}
	if hungUp {
		return &ResponseError{Kind: ListenerHungUp, TransactionID: transID}
	}

	select {
	case pt.response <- result{value: value, code: code}:
		logger.Debugf("delivered response for transaction %d", transID)
		return nil
	default:
		return &ResponseError{Kind: ListenerHungUp, TransactionID: transID}
	}
}
