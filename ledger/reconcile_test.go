package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/falcon/journal"
)

func TestReconcileCorrectsDriftAndAlarms(t *testing.T) {
	t.Parallel()

	l, store := newTestLedger(t, "10000")

	_, err := l.ApplyFill(entryFill("XYZ", 100, 50.00, "5.00"))
	require.NoError(t, err)
	l.MarkToMarket("XYZ", 52.1669)

	var fired []Report
	r := NewReconciler(l, func(rep Report) {
		// Handler runs outside the ledger lock.
		_ = l.Cash()
		fired = append(fired, rep)
	})
	at := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	r.now = func() time.Time { return at }

	rep, err := r.Reconcile()
	require.NoError(t, err)

	assert.True(t, rep.Stored.Equal(dec("10000")), "stored %s", rep.Stored)
	assert.True(t, rep.Calculated.Equal(dec("10211.69")), "calc %s", rep.Calculated)
	assert.True(t, rep.Delta.Equal(dec("211.69")), "delta %s", rep.Delta)
	assert.True(t, rep.Corrected)
	assert.True(t, rep.Alarm)
	require.Len(t, fired, 1)
	assert.True(t, fired[0].Delta.Equal(dec("211.69")))

	acct := l.Snapshot()
	assert.True(t, acct.TotalValue.Equal(dec("10211.69")))
	assert.Equal(t, at, acct.LastReconciled)
	assert.True(t, store.Account().TotalValue.Equal(dec("10211.69")))

	perf := store.Performance()
	require.Len(t, perf, 1)
	assert.Equal(t, at, perf[0].Time)
	assert.True(t, perf[0].TotalValue.Equal(dec("10211.69")))
	assert.True(t, perf[0].Cash.Equal(dec("4995.00")), "cash %s", perf[0].Cash)
	assert.True(t, perf[0].PositionsValue.Equal(dec("5216.69")))
}

func TestReconcileIsIdempotent(t *testing.T) {
	t.Parallel()

	l, store := newTestLedger(t, "10000")

	_, err := l.ApplyFill(entryFill("XYZ", 100, 50.00, "5.00"))
	require.NoError(t, err)
	l.MarkToMarket("XYZ", 52.1669)

	r := NewReconciler(l, nil)

	first, err := r.Reconcile()
	require.NoError(t, err)
	require.True(t, first.Corrected)
	r.onAlarm = func(Report) { t.Error("alarm on clean pass") }

	second, err := r.Reconcile()
	require.NoError(t, err)
	assert.True(t, second.Delta.IsZero(), "delta %s", second.Delta)
	assert.False(t, second.Corrected)
	assert.False(t, second.Alarm)

	// Quiet passes still leave an audit trail.
	assert.Len(t, store.Performance(), 2)
}

func TestDriftBelowEpsilonIgnored(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t, "10000")

	l.mu.Lock()
	l.account.TotalValue = dec("9999.995")
	l.mu.Unlock()

	r := NewReconciler(l, func(Report) { t.Error("unexpected alarm") })
	rep, err := r.Reconcile()
	require.NoError(t, err)

	assert.False(t, rep.Corrected)
	assert.False(t, rep.Alarm)
	assert.True(t, l.Snapshot().TotalValue.Equal(dec("10000")))
}

func TestModestDriftCorrectsWithoutAlarm(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t, "10000")

	l.mu.Lock()
	l.account.TotalValue = dec("9950")
	l.mu.Unlock()

	r := NewReconciler(l, func(Report) { t.Error("unexpected alarm") })
	rep, err := r.Reconcile()
	require.NoError(t, err)

	assert.True(t, rep.Corrected)
	assert.False(t, rep.Alarm)
	assert.True(t, rep.Delta.Equal(dec("50")), "delta %s", rep.Delta)
	assert.True(t, l.Snapshot().TotalValue.Equal(dec("10000")))
}

// gatedStore stalls SaveAccount once armed, so a reconcile pass can be
// held mid-save while another goroutine races a fill against it.
type gatedStore struct {
	*journal.Memory
	saving  chan struct{}
	release chan struct{}
}

func (s *gatedStore) SaveAccount(a journal.Account) error {
	if s.saving != nil {
		s.saving <- struct{}{}
		<-s.release
	}
	return s.Memory.SaveAccount(a)
}

func TestReconcileCannotOverwriteConcurrentFill(t *testing.T) {
	t.Parallel()

	store := &gatedStore{Memory: journal.NewMemory()}
	l, err := New("acct-test", dec("1000"), store)
	require.NoError(t, err)
	store.saving = make(chan struct{})
	store.release = make(chan struct{})

	r := NewReconciler(l, nil)
	reconciled := make(chan struct{})
	go func() {
		defer close(reconciled)
		_, err := r.Reconcile()
		assert.NoError(t, err)
	}()
	<-store.saving

	// The fill must wait for the in-flight save; if it slipped through,
	// the save would commit a stale pre-fill cash of 1000.
	filled := make(chan error, 1)
	go func() {
		_, err := l.ApplyFill(entryFill("XYZ", 4, 50.00, "0.20"))
		filled <- err
	}()
	select {
	case <-filled:
		t.Fatal("fill applied while reconcile held the ledger")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	<-reconciled
	require.NoError(t, <-filled)

	assert.True(t, l.Cash().Equal(dec("799.80")))
	assert.True(t, store.Account().Cash.Equal(dec("799.80")),
		"persisted cash %s regressed behind the ledger", store.Account().Cash)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	l, store := newTestLedger(t, "10000")
	r := NewReconciler(l, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	assert.NotEmpty(t, store.Performance())
}
