package ledger

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/falcon/journal"
	"github.com/rustyeddy/falcon/market"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestLedger(t *testing.T, cash string) (*Ledger, *journal.Memory) {
	t.Helper()

	store := journal.NewMemory()
	l, err := New("acct-test", dec(cash), store)
	require.NoError(t, err)
	return l, store
}

func entryFill(symbol string, qty, price float64, commission string) journal.Fill {
	return journal.Fill{
		ID:         "f-entry",
		OrderID:    "o-entry",
		Symbol:     symbol,
		Side:       market.Buy,
		Quantity:   qty,
		Price:      price,
		Commission: dec(commission),
		Time:       time.Date(2026, 3, 2, 9, 47, 0, 0, time.UTC),
		Reason:     "Entry",
	}
}

func exitFill(symbol string, qty, price float64, commission, reason string) journal.Fill {
	return journal.Fill{
		ID:         "f-exit",
		OrderID:    "o-exit",
		Symbol:     symbol,
		Side:       market.Sell,
		Quantity:   qty,
		Price:      price,
		Commission: dec(commission),
		Time:       time.Date(2026, 3, 2, 10, 12, 0, 0, time.UTC),
		Reason:     reason,
	}
}

func TestEntryDebitsCashExactly(t *testing.T) {
	t.Parallel()

	l, store := newTestLedger(t, "1000")

	f := entryFill("XYZ", 4, 50.00, "0.20")
	f.StopPrice = 49.00
	f.TargetPrice = 52.00

	applied, err := l.ApplyFill(f)
	require.NoError(t, err)

	assert.True(t, applied.CashDelta.Equal(dec("-200.20")), "delta %s", applied.CashDelta)
	assert.True(t, l.Cash().Equal(dec("799.80")), "cash %s", l.Cash())

	pos, ok := l.Position("XYZ")
	require.True(t, ok)
	assert.Equal(t, 4.0, pos.Quantity)
	assert.Equal(t, 50.00, pos.EntryPrice)
	assert.Equal(t, 49.00, pos.StopPrice)
	assert.Equal(t, 52.00, pos.TargetPrice)
	assert.Equal(t, 50.00, pos.CurrentPrice)

	require.Len(t, store.Fills(), 1)
	assert.True(t, store.Account().Cash.Equal(dec("799.80")))
}

func TestExitRealizesProfitNetOfCommissions(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t, "1000")

	_, err := l.ApplyFill(entryFill("XYZ", 4, 50.00, "0.20"))
	require.NoError(t, err)

	applied, err := l.ApplyFill(exitFill("XYZ", 4, 55.00, "0.22", "TakeProfit"))
	require.NoError(t, err)

	assert.True(t, applied.CashDelta.Equal(dec("219.78")), "delta %s", applied.CashDelta)
	assert.True(t, applied.RealizedPL.Equal(dec("19.58")), "pl %s", applied.RealizedPL)
	assert.True(t, l.Cash().Equal(dec("1019.58")), "cash %s", l.Cash())

	_, ok := l.Position("XYZ")
	assert.False(t, ok)
}

func TestCashEqualsInitialPlusFillDeltas(t *testing.T) {
	t.Parallel()

	l, store := newTestLedger(t, "5000")

	fills := []journal.Fill{
		entryFill("AAA", 10, 100.00, "1.00"),
		exitFill("AAA", 10, 98.50, "0.99", "StopLoss"),
		entryFill("BBB", 3, 250.00, "0.75"),
		exitFill("BBB", 3, 260.00, "0.78", "EndOfWindow"),
	}
	for _, f := range fills {
		_, err := l.ApplyFill(f)
		require.NoError(t, err)
	}

	sum := decimal.Zero
	for _, rec := range store.Fills() {
		sum = sum.Add(rec.CashDelta)
	}
	assert.True(t, l.Cash().Equal(dec("5000").Add(sum)),
		"cash %s vs initial+deltas %s", l.Cash(), dec("5000").Add(sum))
}

func TestDuplicatePositionRefused(t *testing.T) {
	t.Parallel()

	l, store := newTestLedger(t, "10000")

	_, err := l.ApplyFill(entryFill("XYZ", 4, 50.00, "0.20"))
	require.NoError(t, err)

	_, err = l.ApplyFill(entryFill("XYZ", 2, 51.00, "0.10"))
	require.ErrorIs(t, err, ErrDuplicatePosition)

	assert.True(t, l.Cash().Equal(dec("9799.80")))
	assert.Len(t, store.Fills(), 1)
}

func TestInsufficientCashRefused(t *testing.T) {
	t.Parallel()

	l, store := newTestLedger(t, "100")

	_, err := l.ApplyFill(entryFill("XYZ", 4, 50.00, "0.20"))
	require.ErrorIs(t, err, ErrInsufficientCash)

	assert.True(t, l.Cash().Equal(dec("100")))
	assert.Empty(t, store.Fills())
	_, ok := l.Position("XYZ")
	assert.False(t, ok)
}

func TestExitWithoutPositionRefused(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t, "1000")

	_, err := l.ApplyFill(exitFill("XYZ", 4, 55.00, "0.22", "TakeProfit"))
	require.ErrorIs(t, err, ErrNoOpenPosition)
	assert.True(t, l.Cash().Equal(dec("1000")))
}

func TestMarkToMarketLeavesCashAlone(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t, "1000")

	_, err := l.ApplyFill(entryFill("XYZ", 4, 50.00, "0.20"))
	require.NoError(t, err)

	l.MarkToMarket("XYZ", 53.40)

	pos, ok := l.Position("XYZ")
	require.True(t, ok)
	assert.Equal(t, 53.40, pos.CurrentPrice)
	assert.True(t, l.Cash().Equal(dec("799.80")))
}

func TestResumeRestoresPersistedSession(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "resume.db")
	store, err := journal.NewSQLite(path)
	require.NoError(t, err)

	l, err := New("acct-test", dec("1000"), store)
	require.NoError(t, err)

	f := entryFill("XYZ", 4, 50.00, "0.20")
	f.StopPrice = 49.00
	f.TargetPrice = 52.00
	_, err = l.ApplyFill(f)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// A restart reopens the journal and carries the balance forward.
	store2, err := journal.NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store2.Close() })

	resumed, err := Resume("acct-test", dec("1000"), store2)
	require.NoError(t, err)

	assert.True(t, resumed.Cash().Equal(dec("799.80")), "cash %s", resumed.Cash())
	pos, ok := resumed.Position("XYZ")
	require.True(t, ok)
	assert.Equal(t, 4.0, pos.Quantity)
	assert.Equal(t, 49.00, pos.StopPrice)

	// The restored position table still enforces one position per symbol.
	_, err = resumed.ApplyFill(entryFill("XYZ", 2, 51.00, "0.10"))
	require.ErrorIs(t, err, ErrDuplicatePosition)

	_, err = resumed.ApplyFill(exitFill("XYZ", 4, 55.00, "0.22", "TakeProfit"))
	require.NoError(t, err)
	assert.True(t, resumed.Cash().Equal(dec("1019.58")), "cash %s", resumed.Cash())
}

func TestResumeFallsBackToFreshAccount(t *testing.T) {
	t.Parallel()

	// Memory stores cannot load prior sessions; Resume seeds a new one.
	l, err := Resume("acct-test", dec("1000"), journal.NewMemory())
	require.NoError(t, err)
	assert.True(t, l.Cash().Equal(dec("1000")))
	assert.Empty(t, l.Positions())
}

// failingStore commits nothing once armed, simulating a journal outage
// mid-session.
type failingStore struct {
	*journal.Memory
	fail bool
}

func (s *failingStore) Apply(mut journal.Mutation) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.Memory.Apply(mut)
}

func TestStoreFailureHaltsTrading(t *testing.T) {
	t.Parallel()

	store := &failingStore{Memory: journal.NewMemory()}
	l, err := New("acct-test", dec("1000"), store)
	require.NoError(t, err)

	store.fail = true
	_, err = l.ApplyFill(entryFill("XYZ", 4, 50.00, "0.20"))
	require.ErrorIs(t, err, ErrTransactionFailed)

	// Memory state must match the store: untouched.
	assert.True(t, l.Cash().Equal(dec("1000")))
	_, ok := l.Position("XYZ")
	assert.False(t, ok)
	assert.True(t, l.Halted())

	// Everything is refused until the halt is cleared, even with a
	// healthy store.
	store.fail = false
	_, err = l.ApplyFill(entryFill("XYZ", 4, 50.00, "0.20"))
	require.ErrorIs(t, err, ErrHalted)

	l.ClearHalt()
	_, err = l.ApplyFill(entryFill("XYZ", 4, 50.00, "0.20"))
	require.NoError(t, err)
	assert.True(t, l.Cash().Equal(dec("799.80")))
}
