package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/falcon/market"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	s, path := newTestSQLite(t)
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('account','positions','fills','performance')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["account"])
	assert.True(t, found["positions"])
	assert.True(t, found["fills"])
	assert.True(t, found["performance"])
}

func TestSQLiteApplyRoundtrip(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)

	at := time.Date(2026, 1, 5, 9, 52, 0, 0, time.UTC)
	mut := Mutation{
		Fill: Fill{
			ID:         "F1",
			OrderID:    "O1",
			Symbol:     "TSLA",
			Side:       market.Buy,
			Quantity:   4,
			Price:      50.0,
			Commission: dec("0.20"),
			CashDelta:  dec("-200.20"),
			RealizedPL: decimal.Zero,
			Time:       at,
			Reason:     "Entry",
		},
		Position: &Position{
			Symbol:          "TSLA",
			Quantity:        4,
			EntryPrice:      50.0,
			StopPrice:       49.0,
			TargetPrice:     52.0,
			CurrentPrice:    50.0,
			EntryCommission: dec("0.20"),
			OpenedAt:        at,
		},
		Account: Account{ID: "SIM-1", Cash: dec("799.80"), TotalValue: dec("1000.00")},
	}
	require.NoError(t, s.Apply(mut))

	got, err := s.GetFill("F1")
	require.NoError(t, err)
	assert.Equal(t, "TSLA", got.Symbol)
	assert.Equal(t, market.Buy, got.Side)
	assert.InDelta(t, 4.0, got.Quantity, 1e-12)
	assert.True(t, got.CashDelta.Equal(dec("-200.20")), "cash delta %s", got.CashDelta)
	assert.True(t, got.Commission.Equal(dec("0.20")))
	assert.True(t, at.Equal(got.Time))

	positions, err := s.LoadPositions()
	require.NoError(t, err)
	require.Contains(t, positions, "TSLA")
	assert.InDelta(t, 49.0, positions["TSLA"].StopPrice, 1e-12)

	acct, ok, err := s.LoadAccount("SIM-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, acct.Cash.Equal(dec("799.80")), "cash %s", acct.Cash)
}

func TestSQLiteApplyRemovesClosedPosition(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)

	at := time.Date(2026, 1, 5, 9, 52, 0, 0, time.UTC)
	entry := Mutation{
		Fill: Fill{ID: "F1", OrderID: "O1", Symbol: "TSLA", Side: market.Buy,
			Quantity: 4, Price: 50, Commission: dec("0.20"), CashDelta: dec("-200.20"),
			RealizedPL: decimal.Zero, Time: at, Reason: "Entry"},
		Position: &Position{Symbol: "TSLA", Quantity: 4, EntryPrice: 50,
			StopPrice: 49, TargetPrice: 52, CurrentPrice: 50,
			EntryCommission: dec("0.20"), OpenedAt: at},
		Account: Account{ID: "SIM-1", Cash: dec("799.80"), TotalValue: dec("1000.00")},
	}
	require.NoError(t, s.Apply(entry))

	exit := Mutation{
		Fill: Fill{ID: "F2", OrderID: "O2", Symbol: "TSLA", Side: market.Sell,
			Quantity: 4, Price: 52, Commission: dec("0.21"), CashDelta: dec("207.79"),
			RealizedPL: dec("7.59"), Time: at.Add(10 * time.Minute), Reason: "TakeProfit"},
		Removed: "TSLA",
		Account: Account{ID: "SIM-1", Cash: dec("1007.59"), TotalValue: dec("1000.00")},
	}
	require.NoError(t, s.Apply(exit))

	positions, err := s.LoadPositions()
	require.NoError(t, err)
	assert.Empty(t, positions)

	fills, err := s.ListFillsBetween(at, at.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, market.Sell, fills[1].Side)
	assert.True(t, fills[1].RealizedPL.Equal(dec("7.59")))
}

func TestSQLitePerformanceHistory(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)

	t0 := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordPerformance(PerformanceRecord{
			Time:           t0.Add(time.Duration(i) * 5 * time.Minute),
			TotalValue:     dec("10211.69"),
			Cash:           dec("1058.70"),
			PositionsValue: dec("9152.99"),
		}))
	}

	recs, err := s.ListPerformanceBetween(t0, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.True(t, recs[0].TotalValue.Equal(dec("10211.69")))
}

func TestSQLiteAccountIsSingleton(t *testing.T) {
	t.Parallel()

	s, _ := newTestSQLite(t)

	require.NoError(t, s.SaveAccount(Account{ID: "SIM-1", Cash: dec("1000.00"), TotalValue: dec("1000.00")}))
	require.NoError(t, s.SaveAccount(Account{ID: "SIM-1", Cash: dec("900.00"), TotalValue: dec("995.00")}))

	acct, ok, err := s.LoadAccount("SIM-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, acct.Cash.Equal(dec("900.00")))
	assert.True(t, acct.TotalValue.Equal(dec("995.00")))
}
