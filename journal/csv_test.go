package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/falcon/market"
)

func newTestCSV(t *testing.T) (*CSVJournal, string, string) {
	t.Helper()

	dir := t.TempDir()
	fillsPath := filepath.Join(dir, "fills.csv")
	perfPath := filepath.Join(dir, "performance.csv")

	j, err := NewCSV(fillsPath, perfPath)
	require.NoError(t, err)

	return j, fillsPath, perfPath
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	j, fillsPath, perfPath := newTestCSV(t)
	require.NoError(t, j.Close())

	fills := readCSV(t, fillsPath)
	perf := readCSV(t, perfPath)

	wantFills := []string{"fill_id", "order_id", "symbol", "side", "quantity", "price", "commission", "cash_delta", "realized_pl", "stop_price", "target_price", "time", "reason"}
	assert.Equal(t, wantFills, fills[0])

	wantPerf := []string{"time", "total_value", "cash", "positions_value"}
	assert.Equal(t, wantPerf, perf[0])
}

func TestCSVJournalRecordsFillsAndPerformance(t *testing.T) {
	t.Parallel()

	j, fillsPath, perfPath := newTestCSV(t)

	at := time.Date(2026, 1, 5, 9, 52, 0, 0, time.UTC)
	err := j.Apply(Mutation{
		Fill: Fill{
			ID: "F1", OrderID: "O1", Symbol: "TSLA", Side: market.Buy,
			Quantity: 4, Price: 50, Commission: dec("0.20"), CashDelta: dec("-200.20"),
			RealizedPL: decimal.Zero, Time: at, Reason: "Entry",
		},
		Position: &Position{Symbol: "TSLA", Quantity: 4, EntryPrice: 50,
			StopPrice: 49, TargetPrice: 52, CurrentPrice: 50,
			EntryCommission: dec("0.20"), OpenedAt: at},
		Account: Account{ID: "SIM-1", Cash: dec("799.80"), TotalValue: dec("1000.00")},
	})
	require.NoError(t, err)

	require.NoError(t, j.RecordPerformance(PerformanceRecord{
		Time: at.Add(5 * time.Minute), TotalValue: dec("1000.00"),
		Cash: dec("799.80"), PositionsValue: dec("200.20"),
	}))
	require.NoError(t, j.Close())

	fills := readCSV(t, fillsPath)
	require.Len(t, fills, 2)
	assert.Equal(t, "F1", fills[1][0])
	assert.Equal(t, "buy", fills[1][3])
	assert.Equal(t, "-200.20", fills[1][7])

	perf := readCSV(t, perfPath)
	require.Len(t, perf, 2)
	assert.Equal(t, "799.80", perf[1][2])

	// Position and account state are still queryable in memory.
	assert.Contains(t, j.mem.Positions(), "TSLA")
	assert.True(t, j.mem.Account().Cash.Equal(dec("799.80")))
}
