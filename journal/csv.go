package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal is an event-log Store: fills and performance rows stream to
// CSV files while the mutable position/account state is kept in memory.
// Suited to one-shot backtests where the artifacts of interest are the
// fill history and the equity curve.
type CSVJournal struct {
	mem   *Memory
	fills *csv.Writer
	perf  *csv.Writer
	ff    *os.File
	pf    *os.File
}

var _ Store = (*CSVJournal)(nil)

func NewCSV(fillsPath, performancePath string) (*CSVJournal, error) {
	ff, err := os.Create(fillsPath)
	if err != nil {
		return nil, err
	}
	pf, err := os.Create(performancePath)
	if err != nil {
		ff.Close()
		return nil, err
	}

	fw := csv.NewWriter(ff)
	pw := csv.NewWriter(pf)

	if err := fw.Write([]string{"fill_id", "order_id", "symbol", "side", "quantity", "price", "commission", "cash_delta", "realized_pl", "stop_price", "target_price", "time", "reason"}); err != nil {
		return nil, err
	}
	if err := pw.Write([]string{"time", "total_value", "cash", "positions_value"}); err != nil {
		return nil, err
	}

	fw.Flush()
	if err := fw.Error(); err != nil {
		return nil, err
	}
	pw.Flush()
	if err := pw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{mem: NewMemory(), fills: fw, perf: pw, ff: ff, pf: pf}, nil
}

func (j *CSVJournal) Apply(mut Mutation) error {
	if err := j.mem.Apply(mut); err != nil {
		return err
	}
	f := mut.Fill
	if err := j.fills.Write([]string{
		f.ID,
		f.OrderID,
		f.Symbol,
		f.Side.String(),
		ffmt(f.Quantity),
		ffmt(f.Price),
		f.Commission.StringFixed(2),
		f.CashDelta.StringFixed(2),
		f.RealizedPL.StringFixed(2),
		ffmt(f.StopPrice),
		ffmt(f.TargetPrice),
		f.Time.Format(time.RFC3339),
		f.Reason,
	}); err != nil {
		return err
	}
	j.fills.Flush()
	return j.fills.Error()
}

func (j *CSVJournal) SaveAccount(a Account) error {
	return j.mem.SaveAccount(a)
}

func (j *CSVJournal) RecordPerformance(rec PerformanceRecord) error {
	if err := j.mem.RecordPerformance(rec); err != nil {
		return err
	}
	if err := j.perf.Write([]string{
		rec.Time.Format(time.RFC3339),
		rec.TotalValue.StringFixed(2),
		rec.Cash.StringFixed(2),
		rec.PositionsValue.StringFixed(2),
	}); err != nil {
		return err
	}
	j.perf.Flush()
	return j.perf.Error()
}

func (j *CSVJournal) Close() error {
	j.fills.Flush()
	if err := j.fills.Error(); err != nil {
		return err
	}
	j.perf.Flush()
	if err := j.perf.Error(); err != nil {
		return err
	}

	if err := j.ff.Close(); err != nil {
		return err
	}
	return j.pf.Close()
}

func ffmt(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
