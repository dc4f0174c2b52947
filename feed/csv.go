package feed

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/rustyeddy/falcon/market"
)

// CSVSource reads canonical bar CSV rows:
//
//	symbol,time,open,high,low,close,volume
//
// where time is RFC3339 or RFC3339Nano. A header row ("symbol,...") is
// allowed, empty and short rows are skipped, and files ending in .gz or
// .xz are decompressed transparently.
//
// It optionally filters bars to [From, To) if provided.
type CSVSource struct {
	f    *os.File
	r    *csv.Reader
	from time.Time
	to   time.Time

	sawFirst bool
}

func NewCSVSource(path string, from, to time.Time) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var src io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		src = gz
	case strings.HasSuffix(path, ".xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		src = xr
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	return &CSVSource{f: f, r: r, from: from, to: to}, nil
}

func (s *CSVSource) Close() error {
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}

func (s *CSVSource) Next() (market.Bar, bool, error) {
	for {
		row, err := s.r.Read()
		if err == io.EOF {
			return market.Bar{}, false, nil
		}
		if err != nil {
			return market.Bar{}, false, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !s.sawFirst {
			s.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "symbol") {
				continue
			}
		}

		b, ok, err := parseBarRow(row)
		if err != nil {
			return market.Bar{}, false, err
		}
		if !ok {
			continue
		}
		if !inRange(b.Time, s.from, s.to) {
			continue
		}
		return b, true, nil
	}
}

func parseBarRow(row []string) (market.Bar, bool, error) {
	// Need at least: symbol,time,open,high,low,close
	if len(row) < 6 {
		return market.Bar{}, false, nil
	}

	sym := strings.TrimSpace(row[0])
	if sym == "" {
		return market.Bar{}, false, nil
	}

	ts := strings.TrimSpace(row[1])
	if ts == "" {
		return market.Bar{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, ts)
		if err2 != nil {
			return market.Bar{}, false, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = t2
	}

	var ohlc [4]float64
	for i, name := range []string{"open", "high", "low", "close"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[2+i]), 64)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("bad %s %q: %w", name, row[2+i], err)
		}
		ohlc[i] = v
	}

	var vol float64
	if len(row) > 6 && strings.TrimSpace(row[6]) != "" {
		vol, err = strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("bad volume %q: %w", row[6], err)
		}
	}

	return market.Bar{
		Symbol: sym,
		Time:   t,
		Open:   ohlc[0],
		High:   ohlc[1],
		Low:    ohlc[2],
		Close:  ohlc[3],
		Volume: vol,
	}, true, nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
