// Package ledger is the single source of truth for cash, positions and
// derived equity. Every fill is applied as one atomic transaction; all
// other components read balances through it and none of them write.
package ledger

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/falcon/journal"
	"github.com/rustyeddy/falcon/market"
)

// Ledger serializes all balance mutations behind one mutex. Fills for
// different symbols may arrive from concurrent sessions; they are applied
// one at a time and never interleave partially.
type Ledger struct {
	mu        sync.Mutex
	account   journal.Account
	positions map[string]*journal.Position
	store     journal.Store

	initialCash decimal.Decimal
	halted      bool
}

// New creates a ledger seeded with initialCash and persists the opening
// account row.
func New(accountID string, initialCash decimal.Decimal, store journal.Store) (*Ledger, error) {
	l := &Ledger{
		account: journal.Account{
			ID:         accountID,
			Cash:       initialCash,
			TotalValue: initialCash,
		},
		positions:   make(map[string]*journal.Position),
		store:       store,
		initialCash: initialCash,
	}
	if err := store.SaveAccount(l.account); err != nil {
		return nil, fmt.Errorf("save opening account: %w", err)
	}
	return l, nil
}

// Loader is implemented by stores that can read back a previously
// persisted session.
type Loader interface {
	LoadAccount(id string) (journal.Account, bool, error)
	LoadPositions() (map[string]journal.Position, error)
}

// Resume rebuilds a ledger from the store's persisted account and
// position table, so a restarted session carries on from the last
// balance instead of reseeding. When the store cannot load or holds no
// account row yet, Resume falls back to New with initialCash.
func Resume(accountID string, initialCash decimal.Decimal, store journal.Store) (*Ledger, error) {
	loader, ok := store.(Loader)
	if !ok {
		return New(accountID, initialCash, store)
	}

	acct, found, err := loader.LoadAccount(accountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !found {
		return New(accountID, initialCash, store)
	}

	persisted, err := loader.LoadPositions()
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}

	l := &Ledger{
		account:     acct,
		positions:   make(map[string]*journal.Position, len(persisted)),
		store:       store,
		initialCash: initialCash,
	}
	for sym, pos := range persisted {
		p := pos
		l.positions[sym] = &p
	}
	return l, nil
}

// ApplyFill applies one fill atomically: cash, the position table and the
// persisted state change together or not at all. The returned fill carries
// the cash delta and, for exits, the realized P&L stamped by the ledger.
func (l *Ledger) ApplyFill(f journal.Fill) (journal.Fill, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.halted {
		return journal.Fill{}, ErrHalted
	}
	if f.Quantity <= 0 || f.Price <= 0 {
		return journal.Fill{}, fmt.Errorf("ledger: invalid fill %s qty=%v price=%v", f.Symbol, f.Quantity, f.Price)
	}

	qty := decimal.NewFromFloat(f.Quantity)
	price := decimal.NewFromFloat(f.Price)
	notional := qty.Mul(price).Round(2)

	switch f.Side {
	case market.Buy:
		return l.applyEntry(f, notional)
	case market.Sell:
		return l.applyExit(f, qty, price, notional)
	default:
		return journal.Fill{}, fmt.Errorf("ledger: unknown side %v", f.Side)
	}
}

func (l *Ledger) applyEntry(f journal.Fill, notional decimal.Decimal) (journal.Fill, error) {
	if _, open := l.positions[f.Symbol]; open {
		return journal.Fill{}, fmt.Errorf("%w: %s", ErrDuplicatePosition, f.Symbol)
	}

	f.CashDelta = notional.Add(f.Commission).Neg()
	f.RealizedPL = decimal.Zero

	newCash := l.account.Cash.Add(f.CashDelta)
	if newCash.IsNegative() {
		return journal.Fill{}, fmt.Errorf("%w: need %s, have %s",
			ErrInsufficientCash, f.CashDelta.Neg(), l.account.Cash)
	}

	pos := journal.Position{
		Symbol:          f.Symbol,
		Quantity:        f.Quantity,
		EntryPrice:      f.Price,
		StopPrice:       f.StopPrice,
		TargetPrice:     f.TargetPrice,
		CurrentPrice:    f.Price,
		EntryCommission: f.Commission,
		OpenedAt:        f.Time,
	}

	acct := l.account
	acct.Cash = newCash

	// Persist first; memory is only mutated once the store has committed.
	if err := l.store.Apply(journal.Mutation{Fill: f, Position: &pos, Account: acct}); err != nil {
		l.halted = true
		return journal.Fill{}, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	l.account = acct
	p := pos
	l.positions[f.Symbol] = &p
	return f, nil
}

func (l *Ledger) applyExit(f journal.Fill, qty, price, notional decimal.Decimal) (journal.Fill, error) {
	pos, open := l.positions[f.Symbol]
	if !open {
		return journal.Fill{}, fmt.Errorf("%w: %s", ErrNoOpenPosition, f.Symbol)
	}
	if f.Quantity != pos.Quantity {
		return journal.Fill{}, fmt.Errorf("ledger: exit quantity %v does not match open position %v for %s",
			f.Quantity, pos.Quantity, f.Symbol)
	}

	f.CashDelta = notional.Sub(f.Commission)

	entry := decimal.NewFromFloat(pos.EntryPrice)
	gross := price.Sub(entry).Mul(qty).Round(2)
	f.RealizedPL = gross.Sub(f.Commission).Sub(pos.EntryCommission)

	acct := l.account
	acct.Cash = l.account.Cash.Add(f.CashDelta)

	if err := l.store.Apply(journal.Mutation{Fill: f, Removed: f.Symbol, Account: acct}); err != nil {
		l.halted = true
		return journal.Fill{}, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	l.account = acct
	delete(l.positions, f.Symbol)
	return f, nil
}

// MarkToMarket updates a position's latest price. It never touches cash,
// and the cached total_value is only rewritten by reconciliation so the
// two writers cannot race.
func (l *Ledger) MarkToMarket(symbol string, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if pos, ok := l.positions[symbol]; ok {
		pos.CurrentPrice = price
	}
}

// Snapshot returns a copy of the account record as currently stored.
func (l *Ledger) Snapshot() journal.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account.Cash
}

// Position returns a copy of the open position for symbol, if any.
func (l *Ledger) Position(symbol string) (journal.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok {
		return journal.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions.
func (l *Ledger) Positions() []journal.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]journal.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	return out
}

// InitialCash returns the session's opening capital.
func (l *Ledger) InitialCash() decimal.Decimal { return l.initialCash }

// Halted reports whether a transaction failure has stopped trading.
func (l *Ledger) Halted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.halted
}

// ClearHalt re-enables trading after manual review of a transaction
// failure.
func (l *Ledger) ClearHalt() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.halted = false
}
