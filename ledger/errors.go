package ledger

import "errors"

// Business-rule refusals. These are not exceptions: the caller receives a
// typed refusal and simply does not trade.
var (
	ErrInsufficientCash  = errors.New("ledger: insufficient cash")
	ErrDuplicatePosition = errors.New("ledger: position already open")
	ErrNoOpenPosition    = errors.New("ledger: no open position")
)

// ErrTransactionFailed reports that the store could not apply a fill. The
// in-memory ledger is left exactly as it was, but because persistence can
// no longer be trusted to match it, trading is halted until ClearHalt.
var ErrTransactionFailed = errors.New("ledger: transaction failed")

// ErrHalted rejects all mutations after a transaction failure, pending
// manual review.
var ErrHalted = errors.New("ledger: trading halted pending manual review")
