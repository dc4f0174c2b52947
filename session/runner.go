package session

import (
	"context"
	"time"

	"github.com/rustyeddy/falcon/detector"
	"github.com/rustyeddy/falcon/engine"
	"github.com/rustyeddy/falcon/feed"
	"github.com/rustyeddy/falcon/ledger"
)

// Runner drains a bar source into per-symbol sessions, creating a
// session the first time a symbol appears. When the source ends it
// flattens whatever is still open and runs a final reconciliation.
type Runner struct {
	detCfg   detector.Config
	eng      *engine.Engine
	rec      *ledger.Reconciler
	interval time.Duration

	sessions map[string]*Session
}

func NewRunner(detCfg detector.Config, eng *engine.Engine, rec *ledger.Reconciler, interval time.Duration) *Runner {
	return &Runner{
		detCfg:   detCfg,
		eng:      eng,
		rec:      rec,
		interval: interval,
		sessions: make(map[string]*Session),
	}
}

// Sessions returns a copy of the sessions created so far, keyed by symbol.
func (r *Runner) Sessions() map[string]*Session {
	out := make(map[string]*Session, len(r.sessions))
	for sym, sess := range r.sessions {
		out[sym] = sess
	}
	return out
}

func (r *Runner) Run(ctx context.Context, src feed.Source) error {
	if r.rec != nil && r.interval > 0 {
		recCtx, stop := context.WithCancel(ctx)
		defer stop()
		go r.rec.Run(recCtx, r.interval)
	}

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return r.finish(last)
		default:
		}

		bar, ok, err := src.Next()
		if err != nil {
			return err
		}
		if !ok {
			return r.finish(last)
		}
		last = bar.Time

		sess, found := r.sessions[bar.Symbol]
		if !found {
			sess = New(bar.Symbol, r.detCfg, r.eng)
			r.sessions[bar.Symbol] = sess
		}
		if err := sess.OnBar(bar); err != nil {
			return err
		}
	}
}

func (r *Runner) finish(last time.Time) error {
	if last.IsZero() {
		last = time.Now()
	}
	if _, err := r.eng.CloseAll(last, "EndOfFeed"); err != nil {
		return err
	}
	if r.rec != nil {
		if _, err := r.rec.Reconcile(); err != nil {
			return err
		}
	}
	return nil
}
