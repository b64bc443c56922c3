// Package ledger keeps the durable record of API spend: all-time and
// per-category counters, a capped most-recent-first interaction log,
// an optional baseline for "spend since" reporting, and a manual
// adjustment offset.
package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shopwise/advisor/internal/domain"
	"github.com/shopwise/advisor/internal/observability"
)

// HistoryCap bounds the display log. Insertion past the cap evicts the
// oldest entry.
const HistoryCap = 20

// CategoryTotals aggregates one category's spend.
type CategoryTotals struct {
	Calls int64   `json:"calls"`
	Cost  float64 `json:"cost"`
}

// Baseline is a user-set reference spend amount.
type Baseline struct {
	Amount float64   `json:"amount"`
	SetAt  time.Time `json:"setAt"`
}

// State is the persisted ledger document.
type State struct {
	TotalCost  float64                            `json:"totalCost"`
	TotalCalls int64                              `json:"totalCalls"`
	Categories map[domain.Category]CategoryTotals `json:"categories"`
	Baseline   *Baseline                          `json:"baseline,omitempty"`
	Adjustment float64                            `json:"adjustment"`
	History    []domain.UsageRecord               `json:"history"`
}

// Snapshot is the read-only aggregate view exposed for display.
type Snapshot struct {
	TotalCost          float64                            `json:"totalCost"`
	TotalCalls         int64                              `json:"totalCalls"`
	Categories         map[domain.Category]CategoryTotals `json:"categories"`
	Baseline           *Baseline                          `json:"baseline,omitempty"`
	Adjustment         float64                            `json:"adjustment"`
	SpentSinceBaseline *float64                           `json:"spentSinceBaseline,omitempty"`
	RemainingCredit    *float64                           `json:"remainingCredit,omitempty"`
	History            []domain.UsageRecord               `json:"history"`
}

// Store persists ledger state. A nil state from Load means no prior
// state exists.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}

// Ledger is the one piece of mutable shared state reachable from
// concurrent capability calls. All mutation is funneled through a
// single mutex-guarded path so counter increments, history appends and
// persistence cannot interleave.
type Ledger struct {
	mu          sync.Mutex
	store       Store
	state       State
	creditLimit float64 // zero means no limit configured
}

// New creates a ledger, loading any persisted state from the store.
// A load failure starts from zero state; billing accuracy is secondary
// to core functionality.
func New(ctx context.Context, store Store, creditLimit float64) *Ledger {
	l := &Ledger{
		store:       store,
		creditLimit: creditLimit,
		state:       State{Categories: make(map[domain.Category]CategoryTotals)},
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		observability.FromContext(ctx).Warn("ledger load failed, starting from zero state",
			zap.Error(err))
		return l
	}
	if loaded != nil {
		l.state = *loaded
		if l.state.Categories == nil {
			l.state.Categories = make(map[domain.Category]CategoryTotals)
		}
		if len(l.state.History) > HistoryCap {
			l.state.History = l.state.History[:HistoryCap]
		}
	}

	return l
}

// Record appends one usage record: history insertion (most recent
// first, oldest evicted past the cap), counter increments and
// persistence happen under one lock acquisition.
func (l *Ledger) Record(ctx context.Context, rec domain.UsageRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.History = append([]domain.UsageRecord{rec}, l.state.History...)
	if len(l.state.History) > HistoryCap {
		l.state.History = l.state.History[:HistoryCap]
	}

	l.state.TotalCost += rec.Cost
	l.state.TotalCalls++

	totals := l.state.Categories[rec.Category]
	totals.Calls++
	totals.Cost += rec.Cost
	l.state.Categories[rec.Category] = totals

	l.persist(ctx)
}

// Reset atomically zeroes all counters, clears baseline and adjustment
// state and empties the history. This is the only operation permitted
// to decrease any counter.
func (l *Ledger) Reset(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = State{Categories: make(map[domain.Category]CategoryTotals)}
	l.persist(ctx)
}

// SetBaseline stores a reference spend amount with a timestamp for
// "spend since baseline" reporting. A zero amount snapshots current
// spend. All-time totals are unaffected.
func (l *Ledger) SetBaseline(ctx context.Context, amount float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if amount == 0 {
		amount = l.state.TotalCost + l.state.Adjustment
	}
	l.state.Baseline = &Baseline{Amount: amount, SetAt: time.Now()}
	l.persist(ctx)
}

// Adjust shifts the manual adjustment offset by delta, for spend made
// outside this subsystem.
func (l *Ledger) Adjust(ctx context.Context, delta float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.Adjustment += delta
	l.persist(ctx)
}

// TrimHistory shrinks the display log to at most keep entries. It is
// the explicit, user-initiated trimming path and never touches the
// aggregate counters.
func (l *Ledger) TrimHistory(ctx context.Context, keep int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	if len(l.state.History) > keep {
		l.state.History = l.state.History[:keep]
	}
	l.persist(ctx)
}

// Snapshot returns a copy of the ledger for display. The history slice
// is copied so callers cannot observe later mutations.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	categories := make(map[domain.Category]CategoryTotals, len(l.state.Categories))
	for category, totals := range l.state.Categories {
		categories[category] = totals
	}

	history := make([]domain.UsageRecord, len(l.state.History))
	copy(history, l.state.History)

	snap := Snapshot{
		TotalCost:  l.state.TotalCost,
		TotalCalls: l.state.TotalCalls,
		Categories: categories,
		Adjustment: l.state.Adjustment,
		History:    history,
	}

	spend := l.state.TotalCost + l.state.Adjustment

	if l.state.Baseline != nil {
		baseline := *l.state.Baseline
		snap.Baseline = &baseline
		since := spend - baseline.Amount
		snap.SpentSinceBaseline = &since
	}

	if l.creditLimit > 0 {
		remaining := l.creditLimit - spend
		snap.RemainingCredit = &remaining
	}

	return snap
}

// persist saves state under the held lock. Persistence failures are
// logged and skipped; they never fail the capability call that
// produced the record.
func (l *Ledger) persist(ctx context.Context) {
	if err := l.store.Save(ctx, &l.state); err != nil {
		observability.FromContext(ctx).Warn("ledger persistence failed, update kept in memory",
			zap.Error(err))
	}
}
