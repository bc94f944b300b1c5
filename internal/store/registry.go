package store

import (
	"sync"

	"github.com/Matswm86/Core/internal/domain"
)

// Registry owns all Slots, keyed by (symbol,timeframe), creating them
// lazily on first observation. Registry itself only guards slot
// creation/lookup; mutation of an individual Slot's contents is the
// exclusive responsibility of whichever goroutine holds that
// (symbol,timeframe)'s orchestrator lock.
type Registry struct {
	mu sync.RWMutex
	slots map[key]*Slot
}

type key struct {
	symbol string
	tf domain.Timeframe
}

func NewRegistry() *Registry {
	return &Registry{slots: make(map[key]*Slot)}
}

// Slot returns the slot for (symbol,tf), creating it if absent.
func (r *Registry) Slot(symbol string, tf domain.Timeframe) *Slot {
	k := key{symbol, tf}

	r.mu.RLock()
	s, ok := r.slots[k]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.slots[k]; ok {
		return s
	}
	s = NewSlot(symbol, tf)
	r.slots[k] = s
	return s
}

// Symbols returns the distinct symbols with at least one slot.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for k := range r.slots {
		if !seen[k.symbol] {
			seen[k.symbol] = true
			out = append(out, k.symbol)
		}
	}
	return out
}

// PushBar is the C2 contract op: push_bar(symbol, tf, Bar) -> Result.
func (r *Registry) PushBar(symbol string, tf domain.Timeframe, bar domain.Bar) PushResult {
	return r.Slot(symbol, tf).Bars.Push(bar)
}
