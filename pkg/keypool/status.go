package keypool

import (
	"time"

	"github.com/harunnryd/chimera/pkg/redact"
)

// State is the operational state of a pooled credential.
type State int

const (
	StateEligible State = iota
	StateCooling
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateEligible:
		return "eligible"
	case StateCooling:
		return "cooling"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// KeyStatus is one key's read-only view for the status surface. The
// credential is masked down to its tail.
type KeyStatus struct {
	Key            string
	State          State
	NextEligibleIn time.Duration
	Failures       int
}

// PoolStatus aggregates the snapshot for introspection by the CLI layer.
type PoolStatus struct {
	Total    int
	Eligible int
	Cooling  int
	Disabled int
	Keys     []KeyStatus
}

// Snapshot returns the current state of every key without mutating anything.
func (p *Pool) Snapshot() PoolStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.cfg.Now()
	status := PoolStatus{Total: len(p.keys), Keys: make([]KeyStatus, 0, len(p.keys))}
	for _, k := range p.keys {
		ks := KeyStatus{
			Key:      redact.KeyTail(k.credential),
			Failures: k.failures,
		}
		switch {
		case now.Before(k.disabledUntil):
			ks.State = StateDisabled
			ks.NextEligibleIn = k.nextEligible().Sub(now)
			status.Disabled++
		case now.Before(k.cooldownUntil):
			ks.State = StateCooling
			ks.NextEligibleIn = k.cooldownUntil.Sub(now)
			status.Cooling++
		default:
			ks.State = StateEligible
			status.Eligible++
		}
		status.Keys = append(status.Keys, ks)
	}
	return status
}
