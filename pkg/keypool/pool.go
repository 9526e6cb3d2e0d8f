package keypool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/chimera/pkg/errorsx"
	"github.com/harunnryd/chimera/pkg/metrics"
	"github.com/harunnryd/chimera/pkg/redact"
)

// ErrNoAvailableKey is returned when every key is cooling or disabled and no
// key can become eligible within the acquire bound.
var ErrNoAvailableKey = errors.New("no api key available")

// ErrEmptyPool is a fatal configuration error: rotation needs at least one
// credential.
var ErrEmptyPool = errors.New("key pool is empty")

// FailureKind classifies a reported outbound failure.
type FailureKind int

const (
	FailureOther FailureKind = iota
	FailureRateLimit
	FailureNetwork
)

// Config carries the rotation knobs. Now and Sleep are injectable for tests;
// nil means the real clock.
type Config struct {
	// Window is the mandatory idle period after each use of a key.
	Window time.Duration
	// FailureThreshold is the consecutive-failure count that disables a key.
	FailureThreshold int
	// RecoveryPeriod is how long a disabled key stays out of rotation.
	RecoveryPeriod time.Duration
	// MaxWait bounds how long Acquire may block waiting for eligibility.
	MaxWait time.Duration
	// RateLimitBackoff extends a key's cooldown after a rate-limited failure,
	// absorbing server-side backoff windows.
	RateLimitBackoff time.Duration

	Now   func() time.Time
	Sleep func(time.Duration)
}

func (c *Config) applyDefaults() {
	if c.Window <= 0 {
		c.Window = 15 * time.Second
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.RecoveryPeriod <= 0 {
		c.RecoveryPeriod = 2 * time.Minute
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 60 * time.Second
	}
	if c.RateLimitBackoff <= 0 {
		c.RateLimitBackoff = 30 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

type key struct {
	credential    string
	lastUsed      time.Time
	cooldownUntil time.Time
	disabledUntil time.Time
	failures      int
}

func (k *key) nextEligible() time.Time {
	if k.disabledUntil.After(k.cooldownUntil) {
		return k.disabledUntil
	}
	return k.cooldownUntil
}

func (k *key) eligibleAt(now time.Time) bool {
	return !now.Before(k.nextEligible())
}

// Lease is the value handed out by Acquire and passed back when reporting
// the call outcome.
type Lease struct {
	Credential string
	index      int
}

// Pool owns the ordered credential list, the per-key cooldown and disable
// timers, and the rotation cursor. All state is guarded by one mutex;
// Acquire never sleeps while holding it.
type Pool struct {
	mu     sync.Mutex
	keys   []*key
	cursor int
	cfg    Config
	logger *slog.Logger
	obs    metrics.Observer
}

func New(credentials []string, cfg Config, logger *slog.Logger) (*Pool, error) {
	if len(credentials) == 0 {
		return nil, errorsx.Wrap(ErrEmptyPool, errorsx.ReasonConfigInvalid)
	}
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	keys := make([]*key, 0, len(credentials))
	for _, cred := range credentials {
		keys = append(keys, &key{credential: cred})
	}
	logger.Info("key_pool_initialized", "keys", len(keys), "window", cfg.Window)
	return &Pool{keys: keys, cfg: cfg, logger: logger, obs: metrics.NoopObserver{}}, nil
}

func (p *Pool) SetObserver(obs metrics.Observer) {
	if obs != nil {
		p.obs = obs
	}
}

// Acquire returns the next eligible key in round-robin order and immediately
// starts its cooldown window. When no key is eligible it blocks, outside the
// lock, until the earliest upcoming eligibility; if that moment lies beyond
// the acquire bound (MaxWait, or the context deadline if sooner) it fails
// with ErrNoAvailableKey instead of waiting.
func (p *Pool) Acquire(ctx context.Context) (Lease, error) {
	deadline := p.cfg.Now().Add(p.cfg.MaxWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	for {
		if err := ctx.Err(); err != nil {
			return Lease{}, err
		}
		lease, wait, ok := p.tryAcquire()
		if ok {
			return lease, nil
		}
		now := p.cfg.Now()
		if now.Add(wait).After(deadline) {
			p.obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventKeyExhausted, Time: now})
			p.logger.Warn("key_pool_exhausted", "next_eligible_in", wait, "max_wait", p.cfg.MaxWait)
			return Lease{}, errorsx.Wrap(ErrNoAvailableKey, errorsx.ReasonKeyExhausted)
		}
		if err := p.waitStep(ctx, capWait(wait)); err != nil {
			return Lease{}, err
		}
	}
}

// tryAcquire scans from the rotation cursor under the lock. On a miss it
// reports how long until the earliest key becomes eligible.
func (p *Pool) tryAcquire() (Lease, time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.cfg.Now()
	n := len(p.keys)
	for i := 0; i < n; i++ {
		idx := (p.cursor + i) % n
		k := p.keys[idx]
		if !k.eligibleAt(now) {
			continue
		}
		if k.failures >= p.cfg.FailureThreshold {
			// Recovery period elapsed: the key rejoins rotation clean.
			k.failures = 0
		}
		k.lastUsed = now
		k.cooldownUntil = now.Add(p.cfg.Window)
		p.cursor = (idx + 1) % n
		p.obs.RecordEvent(metrics.MetricsEvent{
			Name: metrics.EventKeyAcquired,
			Time: now,
			Tags: map[string]string{"key": redact.KeyTail(k.credential)},
		})
		p.logger.Debug("key_acquired", "key", redact.KeyTail(k.credential), "cooldown_until", k.cooldownUntil)
		return Lease{Credential: k.credential, index: idx}, 0, true
	}
	earliest := p.keys[0].nextEligible()
	for _, k := range p.keys[1:] {
		if t := k.nextEligible(); t.Before(earliest) {
			earliest = t
		}
	}
	return Lease{}, earliest.Sub(now), false
}

// ReportSuccess clears the consecutive-failure count. The cooldown timer
// keeps running: success does not shorten the rate-limit window.
func (p *Pool) ReportSuccess(lease Lease) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if lease.index < 0 || lease.index >= len(p.keys) {
		return
	}
	p.keys[lease.index].failures = 0
}

// ReportFailure counts a failure against the leased key. Rate-limited
// failures extend the cooldown; at the threshold the key is disabled for the
// recovery period and automatically rejoins rotation afterwards.
func (p *Pool) ReportFailure(lease Lease, kind FailureKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if lease.index < 0 || lease.index >= len(p.keys) {
		return
	}
	now := p.cfg.Now()
	k := p.keys[lease.index]
	k.failures++
	if kind == FailureRateLimit {
		if extended := now.Add(p.cfg.RateLimitBackoff); extended.After(k.cooldownUntil) {
			k.cooldownUntil = extended
		}
	}
	if k.failures >= p.cfg.FailureThreshold {
		k.disabledUntil = now.Add(p.cfg.RecoveryPeriod)
		p.obs.RecordEvent(metrics.MetricsEvent{
			Name: metrics.EventKeyDisabled,
			Time: now,
			Tags: map[string]string{"key": redact.KeyTail(k.credential)},
		})
		p.logger.Warn("key_disabled",
			"key", redact.KeyTail(k.credential),
			"failures", k.failures,
			"recovery_until", k.disabledUntil)
		return
	}
	p.logger.Debug("key_failure_reported",
		"key", redact.KeyTail(k.credential),
		"failures", k.failures,
		"kind", int(kind))
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

func (p *Pool) waitStep(ctx context.Context, d time.Duration) error {
	if p.cfg.Sleep != nil {
		p.cfg.Sleep(d)
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// capWait keeps the wait granularity small so context cancellation and
// freshly recovered keys are noticed promptly.
func capWait(d time.Duration) time.Duration {
	const step = 500 * time.Millisecond
	if d <= 0 {
		return 50 * time.Millisecond
	}
	if d > step {
		return step
	}
	return d
}
