package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned by Do when the breaker refuses a call.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State represents the current breaker state.
type State int

const (
	// Closed accepts all calls and tracks failures.
	Closed State = iota
	// Open rejects calls until the cool-off period expires.
	Open
	// HalfOpen lets a single trial call through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// Target labels metrics and logs, e.g. "quote_cache".
	Target       string
	MinRequests  int
	FailureRatio float64
	OpenFor      time.Duration
	Logger       zerolog.Logger
	Now          func() time.Time
}

// Breaker is a failure-ratio circuit breaker guarding an optional dependency.
type Breaker struct {
	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	probing      bool
	openedAt     time.Time
	minRequests  int
	failureRatio float64
	openFor      time.Duration
	target       string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewBreaker constructs a closed breaker. Zero values fall back to five
// requests, a 0.5 failure ratio and a 30s cool-off.
func NewBreaker(cfg BreakerConfig) *Breaker {
	b := &Breaker{
		minRequests:  cfg.MinRequests,
		failureRatio: cfg.FailureRatio,
		openFor:      cfg.OpenFor,
		target:       strings.TrimSpace(cfg.Target),
		logger:       cfg.Logger,
		now:          cfg.Now,
	}
	if b.minRequests <= 0 {
		b.minRequests = 5
	}
	if b.failureRatio <= 0 || b.failureRatio > 1 {
		b.failureRatio = 0.5
	}
	if b.openFor <= 0 {
		b.openFor = 30 * time.Second
	}
	if b.target == "" {
		b.target = "default"
	}
	if b.now == nil {
		b.now = time.Now
	}
	b.recordStateLocked()
	return b
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed. Once the cool-off has elapsed an
// open breaker admits one trial call and moves to half-open.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.openFor {
			return false
		}
		b.changeStateLocked(ctx, HalfOpen)
		b.probing = true
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// Report records the outcome of an admitted call.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		return
	case HalfOpen:
		b.probing = false
		if success {
			b.changeStateLocked(ctx, Closed)
		} else {
			b.changeStateLocked(ctx, Open)
		}
		return
	}

	if success {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.minRequests {
		return
	}
	if float64(b.failures)/float64(total) >= b.failureRatio {
		b.changeStateLocked(ctx, Open)
		return
	}
	if total > b.minRequests*2 {
		b.successes = (b.successes + 1) / 2
		b.failures = (b.failures + 1) / 2
	}
}

// Do runs fn when the breaker admits the call and reports its outcome.
// Context cancellation by the caller is not counted as a failure.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if !b.Allow(ctx) {
		return ErrOpenCircuit
	}
	err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		b.mu.Lock()
		b.probing = false
		b.mu.Unlock()
		return err
	}
	b.Report(ctx, err == nil)
	return err
}

func (b *Breaker) changeStateLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	switch next {
	case Open:
		b.openedAt = b.now()
	case Closed:
		b.openedAt = time.Time{}
	}
	b.failures = 0
	b.successes = 0
	b.recordStateLocked()
	b.recordTransition(ctx, prev, next)
}

func (b *Breaker) recordStateLocked() {
	if BreakerState != nil {
		BreakerState.WithLabelValues(b.target).Set(float64(b.state))
	}
}

func (b *Breaker) recordTransition(ctx context.Context, from, to State) {
	if BreakerTransitions != nil {
		BreakerTransitions.WithLabelValues(b.target, from.String(), to.String()).Inc()
	}
	evt := b.logger.Warn()
	if to == Closed {
		evt = b.logger.Info()
	}
	evt = evt.Str("target", b.target).Str("from_state", from.String()).Str("to_state", to.String())
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		evt = evt.Str("trace_id", sc.TraceID().String())
	}
	evt.Msg("breaker_transition")
}
