package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Outcome is how one admitted exchange counts against the tunnel.
type Outcome int

const (
	// OutcomeSuccess: the tunnel answered, whatever it answered.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure: the tunnel could not be reached or is unavailable.
	OutcomeFailure
	// OutcomeIgnored: the exchange says nothing about the tunnel, e.g. the
	// caller canceled it. It neither counts nor resets a streak.
	OutcomeIgnored
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// Probes is how many exchanges half-open admits, and how many must
	// succeed before the breaker closes again.
	Probes uint32
	// Window clears the closed-state counts periodically.
	Window time.Duration
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// ReadyToTrip is consulted after each failure in closed state.
	ReadyToTrip func(counts Counts) bool
	// OnStateChange is called whenever the state changes, under the lock.
	OnStateChange func(name string, from State, to State)
}

// Counts holds the statistics for the current window
type Counts struct {
	Successes            uint32
	Failures             uint32
	Ignored              uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Breaker guards the tunnel endpoint. Callers ask Allow before an exchange
// and report its Outcome afterwards.
type Breaker struct {
	name     string
	settings Settings

	mu         sync.Mutex
	state      State
	counts     Counts
	generation uint64
	expiry     time.Time
	inFlight   uint32 // half-open probes not yet reported
}

// New creates a new circuit breaker with the given settings
func New(name string, settings Settings) *Breaker {
	if settings.Probes == 0 {
		settings.Probes = 1
	}
	if settings.Window == 0 {
		settings.Window = 60 * time.Second
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 60 * time.Second
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(counts Counts) bool {
			return counts.ConsecutiveFailures > 5
		}
	}

	return &Breaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
		expiry:   time.Now().Add(settings.Window),
	}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance(time.Now())
	return b.state
}

// Counts returns a copy of the current window's counts
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.counts
}

// Allow admits one exchange. The returned report must be called exactly
// once with the exchange's outcome; later calls are no-ops. Reports from a
// previous state generation are discarded.
func (b *Breaker) Allow() (report func(Outcome), err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance(time.Now())
	switch b.state {
	case StateOpen:
		return nil, ErrCircuitOpen
	case StateHalfOpen:
		if b.inFlight+b.counts.ConsecutiveSuccesses >= b.settings.Probes {
			return nil, ErrTooManyRequests
		}
		b.inFlight++
	}

	generation := b.generation
	var once sync.Once
	return func(o Outcome) {
		once.Do(func() { b.record(generation, o) })
	}, nil
}

func (b *Breaker) record(generation uint64, o Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.advance(now)
	if generation != b.generation {
		return
	}
	if b.state == StateHalfOpen && b.inFlight > 0 {
		b.inFlight--
	}

	switch o {
	case OutcomeSuccess:
		b.counts.Successes++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
		if b.state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.Probes {
			b.setState(StateClosed, now)
		}
	case OutcomeFailure:
		b.counts.Failures++
		b.counts.ConsecutiveFailures++
		b.counts.ConsecutiveSuccesses = 0
		if b.state == StateHalfOpen || b.settings.ReadyToTrip(b.counts) {
			b.setState(StateOpen, now)
		}
	default:
		b.counts.Ignored++
	}
}

// advance applies time-based transitions: the closed window rolls over and
// an expired cooldown moves open to half-open.
func (b *Breaker) advance(now time.Time) {
	switch b.state {
	case StateClosed:
		if b.expiry.Before(now) {
			b.counts = Counts{}
			b.expiry = now.Add(b.settings.Window)
		}
	case StateOpen:
		if b.expiry.Before(now) {
			b.setState(StateHalfOpen, now)
		}
	}
}

func (b *Breaker) setState(state State, now time.Time) {
	if b.state == state {
		return
	}

	prev := b.state
	b.state = state
	b.generation++
	b.counts = Counts{}
	b.inFlight = 0

	switch state {
	case StateClosed:
		b.expiry = now.Add(b.settings.Window)
	case StateOpen:
		b.expiry = now.Add(b.settings.Cooldown)
	case StateHalfOpen:
		b.expiry = time.Time{}
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}
