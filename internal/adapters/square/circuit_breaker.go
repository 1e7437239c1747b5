package square

import (
	"sync"
	"time"

	pkgerrors "github.com/kevin07696/square-checkout/pkg/errors"
)

// CircuitState represents the current state of the circuit breaker
type CircuitState int

const (
	// StateClosed - requests flow normally
	StateClosed CircuitState = iota
	// StateOpen - requests fail immediately
	StateOpen
	// StateHalfOpen - a limited number of probe requests test whether Square recovered
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures circuit breaker behavior
type CircuitBreakerConfig struct {
	// OnStateChange is called (outside the lock) after every transition
	OnStateChange func(from, to CircuitState)
	// Timeout is how long to stay open before probing
	Timeout time.Duration
	// MaxFailures is the number of consecutive transport failures before opening
	MaxFailures uint32
	// MaxRequestsHalfOpen is the number of concurrent probes allowed while half-open
	MaxRequestsHalfOpen uint32
}

// DefaultCircuitBreakerConfig returns the production defaults
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures:         5,
		Timeout:             30 * time.Second,
		MaxRequestsHalfOpen: 1,
	}
}

// CircuitBreaker stops calling Square after repeated transport failures
// Only transport-level errors count as failures: a declined card or a rejected order is a healthy answer
type CircuitBreaker struct {
	mu                  sync.Mutex
	config              CircuitBreakerConfig
	lastStateChangeTime time.Time
	now                 func() time.Time
	state               CircuitState
	failures            uint32
	requestsHalfOpen    uint32
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures == 0 {
		config.MaxFailures = DefaultCircuitBreakerConfig().MaxFailures
	}
	if config.MaxRequestsHalfOpen == 0 {
		config.MaxRequestsHalfOpen = 1
	}
	return &CircuitBreaker{
		config:              config,
		state:               StateClosed,
		lastStateChangeTime: time.Now(),
		now:                 time.Now,
	}
}

// Call executes fn if the circuit allows it
// A rejected call returns a transport *RequestError with code circuit_open
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}

	err := fn()
	cb.afterCall(isBreakerFailure(err))
	return err
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	var transition func()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastStateChangeTime) < cb.config.Timeout {
			cb.mu.Unlock()
			return circuitOpenError()
		}
		transition = cb.setState(StateHalfOpen)
		cb.requestsHalfOpen = 1

	case StateHalfOpen:
		if cb.requestsHalfOpen >= cb.config.MaxRequestsHalfOpen {
			cb.mu.Unlock()
			return circuitOpenError()
		}
		cb.requestsHalfOpen++
	}

	cb.mu.Unlock()
	if transition != nil {
		transition()
	}
	return nil
}

func (cb *CircuitBreaker) afterCall(failed bool) {
	cb.mu.Lock()
	var transition func()

	if failed {
		cb.failures++
		switch cb.state {
		case StateClosed:
			if cb.failures >= cb.config.MaxFailures {
				transition = cb.setState(StateOpen)
			}
		case StateHalfOpen:
			transition = cb.setState(StateOpen)
		}
	} else {
		switch cb.state {
		case StateHalfOpen:
			transition = cb.setState(StateClosed)
		case StateClosed:
			cb.failures = 0
		}
	}

	cb.mu.Unlock()
	if transition != nil {
		transition()
	}
}

// setState must be called with mu held; it returns the notification to run after unlocking
func (cb *CircuitBreaker) setState(newState CircuitState) func() {
	if cb.state == newState {
		return nil
	}

	from := cb.state
	cb.state = newState
	cb.lastStateChangeTime = cb.now()
	cb.failures = 0
	cb.requestsHalfOpen = 0

	if cb.config.OnStateChange == nil {
		return nil
	}
	notify := cb.config.OnStateChange
	return func() { notify(from, newState) }
}

// State returns the current circuit state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() uint32 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the circuit
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	transition := cb.setState(StateClosed)
	cb.mu.Unlock()
	if transition != nil {
		transition()
	}
}

func isBreakerFailure(err error) bool {
	if err == nil {
		return false
	}
	reqErr, ok := pkgerrors.AsRequestError(err)
	if !ok {
		return false
	}
	return reqErr.IsTransport() && reqErr.Code != pkgerrors.CodeCircuitOpen
}

func circuitOpenError() *pkgerrors.RequestError {
	return &pkgerrors.RequestError{
		Kind:      pkgerrors.KindTransport,
		Code:      pkgerrors.CodeCircuitOpen,
		Message:   "Square API temporarily unavailable",
		Category:  pkgerrors.CategoryNetworkError,
		Retriable: true,
	}
}
