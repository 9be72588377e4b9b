// Package readiness decides when the service under test may receive tests.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"itrun/internal/config"
	"itrun/pkg/logging"

	"github.com/cenkalti/backoff/v4"
)

// ErrServiceNotReady is wrapped when the service did not accept connections in time.
var ErrServiceNotReady = errors.New("service not ready")

// Gate blocks until the service is presumed able to accept requests.
type Gate interface {
	AwaitReady(ctx context.Context) error
}

// DelayGate treats the service as ready after a fixed warm-up interval.
// It never looks at the service's output or port.
type DelayGate struct {
	WarmUp time.Duration
}

// AwaitReady sleeps for the full warm-up interval.
func (g DelayGate) AwaitReady(ctx context.Context) error {
	logging.Debug("Readiness", "Waiting %v for the service to warm up", g.WarmUp)

	if g.WarmUp <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(g.WarmUp)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dialer opens a connection; *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ProbeGate dials the service over TCP until a connection succeeds,
// backing off exponentially between attempts.
type ProbeGate struct {
	Address        string
	Timeout        time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Alive reports whether the service process is still running. When it
	// returns false the gate fails without waiting for the timeout.
	Alive  func() bool
	Dialer Dialer
}

// AwaitReady returns nil on the first successful connection, or an error
// wrapping ErrServiceNotReady once the timeout elapses or the service exits.
func (g ProbeGate) AwaitReady(ctx context.Context) error {
	dialer := g.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	readyCtx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	initial := g.InitialBackoff
	if initial <= 0 {
		initial = config.DefaultInitialBackoff
	}
	maxInterval := g.MaxBackoff
	if maxInterval < initial {
		maxInterval = initial
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxInterval
	b.MaxElapsedTime = g.Timeout
	b.Multiplier = 2
	b.RandomizationFactor = 0

	attempt := 0
	var lastErr error
	probe := func() error {
		attempt++
		if g.Alive != nil && !g.Alive() {
			return backoff.Permanent(fmt.Errorf("%w: service exited before accepting connections on %s", ErrServiceNotReady, g.Address))
		}

		attemptCtx, attemptCancel := context.WithTimeout(readyCtx, time.Second)
		defer attemptCancel()
		conn, err := dialer.DialContext(attemptCtx, "tcp", g.Address)
		if err != nil {
			lastErr = err
			return err
		}
		conn.Close()
		return nil
	}
	notify := func(err error, next time.Duration) {
		logging.Debug("Readiness", "Port %s not ready yet, retrying in %v: %v", g.Address, next, err)
	}

	err := backoff.RetryNotify(probe, backoff.WithContext(b, readyCtx), notify)
	switch {
	case err == nil:
		logging.Debug("Readiness", "Service accepting connections on %s after %d attempt(s)", g.Address, attempt)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, ErrServiceNotReady):
		return err
	default:
		return fmt.Errorf("%w: no connection to %s within %v (%d attempts, last error: %v)",
			ErrServiceNotReady, g.Address, g.Timeout, attempt, lastErr)
	}
}

// New builds the gate selected by cfg.Mode for a service listening on address.
func New(cfg config.ReadinessConfig, address string, alive func() bool) (Gate, error) {
	switch cfg.Mode {
	case config.ReadinessDelay, "":
		return DelayGate{WarmUp: cfg.WarmUp}, nil
	case config.ReadinessProbe:
		return ProbeGate{
			Address:        address,
			Timeout:        cfg.Timeout,
			InitialBackoff: cfg.InitialBackoff,
			MaxBackoff:     cfg.MaxBackoff,
			Alive:          alive,
		}, nil
	default:
		return nil, fmt.Errorf("unknown readiness mode %q", cfg.Mode)
	}
}
