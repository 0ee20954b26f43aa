// Package link joins the target network without blocking the caller. Each
// Advance call performs at most one scan or one connect attempt.
package link

import (
	"fmt"
	"time"

	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/utils"
)

// State is the connectivity state
type State int

const (
	Idle State = iota
	Scanning
	Connecting
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Network is the target network identity and credential
type Network struct {
	SSID     string
	Password string
}

// Radio is the wireless interface driven by the manager. Implementations
// should return quickly; each method is one unit of work.
type Radio interface {
	Activate() error
	Scan() ([]string, error)
	Connect(ssid, password string) error
	IsConnected() bool
}

// Manager is the connectivity state machine. Connected and Failed are
// sticky until Reset.
type Manager struct {
	radio   Radio
	target  Network
	timeout time.Duration
	now     func() time.Time

	state   State
	started time.Time
	active  bool
	err     error
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates an idle manager that gives up after timeout.
func NewManager(radio Radio, target Network, timeout time.Duration, opts ...Option) *Manager {
	if timeout <= 0 {
		timeout = types.LinkTimeout
	}
	m := &Manager{
		radio:   radio,
		target:  target,
		timeout: timeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Manager) State() State { return m.state }

// Target returns the network being joined.
func (m *Manager) Target() Network { return m.target }

// Elapsed returns time since the first Advance of this session.
func (m *Manager) Elapsed() time.Duration {
	if m.started.IsZero() {
		return 0
	}
	return m.now().Sub(m.started)
}

// Err returns types.ErrConnectivityTimeout once the manager has failed.
func (m *Manager) Err() error { return m.err }

// Advance performs one unit of work. It returns true while the caller should
// keep calling (still trying, or connected) and false once the manager has
// definitively failed. It never panics.
func (m *Manager) Advance() bool {
	switch m.state {
	case Connected:
		return true
	case Failed:
		return false
	case Idle:
		m.started = m.now()
		m.state = Scanning
		if m.activate() {
			m.connected()
		}
		return true
	case Scanning:
		return m.scan()
	case Connecting:
		return m.connect()
	}
	return false
}

// Reset re-arms the manager to Idle with a fresh session timer.
func (m *Manager) Reset() {
	utils.Debug("Link: reset from %s", m.state)
	m.state = Idle
	m.started = time.Time{}
	m.active = false
	m.err = nil
}

// activate powers up the radio once per session and reports whether it is
// already connected.
func (m *Manager) activate() (connected bool) {
	defer func() {
		if r := recover(); r != nil {
			utils.Debug("Link: activate panic: %v", r)
			connected = false
		}
	}()

	if !m.active {
		if err := m.radio.Activate(); err != nil {
			utils.Debug("Link: activate error: %v", err)
			return false
		}
		m.active = true
	}
	return m.radio.IsConnected()
}

func (m *Manager) scan() bool {
	found := m.safeScan()
	if found {
		utils.Debug("Link: %s visible, connecting", m.target.SSID)
		m.state = Connecting
		return true
	}
	return m.keepTrying("network not visible yet")
}

func (m *Manager) safeScan() (found bool) {
	defer func() {
		if r := recover(); r != nil {
			utils.Debug("Link: scan panic: %v", r)
			found = false
		}
	}()

	if !m.active {
		// Radio failed to come up at Idle; retry here
		if err := m.radio.Activate(); err != nil {
			utils.Debug("Link: activate error: %v", err)
			return false
		}
		m.active = true
	}

	names, err := m.radio.Scan()
	if err != nil {
		// Scan failures count as an empty result
		utils.Debug("Link: scan error: %v", err)
		return false
	}
	for _, name := range names {
		if matches(m.target.SSID, name) {
			return true
		}
	}
	return false
}

func (m *Manager) connect() bool {
	if m.safeConnect() {
		m.connected()
		return true
	}
	return m.keepTrying("connect attempt did not complete")
}

func (m *Manager) safeConnect() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			utils.Debug("Link: connect panic: %v", r)
			ok = false
		}
	}()

	if err := m.radio.Connect(m.target.SSID, m.target.Password); err != nil {
		// Transient; retried next call while within the timeout
		utils.Debug("Link: connect error: %v", err)
		return false
	}
	return m.radio.IsConnected()
}

func (m *Manager) connected() {
	m.state = Connected
	utils.Debug("Link: connected to %s after %s", m.target.SSID, m.Elapsed().Round(time.Millisecond))
}

// keepTrying stays in the current state while within the timeout, otherwise
// moves to Failed.
func (m *Manager) keepTrying(reason string) bool {
	if m.Elapsed() < m.timeout {
		return true
	}
	m.state = Failed
	m.err = fmt.Errorf("%w: %s after %s", types.ErrConnectivityTimeout, reason, m.timeout)
	utils.Debug("Link: %v", m.err)
	return false
}

// matches reports whether a scanned name satisfies the target. AnyNetwork on
// either side matches everything.
func matches(target, name string) bool {
	return target == types.AnyNetwork || name == types.AnyNetwork || target == name
}
