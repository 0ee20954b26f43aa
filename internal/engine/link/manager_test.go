package link

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeline-badge/timeline/internal/engine/types"
)

type fakeClock struct {
	t    time.Time
	step time.Duration // advanced on every read
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

type fakeRadio struct {
	visibleAfter  int // scans before the SSID shows up (-1 = never)
	connectAfter  int // connect attempts before the link comes up (-1 = never)
	scanErr       error
	connectErr    error
	panicOnScan   bool
	panicConnect  bool
	preConnected  bool
	activations   int
	scans         int
	connects      int
	linkConnected bool
}

func (r *fakeRadio) Activate() error {
	r.activations++
	r.linkConnected = r.preConnected
	return nil
}

func (r *fakeRadio) Scan() ([]string, error) {
	r.scans++
	if r.panicOnScan {
		panic("driver crashed")
	}
	if r.scanErr != nil {
		return nil, r.scanErr
	}
	if r.visibleAfter >= 0 && r.scans > r.visibleAfter {
		return []string{"other", "badge-net"}, nil
	}
	return []string{"other"}, nil
}

func (r *fakeRadio) Connect(ssid, password string) error {
	r.connects++
	if r.panicConnect {
		panic("connect crashed")
	}
	if r.connectErr != nil {
		return r.connectErr
	}
	if r.connectAfter >= 0 && r.connects > r.connectAfter {
		r.linkConnected = true
	}
	return nil
}

func (r *fakeRadio) IsConnected() bool { return r.linkConnected }

var target = Network{SSID: "badge-net", Password: "hunter2"}

func newTestManager(radio Radio, timeout, tick time.Duration) *Manager {
	clock := &fakeClock{t: time.Unix(1700000000, 0), step: tick}
	return NewManager(radio, target, timeout, WithClock(clock.Now))
}

func TestManager_ConnectsAfterScanAndAttempts(t *testing.T) {
	radio := &fakeRadio{visibleAfter: 2, connectAfter: 1}
	m := newTestManager(radio, time.Minute, time.Second)

	var states []State
	for i := 0; i < 20 && m.State() != Connected; i++ {
		require.True(t, m.Advance())
		states = append(states, m.State())
	}

	assert.Equal(t, Connected, m.State())
	assert.Equal(t, []State{Scanning, Scanning, Scanning, Connecting, Connecting, Connected}, states)
	assert.Equal(t, 1, radio.activations)
	assert.Equal(t, 3, radio.scans)
	assert.Equal(t, 2, radio.connects)
	assert.NoError(t, m.Err())
}

func TestManager_ConnectedIsTerminal(t *testing.T) {
	radio := &fakeRadio{visibleAfter: 0, connectAfter: 0}
	m := newTestManager(radio, time.Minute, time.Second)

	for m.State() != Connected {
		m.Advance()
	}
	scans, connects := radio.scans, radio.connects

	for i := 0; i < 10; i++ {
		assert.True(t, m.Advance())
	}
	assert.Equal(t, scans, radio.scans, "no re-scan once connected")
	assert.Equal(t, connects, radio.connects, "no re-connect once connected")
}

func TestManager_AlreadyConnectedOnActivation(t *testing.T) {
	radio := &fakeRadio{preConnected: true, visibleAfter: -1, connectAfter: -1}
	m := newTestManager(radio, time.Minute, time.Second)

	assert.True(t, m.Advance())
	assert.Equal(t, Connected, m.State())
	assert.Zero(t, radio.scans)
}

func TestManager_ScanTimeout(t *testing.T) {
	radio := &fakeRadio{visibleAfter: -1}
	m := newTestManager(radio, 10*time.Second, time.Second)

	calls := 0
	for m.Advance() {
		calls++
		require.Less(t, calls, 100, "must terminate")
	}

	assert.Equal(t, Failed, m.State())
	assert.ErrorIs(t, m.Err(), types.ErrConnectivityTimeout)
}

func TestManager_ScanErrorsAreEmptyResults(t *testing.T) {
	radio := &fakeRadio{scanErr: errors.New("radio busy"), visibleAfter: 0}
	m := newTestManager(radio, 5*time.Second, time.Second)

	assert.True(t, m.Advance())
	assert.True(t, m.Advance())
	assert.Equal(t, Scanning, m.State())

	radio.scanErr = nil
	assert.True(t, m.Advance())
	assert.Equal(t, Connecting, m.State())
}

func TestManager_ConnectErrorsAreTransient(t *testing.T) {
	radio := &fakeRadio{visibleAfter: 0, connectErr: errors.New("auth timeout")}
	m := newTestManager(radio, time.Minute, time.Second)

	m.Advance() // activate
	m.Advance() // scan -> connecting
	require.Equal(t, Connecting, m.State())

	assert.True(t, m.Advance())
	assert.Equal(t, Connecting, m.State())

	radio.connectErr = nil
	radio.connectAfter = 0
	assert.True(t, m.Advance())
	assert.Equal(t, Connected, m.State())
}

func TestManager_ConnectTimeout(t *testing.T) {
	radio := &fakeRadio{visibleAfter: 0, connectAfter: -1}
	m := newTestManager(radio, 10*time.Second, time.Second)

	for m.Advance() {
	}
	assert.Equal(t, Failed, m.State())
	assert.Greater(t, radio.connects, 0)
}

func TestManager_PanicsDegradeToRetry(t *testing.T) {
	radio := &fakeRadio{panicOnScan: true}
	m := newTestManager(radio, 3*time.Second, time.Second)

	assert.NotPanics(t, func() {
		for m.Advance() {
		}
	})
	assert.Equal(t, Failed, m.State())

	radio = &fakeRadio{visibleAfter: 0, panicConnect: true}
	m = newTestManager(radio, 3*time.Second, time.Second)
	assert.NotPanics(t, func() {
		for m.Advance() {
		}
	})
	assert.Equal(t, Failed, m.State())
}

func TestManager_BoundedConvergence(t *testing.T) {
	timeouts := []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}
	for _, timeout := range timeouts {
		radio := &fakeRadio{visibleAfter: -1}
		tick := 100 * time.Millisecond
		clock := &fakeClock{t: time.Unix(0, 0), step: tick}
		m := NewManager(radio, target, timeout, WithClock(clock.Now))

		for m.Advance() {
		}
		// One clock read per Advance after the first, plus the start stamp
		assert.LessOrEqual(t, m.Elapsed()-tick, timeout+tick, "timeout %s", timeout)
	}
}

func TestManager_FailedIsStickyUntilReset(t *testing.T) {
	radio := &fakeRadio{visibleAfter: -1}
	m := newTestManager(radio, 2*time.Second, time.Second)

	for m.Advance() {
	}
	require.Equal(t, Failed, m.State())
	scans := radio.scans

	for i := 0; i < 5; i++ {
		assert.False(t, m.Advance())
	}
	assert.Equal(t, scans, radio.scans, "no work while failed")

	m.Reset()
	assert.Equal(t, Idle, m.State())
	assert.NoError(t, m.Err())

	radio.visibleAfter = 0
	radio.connectAfter = 0
	for i := 0; i < 5 && m.State() != Connected; i++ {
		assert.True(t, m.Advance())
	}
	assert.Equal(t, Connected, m.State())
	assert.Equal(t, 2, radio.activations, "reset re-activates the radio")
}

func TestManager_WildcardTarget(t *testing.T) {
	radio := &fakeRadio{visibleAfter: -1, connectAfter: 0}
	clock := &fakeClock{t: time.Unix(0, 0), step: time.Millisecond}
	m := NewManager(radio, Network{SSID: types.AnyNetwork}, time.Minute, WithClock(clock.Now))

	m.Advance()
	m.Advance()
	assert.Equal(t, Connecting, m.State(), "any visible network satisfies the wildcard")
}

func TestHostRadio(t *testing.T) {
	h := NewHostRadio("probe:443")
	h.Interfaces = func() ([]net.Interface, error) {
		return []net.Interface{
			{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
			{Name: "eth0", Flags: net.FlagUp},
			{Name: "wlan0", Flags: 0},
		}, nil
	}
	dials := 0
	h.Dial = func(network, address string, timeout time.Duration) (net.Conn, error) {
		dials++
		assert.Equal(t, "probe:443", address)
		if dials == 1 {
			return nil, errors.New("no route to host")
		}
		client, server := net.Pipe()
		_ = server.Close()
		return client, nil
	}

	require.NoError(t, h.Activate())
	names, err := h.Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{types.AnyNetwork}, names)

	assert.Error(t, h.Connect("eth0", ""))
	assert.False(t, h.IsConnected())
	assert.NoError(t, h.Connect("eth0", ""))
	assert.True(t, h.IsConnected())
}

func TestHostRadio_NoInterfaceUp(t *testing.T) {
	h := NewHostRadio("probe:443")
	h.Interfaces = func() ([]net.Interface, error) {
		return []net.Interface{
			{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
			{Name: "wlan0", Flags: 0},
		}, nil
	}

	names, err := h.Scan()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestManager_HostRadioWithNamedNetwork(t *testing.T) {
	h := NewHostRadio("probe:443")
	h.Interfaces = func() ([]net.Interface, error) {
		return []net.Interface{{Name: "wlan0", Flags: net.FlagUp}}, nil
	}
	h.Dial = func(network, address string, timeout time.Duration) (net.Conn, error) {
		client, server := net.Pipe()
		_ = server.Close()
		return client, nil
	}
	clock := &fakeClock{t: time.Unix(0, 0), step: 100 * time.Millisecond}
	m := NewManager(h, Network{SSID: "home-wifi", Password: "pw"}, time.Second, WithClock(clock.Now))

	for i := 0; i < 5 && m.State() != Connected; i++ {
		m.Advance()
	}
	assert.Equal(t, Connected, m.State())
	assert.NoError(t, m.Err())
}
