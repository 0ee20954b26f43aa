package link

import (
	"net"
	"time"

	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/utils"
)

// HostRadio maps the Radio contract onto the host's network stack. The host
// has already joined whatever network it is on, so any non-loopback interface
// that is up makes the target visible (Scan reports types.AnyNetwork), and
// connecting is one bounded dial to a probe address. The SSID and credential
// are not used.
type HostRadio struct {
	ProbeAddress string
	DialTimeout  time.Duration

	// Overridable for tests
	Interfaces func() ([]net.Interface, error)
	Dial       func(network, address string, timeout time.Duration) (net.Conn, error)

	connected bool
}

// NewHostRadio creates a radio that probes addr.
func NewHostRadio(addr string) *HostRadio {
	if addr == "" {
		addr = types.ProbeAddress
	}
	return &HostRadio{
		ProbeAddress: addr,
		DialTimeout:  types.ProbeDialTimeout,
		Interfaces:   net.Interfaces,
		Dial:         net.DialTimeout,
	}
}

func (h *HostRadio) Activate() error {
	h.connected = false
	return nil
}

// Scan reports types.AnyNetwork while a non-loopback interface is up, and
// nothing otherwise.
func (h *HostRadio) Scan() ([]string, error) {
	ifaces, err := h.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		utils.Debug("Link: host interface %s is up", iface.Name)
		return []string{types.AnyNetwork}, nil
	}
	return nil, nil
}

// Connect dials the probe address once.
func (h *HostRadio) Connect(ssid, password string) error {
	conn, err := h.Dial("tcp", h.ProbeAddress, h.DialTimeout)
	if err != nil {
		h.connected = false
		return err
	}
	_ = conn.Close()
	h.connected = true
	return nil
}

func (h *HostRadio) IsConnected() bool { return h.connected }
