// Package netmon monitors the device's network connectivity for the
// panel's status line. It classifies interfaces by name, prefers a live
// ethernet link over Wi-Fi, and on Wi-Fi alternates the displayed text
// between IP address and SSID on each tick.
package netmon

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Fallback values for fields that fail to collect.
const (
	FallbackAddr = "No IP"
	FallbackSSID = "Not Connected"
)

// Link classifies which icon the status line shows.
type Link string

const (
	LinkNone     Link = "none"
	LinkWifi     Link = "wifi"
	LinkEthernet Link = "ethernet"
)

// Status is one connectivity reading.
type Status struct {
	Link Link
	Addr string
	SSID string

	// ShowSSID is the Wi-Fi text alternation phase. It flips on every
	// collection tick while Wi-Fi is the active link.
	ShowSSID bool

	Timestamp time.Time
}

// Text returns the address text for the status line. Ethernet and
// no-connection always show the address (or its fallback); Wi-Fi
// alternates between address and SSID.
func (s Status) Text() string {
	if s.Link == LinkWifi && s.ShowSSID {
		return s.SSID
	}
	return s.Addr
}

// nic is one classified interface.
type nic struct {
	name string
	kind Link
	up   bool
	ipv4 string
}

// Collector implements pkg/collectors.Collector for network status.
type Collector struct {
	interval time.Duration

	mu      sync.Mutex
	healthy bool
	toggle  bool

	// Injection points for tests.
	listNICs func() ([]nic, error)
	ssid     func(ctx context.Context) (string, error)
}

// New creates a Collector polling on the given interval.
func New(interval time.Duration) *Collector {
	return &Collector{
		interval: interval,
		healthy:  true,
		listNICs: systemNICs,
		ssid:     currentSSID,
	}
}

// Name returns the collector's unique identifier.
func (c *Collector) Name() string {
	return "netmon"
}

// Interval returns the polling cadence.
func (c *Collector) Interval() time.Duration {
	return c.interval
}

// Healthy reports whether the last interface enumeration succeeded.
func (c *Collector) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy
}

// Collect produces one Status. Ethernet-type interfaces take priority over
// Wi-Fi when both report a live address; absence of both yields the
// no-connection link with the fixed fallback text.
func (c *Collector) Collect(ctx context.Context) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	nics, err := c.listNICs()
	if err != nil {
		c.mu.Lock()
		c.healthy = false
		c.mu.Unlock()
		return Status{Link: LinkNone, Addr: FallbackAddr, Timestamp: time.Now()},
			fmt.Errorf("netmon: enumerating interfaces: %w", err)
	}

	status := Status{
		Link:      LinkNone,
		Addr:      FallbackAddr,
		Timestamp: time.Now(),
	}

	if best := pickNIC(nics); best != nil {
		status.Link = best.kind
		status.Addr = best.ipv4
	}

	if status.Link == LinkWifi {
		status.SSID = FallbackSSID
		if name, err := c.ssid(ctx); err == nil && name != "" {
			status.SSID = name
		}
	}

	c.mu.Lock()
	c.healthy = true
	if status.Link == LinkWifi {
		c.toggle = !c.toggle
		status.ShowSSID = c.toggle
	} else {
		c.toggle = false
	}
	c.mu.Unlock()

	return status, nil
}

// pickNIC returns the best live interface: ethernet first, then wifi.
func pickNIC(nics []nic) *nic {
	var wifi *nic
	for i := range nics {
		n := &nics[i]
		if !n.up || n.ipv4 == "" {
			continue
		}
		switch n.kind {
		case LinkEthernet:
			return n
		case LinkWifi:
			if wifi == nil {
				wifi = n
			}
		}
	}
	return wifi
}

// systemNICs enumerates and classifies the host's interfaces.
func systemNICs() ([]nic, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var nics []nic
	for _, iface := range ifaces {
		kind := classifyNIC(iface.Name)
		if kind == LinkNone {
			continue
		}
		n := nic{
			name: iface.Name,
			kind: kind,
			up:   iface.Flags&net.FlagUp != 0,
		}
		if addrs, err := iface.Addrs(); err == nil {
			for _, addr := range addrs {
				ip := extractIPv4(addr.String())
				if ip != "" {
					n.ipv4 = ip
					break
				}
			}
		}
		nics = append(nics, n)
	}
	return nics, nil
}

// classifyNIC maps an interface name to a link kind. Loopback, container
// and tunnel interfaces are not candidates for the status line.
func classifyNIC(name string) Link {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "lo"),
		strings.HasPrefix(lower, "veth"),
		strings.HasPrefix(lower, "br-"),
		strings.HasPrefix(lower, "docker"),
		strings.HasPrefix(lower, "virbr"),
		strings.HasPrefix(lower, "tailscale"),
		strings.HasPrefix(lower, "tun"):
		return LinkNone
	case strings.HasPrefix(lower, "eth"),
		strings.HasPrefix(lower, "enp"),
		strings.HasPrefix(lower, "eno"),
		strings.HasPrefix(lower, "ens"),
		strings.HasPrefix(lower, "end"):
		return LinkEthernet
	case strings.HasPrefix(lower, "wl"),
		strings.HasPrefix(lower, "wlan"):
		return LinkWifi
	}
	return LinkNone
}

// extractIPv4 strips the CIDR mask from an address string like
// "192.168.1.9/24" and rejects IPv6.
func extractIPv4(addr string) string {
	if idx := strings.IndexByte(addr, '/'); idx >= 0 {
		addr = addr[:idx]
	}
	if strings.Contains(addr, ":") {
		return ""
	}
	return addr
}

// currentSSID asks the wireless tools for the joined network's name.
func currentSSID(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "iwgetid", "-r").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
