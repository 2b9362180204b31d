package reconcile

import (
	"context"
	"net"
	"time"
)

// Probe reports whether the remote image host can be reached.
type Probe interface {
	Online(ctx context.Context) bool
}

// Static is a fixed connectivity answer.
type Static bool

func (s Static) Online(context.Context) bool { return bool(s) }

// DialProbe reports online when a TCP connection to Addr succeeds within
// Timeout.
type DialProbe struct {
	Addr    string
	Timeout time.Duration
}

// DefaultProbeAddr is dialed when no address is configured.
const DefaultProbeAddr = "api.cloudinary.com:443"

func (p DialProbe) Online(ctx context.Context) bool {
	addr := p.Addr
	if addr == "" {
		addr = DefaultProbeAddr
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
