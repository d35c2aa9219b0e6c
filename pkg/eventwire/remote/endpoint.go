package remote

import (
	"fmt"
	"net"
	"time"
)

// endpointConfig holds the network placement of a served endpoint.
type endpointConfig struct {
	bindAddr      string
	advertiseAddr string
	notifyTimeout time.Duration
}

// ServerOption configures a served producer or listener endpoint.
type ServerOption func(*endpointConfig)

// WithBindAddress sets the host:port the endpoint listens on. Default:
// 127.0.0.1:0, which keeps the endpoint local to the machine. Bind a
// routable interface (for example "0.0.0.0:7500") to accept cross-machine
// traffic.
func WithBindAddress(addr string) ServerOption {
	return func(c *endpointConfig) {
		if addr != "" {
			c.bindAddr = addr
		}
	}
}

// WithAdvertiseAddress sets the host:port published in the endpoint's
// registry binding. It defaults to the actual listen address; set it when
// that address is not reachable as-is from other machines, as with a
// wildcard bind or NAT.
func WithAdvertiseAddress(addr string) ServerOption {
	return func(c *endpointConfig) {
		c.advertiseAddr = addr
	}
}

// WithNotifyTimeout sets the per-call timeout of one remote notification.
// Default: 5s. This is a transport property; the fire call itself has no
// overall timeout. It applies to producer endpoints and is ignored for
// listener endpoints.
func WithNotifyTimeout(d time.Duration) ServerOption {
	return func(c *endpointConfig) {
		if d > 0 {
			c.notifyTimeout = d
		}
	}
}

func newEndpointConfig(opts []ServerOption) endpointConfig {
	cfg := endpointConfig{
		bindAddr:      "127.0.0.1:0",
		notifyTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// listen opens the bind address and resolves the address to advertise in
// the registry binding.
func (c endpointConfig) listen() (net.Listener, string, error) {
	ln, err := net.Listen("tcp", c.bindAddr)
	if err != nil {
		return nil, "", fmt.Errorf("listen %s: %w", c.bindAddr, err)
	}
	adv := c.advertiseAddr
	if adv == "" {
		adv = ln.Addr().String()
	}
	return ln, adv, nil
}
