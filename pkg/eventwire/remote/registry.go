package remote

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
)

// Registry is a handle on the shared naming registry: always a client, and
// additionally the owning server when this process created the registry.
type Registry struct {
	*Client
	server *Server
}

// registryConfig holds LocateOrCreate configuration.
type registryConfig struct {
	dialTimeout time.Duration
	logger      *slog.Logger
}

// RegistryOption configures LocateOrCreate.
type RegistryOption func(*registryConfig)

// WithDialTimeout bounds how long LocateOrCreate probes for an existing
// registry before deciding to create one. Default: 2s.
func WithDialTimeout(d time.Duration) RegistryOption {
	return func(c *registryConfig) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// WithRegistryLogger enables structured logging of registry operations.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// LocateOrCreate connects to the naming registry at host:port, creating it
// on first use. Creation is permitted only when host resolves to the local
// machine; attempting to create a registry on a remote host fails with a
// *RegistryAccessError wrapping ErrNotLocal rather than being silently
// redirected.
func LocateOrCreate(ctx context.Context, host string, port int, opts ...RegistryOption) (*Registry, error) {
	cfg := registryConfig{dialTimeout: 2 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := NewClient(net.JoinHostPort(host, strconv.Itoa(port)))

	// Probe for an existing registry; transient failures are retried until
	// the dial timeout elapses.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = cfg.dialTimeout
	err := backoff.Retry(func() error {
		return client.ping(ctx)
	}, backoff.WithContext(bo, ctx))
	if err == nil {
		return &Registry{Client: client}, nil
	}

	if !isLocalHost(host) {
		return nil, &RegistryAccessError{Op: "create", Err: ErrNotLocal}
	}

	srv, err := serveRegistry(net.JoinHostPort(host, strconv.Itoa(port)), cfg.logger)
	if err != nil {
		return nil, &RegistryAccessError{Op: "create", Err: err}
	}
	return &Registry{
		Client: NewClient(srv.Addr()),
		server: srv,
	}, nil
}

// Owns reports whether this process created (and serves) the registry.
func (r *Registry) Owns() bool { return r.server != nil }

// Close shuts down the registry server when this process owns it.
func (r *Registry) Close() error {
	if r.server == nil {
		return nil
	}
	return r.server.Close()
}

// isLocalHost reports whether host resolves to this machine.
func isLocalHost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return false
	}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return false
	}
	for _, ip := range ips {
		if ip.IsLoopback() {
			return true
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.Equal(ip) {
				return true
			}
		}
	}
	return false
}

// Server is the naming-registry HTTP service.
type Server struct {
	ln       net.Listener
	srv      *http.Server
	bindings *bindingTable
	log      *slog.Logger
}

// serveRegistry starts a registry server on addr.
func serveRegistry(addr string, logger *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	s := &Server{
		ln:       ln,
		bindings: newBindingTable(),
		log:      logger,
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Route("/bindings", func(r chi.Router) {
		r.Get("/", s.handleNames)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.handleLookup)
			r.Post("/", s.handleBind)
			r.Put("/", s.handleRebind)
			r.Delete("/", s.handleUnbind)
		})
	})

	s.srv = &http.Server{Handler: r}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed && logger != nil {
			logger.Error("registry server stopped", "error", err)
		}
	}()
	return s, nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Close shuts the server down.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.bindings.names())
}

// bindingName extracts the {name} route segment. Names may contain slashes
// or spaces; clients escape them, so the raw segment is unescaped here.
func bindingName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	name := bindingName(r)
	b, ok := s.bindings.lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, ErrNotBound)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleBind(w http.ResponseWriter, r *http.Request) {
	name := bindingName(r)
	var b Binding
	if err := codec.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b.Name = name
	if err := s.bindings.bind(name, b); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	if s.log != nil {
		s.log.Debug("bound", "name", name, "role", b.Role, "addr", b.Addr)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRebind(w http.ResponseWriter, r *http.Request) {
	name := bindingName(r)
	var b Binding
	if err := codec.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	b.Name = name
	s.bindings.rebind(name, b)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnbind(w http.ResponseWriter, r *http.Request) {
	name := bindingName(r)
	if err := s.bindings.unbind(name); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Client talks to a naming registry over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a registry client for the given host:port address.
func NewClient(addr string) *Client {
	return &Client{
		baseURL: "http://" + addr,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Addr returns the registry's host:port address.
func (c *Client) Addr() string {
	return strings.TrimPrefix(c.baseURL, "http://")
}

// Lookup resolves a name to its binding.
func (c *Client) Lookup(ctx context.Context, name string) (Binding, error) {
	var b Binding
	err := c.do(ctx, http.MethodGet, "/bindings/"+url.PathEscape(name), nil, &b)
	if err != nil {
		return Binding{}, &RegistryAccessError{Op: "lookup", Name: name, Err: err}
	}
	return b, nil
}

// Bind registers a binding under a fresh name.
func (c *Client) Bind(ctx context.Context, name string, b Binding) error {
	if err := c.do(ctx, http.MethodPost, "/bindings/"+url.PathEscape(name), b, nil); err != nil {
		return &RegistryAccessError{Op: "bind", Name: name, Err: err}
	}
	return nil
}

// Rebind registers a binding, replacing any existing one.
func (c *Client) Rebind(ctx context.Context, name string, b Binding) error {
	if err := c.do(ctx, http.MethodPut, "/bindings/"+url.PathEscape(name), b, nil); err != nil {
		return &RegistryAccessError{Op: "rebind", Name: name, Err: err}
	}
	return nil
}

// Names returns every bound name. Ordering is not guaranteed.
func (c *Client) Names(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.do(ctx, http.MethodGet, "/bindings", nil, &names); err != nil {
		return nil, &RegistryAccessError{Op: "names", Err: err}
	}
	return names, nil
}

// Unbind removes a binding.
func (c *Client) Unbind(ctx context.Context, name string) error {
	if err := c.do(ctx, http.MethodDelete, "/bindings/"+url.PathEscape(name), nil, nil); err != nil {
		return &RegistryAccessError{Op: "unbind", Name: name, Err: err}
	}
	return nil
}

// ping probes registry liveness.
func (c *Client) ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := codec.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		if out != nil {
			return codec.NewDecoder(resp.Body).Decode(out)
		}
		return nil
	case http.StatusNotFound:
		return ErrNotBound
	case http.StatusConflict:
		return ErrAlreadyBound
	default:
		return readError(resp)
	}
}
