package remote

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/randalmurphal/eventwire/pkg/eventwire"
	"github.com/randalmurphal/eventwire/pkg/eventwire/event"
)

// ProducerServer exposes a local producer to remote callers. It binds the
// producer under a name in the naming registry and serves addListener and
// fire calls; addListener inserts a remote listener proxy into the
// producer's ordinary subscription registry, so delivery order, validation,
// and failure isolation are exactly the local semantics.
type ProducerServer struct {
	name     string
	producer *eventwire.Producer
	kinds    map[string]*event.Kind
	reg      *Registry
	ln       net.Listener
	srv      *http.Server

	timeout time.Duration

	mu      sync.Mutex
	proxies map[string]*listenerProxy // listener name -> proxy, reused so re-adds dedupe
}

// ServeProducer starts serving p under name and binds it in the registry.
// The kinds listed here are the ones addressable by name from remote
// callers; fire and addListener calls naming any other kind are rejected.
//
// The endpoint binds loopback by default; use WithBindAddress and
// WithAdvertiseAddress to expose it across machines.
func ServeProducer(ctx context.Context, reg *Registry, name string, p *eventwire.Producer, kinds []*event.Kind, opts ...ServerOption) (*ProducerServer, error) {
	cfg := newEndpointConfig(opts)
	ln, adv, err := cfg.listen()
	if err != nil {
		return nil, err
	}

	s := &ProducerServer{
		name:     name,
		producer: p,
		kinds:    kindsByName(kinds),
		reg:      reg,
		ln:       ln,
		timeout:  cfg.notifyTimeout,
		proxies:  make(map[string]*listenerProxy),
	}

	r := chi.NewRouter()
	r.Post("/listeners", s.handleAddListener)
	r.Delete("/listeners/{listener}", s.handleRemoveListener)
	r.Post("/fire", s.handleFire)
	s.srv = &http.Server{Handler: r}
	go func() { _ = s.srv.Serve(ln) }()

	binding := Binding{Name: name, Role: RoleProducer, Addr: adv}
	if err := reg.Bind(ctx, name, binding); err != nil {
		_ = s.srv.Close()
		return nil, err
	}
	return s, nil
}

// Name returns the bound name.
func (s *ProducerServer) Name() string { return s.name }

// Addr returns the server's listen address.
func (s *ProducerServer) Addr() string { return s.ln.Addr().String() }

// Close unbinds the producer and stops its server. The producer itself is
// left running; closing it is its owner's business.
func (s *ProducerServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.reg.Unbind(ctx, s.name)
	return s.srv.Shutdown(ctx)
}

// proxyFor returns the cached proxy for a listener name, creating it from
// the binding on first use. Reusing one proxy instance per name keeps the
// registry's same-listener deduplication working across repeated adds.
func (s *ProducerServer) proxyFor(ctx context.Context, listenerName string) (*listenerProxy, error) {
	s.mu.Lock()
	proxy, ok := s.proxies[listenerName]
	s.mu.Unlock()
	if ok {
		return proxy, nil
	}

	binding, err := s.reg.Lookup(ctx, listenerName)
	if err != nil {
		return nil, err
	}
	if binding.Role != RoleListener {
		return nil, fmt.Errorf("%q is bound as a %s, not a listener", listenerName, binding.Role)
	}

	s.mu.Lock()
	if existing, ok := s.proxies[listenerName]; ok {
		proxy = existing
	} else {
		proxy = newListenerProxy(listenerName, binding.Addr, s.timeout)
		s.proxies[listenerName] = proxy
	}
	s.mu.Unlock()
	return proxy, nil
}

func (s *ProducerServer) handleAddListener(w http.ResponseWriter, r *http.Request) {
	var req addListenerRequest
	if err := codec.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	kind, ok := s.kinds[req.Kind]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown kind %q", req.Kind))
		return
	}

	proxy, err := s.proxyFor(r.Context(), req.Listener)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	s.producer.Subscribe(kind, proxy)
	w.WriteHeader(http.StatusNoContent)
}

func (s *ProducerServer) handleRemoveListener(w http.ResponseWriter, r *http.Request) {
	listenerName := chi.URLParam(r, "listener")
	if name, err := url.PathUnescape(listenerName); err == nil {
		listenerName = name
	}
	kindName := r.URL.Query().Get("kind")

	kind, ok := s.kinds[kindName]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown kind %q", kindName))
		return
	}

	s.mu.Lock()
	proxy, ok := s.proxies[listenerName]
	s.mu.Unlock()
	if !ok || !s.producer.Unsubscribe(kind, proxy) {
		writeError(w, http.StatusNotFound, ErrNotBound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *ProducerServer) handleFire(w http.ResponseWriter, r *http.Request) {
	var req fireRequest
	if err := codec.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	kind, ok := s.kinds[req.Kind]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown kind %q", req.Kind))
		return
	}

	err := s.fire(r.Context(), kind, &req)
	if err != nil {
		// Validation failures belong to the remote caller.
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *ProducerServer) fire(ctx context.Context, kind *event.Kind, req *fireRequest) error {
	at := req.At.timestamp()
	values := req.Values
	if req.None {
		values = nil
	}

	switch {
	case at != nil && req.Unchecked:
		return s.producer.FireTimedUnchecked(ctx, kind, at, values...)
	case at != nil:
		return s.producer.FireTimed(ctx, kind, at, values...)
	case req.Unchecked:
		return s.producer.FireUnchecked(ctx, kind, values...)
	default:
		return s.producer.Fire(ctx, kind, values...)
	}
}

// ProducerClient is the caller-side handle on a remotely bound producer.
type ProducerClient struct {
	name string
	addr string
	http *http.Client
}

// LookupProducer resolves a bound producer by name.
func LookupProducer(ctx context.Context, reg *Registry, name string) (*ProducerClient, error) {
	binding, err := reg.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if binding.Role != RoleProducer {
		return nil, &RegistryAccessError{
			Op:   "lookup",
			Name: name,
			Err:  fmt.Errorf("bound as a %s, not a producer", binding.Role),
		}
	}
	return &ProducerClient{
		name: name,
		addr: binding.Addr,
		http: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Name returns the producer's bound name.
func (c *ProducerClient) Name() string { return c.name }

// AddListener subscribes the listener bound under listenerName to the named
// kind on the remote producer.
func (c *ProducerClient) AddListener(ctx context.Context, kindName, listenerName string) error {
	return c.post(ctx, "/listeners", addListenerRequest{Kind: kindName, Listener: listenerName})
}

// RemoveListener drops the remote subscription.
func (c *ProducerClient) RemoveListener(ctx context.Context, kindName, listenerName string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		"http://"+c.addr+"/listeners/"+url.PathEscape(listenerName)+"?kind="+url.QueryEscape(kindName), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remove listener: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return readError(resp)
	}
	return nil
}

// Fire fires the named kind on the remote producer. A schema rejection on
// the producer side comes back as this call's error; per-listener delivery
// failures stay isolated on the producer side, exactly as for a local fire.
func (c *ProducerClient) Fire(ctx context.Context, kindName string, values ...any) error {
	return c.post(ctx, "/fire", fireRequest{
		Kind:   kindName,
		None:   len(values) == 0,
		Values: values,
	})
}

// FireTimed is Fire with a timestamp.
func (c *ProducerClient) FireTimed(ctx context.Context, kindName string, at event.Timestamp, values ...any) error {
	return c.post(ctx, "/fire", fireRequest{
		Kind:   kindName,
		None:   len(values) == 0,
		Values: values,
		At:     toWireTime(at),
	})
}

// FireUnchecked is Fire without schema validation on the producer side.
func (c *ProducerClient) FireUnchecked(ctx context.Context, kindName string, values ...any) error {
	return c.post(ctx, "/fire", fireRequest{
		Kind:      kindName,
		None:      len(values) == 0,
		Values:    values,
		Unchecked: true,
	})
}

func (c *ProducerClient) post(ctx context.Context, path string, in any) error {
	data, err := codec.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"http://"+c.addr+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("producer %s: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("producer %s: %w", c.name, readError(resp))
	}
	return nil
}
