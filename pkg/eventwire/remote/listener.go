package remote

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/randalmurphal/eventwire/pkg/eventwire"
	"github.com/randalmurphal/eventwire/pkg/eventwire/event"
)

// ListenerServer exposes a local listener to remote producers. It binds
// itself under a name in the naming registry and receives notifications
// over HTTP.
type ListenerServer struct {
	name     string
	listener eventwire.Listener
	kinds    map[string]*event.Kind
	reg      *Registry
	ln       net.Listener
	srv      *http.Server
}

// ServeListener starts serving l under name and binds it in the registry.
//
// Kinds registered here are matched by name against incoming notifications;
// a matching kind revalidates the payload against its schema before the
// listener sees it. Notifications for unregistered kind names are delivered
// under a synthesized kind with the AnyPayload schema.
//
// The endpoint binds loopback by default; use WithBindAddress and
// WithAdvertiseAddress to expose it across machines.
func ServeListener(ctx context.Context, reg *Registry, name string, l eventwire.Listener, kinds []*event.Kind, opts ...ServerOption) (*ListenerServer, error) {
	cfg := newEndpointConfig(opts)
	ln, adv, err := cfg.listen()
	if err != nil {
		return nil, err
	}

	s := &ListenerServer{
		name:     name,
		listener: l,
		kinds:    kindsByName(kinds),
		reg:      reg,
		ln:       ln,
	}

	r := chi.NewRouter()
	r.Post("/notify", s.handleNotify)
	s.srv = &http.Server{Handler: r}
	go func() { _ = s.srv.Serve(ln) }()

	binding := Binding{Name: name, Role: RoleListener, Addr: adv}
	if err := reg.Bind(ctx, name, binding); err != nil {
		_ = s.srv.Close()
		return nil, err
	}
	return s, nil
}

// Name returns the bound name.
func (s *ListenerServer) Name() string { return s.name }

// Addr returns the server's listen address.
func (s *ListenerServer) Addr() string { return s.ln.Addr().String() }

// Close unbinds the listener and stops its server.
func (s *ListenerServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.reg.Unbind(ctx, s.name)
	return s.srv.Shutdown(ctx)
}

func (s *ListenerServer) handleNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := codec.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	evt, err := s.rebuild(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.listener.Notify(r.Context(), evt); err != nil {
		// The listener's own failure travels back as the delivery error.
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rebuild maps the wire form back to an event, applying name-based kind
// identity: a locally registered kind revalidates the payload, anything
// else arrives schema-less.
func (s *ListenerServer) rebuild(req *notifyRequest) (*event.Event, error) {
	payload := req.payload()
	at := req.At.timestamp()

	kind, ok := s.kinds[req.Kind]
	if !ok {
		kind = event.MustKind(req.Kind, event.AnyPayload)
		if at != nil {
			return event.NewTimedUnchecked(kind, at, payload).Event, nil
		}
		return event.NewUnchecked(kind, payload), nil
	}

	if at != nil {
		t, err := event.NewTimed(kind, at, payload)
		if err != nil {
			return nil, err
		}
		return t.Event, nil
	}
	return event.New(kind, payload)
}

func kindsByName(kinds []*event.Kind) map[string]*event.Kind {
	m := make(map[string]*event.Kind, len(kinds))
	for _, k := range kinds {
		m[k.Name()] = k
	}
	return m
}

// listenerProxy is the producer-side stand-in for a remotely bound
// listener. It implements eventwire.Listener by forwarding Notify over
// HTTP; a network failure is returned as this listener's delivery error and
// isolated like any other.
type listenerProxy struct {
	name    string
	addr    string
	http    *http.Client
	timeout time.Duration
}

func newListenerProxy(name, addr string, timeout time.Duration) *listenerProxy {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &listenerProxy{
		name:    name,
		addr:    addr,
		http:    &http.Client{},
		timeout: timeout,
	}
}

// Notify implements eventwire.Listener.
func (p *listenerProxy) Notify(ctx context.Context, evt *event.Event) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	data, err := codec.Marshal(newNotifyRequest(evt))
	if err != nil {
		return fmt.Errorf("encode notify: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"http://"+p.addr+"/notify", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify %s: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("notify %s: %w", p.name, readError(resp))
	}
	return nil
}

// String names the proxy in logs and journal records.
func (p *listenerProxy) String() string {
	return "remote:" + p.name
}
