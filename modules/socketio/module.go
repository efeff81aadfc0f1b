// Package socketio provides the `relay "socketio"` driver: every progress
// event of a run is re-emitted to a socket.io namespace.
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/progress"
	"github.com/specialistvlad/cascade/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

const (
	defaultEvent   = "cascade:event"
	defaultTimeout = 10 * time.Second
)

// Input defines the arguments of the `relay "socketio"` block.
type Input struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	Event              string `hcl:"event,optional"`
	Timeout            string `hcl:"timeout,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
}

// Register registers the driver with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRelay("socketio", &registry.RelayDriver{
		NewInput: func() any { return new(Input) },
		New: func(ctx context.Context, input any) (progress.Sink, error) {
			in, ok := input.(*Input)
			if !ok {
				return nil, fmt.Errorf("unexpected input type %T", input)
			}
			relay, err := Dial(ctx, in)
			if err != nil {
				return nil, err
			}
			return relay, nil
		},
	})
}

// settings is the validated form of Input.
type settings struct {
	baseURL   string
	path      string
	namespace string
	event     string
	timeout   time.Duration
	insecure  bool
}

func parseInput(in *Input) (*settings, error) {
	parsedURL, err := url.Parse(in.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("url %q must be absolute", in.URL)
	}

	s := &settings{
		baseURL:   fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host),
		path:      parsedURL.Path,
		namespace: in.Namespace,
		event:     in.Event,
		timeout:   defaultTimeout,
		insecure:  in.InsecureSkipVerify,
	}
	if s.namespace == "" {
		s.namespace = "/"
	}
	if s.event == "" {
		s.event = defaultEvent
	}
	if in.Timeout != "" {
		if s.timeout, err = time.ParseDuration(in.Timeout); err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", in.Timeout, err)
		}
	}
	return s, nil
}

// Relay is a connected socket.io client acting as a progress sink.
type Relay struct {
	mu    sync.Mutex
	io    *socket.Socket
	event string
}

// Dial connects to the server and waits for the namespace handshake.
func Dial(ctx context.Context, in *Input) (*Relay, error) {
	cfg, err := parseInput(in)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx).With("relay", "socketio", "url", in.URL, "namespace", cfg.namespace)

	opts := socket.DefaultOptions()
	if cfg.path != "" {
		opts.SetPath(cfg.path)
	}
	if cfg.insecure {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(cfg.baseURL, opts)
	io := manager.Socket(cfg.namespace, opts)

	connected := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Relay connected", "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connected <- err:
		default:
		}
	})

	io.Connect()

	timer := time.NewTimer(cfg.timeout)
	defer timer.Stop()
	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("failed to connect relay: %w", err)
		}
	case <-timer.C:
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s while waiting for initial connection", cfg.timeout)
	case <-ctx.Done():
		io.Disconnect()
		return nil, ctx.Err()
	}

	return &Relay{io: io, event: cfg.event}, nil
}

// encodeEvent turns ev into the generic JSON object socket.io sends.
func encodeEvent(ev progress.Event) (map[string]any, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Relay) Publish(ctx context.Context, ev progress.Event) error {
	data, err := encodeEvent(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.io == nil {
		return errors.New("relay is closed")
	}
	ctxlog.FromContext(ctx).Debug("Relaying event.", "event", r.event, "kind", ev.Kind, "seq", ev.Seq)
	r.io.Emit(r.event, data)
	return nil
}

// Close disconnects the client. Further publishes fail.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.io != nil {
		r.io.Disconnect()
		r.io = nil
	}
	return nil
}
