package observe

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/nats-io/nats.go"

	fleetv1alpha1 "github.com/anvil-platform/hostfleet/api/v1alpha1"
)

const (
	DefaultRequestTimeout = 5 * time.Second

	resultSuccess = "success"
)

// NATSLister asks the lattice application manager for its deployed models over
// NATS request/reply. Connections are kept per server address and shared by
// every lattice reachable through it.
type NATSLister struct {
	Log            logr.Logger
	RequestTimeout time.Duration

	mu    sync.Mutex
	conns map[string]*nats.Conn
}

func NewNATSLister(logger logr.Logger, requestTimeout time.Duration) *NATSLister {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return &NATSLister{
		Log:            logger,
		RequestTimeout: requestTimeout,
		conns:          map[string]*nats.Conn{},
	}
}

func (l *NATSLister) ListApps(ctx context.Context, natsAddress, lattice string) ([]fleetv1alpha1.AppStatus, error) {
	nc, err := l.conn(ctx, natsAddress)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.RequestTimeout)
	defer cancel()

	subject := modelListSubject(lattice)
	msg, err := nc.RequestWithContext(ctx, subject, []byte("{}"))
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", subject, err)
	}
	return decodeModelList(msg.Data)
}

// Close drains every cached connection.
func (l *NATSLister) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var firstErr error
	for addr, nc := range l.conns {
		if err := nc.Drain(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("drain nats %s: %w", addr, err)
		}
		delete(l.conns, addr)
	}
	return firstErr
}

// conn returns the cached connection for addr, dialing a new one if needed.
// Dialing happens outside the lock so an unreachable server only stalls the
// fleets that use it.
func (l *NATSLister) conn(ctx context.Context, addr string) (*nats.Conn, error) {
	if nc := l.cached(addr); nc != nil {
		return nc, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := l.Log.WithValues("natsAddress", addr)
	nc, err := nats.Connect(addr,
		nats.Name("hostfleet-operator"),
		nats.Timeout(l.connectTimeout(ctx)),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Info("nats disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", addr, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conns == nil {
		l.conns = map[string]*nats.Conn{}
	}
	if existing, ok := l.conns[addr]; ok && !existing.IsClosed() {
		nc.Close()
		return existing, nil
	}
	l.conns[addr] = nc
	return nc, nil
}

func (l *NATSLister) cached(addr string) *nats.Conn {
	l.mu.Lock()
	defer l.mu.Unlock()
	if nc, ok := l.conns[addr]; ok && !nc.IsClosed() {
		return nc
	}
	return nil
}

// connectTimeout bounds the dial by the request timeout and by ctx.
func (l *NATSLister) connectTimeout(ctx context.Context) time.Duration {
	timeout := l.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left > 0 && left < timeout {
			timeout = left
		}
	}
	return timeout
}

func modelListSubject(lattice string) string {
	return fmt.Sprintf("wadm.api.%s.model.list", lattice)
}

type modelListReply struct {
	Result  string         `json:"result"`
	Message string         `json:"message"`
	Models  []modelSummary `json:"models"`
}

type modelSummary struct {
	Name            string `json:"name"`
	DeployedVersion string `json:"deployed_version"`
}

// decodeModelList keeps only models with a deployed version, reported at that
// version, in reply order.
func decodeModelList(data []byte) ([]fleetv1alpha1.AppStatus, error) {
	var reply modelListReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}
	if reply.Result != resultSuccess {
		return nil, fmt.Errorf("%w: %s: %s", ErrRequestFailed, reply.Result, reply.Message)
	}

	apps := make([]fleetv1alpha1.AppStatus, 0, len(reply.Models))
	for _, m := range reply.Models {
		if m.DeployedVersion == "" {
			continue
		}
		apps = append(apps, fleetv1alpha1.AppStatus{Name: m.Name, Version: m.DeployedVersion})
	}
	return apps, nil
}
