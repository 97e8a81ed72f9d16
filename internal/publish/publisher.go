package publish

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/evalgraph/internal/ctxlog"
)

// DefaultEvent is the event name notices are emitted under.
const DefaultEvent = "graph_rebuilt"

// ErrNotConnected is returned when publishing on a dropped connection.
var ErrNotConnected = errors.New("socket.io client is not connected")

// Publisher delivers rebuild notices.
type Publisher interface {
	Publish(ctx context.Context, n Notice) error
	Close() error
}

// Nop discards every notice.
type Nop struct{}

func (Nop) Publish(context.Context, Notice) error { return nil }
func (Nop) Close() error                          { return nil }

// Options configures a socket.io publisher.
type Options struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	// ConnectTimeout bounds Dial; zero means 15 seconds.
	ConnectTimeout time.Duration
}

// SocketIO emits notices as events on one persistent connection.
type SocketIO struct {
	client *socket.Socket
	event  string
	logger *slog.Logger
}

// Dial connects to the socket.io endpoint and waits until the connection is
// established, failed, ctx is done or the connect timeout passed.
func Dial(ctx context.Context, opts Options) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("component", "publish", "url", opts.URL)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("failed to parse URL: %q has no scheme or host", opts.URL)
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(opts.Namespace, sopts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Publisher connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Publisher connect error.", "error", err)
		connectChan <- err
	})

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	logger.Debug("Initiating publisher connection...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", timeout)
	}

	event := opts.Event
	if event == "" {
		event = DefaultEvent
	}
	return &SocketIO{client: io, event: event, logger: logger}, nil
}

// Publish emits n. Delivery is fire-and-forget once the client accepted it.
func (p *SocketIO) Publish(ctx context.Context, n Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.client.Connected() {
		return ErrNotConnected
	}
	p.logger.Debug("Emitting rebuild notice.", "event", p.event, "graph", n.GraphID)
	p.client.Emit(p.event, n.payload())
	return nil
}

// Close disconnects the client.
func (p *SocketIO) Close() error {
	p.logger.Debug("Disconnecting publisher.", "sid", p.client.Id())
	p.client.Disconnect()
	return nil
}
