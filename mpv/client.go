// Package mpv talks to a running player over its JSON IPC socket
// (--input-ipc-server).
package mpv

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/node"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

// Option configures a [Client].
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) { c.log = logger }
}

// WithEventBuffer sets the capacity of the event channel. Values below one
// leave the default of 64.
func WithEventBuffer(n int) Option {
	return func(c *Client) { c.buffer = n }
}

type reply struct {
	data *node.Node
	err  error
}

// Client is a JSON IPC connection. Requests may be issued from any
// goroutine; events are delivered in arrival order on [Client.Events].
type Client struct {
	conn   net.Conn
	log    log.Logger
	buffer int

	wmu sync.Mutex // serializes writes

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan reply
	err     error

	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Dial connects to the IPC socket at path.
func Dial(ctx context.Context, path string, opts ...Option) (*Client, error) {
	var d net.Dialer

	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, pkg.ErrIPC.Wrap(err).With(slog.String("path", path))
	}

	return NewClient(conn, opts...), nil
}

// NewClient wraps an established connection and starts reading from it.
func NewClient(conn net.Conn, opts ...Option) *Client {
	c := &Client{
		conn:    conn,
		buffer:  64,
		pending: make(map[int64]chan reply),
		done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.buffer < 1 {
		c.buffer = 64
	}

	c.events = make(chan Event, c.buffer)

	go c.read()

	return c
}

// Events returns the event channel. It is closed when the connection ends.
func (c *Client) Events() <-chan Event { return c.events }

func (c *Client) read() {
	defer close(c.events)

	sc := bufio.NewScanner(c.conn)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		msg := node.NewNone()
		if err := msg.UnmarshalJSON(line); err != nil {
			c.log.Warn("malformed IPC message", slog.Any("error", err))

			continue
		}

		if _, ok := msg.Get("event"); ok {
			c.deliver(parseEvent(msg))

			continue
		}

		c.resolve(msg)
	}

	err := sc.Err()
	if err == nil {
		err = io.EOF
	}

	c.fail(err)
}

func (c *Client) deliver(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Client) resolve(msg *node.Node) {
	id, ok := msg.GetInt64("request_id")
	if !ok {
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()

	if !ok {
		return
	}

	r := reply{data: node.NewNone()}
	if data, ok := msg.Get("data"); ok {
		r.data = data
	}

	if status, _ := msg.GetString("error"); status != "success" {
		r.err = pkg.ErrCommand.With(slog.String("status", status))
	}

	ch <- r
}

func (c *Client) fail(err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.err = err
		pending := c.pending
		c.pending = nil
		c.mu.Unlock()

		for _, ch := range pending {
			ch <- reply{err: pkg.ErrIPC.Wrap(err)}
		}

		close(c.done)
	})
}

func (c *Client) write(b []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if _, err := c.conn.Write(append(b, '\n')); err != nil {
		return pkg.ErrIPC.Wrap(err)
	}

	return nil
}

// Command runs a command given as separate arguments and returns its
// result data.
func (c *Client) Command(ctx context.Context, args ...any) (*node.Node, error) {
	cmd, err := node.FromNative(args)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()

	if c.pending == nil {
		err := c.err
		c.mu.Unlock()

		return nil, pkg.ErrClosed.Wrap(err)
	}

	c.nextID++
	id := c.nextID
	ch := make(chan reply, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	req := node.NewMap()
	req.SetNode("command", cmd)
	req.SetInt64("request_id", id)

	b, err := req.MarshalJSON()
	if err != nil {
		c.forget(id)

		return nil, pkg.ErrJSONMarshal.Wrap(err)
	}

	c.log.TraceContext(ctx, "ipc request", slog.String("request", string(b)))

	if err := c.write(b); err != nil {
		c.forget(id)

		return nil, err
	}

	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		c.forget(id)

		return nil, ctx.Err()
	}
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// CommandString sends cmd in input.conf syntax. The player does not reply
// to text commands, so only transport errors are reported.
func (c *Client) CommandString(_ context.Context, cmd string) error {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" || strings.ContainsAny(cmd, "\r\n") {
		return pkg.ErrCommand.With(slog.String("cmd", cmd))
	}

	if strings.HasPrefix(cmd, "{") {
		return pkg.ErrCommand.With(slog.String("cmd", cmd), slog.String("reason", "looks like JSON"))
	}

	select {
	case <-c.done:
		return pkg.ErrClosed
	default:
	}

	return c.write([]byte(cmd))
}

// GetProperty returns the current value of a property.
func (c *Client) GetProperty(ctx context.Context, name string) (*node.Node, error) {
	return c.Command(ctx, "get_property", name)
}

// ObserveProperty subscribes to changes of name. The player sends the
// current value right away.
func (c *Client) ObserveProperty(ctx context.Context, id int64, name string) error {
	_, err := c.Command(ctx, "observe_property", id, name)

	return err
}

// ExpandPath resolves player path prefixes such as ~~/.
func (c *Client) ExpandPath(ctx context.Context, path string) (string, error) {
	v, err := c.Command(ctx, "expand-path", path)
	if err != nil {
		return "", err
	}

	s, ok := v.Str()
	if !ok {
		return "", pkg.ErrInvalidFormat.With(slog.String("kind", v.Kind().String()))
	}

	return s, nil
}

// Close closes the connection. Pending requests fail.
func (c *Client) Close() error {
	err := c.conn.Close()
	c.fail(net.ErrClosed)

	if errors.Is(err, net.ErrClosed) {
		return nil
	}

	return err
}
