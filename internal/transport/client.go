package transport

import (
	"net"

	"market/internal/model"
	"market/internal/model/enum"
	"market/internal/rpc"
	"market/pkg/exception"
)

// Client writes call frames to an order entry server.
type Client struct {
	conn net.Conn
	buf  []byte
}

// Dial connects to the server at addr.
func Dial(addr string) (*Client, error) {
	if addr == "" {
		return nil, exception.ErrEmptyAddress
	}
	conn, err := net.Dial(tcpNetwork, addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, buf: make([]byte, 0, rpc.MaxFrameSize)}, nil
}

// Call sends one frame for id and args.
func (c *Client) Call(id int32, args ...any) error {
	if c == nil || c.conn == nil {
		return exception.ErrNilInstance
	}
	frame, err := rpc.AppendFrame(c.buf[:0], id, args...)
	if err != nil {
		return err
	}
	c.buf = frame
	_, err = c.conn.Write(frame)
	return err
}

// Place sends a placement for the side selected by call.
func (c *Client) Place(call enum.Call, e model.OrderEntry) error {
	return c.Call(int32(call), e)
}

// Cancel sends a cancellation of order id.
func (c *Client) Cancel(call enum.Call, id int64) error {
	return c.Call(int32(call), id)
}

// Close closes the connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
