package transport

import (
	"net"

	"market/pkg/exception"
)

const udpNetwork = "udp4"

// Multicast sends datagrams to one UDP group.
type Multicast struct {
	conn *net.UDPConn
}

// DialMulticast prepares a sender for group, for example "239.255.0.1:54001".
func DialMulticast(group string) (*Multicast, error) {
	if group == "" {
		return nil, exception.ErrEmptyAddress
	}
	addr, err := net.ResolveUDPAddr(udpNetwork, group)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP(udpNetwork, nil, addr)
	if err != nil {
		return nil, err
	}
	return &Multicast{conn: conn}, nil
}

// Send writes p as one datagram.
func (m *Multicast) Send(p []byte) error {
	if m == nil || m.conn == nil {
		return exception.ErrConnectionClose
	}
	_, err := m.conn.Write(p)
	return err
}

// Addr returns the destination group.
func (m *Multicast) Addr() net.Addr {
	return m.conn.RemoteAddr()
}

// Close releases the socket.
func (m *Multicast) Close() error {
	if m == nil || m.conn == nil {
		return nil
	}
	return m.conn.Close()
}

// ListenMulticast joins group on the default interface and returns the
// connection for reading snapshots.
func ListenMulticast(group string) (*net.UDPConn, error) {
	if group == "" {
		return nil, exception.ErrEmptyAddress
	}
	addr, err := net.ResolveUDPAddr(udpNetwork, group)
	if err != nil {
		return nil, err
	}
	if addr.IP.IsMulticast() {
		return net.ListenMulticastUDP(udpNetwork, nil, addr)
	}
	return net.ListenUDP(udpNetwork, addr)
}
