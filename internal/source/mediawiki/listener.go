package mediawiki

import (
	"context"
	"errors"
	"fmt"
	"net"

	logx "eopbot/pkg/logx"
)

// maxDatagram is the largest feed record accepted; longer datagrams are truncated
// by the kernel and then fail to decode.
const maxDatagram = 64 << 10

// Handler consumes one datagram.
type Handler interface {
	Handle(ctx context.Context, raw []byte)
}

// Listener reads the UDP change feed. Datagrams are handled one at a time:
// the next read starts only after the previous message was emitted.
type Listener struct {
	addr string
	h    Handler
	conn net.PacketConn
	log  logx.Logger
}

func NewListener(addr string, h Handler, log logx.Logger) *Listener {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Listener{addr: addr, h: h, log: log}
}

func (l *Listener) Name() string { return "mediawiki" }

func (l *Listener) Listen() error {
	conn, err := net.ListenPacket("udp", l.addr)
	if err != nil {
		return fmt.Errorf("mediawiki: listen %s: %w", l.addr, err)
	}
	l.conn = conn
	return nil
}

// Close releases a bound socket that was never served.
func (l *Listener) Close() error {
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}

// Addr reports the bound address, nil before Listen.
func (l *Listener) Addr() net.Addr {
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

func (l *Listener) Serve(ctx context.Context) error {
	if l.conn == nil {
		return errors.New("mediawiki: serve before listen")
	}
	stop := context.AfterFunc(ctx, func() { _ = l.conn.Close() })
	defer stop()
	defer l.conn.Close()

	l.log.Info("udp listener started", logx.String("addr", l.conn.LocalAddr().String()))
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				l.log.Info("udp listener stopped")
				return nil
			}
			l.log.Warn("udp read", logx.Err(err))
			continue
		}
		l.log.Debug("datagram", logx.Int("bytes", n), logx.String("from", from.String()))

		raw := make([]byte, n)
		copy(raw, buf[:n])
		l.h.Handle(ctx, raw)
	}
}
