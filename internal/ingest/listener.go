// Package ingest receives newline-delimited JSON unit records over UDP and
// hands each decoded record to a caller-supplied handler.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/daxtonb/jtac-bridge/internal/unit"
)

const (
	maxDatagramSize = 1024
	delimiter       = '\n'
)

// Handler is invoked once per successfully decoded record. It may be
// called from any goroutine and must not assume goroutine confinement.
type Handler func(unit.Record)

// Listener binds a UDP socket and decodes one unit record per datagram.
type Listener struct {
	addr    string
	logger  zerolog.Logger
	limiter *rate.Limiter
}

// Option configures a Listener.
type Option func(*Listener)

// WithRateLimit bounds the rate at which datagrams are accepted for
// decoding. A datagram arriving with no tokens available is dropped
// without being parsed.
func WithRateLimit(burst, perSecond int) Option {
	return func(l *Listener) {
		l.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New constructs a Listener bound to addr (expected to be a loopback
// address, per the ingress contract).
func New(addr string, logger zerolog.Logger, opts ...Option) *Listener {
	l := &Listener{addr: addr, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Listen binds the UDP socket and runs until ctx is cancelled or a
// socket-level error occurs. handler is invoked synchronously once per
// successfully decoded record.
func (l *Listener) Listen(ctx context.Context, handler Handler) error {
	udpAddr, err := net.ResolveUDPAddr("udp", l.addr)
	if err != nil {
		return fmt.Errorf("ingest: resolve %s: %w", l.addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("ingest: listen %s: %w", l.addr, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	l.logger.Info().Str("addr", l.addr).Msg("datagram listener started")

	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ingest: fatal read: %w", err)
		}

		if l.limiter != nil && !l.limiter.Allow() {
			l.logger.Warn().Msg("datagram dropped: ingest rate limit exceeded")
			continue
		}

		l.handleDatagram(buf[:n], handler)
	}
}

func (l *Listener) handleDatagram(datagram []byte, handler Handler) {
	idx := bytes.IndexByte(datagram, delimiter)
	if idx < 0 {
		l.logger.Warn().Int("size", len(datagram)).Msg("datagram rejected: missing delimiter")
		return
	}

	record, err := unit.Decode(datagram[:idx])
	if err != nil {
		l.logger.Warn().Err(err).Msg("datagram rejected: decode error")
		return
	}

	handler(record)
}
