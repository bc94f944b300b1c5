// Package wsfeed is a thin WebSocket client implementing the on_tick /
// on_bar inbound contract, used by the `run` and `replay` CLI
// subcommands to drive the core from a WebSocket feed instead of a
// live brokerage connection: a gorilla/websocket dialer with handshake
// timeout, read-deadline/pong-handler keepalive, and exponential
// reconnect backoff, decoding a typed {tick, bar} envelope.
package wsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Matswm86/Core/internal/domain"
)

// EnvelopeKind discriminates the two event shapes the inbound feed can
// carry, matching on_tick/on_bar callbacks.
type EnvelopeKind string

const (KindTick EnvelopeKind = "tick"
	KindBar EnvelopeKind = "bar")

// Envelope is the wire shape read off the socket: exactly one of Tick or
// Bar is populated depending on Kind.
type Envelope struct {
	Kind EnvelopeKind `json:"kind"`
	Symbol string `json:"symbol"`
	Timeframe domain.Timeframe `json:"timeframe,omitempty"`
	Tick *tickWire `json:"tick,omitempty"`
	Bar *barWire `json:"bar,omitempty"`
}

type tickWire struct {
	Timestamp time.Time `json:"timestamp"`
	Last float64 `json:"last"`
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
	LastVolume float64 `json:"last_volume"`
}

type barWire struct {
	Timestamp time.Time `json:"timestamp"`
	Open float64 `json:"open"`
	High float64 `json:"high"`
	Low float64 `json:"low"`
	Close float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Feed connects to a single WebSocket URL emitting Envelope JSON frames
// and forwards decoded ticks/bars to an InboundFeed (normally the
// orchestrator).
type Feed struct {
	URL string
	sink domain.InboundFeed
	log zerolog.Logger
}

// New builds a Feed that forwards decoded events to sink.
func New(url string, sink domain.InboundFeed, log zerolog.Logger) *Feed {
	return &Feed{URL: url, sink: sink, log: log}
}

// Run connects and dispatches until ctx is cancelled, reconnecting with
// exponential backoff on transport errors.
func (f *Feed) Run(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Str("url", f.URL).Msg("wsfeed disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (f *Feed) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.URL, err)
	}
	defer conn.Close()

	f.log.Info().Str("url", f.URL).Msg("wsfeed connected")

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		})

	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go f.keepalive(pingCtx, conn)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			f.log.Warn().Err(err).Msg("wsfeed: dropping malformed envelope")
			continue
		}
		f.dispatch(env)
	}
}

func (f *Feed) keepalive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (f *Feed) dispatch(env Envelope) {
	switch env.Kind {
	case KindTick:
		if env.Tick == nil {
			return
		}
		f.sink.OnTick(env.Symbol, domain.TickSnapshot{
				Symbol: env.Symbol,
				Timestamp: env.Tick.Timestamp,
				Last: env.Tick.Last,
				Bid: env.Tick.Bid,
				Ask: env.Tick.Ask,
				LastVolume: env.Tick.LastVolume,
			})
	case KindBar:
		if env.Bar == nil {
			return
		}
		f.sink.OnBar(env.Symbol, env.Timeframe, domain.Bar{
				Symbol: env.Symbol,
				Timeframe: env.Timeframe,
				Timestamp: env.Bar.Timestamp,
				Open: env.Bar.Open,
				High: env.Bar.High,
				Low: env.Bar.Low,
				Close: env.Bar.Close,
				Volume: env.Bar.Volume,
			})
	default:
		f.log.Warn().Str("kind", string(env.Kind)).Msg("wsfeed: unknown envelope kind")
	}
}
