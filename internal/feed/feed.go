// Package feed streams finalized utterances to WebSocket clients, e.g. an
// editor plugin or a browser overlay showing live dictation. New clients
// first receive a backlog of recent utterances, then every utterance as it
// is emitted.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/voxtype/voxtype/internal/history"
	"github.com/voxtype/voxtype/internal/segmenter"
)

const (
	// writeTimeout bounds a single message write to one client.
	writeTimeout = 5 * time.Second

	// subscriberBuffer is the per-client message queue. A client that falls
	// further behind than this is disconnected.
	subscriberBuffer = 16
)

// Broadcaster fans finalized utterances out to connected WebSocket clients.
// It implements both segmenter.Sink (producer side) and http.Handler
// (consumer side).
type Broadcaster struct {
	logger      *slog.Logger
	backlog     *history.Buffer
	backlogSize int

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

// New constructs a Broadcaster. backlog may be nil to disable the initial
// replay; backlogSize caps how many entries a new client receives.
func New(logger *slog.Logger, backlog *history.Buffer, backlogSize int) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		logger:      logger,
		backlog:     backlog,
		backlogSize: backlogSize,
		subs:        make(map[chan []byte]struct{}),
	}
}

// Emit implements segmenter.Sink. The utterance is serialized once and
// queued to every connected client; clients that cannot keep up are
// disconnected rather than allowed to stall the pipeline.
func (b *Broadcaster) Emit(_ context.Context, u segmenter.Utterance) error {
	payload, err := json.Marshal(history.Entry{
		Text:          u.Text,
		AudioDuration: u.AudioDuration,
		EndedAt:       u.EndedAt,
	})
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- payload:
		default:
			// Slow client: close its queue, the serve loop disconnects it.
			delete(b.subs, ch)
			close(ch)
			b.logger.Warn("dropping slow feed client")
		}
	}
	return nil
}

// Subscribers returns the number of connected clients.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// ServeHTTP implements http.Handler by upgrading the request to a WebSocket
// and streaming utterances until the client disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		b.logger.Warn("feed accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	// The feed is write-only; CloseRead surfaces client disconnects through
	// the returned context.
	ctx := conn.CloseRead(r.Context())

	if b.backlog != nil {
		for _, e := range b.backlog.Recent(b.backlogSize) {
			payload, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if err := writeMessage(ctx, conn, payload); err != nil {
				return
			}
		}
	}

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case payload, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusPolicyViolation, "client too slow")
				return
			}
			if err := writeMessage(ctx, conn, payload); err != nil {
				return
			}
		}
	}
}

func (b *Broadcaster) subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broadcaster) unsubscribe(ch chan []byte) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// writeMessage writes one text message with a bounded timeout.
func writeMessage(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}

var _ segmenter.Sink = (*Broadcaster)(nil)
