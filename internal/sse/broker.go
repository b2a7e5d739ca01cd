// Package sse streams note change and widget refresh events to HTTP clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event types sent to clients.
const (
	TypeNoteSaved     = "notes.saved"
	TypeWidgetRefresh = "widget.refresh"
)

// Change is the payload of a notes.saved event.
type Change struct {
	Count  int    `json:"count"`
	Source string `json:"source"`
}

type subscriber chan []byte

// Broker fans change events out to connected clients.
//
// One loop goroutine owns the subscribers, the event sequence and the refresh
// schedule. widget.refresh goes out at most once per interval; a change that
// lands inside the interval is delivered when the interval ends, so the last
// save is always followed by a refresh.
type Broker struct {
	interval  time.Duration
	keepAlive time.Duration

	join    chan subscriber
	leave   chan subscriber
	changes chan Change
	count   chan chan int

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewBroker starts a broker that sends at most one widget.refresh per
// refreshInterval.
func NewBroker(refreshInterval time.Duration) *Broker {
	if refreshInterval <= 0 {
		refreshInterval = 2 * time.Second
	}
	b := &Broker{
		interval:  refreshInterval,
		keepAlive: 30 * time.Second,
		join:      make(chan subscriber),
		leave:     make(chan subscriber),
		changes:   make(chan Change, 256),
		count:     make(chan chan int),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)

	subs := make(map[subscriber]struct{})
	var (
		seq         uint64
		lastRefresh time.Time
		timer       *time.Timer
		due         <-chan time.Time // non-nil while a refresh is scheduled
	)

	send := func(eventType string, data any) {
		frame, err := encode(seq+1, eventType, data)
		if err != nil {
			return
		}
		seq++
		for s := range subs {
			select {
			case s <- frame:
			default:
				// Slow client; it will catch up on the next refresh.
			}
		}
	}
	refresh := func() {
		lastRefresh = time.Now()
		send(TypeWidgetRefresh, struct{}{})
	}

	for {
		select {
		case <-b.done:
			if timer != nil {
				timer.Stop()
			}
			for s := range subs {
				close(s)
			}
			return

		case s := <-b.join:
			subs[s] = struct{}{}

		case s := <-b.leave:
			if _, ok := subs[s]; ok {
				delete(subs, s)
				close(s)
			}

		case c := <-b.changes:
			send(TypeNoteSaved, c)
			if due != nil {
				continue
			}
			if wait := b.interval - time.Since(lastRefresh); wait > 0 {
				timer = time.NewTimer(wait)
				due = timer.C
				continue
			}
			refresh()

		case <-due:
			due = nil
			refresh()

		case resp := <-b.count:
			resp <- len(subs)
		}
	}
}

func encode(id uint64, eventType string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", id, eventType, payload)), nil
}

// Close stops the loop and closes every subscriber channel. It is safe to
// call more than once.
func (b *Broker) Close() {
	b.stopOnce.Do(func() { close(b.done) })
	<-b.stopped
}

// Subscribe registers a client. The channel is closed on Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(subscriber, 64)
	select {
	case b.join <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	select {
	case b.leave <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	resp := make(chan int, 1)
	select {
	case b.count <- resp:
		return <-resp
	case <-b.stopped:
		return 0
	}
}

// PublishChange announces a saved collection of count notes. source tells
// clients whether the write came from this process ("store") or from
// outside ("external"). Calls after Close are ignored.
func (b *Broker) PublishChange(count int, source string) {
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.changes <- Change{Count: count, Source: source}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	// Ask clients to reconnect quickly; a widget that misses events just
	// reloads the snapshot.
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", 3000)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case frame, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(frame)
			flusher.Flush()
		}
	}
}
