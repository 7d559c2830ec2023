// Package sse streams document validation events to HTTP clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event is one server-sent event: a type line and a JSON data line.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types emitted by the broker.
const (
	EventDocumentValidated = "document.validated"
	EventDocumentRemoved   = "document.removed"
	EventLedgerUpdated     = "ledger.updated"
	EventRunCompleted      = "run.completed"
)

// Document event kinds accepted by PublishDocumentEvent.
const (
	KindValidated = "validated"
	KindRemoved   = "removed"
)

// subscriberBuffer is the number of frames queued per subscriber before
// new frames are dropped for it.
const subscriberBuffer = 64

// DocumentStatus is the payload of a document.validated event.
type DocumentStatus struct {
	Path       string `json:"path"`
	Valid      bool   `json:"valid"`
	IssueCount int    `json:"issue_count"`
}

type documentChange struct {
	kind   string
	path   string
	issues int
}

// event maps the change to its SSE event. ok is false for unknown kinds.
func (c documentChange) event() (Event, bool) {
	switch c.kind {
	case KindValidated:
		return Event{Type: EventDocumentValidated, Data: DocumentStatus{
			Path:       c.path,
			Valid:      c.issues == 0,
			IssueCount: c.issues,
		}}, true
	case KindRemoved:
		return Event{Type: EventDocumentRemoved, Data: map[string]string{"path": c.path}}, true
	}
	return Event{}, false
}

// frame encodes e in the text/event-stream wire format.
func frame(e Event) ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", e.Type, payload), nil
}

// subscribers is the set of connected streams. It is owned by the broker
// loop and never touched from other goroutines.
type subscribers map[chan []byte]struct{}

// send queues msg for every subscriber. A subscriber whose buffer is full
// misses the frame.
func (s subscribers) send(msg []byte) {
	for ch := range s {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (s subscribers) remove(ch chan []byte) {
	if _, ok := s[ch]; ok {
		delete(s, ch)
		close(ch)
	}
}

func (s subscribers) closeAll() {
	for ch := range s {
		delete(s, ch)
		close(ch)
	}
}

// Broker fans validation events out to SSE subscribers. All subscriber
// state lives in a single loop goroutine; the exported methods talk to it
// over channels.
type Broker struct {
	ledgerEvery time.Duration

	joinCh     chan chan []byte
	leaveCh    chan chan []byte
	eventCh    chan Event
	documentCh chan documentChange
	countCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker. ledger.updated is emitted at most once per
// ledgerThrottle; a non-positive value means two seconds.
func NewBroker(ledgerThrottle time.Duration) *Broker {
	if ledgerThrottle <= 0 {
		ledgerThrottle = 2 * time.Second
	}

	b := &Broker{
		ledgerEvery: ledgerThrottle,
		joinCh:      make(chan chan []byte),
		leaveCh:     make(chan chan []byte),
		eventCh:     make(chan Event, 256),
		documentCh:  make(chan documentChange, 256),
		countCh:     make(chan chan int),
		stopCh:      make(chan struct{}),
		stopped:     make(chan struct{}),
	}

	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)

	subs := subscribers{}
	var ledgerSent time.Time

	emit := func(e Event) {
		msg, err := frame(e)
		if err != nil {
			return
		}
		subs.send(msg)
	}

	for {
		select {
		case <-b.stopCh:
			subs.closeAll()
			return

		case ch := <-b.joinCh:
			subs[ch] = struct{}{}

		case ch := <-b.leaveCh:
			subs.remove(ch)

		case e := <-b.eventCh:
			emit(e)

		case change := <-b.documentCh:
			e, ok := change.event()
			if !ok {
				continue
			}
			emit(e)
			if now := time.Now(); now.Sub(ledgerSent) >= b.ledgerEvery {
				ledgerSent = now
				emit(Event{Type: EventLedgerUpdated, Data: map[string]string{}})
			}

		case reply := <-b.countCh:
			reply <- len(subs)
		}
	}
}

// Close stops the loop and closes every subscriber stream. It is safe to
// call more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a new stream. The returned channel is closed when the
// broker shuts down.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.joinCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe drops a stream and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leaveCh <- ch:
	case <-b.stopped:
	}
}

// Subscribers returns the number of connected streams.
func (b *Broker) Subscribers() int {
	if b.closed.Load() {
		return 0
	}
	reply := make(chan int, 1)
	select {
	case b.countCh <- reply:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an arbitrary event, such as run.completed, to every subscriber.
func (b *Broker) Publish(e Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.eventCh <- e:
	case <-b.stopped:
	}
}

// PublishDocumentEvent reports a ledger change for one document, followed by
// a throttled ledger.updated event. Unknown kinds are ignored.
func (b *Broker) PublishDocumentEvent(kind, path string, issues int) {
	if b.closed.Load() {
		return
	}
	select {
	case b.documentCh <- documentChange{kind: kind, path: path, issues: issues}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client until it disconnects or the broker
// closes (GET /api/events).
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
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	stream := b.Subscribe()
	defer b.Unsubscribe(stream)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-stream:
			if !open {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
