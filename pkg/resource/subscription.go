package resource

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/eclipse-opendut/opendut-carl/pkg/colog"
)

// EventType distinguishes the two event shapes a subscription can observe.
type EventType int

const (
	EventInserted EventType = iota
	EventRemoved
)

func (t EventType) String() string {
	if t == EventInserted {
		return "Inserted"
	}
	return "Removed"
}

// Event is the commit-ordered change notification delivered to subscribers.
// Value is populated for EventInserted and nil for EventRemoved.
type Event struct {
	TypeName string
	Type     EventType
	ID       [16]byte
	Value    interface{}
}

// As type-asserts ev.Value into R, returning ok=false for EventRemoved or a
// type mismatch.
func As[R Resource](ev Event) (R, bool) {
	v, ok := ev.Value.(R)
	return v, ok
}

const defaultSubscriptionBuffer = 1024

type subscriber struct {
	ch      chan Event
	dropped uint64
}

// hub fans committed events out to per-type subscriber channels. Slow
// subscribers never block writers: a full channel has its oldest entry
// dropped to make room, and a per-subscriber counter tracks how many events
// were lost.
type hub struct {
	mu   sync.Mutex
	subs map[string][]*subscriber
}

func newHub() *hub {
	return &hub{subs: make(map[string][]*subscriber)}
}

func (h *hub) subscribe(typeName string, bufferSize int) (<-chan Event, func()) {
	if bufferSize <= 0 {
		bufferSize = defaultSubscriptionBuffer
	}
	s := &subscriber{ch: make(chan Event, bufferSize)}
	h.mu.Lock()
	h.subs[typeName] = append(h.subs[typeName], s)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		list := h.subs[typeName]
		for i, sub := range list {
			if sub == s {
				h.subs[typeName] = append(list[:i], list[i+1:]...)
				close(s.ch)
				return
			}
		}
	}
	return s.ch, cancel
}

func (h *hub) publish(events []Event) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ev := range events {
		for _, s := range h.subs[ev.TypeName] {
			select {
			case s.ch <- ev:
			default:
				select {
				case <-s.ch:
					atomic.AddUint64(&s.dropped, 1)
					colog.Warn("subscriber queue full, dropped oldest event",
						zap.String("type", ev.TypeName),
						zap.Uint64("dropped-total", atomic.LoadUint64(&s.dropped)),
					)
				default:
				}
				select {
				case s.ch <- ev:
				default:
				}
			}
		}
	}
}

// Subscribe registers interest in every Inserted/Removed event for entity
// type R, starting from the next commit. The returned cancel func must be
// called to release the subscription.
func Subscribe[R Resource](mgr *Manager, bufferSize int) (<-chan Event, func()) {
	return mgr.hub.subscribe(tableName[R](), bufferSize)
}
