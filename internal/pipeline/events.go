package pipeline

import (
	"sync"

	"github.com/google/uuid"
)

// eventBufferSize bounds each subscriber's channel; slow consumers drop
// events rather than stall the pipeline.
const eventBufferSize = 32

// broadcaster fans progress events out to per-job subscribers.
type broadcaster struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan ProgressEvent]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[uuid.UUID]map[chan ProgressEvent]struct{})}
}

// Subscribe returns a channel of events for the job and a cancel function.
func (b *broadcaster) Subscribe(id uuid.UUID) (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, eventBufferSize)

	b.mu.Lock()
	if b.subs[id] == nil {
		b.subs[id] = make(map[chan ProgressEvent]struct{})
	}
	b.subs[id][ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		if set, ok := b.subs[id]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, id)
			}
		}
		b.mu.Unlock()
		close(ch)
	}
}

// Publish delivers an event to all of the job's subscribers without blocking.
func (b *broadcaster) Publish(id uuid.UUID, event ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[id] {
		select {
		case ch <- event:
		default:
		}
	}
}
