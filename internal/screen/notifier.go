package screen

import (
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/arviewer/internal/models"
)

// Notifier fans transitions out to subscribers. Slow subscribers miss events rather than block.
type Notifier struct {
	mu    sync.Mutex
	subs  map[chan models.Transition]struct{}
	depth int
}

func NewNotifier() *Notifier {
	return &Notifier{
		subs:  make(map[chan models.Transition]struct{}),
		depth: 16,
	}
}

// Subscribe registers a subscriber and returns its channel and a cancel func
func (n *Notifier) Subscribe() (<-chan models.Transition, func()) {
	ch := make(chan models.Transition, n.depth)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, ch)
			n.mu.Unlock()
			close(ch)
		})
	}
}

func (n *Notifier) publish(t models.Transition) {
	n.mu.Lock()
	defer n.mu.Unlock()
	dropped := 0
	for sub := range n.subs {
		select {
		case sub <- t:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		slog.Debug("Screen transition dropped", "count", dropped, "to", t.To)
	}
}
