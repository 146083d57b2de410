package apiserver

import "sync"

// Broadcaster fans a single machine's state snapshots out to every
// connected WebSocket client. There is no per-session filtering the way
// the teacher's broadcaster has, since one apiserver instance watches
// exactly one machine.
type Broadcaster struct {
	mu            sync.RWMutex
	subscriptions map[chan StateResponse]bool
	broadcast     chan StateResponse
	register      chan chan StateResponse
	unregister    chan chan StateResponse
	done          chan struct{}
}

// NewBroadcaster creates and starts a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscriptions: make(map[chan StateResponse]bool),
		broadcast:     make(chan StateResponse, 256),
		register:      make(chan chan StateResponse),
		unregister:    make(chan chan StateResponse),
		done:          make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster) run() {
	for {
		select {
		case ch := <-b.register:
			b.mu.Lock()
			b.subscriptions[ch] = true
			b.mu.Unlock()

		case ch := <-b.unregister:
			b.mu.Lock()
			if b.subscriptions[ch] {
				delete(b.subscriptions, ch)
				close(ch)
			}
			b.mu.Unlock()

		case event := <-b.broadcast:
			b.mu.RLock()
			for ch := range b.subscriptions {
				select {
				case ch <- event:
				default:
					// Client is too slow; drop this update rather than
					// block the broadcaster.
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			b.mu.Lock()
			for ch := range b.subscriptions {
				close(ch)
			}
			b.subscriptions = make(map[chan StateResponse]bool)
			b.mu.Unlock()
			return
		}
	}
}

// Subscribe registers a new client channel for state updates.
func (b *Broadcaster) Subscribe() chan StateResponse {
	ch := make(chan StateResponse, 64)
	b.register <- ch
	return ch
}

// Unsubscribe removes and closes a client channel.
func (b *Broadcaster) Unsubscribe(ch chan StateResponse) {
	b.unregister <- ch
}

// Broadcast publishes a snapshot to every subscribed client.
func (b *Broadcaster) Broadcast(s StateResponse) {
	select {
	case b.broadcast <- s:
	default:
		// Broadcast channel full; drop rather than block the caller.
	}
}

// Close shuts down the broadcaster and disconnects every client.
func (b *Broadcaster) Close() {
	close(b.done)
}

// SubscriptionCount reports the number of connected clients.
func (b *Broadcaster) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}
