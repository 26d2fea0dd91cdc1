package realtime

import "sync"

// subscriber is one registered recipient of broadcasts. The concrete
// implementation wraps a websocket connection; tests substitute fakes.
type subscriber interface {
	send(message []byte) error
	close()
}

// registry is the gateway's set of open, authenticated connections. All
// lifecycle transitions go through add/remove so no caller can ever
// broadcast to a connection outside its registered window.
type registry struct {
	mu    sync.RWMutex
	conns map[string]subscriber
}

func newRegistry() *registry {
	return &registry{conns: make(map[string]subscriber)}
}

func (r *registry) add(id string, sub subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = sub
}

// remove deletes the connection and reports whether it was present.
// Removing an already-removed connection is a no-op.
func (r *registry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	return true
}

// forEach calls fn for every registered connection. The snapshot is taken
// under the read lock so a concurrent close cannot mutate the map mid-walk;
// a connection closed after the snapshot may still receive one in-flight
// message, which is acceptable.
func (r *registry) forEach(fn func(id string, sub subscriber)) {
	r.mu.RLock()
	snapshot := make(map[string]subscriber, len(r.conns))
	for id, sub := range r.conns {
		snapshot[id] = sub
	}
	r.mu.RUnlock()

	for id, sub := range snapshot {
		fn(id, sub)
	}
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
