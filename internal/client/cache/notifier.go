package cache

import "sync"

// Notifier fans table change signals out to watchers. Signals coalesce: a
// slow watcher sees at most one pending change.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[chan struct{}]struct{})}
}

func (n *Notifier) Subscribe(table string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	if n.subs[table] == nil {
		n.subs[table] = make(map[chan struct{}]struct{})
	}
	n.subs[table][ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		delete(n.subs[table], ch)
		n.mu.Unlock()
	}
	return ch, cancel
}

func (n *Notifier) Notify(table string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[table] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
