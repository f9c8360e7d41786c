package boardsync

import (
	"sync"
	"time"
)

// LoadingDelay is how long an operation must stay in flight before its
// loading indicator becomes visible. Fast round trips never flicker.
const LoadingDelay = 200 * time.Millisecond

// OpKind identifies a class of in-flight mutation for indicator purposes.
type OpKind string

const (
	OpAddCard    OpKind = "add_card"
	OpVote       OpKind = "vote"
	OpUpdateCard OpKind = "update_card"
	OpDeleteCard OpKind = "delete_card"
)

type opKey struct {
	kind OpKind
	id   string
}

// pendingOps tracks in-flight operations and drives delayed loading
// indicators. It carries no correctness weight: the snapshot is already
// mutated optimistically by the time an operation is registered here.
type pendingOps struct {
	mu      sync.Mutex
	delay   time.Duration
	timers  map[opKey]*time.Timer
	visible map[opKey]bool
	closed  bool
}

func newPendingOps(delay time.Duration) *pendingOps {
	return &pendingOps{
		delay:   delay,
		timers:  make(map[opKey]*time.Timer),
		visible: make(map[opKey]bool),
	}
}

// begin registers an in-flight operation and returns its settle function.
// The indicator turns visible only if settle has not run within the delay.
func (p *pendingOps) begin(kind OpKind, id string) func() {
	key := opKey{kind: kind, id: id}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return func() {}
	}
	if t, ok := p.timers[key]; ok {
		t.Stop()
	}
	p.timers[key] = time.AfterFunc(p.delay, func() {
		p.mu.Lock()
		if !p.closed {
			if _, ok := p.timers[key]; ok {
				p.visible[key] = true
			}
		}
		p.mu.Unlock()
	})
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		if t, ok := p.timers[key]; ok {
			t.Stop()
			delete(p.timers, key)
		}
		delete(p.visible, key)
		p.mu.Unlock()
	}
}

// loading reports whether the indicator for the given operation is visible.
func (p *pendingOps) loading(kind OpKind, id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible[opKey{kind: kind, id: id}]
}

// close stops every delayed indicator timer. In-flight network calls are not
// aborted; their completions settle against whatever snapshot remains.
func (p *pendingOps) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for key, t := range p.timers {
		t.Stop()
		delete(p.timers, key)
	}
	p.visible = make(map[opKey]bool)
}
