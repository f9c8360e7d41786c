package boardsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitVisible(p *pendingOps, kind OpKind, id string) bool {
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if p.loading(kind, id) {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestPendingFastSettleNeverShowsIndicator(t *testing.T) {
	p := newPendingOps(50 * time.Millisecond)
	defer p.close()

	settle := p.begin(OpVote, "card-1")
	settle()

	time.Sleep(80 * time.Millisecond)
	assert.False(t, p.loading(OpVote, "card-1"))
}

func TestPendingSlowOperationShowsIndicator(t *testing.T) {
	p := newPendingOps(5 * time.Millisecond)
	defer p.close()

	settle := p.begin(OpAddCard, "col-1")
	assert.False(t, p.loading(OpAddCard, "col-1"))

	assert.True(t, waitVisible(p, OpAddCard, "col-1"))

	settle()
	assert.False(t, p.loading(OpAddCard, "col-1"))
}

func TestPendingCloseStopsTimers(t *testing.T) {
	p := newPendingOps(5 * time.Millisecond)

	p.begin(OpDeleteCard, "card-1")
	p.close()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, p.loading(OpDeleteCard, "card-1"))

	// begin after close is inert.
	settle := p.begin(OpVote, "card-2")
	settle()
	assert.False(t, p.loading(OpVote, "card-2"))
}
