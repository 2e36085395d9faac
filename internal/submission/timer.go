package submission

import (
	"sync"
	"time"
)

// navTimer defers a navigation. The callback checks the cancelled flag
// under the lock before firing, so Cancel after the timer has been
// scheduled but before it runs reliably suppresses the navigation.
type navTimer struct {
	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
}

func deferNav(d time.Duration, fn func()) *navTimer {
	n := &navTimer{}
	n.timer = time.AfterFunc(d, func() {
		n.mu.Lock()
		if n.cancelled {
			n.mu.Unlock()
			return
		}
		n.mu.Unlock()
		fn()
	})
	return n
}

func (n *navTimer) Cancel() {
	n.mu.Lock()
	n.cancelled = true
	n.mu.Unlock()
	n.timer.Stop()
}
