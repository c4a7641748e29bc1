package monitor

import (
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
)

// NoticeKind picks how a notice is styled.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// DefaultNoticeTTL is how long a notice stays visible.
const DefaultNoticeTTL = 3 * time.Second

// Notice is a transient message for the operator.
type Notice struct {
	Text    string
	Kind    NoticeKind
	Expires time.Time
}

// Notices holds at most one visible notice. Posting replaces whatever is
// showing and the cache drops the entry once its deadline passes.
type Notices struct {
	ttl   time.Duration
	cache *ttlworker.Cache[string, Notice]

	mu     sync.RWMutex
	closed bool
}

const currentNotice = "current"

// NewNotices returns a Notices whose entries expire after ttl. Non-positive
// values use DefaultNoticeTTL. Close stops the cache's collector.
func NewNotices(ttl time.Duration) *Notices {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Notices{
		ttl:   ttl,
		cache: ttlworker.NewCache[string, Notice](ttl),
	}
}

// Post shows text, replacing any current notice.
func (n *Notices) Post(kind NoticeKind, text string) Notice {
	notice := Notice{Text: text, Kind: kind, Expires: time.Now().Add(n.ttl)}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.closed {
		n.cache.Set(currentNotice, notice)
	}
	return notice
}

// Current returns the visible notice, if any.
func (n *Notices) Current() (Notice, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return Notice{}, false
	}
	notice := n.cache.Get(currentNotice)
	if notice.Text == "" {
		return Notice{}, false
	}
	// Get extends the entry by the full ttl; pin it back to the deadline
	// fixed at Post so reads never keep a notice alive.
	n.cache.Touch(currentNotice, time.Until(notice.Expires))
	return notice, true
}

// Dismiss hides the current notice.
func (n *Notices) Dismiss() {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.closed {
		n.cache.Delete(currentNotice)
	}
}

// Close releases the cache. Later posts are dropped.
func (n *Notices) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		n.cache.Destroy()
	}
}
