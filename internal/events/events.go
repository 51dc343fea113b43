// Package events fans out in-process change notifications.
package events

import (
	"sync"

	"github.com/cskr/pubsub"
)

const capacity = 16

// StreamBlockChange is published whenever a camera's stream block flag is set.
type StreamBlockChange struct {
	Instance string `json:"instance"`
	CameraID string `json:"camera_id"`
	Blocked  bool   `json:"blocked"`
}

// StreamBlockTopic is the topic carrying changes for one connection instance.
func StreamBlockTopic(instance string) string {
	return "stream_block_changed_" + instance
}

type Notifier struct {
	ps *pubsub.PubSub

	mu     sync.Mutex
	closed bool
}

func NewNotifier() *Notifier {
	return &Notifier{ps: pubsub.New(capacity)}
}

// PublishStreamBlock notifies the subscribers of change.Instance.
func (n *Notifier) PublishStreamBlock(change StreamBlockChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.ps.Pub(change, StreamBlockTopic(change.Instance))
}

// SubscribeStreamBlock calls fn, in its own goroutine, for every change of
// the given instance until the returned func is called.
func (n *Notifier) SubscribeStreamBlock(instance string, fn func(StreamBlockChange)) func() {
	topic := StreamBlockTopic(instance)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return func() {}
	}
	ch := n.ps.Sub(topic)
	n.mu.Unlock()

	go func() {
		for msg := range ch {
			if c, ok := msg.(StreamBlockChange); ok {
				fn(c)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if !n.closed {
				n.ps.Unsub(ch, topic)
			}
		})
	}
}

// Close stops delivery and ends every subscription.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	n.ps.Shutdown()
}
