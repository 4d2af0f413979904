package internal

import (
	"sync"

	"golang.org/x/exp/slices"
)

// Arbitrary buffer size to make it less likely that we'll block when broadcasting to channels.
// It is still the consumer's responsibility to make sure they're reading the channel.
const subscriberChannelBufferLength = 10

// Broadcaster is our generalized implementation of broadcasters for the publish-subscribe
// model used by the various status providers. It maintains a list of subscription channels
// that some value can be broadcast to.
//
// Previous versions of the SDK had a separate broadcaster implementation for each value type,
// since Go did not have generics.
type Broadcaster[V any] struct {
	subscribers []channelPair[V]
	lock        sync.Mutex
}

// We need to keep track of both the channel we use for sending and closing, and also the
// receive-only channel value that we return to the caller, which is the unique identifier
// for removing a listener.
type channelPair[V any] struct {
	sendCh    chan<- V
	receiveCh <-chan V
}

// NewBroadcaster creates a Broadcaster that operates on the specified value type.
func NewBroadcaster[V any]() *Broadcaster[V] {
	return &Broadcaster[V]{}
}

// AddListener adds a subscriber and returns a channel for it to receive values. This is
// created with a small channel buffer, but it is the consumer's responsibility to consume the
// channel to avoid blocking an SDK goroutine.
func (b *Broadcaster[V]) AddListener() <-chan V {
	ch := make(chan V, subscriberChannelBufferLength)
	var receiveCh <-chan V = ch
	var sendCh chan<- V = ch
	b.lock.Lock()
	defer b.lock.Unlock()
	b.subscribers = append(b.subscribers, channelPair[V]{sendCh: sendCh, receiveCh: receiveCh})
	return receiveCh
}

// RemoveListener removes a subscriber that was previously added with AddListener, and closes
// its channel. If no such subscriber exists, it does nothing.
func (b *Broadcaster[V]) RemoveListener(ch <-chan V) {
	b.lock.Lock()
	defer b.lock.Unlock()
	ss := b.subscribers
	for i, s := range ss {
		if s.receiveCh == ch {
			copy(ss[i:], ss[i+1:])
			ss[len(ss)-1] = channelPair[V]{}
			b.subscribers = ss[:len(ss)-1]
			close(s.sendCh)
			break
		}
	}
}

// HasListeners returns true if there are any current subscribers.
func (b *Broadcaster[V]) HasListeners() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.subscribers) > 0
}

// Broadcast broadcasts a value to all current subscribers.
func (b *Broadcaster[V]) Broadcast(value V) {
	b.lock.Lock()
	ss := slices.Clone(b.subscribers)
	b.lock.Unlock()
	// We don't want to hold the lock while sending, in case a subscriber calls back into the
	// broadcaster (for instance to unsubscribe) from its receiving goroutine.
	for _, ch := range ss {
		ch.sendCh <- value
	}
}

// Close closes all current subscriber channels.
func (b *Broadcaster[V]) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, s := range b.subscribers {
		close(s.sendCh)
	}
	b.subscribers = nil
}
