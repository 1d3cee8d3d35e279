// Package broadcast fans messages out to every live subscriber of a channel.
package broadcast

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// subscriberBuffer bounds how far a slow subscriber may fall behind before
// messages to it are dropped.
const subscriberBuffer = 16

// Feed publishes payloads to all current subscribers.
type Feed interface {
	Publish(ctx context.Context, payload []byte) error
	// Subscribe returns a subscription that receives every payload published
	// after it was created. The caller must Close it.
	Subscribe(ctx context.Context) (Subscription, error)
}

type Subscription interface {
	C() <-chan []byte
	Close() error
}

// New returns a Redis pub/sub feed on channel, or an in-process feed when
// rdb is nil.
func New(rdb *redis.Client, channel string) Feed {
	if rdb == nil {
		return NewMemoryFeed()
	}
	return NewRedisFeed(rdb, channel)
}

type redisFeed struct {
	rdb     *redis.Client
	channel string
}

func NewRedisFeed(rdb *redis.Client, channel string) Feed {
	return &redisFeed{rdb: rdb, channel: channel}
}

func (f *redisFeed) Publish(ctx context.Context, payload []byte) error {
	if err := f.rdb.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", f.channel, err)
	}
	return nil
}

func (f *redisFeed) Subscribe(ctx context.Context) (Subscription, error) {
	pubsub := f.rdb.Subscribe(ctx, f.channel)

	// Wait for confirmation that the subscription is live.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", f.channel, err)
	}

	sub := &redisSubscription{pubsub: pubsub, out: make(chan []byte, subscriberBuffer)}
	go sub.pump()
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	out    chan []byte
}

func (s *redisSubscription) pump() {
	defer close(s.out)
	for msg := range s.pubsub.Channel() {
		select {
		case s.out <- []byte(msg.Payload):
		default:
		}
	}
}

func (s *redisSubscription) C() <-chan []byte { return s.out }

// Close ends the Redis subscription, which in turn closes C.
func (s *redisSubscription) Close() error { return s.pubsub.Close() }

type memoryFeed struct {
	mu   sync.RWMutex
	subs map[*memorySubscription]struct{}
}

func NewMemoryFeed() Feed {
	return &memoryFeed{subs: make(map[*memorySubscription]struct{})}
}

func (f *memoryFeed) Publish(_ context.Context, payload []byte) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for s := range f.subs {
		select {
		case s.out <- payload:
		default:
		}
	}
	return nil
}

func (f *memoryFeed) Subscribe(_ context.Context) (Subscription, error) {
	s := &memorySubscription{feed: f, out: make(chan []byte, subscriberBuffer)}
	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()
	return s, nil
}

type memorySubscription struct {
	feed *memoryFeed
	out  chan []byte
	once sync.Once
}

func (s *memorySubscription) C() <-chan []byte { return s.out }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
		close(s.out)
	})
	return nil
}
