package entitlement

import (
	"context"
	"log"
	"strconv"

	goredis "github.com/go-redis/redis/v8"
)

// Watcher tracks the premium flag maintained by the external billing sync.
// The flag lives in a Redis key and flips are announced on a PubSub channel;
// the watcher forwards every change to OnChange so the replay controller can
// revoke gated features within the same update cycle.
type Watcher struct {
	rdb     *goredis.Client
	key     string
	channel string

	// OnChange is invoked with the new premium flag on every update.
	OnChange func(premium bool)
}

// NewWatcher creates a Watcher on the given Redis key. Changes are expected
// on the "<key>:updates" PubSub channel.
func NewWatcher(rdb *goredis.Client, key string) *Watcher {
	return &Watcher{
		rdb:     rdb,
		key:     key,
		channel: key + ":updates",
	}
}

// Load reads the current flag from Redis. Returns ok=false when the key is
// absent or unparseable, leaving the caller's default in force.
func (w *Watcher) Load(ctx context.Context) (premium, ok bool) {
	val, err := w.rdb.Get(ctx, w.key).Result()
	if err != nil {
		return false, false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Printf("[entitlement] unparseable flag value %q in %s", val, w.key)
		return false, false
	}
	return b, true
}

// Run subscribes to the update channel and forwards flag changes until ctx
// is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	pubsub := w.rdb.Subscribe(ctx, w.channel)
	defer pubsub.Close()

	log.Printf("[entitlement] watching %s", w.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b, err := strconv.ParseBool(msg.Payload)
			if err != nil {
				log.Printf("[entitlement] ignoring unparseable update %q", msg.Payload)
				continue
			}
			if w.OnChange != nil {
				w.OnChange(b)
			}
		}
	}
}
