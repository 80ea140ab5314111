// Package notify broadcasts UI-refresh hints to connected presentation
// clients. Delivery is fire-and-forget and at-most-once: there is no replay
// buffer, so a listener that connects after an emission never sees it.
// A reconnecting client must re-poll authoritative state instead.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog/log"

	contractx "github.com/assurlab/sydia-agent/agent/contract"
)

// Topic carries every refresh hint; listeners filter on the action field.
const Topic = "sydia.updates"

type Bus struct {
	pubsub *gochannel.GoChannel
	now    func() time.Time
}

var _ contractx.Notifier = (*Bus)(nil)

func NewBus() *Bus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NopLogger{})

	return &Bus{
		pubsub: pubsub,
		now:    time.Now,
	}
}

// PublishBlind broadcasts the event and swallows any failure. It must never
// block or fail the executor call that triggered it: a stalled subscriber
// with a full output buffer would make Publish block, so delivery happens on
// a detached goroutine. Cross-event ordering is not guaranteed; these are
// refresh hints, not a log.
func (b *Bus) PublishBlind(ev contractx.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = b.now().UTC()
	}
	if ev.Fields == nil {
		ev.Fields = map[string]any{}
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Warn().Err(err).Str("action", ev.Action).Msg("failed to marshal notification")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	go func() {
		if err := b.pubsub.Publish(Topic, msg); err != nil {
			log.Warn().Err(err).Str("action", ev.Action).Msg("failed to publish notification")
			return
		}
		log.Debug().Str("action", ev.Action).Str("endpoint", ev.Endpoint).Msg("notification published")
	}()
}

// Subscribe returns the live feed of notifications. The channel closes when
// ctx is canceled or the bus shuts down.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, Topic)
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}
