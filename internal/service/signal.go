package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/smartmark/smartmark"
)

// SignalService fans committed row changes out to subscribed sessions
// through a per-user redis channel.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func channelFor(ownerID string) string {
	return "bookmarks:" + ownerID
}

func (s *SignalService) Publish(ctx context.Context, ownerID string, event smartmark.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, channelFor(ownerID), jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Listen subscribes to the user's channel and decodes events until ctx is
// cancelled. The returned channel is closed when the subscription ends.
func (s *SignalService) Listen(ctx context.Context, ownerID string) <-chan smartmark.Event {
	pubsub := s.rdb.Subscribe(ctx, channelFor(ownerID))
	out := make(chan smartmark.Event)

	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var event smartmark.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.ErrorContext(
						ctx, "failed to decode change event",
						slog.String("error", err.Error()),
						slog.String("module", "signal"),
					)
					continue
				}

				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
