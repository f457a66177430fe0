package redis_store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const RESOLVED_CHANNEL_TTL = 1 * time.Hour

func dbKeyResolvedChannel(raw string) string {
	return fmt.Sprintf("channel:resolved:%s", strings.ToLower(strings.TrimPrefix(raw, "@")))
}

// GetResolvedChannel returns the cached canonical chat id for a raw channel
// reference. redis.Nil is returned untouched on a miss.
func GetResolvedChannel(ctx context.Context, cmd redis.Cmdable, raw string) (int64, error) {
	b, err := cmd.Get(ctx, dbKeyResolvedChannel(raw)).Bytes()
	if err != nil {
		return 0, err
	}

	var chatID int64
	err = msgpack.Unmarshal(b, &chatID)
	if err != nil {
		return 0, err
	}

	return chatID, nil
}

func SetResolvedChannel(ctx context.Context, cmd redis.Cmdable, raw string, chatID int64) error {
	b, err := msgpack.Marshal(chatID)
	if err != nil {
		return err
	}

	return cmd.Set(ctx, dbKeyResolvedChannel(raw), b, RESOLVED_CHANNEL_TTL).Err()
}
