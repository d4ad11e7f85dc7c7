package dbconn

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OpenRedis parses a Redis URL the way the teacher's db.ConnectRedis does,
// falling back to a bare address if the URL doesn't parse as a redis:// DSN.
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is not set")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// QueueKey names the Redis list backing one runtime queue, generalizing the
// teacher's single hardcoded zennews:queue:transform list into one list per
// (queue, kind) pair so process-link and refresh-related don't share a lane.
func QueueKey(queue, kind string) string {
	return fmt.Sprintf("linkmind:queue:%s:%s", queue, kind)
}

// PushTaskID enqueues a task id for a worker to claim.
func PushTaskID(ctx context.Context, rdb *redis.Client, key, taskID string) error {
	return rdb.LPush(ctx, key, taskID).Err()
}

// PopTaskID blocks up to timeout waiting for a task id to claim.
func PopTaskID(ctx context.Context, rdb *redis.Client, key string, timeout time.Duration) (string, error) {
	result, err := rdb.BRPop(ctx, timeout, key).Result()
	if err != nil {
		return "", err
	}
	return result[1], nil
}

// DelayedKey names the sorted set holding a queue/kind's delayed retries.
func DelayedKey(queue, kind string) string {
	return fmt.Sprintf("linkmind:delayed:%s:%s", queue, kind)
}

// PushDelayed schedules a task id to become claimable after `at`, backing
// the runtime's retry-backoff schedule. It is implemented as a sorted set so
// a scheduler goroutine can move due entries into the live queue.
func PushDelayed(ctx context.Context, rdb *redis.Client, key, taskID string, at time.Time) error {
	return rdb.ZAdd(ctx, key, redis.Z{Score: float64(at.Unix()), Member: taskID}).Err()
}

// PopDue moves every delayed entry whose time has arrived onto the live
// queue and returns their ids.
func PopDue(ctx context.Context, rdb *redis.Client, delayedKey, liveKey string, now time.Time) ([]string, error) {
	ids, err := rdb.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	pipe := rdb.TxPipeline()
	for _, id := range ids {
		pipe.ZRem(ctx, delayedKey, id)
		pipe.LPush(ctx, liveKey, id)
	}
	_, err = pipe.Exec(ctx)
	return ids, err
}
