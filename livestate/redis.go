package livestate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/dilloncoffman/BlazingPizzas/track"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func viewKey(orderID int64) string {
	return fmt.Sprintf("blazingpizzas:order:%d:view", orderID)
}

const watchSetKey = "blazingpizzas:watches"

func (r *RedisStore) SetView(ctx context.Context, orderID int64, view track.View) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, viewKey(orderID), data, 0)
	pipe.SAdd(ctx, watchSetKey, orderID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetView(ctx context.Context, orderID int64) (*track.View, error) {
	data, err := r.client.Get(ctx, viewKey(orderID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var view track.View
	return &view, json.Unmarshal(data, &view)
}

func (r *RedisStore) RemoveOrder(ctx context.Context, orderID int64) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, viewKey(orderID))
	pipe.SRem(ctx, watchSetKey, orderID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) WatchedOrderIDs(ctx context.Context) ([]int64, error) {
	members, err := r.client.SMembers(ctx, watchSetKey).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Flush removes every mirrored view. Called on startup so views from a
// previous run do not outlive their watches.
func (r *RedisStore) Flush(ctx context.Context) error {
	ids, err := r.WatchedOrderIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		r.RemoveOrder(ctx, id)
	}
	return r.client.Del(ctx, watchSetKey).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
