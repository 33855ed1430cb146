package settlement

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
)

// RedisRewardStore implements the atomic check-and-create with SETNX.
type RedisRewardStore struct {
	rdclient *redis.Client
}

func NewRedisRewardStore(redisURL string, redisPW string, redisDB int) *RedisRewardStore {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPW,
		DB:       redisDB,
	})
	return &RedisRewardStore{
		rdclient: rdclient,
	}
}

func rewardKey(sessionID string) string {
	return fmt.Sprintf("reward|%s", sessionID)
}

func (r *RedisRewardStore) Create(ctx context.Context, record *RewardRecord) error {
	recordInBytes, err := jsoniter.Marshal(record)
	if err != nil {
		return err
	}
	created, err := r.rdclient.SetNX(ctx, rewardKey(record.SessionID), recordInBytes, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return ErrRewardExists
	}
	return nil
}

func (r *RedisRewardStore) Load(ctx context.Context, sessionID string) (*RewardRecord, error) {
	recordInBytes, err := r.rdclient.Get(ctx, rewardKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	record := &RewardRecord{}
	err = jsoniter.Unmarshal([]byte(recordInBytes), record)
	if err != nil {
		return nil, err
	}
	return record, nil
}
