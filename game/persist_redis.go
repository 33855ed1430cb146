package game

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

type RedisSessionTracker struct {
	rdclient *redis.Client
}

func NewRedisSessionTracker(redisURL string, redisPW string, redisDB int) *RedisSessionTracker {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPW,
		DB:       redisDB,
	})
	return &RedisSessionTracker{
		rdclient: rdclient,
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session|%s", sessionID)
}

func (r *RedisSessionTracker) Load(sessionID string) (*Session, error) {
	sessionBytes, err := r.rdclient.Get(context.Background(), sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, SessionNotFoundError{SessionID: sessionID}
	} else if err != nil {
		return nil, err
	}
	session := &Session{}
	err = jsoniter.Unmarshal([]byte(sessionBytes), session)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to unmarshal session")
	}
	return session, nil
}

func (r *RedisSessionTracker) Save(sessionID string, session *Session) error {
	sessionBytes, err := jsoniter.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "Unable to marshal session")
	}
	return r.rdclient.Set(context.Background(), sessionKey(sessionID), sessionBytes, 0).Err()
}

func (r *RedisSessionTracker) Remove(sessionID string) error {
	return r.rdclient.Del(context.Background(), sessionKey(sessionID)).Err()
}
