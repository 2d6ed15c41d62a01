package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 仅当值匹配时删除，避免释放他人持有的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock 分布式锁句柄
type Lock struct {
	key   string
	token string
	held  bool
}

// TryLock 尝试获取锁（SET NX PX），Redis 未启用时直接视为获取成功
func TryLock(ctx context.Context, key string, ttl time.Duration) (*Lock, bool, error) {
	lock := &Lock{key: buildKey(key), token: uuid.NewString()}
	if !Enabled() {
		return lock, true, nil
	}
	ok, err := redisClient.SetNX(ctx, lock.key, lock.token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	lock.held = ok
	return lock, ok, nil
}

// Unlock 释放锁
func (l *Lock) Unlock(ctx context.Context) error {
	if l == nil || !l.held || !Enabled() {
		return nil
	}
	l.held = false
	err := unlockScript.Run(ctx, redisClient, []string{l.key}, l.token).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
