package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/medical-ann/internal/cfg"
	"github.com/DRSN-tech/medical-ann/pkg/clients"
	"github.com/DRSN-tech/medical-ann/pkg/e"
	"github.com/DRSN-tech/medical-ann/pkg/jitter"
	"github.com/DRSN-tech/medical-ann/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// unlockScript удаляет ключ, только если он всё ещё принадлежит владельцу токена.
var unlockScript = r.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SlotLock - распределённая блокировка слота загрузки для нескольких инстансов сервиса.
type SlotLock struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewSlotLock(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *SlotLock {
	return &SlotLock{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Lock ждёт освобождения ключа, пока не истечёт ctx. TTL страхует от упавших владельцев.
func (s *SlotLock) Lock(ctx context.Context, key string) (func(), error) {
	const (
		baseBackoff = 20 * time.Millisecond
		maxBackoff  = 500 * time.Millisecond
	)

	lockKey := s.lockKey(key)
	token := uuid.NewString()

	for attempt := 0; ; attempt++ {
		ok, err := s.client.Client.SetNX(ctx, lockKey, token, s.cfg.LockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %v", e.ErrLockTimeout, ctx.Err()))
			}
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		if ok {
			return func() { s.unlock(lockKey, token) }, nil
		}

		select {
		case <-time.After(jitter.ExponentialBackoff(baseBackoff, maxBackoff, attempt, jitter.DefaultJitter)):
		case <-ctx.Done():
			return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %v", e.ErrLockTimeout, ctx.Err()))
		}
	}
}

// unlock снимает блокировку в отдельном контексте: контекст запроса к этому моменту может быть отменён.
func (s *SlotLock) unlock(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	released, err := unlockScript.Run(ctx, s.client.Client, []string{lockKey}, token).Int()
	if err != nil {
		s.logger.Warnf("Redis unlock failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return
	}

	if released == 0 {
		s.logger.Warnf("%v: key=%s", e.ErrLockLost, lockKey)
	}
}

// lockKey возвращает Redis-ключ блокировки слота
func (s *SlotLock) lockKey(key string) string {
	return fmt.Sprintf("upload-slot:%s", key)
}
