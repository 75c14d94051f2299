package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/utils/config"
	"github.com/dwarvesf/xray-txhistory/internal/utils/logger"
)

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedis connects to redis and pings it. It returns nil without error when
// no address is configured.
func NewRedis(cfg config.RedisConfig, logger *logger.Logger) (ITxDetailCache, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return NewRedisWithClient(client, cfg.TTL, logger), nil
}

func NewRedisWithClient(client *redis.Client, ttl time.Duration, logger *logger.Logger) ITxDetailCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &redisCache{client: client, ttl: ttl, logger: logger}
}

func (r *redisCache) Get(ctx context.Context, network model.Network, txHash string) (*model.TxDetail, bool) {
	raw, err := r.client.Get(ctx, key(network, txHash)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Error("[redisCache.Get][client.Get]", map[string]string{
				"error":  err.Error(),
				"txHash": txHash,
			})
		}
		return nil, false
	}

	var detail model.TxDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		r.logger.Error("[redisCache.Get][json.Unmarshal]", map[string]string{
			"error":  err.Error(),
			"txHash": txHash,
		})
		return nil, false
	}
	return &detail, true
}

func (r *redisCache) Set(ctx context.Context, network model.Network, detail model.TxDetail) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return errors.Wrap(err, "marshal tx detail")
	}
	if err := r.client.Set(ctx, key(network, detail.TxHash), payload, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}
