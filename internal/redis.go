package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"overlay/config"
	"overlay/entity"
	"overlay/services"
	"time"

	"github.com/redis/go-redis/v9"
)

const merchantKeyPrefix = "overlay:merchant:"

// MerchantCache is a read-through redis cache in front of a merchant store.
// Cache failures are logged and the store is used directly.
type MerchantCache struct {
	client *redis.Client
	store  services.MerchantStore
	ttl    time.Duration
	logger services.LogHandler
}

func NewRedisClient(conf *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         conf.Redis.Addr,
		Password:     conf.Redis.Password,
		DB:           conf.Redis.DB,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

func NewMerchantCache(client *redis.Client, store services.MerchantStore, ttl time.Duration) *MerchantCache {
	return &MerchantCache{
		client: client,
		store:  store,
		ttl:    ttl,
	}
}

func (c *MerchantCache) SetLogger(logger services.LogHandler) {
	c.logger = logger
}

func (c *MerchantCache) GetMerchant(ctx context.Context, merchantId string) (*entity.MerchantParameters, error) {
	key := merchantKeyPrefix + merchantId

	cached, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var merchant entity.MerchantParameters
		if err = json.Unmarshal(cached, &merchant); err == nil {
			return &merchant, nil
		}
		c.warn(fmt.Sprintf("decode cached merchant %s: %v", merchantId, err))
	} else if !errors.Is(err, redis.Nil) {
		c.warn(fmt.Sprintf("read cached merchant %s: %v", merchantId, err))
	}

	merchant, err := c.store.GetMerchant(ctx, merchantId)
	if err != nil || merchant == nil {
		return merchant, err
	}

	data, err := json.Marshal(merchant)
	if err != nil {
		return merchant, nil
	}
	if err = c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.warn(fmt.Sprintf("cache merchant %s: %v", merchantId, err))
	}
	return merchant, nil
}

func (c *MerchantCache) warn(text string) {
	if c.logger != nil {
		c.logger.Warn(text)
	}
}
