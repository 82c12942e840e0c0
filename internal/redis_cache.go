package internal

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"payfast/config"
	"payfast/services"

	"github.com/redis/go-redis/v9"
)

const redisAddressKeyPrefix = "payfast:resolver:"

// RedisAddressCache shares resolved gateway addresses between instances.
// Addresses are stored as a comma separated list under a key with a TTL.
type RedisAddressCache struct {
	client *redis.Client
	logger services.LogHandler
}

func NewRedisAddressCache(conf *config.Config) *RedisAddressCache {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	return &RedisAddressCache{client: client}
}

func (c *RedisAddressCache) SetLogger(logger services.LogHandler) {
	c.logger = logger
}

func (c *RedisAddressCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisAddressCache) Close() error {
	return c.client.Close()
}

func (c *RedisAddressCache) Get(ctx context.Context, host string) ([]netip.Addr, bool) {
	value, err := c.client.Get(ctx, redisAddressKeyPrefix+host).Result()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.Error(fmt.Sprintf("redis get %s", host), err)
		}
		return nil, false
	}
	addrs, err := parseAddressList(value)
	if err != nil {
		if c.logger != nil {
			c.logger.Error(fmt.Sprintf("redis value for %s", host), err)
		}
		return nil, false
	}
	return addrs, true
}

func (c *RedisAddressCache) Set(ctx context.Context, host string, addrs []netip.Addr, ttl time.Duration) {
	if err := c.client.Set(ctx, redisAddressKeyPrefix+host, formatAddressList(addrs), ttl).Err(); err != nil && c.logger != nil {
		c.logger.Error(fmt.Sprintf("redis set %s", host), err)
	}
}

func formatAddressList(addrs []netip.Addr) string {
	parts := make([]string, len(addrs))
	for i, addr := range addrs {
		parts[i] = addr.String()
	}
	return strings.Join(parts, ",")
}

func parseAddressList(value string) ([]netip.Addr, error) {
	if value == "" {
		return nil, fmt.Errorf("empty address list")
	}
	parts := strings.Split(value, ",")
	addrs := make([]netip.Addr, 0, len(parts))
	for _, part := range parts {
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}
