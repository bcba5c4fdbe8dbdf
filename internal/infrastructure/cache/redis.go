package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options describes the redis instance backing the idempotency store.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedis dials redis and pings it within a short deadline derived from ctx.
func OpenRedis(ctx context.Context, o Options) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}
