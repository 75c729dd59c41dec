package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/archalign/validation-backend/internal/logger"
)

// Probe wraps the optional cache connection. The validation service does not
// read or write through it; it only reports connectivity on the health and
// metrics endpoints.
type Probe interface {
	Ping(ctx context.Context) (time.Duration, error)
	Close() error
}

type probe struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewProbe(log *logger.Logger) (Probe, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &probe{
		log: log.With("client", "RedisProbe"),
		rdb: rdb,
	}, nil
}

func (p *probe) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func (p *probe) Close() error {
	return p.rdb.Close()
}
