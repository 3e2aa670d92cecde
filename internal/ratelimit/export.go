package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agencydesk/agencydesk/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const keyExportOrg = "export:org:%s"

// ExportLimiter throttles report downloads per organization. A nil
// limiter (rate limiting disabled) allows everything.
type ExportLimiter struct {
	enabled bool

	bucket *TokenBucket

	rate  float64
	burst int
}

func NewExportLimiter(cfg config.Config) (*ExportLimiter, error) {
	if !cfg.ExportRateLimitEnabled {
		return nil, nil
	}

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("export rate limit requires a redis addr")
	}
	if cfg.ExportRatePerSecond <= 0 || cfg.ExportBurst <= 0 {
		return nil, errors.New("export rate limit rate and burst must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &ExportLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    cfg.ExportRatePerSecond,
		burst:   cfg.ExportBurst,
	}, nil
}

func (l *ExportLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowOrg consumes one export token for the organization. Returns the
// wait hint when denied.
func (l *ExportLimiter) AllowOrg(ctx context.Context, orgID string) (bool, time.Duration, error) {
	if !l.Enabled() {
		return true, 0, nil
	}
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyExportOrg, strings.TrimSpace(orgID)), l.rate, l.burst)
	if err != nil {
		return false, 0, err
	}
	return res.Allowed, res.RetryAfter, nil
}

var Module = fx.Module("ratelimit",
	fx.Provide(NewExportLimiter),
)
