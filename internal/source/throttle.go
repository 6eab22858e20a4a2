package source

import (
	"context"

	"golang.org/x/time/rate"
)

// throttledSource 限制对上游的抓取频率
type throttledSource struct {
	inner   Source
	limiter *rate.Limiter
}

// Throttle 包装来源，限制每秒抓取次数；perSec <= 0 时原样返回
func Throttle(s Source, perSec float64, burst int) Source {
	if perSec <= 0 {
		return s
	}
	if burst < 1 {
		burst = 1
	}
	return &throttledSource{inner: s, limiter: rate.NewLimiter(rate.Limit(perSec), burst)}
}

func (t *throttledSource) FetchSince(ctx context.Context, afterID int64, limit int) ([]*Message, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.FetchSince(ctx, afterID, limit)
}
