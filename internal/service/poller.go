package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/tagstream/internal/repository"
	"github.com/d60-Lab/tagstream/pkg/logger"
)

// Poller 周期触发 PollAndIngest 的后台循环。
// 单轮超时后放弃本轮；正确性由摄取幂等保证，重试从上次水位续读。
type Poller struct {
	svc      IngestService
	postRepo repository.PostRepository
	interval time.Duration
	timeout  time.Duration

	watermark atomic.Int64
}

func NewPoller(svc IngestService, postRepo repository.PostRepository, interval, timeout time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Poller{svc: svc, postRepo: postRepo, interval: interval, timeout: timeout}
}

// Watermark 当前水位（采样值）
func (p *Poller) Watermark() int64 { return p.watermark.Load() }

// Start 恢复水位并启动轮询；返回停止函数
func (p *Poller) Start(ctx context.Context) (func(context.Context) error, error) {
	last, err := p.postRepo.LastSourceMessageID(ctx)
	if err != nil {
		return nil, err
	}
	p.watermark.Store(last)
	logger.Info("poller starting", zap.Int64("watermark", last), zap.Duration("interval", p.interval))

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.runOnce()
			}
		}
	}()
	return func(ctx context.Context) error {
		close(stop)
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, nil
}

func (p *Poller) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	before := p.watermark.Load()
	after, err := p.svc.PollAndIngest(ctx, before)
	if err != nil {
		logger.Error("poll run failed", zap.Int64("watermark", before), zap.Error(err))
	}
	// 部分成功也推进：重试只会重读失败之后的尾段，重复由去重吸收
	if after > before {
		p.watermark.Store(after)
	}
}
