package data

import (
	"context"
	"time"

	"property-billing/internal/biz"
	"property-billing/internal/conf"
	"property-billing/internal/constants"
	billingErrors "property-billing/internal/errors"
	"property-billing/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
)

const defaultLockExpiry = 5 * time.Second

// redsyncLocker 基于 redsync 的跨进程互斥锁
type redsyncLocker struct {
	sync    *redsync.Redsync
	expiry  time.Duration
	log     *log.Helper
	metrics *metrics.PropertyBillingMetrics
}

// nopLocker Redis 未配置时使用，单进程部署无需加锁
type nopLocker struct{}

func (nopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// NewLocker 创建锁（返回 biz.Locker 接口）
func NewLocker(rs *redsync.Redsync, c *conf.Bootstrap, logger log.Logger) biz.Locker {
	if rs == nil {
		return nopLocker{}
	}
	expiry := defaultLockExpiry
	if c.Billing != nil && c.Billing.LockExpiry.AsDuration() > 0 {
		expiry = c.Billing.LockExpiry.AsDuration()
	}
	return &redsyncLocker{
		sync:    rs,
		expiry:  expiry,
		log:     log.NewHelper(logger),
		metrics: metrics.GetMetrics(),
	}
}

// Lock 获取锁，返回的 unlock 释放失败只记录日志
func (l *redsyncLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockStartTime := time.Now()
	mutex := l.sync.NewMutex(key, redsync.WithExpiry(l.expiry), redsync.WithTries(8))
	if err := mutex.LockContext(ctx); err != nil {
		l.log.WithContext(ctx).Errorf("Failed to acquire lock: key=%s, error=%v", key, err)
		l.metrics.LockAcquireTotal.WithLabelValues(constants.ResultFailed).Inc()
		l.metrics.LockAcquireDuration.Observe(time.Since(lockStartTime).Seconds())
		return nil, billingErrors.Wrap(billingErrors.ErrLockFailed, err)
	}
	l.metrics.LockAcquireTotal.WithLabelValues(constants.ResultSuccess).Inc()
	l.metrics.LockAcquireDuration.Observe(time.Since(lockStartTime).Seconds())

	return func() {
		if ok, err := mutex.UnlockContext(context.Background()); !ok || err != nil {
			l.log.Warnf("Failed to unlock: key=%s, error=%v", key, err)
		}
	}, nil
}
