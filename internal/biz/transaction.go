package biz

import "context"

// Transaction 事务接口（工作单元），fn 内的 ctx 携带同一个事务；
// 嵌套调用以保存点实现，内层失败只回滚内层。
type Transaction interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker 跨进程互斥锁，未配置 Redis 时由 data 层提供空实现
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
