package data

import (
	"context"
	"fmt"
	"time"

	"property-billing/internal/biz"
	"property-billing/internal/conf"
	"property-billing/internal/data/model"

	"github.com/glebarez/sqlite"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
	"github.com/google/wire"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewDB,
	NewRedis,
	NewRedsync,
	NewData,
	NewTransaction,
	NewLocker,
	NewChargeItemRepo,
	NewResidentRepo,
	NewBillRepo,
	NewPaymentTransactionRepo,
	NewStatsRepo,
)

// Data 数据层结构体
type Data struct {
	db  *gorm.DB
	rdb *redis.Client // 未配置 Redis 时为 nil
}

type contextTxKey struct{}

type contextCommitHooksKey struct{}

// commitHooks 最外层事务提交后执行的回调
type commitHooks struct {
	fns []func()
}

// NewDB 创建数据库连接，driver 为空时使用 sqlite
func NewDB(c *conf.Bootstrap) (*gorm.DB, error) {
	if c.Data == nil || c.Data.Database == nil {
		return nil, fmt.Errorf("database config is nil")
	}
	var dialector gorm.Dialector
	switch c.Data.Database.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(c.Data.Database.Source)
	case "mysql":
		dialector = mysql.Open(c.Data.Database.Source)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.Data.Database.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if c.Data.Database.Driver != "mysql" {
		// sqlite 单写者
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if c.Data.Database.AutoMigrate {
		if err := db.AutoMigrate(model.All()...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return db, nil
}

// NewRedis 创建 Redis 连接，未配置地址时返回 nil（关闭缓存与分布式锁）
func NewRedis(c *conf.Bootstrap) (*redis.Client, error) {
	if c.Data == nil || c.Data.Redis == nil || c.Data.Redis.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Data.Redis.Addr,
		Password:     c.Data.Redis.Password,
		DB:           int(c.Data.Redis.Db),
		ReadTimeout:  c.Data.Redis.ReadTimeout.AsDuration(),
		WriteTimeout: c.Data.Redis.WriteTimeout.AsDuration(),
	})

	// 测试连接
	if err := rdb.Ping(rdb.Context()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// NewRedsync 基于 Redis 创建分布式锁，Redis 未配置时返回 nil
func NewRedsync(rdb *redis.Client) *redsync.Redsync {
	if rdb == nil {
		return nil
	}
	return redsync.New(goredis.NewPool(rdb))
}

// NewData 创建数据层实例
func NewData(logger log.Logger, db *gorm.DB, rdb *redis.Client) (*Data, func(), error) {
	cleanup := func() {
		log.NewHelper(logger).Info("closing the data resources")
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				log.NewHelper(logger).Errorf("failed to close redis: %v", err)
			}
		}
	}

	return &Data{
		db:  db,
		rdb: rdb,
	}, cleanup, nil
}

// InTx 在事务中执行 fn；ctx 已携带事务时以保存点嵌套
func (d *Data) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(contextTxKey{}).(*gorm.DB); ok {
		return tx.Transaction(func(inner *gorm.DB) error {
			return fn(context.WithValue(ctx, contextTxKey{}, inner))
		})
	}
	hooks := &commitHooks{}
	ctx = context.WithValue(ctx, contextCommitHooksKey{}, hooks)
	if err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, contextTxKey{}, tx))
	}); err != nil {
		return err
	}
	for _, f := range hooks.fns {
		f()
	}
	return nil
}

// afterCommit 在最外层事务提交后执行 f；未处于事务中时立即执行
func (d *Data) afterCommit(ctx context.Context, f func()) {
	if hooks, ok := ctx.Value(contextCommitHooksKey{}).(*commitHooks); ok {
		hooks.fns = append(hooks.fns, f)
		return
	}
	f()
}

// DB 返回 ctx 中的事务，没有事务时返回普通连接
func (d *Data) DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(contextTxKey{}).(*gorm.DB); ok {
		return tx
	}
	return d.db.WithContext(ctx)
}

// NewTransaction 返回 biz.Transaction 实现
func NewTransaction(d *Data) biz.Transaction {
	return d
}

// cacheEnabled 是否启用 Redis 缓存
func (d *Data) cacheEnabled() bool {
	return d.rdb != nil
}

// cacheTimeout 缓存操作超时，缓存失败不影响主流程
const cacheTimeout = time.Second
