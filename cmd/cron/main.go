package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"property-billing/internal/biz"
	"property-billing/internal/conf"

	"github.com/gaoyong06/go-pkg/logger"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"
)

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/config.yaml", "config path, eg: -conf config.yaml")
}

// CronApp Cron 应用结构
type CronApp struct {
	bills *biz.BillUseCase
	conf  *biz.BillingConfig
}

// monthlyGenerator 按月出账
type monthlyGenerator interface {
	GenerateMonthlyBills(ctx context.Context, now time.Time) (map[string]*biz.BatchResult, error)
}

// runMonthlyGeneration 执行一次按月出账并记录结果
func runMonthlyGeneration(ctx context.Context, g monthlyGenerator, logHelper *log.Helper, now time.Time) {
	logHelper.Info("[CRON] Starting monthly bill generation...")
	results, err := g.GenerateMonthlyBills(ctx, now)
	for itemID, result := range results {
		logHelper.Infof("[CRON] Generated bills: charge_item_id=%s, created=%d, skipped=%d, failed=%d",
			itemID, len(result.Created), result.Skipped, len(result.Failures))
		for _, f := range result.Failures {
			logHelper.Warnf("[CRON] Bill generation failed: charge_item_id=%s, resident_id=%s, reason=%s", itemID, f.ID, f.Message)
		}
	}
	if err != nil {
		logHelper.Errorf("[CRON] Error generating monthly bills: %v", err)
		return
	}
	logHelper.Info("[CRON] Finished monthly bill generation")
}

func main() {
	flag.Parse()

	// 初始化配置
	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	// 初始化日志 (使用 go-pkg/logger)
	logConfig := &logger.Config{
		Level:         "info",
		Format:        "json",
		Output:        "stdout",
		FilePath:      "logs/property-billing-cron.log",
		MaxSize:       100,
		MaxAge:        30,
		MaxBackups:    10,
		Compress:      true,
		EnableConsole: true,
	}
	if bc.Log != nil && bc.Log.Level != "" {
		logConfig.Level = bc.Log.Level
	}

	loggerInstance := logger.NewLogger(logConfig)

	// 添加基本字段
	loggerInstance = log.With(loggerInstance,
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", "property-billing-cron",
	)

	logHelper := log.NewHelper(loggerInstance)

	// 初始化应用
	app, cleanup, err := wireApp(&bc, loggerInstance)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if !app.conf.AutoGenerate || len(app.conf.ChargeItemIDs) == 0 {
		logHelper.Warn("Monthly bill generation is disabled or has no charge items, nothing to schedule")
		return
	}

	// 创建定时任务调度器（支持秒级调度）
	cronScheduler := cron.New(cron.WithSeconds())

	_, err = cronScheduler.AddFunc(app.conf.AutoGenerateAt, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		runMonthlyGeneration(ctx, app.bills, logHelper, time.Now())
	})
	if err != nil {
		logHelper.Errorf("Failed to add monthly bill generation job: %v", err)
		return
	}

	// 启动定时任务
	cronScheduler.Start()
	logHelper.Info("========================================")
	logHelper.Info("Cron jobs started successfully")
	logHelper.Info("Scheduled jobs:")
	logHelper.Infof("  - Monthly bill generation: %s, charge items: %v", app.conf.AutoGenerateAt, app.conf.ChargeItemIDs)
	logHelper.Info("========================================")

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logHelper.Info("Shutting down gracefully...")

	// 停止定时任务
	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		logHelper.Info("Cron jobs stopped gracefully")
	case <-time.After(5 * time.Second):
		logHelper.Info("Cron jobs forced to stop after timeout")
	}
}
