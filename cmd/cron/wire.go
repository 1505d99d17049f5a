//go:build wireinject
// +build wireinject

package main

import (
	"property-billing/internal/biz"
	"property-billing/internal/conf"
	"property-billing/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp 初始化应用
func wireApp(*conf.Bootstrap, log.Logger) (*CronApp, func(), error) {
	panic(wire.Build(
		// Data 层
		data.ProviderSet,

		// Biz 层（NewBillingConfig 需要 *conf.Bootstrap）
		biz.ProviderSet,

		// App 结构
		wire.Struct(new(CronApp), "*"),
	))
}
