package server

import (
	"context"

	"property-billing/internal/conf"
	"property-billing/internal/service"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer 创建 HTTP 服务器
func NewHTTPServer(c *conf.Bootstrap, svc *service.PropertyService) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Server != nil && c.Server.Http != nil {
		if c.Server.Http.Network != "" {
			opts = append(opts, http.Network(c.Server.Http.Network))
		}
		if c.Server.Http.Addr != "" {
			opts = append(opts, http.Address(c.Server.Http.Addr))
		}
		if c.Server.Http.Timeout != nil {
			opts = append(opts, http.Timeout(c.Server.Http.Timeout.AsDuration()))
		}
	}
	srv := http.NewServer(opts...)
	registerPropertyRoutes(srv, svc)
	srv.Handle("/metrics", promhttp.Handler())
	return srv
}

func registerPropertyRoutes(srv *http.Server, svc *service.PropertyService) {
	r := srv.Route("/v1")

	// 收费项目
	r.POST("/charge-items", handle(svc.CreateChargeItem, true))
	r.GET("/charge-items", handle(svc.ListChargeItems, false))
	r.GET("/charge-items/{id}", handle(svc.GetChargeItem, false))
	r.PUT("/charge-items/{id}", handle(svc.UpdateChargeItem, true))
	r.DELETE("/charge-items/{id}", handle(svc.DeleteChargeItem, false))
	r.POST("/charge-items/{id}/quote", handle(svc.Quote, true))

	// 住户
	r.POST("/residents", handle(svc.CreateResident, true))
	r.GET("/residents", handle(svc.SearchResidents, false))
	r.GET("/residents/{id}", handle(svc.GetResident, false))
	r.PUT("/residents/{id}", handle(svc.UpdateResident, true))
	r.DELETE("/residents/{id}", handle(svc.DeleteResident, false))

	// 账单与缴费
	r.POST("/bills", handle(svc.CreateBill, true))
	r.POST("/bills/batch", handle(svc.CreateBillsBatch, true))
	r.POST("/bills/generate", handle(svc.GenerateBills, true))
	r.POST("/bills/batch-delete", handle(svc.DeleteBills, true))
	r.GET("/bills", handle(svc.ListBills, false))
	r.GET("/bills/{id}", handle(svc.GetBill, false))
	r.PUT("/bills/{id}", handle(svc.UpdateBill, true))
	r.DELETE("/bills/{id}", handle(svc.DeleteBill, false))
	r.POST("/bills/{id}/pay", handle(svc.Pay, true))
	r.POST("/bills/{id}/unpay", handle(svc.Unpay, false))
	r.GET("/bills/{id}/transactions", handle(svc.ListTransactions, false))

	// 统计
	r.GET("/stats/periods/{period}", handle(svc.PeriodStats, false))
	r.GET("/stats/years/{year}", handle(svc.YearStats, false))
}

// handle 将服务方法适配为路由处理函数：body 或 query 绑定到请求，路径参数最后覆盖
func handle[Req any, Reply any](fn func(context.Context, *Req) (*Reply, error), withBody bool) http.HandlerFunc {
	return func(ctx http.Context) error {
		var in Req
		if withBody {
			if err := ctx.Bind(&in); err != nil {
				return err
			}
		} else if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return fn(ctx, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
