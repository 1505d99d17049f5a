package server

import (
	"property-billing/internal/conf"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/grpc"
)

// NewGRPCServer new a gRPC server.
// 业务接口走 HTTP；gRPC 端口提供健康检查，供网关与编排系统探活。
func NewGRPCServer(c *conf.Bootstrap) *grpc.Server {
	var opts = []grpc.ServerOption{
		grpc.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Server != nil && c.Server.Grpc != nil {
		if c.Server.Grpc.Network != "" {
			opts = append(opts, grpc.Network(c.Server.Grpc.Network))
		}
		if c.Server.Grpc.Addr != "" {
			opts = append(opts, grpc.Address(c.Server.Grpc.Addr))
		}
		if c.Server.Grpc.Timeout != nil {
			opts = append(opts, grpc.Timeout(c.Server.Grpc.Timeout.AsDuration()))
		}
	}
	return grpc.NewServer(opts...)
}
