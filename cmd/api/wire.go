//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 运行 `wire gen ./cmd/api` 生成wire_gen.go;
// 事件发布与缓存端口由调用方传入(它们允许为nil降级,wire不表达可选依赖)
package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	appinventory "github.com/xiebiao/agristock/internal/application/inventory"
	appprediction "github.com/xiebiao/agristock/internal/application/prediction"
	"github.com/xiebiao/agristock/internal/infrastructure/config"
	"github.com/xiebiao/agristock/internal/infrastructure/persistence/mysql"
)

// persistenceSet 持久化层依赖
var persistenceSet = wire.NewSet(
	provideDatabaseConfig,
	mysql.NewDB,
	mysql.NewRecordRepository,
	mysql.NewMovementRepository,
)

// InitializeApp 组装应用(编译期生成)
func InitializeApp(
	cfg *config.Config,
	logger *zap.Logger,
	publisher appinventory.EventPublisher,
	invalidator appinventory.CacheInvalidator,
	cache appprediction.DashboardCache,
) (*App, error) {
	wire.Build(
		persistenceSet,
		newApp,
	)
	return nil, nil
}

func provideDatabaseConfig(cfg *config.Config) config.DatabaseConfig {
	return cfg.Database
}
