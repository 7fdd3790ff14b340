package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appinventory "github.com/xiebiao/agristock/internal/application/inventory"
	appprediction "github.com/xiebiao/agristock/internal/application/prediction"
	"github.com/xiebiao/agristock/internal/infrastructure/config"
	"github.com/xiebiao/agristock/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/agristock/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/agristock/pkg/metrics"
	"github.com/xiebiao/agristock/pkg/mq"
)

// main 主程序入口(手动依赖注入,wire.go提供等价的编译期注入)
func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("配置加载成功",
		zap.String("env", cfg.App.Env),
		zap.String("database", cfg.Database.Host),
		zap.String("redis", cfg.Redis.Addr))

	// 指标注册与暴露
	metrics.InitMetrics()
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.Metrics.Addr, nil); err != nil {
			logger.Warn("指标服务退出", zap.Error(err))
		}
	}()

	// MySQL
	db, err := mysql.NewDB(cfg.Database)
	if err != nil {
		logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	if err := mysql.AutoMigrate(db); err != nil {
		logger.Fatal("建表失败", zap.Error(err))
	}

	// Redis看板缓存(连不上时退化为无缓存运行)
	var dashboardCache appprediction.DashboardCache
	var invalidator appinventory.CacheInvalidator
	if client, err := redis.NewClient(cfg.Redis); err != nil {
		logger.Warn("Redis不可用,看板缓存关闭", zap.Error(err))
	} else {
		cache := redis.NewDashboardCache(client, cfg.Redis.CacheTTL)
		dashboardCache = cache
		invalidator = cache
	}

	// RabbitMQ事件发布(连不上时退化为不发布)
	var publisher appinventory.EventPublisher
	if p, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange); err != nil {
		logger.Warn("RabbitMQ不可用,事件发布关闭", zap.Error(err))
	} else {
		publisher = p
		defer p.Close()
	}

	app := newApp(cfg,
		mysql.NewRecordRepository(db),
		mysql.NewMovementRepository(db),
		publisher, invalidator, dashboardCache, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 后台扫描:过期处理与告警
	go runSweeps(ctx, cfg.Sweep.Interval, app, logger)

	logger.Info("agristock已启动",
		zap.String("metrics", cfg.Metrics.Addr),
		zap.Duration("sweep_interval", cfg.Sweep.Interval))

	<-ctx.Done()
	logger.Info("收到退出信号,正在关闭")
}

// runSweeps 周期性执行过期扫描与告警扫描
func runSweeps(ctx context.Context, interval time.Duration, app *App, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := app.Maintenance.ProcessExpired(ctx); err != nil {
				logger.Warn("过期扫描失败", zap.Error(err))
			}
			if _, err := app.Alerts.Execute(ctx); err != nil {
				logger.Warn("告警扫描失败", zap.Error(err))
			}
		}
	}
}

// newLogger 按配置构建zap日志器
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	if cfg.Encoding == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
