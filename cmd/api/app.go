package main

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appinventory "github.com/xiebiao/agristock/internal/application/inventory"
	appprediction "github.com/xiebiao/agristock/internal/application/prediction"
	"github.com/xiebiao/agristock/internal/domain/inventory"
	"github.com/xiebiao/agristock/internal/domain/prediction"
	"github.com/xiebiao/agristock/internal/infrastructure/config"
)

// App 组装完成的应用
// 上层接入层(HTTP/gRPC,不在本仓库范围内)从这里取用例
type App struct {
	Inventory   *inventory.Service
	Create      *appinventory.CreateRecordUseCase
	Reserve     *appinventory.ReserveStockUseCase
	Sell        *appinventory.SellStockUseCase
	Loss        *appinventory.RecordLossUseCase
	Transfer    *appinventory.TransferStockUseCase
	Alerts      *appinventory.AlertSweepUseCase
	Maintenance *appinventory.MaintenanceUseCase
	Dashboard   *appprediction.DashboardUseCase
}

// newApp 组装全部用例(手动依赖注入)
func newApp(
	cfg *config.Config,
	repo inventory.Repository,
	movements inventory.MovementRepository,
	publisher appinventory.EventPublisher,
	invalidator appinventory.CacheInvalidator,
	cache appprediction.DashboardCache,
	logger *zap.Logger,
) *App {
	inventorySvc := inventory.NewService(repo, movements, logger)

	engine := prediction.NewEngine(forecastConfig(cfg.Forecast), prediction.NewMeanEstimator())
	predictionSvc := prediction.NewService(repo, engine, logger)

	alertGen := inventory.NewAlertGenerator(inventory.AlertConfig{
		ExpiryWindowDays:  cfg.Alerts.ExpiryWindowDays,
		HighLossThreshold: decimal.NewFromFloat(cfg.Alerts.HighLossThreshold),
	})
	highValue := decimal.NewFromFloat(cfg.Alerts.HighValueThreshold)

	return &App{
		Inventory:   inventorySvc,
		Create:      appinventory.NewCreateRecordUseCase(inventorySvc, publisher, invalidator, logger),
		Reserve:     appinventory.NewReserveStockUseCase(inventorySvc, publisher, invalidator, logger),
		Sell:        appinventory.NewSellStockUseCase(inventorySvc, publisher, invalidator, logger),
		Loss:        appinventory.NewRecordLossUseCase(inventorySvc, publisher, invalidator, logger),
		Transfer:    appinventory.NewTransferStockUseCase(inventorySvc, publisher, invalidator, logger),
		Alerts:      appinventory.NewAlertSweepUseCase(inventorySvc, alertGen, publisher, logger),
		Maintenance: appinventory.NewMaintenanceUseCase(inventorySvc, publisher, invalidator, logger),
		Dashboard: appprediction.NewDashboardUseCase(predictionSvc, inventorySvc,
			cache, highValue, logger),
	}
}

// forecastConfig 将外部配置映射为预测参数
func forecastConfig(cfg config.ForecastConfig) prediction.Config {
	pc := prediction.DefaultConfig()
	if cfg.HarvestFactor > 0 {
		pc.HarvestFactor = cfg.HarvestFactor
	}
	if cfg.HarvestMonthFrom > 0 && cfg.HarvestMonthTo > 0 {
		pc.HarvestMonths = [2]int{cfg.HarvestMonthFrom, cfg.HarvestMonthTo}
	}
	if cfg.SecondSeasonFactor > 0 {
		pc.SecondSeasonFactor = cfg.SecondSeasonFactor
	}
	if cfg.SecondMonthFrom > 0 && cfg.SecondMonthTo > 0 {
		pc.SecondSeasonMonths = [2]int{cfg.SecondMonthFrom, cfg.SecondMonthTo}
	}
	if cfg.LeanFactor > 0 {
		pc.LeanFactor = cfg.LeanFactor
	}
	if cfg.RestockLeadDays > 0 {
		pc.RestockLeadDays = cfg.RestockLeadDays
	}
	if cfg.TrendThresholdPct > 0 {
		pc.TrendThresholdPct = cfg.TrendThresholdPct
	}
	return pc
}
