package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/agristock/internal/domain/inventory"
	"github.com/xiebiao/agristock/pkg/metrics"
)

// AlertSweepUseCase 告警扫描用例
// 全量扫描库存产出告警,并将每条告警发布到事件总线,
// 下游通知服务按类别订阅
type AlertSweepUseCase struct {
	svc       *inventory.Service
	generator *inventory.AlertGenerator
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAlertSweepUseCase 创建用例
func NewAlertSweepUseCase(svc *inventory.Service, generator *inventory.AlertGenerator,
	publisher EventPublisher, logger *zap.Logger) *AlertSweepUseCase {
	return &AlertSweepUseCase{
		svc:       svc,
		generator: generator,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock 替换时钟(测试用)
func (uc *AlertSweepUseCase) WithClock(now func() time.Time) *AlertSweepUseCase {
	uc.now = now
	return uc
}

// Execute 执行一轮告警扫描
func (uc *AlertSweepUseCase) Execute(ctx context.Context) ([]inventory.Alert, error) {
	records, err := uc.svc.List(ctx)
	if err != nil {
		return nil, err
	}

	alerts := uc.generator.Scan(records, uc.now())
	for _, alert := range alerts {
		if metrics.AlertsGeneratedTotal != nil {
			metrics.AlertsGeneratedTotal.WithLabelValues(string(alert.Category)).Inc()
		}
		publishEvent(ctx, uc.publisher, uc.logger,
			fmt.Sprintf("inventory.alert.%s", alert.Category), alert)
	}
	if len(alerts) > 0 {
		uc.logger.Info("告警扫描完成", zap.Int("alerts", len(alerts)))
	}
	return alerts, nil
}
