package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/agristock/pkg/errors"
)

// TestStatusTransitionMatrix 全量校验状态流转表
// 表内的(from, to)必须成功且状态可见变化,表外的必须返回非法流转错误
func TestStatusTransitionMatrix(t *testing.T) {
	allowed := map[Status][]Status{
		StatusAvailable: {StatusReserved, StatusInTransit, StatusDamaged, StatusExpired},
		StatusReserved:  {StatusAvailable, StatusSold, StatusInTransit},
		StatusInTransit: {StatusAvailable, StatusDamaged},
		StatusDamaged:   {StatusDisposed, StatusAvailable},
		StatusExpired:   {StatusDisposed},
		StatusSold:      {},
		StatusDisposed:  {},
	}

	isAllowed := func(from, to Status) bool {
		for _, s := range allowed[from] {
			if s == to {
				return true
			}
		}
		return false
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			if from == to {
				continue
			}
			rec := &Record{
				Status:          from,
				CurrentQuantity: decimal.NewFromInt(10),
			}
			err := rec.TransitionTo(to)
			if isAllowed(from, to) {
				require.NoErrorf(t, err, "%s -> %s 应当允许", from, to)
				assert.Equal(t, to, rec.Status)
			} else {
				require.Errorf(t, err, "%s -> %s 应当拒绝", from, to)
				assert.Equal(t, apperrors.ErrCodeInvalidTransition, apperrors.CodeOf(err))
				assert.Equal(t, from, rec.Status, "失败的流转不应改变状态")
			}
		}
	}
}

// TestStatusTerminal 终态校验
func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusSold.Terminal())
	assert.True(t, StatusDisposed.Terminal())
	for _, s := range []Status{StatusAvailable, StatusReserved, StatusInTransit, StatusDamaged, StatusExpired} {
		assert.Falsef(t, s.Terminal(), "%s 不是终态", s)
	}
}

// TestStatusValid 合法性校验
func TestStatusValid(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.True(t, s.Valid())
	}
	assert.False(t, Status("UNKNOWN").Valid())
	assert.False(t, Status("").Valid())
}
