package inventory

import (
	apperrors "github.com/xiebiao/agristock/pkg/errors"
)

// 库存领域错误定义
var (
	// ErrRecordNotFound 库存记录不存在
	ErrRecordNotFound = apperrors.New(apperrors.ErrCodeRecordNotFound, "库存记录不存在")

	// ErrDuplicateCode 库存编码已存在
	ErrDuplicateCode = apperrors.New(apperrors.ErrCodeDuplicateCode, "库存编码已存在")

	// ErrInsufficientQuantity 可用数量不足
	ErrInsufficientQuantity = apperrors.New(apperrors.ErrCodeInsufficientQuantity, "可用数量不足")

	// ErrInvalidRelease 释放数量超出已预留数量
	ErrInvalidRelease = apperrors.New(apperrors.ErrCodeInvalidRelease, "释放数量不能超过已预留数量")

	// ErrNotAvailable 记录当前状态不可预留
	ErrNotAvailable = apperrors.New(apperrors.ErrCodeInvalidState, "库存当前状态不可预留")

	// ErrNotInTransit 记录当前不在转运中
	ErrNotInTransit = apperrors.New(apperrors.ErrCodeInvalidState, "库存当前不在转运中")

	// ErrDeleteLocked 预留或转运中的记录不可删除
	ErrDeleteLocked = apperrors.New(apperrors.ErrCodeInvalidState, "预留或转运中的库存不可删除")

	// ErrSoldImmutable 已售出记录的数量字段不可修改
	ErrSoldImmutable = apperrors.New(apperrors.ErrCodeInvalidState, "已售出库存的数量不可修改")

	// ErrNegativeQuantity 数量不能为负数
	ErrNegativeQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "数量不能为负数")

	// ErrSellTooMuch 售出数量超过当前数量
	ErrSellTooMuch = apperrors.New(apperrors.ErrCodeBusinessError, "售出数量不能超过当前数量")

	// ErrLossTooMuch 损耗数量超过当前数量
	ErrLossTooMuch = apperrors.New(apperrors.ErrCodeBusinessError, "损耗数量不能超过当前数量")

	// ErrReservedOutOfRange 预留数量越界(不变式被破坏)
	ErrReservedOutOfRange = apperrors.New(apperrors.ErrCodeBusinessError, "预留数量超出当前数量范围")

	// ErrInconsistentAvailable 可用数量与派生公式不一致(不变式被破坏)
	ErrInconsistentAvailable = apperrors.New(apperrors.ErrCodeBusinessError, "可用数量与当前/预留数量不一致")

	// ErrInvalidRange 检索条件的区间非法(min > max)
	ErrInvalidRange = apperrors.New(apperrors.ErrCodeInvalidParams, "检索区间非法")
)

// ErrInvalidTransition 非法状态流转(携带from/to便于排查)
func ErrInvalidTransition(from, to Status) *apperrors.AppError {
	return apperrors.Newf(apperrors.ErrCodeInvalidTransition,
		"非法状态流转: %s → %s", from, to)
}
