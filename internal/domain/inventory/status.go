package inventory

// Status 库存状态
// 状态机设计说明:
// 1. 初始状态AVAILABLE,终态SOLD/DISPOSED(终态后数量字段不可变)
// 2. 全部合法流转收敛在transitions表中,任何不在表内的流转
//    一律返回ErrInvalidTransition(from, to)
// 3. 预测/报表只读路径不触发流转;写路径必须经由TransitionTo
type Status string

const (
	StatusAvailable Status = "AVAILABLE"  // 可售
	StatusReserved  Status = "RESERVED"   // 已整批预留
	StatusInTransit Status = "IN_TRANSIT" // 转运中
	StatusDamaged   Status = "DAMAGED"    // 受损
	StatusExpired   Status = "EXPIRED"    // 已过期
	StatusSold      Status = "SOLD"       // 已售出(终态)
	StatusDisposed  Status = "DISPOSED"   // 已处置(终态)
)

// transitions 状态流转表(from → 允许的to集合)
var transitions = map[Status][]Status{
	StatusAvailable: {StatusReserved, StatusInTransit, StatusDamaged, StatusExpired},
	StatusReserved:  {StatusAvailable, StatusSold, StatusInTransit},
	StatusInTransit: {StatusAvailable, StatusDamaged},
	StatusDamaged:   {StatusDisposed, StatusAvailable},
	StatusExpired:   {StatusDisposed},
	StatusSold:      {}, // 终态
	StatusDisposed:  {}, // 终态
}

// AllStatuses 全部状态(校验与测试用)
func AllStatuses() []Status {
	return []Status{
		StatusAvailable, StatusReserved, StatusInTransit,
		StatusDamaged, StatusExpired, StatusSold, StatusDisposed,
	}
}

// Valid 判断状态值是否合法
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal 是否终态
func (s Status) Terminal() bool {
	return s == StatusSold || s == StatusDisposed
}

// Active 是否仍在流通(非终态)
func (s Status) Active() bool {
	return !s.Terminal()
}

// CanTransition 判断from→to是否在流转表内
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionTo 应用一次状态流转
// 非法流转返回ErrInvalidTransition并保持记录不变
func (r *Record) TransitionTo(to Status) error {
	if !CanTransition(r.Status, to) {
		return ErrInvalidTransition(r.Status, to)
	}
	r.Status = to
	return nil
}
