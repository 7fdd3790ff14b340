package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xiebiao/agristock/internal/domain/inventory"
)

// Repository 库存仓储的内存实现(测试与本地开发)
// 设计说明:Mutate在写锁内完成读取-校验-写入,与MySQL实现的
// SELECT FOR UPDATE等价,并发预留不可能读到过期的可用数量;
// 出入仓储的记录都做深拷贝,杜绝调用方与存储共享可变状态
type Repository struct {
	mu        sync.RWMutex
	records   map[string]*inventory.Record
	order     []string // 插入顺序,保证遍历稳定
	movements *MovementRepository
}

// NewRepository 创建内存库存仓储
func NewRepository() *Repository {
	return &Repository{records: make(map[string]*inventory.Record)}
}

// Create 创建库存记录
func (r *Repository) Create(_ context.Context, rec *inventory.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.InventoryCode == rec.InventoryCode {
			return inventory.ErrDuplicateCode
		}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.UpdatedAt = time.Now()
	r.records[rec.ID] = cloneRecord(rec)
	r.order = append(r.order, rec.ID)
	return nil
}

// FindByID 根据ID查找
func (r *Repository) FindByID(_ context.Context, id string) (*inventory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, inventory.ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

// FindByCode 根据库存编码查找
func (r *Repository) FindByCode(_ context.Context, code string) (*inventory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.InventoryCode == code {
			return cloneRecord(rec), nil
		}
	}
	return nil, inventory.ErrRecordNotFound
}

// FindAll 全量查询(插入顺序)
func (r *Repository) FindAll(_ context.Context) ([]*inventory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(*inventory.Record) bool { return true }), nil
}

// FindByCropID 按作物查询
func (r *Repository) FindByCropID(_ context.Context, cropID string) ([]*inventory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(rec *inventory.Record) bool { return rec.CropID == cropID }), nil
}

// FindByFarmerID 按农户查询
func (r *Repository) FindByFarmerID(_ context.Context, farmerID string) ([]*inventory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(rec *inventory.Record) bool { return rec.FarmerUserID == farmerID }), nil
}

// FindByStatus 按状态查询
func (r *Repository) FindByStatus(_ context.Context, status inventory.Status) ([]*inventory.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(rec *inventory.Record) bool { return rec.Status == status }), nil
}

// Search 条件检索(分页)
func (r *Repository) Search(_ context.Context, criteria inventory.SearchCriteria,
	page inventory.PageRequest) ([]*inventory.Record, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.filter(func(rec *inventory.Record) bool {
		if criteria.CropID != "" && rec.CropID != criteria.CropID {
			return false
		}
		if criteria.FarmerID != "" && rec.FarmerUserID != criteria.FarmerID {
			return false
		}
		if criteria.FacilityType != "" && rec.FacilityType != criteria.FacilityType {
			return false
		}
		if criteria.Status != "" && rec.Status != criteria.Status {
			return false
		}
		if criteria.QualityGrade != "" && rec.QualityGrade != criteria.QualityGrade {
			return false
		}
		if criteria.Keyword != "" {
			kw := strings.ToLower(criteria.Keyword)
			if !strings.Contains(strings.ToLower(rec.InventoryCode), kw) &&
				!strings.Contains(strings.ToLower(rec.StorageLocation), kw) &&
				!strings.Contains(strings.ToLower(rec.FacilityName), kw) {
				return false
			}
		}
		if criteria.MinQuantity != nil && rec.CurrentQuantity.LessThan(*criteria.MinQuantity) {
			return false
		}
		if criteria.MaxQuantity != nil && rec.CurrentQuantity.GreaterThan(*criteria.MaxQuantity) {
			return false
		}
		return true
	})

	total := int64(len(matched))
	page = page.Normalize()
	start := page.Offset()
	if start >= len(matched) {
		return []*inventory.Record{}, total, nil
	}
	end := start + page.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// Save 全量保存
func (r *Repository) Save(_ context.Context, rec *inventory.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; !ok {
		return inventory.ErrRecordNotFound
	}
	rec.UpdatedAt = time.Now()
	r.records[rec.ID] = cloneRecord(rec)
	return nil
}

// Delete 删除记录
func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return inventory.ErrRecordNotFound
	}
	delete(r.records, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Mutate 写锁内执行原子变更
func (r *Repository) Mutate(_ context.Context, id string,
	fn func(rec *inventory.Record) ([]*inventory.MovementEntry, error)) (*inventory.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[id]
	if !ok {
		return nil, inventory.ErrRecordNotFound
	}

	// 在副本上执行fn,失败时存储内容不变
	working := cloneRecord(stored)
	entries, err := fn(working)
	if err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()
	r.records[id] = cloneRecord(working)

	if r.movements != nil {
		for _, entry := range entries {
			r.movements.append(entry)
		}
	}
	return working, nil
}

var _ inventory.Repository = (*Repository)(nil)

// BindMovements 将变动日志仓储挂接到Mutate的提交路径
func (r *Repository) BindMovements(m *MovementRepository) *Repository {
	r.movements = m
	return r
}

func (r *Repository) filter(pred func(*inventory.Record) bool) []*inventory.Record {
	out := make([]*inventory.Record, 0)
	for _, id := range r.order {
		rec := r.records[id]
		if pred(rec) {
			out = append(out, cloneRecord(rec))
		}
	}
	return out
}

// MovementRepository 变动日志的内存实现
type MovementRepository struct {
	mu      sync.RWMutex
	entries []*inventory.MovementEntry
	nextID  uint
}

// NewMovementRepository 创建内存变动日志仓储
func NewMovementRepository() *MovementRepository {
	return &MovementRepository{}
}

// Append 追加一条日志
func (m *MovementRepository) Append(_ context.Context, entry *inventory.MovementEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.append(entry)
	return nil
}

func (m *MovementRepository) append(entry *inventory.MovementEntry) {
	m.nextID++
	clone := *entry
	clone.ID = m.nextID
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	m.entries = append(m.entries, &clone)
}

// ListByRecordID 按记录查询全部变动,时间升序
func (m *MovementRepository) ListByRecordID(_ context.Context, recordID string) ([]*inventory.MovementEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*inventory.MovementEntry, 0)
	for _, entry := range m.entries {
		if entry.RecordID == recordID {
			clone := *entry
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var _ inventory.MovementRepository = (*MovementRepository)(nil)

// cloneRecord 深拷贝(指针日期字段逐一复制)
func cloneRecord(rec *inventory.Record) *inventory.Record {
	clone := *rec
	clone.HarvestDate = cloneTime(rec.HarvestDate)
	clone.StorageDate = cloneTime(rec.StorageDate)
	clone.ExpiryDate = cloneTime(rec.ExpiryDate)
	clone.ConditionAssessment = cloneTime(rec.ConditionAssessment)
	clone.NextInspectionDate = cloneTime(rec.NextInspectionDate)
	clone.PestInspectionDate = cloneTime(rec.PestInspectionDate)
	clone.LastMovementDate = cloneTime(rec.LastMovementDate)
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
