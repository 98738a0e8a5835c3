package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"gorm.io/gorm"
)

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) DB() *gorm.DB {
	return r.db
}

// Create 创建库存项
func (r *StockRepository) Create(ctx context.Context, item *entity.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindByID 根据ID查找库存项
func (r *StockRepository) FindByID(ctx context.Context, id string) (*entity.StockItem, error) {
	var item entity.StockItem
	err := r.db.WithContext(ctx).
		Preload("Part").
		Preload("Location").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDs 批量查找库存项
func (r *StockRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.StockItem, error) {
	var items []entity.StockItem
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	return items, err
}

// StockListParams 库存列表筛选参数
type StockListParams struct {
	PartID     string
	LocationID string
	CustomerID string
	BatchNo    string
	SerialNo   string
	Status     *int
	InStock    *bool
	Available  *bool
	Depleted   *bool
	Salable    *bool
	Keyword    string
	ExpiredBy  *time.Time
	Page       int
	Size       int
}

// List 分页查询库存项
func (r *StockRepository) List(ctx context.Context, params StockListParams) ([]entity.StockItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StockItem{})

	if params.PartID != "" {
		query = query.Where("part_id = ?", params.PartID)
	}
	if params.LocationID != "" {
		query = query.Where("location_id = ?", params.LocationID)
	}
	if params.CustomerID != "" {
		query = query.Where("customer_id = ?", params.CustomerID)
	}
	if params.BatchNo != "" {
		query = query.Where("batch_no = ?", params.BatchNo)
	}
	if params.SerialNo != "" {
		query = query.Where("serial_no = ?", params.SerialNo)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.InStock != nil && *params.InStock {
		query = query.Where("customer_id IS NULL").Where("quantity > 0")
	}
	if params.Available != nil && *params.Available {
		query = query.Where("quantity - allocated_qty > 0")
	}
	if params.Depleted != nil && *params.Depleted {
		query = query.Where("quantity <= 0")
	}
	if params.Salable != nil && *params.Salable {
		query = query.Joins("JOIN ims_parts ON ims_parts.id = ims_stock_items.part_id").
			Where("ims_parts.salable = true")
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("part_name ILIKE ? OR part_ipn ILIKE ? OR batch_no ILIKE ?", kw, kw, kw)
	}
	if params.ExpiredBy != nil {
		query = query.Where("expiry_date IS NOT NULL AND expiry_date < ?", *params.ExpiredBy)
	}

	var total int64
	query.Count(&total)

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}

	var items []entity.StockItem
	err := query.Preload("Part").Preload("Location").
		Order("updated_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).
		Find(&items).Error
	return items, total, err
}

// Update 更新库存项
func (r *StockRepository) Update(ctx context.Context, item *entity.StockItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete 删除库存项
func (r *StockRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.StockItem{}, "id = ?", id).Error
}

// DeleteMany 批量删除库存项
func (r *StockRepository) DeleteMany(ctx context.Context, ids []string) error {
	return r.db.WithContext(ctx).Delete(&entity.StockItem{}, "id IN ?", ids).Error
}

// SumAvailable 若干零件的在库可用数量合计（未分配给客户的部分）
func (r *StockRepository) SumAvailable(ctx context.Context, partIDs []string) (float64, error) {
	if len(partIDs) == 0 {
		return 0, nil
	}
	var result struct{ Total float64 }
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(quantity - allocated_qty), 0) AS total
		FROM ims_stock_items
		WHERE part_id IN ?
		  AND customer_id IS NULL
		  AND quantity > allocated_qty
		  AND deleted_at IS NULL
	`, partIDs).Scan(&result).Error
	return result.Total, err
}

// PurchasePriceRange 某零件在库项的采购单价区间；没有带价格的项时 found=false
func (r *StockRepository) PurchasePriceRange(ctx context.Context, partID string) (min, max float64, found bool, err error) {
	var result struct {
		Min   float64
		Max   float64
		Count int64
	}
	err = r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MIN(purchase_price), 0) AS min,
		       COALESCE(MAX(purchase_price), 0) AS max,
		       COUNT(*) AS count
		FROM ims_stock_items
		WHERE part_id = ?
		  AND purchase_price > 0
		  AND deleted_at IS NULL
	`, partID).Scan(&result).Error
	if err != nil {
		return 0, 0, false, err
	}
	return result.Min, result.Max, result.Count > 0, nil
}

// — 履历 —

// CreateTracking 写入履历记录
func (r *StockRepository) CreateTracking(ctx context.Context, tracking *entity.StockTracking) error {
	return r.db.WithContext(ctx).Create(tracking).Error
}

// ListTracking 某库存项的履历
func (r *StockRepository) ListTracking(ctx context.Context, stockItemID string, page, size int) ([]entity.StockTracking, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StockTracking{}).
		Where("stock_item_id = ?", stockItemID)

	var total int64
	query.Count(&total)

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	var entries []entity.StockTracking
	err := query.Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&entries).Error
	return entries, total, err
}

// — 库位 —

// CreateLocation 创建库位
func (r *StockRepository) CreateLocation(ctx context.Context, loc *entity.StockLocation) error {
	return r.db.WithContext(ctx).Create(loc).Error
}

// FindLocationByID 根据ID查找库位
func (r *StockRepository) FindLocationByID(ctx context.Context, id string) (*entity.StockLocation, error) {
	var loc entity.StockLocation
	err := r.db.WithContext(ctx).
		Preload("LocationType").
		First(&loc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// ListLocations 列出库位
func (r *StockRepository) ListLocations(ctx context.Context, parentID string) ([]entity.StockLocation, error) {
	query := r.db.WithContext(ctx).Preload("LocationType")
	if parentID != "" {
		query = query.Where("parent_id = ?", parentID)
	}
	var locs []entity.StockLocation
	err := query.Order("pathname ASC").Find(&locs).Error
	return locs, err
}

// UpdateLocation 更新库位
func (r *StockRepository) UpdateLocation(ctx context.Context, loc *entity.StockLocation) error {
	return r.db.WithContext(ctx).Save(loc).Error
}

// ListLocationTypes 列出库位类型
func (r *StockRepository) ListLocationTypes(ctx context.Context) ([]entity.LocationType, error) {
	var types []entity.LocationType
	err := r.db.WithContext(ctx).Order("name ASC").Find(&types).Error
	return types, err
}
