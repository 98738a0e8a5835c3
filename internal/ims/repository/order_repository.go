package repository

import (
	"context"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) DB() *gorm.DB {
	return r.db
}

// OrderListParams 订单列表通用筛选参数
type OrderListParams struct {
	CompanyID     string
	Status        *int
	ProjectCodeID string
	ResponsibleID string
	Keyword       string
	Outstanding   bool
	Page          int
	Size          int
}

func applyOrderParams(query *gorm.DB, params OrderListParams, companyColumn string, openStatuses []int) *gorm.DB {
	if params.CompanyID != "" {
		query = query.Where(companyColumn+" = ?", params.CompanyID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.ProjectCodeID != "" {
		query = query.Where("project_code_id = ?", params.ProjectCodeID)
	}
	if params.ResponsibleID != "" {
		query = query.Where("responsible_id = ?", params.ResponsibleID)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("reference ILIKE ? OR description ILIKE ?", kw, kw)
	}
	if params.Outstanding {
		query = query.Where("status IN ?", openStatuses)
	}
	return query
}

func paginate(params *OrderListParams) (int, int) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	return (params.Page - 1) * params.Size, params.Size
}

// — 销售订单 —

// CreateSO 创建销售订单（含行项）
func (r *OrderRepository) CreateSO(ctx context.Context, so *entity.SalesOrder) error {
	return r.db.WithContext(ctx).Create(so).Error
}

// FindSOByID 根据ID查找销售订单
func (r *OrderRepository) FindSOByID(ctx context.Context, id string) (*entity.SalesOrder, error) {
	var so entity.SalesOrder
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("ProjectCode").
		Preload("Lines").
		Preload("Lines.Allocations").
		Preload("Shipments").
		First(&so, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &so, nil
}

// ListSOs 分页查询销售订单
func (r *OrderRepository) ListSOs(ctx context.Context, params OrderListParams, openStatuses []int) ([]entity.SalesOrder, int64, error) {
	query := applyOrderParams(
		r.db.WithContext(ctx).Model(&entity.SalesOrder{}),
		params, "customer_id", openStatuses,
	)

	var total int64
	query.Count(&total)

	offset, limit := paginate(&params)
	var orders []entity.SalesOrder
	err := query.Preload("Customer").Preload("ProjectCode").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

// UpdateSO 更新销售订单
func (r *OrderRepository) UpdateSO(ctx context.Context, so *entity.SalesOrder) error {
	return r.db.WithContext(ctx).Save(so).Error
}

// DeleteSO 删除销售订单
func (r *OrderRepository) DeleteSO(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.SalesOrder{}, "id = ?", id).Error
}

// — 销售订单行 —

// CreateSOLine 创建订单行
func (r *OrderRepository) CreateSOLine(ctx context.Context, line *entity.SOLineItem) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// FindSOLineByID 根据ID查找订单行（含分配记录）
func (r *OrderRepository) FindSOLineByID(ctx context.Context, id string) (*entity.SOLineItem, error) {
	var line entity.SOLineItem
	err := r.db.WithContext(ctx).
		Preload("Part").
		Preload("Allocations").
		First(&line, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// ListSOLines 订单的全部行项（含分配记录）
func (r *OrderRepository) ListSOLines(ctx context.Context, orderID string) ([]entity.SOLineItem, error) {
	var lines []entity.SOLineItem
	err := r.db.WithContext(ctx).
		Preload("Part").
		Preload("Allocations").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

// UpdateSOLine 更新订单行
func (r *OrderRepository) UpdateSOLine(ctx context.Context, line *entity.SOLineItem) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// DeleteSOLine 删除订单行
func (r *OrderRepository) DeleteSOLine(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.SOLineItem{}, "id = ?", id).Error
}

// — 发运单 —

// CreateShipment 创建发运单
func (r *OrderRepository) CreateShipment(ctx context.Context, shipment *entity.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

// FindShipmentByID 根据ID查找发运单
func (r *OrderRepository) FindShipmentByID(ctx context.Context, id string) (*entity.Shipment, error) {
	var shipment entity.Shipment
	if err := r.db.WithContext(ctx).First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

// ListShipments 订单的发运单
func (r *OrderRepository) ListShipments(ctx context.Context, orderID string) ([]entity.Shipment, error) {
	var shipments []entity.Shipment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&shipments).Error
	return shipments, err
}

// UpdateShipment 更新发运单
func (r *OrderRepository) UpdateShipment(ctx context.Context, shipment *entity.Shipment) error {
	return r.db.WithContext(ctx).Save(shipment).Error
}

// — 分配 —

// CreateAllocations 在一个事务内批量写入分配并同步库存占用
func (r *OrderRepository) CreateAllocations(ctx context.Context, allocations []entity.SOAllocation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range allocations {
			if err := tx.Create(&allocations[i]).Error; err != nil {
				return err
			}
			err := tx.Model(&entity.StockItem{}).
				Where("id = ?", allocations[i].StockItemID).
				Update("allocated_qty", gorm.Expr("allocated_qty + ?", allocations[i].Quantity)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// FindAllocationByID 根据ID查找分配记录
func (r *OrderRepository) FindAllocationByID(ctx context.Context, id string) (*entity.SOAllocation, error) {
	var alloc entity.SOAllocation
	err := r.db.WithContext(ctx).
		Preload("StockItem").
		First(&alloc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &alloc, nil
}

// ListAllocations 某订单行的分配记录
func (r *OrderRepository) ListAllocations(ctx context.Context, lineItemID string) ([]entity.SOAllocation, error) {
	var allocs []entity.SOAllocation
	err := r.db.WithContext(ctx).
		Preload("StockItem").
		Where("line_item_id = ?", lineItemID).
		Find(&allocs).Error
	return allocs, err
}

// DeleteAllocation 删除分配并释放库存占用
func (r *OrderRepository) DeleteAllocation(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var alloc entity.SOAllocation
		if err := tx.First(&alloc, "id = ?", id).Error; err != nil {
			return err
		}
		err := tx.Model(&entity.StockItem{}).
			Where("id = ?", alloc.StockItemID).
			Update("allocated_qty", gorm.Expr("GREATEST(allocated_qty - ?, 0)", alloc.Quantity)).Error
		if err != nil {
			return err
		}
		return tx.Delete(&alloc).Error
	})
}

// — 采购订单 —

// CreatePO 创建采购订单
func (r *OrderRepository) CreatePO(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

// FindPOByID 根据ID查找采购订单
func (r *OrderRepository) FindPOByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("ProjectCode").
		Preload("Lines").
		First(&po, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// ListPOs 分页查询采购订单
func (r *OrderRepository) ListPOs(ctx context.Context, params OrderListParams, openStatuses []int) ([]entity.PurchaseOrder, int64, error) {
	query := applyOrderParams(
		r.db.WithContext(ctx).Model(&entity.PurchaseOrder{}),
		params, "supplier_id", openStatuses,
	)

	var total int64
	query.Count(&total)

	offset, limit := paginate(&params)
	var orders []entity.PurchaseOrder
	err := query.Preload("Supplier").Preload("ProjectCode").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

// UpdatePO 更新采购订单
func (r *OrderRepository) UpdatePO(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(po).Error
}

// CreatePOLine 创建采购订单行
func (r *OrderRepository) CreatePOLine(ctx context.Context, line *entity.POLineItem) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// FindPOLineByID 根据ID查找采购订单行
func (r *OrderRepository) FindPOLineByID(ctx context.Context, id string) (*entity.POLineItem, error) {
	var line entity.POLineItem
	if err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdatePOLine 更新采购订单行
func (r *OrderRepository) UpdatePOLine(ctx context.Context, line *entity.POLineItem) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// — 退货订单 —

// CreateRO 创建退货订单
func (r *OrderRepository) CreateRO(ctx context.Context, ro *entity.ReturnOrder) error {
	return r.db.WithContext(ctx).Create(ro).Error
}

// FindROByID 根据ID查找退货订单
func (r *OrderRepository) FindROByID(ctx context.Context, id string) (*entity.ReturnOrder, error) {
	var ro entity.ReturnOrder
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Lines").
		Preload("Lines.StockItem").
		First(&ro, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ro, nil
}

// ListROs 分页查询退货订单
func (r *OrderRepository) ListROs(ctx context.Context, params OrderListParams, openStatuses []int) ([]entity.ReturnOrder, int64, error) {
	query := applyOrderParams(
		r.db.WithContext(ctx).Model(&entity.ReturnOrder{}),
		params, "customer_id", openStatuses,
	)

	var total int64
	query.Count(&total)

	offset, limit := paginate(&params)
	var orders []entity.ReturnOrder
	err := query.Preload("Customer").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

// UpdateRO 更新退货订单
func (r *OrderRepository) UpdateRO(ctx context.Context, ro *entity.ReturnOrder) error {
	return r.db.WithContext(ctx).Save(ro).Error
}

// CreateROLine 创建退货订单行
func (r *OrderRepository) CreateROLine(ctx context.Context, line *entity.ReturnOrderLineItem) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// FindROLineByID 根据ID查找退货订单行
func (r *OrderRepository) FindROLineByID(ctx context.Context, id string) (*entity.ReturnOrderLineItem, error) {
	var line entity.ReturnOrderLineItem
	if err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateROLine 更新退货订单行
func (r *OrderRepository) UpdateROLine(ctx context.Context, line *entity.ReturnOrderLineItem) error {
	return r.db.WithContext(ctx).Save(line).Error
}
