package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/status"
	"go.uber.org/zap"
)

var (
	// ErrStructuralLocation 结构性库位不能直接存放库存
	ErrStructuralLocation = errors.New("structural location cannot hold stock items")
	// ErrInsufficientStock 扣减数量超过当前数量
	ErrInsufficientStock = errors.New("insufficient stock quantity")
	// ErrSerializedQuantity 序列化库存项数量必须为1
	ErrSerializedQuantity = errors.New("serialized stock item must have quantity 1")
	// ErrMergeIncompatible 不同零件的库存项不能合并
	ErrMergeIncompatible = errors.New("stock items of different parts cannot be merged")
)

// StockService 库存服务
type StockService struct {
	repo     *repository.StockRepository
	partRepo *repository.PartRepository
	logger   *zap.Logger
}

// NewStockService 创建库存服务
func NewStockService(repo *repository.StockRepository, partRepo *repository.PartRepository, logger *zap.Logger) *StockService {
	return &StockService{repo: repo, partRepo: partRepo, logger: logger}
}

// CreateStockItemRequest 创建库存项请求
type CreateStockItemRequest struct {
	PartID     string     `json:"part" binding:"required"`
	LocationID string     `json:"location"`
	Quantity   float64    `json:"quantity" binding:"required"`
	BatchNo    string     `json:"batch"`
	SerialNo   string     `json:"serial"`
	Status     int        `json:"status"`
	ExpiryDate *time.Time `json:"expiry_date"`
	Notes      string     `json:"notes"`
}

// Create 创建库存项并写入创建履历
func (s *StockService) Create(ctx context.Context, userID string, req *CreateStockItemRequest) (*entity.StockItem, error) {
	part, err := s.partRepo.FindByID(ctx, req.PartID)
	if err != nil {
		return nil, fmt.Errorf("find part: %w", err)
	}

	if req.LocationID != "" {
		loc, err := s.repo.FindLocationByID(ctx, req.LocationID)
		if err != nil {
			return nil, fmt.Errorf("find location: %w", err)
		}
		if loc.Structural {
			return nil, ErrStructuralLocation
		}
	}

	if req.SerialNo != "" && req.Quantity != 1 {
		return nil, ErrSerializedQuantity
	}

	st := req.Status
	if st == 0 {
		st = status.StockOK
	}

	// 未指定过期日期时按零件默认过期天数推算
	expiry := req.ExpiryDate
	if expiry == nil && part.DefaultExpiry > 0 {
		d := time.Now().AddDate(0, 0, part.DefaultExpiry)
		expiry = &d
	}

	item := &entity.StockItem{
		PartID:     req.PartID,
		PartIPN:    part.IPN,
		PartName:   part.Name,
		LocationID: nullable(req.LocationID),
		Quantity:   req.Quantity,
		BatchNo:    req.BatchNo,
		SerialNo:   req.SerialNo,
		Status:     st,
		ExpiryDate: expiry,
		Notes:      req.Notes,
		CreatedBy:  userID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create stock item: %w", err)
	}

	s.track(ctx, item.ID, status.HistoryCreated, userID, req.Quantity, "")
	return item, nil
}

// Get 获取库存项详情
func (s *StockService) Get(ctx context.Context, id string) (*entity.StockItem, error) {
	return s.repo.FindByID(ctx, id)
}

// List 获取库存项列表
func (s *StockService) List(ctx context.Context, params repository.StockListParams) ([]entity.StockItem, int64, error) {
	return s.repo.List(ctx, params)
}

// AdjustRequest 库存调整请求（加库存/减库存/盘点）
type AdjustRequest struct {
	ItemID   string  `json:"item" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required"`
	Notes    string  `json:"notes"`
}

// Add 加库存
func (s *StockService) Add(ctx context.Context, userID string, req *AdjustRequest) (*entity.StockItem, error) {
	item, err := s.repo.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("add stock: quantity must be positive")
	}

	item.Quantity += req.Quantity
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("add stock: %w", err)
	}
	s.track(ctx, item.ID, status.HistoryStockAdd, userID, req.Quantity, req.Notes)
	return item, nil
}

// Remove 减库存
func (s *StockService) Remove(ctx context.Context, userID string, req *AdjustRequest) (*entity.StockItem, error) {
	item, err := s.repo.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("remove stock: quantity must be positive")
	}
	if req.Quantity > item.Quantity {
		return nil, ErrInsufficientStock
	}

	item.Quantity -= req.Quantity
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("remove stock: %w", err)
	}
	s.track(ctx, item.ID, status.HistoryStockRemove, userID, -req.Quantity, req.Notes)
	return item, nil
}

// Count 盘点，数量直接置为盘点值
func (s *StockService) Count(ctx context.Context, userID string, req *AdjustRequest) (*entity.StockItem, error) {
	item, err := s.repo.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("count stock: quantity must not be negative")
	}

	delta := req.Quantity - item.Quantity
	now := time.Now()
	item.Quantity = req.Quantity
	item.StocktakeAt = &now
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("count stock: %w", err)
	}
	s.track(ctx, item.ID, status.HistoryStocktake, userID, delta, req.Notes)
	return item, nil
}

// TransferRequest 转移库位请求
type TransferRequest struct {
	ItemID     string `json:"item" binding:"required"`
	LocationID string `json:"location" binding:"required"`
	Notes      string `json:"notes"`
}

// Transfer 转移库存项到新库位
func (s *StockService) Transfer(ctx context.Context, userID string, req *TransferRequest) (*entity.StockItem, error) {
	item, err := s.repo.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	loc, err := s.repo.FindLocationByID(ctx, req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("find location: %w", err)
	}
	if loc.Structural {
		return nil, ErrStructuralLocation
	}

	item.LocationID = &loc.ID
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("transfer stock: %w", err)
	}
	s.track(ctx, item.ID, status.HistorySentToLocation, userID, 0, req.Notes)
	return item, nil
}

// AssignRequest 指派给客户请求
type AssignRequest struct {
	ItemID     string `json:"item" binding:"required"`
	CustomerID string `json:"customer" binding:"required"`
	Notes      string `json:"notes"`
}

// Assign 把库存项指派给客户，项脱离在库状态
func (s *StockService) Assign(ctx context.Context, userID string, req *AssignRequest) (*entity.StockItem, error) {
	item, err := s.repo.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}

	item.CustomerID = &req.CustomerID
	item.LocationID = nil
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("assign stock: %w", err)
	}
	s.track(ctx, item.ID, status.HistorySentToCustomer, userID, 0, req.Notes)
	return item, nil
}

// MergeRequest 合并库存项请求
type MergeRequest struct {
	ItemIDs    []string `json:"items" binding:"required"`
	LocationID string   `json:"location"`
	Notes      string   `json:"notes"`
}

// MergeResult 合并结果，Warnings 记录批次/状态不一致等非致命问题
type MergeResult struct {
	Item     *entity.StockItem `json:"item"`
	Warnings []string          `json:"warnings,omitempty"`
}

// Merge 合并多个同零件库存项为一项。
// 批次或状态不一致时不拒绝，合并继续并返回告警。
func (s *StockService) Merge(ctx context.Context, userID string, req *MergeRequest) (*MergeResult, error) {
	if len(req.ItemIDs) < 2 {
		return nil, fmt.Errorf("merge stock: at least two items required")
	}

	items, err := s.repo.FindByIDs(ctx, req.ItemIDs)
	if err != nil {
		return nil, fmt.Errorf("merge stock: %w", err)
	}
	if len(items) != len(req.ItemIDs) {
		return nil, repository.ErrNotFound
	}

	// IN 查询不保证返回顺序，按请求顺序对齐，首个ID为合并目标
	byID := make(map[string]*entity.StockItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	base := byID[req.ItemIDs[0]]
	if base == nil {
		return nil, repository.ErrNotFound
	}

	var warnings []string
	total := base.Quantity
	for _, id := range req.ItemIDs[1:] {
		it := byID[id]
		if it == nil {
			return nil, repository.ErrNotFound
		}
		if it.PartID != base.PartID {
			return nil, ErrMergeIncompatible
		}
		if it.SerialNo != "" || base.SerialNo != "" {
			return nil, fmt.Errorf("merge stock: serialized items cannot be merged")
		}
		if it.BatchNo != base.BatchNo {
			warnings = append(warnings, fmt.Sprintf("batch mismatch: %q vs %q", base.BatchNo, it.BatchNo))
		}
		if it.Status != base.Status {
			warnings = append(warnings, fmt.Sprintf("status mismatch: %d vs %d", base.Status, it.Status))
		}
		total += it.Quantity
	}

	base.Quantity = total
	if req.LocationID != "" {
		loc, err := s.repo.FindLocationByID(ctx, req.LocationID)
		if err != nil {
			return nil, fmt.Errorf("find location: %w", err)
		}
		if loc.Structural {
			return nil, ErrStructuralLocation
		}
		base.LocationID = &loc.ID
	}

	if err := s.repo.Update(ctx, base); err != nil {
		return nil, fmt.Errorf("merge stock: %w", err)
	}
	if err := s.repo.DeleteMany(ctx, req.ItemIDs[1:]); err != nil {
		return nil, fmt.Errorf("merge stock: %w", err)
	}

	notes := req.Notes
	if notes == "" {
		notes = fmt.Sprintf("merged %d stock items; source item history removed and cannot be restored", len(items))
	}
	s.track(ctx, base.ID, status.HistoryMergedItems, userID, total, notes)
	return &MergeResult{Item: base, Warnings: warnings}, nil
}

// Delete 删除库存项
func (s *StockService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// DeleteMany 批量删除库存项
func (s *StockService) DeleteMany(ctx context.Context, ids []string) error {
	return s.repo.DeleteMany(ctx, ids)
}

// Tracking 库存项履历
func (s *StockService) Tracking(ctx context.Context, itemID string, page, size int) ([]entity.StockTracking, int64, error) {
	return s.repo.ListTracking(ctx, itemID, page, size)
}

// track 写入履历记录，失败只告警不阻断主流程
func (s *StockService) track(ctx context.Context, itemID string, trackingType int, userID string, delta float64, notes string) {
	tracking := &entity.StockTracking{
		StockItemID:  itemID,
		TrackingType: trackingType,
		DeltaQty:     delta,
		Notes:        notes,
		CreatedBy:    userID,
	}
	if err := s.repo.CreateTracking(ctx, tracking); err != nil {
		s.logger.Warn("Stock tracking write failed",
			zap.String("item_id", itemID), zap.Int("type", trackingType), zap.Error(err))
	}
}

// CreateLocationRequest 创建库位请求
type CreateLocationRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	ParentID       string `json:"parent_id"`
	LocationTypeID string `json:"location_type"`
	Structural     bool   `json:"structural"`
	External       bool   `json:"external"`
}

// CreateLocation 创建库位，路径名由父级路径拼接
func (s *StockService) CreateLocation(ctx context.Context, req *CreateLocationRequest) (*entity.StockLocation, error) {
	pathName := req.Name
	if req.ParentID != "" {
		parent, err := s.repo.FindLocationByID(ctx, req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("find parent location: %w", err)
		}
		pathName = parent.PathName + "/" + req.Name
	}
	loc := &entity.StockLocation{
		Name:           req.Name,
		Description:    req.Description,
		ParentID:       nullable(req.ParentID),
		PathName:       pathName,
		LocationTypeID: nullable(req.LocationTypeID),
		Structural:     req.Structural,
		External:       req.External,
	}
	if err := s.repo.CreateLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	return loc, nil
}

// GetLocation 获取库位详情
func (s *StockService) GetLocation(ctx context.Context, id string) (*entity.StockLocation, error) {
	return s.repo.FindLocationByID(ctx, id)
}

// ListLocations 列出库位，parentID 为空列出全部
func (s *StockService) ListLocations(ctx context.Context, parentID string) ([]entity.StockLocation, error) {
	return s.repo.ListLocations(ctx, parentID)
}

// ListLocationTypes 列出库位类型
func (s *StockService) ListLocationTypes(ctx context.Context) ([]entity.LocationType, error) {
	return s.repo.ListLocationTypes(ctx)
}
