package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/status"
)

var (
	// ErrNotSupplier 采购订单必须指向供应商
	ErrNotSupplier = errors.New("company is not a supplier")
	// ErrNotPurchaseable 采购订单行零件必须可采购
	ErrNotPurchaseable = errors.New("part is not purchaseable")
	// ErrOverReceipt 收货数量超过剩余待收数量
	ErrOverReceipt = errors.New("received quantity exceeds outstanding quantity")
)

// 采购订单的未完结状态
var purchaseOrderOpenStatuses = []int{
	status.PurchaseOrderPending,
	status.PurchaseOrderPlaced,
	status.PurchaseOrderOnHold,
}

// PurchaseService 采购订单服务
type PurchaseService struct {
	orderRepo   *repository.OrderRepository
	stockRepo   *repository.StockRepository
	partRepo    *repository.PartRepository
	companyRepo *repository.CompanyRepository
}

// NewPurchaseService 创建采购订单服务
func NewPurchaseService(orderRepo *repository.OrderRepository, stockRepo *repository.StockRepository, partRepo *repository.PartRepository, companyRepo *repository.CompanyRepository) *PurchaseService {
	return &PurchaseService{
		orderRepo:   orderRepo,
		stockRepo:   stockRepo,
		partRepo:    partRepo,
		companyRepo: companyRepo,
	}
}

// CreatePORequest 创建采购订单请求
type CreatePORequest struct {
	Reference     string     `json:"reference" binding:"required"`
	SupplierID    string     `json:"supplier" binding:"required"`
	Description   string     `json:"description"`
	Currency      string     `json:"order_currency"`
	ProjectCodeID string     `json:"project_code"`
	ResponsibleID string     `json:"responsible"`
	SupplierRef   string     `json:"supplier_reference"`
	TargetDate    *time.Time `json:"target_date"`
	Notes         string     `json:"notes"`
}

// Create 创建采购订单
func (s *PurchaseService) Create(ctx context.Context, userID string, req *CreatePORequest) (*entity.PurchaseOrder, error) {
	supplier, err := s.companyRepo.FindByID(ctx, req.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("find supplier: %w", err)
	}
	if !supplier.IsSupplier {
		return nil, ErrNotSupplier
	}

	currency := req.Currency
	if currency == "" {
		currency = supplier.Currency
	}

	po := &entity.PurchaseOrder{
		Reference:     req.Reference,
		SupplierID:    req.SupplierID,
		Description:   req.Description,
		Status:        status.PurchaseOrderPending,
		Currency:      currency,
		ProjectCodeID: nullable(req.ProjectCodeID),
		ResponsibleID: nullable(req.ResponsibleID),
		SupplierRef:   req.SupplierRef,
		TargetDate:    req.TargetDate,
		Notes:         req.Notes,
		CreatedBy:     userID,
	}
	if err := s.orderRepo.CreatePO(ctx, po); err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}
	return po, nil
}

// Get 获取采购订单详情
func (s *PurchaseService) Get(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return s.orderRepo.FindPOByID(ctx, id)
}

// List 获取采购订单列表
func (s *PurchaseService) List(ctx context.Context, params repository.OrderListParams) ([]entity.PurchaseOrder, int64, error) {
	return s.orderRepo.ListPOs(ctx, params, purchaseOrderOpenStatuses)
}

// Issue 下发采购订单
func (s *PurchaseService) Issue(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := s.orderRepo.FindPOByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	po.Status = status.PurchaseOrderPlaced
	po.IssuedAt = &now
	if err := s.orderRepo.UpdatePO(ctx, po); err != nil {
		return nil, fmt.Errorf("issue purchase order: %w", err)
	}
	return po, nil
}

// SetStatus 变更采购订单状态
func (s *PurchaseService) SetStatus(ctx context.Context, id string, newStatus int) (*entity.PurchaseOrder, error) {
	if _, ok := status.PurchaseOrderCodes.Lookup(newStatus); !ok {
		return nil, fmt.Errorf("unknown purchase order status %d", newStatus)
	}
	po, err := s.orderRepo.FindPOByID(ctx, id)
	if err != nil {
		return nil, err
	}
	po.Status = newStatus
	if newStatus == status.PurchaseOrderComplete && po.CompletedAt == nil {
		now := time.Now()
		po.CompletedAt = &now
	}
	if err := s.orderRepo.UpdatePO(ctx, po); err != nil {
		return nil, fmt.Errorf("update purchase order status: %w", err)
	}
	return po, nil
}

// AddPOLineRequest 添加采购订单行请求
type AddPOLineRequest struct {
	OrderID       string     `json:"order" binding:"required"`
	PartID        string     `json:"part" binding:"required"`
	Quantity      float64    `json:"quantity" binding:"required"`
	PurchasePrice float64    `json:"purchase_price"`
	Reference     string     `json:"reference"`
	TargetDate    *time.Time `json:"target_date"`
	Notes         string     `json:"notes"`
}

// AddLine 添加采购订单行，零件必须可采购
func (s *PurchaseService) AddLine(ctx context.Context, req *AddPOLineRequest) (*entity.POLineItem, error) {
	if _, err := s.orderRepo.FindPOByID(ctx, req.OrderID); err != nil {
		return nil, fmt.Errorf("find purchase order: %w", err)
	}
	part, err := s.partRepo.FindByID(ctx, req.PartID)
	if err != nil {
		return nil, fmt.Errorf("find part: %w", err)
	}
	if !part.Purchaseable {
		return nil, ErrNotPurchaseable
	}

	line := &entity.POLineItem{
		OrderID:       req.OrderID,
		PartID:        req.PartID,
		PartIPN:       part.IPN,
		PartName:      part.Name,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		Reference:     req.Reference,
		TargetDate:    req.TargetDate,
		Notes:         req.Notes,
	}
	if err := s.orderRepo.CreatePOLine(ctx, line); err != nil {
		return nil, fmt.Errorf("create purchase order line: %w", err)
	}
	return line, nil
}

// ReceiveLineRequest 采购收货请求
type ReceiveLineRequest struct {
	Quantity   float64 `json:"quantity" binding:"required"`
	LocationID string  `json:"location"`
	BatchNo    string  `json:"batch"`
	Status     int     `json:"status"`
	Notes      string  `json:"notes"`
}

// ReceiveLine 对采购订单行收货：生成库存项并累计已收数量，
// 全部行收完时订单自动完成。
func (s *PurchaseService) ReceiveLine(ctx context.Context, userID, lineID string, req *ReceiveLineRequest) (*entity.StockItem, error) {
	line, err := s.orderRepo.FindPOLineByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("receive stock: quantity must be positive")
	}
	if req.Quantity > line.Quantity-line.ReceivedQty {
		return nil, ErrOverReceipt
	}

	if req.LocationID != "" {
		loc, err := s.stockRepo.FindLocationByID(ctx, req.LocationID)
		if err != nil {
			return nil, fmt.Errorf("find location: %w", err)
		}
		if loc.Structural {
			return nil, ErrStructuralLocation
		}
	}

	st := req.Status
	if st == 0 {
		st = status.StockOK
	}

	item := &entity.StockItem{
		PartID:        line.PartID,
		PartIPN:       line.PartIPN,
		PartName:      line.PartName,
		LocationID:    nullable(req.LocationID),
		Quantity:      req.Quantity,
		BatchNo:       req.BatchNo,
		Status:        st,
		PurchasePrice: line.PurchasePrice,
		Notes:         req.Notes,
		CreatedBy:     userID,
	}
	if err := s.stockRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("receive stock: %w", err)
	}

	tracking := &entity.StockTracking{
		StockItemID:  item.ID,
		TrackingType: status.HistoryCreated,
		DeltaQty:     req.Quantity,
		Notes:        "PO " + line.OrderID,
		CreatedBy:    userID,
	}
	_ = s.stockRepo.CreateTracking(ctx, tracking)

	line.ReceivedQty += req.Quantity
	if err := s.orderRepo.UpdatePOLine(ctx, line); err != nil {
		return nil, fmt.Errorf("update received quantity: %w", err)
	}

	// 全部行收完则订单完成
	po, err := s.orderRepo.FindPOByID(ctx, line.OrderID)
	if err == nil {
		allReceived := len(po.Lines) > 0
		for _, l := range po.Lines {
			if l.ReceivedQty < l.Quantity {
				allReceived = false
				break
			}
		}
		if allReceived {
			now := time.Now()
			po.Status = status.PurchaseOrderComplete
			po.CompletedAt = &now
			_ = s.orderRepo.UpdatePO(ctx, po)
		}
	}

	return item, nil
}
