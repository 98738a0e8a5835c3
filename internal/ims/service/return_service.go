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

// ErrItemNotWithCustomer 退货行只能挂在该客户名下的库存项
var ErrItemNotWithCustomer = errors.New("stock item is not assigned to this customer")

// 退货订单的未完结状态
var returnOrderOpenStatuses = []int{
	status.ReturnOrderPending,
	status.ReturnOrderInProgress,
	status.ReturnOrderOnHold,
}

// ReturnService 退货订单服务
type ReturnService struct {
	orderRepo   *repository.OrderRepository
	stockRepo   *repository.StockRepository
	companyRepo *repository.CompanyRepository
}

// NewReturnService 创建退货订单服务
func NewReturnService(orderRepo *repository.OrderRepository, stockRepo *repository.StockRepository, companyRepo *repository.CompanyRepository) *ReturnService {
	return &ReturnService{
		orderRepo:   orderRepo,
		stockRepo:   stockRepo,
		companyRepo: companyRepo,
	}
}

// CreateRORequest 创建退货订单请求
type CreateRORequest struct {
	Reference     string     `json:"reference" binding:"required"`
	CustomerID    string     `json:"customer" binding:"required"`
	Description   string     `json:"description"`
	ProjectCodeID string     `json:"project_code"`
	ResponsibleID string     `json:"responsible"`
	TargetDate    *time.Time `json:"target_date"`
	Notes         string     `json:"notes"`
}

// Create 创建退货订单
func (s *ReturnService) Create(ctx context.Context, userID string, req *CreateRORequest) (*entity.ReturnOrder, error) {
	customer, err := s.companyRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	if !customer.IsCustomer {
		return nil, ErrNotCustomer
	}

	ro := &entity.ReturnOrder{
		Reference:     req.Reference,
		CustomerID:    req.CustomerID,
		Description:   req.Description,
		Status:        status.ReturnOrderPending,
		ProjectCodeID: nullable(req.ProjectCodeID),
		ResponsibleID: nullable(req.ResponsibleID),
		TargetDate:    req.TargetDate,
		Notes:         req.Notes,
		CreatedBy:     userID,
	}
	if err := s.orderRepo.CreateRO(ctx, ro); err != nil {
		return nil, fmt.Errorf("create return order: %w", err)
	}
	return ro, nil
}

// Get 获取退货订单详情
func (s *ReturnService) Get(ctx context.Context, id string) (*entity.ReturnOrder, error) {
	return s.orderRepo.FindROByID(ctx, id)
}

// List 获取退货订单列表
func (s *ReturnService) List(ctx context.Context, params repository.OrderListParams) ([]entity.ReturnOrder, int64, error) {
	return s.orderRepo.ListROs(ctx, params, returnOrderOpenStatuses)
}

// SetStatus 变更退货订单状态
func (s *ReturnService) SetStatus(ctx context.Context, id string, newStatus int) (*entity.ReturnOrder, error) {
	if _, ok := status.ReturnOrderCodes.Lookup(newStatus); !ok {
		return nil, fmt.Errorf("unknown return order status %d", newStatus)
	}
	ro, err := s.orderRepo.FindROByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ro.Status = newStatus
	if newStatus == status.ReturnOrderComplete && ro.CompletedAt == nil {
		now := time.Now()
		ro.CompletedAt = &now
	}
	if err := s.orderRepo.UpdateRO(ctx, ro); err != nil {
		return nil, fmt.Errorf("update return order status: %w", err)
	}
	return ro, nil
}

// AddROLineRequest 添加退货行请求
type AddROLineRequest struct {
	OrderID     string     `json:"order" binding:"required"`
	StockItemID string     `json:"item" binding:"required"`
	Reference   string     `json:"reference"`
	Price       float64    `json:"price"`
	TargetDate  *time.Time `json:"target_date"`
	Notes       string     `json:"notes"`
}

// AddLine 添加退货行，库存项必须在该客户名下
func (s *ReturnService) AddLine(ctx context.Context, req *AddROLineRequest) (*entity.ReturnOrderLineItem, error) {
	ro, err := s.orderRepo.FindROByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find return order: %w", err)
	}
	item, err := s.stockRepo.FindByID(ctx, req.StockItemID)
	if err != nil {
		return nil, fmt.Errorf("find stock item: %w", err)
	}
	if item.CustomerID == nil || *item.CustomerID != ro.CustomerID {
		return nil, ErrItemNotWithCustomer
	}

	line := &entity.ReturnOrderLineItem{
		OrderID:     req.OrderID,
		StockItemID: req.StockItemID,
		Outcome:     status.ReturnLinePending,
		Reference:   req.Reference,
		Price:       req.Price,
		TargetDate:  req.TargetDate,
		Notes:       req.Notes,
	}
	if err := s.orderRepo.CreateROLine(ctx, line); err != nil {
		return nil, fmt.Errorf("create return order line: %w", err)
	}
	return line, nil
}

// ReceiveROLineRequest 退货收货请求
type ReceiveROLineRequest struct {
	LocationID string `json:"location" binding:"required"`
	Notes      string `json:"notes"`
}

// ReceiveLine 收到退货：库存项回到指定库位并转入隔离状态，
// 订单转入处理中。
func (s *ReturnService) ReceiveLine(ctx context.Context, userID, lineID string, req *ReceiveROLineRequest) (*entity.ReturnOrderLineItem, error) {
	line, err := s.orderRepo.FindROLineByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line.ReceivedAt != nil {
		return nil, fmt.Errorf("return order line already received")
	}

	loc, err := s.stockRepo.FindLocationByID(ctx, req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("find location: %w", err)
	}
	if loc.Structural {
		return nil, ErrStructuralLocation
	}

	item, err := s.stockRepo.FindByID(ctx, line.StockItemID)
	if err != nil {
		return nil, fmt.Errorf("find stock item: %w", err)
	}
	item.CustomerID = nil
	item.LocationID = &loc.ID
	item.Status = status.StockQuarantined
	if err := s.stockRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("return stock item: %w", err)
	}

	tracking := &entity.StockTracking{
		StockItemID:  item.ID,
		TrackingType: status.HistoryReturnedFromCustomer,
		Notes:        req.Notes,
		CreatedBy:    userID,
	}
	_ = s.stockRepo.CreateTracking(ctx, tracking)

	now := time.Now()
	line.ReceivedAt = &now
	if err := s.orderRepo.UpdateROLine(ctx, line); err != nil {
		return nil, fmt.Errorf("update return order line: %w", err)
	}

	ro, err := s.orderRepo.FindROByID(ctx, line.OrderID)
	if err == nil && ro.Status == status.ReturnOrderPending {
		ro.Status = status.ReturnOrderInProgress
		_ = s.orderRepo.UpdateRO(ctx, ro)
	}

	return line, nil
}

// SetLineOutcome 设定退货行处置结果
func (s *ReturnService) SetLineOutcome(ctx context.Context, lineID string, outcome int) (*entity.ReturnOrderLineItem, error) {
	if _, ok := status.ReturnOrderLineCodes.Lookup(outcome); !ok {
		return nil, fmt.Errorf("unknown return line outcome %d", outcome)
	}
	line, err := s.orderRepo.FindROLineByID(ctx, lineID)
	if err != nil {
		return nil, err
	}
	line.Outcome = outcome
	if err := s.orderRepo.UpdateROLine(ctx, line); err != nil {
		return nil, fmt.Errorf("update return order line: %w", err)
	}
	return line, nil
}
