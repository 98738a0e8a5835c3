package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/status"
	"go.uber.org/zap"
)

var (
	// ErrNotCustomer 销售订单必须指向客户
	ErrNotCustomer = errors.New("company is not a customer")
	// ErrNotSalable 订单行零件必须可销售
	ErrNotSalable = errors.New("part is not salable")
	// ErrShipmentShipped 已发出的发运单不能再改
	ErrShipmentShipped = errors.New("shipment has already been shipped")
)

// 销售订单的未完结状态
var salesOrderOpenStatuses = []int{
	status.SalesOrderPending,
	status.SalesOrderInProgress,
	status.SalesOrderOnHold,
}

// SalesService 销售订单服务
type SalesService struct {
	orderRepo   *repository.OrderRepository
	stockRepo   *repository.StockRepository
	partRepo    *repository.PartRepository
	companyRepo *repository.CompanyRepository
	logger      *zap.Logger
}

// NewSalesService 创建销售订单服务
func NewSalesService(orderRepo *repository.OrderRepository, stockRepo *repository.StockRepository, partRepo *repository.PartRepository, companyRepo *repository.CompanyRepository, logger *zap.Logger) *SalesService {
	return &SalesService{
		orderRepo:   orderRepo,
		stockRepo:   stockRepo,
		partRepo:    partRepo,
		companyRepo: companyRepo,
		logger:      logger,
	}
}

// CreateSORequest 创建销售订单请求
type CreateSORequest struct {
	Reference     string     `json:"reference" binding:"required"`
	CustomerID    string     `json:"customer" binding:"required"`
	Description   string     `json:"description"`
	Currency      string     `json:"order_currency"`
	ProjectCodeID string     `json:"project_code"`
	ResponsibleID string     `json:"responsible"`
	TargetDate    *time.Time `json:"target_date"`
	CustomerRef   string     `json:"customer_reference"`
	Notes         string     `json:"notes"`
}

// Create 创建销售订单
func (s *SalesService) Create(ctx context.Context, userID string, req *CreateSORequest) (*entity.SalesOrder, error) {
	customer, err := s.companyRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	if !customer.IsCustomer {
		return nil, ErrNotCustomer
	}

	currency := req.Currency
	if currency == "" {
		currency = customer.Currency
	}

	so := &entity.SalesOrder{
		Reference:     req.Reference,
		CustomerID:    req.CustomerID,
		Description:   req.Description,
		Status:        status.SalesOrderPending,
		Currency:      currency,
		ProjectCodeID: nullable(req.ProjectCodeID),
		ResponsibleID: nullable(req.ResponsibleID),
		TargetDate:    req.TargetDate,
		CustomerRef:   req.CustomerRef,
		Notes:         req.Notes,
		CreatedBy:     userID,
	}
	if err := s.orderRepo.CreateSO(ctx, so); err != nil {
		return nil, fmt.Errorf("create sales order: %w", err)
	}
	return so, nil
}

// Get 获取销售订单详情（含行项、分配与发运单）
func (s *SalesService) Get(ctx context.Context, id string) (*entity.SalesOrder, error) {
	return s.orderRepo.FindSOByID(ctx, id)
}

// List 获取销售订单列表
func (s *SalesService) List(ctx context.Context, params repository.OrderListParams) ([]entity.SalesOrder, int64, error) {
	return s.orderRepo.ListSOs(ctx, params, salesOrderOpenStatuses)
}

// UpdateSORequest 更新销售订单请求
type UpdateSORequest struct {
	Description   *string    `json:"description"`
	ProjectCodeID *string    `json:"project_code"`
	ResponsibleID *string    `json:"responsible"`
	TargetDate    *time.Time `json:"target_date"`
	CustomerRef   *string    `json:"customer_reference"`
	Notes         *string    `json:"notes"`
}

// Update 更新销售订单
func (s *SalesService) Update(ctx context.Context, id string, req *UpdateSORequest) (*entity.SalesOrder, error) {
	so, err := s.orderRepo.FindSOByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Description != nil {
		so.Description = *req.Description
	}
	if req.ProjectCodeID != nil {
		so.ProjectCodeID = nullable(*req.ProjectCodeID)
	}
	if req.ResponsibleID != nil {
		so.ResponsibleID = nullable(*req.ResponsibleID)
	}
	if req.TargetDate != nil {
		so.TargetDate = req.TargetDate
	}
	if req.CustomerRef != nil {
		so.CustomerRef = *req.CustomerRef
	}
	if req.Notes != nil {
		so.Notes = *req.Notes
	}
	if err := s.orderRepo.UpdateSO(ctx, so); err != nil {
		return nil, fmt.Errorf("update sales order: %w", err)
	}
	return so, nil
}

// SetStatus 变更销售订单状态
func (s *SalesService) SetStatus(ctx context.Context, id string, newStatus int) (*entity.SalesOrder, error) {
	if _, ok := status.SalesOrderCodes.Lookup(newStatus); !ok {
		return nil, fmt.Errorf("unknown sales order status %d", newStatus)
	}
	so, err := s.orderRepo.FindSOByID(ctx, id)
	if err != nil {
		return nil, err
	}
	so.Status = newStatus
	if err := s.orderRepo.UpdateSO(ctx, so); err != nil {
		return nil, fmt.Errorf("update sales order status: %w", err)
	}
	return so, nil
}

// Delete 删除销售订单
func (s *SalesService) Delete(ctx context.Context, id string) error {
	return s.orderRepo.DeleteSO(ctx, id)
}

// AddLineRequest 添加订单行请求
type AddLineRequest struct {
	OrderID    string     `json:"order" binding:"required"`
	PartID     string     `json:"part" binding:"required"`
	Quantity   float64    `json:"quantity" binding:"required"`
	SalePrice  float64    `json:"sale_price"`
	Reference  string     `json:"reference"`
	TargetDate *time.Time `json:"target_date"`
	Notes      string     `json:"notes"`
}

// AddLine 添加订单行，零件必须可销售
func (s *SalesService) AddLine(ctx context.Context, req *AddLineRequest) (*entity.SOLineItem, error) {
	if _, err := s.orderRepo.FindSOByID(ctx, req.OrderID); err != nil {
		return nil, fmt.Errorf("find sales order: %w", err)
	}
	part, err := s.partRepo.FindByID(ctx, req.PartID)
	if err != nil {
		return nil, fmt.Errorf("find part: %w", err)
	}
	if !part.Salable {
		return nil, ErrNotSalable
	}

	line := &entity.SOLineItem{
		OrderID:    req.OrderID,
		PartID:     req.PartID,
		PartIPN:    part.IPN,
		PartName:   part.Name,
		Quantity:   req.Quantity,
		SalePrice:  req.SalePrice,
		Reference:  req.Reference,
		TargetDate: req.TargetDate,
		Notes:      req.Notes,
	}
	if err := s.orderRepo.CreateSOLine(ctx, line); err != nil {
		return nil, fmt.Errorf("create sales order line: %w", err)
	}
	return line, nil
}

// GetLine 获取订单行详情
func (s *SalesService) GetLine(ctx context.Context, id string) (*entity.SOLineItem, error) {
	return s.orderRepo.FindSOLineByID(ctx, id)
}

// ListLines 列出订单行
func (s *SalesService) ListLines(ctx context.Context, orderID string) ([]entity.SOLineItem, error) {
	return s.orderRepo.ListSOLines(ctx, orderID)
}

// UpdateLineRequest 更新订单行请求
type UpdateLineRequest struct {
	Quantity   *float64   `json:"quantity"`
	SalePrice  *float64   `json:"sale_price"`
	Reference  *string    `json:"reference"`
	TargetDate *time.Time `json:"target_date"`
	Notes      *string    `json:"notes"`
}

// UpdateLine 更新订单行
func (s *SalesService) UpdateLine(ctx context.Context, id string, req *UpdateLineRequest) (*entity.SOLineItem, error) {
	line, err := s.orderRepo.FindSOLineByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Quantity != nil {
		line.Quantity = *req.Quantity
	}
	if req.SalePrice != nil {
		line.SalePrice = *req.SalePrice
	}
	if req.Reference != nil {
		line.Reference = *req.Reference
	}
	if req.TargetDate != nil {
		line.TargetDate = req.TargetDate
	}
	if req.Notes != nil {
		line.Notes = *req.Notes
	}
	if err := s.orderRepo.UpdateSOLine(ctx, line); err != nil {
		return nil, fmt.Errorf("update sales order line: %w", err)
	}
	return line, nil
}

// DeleteLine 删除订单行
func (s *SalesService) DeleteLine(ctx context.Context, id string) error {
	return s.orderRepo.DeleteSOLine(ctx, id)
}

// — 发运 —

// CreateShipmentRequest 创建发运单请求
type CreateShipmentRequest struct {
	OrderID   string `json:"order" binding:"required"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

// CreateShipment 创建发运单，未给定编号时按序号生成
func (s *SalesService) CreateShipment(ctx context.Context, userID string, req *CreateShipmentRequest) (*entity.Shipment, error) {
	if _, err := s.orderRepo.FindSOByID(ctx, req.OrderID); err != nil {
		return nil, fmt.Errorf("find sales order: %w", err)
	}

	reference := req.Reference
	if reference == "" {
		existing, err := s.orderRepo.ListShipments(ctx, req.OrderID)
		if err != nil {
			return nil, fmt.Errorf("list shipments: %w", err)
		}
		reference = strconv.Itoa(len(existing) + 1)
	}

	shipment := &entity.Shipment{
		OrderID:   req.OrderID,
		Reference: reference,
		Notes:     req.Notes,
		CreatedBy: userID,
	}
	if err := s.orderRepo.CreateShipment(ctx, shipment); err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	return shipment, nil
}

// ListShipments 列出订单的发运单
func (s *SalesService) ListShipments(ctx context.Context, orderID string) ([]entity.Shipment, error) {
	return s.orderRepo.ListShipments(ctx, orderID)
}

// CompleteShipmentRequest 完成发运请求
type CompleteShipmentRequest struct {
	TrackingNo string `json:"tracking_number"`
	InvoiceNo  string `json:"invoice_number"`
}

// CompleteShipment 完成发运：扣减发运分配对应的库存，累计行项已发数量，
// 写发运履历；订单行全部发完时订单进入已发运状态。
func (s *SalesService) CompleteShipment(ctx context.Context, userID, shipmentID string, req *CompleteShipmentRequest) (*entity.Shipment, error) {
	shipment, err := s.orderRepo.FindShipmentByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.Shipped() {
		return nil, ErrShipmentShipped
	}

	so, err := s.orderRepo.FindSOByID(ctx, shipment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find sales order: %w", err)
	}

	for _, line := range so.Lines {
		var shippedFromLine float64
		for _, alloc := range line.Allocations {
			if alloc.ShipmentID == nil || *alloc.ShipmentID != shipmentID {
				continue
			}

			item, err := s.stockRepo.FindByID(ctx, alloc.StockItemID)
			if err != nil {
				return nil, fmt.Errorf("find allocated stock item: %w", err)
			}
			item.Quantity -= alloc.Quantity
			if item.Quantity < 0 {
				item.Quantity = 0
			}
			item.CustomerID = &so.CustomerID
			if err := s.stockRepo.Update(ctx, item); err != nil {
				return nil, fmt.Errorf("ship stock item: %w", err)
			}

			tracking := &entity.StockTracking{
				StockItemID:  item.ID,
				TrackingType: status.HistoryShippedAgainstSO,
				DeltaQty:     -alloc.Quantity,
				Notes:        "SO " + so.Reference,
				CreatedBy:    userID,
			}
			if err := s.stockRepo.CreateTracking(ctx, tracking); err != nil {
				s.logger.Warn("Stock tracking write failed",
					zap.String("item_id", item.ID), zap.Error(err))
			}

			if err := s.orderRepo.DeleteAllocation(ctx, alloc.ID); err != nil {
				return nil, fmt.Errorf("consume allocation: %w", err)
			}
			shippedFromLine += alloc.Quantity
		}

		if shippedFromLine > 0 {
			lineCopy := line
			lineCopy.ShippedQty += shippedFromLine
			if err := s.orderRepo.UpdateSOLine(ctx, &lineCopy); err != nil {
				return nil, fmt.Errorf("update shipped quantity: %w", err)
			}
		}
	}

	now := time.Now()
	shipment.ShippedAt = &now
	shipment.TrackingNo = req.TrackingNo
	shipment.InvoiceNo = req.InvoiceNo
	if err := s.orderRepo.UpdateShipment(ctx, shipment); err != nil {
		return nil, fmt.Errorf("complete shipment: %w", err)
	}

	// 行项全部发完则订单进入已发运
	updated, err := s.orderRepo.FindSOByID(ctx, so.ID)
	if err == nil {
		allShipped := len(updated.Lines) > 0
		for _, line := range updated.Lines {
			if line.ShippedQty < line.Quantity {
				allShipped = false
				break
			}
		}
		if allShipped {
			updated.Status = status.SalesOrderShipped
			now := time.Now()
			updated.ShipmentDate = &now
			if err := s.orderRepo.UpdateSO(ctx, updated); err != nil {
				s.logger.Warn("Sales order status update failed",
					zap.String("order_id", so.ID), zap.Error(err))
			}
		}
	}

	return shipment, nil
}

// — 库存分配 —

// AllocationRows 构建某订单的分配表单行：每个未分配完的行项一行，
// 附带该零件的候选库存项与预填数量。
func (s *SalesService) AllocationRows(ctx context.Context, orderID string) ([]AllocationRow, error) {
	so, err := s.orderRepo.FindSOByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	stockByPart := make(map[string][]entity.StockItem)
	for _, line := range so.Lines {
		if _, ok := stockByPart[line.PartID]; ok {
			continue
		}
		available := true
		items, _, err := s.stockRepo.List(ctx, repository.StockListParams{
			PartID:    line.PartID,
			Available: &available,
			Size:      100,
		})
		if err != nil {
			return nil, fmt.Errorf("list candidate stock: %w", err)
		}
		stockByPart[line.PartID] = items
	}

	return BuildAllocationRows(so.Lines, stockByPart), nil
}

// AllocationInput 单条分配输入
type AllocationInput struct {
	LineItemID  string  `json:"line" binding:"required"`
	StockItemID string  `json:"item" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required"`
}

// AllocateRequest 批量分配请求
type AllocateRequest struct {
	ShipmentID string            `json:"shipment"`
	Items      []AllocationInput `json:"items" binding:"required,dive"`
}

// Allocate 把库存项分配到订单行。整批校验，任一条不合法则整批拒绝，
// 错误按字段路径汇总返回。
func (s *SalesService) Allocate(ctx context.Context, userID string, req *AllocateRequest) ([]entity.SOAllocation, error) {
	verr := newValidationError()

	if len(req.Items) == 0 {
		verr.Fields["items"] = "at least one allocation is required"
		return nil, verr
	}

	if req.ShipmentID != "" {
		shipment, err := s.orderRepo.FindShipmentByID(ctx, req.ShipmentID)
		if err != nil {
			verr.Fields["shipment"] = "shipment not found"
		} else if shipment.Shipped() {
			verr.Fields["shipment"] = "shipment has already been shipped"
		}
	}

	allocations := make([]entity.SOAllocation, 0, len(req.Items))
	for i, input := range req.Items {
		prefix := fmt.Sprintf("items.%d.", i)

		if input.Quantity <= 0 {
			verr.Fields[prefix+"quantity"] = "quantity must be positive"
			continue
		}

		line, err := s.orderRepo.FindSOLineByID(ctx, input.LineItemID)
		if err != nil {
			verr.Fields[prefix+"line"] = "line item not found"
			continue
		}

		item, err := s.stockRepo.FindByID(ctx, input.StockItemID)
		if err != nil {
			verr.Fields[prefix+"item"] = "stock item not found"
			continue
		}
		if item.PartID != line.PartID {
			verr.Fields[prefix+"item"] = "stock item part does not match line item part"
			continue
		}
		if !item.InStock() {
			verr.Fields[prefix+"item"] = "stock item is not in stock"
			continue
		}
		if input.Quantity > item.Available() {
			verr.Fields[prefix+"quantity"] = fmt.Sprintf("only %g available", item.Available())
			continue
		}
		if item.SerialNo != "" && input.Quantity != 1 {
			verr.Fields[prefix+"quantity"] = "serialized stock must be allocated with quantity 1"
			continue
		}

		allocations = append(allocations, entity.SOAllocation{
			LineItemID:  input.LineItemID,
			ShipmentID:  nullable(req.ShipmentID),
			StockItemID: input.StockItemID,
			Quantity:    input.Quantity,
			CreatedBy:   userID,
		})
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}

	if err := s.orderRepo.CreateAllocations(ctx, allocations); err != nil {
		return nil, fmt.Errorf("create allocations: %w", err)
	}
	return allocations, nil
}

// DeleteAllocation 解除分配，归还库存项的已分配数量
func (s *SalesService) DeleteAllocation(ctx context.Context, id string) error {
	return s.orderRepo.DeleteAllocation(ctx, id)
}

// ListAllocations 列出订单行的分配
func (s *SalesService) ListAllocations(ctx context.Context, lineItemID string) ([]entity.SOAllocation, error) {
	return s.orderRepo.ListAllocations(ctx, lineItemID)
}
