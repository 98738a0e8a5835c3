package handler

import (
	"errors"

	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/gin-gonic/gin"
)

func orderListParams(c *gin.Context) repository.OrderListParams {
	page, pageSize := GetPagination(c)
	outstanding := false
	if v := queryBool(c, "outstanding"); v != nil {
		outstanding = *v
	}
	return repository.OrderListParams{
		CompanyID:     c.Query("company"),
		Status:        queryInt(c, "status"),
		ProjectCodeID: c.Query("project_code"),
		ResponsibleID: c.Query("assigned_to"),
		Keyword:       c.Query("search"),
		Outstanding:   outstanding,
		Page:          page,
		Size:          pageSize,
	}
}

// SalesOrderHandler 销售订单处理器
type SalesOrderHandler struct {
	svc *service.SalesService
}

// NewSalesOrderHandler 创建销售订单处理器
func NewSalesOrderHandler(svc *service.SalesService) *SalesOrderHandler {
	return &SalesOrderHandler{svc: svc}
}

// Create POST /api/order/so/
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req service.CreateSORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	so, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrNotCustomer) {
			BadRequest(c, "company is not a customer")
			return
		}
		ServiceError(c, err)
		return
	}
	Created(c, so)
}

// Get GET /api/order/so/:id/
func (h *SalesOrderHandler) Get(c *gin.Context) {
	so, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, so)
}

// List GET /api/order/so/
func (h *SalesOrderHandler) List(c *gin.Context) {
	params := orderListParams(c)
	orders, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "list sales orders: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: orders, Pagination: NewPagination(params.Page, params.Size, total)})
}

// Update PATCH /api/order/so/:id/
func (h *SalesOrderHandler) Update(c *gin.Context) {
	var req service.UpdateSORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	so, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, so)
}

// SetStatus POST /api/order/so/:id/status/
func (h *SalesOrderHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status int `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	so, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, so)
}

// Delete DELETE /api/order/so/:id/
func (h *SalesOrderHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// AddLine POST /api/order/so-line/
func (h *SalesOrderHandler) AddLine(c *gin.Context) {
	var req service.AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	line, err := h.svc.AddLine(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNotSalable) {
			BadRequest(c, "part is not salable")
			return
		}
		ServiceError(c, err)
		return
	}
	Created(c, line)
}

// ListLines GET /api/order/so/:id/lines/
func (h *SalesOrderHandler) ListLines(c *gin.Context) {
	lines, err := h.svc.ListLines(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": lines})
}

// UpdateLine PATCH /api/order/so-line/:id/
func (h *SalesOrderHandler) UpdateLine(c *gin.Context) {
	var req service.UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	line, err := h.svc.UpdateLine(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, line)
}

// DeleteLine DELETE /api/order/so-line/:id/
func (h *SalesOrderHandler) DeleteLine(c *gin.Context) {
	if err := h.svc.DeleteLine(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// CreateShipment POST /api/order/so/shipment/
func (h *SalesOrderHandler) CreateShipment(c *gin.Context) {
	var req service.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	shipment, err := h.svc.CreateShipment(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, shipment)
}

// ListShipments GET /api/order/so/:id/shipments/
func (h *SalesOrderHandler) ListShipments(c *gin.Context) {
	shipments, err := h.svc.ListShipments(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": shipments})
}

// CompleteShipment POST /api/order/so/shipment/:id/ship/
func (h *SalesOrderHandler) CompleteShipment(c *gin.Context) {
	var req service.CompleteShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	shipment, err := h.svc.CompleteShipment(c.Request.Context(), GetUserID(c), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrShipmentShipped) {
			BadRequest(c, "shipment has already been shipped")
			return
		}
		ServiceError(c, err)
		return
	}
	Success(c, shipment)
}

// AllocationRows GET /api/order/so/:id/allocate/ 分配表单行
func (h *SalesOrderHandler) AllocationRows(c *gin.Context) {
	rows, err := h.svc.AllocationRows(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"rows": rows})
}

// Allocate POST /api/order/so-allocation/
func (h *SalesOrderHandler) Allocate(c *gin.Context) {
	var req service.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	allocations, err := h.svc.Allocate(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, gin.H{"items": allocations})
}

// ListAllocations GET /api/order/so-line/:id/allocations/
func (h *SalesOrderHandler) ListAllocations(c *gin.Context) {
	allocations, err := h.svc.ListAllocations(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": allocations})
}

// DeleteAllocation DELETE /api/order/so-allocation/:id/
func (h *SalesOrderHandler) DeleteAllocation(c *gin.Context) {
	if err := h.svc.DeleteAllocation(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// PurchaseOrderHandler 采购订单处理器
type PurchaseOrderHandler struct {
	svc *service.PurchaseService
}

// NewPurchaseOrderHandler 创建采购订单处理器
func NewPurchaseOrderHandler(svc *service.PurchaseService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{svc: svc}
}

// Create POST /api/order/po/
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req service.CreatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	po, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrNotSupplier) {
			BadRequest(c, "company is not a supplier")
			return
		}
		ServiceError(c, err)
		return
	}
	Created(c, po)
}

// Get GET /api/order/po/:id/
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	po, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}

// List GET /api/order/po/
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	params := orderListParams(c)
	orders, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "list purchase orders: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: orders, Pagination: NewPagination(params.Page, params.Size, total)})
}

// Issue POST /api/order/po/:id/issue/
func (h *PurchaseOrderHandler) Issue(c *gin.Context) {
	po, err := h.svc.Issue(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}

// SetStatus POST /api/order/po/:id/status/
func (h *PurchaseOrderHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status int `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	po, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}

// AddLine POST /api/order/po-line/
func (h *PurchaseOrderHandler) AddLine(c *gin.Context) {
	var req service.AddPOLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	line, err := h.svc.AddLine(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNotPurchaseable) {
			BadRequest(c, "part is not purchaseable")
			return
		}
		ServiceError(c, err)
		return
	}
	Created(c, line)
}

// ReceiveLine POST /api/order/po-line/:id/receive/
func (h *PurchaseOrderHandler) ReceiveLine(c *gin.Context) {
	var req service.ReceiveLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	item, err := h.svc.ReceiveLine(c.Request.Context(), GetUserID(c), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOverReceipt):
			BadRequest(c, "received quantity exceeds outstanding quantity")
		case errors.Is(err, service.ErrStructuralLocation):
			BadRequest(c, "structural location cannot hold stock items")
		default:
			ServiceError(c, err)
		}
		return
	}
	Created(c, item)
}

// ReturnOrderHandler 退货订单处理器
type ReturnOrderHandler struct {
	svc *service.ReturnService
}

// NewReturnOrderHandler 创建退货订单处理器
func NewReturnOrderHandler(svc *service.ReturnService) *ReturnOrderHandler {
	return &ReturnOrderHandler{svc: svc}
}

// Create POST /api/order/ro/
func (h *ReturnOrderHandler) Create(c *gin.Context) {
	var req service.CreateRORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	ro, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrNotCustomer) {
			BadRequest(c, "company is not a customer")
			return
		}
		ServiceError(c, err)
		return
	}
	Created(c, ro)
}

// Get GET /api/order/ro/:id/
func (h *ReturnOrderHandler) Get(c *gin.Context) {
	ro, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, ro)
}

// List GET /api/order/ro/
func (h *ReturnOrderHandler) List(c *gin.Context) {
	params := orderListParams(c)
	orders, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "list return orders: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: orders, Pagination: NewPagination(params.Page, params.Size, total)})
}

// SetStatus POST /api/order/ro/:id/status/
func (h *ReturnOrderHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status int `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	ro, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, ro)
}

// AddLine POST /api/order/ro-line/
func (h *ReturnOrderHandler) AddLine(c *gin.Context) {
	var req service.AddROLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	line, err := h.svc.AddLine(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrItemNotWithCustomer) {
			BadRequest(c, "stock item is not assigned to this customer")
			return
		}
		ServiceError(c, err)
		return
	}
	Created(c, line)
}

// ReceiveLine POST /api/order/ro-line/:id/receive/
func (h *ReturnOrderHandler) ReceiveLine(c *gin.Context) {
	var req service.ReceiveROLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	line, err := h.svc.ReceiveLine(c.Request.Context(), GetUserID(c), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrStructuralLocation) {
			BadRequest(c, "structural location cannot hold stock items")
			return
		}
		ServiceError(c, err)
		return
	}
	Success(c, line)
}

// SetLineOutcome POST /api/order/ro-line/:id/outcome/
func (h *ReturnOrderHandler) SetLineOutcome(c *gin.Context) {
	var req struct {
		Outcome int `json:"outcome" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	line, err := h.svc.SetLineOutcome(c.Request.Context(), c.Param("id"), req.Outcome)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, line)
}
