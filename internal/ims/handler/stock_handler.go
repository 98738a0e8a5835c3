package handler

import (
	"errors"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/gin-gonic/gin"
)

// StockHandler 库存处理器
type StockHandler struct {
	svc *service.StockService
}

// NewStockHandler 创建库存处理器
func NewStockHandler(svc *service.StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

// stockBadRequest 库存域业务错误映射
func stockBadRequest(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrStructuralLocation):
		BadRequest(c, "structural location cannot hold stock items")
	case errors.Is(err, service.ErrInsufficientStock):
		BadRequest(c, "insufficient stock quantity")
	case errors.Is(err, service.ErrSerializedQuantity):
		BadRequest(c, "serialized stock item must have quantity 1")
	case errors.Is(err, service.ErrMergeIncompatible):
		BadRequest(c, "stock items of different parts cannot be merged")
	default:
		return false
	}
	return true
}

// Create POST /api/stock/
func (h *StockHandler) Create(c *gin.Context) {
	var req service.CreateStockItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	item, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if !stockBadRequest(c, err) {
			ServiceError(c, err)
		}
		return
	}
	Created(c, item)
}

// Get GET /api/stock/:id/
func (h *StockHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, item)
}

// List GET /api/stock/
func (h *StockHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.StockListParams{
		PartID:     c.Query("part"),
		LocationID: c.Query("location"),
		CustomerID: c.Query("customer"),
		BatchNo:    c.Query("batch"),
		SerialNo:   c.Query("serial"),
		Status:     queryInt(c, "status"),
		InStock:    queryBool(c, "in_stock"),
		Available:  queryBool(c, "available"),
		Depleted:   queryBool(c, "depleted"),
		Salable:    queryBool(c, "salable"),
		Keyword:    c.Query("search"),
		Page:       page,
		Size:       pageSize,
	}
	if expired := queryBool(c, "expired"); expired != nil && *expired {
		now := time.Now()
		params.ExpiredBy = &now
	}
	items, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "list stock items: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Delete DELETE /api/stock/:id/
func (h *StockHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// DeleteMany DELETE /api/stock/ （body携带 items 数组）
func (h *StockHandler) DeleteMany(c *gin.Context) {
	var req struct {
		Items []string `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	if err := h.svc.DeleteMany(c.Request.Context(), req.Items); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": len(req.Items)})
}

// Add POST /api/stock/add/
func (h *StockHandler) Add(c *gin.Context) {
	var req service.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	item, err := h.svc.Add(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if !stockBadRequest(c, err) {
			ServiceError(c, err)
		}
		return
	}
	Success(c, item)
}

// Remove POST /api/stock/remove/
func (h *StockHandler) Remove(c *gin.Context) {
	var req service.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	item, err := h.svc.Remove(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if !stockBadRequest(c, err) {
			ServiceError(c, err)
		}
		return
	}
	Success(c, item)
}

// Count POST /api/stock/count/
func (h *StockHandler) Count(c *gin.Context) {
	var req service.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	item, err := h.svc.Count(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if !stockBadRequest(c, err) {
			ServiceError(c, err)
		}
		return
	}
	Success(c, item)
}

// Transfer POST /api/stock/transfer/
func (h *StockHandler) Transfer(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	item, err := h.svc.Transfer(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if !stockBadRequest(c, err) {
			ServiceError(c, err)
		}
		return
	}
	Success(c, item)
}

// Assign POST /api/stock/assign/
func (h *StockHandler) Assign(c *gin.Context) {
	var req service.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	item, err := h.svc.Assign(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, item)
}

// Merge POST /api/stock/merge/
func (h *StockHandler) Merge(c *gin.Context) {
	var req service.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	result, err := h.svc.Merge(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if !stockBadRequest(c, err) {
			ServiceError(c, err)
		}
		return
	}
	Success(c, result)
}

// Tracking GET /api/stock/:id/tracking/
func (h *StockHandler) Tracking(c *gin.Context) {
	page, pageSize := GetPagination(c)
	entries, total, err := h.svc.Tracking(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		InternalError(c, "list stock tracking: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: entries, Pagination: NewPagination(page, pageSize, total)})
}

// — 库位 —

// CreateLocation POST /api/stock/location/
func (h *StockHandler) CreateLocation(c *gin.Context) {
	var req service.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	loc, err := h.svc.CreateLocation(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, loc)
}

// GetLocation GET /api/stock/location/:id/
func (h *StockHandler) GetLocation(c *gin.Context) {
	loc, err := h.svc.GetLocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, loc)
}

// ListLocations GET /api/stock/location/
func (h *StockHandler) ListLocations(c *gin.Context) {
	locs, err := h.svc.ListLocations(c.Request.Context(), c.Query("parent"))
	if err != nil {
		InternalError(c, "list locations: "+err.Error())
		return
	}
	Success(c, gin.H{"items": locs})
}

// ListLocationTypes GET /api/stock/location-type/
func (h *StockHandler) ListLocationTypes(c *gin.Context) {
	types, err := h.svc.ListLocationTypes(c.Request.Context())
	if err != nil {
		InternalError(c, "list location types: "+err.Error())
		return
	}
	Success(c, gin.H{"items": types})
}
