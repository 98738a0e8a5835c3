package handler

import (
	"errors"

	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/gin-gonic/gin"
)

// PartHandler 零件处理器
type PartHandler struct {
	svc *service.PartService
}

// NewPartHandler 创建零件处理器
func NewPartHandler(svc *service.PartService) *PartHandler {
	return &PartHandler{svc: svc}
}

// Create POST /api/part/
func (h *PartHandler) Create(c *gin.Context) {
	var req service.CreatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	part, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, part)
}

// Get GET /api/part/:id/
func (h *PartHandler) Get(c *gin.Context) {
	part, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, part)
}

// List GET /api/part/
func (h *PartHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.PartListParams{
		CategoryID:   c.Query("category"),
		VariantOfID:  c.Query("variant_of"),
		Keyword:      c.Query("search"),
		Assembly:     queryBool(c, "assembly"),
		Component:    queryBool(c, "component"),
		Salable:      queryBool(c, "salable"),
		Purchaseable: queryBool(c, "purchaseable"),
		Trackable:    queryBool(c, "trackable"),
		Virtual:      queryBool(c, "virtual"),
		Active:       queryBool(c, "active"),
		Page:         page,
		Size:         pageSize,
	}
	parts, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "list parts: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: parts, Pagination: NewPagination(page, pageSize, total)})
}

// Update PATCH /api/part/:id/
func (h *PartHandler) Update(c *gin.Context) {
	var req service.UpdatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	part, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, part)
}

// Delete DELETE /api/part/:id/
func (h *PartHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPartActive) {
			BadRequest(c, "part must be deactivated before deletion")
			return
		}
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// Variants GET /api/part/:id/variants/
func (h *PartHandler) Variants(c *gin.Context) {
	variants, err := h.svc.Variants(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": variants})
}

// UsedIn GET /api/part/:id/used-in/
func (h *PartHandler) UsedIn(c *gin.Context) {
	items, err := h.svc.UsedIn(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateCategory POST /api/part/category/
func (h *PartHandler) CreateCategory(c *gin.Context) {
	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	cat, err := h.svc.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, cat)
}

// ListCategories GET /api/part/category/
func (h *PartHandler) ListCategories(c *gin.Context) {
	cats, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		InternalError(c, "list categories: "+err.Error())
		return
	}
	Success(c, gin.H{"items": cats})
}
