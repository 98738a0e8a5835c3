package handler

import (
	"errors"

	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/gin-gonic/gin"
)

// BOMHandler BOM处理器
type BOMHandler struct {
	svc *service.BOMService
}

// NewBOMHandler 创建BOM处理器
func NewBOMHandler(svc *service.BOMService) *BOMHandler {
	return &BOMHandler{svc: svc}
}

func bomBadRequest(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrNotAssembly):
		BadRequest(c, "part is not an assembly")
	case errors.Is(err, service.ErrNotComponent):
		BadRequest(c, "sub part is not a component")
	case errors.Is(err, service.ErrSelfReference):
		BadRequest(c, "part cannot be its own sub part")
	case errors.Is(err, service.ErrSubstituteSamePart):
		BadRequest(c, "substitute must differ from the sub part")
	default:
		return false
	}
	return true
}

// Create POST /api/bom/
func (h *BOMHandler) Create(c *gin.Context) {
	var req service.CreateBOMItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	item, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		if !bomBadRequest(c, err) {
			ServiceError(c, err)
		}
		return
	}
	Created(c, item)
}

// Get GET /api/bom/:id/
func (h *BOMHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, item)
}

// List GET /api/bom/
func (h *BOMHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.BOMListParams{
		PartID:     c.Query("part"),
		SubPartID:  c.Query("sub_part"),
		Optional:   queryBool(c, "optional"),
		Consumable: queryBool(c, "consumable"),
		Inherited:  queryBool(c, "inherited"),
		Validated:  queryBool(c, "validated"),
		Page:       page,
		Size:       pageSize,
	}
	items, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "list bom items: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Update PATCH /api/bom/:id/
func (h *BOMHandler) Update(c *gin.Context) {
	var req service.UpdateBOMItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, item)
}

// Delete DELETE /api/bom/:id/
func (h *BOMHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// DeleteMany DELETE /api/bom/ （body携带 items 数组）
func (h *BOMHandler) DeleteMany(c *gin.Context) {
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

// Validate POST /api/bom/:id/validate/
func (h *BOMHandler) Validate(c *gin.Context) {
	item, err := h.svc.Validate(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, item)
}

// ValidateAll POST /api/part/:id/bom-validate/
func (h *BOMHandler) ValidateAll(c *gin.Context) {
	if err := h.svc.ValidateAll(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// — 替代料 —

// AddSubstitute POST /api/bom/substitute/
func (h *BOMHandler) AddSubstitute(c *gin.Context) {
	var req service.AddSubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	sub, err := h.svc.AddSubstitute(c.Request.Context(), &req)
	if err != nil {
		if !bomBadRequest(c, err) {
			ServiceError(c, err)
		}
		return
	}
	Created(c, sub)
}

// ListSubstitutes GET /api/bom/:id/substitutes/
func (h *BOMHandler) ListSubstitutes(c *gin.Context) {
	subs, err := h.svc.ListSubstitutes(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": subs})
}

// RemoveSubstitute DELETE /api/bom/substitute/:id/
func (h *BOMHandler) RemoveSubstitute(c *gin.Context) {
	if err := h.svc.RemoveSubstitute(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// — BOM树 —

// Tree GET /api/bom/tree/:partId/ 顶层行
func (h *BOMHandler) Tree(c *gin.Context) {
	rows, err := h.svc.Tree(c.Request.Context(), c.Param("partId"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"rows": rows})
}

// ExpandTree GET /api/bom/tree/expand/:itemId/ 展开子装配件
func (h *BOMHandler) ExpandTree(c *gin.Context) {
	rows, err := h.svc.ExpandTree(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"rows": rows})
}

// — 导入导出 —

// Import POST /api/bom/import/submit/ （multipart: part, file）
func (h *BOMHandler) Import(c *gin.Context) {
	partID := c.PostForm("part")
	if partID == "" {
		BadRequest(c, "part is required")
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		BadRequest(c, "open upload: "+err.Error())
		return
	}
	defer file.Close()

	result, err := h.svc.ImportBOM(c.Request.Context(), GetUserID(c), partID, fileHeader.Filename, file)
	if err != nil {
		if !bomBadRequest(c, err) {
			ServiceError(c, err)
		}
		return
	}
	Success(c, result)
}

// Export GET /api/bom/export/:partId/ 返回预签名下载链接
func (h *BOMHandler) Export(c *gin.Context) {
	url, err := h.svc.ExportBOM(c.Request.Context(), c.Param("partId"))
	if err != nil {
		if errors.Is(err, service.ErrExportUnavailable) {
			Error(c, 50300, "export storage is not configured")
			return
		}
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"url": url})
}
