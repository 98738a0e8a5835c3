package handler

import (
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/gin-gonic/gin"
)

// CompanyHandler 公司与基础数据处理器
type CompanyHandler struct {
	companySvc  *service.CompanyService
	ownerSvc    *service.OwnerService
	projectSvc  *service.ProjectCodeService
	settingsSvc *service.SettingsService
}

// NewCompanyHandler 创建公司处理器
func NewCompanyHandler(companySvc *service.CompanyService, ownerSvc *service.OwnerService, projectSvc *service.ProjectCodeService, settingsSvc *service.SettingsService) *CompanyHandler {
	return &CompanyHandler{
		companySvc:  companySvc,
		ownerSvc:    ownerSvc,
		projectSvc:  projectSvc,
		settingsSvc: settingsSvc,
	}
}

// Create POST /api/company/
func (h *CompanyHandler) Create(c *gin.Context) {
	var req service.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	company, err := h.companySvc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, company)
}

// Get GET /api/company/:id/
func (h *CompanyHandler) Get(c *gin.Context) {
	company, err := h.companySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, company)
}

// List GET /api/company/
func (h *CompanyHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.CompanyListParams{
		IsCustomer: queryBool(c, "is_customer"),
		IsSupplier: queryBool(c, "is_supplier"),
		Active:     queryBool(c, "active"),
		Keyword:    c.Query("search"),
		Page:       page,
		Size:       pageSize,
	}
	companies, total, err := h.companySvc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "list companies: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: companies, Pagination: NewPagination(page, pageSize, total)})
}

// Update PATCH /api/company/:id/
func (h *CompanyHandler) Update(c *gin.Context) {
	var req service.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	company, err := h.companySvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, company)
}

// Delete DELETE /api/company/:id/
func (h *CompanyHandler) Delete(c *gin.Context) {
	if err := h.companySvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// ListOwners GET /api/user/owner/
func (h *CompanyHandler) ListOwners(c *gin.Context) {
	owners, err := h.ownerSvc.ListAll(c.Request.Context())
	if err != nil {
		InternalError(c, "list owners: "+err.Error())
		return
	}
	Success(c, gin.H{"items": owners})
}

// CreateOwner POST /api/user/owner/
func (h *CompanyHandler) CreateOwner(c *gin.Context) {
	var req struct {
		Kind string `json:"kind" binding:"required,oneof=user group"`
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	owner, err := h.ownerSvc.Create(c.Request.Context(), req.Kind, req.Name)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, owner)
}

// ListProjectCodes GET /api/project-code/
func (h *CompanyHandler) ListProjectCodes(c *gin.Context) {
	codes, err := h.projectSvc.ListAll(c.Request.Context())
	if err != nil {
		InternalError(c, "list project codes: "+err.Error())
		return
	}
	Success(c, gin.H{"items": codes})
}

// CreateProjectCode POST /api/project-code/
func (h *CompanyHandler) CreateProjectCode(c *gin.Context) {
	var req struct {
		Code        string `json:"code" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	code, err := h.projectSvc.Create(c.Request.Context(), req.Code, req.Description)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, code)
}

// ListSettings GET /api/settings/
func (h *CompanyHandler) ListSettings(c *gin.Context) {
	settings, err := h.settingsSvc.All(c.Request.Context())
	if err != nil {
		InternalError(c, "list settings: "+err.Error())
		return
	}
	Success(c, settings)
}

// GetSetting GET /api/settings/:key/
func (h *CompanyHandler) GetSetting(c *gin.Context) {
	value, err := h.settingsSvc.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		InternalError(c, "get setting: "+err.Error())
		return
	}
	Success(c, gin.H{"key": c.Param("key"), "value": value})
}

// SetSetting PUT /api/settings/:key/
func (h *CompanyHandler) SetSetting(c *gin.Context) {
	var req struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}
	if err := h.settingsSvc.Set(c.Request.Context(), c.Param("key"), req.Value); err != nil {
		InternalError(c, "set setting: "+err.Error())
		return
	}
	Success(c, gin.H{"key": c.Param("key"), "value": req.Value})
}
