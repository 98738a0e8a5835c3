package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
)

// ErrPartActive 活跃零件不允许删除
var ErrPartActive = errors.New("active part cannot be deleted")

// PartService 零件服务
type PartService struct {
	repo    *repository.PartRepository
	bomRepo *repository.BOMRepository
}

// NewPartService 创建零件服务
func NewPartService(repo *repository.PartRepository, bomRepo *repository.BOMRepository) *PartService {
	return &PartService{repo: repo, bomRepo: bomRepo}
}

// CreatePartRequest 创建零件请求
type CreatePartRequest struct {
	IPN           string `json:"ipn"`
	Name          string `json:"name" binding:"required"`
	Revision      string `json:"revision"`
	Description   string `json:"description"`
	CategoryID    string `json:"category_id"`
	VariantOfID   string `json:"variant_of"`
	Units         string `json:"units"`
	Assembly      bool   `json:"assembly"`
	Component     *bool  `json:"component"`
	Salable       bool   `json:"salable"`
	Purchaseable  *bool  `json:"purchaseable"`
	Trackable     bool   `json:"trackable"`
	Virtual       bool   `json:"virtual"`
	DefaultExpiry int    `json:"default_expiry"`
}

// Create 创建零件
func (s *PartService) Create(ctx context.Context, userID string, req *CreatePartRequest) (*entity.Part, error) {
	units := req.Units
	if units == "" {
		units = "pcs"
	}
	component := true
	if req.Component != nil {
		component = *req.Component
	}
	purchaseable := true
	if req.Purchaseable != nil {
		purchaseable = *req.Purchaseable
	}

	if req.VariantOfID != "" {
		// 变体必须指向已存在的零件
		if _, err := s.repo.FindByID(ctx, req.VariantOfID); err != nil {
			return nil, fmt.Errorf("find variant template: %w", err)
		}
	}

	part := &entity.Part{
		IPN:           req.IPN,
		Name:          req.Name,
		Revision:      req.Revision,
		Description:   req.Description,
		CategoryID:    nullable(req.CategoryID),
		VariantOfID:   nullable(req.VariantOfID),
		Units:         units,
		Assembly:      req.Assembly,
		Component:     component,
		Salable:       req.Salable,
		Purchaseable:  purchaseable,
		Trackable:     req.Trackable,
		Virtual:       req.Virtual,
		Active:        true,
		DefaultExpiry: req.DefaultExpiry,
		Status:        entity.PartStatusActive,
		CreatedBy:     userID,
	}
	if err := s.repo.Create(ctx, part); err != nil {
		return nil, fmt.Errorf("create part: %w", err)
	}
	return part, nil
}

// Get 获取零件详情
func (s *PartService) Get(ctx context.Context, id string) (*entity.Part, error) {
	return s.repo.FindByID(ctx, id)
}

// List 获取零件列表
func (s *PartService) List(ctx context.Context, params repository.PartListParams) ([]entity.Part, int64, error) {
	return s.repo.List(ctx, params)
}

// UpdatePartRequest 更新零件请求
type UpdatePartRequest struct {
	IPN           *string `json:"ipn"`
	Name          *string `json:"name"`
	Revision      *string `json:"revision"`
	Description   *string `json:"description"`
	CategoryID    *string `json:"category_id"`
	Units         *string `json:"units"`
	Assembly      *bool   `json:"assembly"`
	Component     *bool   `json:"component"`
	Salable       *bool   `json:"salable"`
	Purchaseable  *bool   `json:"purchaseable"`
	Trackable     *bool   `json:"trackable"`
	Virtual       *bool   `json:"virtual"`
	Active        *bool   `json:"active"`
	DefaultExpiry *int    `json:"default_expiry"`
}

// Update 更新零件
func (s *PartService) Update(ctx context.Context, id string, req *UpdatePartRequest) (*entity.Part, error) {
	part, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.IPN != nil {
		part.IPN = *req.IPN
	}
	if req.Name != nil {
		part.Name = *req.Name
	}
	if req.Revision != nil {
		part.Revision = *req.Revision
	}
	if req.Description != nil {
		part.Description = *req.Description
	}
	if req.CategoryID != nil {
		part.CategoryID = nullable(*req.CategoryID)
	}
	if req.Units != nil {
		part.Units = *req.Units
	}
	if req.Assembly != nil {
		part.Assembly = *req.Assembly
	}
	if req.Component != nil {
		part.Component = *req.Component
	}
	if req.Salable != nil {
		part.Salable = *req.Salable
	}
	if req.Purchaseable != nil {
		part.Purchaseable = *req.Purchaseable
	}
	if req.Trackable != nil {
		part.Trackable = *req.Trackable
	}
	if req.Virtual != nil {
		part.Virtual = *req.Virtual
	}
	if req.Active != nil {
		part.Active = *req.Active
		if !part.Active {
			part.Status = entity.PartStatusObsolete
		}
	}
	if req.DefaultExpiry != nil {
		part.DefaultExpiry = *req.DefaultExpiry
	}

	if err := s.repo.Update(ctx, part); err != nil {
		return nil, fmt.Errorf("update part: %w", err)
	}
	return part, nil
}

// Delete 删除零件。活跃零件需先停用再删除。
func (s *PartService) Delete(ctx context.Context, id string) error {
	part, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if part.Active {
		return ErrPartActive
	}
	return s.repo.Delete(ctx, id)
}

// Variants 列出零件的变体
func (s *PartService) Variants(ctx context.Context, id string) ([]entity.Part, error) {
	return s.repo.Variants(ctx, id)
}

// UsedIn 列出零件被哪些装配件使用
func (s *PartService) UsedIn(ctx context.Context, id string) ([]entity.BOMItem, error) {
	return s.bomRepo.ListUsedIn(ctx, id)
}

// CreateCategoryRequest 创建零件类别请求
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
	Structural  bool   `json:"structural"`
}

// CreateCategory 创建零件类别，路径名由父级路径拼接
func (s *PartService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*entity.PartCategory, error) {
	pathName := req.Name
	if req.ParentID != "" {
		parent, err := s.repo.FindCategoryByID(ctx, req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("find parent category: %w", err)
		}
		pathName = parent.PathName + "/" + req.Name
	}
	cat := &entity.PartCategory{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    nullable(req.ParentID),
		PathName:    pathName,
		Structural:  req.Structural,
	}
	if err := s.repo.CreateCategory(ctx, cat); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return cat, nil
}

// ListCategories 列出全部零件类别
func (s *PartService) ListCategories(ctx context.Context) ([]entity.PartCategory, error) {
	return s.repo.ListCategories(ctx)
}
