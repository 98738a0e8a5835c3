package repository

import (
	"context"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"gorm.io/gorm"
)

type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

func (r *PartRepository) DB() *gorm.DB {
	return r.db
}

// Create 创建零件
func (r *PartRepository) Create(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).Create(part).Error
}

// FindByID 根据ID查找零件
func (r *PartRepository) FindByID(ctx context.Context, id string) (*entity.Part, error) {
	var part entity.Part
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&part, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &part, nil
}

// PartListParams 零件列表筛选参数
type PartListParams struct {
	CategoryID   string
	VariantOfID  string
	Keyword      string
	Assembly     *bool
	Component    *bool
	Salable      *bool
	Purchaseable *bool
	Trackable    *bool
	Virtual      *bool
	Active       *bool
	Page         int
	Size         int
}

// List 分页查询零件
func (r *PartRepository) List(ctx context.Context, params PartListParams) ([]entity.Part, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Part{})

	if params.CategoryID != "" {
		query = query.Where("category_id = ?", params.CategoryID)
	}
	if params.VariantOfID != "" {
		query = query.Where("variant_of_id = ?", params.VariantOfID)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("name ILIKE ? OR ipn ILIKE ? OR description ILIKE ?", kw, kw, kw)
	}
	if params.Assembly != nil {
		query = query.Where("assembly = ?", *params.Assembly)
	}
	if params.Component != nil {
		query = query.Where("component = ?", *params.Component)
	}
	if params.Salable != nil {
		query = query.Where("salable = ?", *params.Salable)
	}
	if params.Purchaseable != nil {
		query = query.Where("purchaseable = ?", *params.Purchaseable)
	}
	if params.Trackable != nil {
		query = query.Where("trackable = ?", *params.Trackable)
	}
	if params.Virtual != nil {
		query = query.Where("virtual = ?", *params.Virtual)
	}
	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}

	var total int64
	query.Count(&total)

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}

	var parts []entity.Part
	err := query.Preload("Category").Order("name ASC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).
		Find(&parts).Error
	return parts, total, err
}

// Update 更新零件
func (r *PartRepository) Update(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).Save(part).Error
}

// Delete 删除零件
func (r *PartRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Part{}, "id = ?", id).Error
}

// FindByIPN 根据内部编号查找零件
func (r *PartRepository) FindByIPN(ctx context.Context, ipn string) (*entity.Part, error) {
	var part entity.Part
	if err := r.db.WithContext(ctx).First(&part, "ipn = ?", ipn).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// Variants 零件的所有变体
func (r *PartRepository) Variants(ctx context.Context, partID string) ([]entity.Part, error) {
	var variants []entity.Part
	err := r.db.WithContext(ctx).
		Where("variant_of_id = ? AND active = true", partID).
		Find(&variants).Error
	return variants, err
}

// — 类别 —

// CreateCategory 创建类别
func (r *PartRepository) CreateCategory(ctx context.Context, cat *entity.PartCategory) error {
	return r.db.WithContext(ctx).Create(cat).Error
}

// ListCategories 列出全部类别
func (r *PartRepository) ListCategories(ctx context.Context) ([]entity.PartCategory, error) {
	var cats []entity.PartCategory
	err := r.db.WithContext(ctx).Order("pathname ASC").Find(&cats).Error
	return cats, err
}

// FindCategoryByID 根据ID查找类别
func (r *PartRepository) FindCategoryByID(ctx context.Context, id string) (*entity.PartCategory, error) {
	var cat entity.PartCategory
	if err := r.db.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}
