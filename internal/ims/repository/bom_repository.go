package repository

import (
	"context"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"gorm.io/gorm"
)

type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

func (r *BOMRepository) DB() *gorm.DB {
	return r.db
}

// Create 创建BOM行
func (r *BOMRepository) Create(ctx context.Context, item *entity.BOMItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindByID 根据ID查找BOM行
func (r *BOMRepository) FindByID(ctx context.Context, id string) (*entity.BOMItem, error) {
	var item entity.BOMItem
	err := r.db.WithContext(ctx).
		Preload("SubPart").
		Preload("Substitutes").
		Preload("Substitutes.Part").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// BOMListParams BOM行列表筛选参数
type BOMListParams struct {
	PartID     string
	SubPartID  string
	Optional   *bool
	Consumable *bool
	Inherited  *bool
	Validated  *bool
	Page       int
	Size       int
}

// List 分页查询BOM行
func (r *BOMRepository) List(ctx context.Context, params BOMListParams) ([]entity.BOMItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.BOMItem{})

	if params.PartID != "" {
		query = query.Where("part_id = ?", params.PartID)
	}
	if params.SubPartID != "" {
		query = query.Where("sub_part_id = ?", params.SubPartID)
	}
	if params.Optional != nil {
		query = query.Where("optional = ?", *params.Optional)
	}
	if params.Consumable != nil {
		query = query.Where("consumable = ?", *params.Consumable)
	}
	if params.Inherited != nil {
		query = query.Where("inherited = ?", *params.Inherited)
	}
	if params.Validated != nil {
		query = query.Where("validated = ?", *params.Validated)
	}

	var total int64
	query.Count(&total)

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 100
	}

	var items []entity.BOMItem
	err := query.
		Preload("SubPart").
		Preload("Substitutes").
		Preload("Substitutes.Part").
		Order("reference ASC, created_at ASC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).
		Find(&items).Error
	return items, total, err
}

// ListByPart 某装配件的全部BOM行（含替代料），不分页
func (r *BOMRepository) ListByPart(ctx context.Context, partID string) ([]entity.BOMItem, error) {
	var items []entity.BOMItem
	err := r.db.WithContext(ctx).
		Preload("SubPart").
		Preload("Substitutes").
		Where("part_id = ?", partID).
		Order("reference ASC, created_at ASC").
		Find(&items).Error
	return items, err
}

// ListUsedIn 使用了某零件的全部BOM行
func (r *BOMRepository) ListUsedIn(ctx context.Context, subPartID string) ([]entity.BOMItem, error) {
	var items []entity.BOMItem
	err := r.db.WithContext(ctx).
		Preload("Part").
		Where("sub_part_id = ?", subPartID).
		Find(&items).Error
	return items, err
}

// Update 更新BOM行
func (r *BOMRepository) Update(ctx context.Context, item *entity.BOMItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete 删除BOM行（连带替代料）
func (r *BOMRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.BOMSubstitute{}, "bom_item_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.BOMItem{}, "id = ?", id).Error
	})
}

// DeleteMany 批量删除BOM行
func (r *BOMRepository) DeleteMany(ctx context.Context, ids []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.BOMSubstitute{}, "bom_item_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.BOMItem{}, "id IN ?", ids).Error
	})
}

// InvalidateByPart 置某装配件所有BOM行为未校验（行被增删改后调用）
func (r *BOMRepository) InvalidateByPart(ctx context.Context, partID string) error {
	return r.db.WithContext(ctx).Model(&entity.BOMItem{}).
		Where("part_id = ?", partID).
		Update("validated", false).Error
}

// — 替代料 —

// CreateSubstitute 创建替代料
func (r *BOMRepository) CreateSubstitute(ctx context.Context, sub *entity.BOMSubstitute) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// FindSubstituteByID 根据ID查找替代料
func (r *BOMRepository) FindSubstituteByID(ctx context.Context, id string) (*entity.BOMSubstitute, error) {
	var sub entity.BOMSubstitute
	if err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubstitutes 某BOM行的替代料
func (r *BOMRepository) ListSubstitutes(ctx context.Context, bomItemID string) ([]entity.BOMSubstitute, error) {
	var subs []entity.BOMSubstitute
	err := r.db.WithContext(ctx).
		Preload("Part").
		Where("bom_item_id = ?", bomItemID).
		Find(&subs).Error
	return subs, err
}

// DeleteSubstitute 删除替代料
func (r *BOMRepository) DeleteSubstitute(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.BOMSubstitute{}, "id = ?", id).Error
}
