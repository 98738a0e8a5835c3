package repository

import (
	"context"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"gorm.io/gorm"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create 创建往来单位
func (r *CompanyRepository) Create(ctx context.Context, company *entity.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

// FindByID 根据ID查找往来单位
func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*entity.Company, error) {
	var company entity.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// CompanyListParams 往来单位列表筛选参数
type CompanyListParams struct {
	IsCustomer *bool
	IsSupplier *bool
	Active     *bool
	Keyword    string
	Page       int
	Size       int
}

// List 分页查询往来单位
func (r *CompanyRepository) List(ctx context.Context, params CompanyListParams) ([]entity.Company, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Company{})

	if params.IsCustomer != nil {
		query = query.Where("is_customer = ?", *params.IsCustomer)
	}
	if params.IsSupplier != nil {
		query = query.Where("is_supplier = ?", *params.IsSupplier)
	}
	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", kw, kw)
	}

	var total int64
	query.Count(&total)

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}

	var companies []entity.Company
	err := query.Order("name ASC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).
		Find(&companies).Error
	return companies, total, err
}

// Update 更新往来单位
func (r *CompanyRepository) Update(ctx context.Context, company *entity.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

// Delete 删除往来单位
func (r *CompanyRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Company{}, "id = ?", id).Error
}

type OwnerRepository struct {
	db *gorm.DB
}

func NewOwnerRepository(db *gorm.DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

// Create 创建责任人
func (r *OwnerRepository) Create(ctx context.Context, owner *entity.Owner) error {
	return r.db.WithContext(ctx).Create(owner).Error
}

// ListAll 列出全部责任人
func (r *OwnerRepository) ListAll(ctx context.Context) ([]entity.Owner, error) {
	var owners []entity.Owner
	err := r.db.WithContext(ctx).Order("name ASC").Find(&owners).Error
	return owners, err
}

type ProjectCodeRepository struct {
	db *gorm.DB
}

func NewProjectCodeRepository(db *gorm.DB) *ProjectCodeRepository {
	return &ProjectCodeRepository{db: db}
}

// Create 创建项目编码
func (r *ProjectCodeRepository) Create(ctx context.Context, code *entity.ProjectCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// ListAll 列出全部项目编码
func (r *ProjectCodeRepository) ListAll(ctx context.Context) ([]entity.ProjectCode, error) {
	var codes []entity.ProjectCode
	err := r.db.WithContext(ctx).Order("code ASC").Find(&codes).Error
	return codes, err
}

// FindByID 根据ID查找项目编码
func (r *ProjectCodeRepository) FindByID(ctx context.Context, id string) (*entity.ProjectCode, error) {
	var code entity.ProjectCode
	if err := r.db.WithContext(ctx).First(&code, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &code, nil
}
