package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Part        *PartRepository
	Stock       *StockRepository
	BOM         *BOMRepository
	Order       *OrderRepository
	Company     *CompanyRepository
	Owner       *OwnerRepository
	ProjectCode *ProjectCodeRepository
	Setting     *SettingRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Part:        NewPartRepository(db),
		Stock:       NewStockRepository(db),
		BOM:         NewBOMRepository(db),
		Order:       NewOrderRepository(db),
		Company:     NewCompanyRepository(db),
		Owner:       NewOwnerRepository(db),
		ProjectCode: NewProjectCodeRepository(db),
		Setting:     NewSettingRepository(db),
	}
}
