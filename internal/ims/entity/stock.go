package entity

import (
	"time"
)

// LocationType 库位类型（用于筛选与图标展示）
type LocationType struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	Icon        string    `json:"icon" gorm:"size:100"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (LocationType) TableName() string {
	return "ims_location_types"
}

// StockLocation 库位
type StockLocation struct {
	ID             string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name           string  `json:"name" gorm:"size:100;not null"`
	Description    string  `json:"description" gorm:"type:text"`
	ParentID       *string `json:"parent_id" gorm:"type:uuid;index"`
	PathName       string  `json:"pathname" gorm:"size:250"`
	LocationTypeID *string `json:"location_type" gorm:"type:uuid;index"`
	// structural 库位只能包含子库位，不能直接存放库存
	Structural bool       `json:"structural" gorm:"default:false"`
	External   bool       `json:"external" gorm:"default:false"`
	OwnerID    *string    `json:"owner" gorm:"type:uuid"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at" gorm:"index"`

	Parent       *StockLocation `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	LocationType *LocationType  `json:"location_type_detail,omitempty" gorm:"foreignKey:LocationTypeID"`
}

func (StockLocation) TableName() string {
	return "ims_stock_locations"
}

// StockItem 库存项
type StockItem struct {
	ID         string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PartID     string  `json:"part" gorm:"type:uuid;not null;index"`
	PartIPN    string  `json:"part_ipn" gorm:"column:part_ipn;size:100"`
	PartName   string  `json:"part_name" gorm:"size:100"`
	LocationID *string `json:"location" gorm:"type:uuid;index"`
	// 数量与已分配数量，可用 = Quantity - AllocatedQty
	Quantity      float64    `json:"quantity" gorm:"type:decimal(15,5);not null;default:0"`
	AllocatedQty  float64    `json:"allocated" gorm:"type:decimal(15,5);not null;default:0"`
	BatchNo       string     `json:"batch" gorm:"size:100;index"`
	SerialNo      string     `json:"serial" gorm:"size:100"`
	Status        int        `json:"status" gorm:"not null;default:10"`
	CustomerID    *string    `json:"customer" gorm:"type:uuid;index"`
	BuildID       *string    `json:"build" gorm:"type:uuid"`
	PurchasePrice float64    `json:"purchase_price" gorm:"type:decimal(15,5);default:0"`
	ExpiryDate    *time.Time `json:"expiry_date"`
	StocktakeAt   *time.Time `json:"stocktake_date"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedBy     string     `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`

	Part     *Part          `json:"part_detail,omitempty" gorm:"foreignKey:PartID"`
	Location *StockLocation `json:"location_detail,omitempty" gorm:"foreignKey:LocationID"`
}

func (StockItem) TableName() string {
	return "ims_stock_items"
}

// Available 可分配数量
func (s *StockItem) Available() float64 {
	avail := s.Quantity - s.AllocatedQty
	if avail < 0 {
		return 0
	}
	return avail
}

// InStock 是否在库：未分配给客户、数量为正
func (s *StockItem) InStock() bool {
	return s.CustomerID == nil && s.Quantity > 0 && s.DeletedAt == nil
}

// Expired 是否已过期
func (s *StockItem) Expired(now time.Time) bool {
	return s.ExpiryDate != nil && s.ExpiryDate.Before(now)
}

// StockTracking 库存履历记录
type StockTracking struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	StockItemID string `json:"item" gorm:"type:uuid;not null;index"`
	// 履历代码，见 status.StockHistoryCodes
	TrackingType int       `json:"tracking_type" gorm:"not null"`
	Notes        string    `json:"notes" gorm:"type:text"`
	DeltaQty     float64   `json:"delta_quantity" gorm:"type:decimal(15,5);default:0"`
	CreatedBy    string    `json:"user" gorm:"size:64;not null"`
	CreatedAt    time.Time `json:"date"`
}

func (StockTracking) TableName() string {
	return "ims_stock_tracking"
}
