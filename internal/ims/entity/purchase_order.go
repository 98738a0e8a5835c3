package entity

import (
	"time"
)

// PurchaseOrder 采购订单
type PurchaseOrder struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Reference     string     `json:"reference" gorm:"size:64;not null;uniqueIndex"`
	SupplierID    string     `json:"supplier" gorm:"type:uuid;not null;index"`
	Description   string     `json:"description" gorm:"type:text"`
	Status        int        `json:"status" gorm:"not null;default:10"`
	Currency      string     `json:"order_currency" gorm:"size:10;not null;default:CNY"`
	ProjectCodeID *string    `json:"project_code" gorm:"type:uuid;index"`
	ResponsibleID *string    `json:"responsible" gorm:"type:uuid;index"`
	SupplierRef   string     `json:"supplier_reference" gorm:"size:100"`
	TargetDate    *time.Time `json:"target_date"`
	IssuedAt      *time.Time `json:"issue_date"`
	CompletedAt   *time.Time `json:"complete_date"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedBy     string     `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time  `json:"creation_date"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`

	Supplier    *Company     `json:"supplier_detail,omitempty" gorm:"foreignKey:SupplierID"`
	ProjectCode *ProjectCode `json:"project_code_detail,omitempty" gorm:"foreignKey:ProjectCodeID"`
	Lines       []POLineItem `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
}

func (PurchaseOrder) TableName() string {
	return "ims_purchase_orders"
}

// POLineItem 采购订单行
type POLineItem struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrderID       string     `json:"order" gorm:"type:uuid;not null;index"`
	PartID        string     `json:"part" gorm:"type:uuid;not null;index"`
	PartIPN       string     `json:"part_ipn" gorm:"column:part_ipn;size:100"`
	PartName      string     `json:"part_name" gorm:"size:100"`
	Quantity      float64    `json:"quantity" gorm:"type:decimal(15,5);not null"`
	ReceivedQty   float64    `json:"received" gorm:"type:decimal(15,5);default:0"`
	PurchasePrice float64    `json:"purchase_price" gorm:"type:decimal(15,5);default:0"`
	Reference     string     `json:"reference" gorm:"size:100"`
	TargetDate    *time.Time `json:"target_date"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Order *PurchaseOrder `json:"order_detail,omitempty" gorm:"foreignKey:OrderID"`
	Part  *Part          `json:"part_detail,omitempty" gorm:"foreignKey:PartID"`
}

func (POLineItem) TableName() string {
	return "ims_po_line_items"
}
