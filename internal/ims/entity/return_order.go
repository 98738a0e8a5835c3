package entity

import (
	"time"
)

// ReturnOrder 退货订单
type ReturnOrder struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Reference     string     `json:"reference" gorm:"size:64;not null;uniqueIndex"`
	CustomerID    string     `json:"customer" gorm:"type:uuid;not null;index"`
	Description   string     `json:"description" gorm:"type:text"`
	Status        int        `json:"status" gorm:"not null;default:10"`
	ProjectCodeID *string    `json:"project_code" gorm:"type:uuid;index"`
	ResponsibleID *string    `json:"responsible" gorm:"type:uuid;index"`
	TargetDate    *time.Time `json:"target_date"`
	CompletedAt   *time.Time `json:"complete_date"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedBy     string     `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time  `json:"creation_date"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`

	Customer *Company              `json:"customer_detail,omitempty" gorm:"foreignKey:CustomerID"`
	Lines    []ReturnOrderLineItem `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
}

func (ReturnOrder) TableName() string {
	return "ims_return_orders"
}

// ReturnOrderLineItem 退货订单行，关联一个退回的库存项
type ReturnOrderLineItem struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrderID     string     `json:"order" gorm:"type:uuid;not null;index"`
	StockItemID string     `json:"item" gorm:"type:uuid;not null;index"`
	// 处置结果，见 status.ReturnOrderLineStatusCodes
	Outcome    int        `json:"outcome" gorm:"not null;default:10"`
	Reference  string     `json:"reference" gorm:"size:100"`
	Price      float64    `json:"price" gorm:"type:decimal(15,5);default:0"`
	TargetDate *time.Time `json:"target_date"`
	ReceivedAt *time.Time `json:"received_date"`
	Notes      string     `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Order     *ReturnOrder `json:"order_detail,omitempty" gorm:"foreignKey:OrderID"`
	StockItem *StockItem   `json:"item_detail,omitempty" gorm:"foreignKey:StockItemID"`
}

func (ReturnOrderLineItem) TableName() string {
	return "ims_return_order_lines"
}
