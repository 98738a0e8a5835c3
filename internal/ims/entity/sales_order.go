package entity

import (
	"time"
)

// SalesOrder 销售订单
type SalesOrder struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Reference     string     `json:"reference" gorm:"size:64;not null;uniqueIndex"`
	CustomerID    string     `json:"customer" gorm:"type:uuid;not null;index"`
	Description   string     `json:"description" gorm:"type:text"`
	Status        int        `json:"status" gorm:"not null;default:10"`
	Currency      string     `json:"order_currency" gorm:"size:10;not null;default:CNY"`
	ProjectCodeID *string    `json:"project_code" gorm:"type:uuid;index"`
	ResponsibleID *string    `json:"responsible" gorm:"type:uuid;index"`
	TargetDate    *time.Time `json:"target_date"`
	ShipmentDate  *time.Time `json:"shipment_date"`
	CustomerRef   string     `json:"customer_reference" gorm:"size:100"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedBy     string     `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time  `json:"creation_date"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`

	Customer    *Company     `json:"customer_detail,omitempty" gorm:"foreignKey:CustomerID"`
	ProjectCode *ProjectCode `json:"project_code_detail,omitempty" gorm:"foreignKey:ProjectCodeID"`
	Lines       []SOLineItem `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
	Shipments   []Shipment   `json:"shipments,omitempty" gorm:"foreignKey:OrderID"`
}

func (SalesOrder) TableName() string {
	return "ims_sales_orders"
}

// SOLineItem 销售订单行
type SOLineItem struct {
	ID         string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrderID    string     `json:"order" gorm:"type:uuid;not null;index"`
	PartID     string     `json:"part" gorm:"type:uuid;not null;index"`
	PartIPN    string     `json:"part_ipn" gorm:"column:part_ipn;size:100"`
	PartName   string     `json:"part_name" gorm:"size:100"`
	Quantity   float64    `json:"quantity" gorm:"type:decimal(15,5);not null"`
	SalePrice  float64    `json:"sale_price" gorm:"type:decimal(15,5);default:0"`
	ShippedQty float64    `json:"shipped" gorm:"type:decimal(15,5);default:0"`
	Reference  string     `json:"reference" gorm:"size:100"`
	TargetDate *time.Time `json:"target_date"`
	Notes      string     `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Order       *SalesOrder    `json:"order_detail,omitempty" gorm:"foreignKey:OrderID"`
	Part        *Part          `json:"part_detail,omitempty" gorm:"foreignKey:PartID"`
	Allocations []SOAllocation `json:"allocations,omitempty" gorm:"foreignKey:LineItemID"`
}

func (SOLineItem) TableName() string {
	return "ims_so_line_items"
}

// AllocatedQty 行项已分配数量合计
func (l *SOLineItem) AllocatedQty() float64 {
	var total float64
	for _, a := range l.Allocations {
		total += a.Quantity
	}
	return total
}

// RemainingQty 还需分配的数量，不低于0
func (l *SOLineItem) RemainingQty() float64 {
	remaining := l.Quantity - l.AllocatedQty()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Shipment 销售发运单
type Shipment struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrderID     string     `json:"order" gorm:"type:uuid;not null;index"`
	Reference   string     `json:"reference" gorm:"size:100;not null"`
	TrackingNo  string     `json:"tracking_number" gorm:"size:100"`
	InvoiceNo   string     `json:"invoice_number" gorm:"size:100"`
	ShippedAt   *time.Time `json:"shipment_date"`
	DeliveredAt *time.Time `json:"delivery_date"`
	Notes       string     `json:"notes" gorm:"type:text"`
	CreatedBy   string     `json:"created_by" gorm:"size:64"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Order *SalesOrder `json:"order_detail,omitempty" gorm:"foreignKey:OrderID"`
}

func (Shipment) TableName() string {
	return "ims_so_shipments"
}

// Shipped 发运单是否已发出
func (s *Shipment) Shipped() bool {
	return s.ShippedAt != nil
}

// SOAllocation 库存分配：某库存项的指定数量被保留给某订单行
type SOAllocation struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	LineItemID  string    `json:"line" gorm:"type:uuid;not null;index"`
	ShipmentID  *string   `json:"shipment" gorm:"type:uuid;index"`
	StockItemID string    `json:"item" gorm:"type:uuid;not null;index"`
	Quantity    float64   `json:"quantity" gorm:"type:decimal(15,5);not null"`
	CreatedBy   string    `json:"created_by" gorm:"size:64"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	LineItem  *SOLineItem `json:"line_detail,omitempty" gorm:"foreignKey:LineItemID"`
	Shipment  *Shipment   `json:"shipment_detail,omitempty" gorm:"foreignKey:ShipmentID"`
	StockItem *StockItem  `json:"item_detail,omitempty" gorm:"foreignKey:StockItemID"`
}

func (SOAllocation) TableName() string {
	return "ims_so_allocations"
}
