package entity

import (
	"time"
)

// BOMItem BOM行项：装配件 PartID 需要 SubPartID x Quantity
type BOMItem struct {
	ID          string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PartID      string  `json:"part" gorm:"type:uuid;not null;index"`
	SubPartID   string  `json:"sub_part" gorm:"type:uuid;not null;index"`
	SubPartIPN  string  `json:"sub_part_ipn" gorm:"column:sub_part_ipn;size:100"`
	SubPartName string  `json:"sub_part_name" gorm:"size:100"`
	Quantity    float64 `json:"quantity" gorm:"type:decimal(15,5);not null"`
	Reference   string  `json:"reference" gorm:"size:500"`
	// 损耗，数值或百分比字符串（如 "5" 或 "2%"）
	Overage string `json:"overage" gorm:"size:24"`
	// optional 装配时可省略；consumable 不做数量跟踪
	Optional   bool `json:"optional" gorm:"default:false"`
	Consumable bool `json:"consumable" gorm:"default:false"`
	// allow_variants 允许用 SubPart 的变体替代
	AllowVariants bool `json:"allow_variants" gorm:"default:false"`
	// inherited 行项对所有变体装配件生效
	Inherited bool       `json:"inherited" gorm:"default:false"`
	Validated bool       `json:"validated" gorm:"default:false"`
	Notes     string     `json:"note" gorm:"type:text"`
	CreatedBy string     `json:"created_by" gorm:"size:64"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`

	Part        *Part           `json:"part_detail,omitempty" gorm:"foreignKey:PartID"`
	SubPart     *Part           `json:"sub_part_detail,omitempty" gorm:"foreignKey:SubPartID"`
	Substitutes []BOMSubstitute `json:"substitutes,omitempty" gorm:"foreignKey:BOMItemID"`
}

func (BOMItem) TableName() string {
	return "ims_bom_items"
}

// BOMSubstitute BOM行的替代料
type BOMSubstitute struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BOMItemID string    `json:"bom_item" gorm:"type:uuid;not null;index"`
	PartID    string    `json:"part" gorm:"type:uuid;not null;index"`
	PartIPN   string    `json:"part_ipn" gorm:"column:part_ipn;size:100"`
	PartName  string    `json:"part_name" gorm:"size:100"`
	CreatedAt time.Time `json:"created_at"`

	BOMItem *BOMItem `json:"bom_item_detail,omitempty" gorm:"foreignKey:BOMItemID"`
	Part    *Part    `json:"part_detail,omitempty" gorm:"foreignKey:PartID"`
}

func (BOMSubstitute) TableName() string {
	return "ims_bom_substitutes"
}
