package entity

import (
	"time"
)

// PartStatus 零件状态
const (
	PartStatusDraft    = "draft"
	PartStatusActive   = "active"
	PartStatusObsolete = "obsolete"
)

// PartCategory 零件类别
type PartCategory struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description" gorm:"type:text"`
	ParentID    *string   `json:"parent_id" gorm:"type:uuid;index"`
	PathName    string    `json:"pathname" gorm:"size:250"`
	Structural  bool      `json:"structural" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Parent *PartCategory `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
}

func (PartCategory) TableName() string {
	return "ims_part_categories"
}

// Part 零件主数据
type Part struct {
	ID           string  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	IPN          string  `json:"ipn" gorm:"column:ipn;size:100;index"`
	Name         string  `json:"name" gorm:"size:100;not null;index"`
	Revision     string  `json:"revision" gorm:"size:100"`
	Description  string  `json:"description" gorm:"type:text"`
	CategoryID   *string `json:"category_id" gorm:"type:uuid;index"`
	VariantOfID  *string `json:"variant_of" gorm:"type:uuid;index"`
	Units        string  `json:"units" gorm:"size:20;not null;default:pcs"`
	Assembly     bool    `json:"assembly" gorm:"default:false"`
	Component    bool    `json:"component" gorm:"default:true"`
	Salable      bool    `json:"salable" gorm:"default:false"`
	Purchaseable bool    `json:"purchaseable" gorm:"default:true"`
	Trackable    bool    `json:"trackable" gorm:"default:false"`
	Virtual      bool    `json:"virtual" gorm:"default:false"`
	Active       bool    `json:"active" gorm:"default:true"`
	// 库存过期天数，0=永不过期
	DefaultExpiry int        `json:"default_expiry" gorm:"default:0"`
	Status        string     `json:"status" gorm:"size:16;not null;default:active"`
	CreatedBy     string     `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`

	Category  *PartCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	VariantOf *Part         `json:"variant_of_part,omitempty" gorm:"foreignKey:VariantOfID"`
	Variants  []Part        `json:"variants,omitempty" gorm:"foreignKey:VariantOfID"`
}

func (Part) TableName() string {
	return "ims_parts"
}
