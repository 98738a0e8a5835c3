package entity

import (
	"time"
)

// Company 往来单位（客户/供应商）
type Company struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name        string     `json:"name" gorm:"size:100;not null;index"`
	Description string     `json:"description" gorm:"type:text"`
	Website     string     `json:"website" gorm:"size:200"`
	Email       string     `json:"email" gorm:"size:100"`
	Phone       string     `json:"phone" gorm:"size:50"`
	Address     string     `json:"address" gorm:"size:500"`
	Currency    string     `json:"currency" gorm:"size:10;not null;default:CNY"`
	IsCustomer  bool       `json:"is_customer" gorm:"default:false"`
	IsSupplier  bool       `json:"is_supplier" gorm:"default:false"`
	Active      bool       `json:"active" gorm:"default:true"`
	CreatedBy   string     `json:"created_by" gorm:"size:64"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`
}

func (Company) TableName() string {
	return "ims_companies"
}

// OwnerKind 责任人类型
const (
	OwnerKindUser  = "user"
	OwnerKindGroup = "group"
)

// Owner 责任人（用户或用户组），用于订单指派与筛选
type Owner struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Kind      string    `json:"kind" gorm:"size:10;not null;default:user"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Owner) TableName() string {
	return "ims_owners"
}

// ProjectCode 项目编码，订单可归属某个项目
type ProjectCode struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code        string    `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ProjectCode) TableName() string {
	return "ims_project_codes"
}

// InstanceSetting 实例级设置项
type InstanceSetting struct {
	Key       string    `json:"key" gorm:"primaryKey;size:100"`
	Value     string    `json:"value" gorm:"size:500"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InstanceSetting) TableName() string {
	return "ims_settings"
}
