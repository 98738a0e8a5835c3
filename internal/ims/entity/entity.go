package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有IMS表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 主数据
		&PartCategory{},
		&Part{},
		&LocationType{},
		&StockLocation{},
		&Company{},
		&Owner{},
		&ProjectCode{},
		&InstanceSetting{},

		// 库存
		&StockItem{},
		&StockTracking{},

		// BOM
		&BOMItem{},
		&BOMSubstitute{},

		// 销售
		&SalesOrder{},
		&SOLineItem{},
		&Shipment{},
		&SOAllocation{},

		// 采购
		&PurchaseOrder{},
		&POLineItem{},

		// 退货
		&ReturnOrder{},
		&ReturnOrderLineItem{},
	)
}
