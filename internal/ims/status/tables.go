package status

// 库存项状态
const (
	StockOK          = 10
	StockAttention   = 50
	StockDamaged     = 55
	StockDestroyed   = 60
	StockRejected    = 65
	StockLost        = 70
	StockQuarantined = 75
	StockReturned    = 85
)

// 库存履历代码
const (
	HistoryLegacy               = 0
	HistoryCreated              = 1
	HistoryEditedItem           = 5
	HistoryAssignedSerial       = 6
	HistoryStocktake            = 10
	HistoryStockAdd             = 12
	HistoryStockRemove          = 13
	HistoryMergedItems          = 45
	HistorySentToLocation       = 20
	HistoryReturnedFromCustomer = 55
	HistoryShippedAgainstSO     = 60
	HistorySentToCustomer       = 65
)

// 生产工单状态
const (
	BuildPending    = 10
	BuildProduction = 20
	BuildOnHold     = 25
	BuildCancelled  = 30
	BuildComplete   = 40
)

// 采购订单状态
const (
	PurchaseOrderPending   = 10
	PurchaseOrderPlaced    = 20
	PurchaseOrderOnHold    = 25
	PurchaseOrderComplete  = 30
	PurchaseOrderCancelled = 40
	PurchaseOrderLost      = 50
	PurchaseOrderReturned  = 60
)

// 销售订单状态
const (
	SalesOrderPending    = 10
	SalesOrderInProgress = 15
	SalesOrderShipped    = 20
	SalesOrderOnHold     = 25
	SalesOrderComplete   = 30
	SalesOrderCancelled  = 40
	SalesOrderLost       = 50
	SalesOrderReturned   = 60
)

// 退货订单状态
const (
	ReturnOrderPending    = 10
	ReturnOrderInProgress = 20
	ReturnOrderOnHold     = 25
	ReturnOrderComplete   = 30
	ReturnOrderCancelled  = 40
)

// 退货订单行处置结果
const (
	ReturnLinePending = 10
	ReturnLineReturn  = 20
	ReturnLineRepair  = 30
	ReturnLineReplace = 40
	ReturnLineRefund  = 50
	ReturnLineReject  = 60
)

// 各实体状态码表。模块加载时构造一次，之后只读。
var (
	StockCodes = NewTable("stock",
		Code{StockOK, "OK", ColorSuccess},
		Code{StockAttention, "Attention needed", ColorWarning},
		Code{StockDamaged, "Damaged", ColorDanger},
		Code{StockDestroyed, "Destroyed", ColorDanger},
		Code{StockRejected, "Rejected", ColorDanger},
		Code{StockLost, "Lost", ColorDark},
		Code{StockQuarantined, "Quarantined", ColorInfo},
		Code{StockReturned, "Returned", ColorWarning},
	)

	StockHistoryCodes = NewTable("stockhistory",
		Code{HistoryLegacy, "Legacy stock tracking entry", ColorSecondary},
		Code{HistoryCreated, "Stock item created", ColorSuccess},
		Code{HistoryEditedItem, "Edited stock item", ColorSecondary},
		Code{HistoryAssignedSerial, "Assigned serial number", ColorSecondary},
		Code{HistoryStocktake, "Stock counted", ColorInfo},
		Code{HistoryStockAdd, "Stock manually added", ColorSuccess},
		Code{HistoryStockRemove, "Stock manually removed", ColorDanger},
		Code{HistorySentToLocation, "Location changed", ColorInfo},
		Code{HistoryMergedItems, "Merged stock items", ColorWarning},
		Code{HistoryReturnedFromCustomer, "Returned from customer", ColorWarning},
		Code{HistoryShippedAgainstSO, "Shipped against sales order", ColorSuccess},
		Code{HistorySentToCustomer, "Sent to customer", ColorSuccess},
	)

	BuildCodes = NewTable("build",
		Code{BuildPending, "Pending", ColorSecondary},
		Code{BuildProduction, "Production", ColorPrimary},
		Code{BuildOnHold, "On Hold", ColorWarning},
		Code{BuildCancelled, "Cancelled", ColorDanger},
		Code{BuildComplete, "Complete", ColorSuccess},
	)

	PurchaseOrderCodes = NewTable("purchaseorder",
		Code{PurchaseOrderPending, "Pending", ColorSecondary},
		Code{PurchaseOrderPlaced, "Placed", ColorPrimary},
		Code{PurchaseOrderOnHold, "On Hold", ColorWarning},
		Code{PurchaseOrderComplete, "Complete", ColorSuccess},
		Code{PurchaseOrderCancelled, "Cancelled", ColorDanger},
		Code{PurchaseOrderLost, "Lost", ColorDark},
		Code{PurchaseOrderReturned, "Returned", ColorWarning},
	)

	SalesOrderCodes = NewTable("salesorder",
		Code{SalesOrderPending, "Pending", ColorSecondary},
		Code{SalesOrderInProgress, "In Progress", ColorPrimary},
		Code{SalesOrderShipped, "Shipped", ColorSuccess},
		Code{SalesOrderOnHold, "On Hold", ColorWarning},
		Code{SalesOrderComplete, "Complete", ColorSuccess},
		Code{SalesOrderCancelled, "Cancelled", ColorDanger},
		Code{SalesOrderLost, "Lost", ColorDark},
		Code{SalesOrderReturned, "Returned", ColorWarning},
	)

	ReturnOrderCodes = NewTable("returnorder",
		Code{ReturnOrderPending, "Pending", ColorSecondary},
		Code{ReturnOrderInProgress, "In Progress", ColorPrimary},
		Code{ReturnOrderOnHold, "On Hold", ColorWarning},
		Code{ReturnOrderComplete, "Complete", ColorSuccess},
		Code{ReturnOrderCancelled, "Cancelled", ColorDanger},
	)

	ReturnOrderLineCodes = NewTable("returnorderlineitem",
		Code{ReturnLinePending, "Pending", ColorSecondary},
		Code{ReturnLineReturn, "Return", ColorSuccess},
		Code{ReturnLineRepair, "Repair", ColorPrimary},
		Code{ReturnLineReplace, "Replace", ColorWarning},
		Code{ReturnLineRefund, "Refund", ColorInfo},
		Code{ReturnLineReject, "Reject", ColorDanger},
	)
)

// ByName 按表名查找状态码表
func ByName(name string) (Table, bool) {
	for _, t := range []Table{
		StockCodes,
		StockHistoryCodes,
		BuildCodes,
		PurchaseOrderCodes,
		SalesOrderCodes,
		ReturnOrderCodes,
		ReturnOrderLineCodes,
	} {
		if t.Name() == name {
			return t, true
		}
	}
	return Table{}, false
}
