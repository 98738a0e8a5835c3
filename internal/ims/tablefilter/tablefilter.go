// Package tablefilter 构建数据表的筛选器配置。
//
// 每张表对应一组筛选器描述（布尔开关/选项列表/日期），前端据此渲染筛选面板。
// 动态选项（责任人、项目编码、库位类型）通过 LoadChoices 显式加载，
// 构建描述本身不触发任何查询。未知表名返回空集并记录警告，调用方不感知失败。
package tablefilter

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Table 表名
type Table string

const (
	TableStock                Table = "stock"
	TableStockLocation        Table = "stocklocation"
	TablePart                 Table = "part"
	TableBOM                  Table = "bom"
	TableUsedIn               Table = "usedin"
	TableBuild                Table = "build"
	TablePurchaseOrder        Table = "purchaseorder"
	TableSalesOrder           Table = "salesorder"
	TableSalesOrderAllocation Table = "salesorderallocation"
	TableReturnOrder          Table = "returnorder"
)

// Type 筛选器类型
type Type string

const (
	TypeBool   Type = "bool"
	TypeChoice Type = "choice"
	TypeDate   Type = "date"
)

// Choice 选项
type Choice struct {
	Value interface{} `json:"value"`
	Label string      `json:"display_name"`
}

// LoaderFunc 动态选项加载函数
type LoaderFunc func(ctx context.Context) ([]Choice, error)

// Descriptor 单个筛选器描述
type Descriptor struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Type        Type     `json:"type"`
	Description string   `json:"description,omitempty"`
	Choices     []Choice `json:"choices,omitempty"`

	// LoadChoices 动态选项加载步骤，与描述构建解耦；静态筛选器为nil
	LoadChoices LoaderFunc `json:"-"`
}

// Flags 实例级功能开关
type Flags interface {
	ProjectCodesEnabled(ctx context.Context) bool
	StockExpiryEnabled(ctx context.Context) bool
}

// ChoiceSource 动态选项数据源
type ChoiceSource interface {
	Owners(ctx context.Context) ([]Choice, error)
	ProjectCodes(ctx context.Context) ([]Choice, error)
	LocationTypes(ctx context.Context) ([]Choice, error)
}

// Registry 表筛选器注册表
type Registry struct {
	logger   *zap.Logger
	flags    Flags
	source   ChoiceSource
	builders map[Table]func(ctx context.Context) map[string]Descriptor
}

// NewRegistry 创建注册表
func NewRegistry(logger *zap.Logger, flags Flags, source ChoiceSource) *Registry {
	r := &Registry{
		logger: logger,
		flags:  flags,
		source: source,
	}
	r.builders = map[Table]func(ctx context.Context) map[string]Descriptor{
		TableStock:                r.stockFilters,
		TableStockLocation:        r.stockLocationFilters,
		TablePart:                 r.partFilters,
		TableBOM:                  r.bomFilters,
		TableUsedIn:               r.usedInFilters,
		TableBuild:                r.buildFilters,
		TablePurchaseOrder:        r.purchaseOrderFilters,
		TableSalesOrder:           r.salesOrderFilters,
		TableSalesOrderAllocation: r.salesOrderAllocationFilters,
		TableReturnOrder:          r.returnOrderFilters,
	}
	return r
}

// Filters 返回指定表的筛选器集合。未知表名返回空集并告警，不返回错误。
func (r *Registry) Filters(ctx context.Context, table Table) map[string]Descriptor {
	key := Table(strings.ToLower(string(table)))
	builder, ok := r.builders[key]
	if !ok {
		r.logger.Warn("No filters defined for table", zap.String("table", string(table)))
		return map[string]Descriptor{}
	}
	return builder(ctx)
}

// Tables 所有已注册的表名
func (r *Registry) Tables() []Table {
	tables := make([]Table, 0, len(r.builders))
	for t := range r.builders {
		tables = append(tables, t)
	}
	return tables
}
