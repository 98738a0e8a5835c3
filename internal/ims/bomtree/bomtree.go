// Package bomtree 构建多层级BOM树的行数据集。
//
// 顶层行挂在 Root 引用下，展开子装配件时按需拉取子行并拼接进数据集。
// 行引用用 {Kind, ID} 二元组区分“零件根节点”与“BOM行节点”，
// 避免零件主键与BOM行主键数值相同时的冲突。
package bomtree

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NodeKind 节点种类
type NodeKind int

const (
	// KindRoot 顶层零件节点
	KindRoot NodeKind = iota
	// KindItem BOM行节点
	KindItem
)

// NodeRef 树节点引用
type NodeRef struct {
	Kind NodeKind `json:"kind"`
	ID   string   `json:"id"`
}

// RootRef 顶层零件引用
func RootRef(partID string) NodeRef {
	return NodeRef{Kind: KindRoot, ID: partID}
}

// ItemRef BOM行引用
func ItemRef(itemID string) NodeRef {
	return NodeRef{Kind: KindItem, ID: itemID}
}

func (n NodeRef) String() string {
	if n.Kind == KindRoot {
		return "root:" + n.ID
	}
	return "item:" + n.ID
}

// Line 数据源提供的单条BOM行
type Line struct {
	ItemID      string `json:"id"`
	PartID      string `json:"part"`
	SubPartID   string `json:"sub_part"`
	SubPartIPN  string `json:"sub_part_ipn"`
	SubPartName string `json:"sub_part_name"`

	Quantity  float64 `json:"quantity"`
	Reference string  `json:"reference"`
	Overage   string  `json:"overage"`

	Optional      bool `json:"optional"`
	Consumable    bool `json:"consumable"`
	AllowVariants bool `json:"allow_variants"`
	Inherited     bool `json:"inherited"`
	Validated     bool `json:"validated"`

	// SubPartAssembly 子件本身是装配件，可继续展开
	SubPartAssembly bool `json:"sub_part_assembly"`

	// 子件库存口径：本体、替代料、变体
	BaseStock       float64 `json:"available_stock"`
	SubstituteStock float64 `json:"substitute_stock"`
	VariantStock    float64 `json:"variant_stock"`

	// 单价区间
	PriceMin   decimal.Decimal `json:"pricing_min"`
	PriceMax   decimal.Decimal `json:"pricing_max"`
	HasPricing bool            `json:"has_pricing"`
}

// Row 树中的一行，含派生字段
type Row struct {
	Line

	// Ref 本行引用；Parent 父节点引用
	Ref    NodeRef `json:"ref"`
	Parent NodeRef `json:"parent"`

	// AvailableStock 可用库存 = 本体 + 替代料 +（允许变体时的）变体库存
	AvailableStock float64 `json:"total_available_stock"`

	// CanBuild 以当前可用库存可装配的数量；Unbounded 表示不受限（consumable行）
	CanBuild          float64 `json:"can_build"`
	CanBuildUnbounded bool    `json:"can_build_unbounded"`

	// 行级价格区间 = 单价区间 × 行数量
	PriceRangeMin decimal.Decimal `json:"price_range_min"`
	PriceRangeMax decimal.Decimal `json:"price_range_max"`
}

// derive 计算派生字段
func derive(line Line, parent NodeRef) Row {
	row := Row{
		Line:   line,
		Ref:    ItemRef(line.ItemID),
		Parent: parent,
	}

	row.AvailableStock = line.BaseStock + line.SubstituteStock
	if line.AllowVariants {
		row.AvailableStock += line.VariantStock
	}

	switch {
	case line.Consumable:
		row.CanBuildUnbounded = true
	case line.Quantity <= 0:
		row.CanBuild = 0
	default:
		row.CanBuild = row.AvailableStock / line.Quantity
	}

	if line.HasPricing {
		qty := decimal.NewFromFloat(line.Quantity)
		row.PriceRangeMin = line.PriceMin.Mul(qty)
		row.PriceRangeMax = line.PriceMax.Mul(qty)
	}

	return row
}

// CanBuildDisplay 可装配数量的展示文本，保留两位小数
func (r Row) CanBuildDisplay() string {
	if r.CanBuildUnbounded {
		return "∞"
	}
	return strconv.FormatFloat(r.CanBuild, 'f', 2, 64)
}

// PriceRangeDisplay 价格区间展示文本
func (r Row) PriceRangeDisplay() string {
	if !r.HasPricing {
		return "-"
	}
	if r.PriceRangeMin.Equal(r.PriceRangeMax) {
		return r.PriceRangeMin.StringFixed(2)
	}
	return r.PriceRangeMin.StringFixed(2) + " - " + r.PriceRangeMax.StringFixed(2)
}

// Source BOM行数据源
type Source interface {
	// Roots 顶层零件的直接BOM行
	Roots(ctx context.Context, partID string) ([]Line, error)
	// Children 某BOM行对应子装配件的BOM行
	Children(ctx context.Context, itemID string) ([]Line, error)
}

// Loader 按需加载BOM树
type Loader struct {
	source Source
	logger *zap.Logger

	mu        sync.Mutex
	partID    string
	rows      []Row
	requested map[string]bool
}

// NewLoader 创建加载器
func NewLoader(source Source, logger *zap.Logger) *Loader {
	return &Loader{
		source:    source,
		logger:    logger,
		requested: make(map[string]bool),
	}
}

// Load 加载顶层BOM行，重置已有数据集
func (l *Loader) Load(ctx context.Context, partID string) ([]Row, error) {
	lines, err := l.source.Roots(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("load bom roots: %w", err)
	}

	parent := RootRef(partID)
	rows := make([]Row, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, derive(line, parent))
	}

	l.mu.Lock()
	l.partID = partID
	l.rows = rows
	l.requested = make(map[string]bool)
	l.mu.Unlock()

	return rows, nil
}

// Expand 展开一个子装配件行，新行挂在该行引用下并拼入数据集。
// 同一行的重复展开请求被 requested 标记拦截，第二次调用不发起拉取。
func (l *Loader) Expand(ctx context.Context, itemID string) ([]Row, error) {
	l.mu.Lock()
	if l.requested[itemID] {
		l.mu.Unlock()
		return nil, nil
	}
	l.requested[itemID] = true
	l.mu.Unlock()

	lines, err := l.source.Children(ctx, itemID)
	if err != nil {
		// 拉取失败允许重试
		l.mu.Lock()
		delete(l.requested, itemID)
		l.mu.Unlock()
		return nil, fmt.Errorf("expand bom item %s: %w", itemID, err)
	}

	parent := ItemRef(itemID)
	children := make([]Row, 0, len(lines))
	for _, line := range lines {
		children = append(children, derive(line, parent))
	}

	l.mu.Lock()
	l.rows = append(l.rows, children...)
	l.mu.Unlock()

	l.logger.Debug("Expanded BOM item",
		zap.String("item_id", itemID),
		zap.Int("children", len(children)),
	)
	return children, nil
}

// Rows 当前数据集快照
func (l *Loader) Rows() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Row, len(l.rows))
	copy(out, l.rows)
	return out
}

// PriceRange 数据集中顶层行的价格区间合计
func PriceRange(rows []Row) (min, max decimal.Decimal, priced bool) {
	for _, row := range rows {
		if row.Parent.Kind != KindRoot || !row.HasPricing {
			continue
		}
		min = min.Add(row.PriceRangeMin)
		max = max.Add(row.PriceRangeMax)
		priced = true
	}
	return min, max, priced
}
