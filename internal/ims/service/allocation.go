package service

import (
	"sort"
	"strings"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
)

// ValidationError 字段级校验错误，按请求字段路径汇总
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// AllocationCandidate 可供分配的库存项
type AllocationCandidate struct {
	StockItemID string  `json:"item"`
	LocationID  *string `json:"location"`
	BatchNo     string  `json:"batch"`
	SerialNo    string  `json:"serial"`
	Available   float64 `json:"available"`
}

// AllocationRow 分配表单的一行，对应一个未分配完的订单行
type AllocationRow struct {
	LineItemID string  `json:"line"`
	PartID     string  `json:"part"`
	PartIPN    string  `json:"part_ipn"`
	PartName   string  `json:"part_name"`
	Quantity   float64 `json:"quantity"`
	Allocated  float64 `json:"allocated"`
	Remaining  float64 `json:"remaining"`

	// 预填项：首个候选库存项与 min(候选可用, 行剩余)
	StockItemID string  `json:"item,omitempty"`
	FillQty     float64 `json:"fill_quantity"`

	Candidates []AllocationCandidate `json:"candidates"`
}

// BuildAllocationRows 构建分配表单行。
// 已分配完的订单行不产生表单行；候选项只保留在库且有可用数量的库存项，
// 预填数量取首个候选项可用量与行剩余量的较小值。
func BuildAllocationRows(lines []entity.SOLineItem, stockByPart map[string][]entity.StockItem) []AllocationRow {
	rows := make([]AllocationRow, 0, len(lines))
	for _, line := range lines {
		remaining := line.RemainingQty()
		if remaining <= 0 {
			continue
		}

		row := AllocationRow{
			LineItemID: line.ID,
			PartID:     line.PartID,
			PartIPN:    line.PartIPN,
			PartName:   line.PartName,
			Quantity:   line.Quantity,
			Allocated:  line.AllocatedQty(),
			Remaining:  remaining,
		}

		for _, item := range stockByPart[line.PartID] {
			avail := item.Available()
			if !item.InStock() || avail <= 0 {
				continue
			}
			row.Candidates = append(row.Candidates, AllocationCandidate{
				StockItemID: item.ID,
				LocationID:  item.LocationID,
				BatchNo:     item.BatchNo,
				SerialNo:    item.SerialNo,
				Available:   avail,
			})
		}

		if len(row.Candidates) > 0 {
			first := row.Candidates[0]
			row.StockItemID = first.StockItemID
			row.FillQty = first.Available
			if remaining < row.FillQty {
				row.FillQty = remaining
			}
		}

		rows = append(rows, row)
	}
	return rows
}
