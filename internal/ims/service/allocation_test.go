package service

import (
	"strings"
	"testing"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
)

func soLine(id, partID string, qty float64, allocated float64) entity.SOLineItem {
	line := entity.SOLineItem{ID: id, PartID: partID, Quantity: qty}
	if allocated > 0 {
		line.Allocations = []entity.SOAllocation{
			{LineItemID: id, StockItemID: "alloc-src", Quantity: allocated},
		}
	}
	return line
}

func ptr(s string) *string { return &s }

func TestBuildAllocationRowsSkipsFullyAllocatedLines(t *testing.T) {
	lines := []entity.SOLineItem{
		soLine("line-1", "part-a", 5, 2), // 剩余3
		soLine("line-2", "part-b", 4, 4), // 已分配完
	}
	stock := map[string][]entity.StockItem{
		"part-a": {{ID: "item-1", PartID: "part-a", Quantity: 10}},
		"part-b": {{ID: "item-2", PartID: "part-b", Quantity: 10}},
	}

	rows := BuildAllocationRows(lines, stock)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].LineItemID != "line-1" {
		t.Errorf("Expected row for line-1, got %s", rows[0].LineItemID)
	}
	if rows[0].Remaining != 3 {
		t.Errorf("Expected remaining 3, got %g", rows[0].Remaining)
	}
}

func TestBuildAllocationRowsPrefill(t *testing.T) {
	lines := []entity.SOLineItem{soLine("line-1", "part-a", 10, 0)}

	// 首个候选可用2，小于剩余10，预填2
	stock := map[string][]entity.StockItem{
		"part-a": {
			{ID: "item-1", PartID: "part-a", Quantity: 5, AllocatedQty: 3},
			{ID: "item-2", PartID: "part-a", Quantity: 20},
		},
	}
	rows := BuildAllocationRows(lines, stock)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.StockItemID != "item-1" {
		t.Errorf("Expected prefill item-1, got %s", row.StockItemID)
	}
	if row.FillQty != 2 {
		t.Errorf("Expected fill quantity 2, got %g", row.FillQty)
	}
	if len(row.Candidates) != 2 {
		t.Errorf("Expected 2 candidates, got %d", len(row.Candidates))
	}

	// 首个候选可用超过剩余时，预填剩余量
	stock["part-a"][0] = entity.StockItem{ID: "item-1", PartID: "part-a", Quantity: 50}
	rows = BuildAllocationRows(lines, stock)
	if rows[0].FillQty != 10 {
		t.Errorf("Expected fill quantity capped at 10, got %g", rows[0].FillQty)
	}
}

func TestBuildAllocationRowsFiltersCandidates(t *testing.T) {
	lines := []entity.SOLineItem{soLine("line-1", "part-a", 5, 0)}
	stock := map[string][]entity.StockItem{
		"part-a": {
			{ID: "item-customer", PartID: "part-a", Quantity: 5, CustomerID: ptr("cust-1")}, // 已发客户
			{ID: "item-depleted", PartID: "part-a", Quantity: 0},                       // 无数量
			{ID: "item-allocated", PartID: "part-a", Quantity: 3, AllocatedQty: 3},     // 全部已占用
			{ID: "item-ok", PartID: "part-a", Quantity: 8},
		},
	}

	rows := BuildAllocationRows(lines, stock)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if len(rows[0].Candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(rows[0].Candidates))
	}
	if rows[0].Candidates[0].StockItemID != "item-ok" {
		t.Errorf("Expected item-ok as candidate, got %s", rows[0].Candidates[0].StockItemID)
	}
	if rows[0].FillQty != 5 {
		t.Errorf("Expected fill quantity 5, got %g", rows[0].FillQty)
	}
}

func TestBuildAllocationRowsNoCandidates(t *testing.T) {
	lines := []entity.SOLineItem{soLine("line-1", "part-a", 5, 0)}
	rows := BuildAllocationRows(lines, map[string][]entity.StockItem{})
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].StockItemID != "" {
		t.Errorf("Expected no prefill, got %s", rows[0].StockItemID)
	}
	if rows[0].FillQty != 0 {
		t.Errorf("Expected zero fill quantity, got %g", rows[0].FillQty)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	verr := newValidationError()
	verr.Fields["items.0.quantity"] = "quantity must be positive"
	verr.Fields["items.1.item"] = "stock item not found"

	msg := verr.Error()
	if !strings.Contains(msg, "items.0.quantity: quantity must be positive") {
		t.Errorf("Message missing field detail: %s", msg)
	}
	// 字段按路径排序，输出稳定
	if strings.Index(msg, "items.0") > strings.Index(msg, "items.1") {
		t.Errorf("Expected sorted field order: %s", msg)
	}
}
