package tablefilter

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeFlags struct {
	projectCodes bool
	stockExpiry  bool
}

func (f fakeFlags) ProjectCodesEnabled(ctx context.Context) bool { return f.projectCodes }
func (f fakeFlags) StockExpiryEnabled(ctx context.Context) bool  { return f.stockExpiry }

type countingSource struct {
	ownerCalls        int
	projectCodeCalls  int
	locationTypeCalls int
}

func (s *countingSource) Owners(ctx context.Context) ([]Choice, error) {
	s.ownerCalls++
	return []Choice{{Value: "owner-1", Label: "Alice"}}, nil
}

func (s *countingSource) ProjectCodes(ctx context.Context) ([]Choice, error) {
	s.projectCodeCalls++
	return []Choice{{Value: "pc-1", Label: "PRJ-001"}}, nil
}

func (s *countingSource) LocationTypes(ctx context.Context) ([]Choice, error) {
	s.locationTypeCalls++
	return []Choice{{Value: "lt-1", Label: "Shelf"}}, nil
}

func newTestRegistry(flags fakeFlags) (*Registry, *countingSource, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	source := &countingSource{}
	return NewRegistry(zap.New(core), flags, source), source, logs
}

func TestUnknownTableReturnsEmptySet(t *testing.T) {
	r, _, logs := newTestRegistry(fakeFlags{})

	filters := r.Filters(context.Background(), Table("nosuchtable"))
	if filters == nil {
		t.Fatal("expected empty map, got nil")
	}
	if len(filters) != 0 {
		t.Errorf("expected empty filter set, got %d entries", len(filters))
	}
	if logs.Len() != 1 {
		t.Errorf("expected one warning log, got %d", logs.Len())
	}
}

func TestTableKeyIsCaseInsensitive(t *testing.T) {
	r, _, _ := newTestRegistry(fakeFlags{})

	upper := r.Filters(context.Background(), Table("SalesOrder"))
	lower := r.Filters(context.Background(), TableSalesOrder)
	if len(upper) == 0 || len(upper) != len(lower) {
		t.Errorf("case-normalized lookup mismatch: %d vs %d", len(upper), len(lower))
	}
}

func TestProjectCodeFiltersGatedBySetting(t *testing.T) {
	ctx := context.Background()

	r, _, _ := newTestRegistry(fakeFlags{projectCodes: false})
	filters := r.Filters(ctx, TableSalesOrder)
	if _, ok := filters["project_code"]; ok {
		t.Error("project_code filter present while project codes disabled")
	}
	if _, ok := filters["has_project_code"]; ok {
		t.Error("has_project_code filter present while project codes disabled")
	}

	r, _, _ = newTestRegistry(fakeFlags{projectCodes: true})
	filters = r.Filters(ctx, TableSalesOrder)
	if _, ok := filters["project_code"]; !ok {
		t.Error("project_code filter missing while project codes enabled")
	}
	if _, ok := filters["has_project_code"]; !ok {
		t.Error("has_project_code filter missing while project codes enabled")
	}
}

func TestExpiryFiltersGatedBySetting(t *testing.T) {
	ctx := context.Background()

	r, _, _ := newTestRegistry(fakeFlags{stockExpiry: false})
	filters := r.Filters(ctx, TableStock)
	if _, ok := filters["expired"]; ok {
		t.Error("expired filter present while stock expiry disabled")
	}

	r, _, _ = newTestRegistry(fakeFlags{stockExpiry: true})
	filters = r.Filters(ctx, TableStock)
	for _, key := range []string{"expired", "stale", "expiry_before", "expiry_after"} {
		if _, ok := filters[key]; !ok {
			t.Errorf("%s filter missing while stock expiry enabled", key)
		}
	}
}

func TestDynamicChoicesLoadedExplicitly(t *testing.T) {
	ctx := context.Background()
	r, source, _ := newTestRegistry(fakeFlags{projectCodes: true})

	filters := r.Filters(ctx, TablePurchaseOrder)

	// 构建描述不触发任何数据源查询
	if source.ownerCalls != 0 || source.projectCodeCalls != 0 {
		t.Fatalf("filter construction hit the choice source: owners=%d projectCodes=%d",
			source.ownerCalls, source.projectCodeCalls)
	}

	assigned, ok := filters["assigned_to"]
	if !ok {
		t.Fatal("assigned_to filter missing")
	}
	if assigned.LoadChoices == nil {
		t.Fatal("assigned_to filter has no choice loader")
	}
	choices, err := assigned.LoadChoices(ctx)
	if err != nil {
		t.Fatalf("LoadChoices failed: %v", err)
	}
	if len(choices) != 1 || choices[0].Label != "Alice" {
		t.Errorf("unexpected owner choices: %+v", choices)
	}
	if source.ownerCalls != 1 {
		t.Errorf("expected one owner source call, got %d", source.ownerCalls)
	}
}

func TestStatusChoicesAreStatic(t *testing.T) {
	r, _, _ := newTestRegistry(fakeFlags{})
	filters := r.Filters(context.Background(), TableStock)

	statusFilter, ok := filters["status"]
	if !ok {
		t.Fatal("status filter missing")
	}
	if statusFilter.Type != TypeChoice {
		t.Errorf("expected choice type, got %s", statusFilter.Type)
	}
	if len(statusFilter.Choices) == 0 {
		t.Error("status filter has no static choices")
	}
	if statusFilter.LoadChoices != nil {
		t.Error("status filter should be static, has loader")
	}
}
