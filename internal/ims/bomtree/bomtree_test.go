package bomtree

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu           sync.Mutex
	roots        map[string][]Line
	children     map[string][]Line
	rootCalls    int
	childCalls   int
	childErr     error
	childBlocker chan struct{}
	childEntered chan struct{}
}

func (f *fakeSource) Roots(ctx context.Context, partID string) ([]Line, error) {
	f.mu.Lock()
	f.rootCalls++
	f.mu.Unlock()
	return f.roots[partID], nil
}

func (f *fakeSource) Children(ctx context.Context, itemID string) ([]Line, error) {
	f.mu.Lock()
	f.childCalls++
	err := f.childErr
	f.mu.Unlock()
	if f.childEntered != nil {
		f.childEntered <- struct{}{}
	}
	if f.childBlocker != nil {
		<-f.childBlocker
	}
	if err != nil {
		return nil, err
	}
	return f.children[itemID], nil
}

func (f *fakeSource) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rootCalls, f.childCalls
}

func TestDeriveAvailableStock(t *testing.T) {
	cases := []struct {
		name string
		line Line
		want float64
	}{
		{
			name: "base plus substitutes",
			line: Line{BaseStock: 10, SubstituteStock: 5, VariantStock: 100},
			want: 15,
		},
		{
			name: "variants included when allowed",
			line: Line{BaseStock: 10, SubstituteStock: 5, VariantStock: 100, AllowVariants: true},
			want: 115,
		},
		{
			name: "variant stock present but excluded",
			line: Line{BaseStock: 0, VariantStock: 50},
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := derive(tc.line, RootRef("part-1"))
			if row.AvailableStock != tc.want {
				t.Errorf("available stock = %v, want %v", row.AvailableStock, tc.want)
			}
		})
	}
}

func TestDeriveCanBuild(t *testing.T) {
	// consumable 行不受数量与库存限制
	row := derive(Line{Quantity: 5, BaseStock: 0, Consumable: true}, RootRef("p"))
	if !row.CanBuildUnbounded {
		t.Error("consumable row must be unbounded")
	}
	if row.CanBuildDisplay() != "∞" {
		t.Errorf("unexpected display for unbounded row: %q", row.CanBuildDisplay())
	}

	// 数量非正且非consumable → 0，不产生除零
	row = derive(Line{Quantity: 0, BaseStock: 100}, RootRef("p"))
	if row.CanBuildUnbounded || row.CanBuild != 0 {
		t.Errorf("zero-quantity row: canBuild = %v, unbounded = %v", row.CanBuild, row.CanBuildUnbounded)
	}
	row = derive(Line{Quantity: -2, BaseStock: 100}, RootRef("p"))
	if row.CanBuild != 0 {
		t.Errorf("negative-quantity row: canBuild = %v", row.CanBuild)
	}

	// 原始值不取整，展示层保留两位小数
	row = derive(Line{Quantity: 5, BaseStock: 12}, RootRef("p"))
	if row.CanBuild != 2.4 {
		t.Errorf("canBuild = %v, want 2.4", row.CanBuild)
	}
	if row.CanBuildDisplay() != "2.40" {
		t.Errorf("display = %q, want 2.40", row.CanBuildDisplay())
	}
}

func TestDerivePriceRange(t *testing.T) {
	line := Line{
		Quantity:   3,
		PriceMin:   decimal.RequireFromString("1.50"),
		PriceMax:   decimal.RequireFromString("2.00"),
		HasPricing: true,
	}
	row := derive(line, RootRef("p"))
	if row.PriceRangeMin.StringFixed(2) != "4.50" {
		t.Errorf("price min = %s, want 4.50", row.PriceRangeMin.StringFixed(2))
	}
	if row.PriceRangeMax.StringFixed(2) != "6.00" {
		t.Errorf("price max = %s, want 6.00", row.PriceRangeMax.StringFixed(2))
	}
	if row.PriceRangeDisplay() != "4.50 - 6.00" {
		t.Errorf("display = %q", row.PriceRangeDisplay())
	}
}

func TestLoadBuildsRootRows(t *testing.T) {
	source := &fakeSource{
		roots: map[string][]Line{
			"part-1": {
				{ItemID: "item-1", SubPartID: "sub-1", Quantity: 2},
				{ItemID: "item-2", SubPartID: "sub-2", Quantity: 1, SubPartAssembly: true},
			},
		},
	}
	loader := NewLoader(source, zap.NewNop())

	rows, err := loader.Load(context.Background(), "part-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Parent != RootRef("part-1") {
			t.Errorf("row %s parent = %v, want root ref", row.ItemID, row.Parent)
		}
	}
	if rows[0].Ref != ItemRef("item-1") {
		t.Errorf("row ref = %v", rows[0].Ref)
	}
}

func TestExpandSplicesChildren(t *testing.T) {
	source := &fakeSource{
		roots: map[string][]Line{
			"part-1": {{ItemID: "item-1", SubPartID: "sub-asm", Quantity: 1, SubPartAssembly: true}},
		},
		children: map[string][]Line{
			"item-1": {
				{ItemID: "child-1", SubPartID: "sub-a", Quantity: 4},
				{ItemID: "child-2", SubPartID: "sub-b", Quantity: 2},
			},
		},
	}
	loader := NewLoader(source, zap.NewNop())

	if _, err := loader.Load(context.Background(), "part-1"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	children, err := loader.Expand(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	for _, child := range children {
		if child.Parent != ItemRef("item-1") {
			t.Errorf("child %s parent = %v, want item ref", child.ItemID, child.Parent)
		}
	}
	if got := len(loader.Rows()); got != 3 {
		t.Errorf("dataset size = %d, want 3", got)
	}
}

func TestExpandDeduplicatesConcurrentRequests(t *testing.T) {
	blocker := make(chan struct{})
	entered := make(chan struct{}, 1)
	source := &fakeSource{
		children: map[string][]Line{
			"item-1": {{ItemID: "child-1", SubPartID: "sub-a", Quantity: 1}},
		},
		childBlocker: blocker,
		childEntered: entered,
	}
	loader := NewLoader(source, zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		loader.Expand(context.Background(), "item-1")
	}()

	// 等第一次请求进入拉取再展开，第二次不应发起拉取
	<-entered
	rows, err := loader.Expand(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("second Expand errored: %v", err)
	}
	if rows != nil {
		t.Errorf("second Expand returned rows: %+v", rows)
	}

	close(blocker)
	wg.Wait()

	if _, childCalls := source.calls(); childCalls != 1 {
		t.Errorf("expected exactly one child fetch, got %d", childCalls)
	}
}

func TestExpandRetriesAfterError(t *testing.T) {
	source := &fakeSource{
		children: map[string][]Line{
			"item-1": {{ItemID: "child-1", SubPartID: "sub-a", Quantity: 1}},
		},
		childErr: errors.New("backend down"),
	}
	loader := NewLoader(source, zap.NewNop())

	if _, err := loader.Expand(context.Background(), "item-1"); err == nil {
		t.Fatal("expected error from failed expansion")
	}

	source.mu.Lock()
	source.childErr = nil
	source.mu.Unlock()

	rows, err := loader.Expand(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 row after retry, got %d", len(rows))
	}
	if _, childCalls := source.calls(); childCalls != 2 {
		t.Errorf("expected two child fetches, got %d", childCalls)
	}
}

func TestLoadResetsRequestedFlags(t *testing.T) {
	source := &fakeSource{
		roots: map[string][]Line{
			"part-1": {{ItemID: "item-1", SubPartID: "sub", Quantity: 1, SubPartAssembly: true}},
		},
		children: map[string][]Line{"item-1": {}},
	}
	loader := NewLoader(source, zap.NewNop())

	ctx := context.Background()
	loader.Load(ctx, "part-1")
	loader.Expand(ctx, "item-1")
	loader.Load(ctx, "part-1")
	loader.Expand(ctx, "item-1")

	if _, childCalls := source.calls(); childCalls != 2 {
		t.Errorf("expected reload to reset expansion state, child fetches = %d", childCalls)
	}
}

func TestPriceRangeAggregation(t *testing.T) {
	rows := []Row{
		derive(Line{ItemID: "a", Quantity: 1, PriceMin: decimal.NewFromInt(10), PriceMax: decimal.NewFromInt(20), HasPricing: true}, RootRef("p")),
		derive(Line{ItemID: "b", Quantity: 2, PriceMin: decimal.NewFromInt(5), PriceMax: decimal.NewFromInt(5), HasPricing: true}, RootRef("p")),
		// 子行不计入顶层合计
		derive(Line{ItemID: "c", Quantity: 1, PriceMin: decimal.NewFromInt(100), PriceMax: decimal.NewFromInt(100), HasPricing: true}, ItemRef("a")),
		// 无定价的行跳过
		derive(Line{ItemID: "d", Quantity: 1}, RootRef("p")),
	}

	min, max, priced := PriceRange(rows)
	if !priced {
		t.Fatal("expected priced result")
	}
	if min.StringFixed(2) != "20.00" {
		t.Errorf("min = %s, want 20.00", min.StringFixed(2))
	}
	if max.StringFixed(2) != "30.00" {
		t.Errorf("max = %s, want 30.00", max.StringFixed(2))
	}
}
