package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/testutil"
)

func seedAssembly(t *testing.T, env *testutil.TestEnv) (*entity.Part, *entity.Part, *entity.Part) {
	t.Helper()
	assembly := testutil.SeedPart(t, env.DB, "ASM-0001", "主板总成", func(p *entity.Part) {
		p.Assembly = true
	})
	sub := testutil.SeedPart(t, env.DB, "SUB-0001", "子装配件", func(p *entity.Part) {
		p.Assembly = true
		p.Component = true
	})
	comp := testutil.SeedPart(t, env.DB, "CMP-0001", "螺丝 M3")
	return assembly, sub, comp
}

func TestBOMCreateAndTree(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	assembly, sub, comp := seedAssembly(t, env)
	loc := testutil.SeedLocation(t, env.DB, "物料区", false)

	// 装配件 → 子装配件
	w := testutil.DoRequest(env.Router, "POST", "/api/bom/", map[string]interface{}{
		"part":     assembly.ID,
		"sub_part": sub.ID,
		"quantity": 2,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	topItemID := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	// 子装配件 → 元件
	w2 := testutil.DoRequest(env.Router, "POST", "/api/bom/", map[string]interface{}{
		"part":     sub.ID,
		"sub_part": comp.ID,
		"quantity": 4,
	}, token)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w2.Code, w2.Body.String())
	}

	// 元件备库存
	testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
		"part": comp.ID, "location": loc.ID, "quantity": 100,
	}, token)

	// 顶层树
	w3 := testutil.DoRequest(env.Router, "GET", "/api/bom/tree/"+assembly.ID+"/", nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	rows := dataOf(t, testutil.ParseResponse(w3))["rows"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("Expected 1 top-level row, got %d", len(rows))
	}
	top := rows[0].(map[string]interface{})
	if top["sub_part"] != sub.ID {
		t.Errorf("Expected sub_part %s, got %v", sub.ID, top["sub_part"])
	}
	if top["sub_part_assembly"] != true {
		t.Errorf("Expected sub_part_assembly true for expandable row")
	}

	// 展开子装配件
	w4 := testutil.DoRequest(env.Router, "GET", "/api/bom/tree/expand/"+topItemID+"/", nil, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	children := dataOf(t, testutil.ParseResponse(w4))["rows"].([]interface{})
	if len(children) != 1 {
		t.Fatalf("Expected 1 child row, got %d", len(children))
	}
	child := children[0].(map[string]interface{})
	if child["sub_part"] != comp.ID {
		t.Errorf("Expected child sub_part %s, got %v", comp.ID, child["sub_part"])
	}
	if avail := child["total_available_stock"].(float64); avail != 100 {
		t.Errorf("Expected available stock 100, got %v", avail)
	}
	if canBuild := child["can_build"].(float64); canBuild != 25 {
		t.Errorf("Expected can_build 25 (100/4), got %v", canBuild)
	}
}

func TestBOMSelfReferenceRejected(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	assembly, _, _ := seedAssembly(t, env)

	w := testutil.DoRequest(env.Router, "POST", "/api/bom/", map[string]interface{}{
		"part":     assembly.ID,
		"sub_part": assembly.ID,
		"quantity": 1,
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for self reference, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBOMNonAssemblyRejected(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	_, _, comp := seedAssembly(t, env)
	other := testutil.SeedPart(t, env.DB, "CMP-0002", "垫片")

	w := testutil.DoRequest(env.Router, "POST", "/api/bom/", map[string]interface{}{
		"part":     comp.ID,
		"sub_part": other.ID,
		"quantity": 1,
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for non-assembly parent, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBOMSubstituteStock(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	assembly, _, comp := seedAssembly(t, env)
	alt := testutil.SeedPart(t, env.DB, "CMP-ALT-01", "螺丝 M3 备选")
	loc := testutil.SeedLocation(t, env.DB, "替代料区", false)

	w := testutil.DoRequest(env.Router, "POST", "/api/bom/", map[string]interface{}{
		"part":     assembly.ID,
		"sub_part": comp.ID,
		"quantity": 1,
	}, token)
	itemID := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	// 同零件替代料被拒
	w2 := testutil.DoRequest(env.Router, "POST", "/api/bom/substitute/", map[string]interface{}{
		"bom_item": itemID,
		"part":     comp.ID,
	}, token)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for same-part substitute, got %d: %s", w2.Code, w2.Body.String())
	}

	// 合法替代料
	w3 := testutil.DoRequest(env.Router, "POST", "/api/bom/substitute/", map[string]interface{}{
		"bom_item": itemID,
		"part":     alt.ID,
	}, token)
	if w3.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w3.Code, w3.Body.String())
	}

	// 替代料库存计入可用量
	testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
		"part": alt.ID, "location": loc.ID, "quantity": 40,
	}, token)

	w4 := testutil.DoRequest(env.Router, "GET", "/api/bom/tree/"+assembly.ID+"/", nil, token)
	rows := dataOf(t, testutil.ParseResponse(w4))["rows"].([]interface{})
	row := rows[0].(map[string]interface{})
	if subStock := row["substitute_stock"].(float64); subStock != 40 {
		t.Errorf("Expected substitute stock 40, got %v", subStock)
	}
	if avail := row["total_available_stock"].(float64); avail != 40 {
		t.Errorf("Expected total available 40, got %v", avail)
	}
}

func TestBOMValidate(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	assembly, _, comp := seedAssembly(t, env)

	w := testutil.DoRequest(env.Router, "POST", "/api/bom/", map[string]interface{}{
		"part":     assembly.ID,
		"sub_part": comp.ID,
		"quantity": 3,
	}, token)
	itemID := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	w2 := testutil.DoRequest(env.Router, "POST", "/api/bom/"+itemID+"/validate/", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	if validated := dataOf(t, testutil.ParseResponse(w2))["validated"]; validated != true {
		t.Errorf("Expected validated true, got %v", validated)
	}

	// 行变更后校验标记复位
	w3 := testutil.DoRequest(env.Router, "PATCH", "/api/bom/"+itemID+"/", map[string]interface{}{
		"quantity": 5,
	}, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	if validated := dataOf(t, testutil.ParseResponse(w3))["validated"]; validated != false {
		t.Errorf("Expected validated false after update, got %v", validated)
	}
}

func TestBOMVariantOverridesInheritedLine(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()

	template := testutil.SeedPart(t, env.DB, "TPL-0001", "模板总成", func(p *entity.Part) {
		p.Assembly = true
	})
	variant := testutil.SeedPart(t, env.DB, "VAR-0001", "变体总成", func(p *entity.Part) {
		p.Assembly = true
		p.VariantOfID = &template.ID
	})
	screw := testutil.SeedPart(t, env.DB, "CMP-1001", "螺丝 M3")
	shell := testutil.SeedPart(t, env.DB, "CMP-1002", "外壳")

	mkLine := func(partID, subPartID string, qty float64, inherited bool) {
		w := testutil.DoRequest(env.Router, "POST", "/api/bom/", map[string]interface{}{
			"part":      partID,
			"sub_part":  subPartID,
			"quantity":  qty,
			"inherited": inherited,
		}, token)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
	}

	// 模板：螺丝x2、外壳x1，均为 inherited
	mkLine(template.ID, screw.ID, 2, true)
	mkLine(template.ID, shell.ID, 1, true)
	// 变体重定义螺丝数量
	mkLine(variant.ID, screw.ID, 5, false)

	w := testutil.DoRequest(env.Router, "GET", "/api/bom/tree/"+variant.ID+"/", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	rows := dataOf(t, testutil.ParseResponse(w))["rows"].([]interface{})
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows (own + inherited), got %d", len(rows))
	}
	qtyBySubPart := map[string]float64{}
	for _, r := range rows {
		row := r.(map[string]interface{})
		qtyBySubPart[row["sub_part"].(string)] = row["quantity"].(float64)
	}
	if qtyBySubPart[screw.ID] != 5 {
		t.Errorf("Expected variant row quantity 5 for redefined sub part, got %v", qtyBySubPart[screw.ID])
	}
	if qtyBySubPart[shell.ID] != 1 {
		t.Errorf("Expected inherited row quantity 1, got %v", qtyBySubPart[shell.ID])
	}
}
