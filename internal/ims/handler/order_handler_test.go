package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/testutil"
)

func TestSalesOrderAllocationAndShipment(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	customer := testutil.SeedCompany(t, env.DB, "深圳客户A", true, false)
	part := testutil.SeedPart(t, env.DB, "PRD-0001", "成品机", func(p *entity.Part) {
		p.Salable = true
	})
	loc := testutil.SeedLocation(t, env.DB, "成品库", false)

	// 备库存
	w := testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
		"part": part.ID, "location": loc.ID, "quantity": 50,
	}, token)
	stockID := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	// 建单
	w2 := testutil.DoRequest(env.Router, "POST", "/api/order/so/", map[string]interface{}{
		"reference": "SO-0001",
		"customer":  customer.ID,
	}, token)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w2.Code, w2.Body.String())
	}
	soID := dataOf(t, testutil.ParseResponse(w2))["id"].(string)

	// 加行
	w3 := testutil.DoRequest(env.Router, "POST", "/api/order/so-line/", map[string]interface{}{
		"order":    soID,
		"part":     part.ID,
		"quantity": 10,
	}, token)
	if w3.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w3.Code, w3.Body.String())
	}
	lineID := dataOf(t, testutil.ParseResponse(w3))["id"].(string)

	// 分配表单行：预填 min(可用, 未分配)
	w4 := testutil.DoRequest(env.Router, "GET", "/api/order/so/"+soID+"/allocate/", nil, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	formRows := dataOf(t, testutil.ParseResponse(w4))["rows"].([]interface{})
	if len(formRows) != 1 {
		t.Fatalf("Expected 1 allocation row, got %d", len(formRows))
	}
	formRow := formRows[0].(map[string]interface{})
	if fill := formRow["fill_quantity"].(float64); fill != 10 {
		t.Errorf("Expected prefill 10 (remaining < available), got %v", fill)
	}

	// 建发运单
	w5 := testutil.DoRequest(env.Router, "POST", "/api/order/so/shipment/", map[string]interface{}{
		"order": soID,
	}, token)
	if w5.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w5.Code, w5.Body.String())
	}
	shipmentID := dataOf(t, testutil.ParseResponse(w5))["id"].(string)

	// 超量分配整批被拒，错误按字段路径返回
	w6 := testutil.DoRequest(env.Router, "POST", "/api/order/so-allocation/", map[string]interface{}{
		"shipment": shipmentID,
		"items": []map[string]interface{}{
			{"line": lineID, "item": stockID, "quantity": 999},
		},
	}, token)
	if w6.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for over-allocation, got %d: %s", w6.Code, w6.Body.String())
	}
	fields := dataOf(t, testutil.ParseResponse(w6))
	if _, ok := fields["items.0.quantity"]; !ok {
		t.Errorf("Expected field-keyed error items.0.quantity, got %v", fields)
	}

	// 正常分配
	w7 := testutil.DoRequest(env.Router, "POST", "/api/order/so-allocation/", map[string]interface{}{
		"shipment": shipmentID,
		"items": []map[string]interface{}{
			{"line": lineID, "item": stockID, "quantity": 10},
		},
	}, token)
	if w7.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w7.Code, w7.Body.String())
	}

	// 分配后库存项 allocated 增加
	w8 := testutil.DoRequest(env.Router, "GET", "/api/stock/"+stockID+"/", nil, token)
	if alloc := dataOf(t, testutil.ParseResponse(w8))["allocated"].(float64); alloc != 10 {
		t.Errorf("Expected allocated 10, got %v", alloc)
	}

	// 完成发运
	w9 := testutil.DoRequest(env.Router, "POST", "/api/order/so/shipment/"+shipmentID+"/ship/", map[string]interface{}{
		"tracking_number": "SF123456",
	}, token)
	if w9.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w9.Code, w9.Body.String())
	}

	// 库存扣减、分配释放、归属客户
	w10 := testutil.DoRequest(env.Router, "GET", "/api/stock/"+stockID+"/", nil, token)
	item := dataOf(t, testutil.ParseResponse(w10))
	if qty := item["quantity"].(float64); qty != 40 {
		t.Errorf("Expected quantity 40 after shipment, got %v", qty)
	}
	if alloc := item["allocated"].(float64); alloc != 0 {
		t.Errorf("Expected allocated 0 after shipment, got %v", alloc)
	}
	if item["customer"] != customer.ID {
		t.Errorf("Expected stock assigned to customer, got %v", item["customer"])
	}

	// 行发完，订单进入已发运
	w11 := testutil.DoRequest(env.Router, "GET", "/api/order/so/"+soID+"/", nil, token)
	if status := dataOf(t, testutil.ParseResponse(w11))["status"].(float64); status != 20 {
		t.Errorf("Expected order status 20 (shipped), got %v", status)
	}

	// 重复完成发运被拒
	w12 := testutil.DoRequest(env.Router, "POST", "/api/order/so/shipment/"+shipmentID+"/ship/", map[string]interface{}{}, token)
	if w12.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for re-shipping, got %d: %s", w12.Code, w12.Body.String())
	}
}

func TestSalesOrderCustomerValidation(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	supplier := testutil.SeedCompany(t, env.DB, "供应商B", false, true)

	w := testutil.DoRequest(env.Router, "POST", "/api/order/so/", map[string]interface{}{
		"reference": "SO-0002",
		"customer":  supplier.ID,
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for non-customer company, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPurchaseOrderReceive(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	supplier := testutil.SeedCompany(t, env.DB, "供应商C", false, true)
	part := testutil.SeedPart(t, env.DB, "RAW-0001", "原材料")
	loc := testutil.SeedLocation(t, env.DB, "来料区", false)

	w := testutil.DoRequest(env.Router, "POST", "/api/order/po/", map[string]interface{}{
		"reference": "PO-0001",
		"supplier":  supplier.ID,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	poID := dataOf(t, testutil.ParseResponse(w))["id"].(string)

	w2 := testutil.DoRequest(env.Router, "POST", "/api/order/po-line/", map[string]interface{}{
		"order":          poID,
		"part":           part.ID,
		"quantity":       100,
		"purchase_price": 2.5,
	}, token)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w2.Code, w2.Body.String())
	}
	lineID := dataOf(t, testutil.ParseResponse(w2))["id"].(string)

	// 下单
	w3 := testutil.DoRequest(env.Router, "POST", "/api/order/po/"+poID+"/issue/", nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w3.Code, w3.Body.String())
	}

	// 超量收货被拒
	w4 := testutil.DoRequest(env.Router, "POST", "/api/order/po-line/"+lineID+"/receive/", map[string]interface{}{
		"quantity": 150,
		"location": loc.ID,
	}, token)
	if w4.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for over-receipt, got %d: %s", w4.Code, w4.Body.String())
	}

	// 收货生成库存项并带入采购价
	w5 := testutil.DoRequest(env.Router, "POST", "/api/order/po-line/"+lineID+"/receive/", map[string]interface{}{
		"quantity": 100,
		"location": loc.ID,
	}, token)
	if w5.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w5.Code, w5.Body.String())
	}
	item := dataOf(t, testutil.ParseResponse(w5))
	if price := item["purchase_price"].(float64); price != 2.5 {
		t.Errorf("Expected purchase price 2.5, got %v", price)
	}

	// 全部收货后订单完成
	w6 := testutil.DoRequest(env.Router, "GET", "/api/order/po/"+poID+"/", nil, token)
	if status := dataOf(t, testutil.ParseResponse(w6))["status"].(float64); status != 30 {
		t.Errorf("Expected order status 30 (complete), got %v", status)
	}
}

func TestReturnOrderReceive(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	customer := testutil.SeedCompany(t, env.DB, "客户D", true, false)
	part := testutil.SeedPart(t, env.DB, "PRD-0002", "返修机", func(p *entity.Part) {
		p.Salable = true
	})
	loc := testutil.SeedLocation(t, env.DB, "退货区", false)
	srcLoc := testutil.SeedLocation(t, env.DB, "出货区", false)

	// 客户侧库存项
	w := testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
		"part": part.ID, "location": srcLoc.ID, "quantity": 1,
	}, token)
	stockID := dataOf(t, testutil.ParseResponse(w))["id"].(string)
	testutil.DoRequest(env.Router, "POST", "/api/stock/assign/", map[string]interface{}{
		"item": stockID, "customer": customer.ID,
	}, token)

	w2 := testutil.DoRequest(env.Router, "POST", "/api/order/ro/", map[string]interface{}{
		"reference": "RO-0001",
		"customer":  customer.ID,
	}, token)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w2.Code, w2.Body.String())
	}
	roID := dataOf(t, testutil.ParseResponse(w2))["id"].(string)

	w3 := testutil.DoRequest(env.Router, "POST", "/api/order/ro-line/", map[string]interface{}{
		"order": roID,
		"item":  stockID,
	}, token)
	if w3.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w3.Code, w3.Body.String())
	}
	lineID := dataOf(t, testutil.ParseResponse(w3))["id"].(string)

	// 收货：库存项回到库内并进入隔离状态
	w4 := testutil.DoRequest(env.Router, "POST", "/api/order/ro-line/"+lineID+"/receive/", map[string]interface{}{
		"location": loc.ID,
	}, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w4.Code, w4.Body.String())
	}

	w5 := testutil.DoRequest(env.Router, "GET", "/api/stock/"+stockID+"/", nil, token)
	item := dataOf(t, testutil.ParseResponse(w5))
	if item["customer"] != nil {
		t.Errorf("Expected customer cleared after return, got %v", item["customer"])
	}
	if item["location"] != loc.ID {
		t.Errorf("Expected location %s, got %v", loc.ID, item["location"])
	}
	if status := item["status"].(float64); status != 75 {
		t.Errorf("Expected stock status 75 (quarantined), got %v", status)
	}

	// 处置结论
	w6 := testutil.DoRequest(env.Router, "POST", "/api/order/ro-line/"+lineID+"/outcome/", map[string]interface{}{
		"outcome": 30,
	}, token)
	if w6.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w6.Code, w6.Body.String())
	}
}
