package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-ims/internal/ims/testutil"
)

func TestPartSearchByIPN(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedPart(t, env.DB, "PCB-1001", "主板")
	testutil.SeedPart(t, env.DB, "PCB-1002", "底板")
	testutil.SeedPart(t, env.DB, "CON-2001", "排针连接器")

	w := testutil.DoRequest(env.Router, "GET", "/api/part/?search=PCB-1001", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	items := dataOf(t, testutil.ParseResponse(w))["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 part for IPN search, got %d", len(items))
	}
	if got := items[0].(map[string]interface{})["ipn"]; got != "PCB-1001" {
		t.Errorf("Expected ipn PCB-1001, got %v", got)
	}

	// 前缀命中多个
	w2 := testutil.DoRequest(env.Router, "GET", "/api/part/?search=PCB", nil, token)
	items2 := dataOf(t, testutil.ParseResponse(w2))["items"].([]interface{})
	if len(items2) != 2 {
		t.Errorf("Expected 2 parts for prefix search, got %d", len(items2))
	}
}
