package status

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.ErrorLevel)
	return zap.New(core), logs
}

func TestRenderKnownCodes(t *testing.T) {
	logger, logs := observedLogger()

	tables := []Table{
		StockCodes,
		StockHistoryCodes,
		BuildCodes,
		PurchaseOrderCodes,
		SalesOrderCodes,
		ReturnOrderCodes,
		ReturnOrderLineCodes,
	}

	for _, table := range tables {
		for _, key := range table.Keys() {
			code, _ := table.Lookup(key)
			out := Render(logger, table, key)

			if n := strings.Count(out, ">"+code.Label+"<"); n != 1 {
				t.Errorf("table %s key %d: label %q appears %d times in %q", table.Name(), key, code.Label, n, out)
			}
			if n := strings.Count(out, "bg-"+string(code.Color)); n != 1 {
				t.Errorf("table %s key %d: color %q appears %d times in %q", table.Name(), key, code.Color, n, out)
			}
		}
	}

	if logs.Len() != 0 {
		t.Errorf("expected no error logs for known codes, got %d", logs.Len())
	}
}

func TestRenderUnknownCodeDegrades(t *testing.T) {
	logger, logs := observedLogger()

	out := Render(logger, StockCodes, 999)

	if !strings.Contains(out, ">999<") {
		t.Errorf("expected raw key in output, got %q", out)
	}
	if !strings.Contains(out, "bg-dark") {
		t.Errorf("expected dark color for unknown key, got %q", out)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected exactly one error log, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "Unknown status code" {
		t.Errorf("unexpected log message: %q", entry.Message)
	}
}

func TestRenderScenario(t *testing.T) {
	logger, logs := observedLogger()

	table := NewTable("scenario",
		Code{10, "OK", ColorSuccess},
		Code{50, "ATTENTION", ColorWarning},
	)

	ok := Render(logger, table, 10)
	if !strings.Contains(ok, ">OK<") || !strings.Contains(ok, "bg-success") {
		t.Errorf("key 10: expected OK/success badge, got %q", ok)
	}
	if logs.Len() != 0 {
		t.Fatalf("no error log expected for known key, got %d", logs.Len())
	}

	missing := Render(logger, table, 999)
	if !strings.Contains(missing, ">999<") || !strings.Contains(missing, "bg-dark") {
		t.Errorf("key 999: expected raw/dark badge, got %q", missing)
	}
	if logs.Len() != 1 {
		t.Errorf("expected one error log for unknown key, got %d", logs.Len())
	}
}

func TestRenderEscapesLabel(t *testing.T) {
	logger, _ := observedLogger()

	table := NewTable("escape", Code{1, "<script>", ColorInfo})
	out := Render(logger, table, 1)
	if strings.Contains(out, "<script>") {
		t.Errorf("label not escaped: %q", out)
	}
}

func TestChoices(t *testing.T) {
	choices := SalesOrderCodes.Choices()
	if len(choices) != len(SalesOrderCodes.Keys()) {
		t.Fatalf("expected %d choices, got %d", len(SalesOrderCodes.Keys()), len(choices))
	}
	if choices[0]["value"] != SalesOrderPending {
		t.Errorf("expected first choice value %d, got %v", SalesOrderPending, choices[0]["value"])
	}
	if choices[0]["display_name"] != "Pending" {
		t.Errorf("expected first choice display_name Pending, got %v", choices[0]["display_name"])
	}
}
