package handler

import (
	"testing"

	"github.com/bitfantasy/nimo-ims/internal/config"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/bitfantasy/nimo-ims/internal/ims/testutil"
	"go.uber.org/zap"
)

func setupIMSTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	cfg := &config.Config{
		Features: config.FeatureConfig{
			ProjectCodesEnabled: true,
			StockExpiryEnabled:  true,
		},
	}

	repos := repository.NewRepositories(db)
	svc := service.NewServices(repos, nil, zap.NewNop(), cfg)
	h := NewHandlers(svc, zap.NewNop())

	api := testutil.AuthGroup(router, "/api")

	part := api.Group("/part")
	part.POST("/", h.Part.Create)
	part.GET("/", h.Part.List)
	part.GET("/:id/", h.Part.Get)
	part.PATCH("/:id/", h.Part.Update)
	part.DELETE("/:id/", h.Part.Delete)
	part.GET("/:id/variants/", h.Part.Variants)
	part.GET("/:id/used-in/", h.Part.UsedIn)
	part.POST("/:id/bom-validate/", h.BOM.ValidateAll)
	part.POST("/category/", h.Part.CreateCategory)
	part.GET("/category/", h.Part.ListCategories)

	stock := api.Group("/stock")
	stock.POST("/", h.Stock.Create)
	stock.GET("/", h.Stock.List)
	stock.DELETE("/", h.Stock.DeleteMany)
	stock.GET("/:id/", h.Stock.Get)
	stock.DELETE("/:id/", h.Stock.Delete)
	stock.GET("/:id/tracking/", h.Stock.Tracking)
	stock.POST("/add/", h.Stock.Add)
	stock.POST("/remove/", h.Stock.Remove)
	stock.POST("/count/", h.Stock.Count)
	stock.POST("/transfer/", h.Stock.Transfer)
	stock.POST("/assign/", h.Stock.Assign)
	stock.POST("/merge/", h.Stock.Merge)
	stock.POST("/location/", h.Stock.CreateLocation)
	stock.GET("/location/", h.Stock.ListLocations)
	stock.GET("/location/:id/", h.Stock.GetLocation)
	stock.GET("/location-type/", h.Stock.ListLocationTypes)

	bom := api.Group("/bom")
	bom.POST("/", h.BOM.Create)
	bom.GET("/", h.BOM.List)
	bom.DELETE("/", h.BOM.DeleteMany)
	bom.GET("/:id/", h.BOM.Get)
	bom.PATCH("/:id/", h.BOM.Update)
	bom.DELETE("/:id/", h.BOM.Delete)
	bom.POST("/:id/validate/", h.BOM.Validate)
	bom.GET("/:id/substitutes/", h.BOM.ListSubstitutes)
	bom.POST("/substitute/", h.BOM.AddSubstitute)
	bom.DELETE("/substitute/:id/", h.BOM.RemoveSubstitute)
	bom.GET("/tree/:partId/", h.BOM.Tree)
	bom.GET("/tree/expand/:itemId/", h.BOM.ExpandTree)

	order := api.Group("/order")
	order.POST("/so/", h.Sales.Create)
	order.GET("/so/", h.Sales.List)
	order.GET("/so/:id/", h.Sales.Get)
	order.PATCH("/so/:id/", h.Sales.Update)
	order.DELETE("/so/:id/", h.Sales.Delete)
	order.POST("/so/:id/status/", h.Sales.SetStatus)
	order.GET("/so/:id/lines/", h.Sales.ListLines)
	order.GET("/so/:id/shipments/", h.Sales.ListShipments)
	order.GET("/so/:id/allocate/", h.Sales.AllocationRows)
	order.POST("/so/shipment/", h.Sales.CreateShipment)
	order.POST("/so/shipment/:id/ship/", h.Sales.CompleteShipment)
	order.POST("/so-line/", h.Sales.AddLine)
	order.PATCH("/so-line/:id/", h.Sales.UpdateLine)
	order.DELETE("/so-line/:id/", h.Sales.DeleteLine)
	order.GET("/so-line/:id/allocations/", h.Sales.ListAllocations)
	order.POST("/so-allocation/", h.Sales.Allocate)
	order.DELETE("/so-allocation/:id/", h.Sales.DeleteAllocation)
	order.POST("/po/", h.Purchase.Create)
	order.GET("/po/", h.Purchase.List)
	order.GET("/po/:id/", h.Purchase.Get)
	order.POST("/po/:id/issue/", h.Purchase.Issue)
	order.POST("/po/:id/status/", h.Purchase.SetStatus)
	order.POST("/po-line/", h.Purchase.AddLine)
	order.POST("/po-line/:id/receive/", h.Purchase.ReceiveLine)
	order.POST("/ro/", h.Return.Create)
	order.GET("/ro/", h.Return.List)
	order.GET("/ro/:id/", h.Return.Get)
	order.POST("/ro/:id/status/", h.Return.SetStatus)
	order.POST("/ro-line/", h.Return.AddLine)
	order.POST("/ro-line/:id/receive/", h.Return.ReceiveLine)
	order.POST("/ro-line/:id/outcome/", h.Return.SetLineOutcome)

	company := api.Group("/company")
	company.POST("/", h.Company.Create)
	company.GET("/", h.Company.List)
	company.GET("/:id/", h.Company.Get)
	company.PATCH("/:id/", h.Company.Update)
	company.DELETE("/:id/", h.Company.Delete)
	api.GET("/user/owner/", h.Company.ListOwners)
	api.POST("/user/owner/", h.Company.CreateOwner)
	api.GET("/project-code/", h.Company.ListProjectCodes)
	api.POST("/project-code/", h.Company.CreateProjectCode)
	api.GET("/settings/", h.Company.ListSettings)
	api.GET("/settings/:key/", h.Company.GetSetting)
	api.PUT("/settings/:key/", h.Company.SetSetting)

	ui := api.Group("/ui")
	ui.GET("/table-filters/", h.UI.Tables)
	ui.GET("/table-filters/:table/", h.UI.TableFilters)
	ui.GET("/status/:table/", h.UI.StatusChoices)
	ui.GET("/status/:table/render/", h.UI.RenderStatus)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func dataOf(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object in response, got %v", resp)
	}
	return data
}
