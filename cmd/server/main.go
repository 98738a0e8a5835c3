package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/nimo-ims/internal/config"
	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/handler"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/bitfantasy/nimo-ims/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting nimo-ims service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.PartCategory{},
		&entity.Part{},
		&entity.LocationType{},
		&entity.StockLocation{},
		&entity.StockItem{},
		&entity.StockTracking{},
		&entity.BOMItem{},
		&entity.BOMSubstitute{},
		&entity.Company{},
		&entity.Owner{},
		&entity.ProjectCode{},
		&entity.InstanceSetting{},
		&entity.SalesOrder{},
		&entity.SOLineItem{},
		&entity.Shipment{},
		&entity.SOAllocation{},
		&entity.PurchaseOrder{},
		&entity.POLineItem{},
		&entity.ReturnOrder{},
		&entity.ReturnOrderLineItem{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// Seed: 默认库位类型
	typeSeeds := []struct{ Name, Icon string }{
		{"仓库", "fa-building"},
		{"货架", "fa-boxes"},
		{"抽屉", "fa-inbox"},
		{"产线", "fa-industry"},
	}
	for _, ts := range typeSeeds {
		db.Exec(`INSERT INTO ims_location_types (id, name, icon, created_at, updated_at)
			VALUES (gen_random_uuid(), ?, ?, NOW(), NOW())
			ON CONFLICT (name) DO NOTHING`, ts.Name, ts.Icon)
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, zapLogger, cfg)
	handlers := handler.NewHandlers(services, zapLogger)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	metrics := middleware.NewHTTPMetrics("nimo-ims")
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(metrics.Middleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, metrics, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, metrics *middleware.HTTPMetrics, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// Prometheus指标
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api", middleware.JWTAuth(cfg.JWT.Secret))

	// 零件
	part := api.Group("/part")
	{
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
	}

	// 库存
	stock := api.Group("/stock")
	{
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
	}

	// BOM
	bom := api.Group("/bom")
	{
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
		bom.POST("/import/submit/", h.BOM.Import)
		bom.GET("/export/:partId/", h.BOM.Export)
	}

	// 订单
	order := api.Group("/order")
	{
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
	}

	// 往来单位与基础数据
	company := api.Group("/company")
	{
		company.POST("/", h.Company.Create)
		company.GET("/", h.Company.List)
		company.GET("/:id/", h.Company.Get)
		company.PATCH("/:id/", h.Company.Update)
		company.DELETE("/:id/", h.Company.Delete)
	}
	api.GET("/user/owner/", h.Company.ListOwners)
	api.POST("/user/owner/", h.Company.CreateOwner)
	api.GET("/project-code/", h.Company.ListProjectCodes)
	api.POST("/project-code/", h.Company.CreateProjectCode)

	// 实例设置（仅管理员可写）
	api.GET("/settings/", h.Company.ListSettings)
	api.GET("/settings/:key/", h.Company.GetSetting)
	api.PUT("/settings/:key/", middleware.RequireRole("ims_admin"), h.Company.SetSetting)

	// 界面元数据
	ui := api.Group("/ui")
	{
		ui.GET("/table-filters/", h.UI.Tables)
		ui.GET("/table-filters/:table/", h.UI.TableFilters)
		ui.GET("/status/:table/", h.UI.StatusChoices)
		ui.GET("/status/:table/render/", h.UI.RenderStatus)
	}
}
