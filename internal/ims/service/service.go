package service

import (
	"context"

	"github.com/bitfantasy/nimo-ims/internal/config"
	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Settings    *SettingsService
	Filter      *FilterService
	Part        *PartService
	Stock       *StockService
	BOM         *BOMService
	Sales       *SalesService
	Purchase    *PurchaseService
	Return      *ReturnService
	Company     *CompanyService
	Owner       *OwnerService
	ProjectCode *ProjectCodeService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, logger *zap.Logger, cfg *config.Config) *Services {
	// 初始化MinIO客户端，失败时禁用导出文件存储
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO client init failed, export storage disabled", zap.Error(err))
			minioClient = nil
		}
	}

	settingsSvc := NewSettingsService(repos.Setting, rdb, logger, cfg.Features)
	stockSvc := NewStockService(repos.Stock, repos.Part, logger)

	return &Services{
		Settings:    settingsSvc,
		Filter:      NewFilterService(logger, settingsSvc, repos),
		Part:        NewPartService(repos.Part, repos.BOM),
		Stock:       stockSvc,
		BOM:         NewBOMService(repos.BOM, repos.Part, repos.Stock, minioClient, cfg.MinIO.Bucket, logger),
		Sales:       NewSalesService(repos.Order, repos.Stock, repos.Part, repos.Company, logger),
		Purchase:    NewPurchaseService(repos.Order, repos.Stock, repos.Part, repos.Company),
		Return:      NewReturnService(repos.Order, repos.Stock, repos.Company),
		Company:     NewCompanyService(repos.Company),
		Owner:       NewOwnerService(repos.Owner),
		ProjectCode: NewProjectCodeService(repos.ProjectCode),
	}
}

// CompanyService 往来单位服务
type CompanyService struct {
	repo *repository.CompanyRepository
}

// NewCompanyService 创建往来单位服务
func NewCompanyService(repo *repository.CompanyRepository) *CompanyService {
	return &CompanyService{repo: repo}
}

// CreateCompanyRequest 创建往来单位请求
type CreateCompanyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Website     string `json:"website"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Currency    string `json:"currency"`
	IsCustomer  bool   `json:"is_customer"`
	IsSupplier  bool   `json:"is_supplier"`
}

// Create 创建往来单位
func (s *CompanyService) Create(ctx context.Context, userID string, req *CreateCompanyRequest) (*entity.Company, error) {
	currency := req.Currency
	if currency == "" {
		currency = "CNY"
	}
	company := &entity.Company{
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Currency:    currency,
		IsCustomer:  req.IsCustomer,
		IsSupplier:  req.IsSupplier,
		Active:      true,
		CreatedBy:   userID,
	}
	if err := s.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// Get 获取往来单位详情
func (s *CompanyService) Get(ctx context.Context, id string) (*entity.Company, error) {
	return s.repo.FindByID(ctx, id)
}

// List 获取往来单位列表
func (s *CompanyService) List(ctx context.Context, params repository.CompanyListParams) ([]entity.Company, int64, error) {
	return s.repo.List(ctx, params)
}

// UpdateCompanyRequest 更新往来单位请求
type UpdateCompanyRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Website     *string `json:"website"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	Currency    *string `json:"currency"`
	IsCustomer  *bool   `json:"is_customer"`
	IsSupplier  *bool   `json:"is_supplier"`
	Active      *bool   `json:"active"`
}

// Update 更新往来单位
func (s *CompanyService) Update(ctx context.Context, id string, req *UpdateCompanyRequest) (*entity.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.Description != nil {
		company.Description = *req.Description
	}
	if req.Website != nil {
		company.Website = *req.Website
	}
	if req.Email != nil {
		company.Email = *req.Email
	}
	if req.Phone != nil {
		company.Phone = *req.Phone
	}
	if req.Address != nil {
		company.Address = *req.Address
	}
	if req.Currency != nil {
		company.Currency = *req.Currency
	}
	if req.IsCustomer != nil {
		company.IsCustomer = *req.IsCustomer
	}
	if req.IsSupplier != nil {
		company.IsSupplier = *req.IsSupplier
	}
	if req.Active != nil {
		company.Active = *req.Active
	}
	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// Delete 删除往来单位
func (s *CompanyService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// OwnerService 责任人服务
type OwnerService struct {
	repo *repository.OwnerRepository
}

// NewOwnerService 创建责任人服务
func NewOwnerService(repo *repository.OwnerRepository) *OwnerService {
	return &OwnerService{repo: repo}
}

// ListAll 列出全部责任人
func (s *OwnerService) ListAll(ctx context.Context) ([]entity.Owner, error) {
	return s.repo.ListAll(ctx)
}

// Create 创建责任人
func (s *OwnerService) Create(ctx context.Context, kind, name string) (*entity.Owner, error) {
	if kind == "" {
		kind = entity.OwnerKindUser
	}
	owner := &entity.Owner{Kind: kind, Name: name}
	if err := s.repo.Create(ctx, owner); err != nil {
		return nil, err
	}
	return owner, nil
}

// ProjectCodeService 项目编码服务
type ProjectCodeService struct {
	repo *repository.ProjectCodeRepository
}

// NewProjectCodeService 创建项目编码服务
func NewProjectCodeService(repo *repository.ProjectCodeRepository) *ProjectCodeService {
	return &ProjectCodeService{repo: repo}
}

// ListAll 列出全部项目编码
func (s *ProjectCodeService) ListAll(ctx context.Context) ([]entity.ProjectCode, error) {
	return s.repo.ListAll(ctx)
}

// Create 创建项目编码
func (s *ProjectCodeService) Create(ctx context.Context, code, description string) (*entity.ProjectCode, error) {
	pc := &entity.ProjectCode{Code: code, Description: description}
	if err := s.repo.Create(ctx, pc); err != nil {
		return nil, err
	}
	return pc, nil
}

// nullable 空字符串转为空指针，用于可选的uuid外键字段
func nullable(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
