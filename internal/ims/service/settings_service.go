package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/config"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 实例配置键
const (
	SettingProjectCodes = "project_codes_enabled"
	SettingStockExpiry  = "stock_expiry_enabled"
)

const settingCacheTTL = 5 * time.Minute

// SettingsService 实例配置服务，读多写少，经 Redis 缓存
type SettingsService struct {
	repo     *repository.SettingRepository
	rdb      *redis.Client
	logger   *zap.Logger
	defaults config.FeatureConfig
}

// NewSettingsService 创建实例配置服务
func NewSettingsService(repo *repository.SettingRepository, rdb *redis.Client, logger *zap.Logger, defaults config.FeatureConfig) *SettingsService {
	return &SettingsService{
		repo:     repo,
		rdb:      rdb,
		logger:   logger,
		defaults: defaults,
	}
}

func cacheKey(key string) string {
	return "ims:setting:" + key
}

// Get 读取配置项。缓存未命中时回源数据库；数据库无值返回空串。
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey(key)).Result(); err == nil {
			return cached, nil
		}
	}

	value, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, cacheKey(key), value, settingCacheTTL).Err(); err != nil {
			s.logger.Warn("Setting cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}

// Set 写入配置项并失效缓存
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if err := s.repo.Set(ctx, key, value); err != nil {
		return err
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, cacheKey(key)).Err(); err != nil {
			s.logger.Warn("Setting cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// All 读取全部配置项
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	return s.repo.All(ctx)
}

// getBool 读取布尔配置项，未设置或读取失败时取默认值
func (s *SettingsService) getBool(ctx context.Context, key string, fallback bool) bool {
	value, err := s.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Setting read failed, using default",
			zap.String("key", key), zap.Bool("default", fallback), zap.Error(err))
		return fallback
	}
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// ProjectCodesEnabled 项目编码功能是否启用
func (s *SettingsService) ProjectCodesEnabled(ctx context.Context) bool {
	return s.getBool(ctx, SettingProjectCodes, s.defaults.ProjectCodesEnabled)
}

// StockExpiryEnabled 库存过期功能是否启用
func (s *SettingsService) StockExpiryEnabled(ctx context.Context) bool {
	return s.getBool(ctx, SettingStockExpiry, s.defaults.StockExpiryEnabled)
}
