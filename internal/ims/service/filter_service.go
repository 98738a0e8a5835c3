package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/bitfantasy/nimo-ims/internal/ims/tablefilter"
	"go.uber.org/zap"
)

// FilterService 表筛选器服务：把仓库数据适配成筛选器动态选项
type FilterService struct {
	registry *tablefilter.Registry
	repos    *repository.Repositories
}

// NewFilterService 创建筛选器服务
func NewFilterService(logger *zap.Logger, flags tablefilter.Flags, repos *repository.Repositories) *FilterService {
	s := &FilterService{repos: repos}
	s.registry = tablefilter.NewRegistry(logger, flags, s)
	return s
}

// Filters 返回指定表的筛选器集合
func (s *FilterService) Filters(ctx context.Context, table tablefilter.Table) map[string]tablefilter.Descriptor {
	return s.registry.Filters(ctx, table)
}

// Tables 全部已注册表名
func (s *FilterService) Tables() []tablefilter.Table {
	return s.registry.Tables()
}

// Owners 责任人选项
func (s *FilterService) Owners(ctx context.Context) ([]tablefilter.Choice, error) {
	owners, err := s.repos.Owner.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load owner choices: %w", err)
	}
	choices := make([]tablefilter.Choice, 0, len(owners))
	for _, o := range owners {
		choices = append(choices, tablefilter.Choice{Value: o.ID, Label: o.Name})
	}
	return choices, nil
}

// ProjectCodes 项目编码选项
func (s *FilterService) ProjectCodes(ctx context.Context) ([]tablefilter.Choice, error) {
	codes, err := s.repos.ProjectCode.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load project code choices: %w", err)
	}
	choices := make([]tablefilter.Choice, 0, len(codes))
	for _, c := range codes {
		choices = append(choices, tablefilter.Choice{Value: c.ID, Label: c.Code})
	}
	return choices, nil
}

// LocationTypes 库位类型选项
func (s *FilterService) LocationTypes(ctx context.Context) ([]tablefilter.Choice, error) {
	types, err := s.repos.Stock.ListLocationTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load location type choices: %w", err)
	}
	choices := make([]tablefilter.Choice, 0, len(types))
	for _, t := range types {
		choices = append(choices, tablefilter.Choice{Value: t.ID, Label: t.Name})
	}
	return choices, nil
}
