package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-ims/internal/ims/bomtree"
	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/repository"
	"github.com/minio/minio-go/v7"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var (
	// ErrNotAssembly BOM只能挂在装配件下
	ErrNotAssembly = errors.New("part is not an assembly")
	// ErrNotComponent 子件必须是可用作组件的零件
	ErrNotComponent = errors.New("sub part is not a component")
	// ErrSelfReference 装配件不能包含自身
	ErrSelfReference = errors.New("part cannot be its own sub part")
	// ErrSubstituteSamePart 替代料不能与子件相同
	ErrSubstituteSamePart = errors.New("substitute must differ from the sub part")
	// ErrExportUnavailable 对象存储未配置时不能导出
	ErrExportUnavailable = errors.New("export storage is not configured")
)

// BOMService BOM服务
type BOMService struct {
	repo      *repository.BOMRepository
	partRepo  *repository.PartRepository
	stockRepo *repository.StockRepository
	minio     *minio.Client
	bucket    string
	logger    *zap.Logger
}

// NewBOMService 创建BOM服务
func NewBOMService(repo *repository.BOMRepository, partRepo *repository.PartRepository, stockRepo *repository.StockRepository, minioClient *minio.Client, bucket string, logger *zap.Logger) *BOMService {
	return &BOMService{
		repo:      repo,
		partRepo:  partRepo,
		stockRepo: stockRepo,
		minio:     minioClient,
		bucket:    bucket,
		logger:    logger,
	}
}

// CreateBOMItemRequest 创建BOM行请求
type CreateBOMItemRequest struct {
	PartID        string  `json:"part" binding:"required"`
	SubPartID     string  `json:"sub_part" binding:"required"`
	Quantity      float64 `json:"quantity" binding:"required"`
	Reference     string  `json:"reference"`
	Overage       string  `json:"overage"`
	Optional      bool    `json:"optional"`
	Consumable    bool    `json:"consumable"`
	AllowVariants bool    `json:"allow_variants"`
	Inherited     bool    `json:"inherited"`
	Notes         string  `json:"note"`
}

// Create 创建BOM行。装配件的已校验行随结构变更失效。
func (s *BOMService) Create(ctx context.Context, userID string, req *CreateBOMItemRequest) (*entity.BOMItem, error) {
	if req.PartID == req.SubPartID {
		return nil, ErrSelfReference
	}

	part, err := s.partRepo.FindByID(ctx, req.PartID)
	if err != nil {
		return nil, fmt.Errorf("find assembly: %w", err)
	}
	if !part.Assembly {
		return nil, ErrNotAssembly
	}

	subPart, err := s.partRepo.FindByID(ctx, req.SubPartID)
	if err != nil {
		return nil, fmt.Errorf("find sub part: %w", err)
	}
	if !subPart.Component {
		return nil, ErrNotComponent
	}

	item := &entity.BOMItem{
		PartID:        req.PartID,
		SubPartID:     req.SubPartID,
		SubPartIPN:    subPart.IPN,
		SubPartName:   subPart.Name,
		Quantity:      req.Quantity,
		Reference:     req.Reference,
		Overage:       req.Overage,
		Optional:      req.Optional,
		Consumable:    req.Consumable,
		AllowVariants: req.AllowVariants,
		Inherited:     req.Inherited,
		Notes:         req.Notes,
		CreatedBy:     userID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create bom item: %w", err)
	}

	if err := s.repo.InvalidateByPart(ctx, req.PartID); err != nil {
		s.logger.Warn("BOM invalidation failed", zap.String("part_id", req.PartID), zap.Error(err))
	}
	return item, nil
}

// Get 获取BOM行详情
func (s *BOMService) Get(ctx context.Context, id string) (*entity.BOMItem, error) {
	return s.repo.FindByID(ctx, id)
}

// List 获取BOM行列表
func (s *BOMService) List(ctx context.Context, params repository.BOMListParams) ([]entity.BOMItem, int64, error) {
	return s.repo.List(ctx, params)
}

// UpdateBOMItemRequest 更新BOM行请求
type UpdateBOMItemRequest struct {
	Quantity      *float64 `json:"quantity"`
	Reference     *string  `json:"reference"`
	Overage       *string  `json:"overage"`
	Optional      *bool    `json:"optional"`
	Consumable    *bool    `json:"consumable"`
	AllowVariants *bool    `json:"allow_variants"`
	Inherited     *bool    `json:"inherited"`
	Notes         *string  `json:"note"`
}

// Update 更新BOM行，编辑后该行回到未校验状态
func (s *BOMService) Update(ctx context.Context, id string, req *UpdateBOMItemRequest) (*entity.BOMItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Reference != nil {
		item.Reference = *req.Reference
	}
	if req.Overage != nil {
		item.Overage = *req.Overage
	}
	if req.Optional != nil {
		item.Optional = *req.Optional
	}
	if req.Consumable != nil {
		item.Consumable = *req.Consumable
	}
	if req.AllowVariants != nil {
		item.AllowVariants = *req.AllowVariants
	}
	if req.Inherited != nil {
		item.Inherited = *req.Inherited
	}
	if req.Notes != nil {
		item.Notes = *req.Notes
	}
	item.Validated = false

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update bom item: %w", err)
	}
	return item, nil
}

// Delete 删除BOM行
func (s *BOMService) Delete(ctx context.Context, id string) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete bom item: %w", err)
	}
	if err := s.repo.InvalidateByPart(ctx, item.PartID); err != nil {
		s.logger.Warn("BOM invalidation failed", zap.String("part_id", item.PartID), zap.Error(err))
	}
	return nil
}

// DeleteMany 批量删除BOM行
func (s *BOMService) DeleteMany(ctx context.Context, ids []string) error {
	return s.repo.DeleteMany(ctx, ids)
}

// Validate 校验单个BOM行
func (s *BOMService) Validate(ctx context.Context, id string) (*entity.BOMItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Validated = true
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("validate bom item: %w", err)
	}
	return item, nil
}

// ValidateAll 校验装配件的全部BOM行
func (s *BOMService) ValidateAll(ctx context.Context, partID string) error {
	items, err := s.repo.ListByPart(ctx, partID)
	if err != nil {
		return fmt.Errorf("list bom items: %w", err)
	}
	for i := range items {
		if items[i].Validated {
			continue
		}
		items[i].Validated = true
		if err := s.repo.Update(ctx, &items[i]); err != nil {
			return fmt.Errorf("validate bom item %s: %w", items[i].ID, err)
		}
	}
	return nil
}

// AddSubstituteRequest 添加替代料请求
type AddSubstituteRequest struct {
	BOMItemID string `json:"bom_item" binding:"required"`
	PartID    string `json:"part" binding:"required"`
}

// AddSubstitute 给BOM行添加替代料
func (s *BOMService) AddSubstitute(ctx context.Context, req *AddSubstituteRequest) (*entity.BOMSubstitute, error) {
	item, err := s.repo.FindByID(ctx, req.BOMItemID)
	if err != nil {
		return nil, fmt.Errorf("find bom item: %w", err)
	}
	if item.SubPartID == req.PartID {
		return nil, ErrSubstituteSamePart
	}

	existing, err := s.repo.ListSubstitutes(ctx, req.BOMItemID)
	if err != nil {
		return nil, fmt.Errorf("list substitutes: %w", err)
	}
	for _, sub := range existing {
		if sub.PartID == req.PartID {
			return nil, fmt.Errorf("substitute already exists for part %s", req.PartID)
		}
	}

	part, err := s.partRepo.FindByID(ctx, req.PartID)
	if err != nil {
		return nil, fmt.Errorf("find substitute part: %w", err)
	}

	sub := &entity.BOMSubstitute{
		BOMItemID: req.BOMItemID,
		PartID:    part.ID,
		PartIPN:   part.IPN,
		PartName:  part.Name,
	}
	if err := s.repo.CreateSubstitute(ctx, sub); err != nil {
		return nil, fmt.Errorf("create substitute: %w", err)
	}
	return sub, nil
}

// ListSubstitutes 列出BOM行的替代料
func (s *BOMService) ListSubstitutes(ctx context.Context, bomItemID string) ([]entity.BOMSubstitute, error) {
	return s.repo.ListSubstitutes(ctx, bomItemID)
}

// RemoveSubstitute 移除替代料
func (s *BOMService) RemoveSubstitute(ctx context.Context, id string) error {
	return s.repo.DeleteSubstitute(ctx, id)
}

// EffectiveBOM 零件的有效BOM：自身行，加上模板链上标记为 inherited 的行。
// 变体装配件因此自动继承模板的公共BOM行；
// 变体自己重定义过的子件以变体行为准，不再取模板行。
func (s *BOMService) EffectiveBOM(ctx context.Context, partID string) ([]entity.BOMItem, error) {
	items, err := s.repo.ListByPart(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("list bom items: %w", err)
	}

	part, err := s.partRepo.FindByID(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("find part: %w", err)
	}

	bySubPart := make(map[string]bool, len(items))
	for _, it := range items {
		bySubPart[it.SubPartID] = true
	}

	// 沿模板链向上收集 inherited 行
	seen := map[string]bool{partID: true}
	templateID := part.VariantOfID
	for templateID != nil && !seen[*templateID] {
		id := *templateID
		seen[id] = true
		templateItems, err := s.repo.ListByPart(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list template bom items: %w", err)
		}
		for _, it := range templateItems {
			if it.Inherited && !bySubPart[it.SubPartID] {
				bySubPart[it.SubPartID] = true
				items = append(items, it)
			}
		}
		template, err := s.partRepo.FindByID(ctx, id)
		if err != nil {
			break
		}
		templateID = template.VariantOfID
	}

	return items, nil
}

// — BOM树 —

// treeSource 把BOM仓库与库存口径适配成树数据源
type treeSource struct {
	svc *BOMService
}

func (t treeSource) Roots(ctx context.Context, partID string) ([]bomtree.Line, error) {
	items, err := t.svc.EffectiveBOM(ctx, partID)
	if err != nil {
		return nil, err
	}
	return t.svc.toLines(ctx, items)
}

func (t treeSource) Children(ctx context.Context, itemID string) ([]bomtree.Line, error) {
	item, err := t.svc.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	items, err := t.svc.EffectiveBOM(ctx, item.SubPartID)
	if err != nil {
		return nil, err
	}
	return t.svc.toLines(ctx, items)
}

// toLines 组装树行：库存三口径（本体/替代料/变体）与单价区间
func (s *BOMService) toLines(ctx context.Context, items []entity.BOMItem) ([]bomtree.Line, error) {
	lines := make([]bomtree.Line, 0, len(items))
	for _, item := range items {
		line := bomtree.Line{
			ItemID:        item.ID,
			PartID:        item.PartID,
			SubPartID:     item.SubPartID,
			SubPartIPN:    item.SubPartIPN,
			SubPartName:   item.SubPartName,
			Quantity:      item.Quantity,
			Reference:     item.Reference,
			Overage:       item.Overage,
			Optional:      item.Optional,
			Consumable:    item.Consumable,
			AllowVariants: item.AllowVariants,
			Inherited:     item.Inherited,
			Validated:     item.Validated,
		}

		subPart := item.SubPart
		if subPart == nil {
			var err error
			subPart, err = s.partRepo.FindByID(ctx, item.SubPartID)
			if err != nil {
				return nil, fmt.Errorf("find sub part: %w", err)
			}
		}
		line.SubPartAssembly = subPart.Assembly

		base, err := s.stockRepo.SumAvailable(ctx, []string{item.SubPartID})
		if err != nil {
			return nil, fmt.Errorf("sum base stock: %w", err)
		}
		line.BaseStock = base

		subs := item.Substitutes
		if subs == nil {
			subs, err = s.repo.ListSubstitutes(ctx, item.ID)
			if err != nil {
				return nil, fmt.Errorf("list substitutes: %w", err)
			}
		}
		if len(subs) > 0 {
			subIDs := make([]string, 0, len(subs))
			for _, sub := range subs {
				subIDs = append(subIDs, sub.PartID)
			}
			subStock, err := s.stockRepo.SumAvailable(ctx, subIDs)
			if err != nil {
				return nil, fmt.Errorf("sum substitute stock: %w", err)
			}
			line.SubstituteStock = subStock
		}

		variants, err := s.partRepo.Variants(ctx, item.SubPartID)
		if err != nil {
			return nil, fmt.Errorf("list variants: %w", err)
		}
		if len(variants) > 0 {
			variantIDs := make([]string, 0, len(variants))
			for _, v := range variants {
				variantIDs = append(variantIDs, v.ID)
			}
			variantStock, err := s.stockRepo.SumAvailable(ctx, variantIDs)
			if err != nil {
				return nil, fmt.Errorf("sum variant stock: %w", err)
			}
			line.VariantStock = variantStock
		}

		pmin, pmax, found, err := s.stockRepo.PurchasePriceRange(ctx, item.SubPartID)
		if err != nil {
			return nil, fmt.Errorf("price range: %w", err)
		}
		if found {
			line.PriceMin = decimal.NewFromFloat(pmin)
			line.PriceMax = decimal.NewFromFloat(pmax)
			line.HasPricing = true
		}

		lines = append(lines, line)
	}
	return lines, nil
}

// Tree 加载装配件BOM树的顶层行
func (s *BOMService) Tree(ctx context.Context, partID string) ([]bomtree.Row, error) {
	loader := bomtree.NewLoader(treeSource{svc: s}, s.logger)
	return loader.Load(ctx, partID)
}

// ExpandTree 展开BOM树中一个子装配件行
func (s *BOMService) ExpandTree(ctx context.Context, itemID string) ([]bomtree.Row, error) {
	loader := bomtree.NewLoader(treeSource{svc: s}, s.logger)
	return loader.Expand(ctx, itemID)
}

// — 导入导出 —

// ImportResult 导入结果
type ImportResult struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportBOM 从上传文件导入BOM行。
// .xlsx 走 excelize；.csv 按 GBK 解码后解析。
// 单行失败不中断，整体结果带失败行说明。
func (s *BOMService) ImportBOM(ctx context.Context, userID, partID, filename string, reader io.Reader) (*ImportResult, error) {
	part, err := s.partRepo.FindByID(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("find assembly: %w", err)
	}
	if !part.Assembly {
		return nil, ErrNotAssembly
	}

	var rows [][]string
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		rows, err = readCSVRows(reader)
	} else {
		rows, err = readExcelRows(reader)
	}
	if err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}

	result := &ImportResult{}
	if len(rows) < 2 {
		return result, nil
	}

	for i, row := range rows[1:] { // 跳过表头
		lineNo := i + 2
		if len(row) < 2 || strings.TrimSpace(row[0]) == "" {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing sub part ipn", lineNo))
			continue
		}

		ipn := strings.TrimSpace(row[0])
		subPart, err := s.partRepo.FindByIPN(ctx, ipn)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: unknown part %q", lineNo, ipn))
			continue
		}

		qty := 1.0
		if q, parseErr := strconv.ParseFloat(strings.TrimSpace(row[1]), 64); parseErr == nil && q > 0 {
			qty = q
		}

		req := &CreateBOMItemRequest{
			PartID:    partID,
			SubPartID: subPart.ID,
			Quantity:  qty,
		}
		if len(row) > 2 {
			req.Reference = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			req.Optional = parseBoolCell(row[3])
		}
		if len(row) > 4 {
			req.Consumable = parseBoolCell(row[4])
		}
		if len(row) > 5 {
			req.AllowVariants = parseBoolCell(row[5])
		}
		if len(row) > 6 {
			req.Notes = strings.TrimSpace(row[6])
		}

		if _, err := s.Create(ctx, userID, req); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", lineNo, err))
			continue
		}
		result.Created++
	}

	return result, nil
}

func parseBoolCell(cell string) bool {
	v := strings.TrimSpace(cell)
	return v == "是" || strings.EqualFold(v, "Y") || strings.EqualFold(v, "true") || v == "1"
}

func readExcelRows(reader io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(f.GetSheetName(0))
}

// readCSVRows GBK → UTF-8 后按CSV解析
func readCSVRows(reader io.Reader) ([][]string, error) {
	utf8Reader := transform.NewReader(reader, simplifiedchinese.GBK.NewDecoder())
	cr := csv.NewReader(utf8Reader)
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

var bomExportHeaders = []string{
	"子件编号", "子件名称", "数量", "位号", "损耗",
	"可选", "耗材", "允许变体", "已校验", "可用库存", "可装配数", "价格区间",
}

// ExportBOM 导出装配件BOM为xlsx，上传对象存储并返回预签名下载链接
func (s *BOMService) ExportBOM(ctx context.Context, partID string) (string, error) {
	if s.minio == nil {
		return "", ErrExportUnavailable
	}

	part, err := s.partRepo.FindByID(ctx, partID)
	if err != nil {
		return "", fmt.Errorf("find assembly: %w", err)
	}

	rows, err := s.Tree(ctx, partID)
	if err != nil {
		return "", fmt.Errorf("load bom tree: %w", err)
	}

	f := excelize.NewFile()
	sheet := "BOM"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range bomExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	boolCell := func(b bool) string {
		if b {
			return "是"
		}
		return "否"
	}
	for rowIdx, row := range rows {
		n := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", n), row.SubPartIPN)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", n), row.SubPartName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", n), row.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", n), row.Reference)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", n), row.Overage)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", n), boolCell(row.Optional))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", n), boolCell(row.Consumable))
		f.SetCellValue(sheet, fmt.Sprintf("H%d", n), boolCell(row.AllowVariants))
		f.SetCellValue(sheet, fmt.Sprintf("I%d", n), boolCell(row.Validated))
		f.SetCellValue(sheet, fmt.Sprintf("J%d", n), row.AvailableStock)
		f.SetCellValue(sheet, fmt.Sprintf("K%d", n), row.CanBuildDisplay())
		f.SetCellValue(sheet, fmt.Sprintf("L%d", n), row.PriceRangeDisplay())
	}

	colWidths := []float64{16, 20, 8, 14, 8, 6, 6, 8, 8, 10, 10, 14}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}

	name := part.IPN
	if name == "" {
		name = part.Name
	}
	objectName := fmt.Sprintf("bom-exports/BOM_%s_%s.xlsx", name, time.Now().Format("20060102150405"))
	_, err = s.minio.PutObject(ctx, s.bucket, objectName, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	})
	if err != nil {
		return "", fmt.Errorf("upload export file: %w", err)
	}

	presigned, err := s.minio.PresignedGetObject(ctx, s.bucket, objectName, 15*time.Minute, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign export url: %w", err)
	}
	return presigned.String(), nil
}
