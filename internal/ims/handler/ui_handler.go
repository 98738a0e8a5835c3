package handler

import (
	"strconv"
	"strings"

	"github.com/bitfantasy/nimo-ims/internal/ims/service"
	"github.com/bitfantasy/nimo-ims/internal/ims/status"
	"github.com/bitfantasy/nimo-ims/internal/ims/tablefilter"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UIHandler 界面元数据处理器：表筛选器配置与状态徽章
type UIHandler struct {
	filterSvc *service.FilterService
	logger    *zap.Logger
}

// NewUIHandler 创建界面元数据处理器
func NewUIHandler(filterSvc *service.FilterService, logger *zap.Logger) *UIHandler {
	return &UIHandler{filterSvc: filterSvc, logger: logger}
}

// filterView 序列化后的筛选器描述，动态选项已解析
type filterView struct {
	Key         string               `json:"key"`
	Label       string               `json:"label"`
	Type        tablefilter.Type     `json:"type"`
	Description string               `json:"description,omitempty"`
	Choices     []tablefilter.Choice `json:"choices,omitempty"`
}

// TableFilters GET /api/ui/table-filters/:table/
// 未知表名返回空集合，选项加载失败的筛选器返回空选项，均不报错。
func (h *UIHandler) TableFilters(c *gin.Context) {
	table := tablefilter.Table(c.Param("table"))
	descriptors := h.filterSvc.Filters(c.Request.Context(), table)

	views := make(map[string]filterView, len(descriptors))
	for key, d := range descriptors {
		view := filterView{
			Key:         d.Key,
			Label:       d.Label,
			Type:        d.Type,
			Description: d.Description,
			Choices:     d.Choices,
		}
		if d.LoadChoices != nil {
			choices, err := d.LoadChoices(c.Request.Context())
			if err != nil {
				h.logger.Warn("Load filter choices failed",
					zap.String("table", string(table)),
					zap.String("filter", key),
					zap.Error(err),
				)
			} else {
				view.Choices = choices
			}
		}
		views[key] = view
	}
	Success(c, gin.H{"table": strings.ToLower(string(table)), "filters": views})
}

// Tables GET /api/ui/table-filters/
func (h *UIHandler) Tables(c *gin.Context) {
	tables := h.filterSvc.Tables()
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, string(t))
	}
	Success(c, gin.H{"items": names})
}

// StatusChoices GET /api/ui/status/:table/
func (h *UIHandler) StatusChoices(c *gin.Context) {
	name := strings.ToLower(c.Param("table"))
	table, ok := status.ByName(name)
	if !ok {
		NotFound(c, "unknown status table: "+name)
		return
	}
	Success(c, gin.H{"table": table.Name(), "choices": table.Choices()})
}

// RenderStatus GET /api/ui/status/:table/render/?key=10
// 未知状态码降级渲染为原始数字，不报错。
func (h *UIHandler) RenderStatus(c *gin.Context) {
	name := strings.ToLower(c.Param("table"))
	table, ok := status.ByName(name)
	if !ok {
		NotFound(c, "unknown status table: "+name)
		return
	}
	key, err := strconv.Atoi(c.Query("key"))
	if err != nil {
		BadRequest(c, "key must be an integer")
		return
	}
	Success(c, gin.H{"html": status.Render(h.logger, table, key)})
}
