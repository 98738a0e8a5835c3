// Package status 定义各实体的状态码表与徽章渲染。
//
// 状态码是小整数，配套展示文案与颜色。未知状态码不报错，
// 降级渲染为原始数字 + dark 颜色，并记录一条错误日志。
package status

import (
	"fmt"
	"html"
	"strconv"

	"go.uber.org/zap"
)

// Color 徽章颜色
type Color string

const (
	ColorSuccess   Color = "success"
	ColorWarning   Color = "warning"
	ColorDanger    Color = "danger"
	ColorInfo      Color = "info"
	ColorPrimary   Color = "primary"
	ColorSecondary Color = "secondary"
	ColorDark      Color = "dark"
)

// Code 单个状态码定义
type Code struct {
	Key   int
	Label string
	Color Color
}

// Table 某一实体类型的状态码表，模块初始化时构造，之后只读
type Table struct {
	name  string
	codes []Code
}

// NewTable 构造状态码表
func NewTable(name string, codes ...Code) Table {
	return Table{name: name, codes: codes}
}

// Name 表名，用于日志
func (t Table) Name() string {
	return t.name
}

// Lookup 按key查找状态码定义
func (t Table) Lookup(key int) (Code, bool) {
	for _, c := range t.codes {
		if c.Key == key {
			return c, true
		}
	}
	return Code{}, false
}

// Keys 所有已定义的key
func (t Table) Keys() []int {
	keys := make([]int, 0, len(t.codes))
	for _, c := range t.codes {
		keys = append(keys, c.Key)
	}
	return keys
}

// Choices 以 {value, display_name} 列表导出，用于筛选下拉
func (t Table) Choices() []map[string]interface{} {
	choices := make([]map[string]interface{}, 0, len(t.codes))
	for _, c := range t.codes {
		choices = append(choices, map[string]interface{}{
			"value":        c.Key,
			"display_name": c.Label,
		})
	}
	return choices
}

// Render 渲染状态徽章HTML。未知key降级为原始数字 + dark 颜色
func Render(logger *zap.Logger, table Table, key int) string {
	if code, ok := table.Lookup(key); ok {
		return badge(code.Label, code.Color)
	}
	logger.Error("Unknown status code",
		zap.String("table", table.name),
		zap.Int("key", key),
	)
	return badge(strconv.Itoa(key), ColorDark)
}

func badge(label string, color Color) string {
	return fmt.Sprintf(`<span class="badge rounded-pill bg-%s">%s</span>`, color, html.EscapeString(label))
}
