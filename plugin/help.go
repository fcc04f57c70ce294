package plugin

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
)

// FormatHelpText 为所有注册的生成器生成帮助文本
// 参数说明按显示宽度对齐（中文描述占两列）
func FormatHelpText(registry *Registry) string {
	generators := registry.Generators()
	if len(generators) == 0 {
		return "  (暂无已注册的生成器)\n"
	}

	var sb strings.Builder
	for _, gen := range generators {
		annotations := gen.Annotations()
		if len(annotations) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "  %s - %s\n", strings.Join(lo.Map(annotations, func(a string, _ int) string {
			return "@" + a
		}), " "), gen.Name())

		defs := gen.ParamDefs()
		var rows [][2]string
		if !lo.ContainsBy(defs, func(p ParamDef) bool { return p.Name == "output" }) {
			rows = append(rows, [2]string{"output", "输出文件路径（支持 $FILE $PACKAGE $TYPE）"})
		}
		for _, param := range defs {
			name := param.Name
			if param.Required {
				name += " (必填)"
			}
			desc := param.Description
			if param.Default != "" {
				desc += fmt.Sprintf(" [默认: %s]", param.Default)
			}
			rows = append(rows, [2]string{name, desc})
		}

		width := lo.Max(lo.Map(rows, func(r [2]string, _ int) int {
			return runewidth.StringWidth(r[0])
		}))
		sb.WriteString("    参数:\n")
		for _, r := range rows {
			fmt.Fprintf(&sb, "      %s  %s\n", runewidth.FillRight(r[0], width), r[1])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
