package analyze

import (
	"strings"

	"github.com/samber/lo"

	"github.com/donutnomad/litegen/internal/model"
	"github.com/donutnomad/litegen/internal/structparse"
	"github.com/donutnomad/litegen/internal/tagparse"
	"github.com/donutnomad/litegen/internal/utils"
)

// builtinKinds 预声明类型到存储种类的映射，byte 与 rune 已规范化为 uint8 与 int32
var builtinKinds = map[string]model.Kind{
	"bool":    model.KindBool,
	"int8":    model.KindShort,
	"int16":   model.KindShort,
	"uint8":   model.KindShort,
	"int32":   model.KindInt,
	"uint16":  model.KindInt,
	"int":     model.KindInt,
	"int64":   model.KindLong,
	"uint32":  model.KindLong,
	"uint":    model.KindLong,
	"uint64":  model.KindLong,
	"float32": model.KindFloat,
	"float64": model.KindDouble,
	"string":  model.KindString,
}

// KindOf 按声明类型判断存储种类
// 只有预声明的标量类型是原生种类，命名类型即使底层是 int 也需要序列化器
func KindOf(t *model.TypeRef) model.Kind {
	name, ok := t.Builtin()
	if !ok {
		return model.KindOther
	}
	if kind, ok := builtinKinds[name]; ok {
		return kind
	}
	return model.KindOther
}

// RowReader 返回按类型读取行数据的方法名，如 GetInt64
func RowReader(t *model.TypeRef) string {
	name, _ := t.Builtin()
	return "Get" + utils.UpperFirst(name)
}

// classifyFields 过滤非持久化字段，计算列名、种类和主键
func classifyFields(entity string, info *structparse.StructInfo, opts EntityOptions) ([]*model.Field, error) {
	var fields []*model.Field
	for _, fi := range info.Fields {
		tag, err := tagparse.Parse(fi.Tag)
		if err != nil {
			return nil, model.Invalidf(entity, fi.Name, "标签无效").Wrap(err)
		}
		if tag.Excluded() || fi.Type.Kind == model.TypeFunc || fi.Type.Kind == model.TypeChan {
			continue
		}

		column := opts.Naming.Column(fi.Name)
		if tag.HasColumn {
			if tag.Column == "" {
				return nil, model.Invalidf(entity, fi.Name, "column 覆盖不能为空")
			}
			column = tag.Column
		}

		kind := KindOf(fi.Type)
		fields = append(fields, &model.Field{
			Name:        fi.Name,
			Path:        fi.Path,
			Type:        fi.Type,
			Kind:        kind,
			StorageKind: kind,
			StorageType: fi.Type,
			Column:      column,
			Primary:     tag.PrimaryKey,
			Serialize:   tag.Serialize,
			Foreign:     tag.References,
		})
	}

	if len(fields) == 0 {
		return nil, model.Invalidf(entity, "", "没有可持久化的字段")
	}

	// 实体级主键列表为空时退回到标签检测
	for _, name := range splitNames(opts.PrimaryKey) {
		field, ok := lo.Find(fields, func(f *model.Field) bool { return f.Name == name })
		if !ok {
			return nil, model.Invalidf(entity, name, "primary_key 引用的字段不存在")
		}
		field.Primary = true
	}
	if !lo.ContainsBy(fields, func(f *model.Field) bool { return f.Primary }) {
		return nil, model.Invalidf(entity, "", "没有主键字段，请使用 lite:\"primaryKey\" 或 @Entity(primary_key=...)")
	}

	if err := checkColumns(entity, fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// checkColumns 列名与列常量名必须唯一
func checkColumns(entity string, fields []*model.Field) error {
	columns := make(map[string]string, len(fields))
	consts := make(map[string]string, len(fields))
	for _, f := range fields {
		if prev, ok := columns[strings.ToLower(f.Column)]; ok {
			return model.Invalidf(entity, f.Name, "列名 %s 与字段 %s 重复", f.Column, prev)
		}
		columns[strings.ToLower(f.Column)] = f.Name

		constName := utils.UpperFirst(f.Name)
		if prev, ok := consts[constName]; ok {
			return model.Invalidf(entity, f.Name, "列常量名 %s 与字段 %s 冲突", constName, prev)
		}
		consts[constName] = f.Name
	}
	return nil
}

// splitNames 拆分逗号分隔的名称列表，忽略空项
func splitNames(names []string) []string {
	var result []string
	for _, n := range names {
		for part := range strings.SplitSeq(n, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}
