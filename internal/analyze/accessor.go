package analyze

import (
	"go/ast"

	"github.com/samber/lo"

	"github.com/donutnomad/litegen/internal/model"
	"github.com/donutnomad/litegen/internal/structparse"
	"github.com/donutnomad/litegen/internal/utils"
	"github.com/donutnomad/litegen/plugin"
)

const (
	AnnotationGetter = "Getter"
	AnnotationSetter = "Setter"
)

// accessorIndex 实体上声明的访问器方法，按声明顺序
type accessorIndex struct {
	methods []*structparse.MethodInfo
	getters map[string]*structparse.MethodInfo // 字段名 -> @Getter 方法，先声明者优先
	setters map[string]*structparse.MethodInfo // 字段名 -> @Setter 方法，先声明者优先
}

// indexAccessors 收集 @Getter/@Setter 注解方法
// 注解缺少 field 参数，或引用了不参与映射的字段时报错
func indexAccessors(entity string, methods []*structparse.MethodInfo, fields []*model.Field) (*accessorIndex, error) {
	idx := &accessorIndex{
		methods: methods,
		getters: make(map[string]*structparse.MethodInfo),
		setters: make(map[string]*structparse.MethodInfo),
	}
	for _, m := range methods {
		for _, ann := range plugin.FilterByNames(m.Annotations, AnnotationGetter, AnnotationSetter) {
			target := ann.GetParam("field")
			if target == "" {
				return nil, model.Invalidf(entity, m.Name, "@%s 的 field 参数不能为空", ann.Name)
			}
			field, ok := lo.Find(fields, func(f *model.Field) bool { return f.Name == target })
			if !ok {
				return nil, model.Invalidf(entity, m.Name, "@%s 引用的字段 %s 不存在或不参与映射", ann.Name, target)
			}

			if ann.Name == AnnotationGetter {
				if !isGetter(m, field.Type) {
					return nil, model.Invalidf(entity, m.Name, "@Getter 方法必须无参数并返回 %s", field.Type.Source)
				}
				if _, ok := idx.getters[target]; !ok {
					idx.getters[target] = m
				}
				continue
			}
			if !isSetter(m, field.Type) {
				return nil, model.Invalidf(entity, m.Name, "@Setter 方法必须只有一个 %s 参数且没有返回值", field.Type.Source)
			}
			if _, ok := idx.setters[target]; !ok {
				idx.setters[target] = m
			}
		}
	}
	return idx, nil
}

func isGetter(m *structparse.MethodInfo, typ *model.TypeRef) bool {
	return len(m.Params) == 0 && len(m.Results) == 1 && m.Results[0].Type.Identical(typ)
}

func isSetter(m *structparse.MethodInfo, typ *model.TypeRef) bool {
	return len(m.Params) == 1 && !m.Variadic && len(m.Results) == 0 && m.Params[0].Type.Identical(typ)
}

// conventional 返回第一个名称在 names 中且签名匹配的方法
func (idx *accessorIndex) conventional(names []string, match func(*structparse.MethodInfo) bool) *structparse.MethodInfo {
	m, _ := lo.Find(idx.methods, func(m *structparse.MethodInfo) bool {
		return lo.Contains(names, m.Name) && match(m)
	})
	return m
}

// getterNames 约定的 getter 方法名
func getterNames(f *model.Field) []string {
	name := utils.UpperFirst(f.Name)
	names := []string{"Get" + name}
	if f.Kind == model.KindBool {
		names = append(names, "Is"+name)
	}
	if !ast.IsExported(f.Name) {
		names = append(names, name)
	}
	return names
}

// resolveGetter 读取顺序: @Getter 方法、约定 getter、直接访问
func (idx *accessorIndex) resolveGetter(entity string, f *model.Field) (model.Expr, error) {
	if m, ok := idx.getters[f.Name]; ok {
		return model.CallExpr{Method: m.Name}, nil
	}
	names := getterNames(f)
	if m := idx.conventional(names, func(m *structparse.MethodInfo) bool { return isGetter(m, f.Type) }); m != nil {
		return model.CallExpr{Method: m.Name}, nil
	}
	if allExported(f.Path) {
		return model.FieldExpr{Path: f.Path}, nil
	}
	return nil, model.Invalidf(entity, f.Name, "字段不可导出且没有 getter（需要 @Getter 或 %s 方法）", names[0])
}

// resolveSetter 写入顺序: @Setter 方法、约定 setter、直接赋值
func (idx *accessorIndex) resolveSetter(entity string, f *model.Field, value model.Expr) (model.Setter, error) {
	if m, ok := idx.setters[f.Name]; ok {
		return model.CallSetter{Method: m.Name, Value: value}, nil
	}
	name := "Set" + utils.UpperFirst(f.Name)
	if m := idx.conventional([]string{name}, func(m *structparse.MethodInfo) bool { return isSetter(m, f.Type) }); m != nil {
		return model.CallSetter{Method: m.Name, Value: value}, nil
	}
	if allExported(f.Path) {
		return model.AssignField{Path: f.Path, Value: value}, nil
	}
	return nil, model.Invalidf(entity, f.Name, "字段不可导出且没有 setter（需要 @Setter 或 %s 方法）", name)
}

func allExported(path []string) bool {
	return lo.EveryBy(path, ast.IsExported)
}
