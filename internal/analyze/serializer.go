package analyze

import (
	"go/ast"
	"strings"

	"github.com/samber/lo"

	"github.com/donutnomad/litegen/internal/model"
	"github.com/donutnomad/litegen/internal/structparse"
	"github.com/donutnomad/litegen/internal/utils"
	"github.com/donutnomad/litegen/plugin"
)

const (
	AnnotationSerialize   = "Serialize"
	AnnotationDeserialize = "Deserialize"
)

// serializerUnit 序列化器类型及其转换方法
type serializerUnit struct {
	ref         *model.SerializerRef
	serialize   []*structparse.MethodInfo // @Serialize，声明顺序
	deserialize []*structparse.MethodInfo // @Deserialize，声明顺序
}

// loadSerializer 解析 @Entity(serializer=Type|pkg.Type)
func loadSerializer(loader *structparse.Loader, entity string, info *structparse.StructInfo, spec string) (*serializerUnit, error) {
	ref := &model.SerializerRef{Var: utils.LowerFirst(entity) + "Serializer"}
	dir := info.Dir

	if alias, name, ok := strings.Cut(spec, "."); ok {
		importPath, found := info.Imports[alias]
		if !found {
			return nil, model.Invalidf(entity, "", "serializer=%s: 文件中没有导入 %s", spec, alias)
		}
		pkg, err := loader.LoadImport(info.Dir, importPath)
		if err != nil {
			return nil, model.Invalidf(entity, "", "serializer=%s 无法加载", spec).Wrap(err)
		}
		ref.Name = name
		ref.PkgPath = importPath
		ref.Local = importPath == info.PkgPath
		dir = pkg.Dir
	} else {
		ref.Name = spec
		ref.PkgPath = info.PkgPath
		ref.Local = true
	}

	methods, err := loader.Methods(dir, ref.Name)
	if err != nil {
		return nil, model.Invalidf(entity, "", "serializer=%s 无法解析", spec).Wrap(err)
	}

	unit := &serializerUnit{ref: ref}
	for _, m := range methods {
		ser := plugin.HasAnnotation(m.Annotations, AnnotationSerialize)
		deser := plugin.HasAnnotation(m.Annotations, AnnotationDeserialize)
		if !ser && !deser {
			continue
		}
		if len(m.Params) != 1 || m.Variadic || len(m.Results) != 1 {
			return nil, model.Invalidf(ref.Name, m.Name, "序列化方法必须只有一个参数和一个返回值")
		}
		if !ast.IsExported(m.Name) && !ref.Local {
			return nil, model.Invalidf(ref.Name, m.Name, "其他包的序列化方法必须可导出")
		}
		if ser {
			unit.serialize = append(unit.serialize, m)
		}
		if deser {
			unit.deserialize = append(unit.deserialize, m)
		}
	}
	return unit, nil
}

// bind 为 KindOther 字段匹配唯一的一对序列化/反序列化方法
func (u *serializerUnit) bind(entity string, f *model.Field) (*model.SerializerBinding, error) {
	var hint *model.TypeRef
	if f.Serialize != "" {
		hint = &model.TypeRef{Kind: model.TypeNamed, Name: f.Serialize, Source: f.Serialize}
	}
	storageOK := func(t *model.TypeRef) bool {
		return hint == nil || t.Identical(hint)
	}

	sers := lo.Filter(u.serialize, func(m *structparse.MethodInfo, _ int) bool {
		return m.Params[0].Type.Identical(f.Type) && storageOK(m.Results[0].Type)
	})
	desers := lo.Filter(u.deserialize, func(m *structparse.MethodInfo, _ int) bool {
		return m.Results[0].Type.Identical(f.Type) && storageOK(m.Params[0].Type)
	})

	ser, err := single(entity, f, sers, AnnotationSerialize, "参数")
	if err != nil {
		return nil, err
	}
	deser, err := single(entity, f, desers, AnnotationDeserialize, "返回值")
	if err != nil {
		return nil, err
	}

	stored := ser.Results[0].Type
	if !stored.Identical(deser.Params[0].Type) {
		return nil, model.Invalidf(entity, f.Name, "%s 与 %s 的存储类型不一致: %s, %s",
			ser.Name, deser.Name, stored.Source, deser.Params[0].Type.Source)
	}
	kind := KindOf(stored)
	if !kind.Native() {
		return nil, model.Invalidf(entity, f.Name, "序列化后的类型 %s 不是原生类型，不支持嵌套序列化", stored.Source)
	}

	return &model.SerializerBinding{
		Serialize:     model.MethodRef{Name: ser.Name, Param: ser.Params[0].Type, Result: stored},
		Deserialize:   model.MethodRef{Name: deser.Name, Param: deser.Params[0].Type, Result: deser.Results[0].Type},
		StorageGoType: stored,
		StorageKind:   kind,
	}, nil
}

// single 候选方法必须恰好一个
func single(entity string, f *model.Field, candidates []*structparse.MethodInfo, ann, side string) (*structparse.MethodInfo, error) {
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return nil, model.Invalidf(entity, f.Name, "序列化器中没有%s类型为 %s 的 @%s 方法", side, f.Type.Source, ann)
	default:
		names := lo.Map(candidates, func(m *structparse.MethodInfo, _ int) string { return m.Name })
		return nil, model.Invalidf(entity, f.Name, "类型 %s 匹配到多个 @%s 方法: %s", f.Type.Source, ann, strings.Join(names, ", "))
	}
}
