package analyze

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/donutnomad/litegen/internal/model"
	"github.com/donutnomad/litegen/internal/structparse"
	"github.com/donutnomad/litegen/plugin"
)

// 存储方法上的操作注解
const (
	AnnotationCreateTable = "CreateTable"
	AnnotationInsert      = "Insert"
	AnnotationReplace     = "Replace"
	AnnotationUpdate      = "Update"
	AnnotationDelete      = "Delete"
	AnnotationSelect      = "Select"
)

// OperationAnnotations 所有操作注解
var OperationAnnotations = []string{
	AnnotationCreateTable, AnnotationInsert, AnnotationReplace,
	AnnotationUpdate, AnnotationDelete, AnnotationSelect,
}

// reservedNames 生成的方法体中使用的局部变量与包名，参数不能与之同名
var reservedNames = map[string]bool{
	"s": true, "rows": true, "err": true, "n": true, "e": true, "result": true,
	"item": true, "i": true, "total": true, "values": true, "ctx": true,
	"context": true, "rowstore": true,
}

// EntityResolver 按类型查找本次运行中已分析的实体
type EntityResolver interface {
	ResolveEntity(ref *model.TypeRef) (*model.Entity, error)
}

// StorageOptions @Storage 注解上的参数
type StorageOptions struct {
	Entity string // 实体类型，Type 或 pkg.Type；为空时从方法签名推断
}

// Storage 分析 dir 目录下名为 name 的存储接口
func Storage(loader *structparse.Loader, dir, name string, opts StorageOptions, resolver EntityResolver) (*model.Storage, error) {
	info, err := loader.Interface(dir, name)
	if err != nil {
		return nil, model.Invalidf(name, "", "无法解析接口").Wrap(err)
	}
	if len(info.Unexpanded) > 0 {
		// 生成的实现无法满足这些方法
		return nil, model.Invalidf(name, "", "嵌入的接口 %s 不在本 module 内，无法生成其方法", strings.Join(info.Unexpanded, ", "))
	}
	if len(info.Methods) == 0 {
		return nil, model.Invalidf(name, "", "存储接口没有方法")
	}

	ref, err := storageEntityRef(info, opts)
	if err != nil {
		return nil, err
	}
	entity, err := resolver.ResolveEntity(ref)
	if err != nil {
		return nil, model.Invalidf(name, "", "实体 %s 不可用", ref.Source).Wrap(err)
	}

	s := &model.Storage{
		Name:     info.Name,
		PkgName:  info.PackageName,
		PkgPath:  info.PkgPath,
		Dir:      info.Dir,
		FilePath: info.FilePath,
		Entity:   entity,
	}
	for _, m := range info.Methods {
		method, err := storageMethod(name, entity, m)
		if err != nil {
			return nil, err
		}
		s.Methods = append(s.Methods, method)
	}
	return s, nil
}

// storageEntityRef 确定存储接口操作的实体类型
// 显式的 entity 参数优先，否则从方法签名中出现的实体形态推断，必须唯一
func storageEntityRef(info *structparse.InterfaceInfo, opts StorageOptions) (*model.TypeRef, error) {
	if opts.Entity != "" {
		if alias, typeName, ok := strings.Cut(opts.Entity, "."); ok {
			path, found := info.Imports[alias]
			if !found {
				return nil, model.Invalidf(info.Name, "", "entity=%s: 文件中没有导入 %s", opts.Entity, alias)
			}
			return model.Named(path, typeName), nil
		}
		return model.Named(info.PkgPath, opts.Entity), nil
	}

	refs := make(map[string]*model.TypeRef)
	var order []string
	add := func(t *model.TypeRef) {
		if t == nil {
			return
		}
		key := t.String()
		if _, ok := refs[key]; !ok {
			refs[key] = t
			order = append(order, key)
		}
	}
	for _, m := range info.Methods {
		ops := plugin.FilterByNames(m.Annotations, OperationAnnotations...)
		if len(ops) != 1 {
			continue
		}
		switch ops[0].Name {
		case AnnotationInsert, AnnotationReplace, AnnotationUpdate:
			for _, p := range m.Params {
				add(entityElem(p.Type))
			}
		case AnnotationDelete:
			if ops[0].GetParam("where") == "" {
				for _, p := range m.Params {
					add(entityElem(p.Type))
				}
			}
		case AnnotationSelect:
			if len(m.Results) > 0 {
				add(entityElem(m.Results[0].Type))
			}
		}
	}

	switch len(order) {
	case 0:
		return nil, model.Invalidf(info.Name, "", "无法从方法签名推断实体类型，请使用 @Storage(entity=...)")
	case 1:
		return refs[order[0]], nil
	default:
		return nil, model.Invalidf(info.Name, "", "方法涉及多个实体类型: %s", strings.Join(order, ", "))
	}
}

// entityElem 从 *E、E、[]*E、[]E、...*E、...E 中取出 E，只接受非预声明的命名类型
func entityElem(t *model.TypeRef) *model.TypeRef {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case model.TypeSlice, model.TypeEllipsis:
		t = t.Elem
	}
	if t.Kind == model.TypePointer {
		t = t.Elem
	}
	if t.Kind != model.TypeNamed || t.PkgPath == "" || t.Is("context", "Context") {
		return nil
	}
	return t
}

// entityShape 判断参数类型是否为实体的某种形态
func entityShape(t *model.TypeRef, e *model.Entity) (model.Shape, bool) {
	isEntity := func(x *model.TypeRef) bool { return x != nil && x.Is(e.PkgPath, e.Name) }
	isPointer := func(x *model.TypeRef) bool { return x != nil && x.Kind == model.TypePointer && isEntity(x.Elem) }

	switch {
	case isPointer(t):
		return model.ShapePointer, true
	case isEntity(t):
		return model.ShapeValue, true
	case t.Kind == model.TypeSlice && isPointer(t.Elem):
		return model.ShapePointerSlice, true
	case t.Kind == model.TypeSlice && isEntity(t.Elem):
		return model.ShapeValueSlice, true
	case t.Kind == model.TypeEllipsis && isPointer(t.Elem):
		return model.ShapePointerVarargs, true
	case t.Kind == model.TypeEllipsis && isEntity(t.Elem):
		return model.ShapeValueVarargs, true
	}
	return 0, false
}

// isCountType 影响行数可以声明为任意预声明整数类型
func isCountType(t *model.TypeRef) bool {
	switch KindOf(t) {
	case model.KindShort, model.KindInt, model.KindLong:
		return true
	}
	return false
}

// storageMethod 分析一个存储方法
func storageMethod(iface string, e *model.Entity, m *structparse.MethodInfo) (*model.StorageMethod, error) {
	ops := plugin.FilterByNames(m.Annotations, OperationAnnotations...)
	if len(ops) != 1 {
		names := lo.Map(ops, func(a *plugin.Annotation, _ int) string { return "@" + a.Name })
		return nil, model.Invalidf(iface, m.Name, "必须有且只有一个操作注解（%s），实际: [%s]",
			strings.Join(OperationAnnotations, ", "), strings.Join(names, ", "))
	}
	op := ops[0]

	sm := &model.StorageMethod{
		Name:     m.Name,
		Variadic: m.Variadic,
		Where:    strings.TrimSpace(op.GetParam("where")),
		OrderBy:  strings.TrimSpace(op.GetParam("order_by")),
		Limit:    strings.TrimSpace(op.GetParam("limit")),
		Results:  lo.Map(m.Results, func(r *structparse.ParamInfo, _ int) *model.TypeRef { return r.Type }),
	}
	sm.Signature = paramNames(m.Params)

	params := sm.Signature
	if len(params) > 0 && params[0].Type.Is("context", "Context") {
		sm.Context = &sm.Signature[0]
		params = params[1:]
	}
	if len(m.Results) == 0 || !m.Results[len(m.Results)-1].Type.IsError() {
		return nil, model.Invalidf(iface, m.Name, "最后一个返回值必须是 error")
	}

	switch op.Name {
	case AnnotationCreateTable:
		sm.Kind = model.MethodCreateTable
		if len(params) != 0 || len(m.Results) != 1 {
			return nil, model.Invalidf(iface, m.Name, "@CreateTable 方法签名必须是 (ctx?) error")
		}
		return sm, nil
	case AnnotationInsert:
		sm.Kind = model.MethodInsert
	case AnnotationReplace:
		sm.Kind = model.MethodReplace
	case AnnotationUpdate:
		sm.Kind = model.MethodUpdate
	case AnnotationDelete:
		sm.Kind = model.MethodDeleteEntity
		if sm.Where != "" {
			sm.Kind = model.MethodDeletePredicate
		}
	case AnnotationSelect:
		return selectMethod(iface, e, sm, params)
	}

	if sm.Kind == model.MethodDeletePredicate {
		if err := bindArgs(iface, sm, params); err != nil {
			return nil, err
		}
	} else {
		if sm.OrderBy != "" || sm.Limit != "" {
			return nil, model.Invalidf(iface, m.Name, "@%s 不支持 order_by 与 limit", op.Name)
		}
		if len(params) != 1 {
			return nil, model.Invalidf(iface, m.Name, "@%s 需要且只能有一个实体参数 %s", op.Name, e.Name)
		}
		shape, ok := entityShape(params[0].Type, e)
		if !ok {
			return nil, model.Invalidf(iface, m.Name, "参数 %s 的类型 %s 不是实体 %s",
				params[0].Name, params[0].Type.Source, e.Name)
		}
		sm.EntityParam = &sm.Signature[len(sm.Signature)-1]
		sm.EntityShape = shape
	}

	switch len(m.Results) {
	case 1:
	case 2:
		countable := sm.Kind == model.MethodUpdate || sm.Kind == model.MethodDeleteEntity || sm.Kind == model.MethodDeletePredicate
		if !countable || !isCountType(m.Results[0].Type) {
			return nil, model.Invalidf(iface, m.Name, "返回值 %s 不受支持，只有 @Update 与 @Delete 可以返回整数的影响行数",
				m.Results[0].Type.Source)
		}
		sm.CountType = m.Results[0].Type
	default:
		return nil, model.Invalidf(iface, m.Name, "返回值过多")
	}
	return sm, nil
}

// selectMethod 分析 @Select 方法
func selectMethod(iface string, e *model.Entity, sm *model.StorageMethod, params []model.Param) (*model.StorageMethod, error) {
	if len(sm.Results) != 2 {
		return nil, model.Invalidf(iface, sm.Name, "@Select 的返回值必须是 (*%s, error)、([]*%s, error) 或 ([]%s, error)", e.Name, e.Name, e.Name)
	}
	shape, ok := entityShape(sm.Results[0], e)
	switch {
	case ok && shape == model.ShapePointer:
		sm.Kind = model.MethodSelectOne
		if sm.Limit != "" {
			return nil, model.Invalidf(iface, sm.Name, "单条查询固定使用 LIMIT 1，不能指定 limit")
		}
	case ok && (shape == model.ShapePointerSlice || shape == model.ShapeValueSlice):
		sm.Kind = model.MethodSelectMany
	default:
		return nil, model.Invalidf(iface, sm.Name, "@Select 的返回值必须是 (*%s, error)、([]*%s, error) 或 ([]%s, error)", e.Name, e.Name, e.Name)
	}
	sm.ResultShape = shape
	if err := bindArgs(iface, sm, params); err != nil {
		return nil, err
	}
	return sm, nil
}

// bindArgs 校验占位符数量与参数数量一致，按 where、order_by、limit 的顺序消费参数
func bindArgs(iface string, sm *model.StorageMethod, params []model.Param) error {
	if sm.Variadic {
		return model.Invalidf(iface, sm.Name, "谓词参数不能是变参")
	}
	total := 0
	for _, part := range []struct{ name, text string }{
		{"where", sm.Where}, {"order_by", sm.OrderBy}, {"limit", sm.Limit},
	} {
		n, err := CountPlaceholders(part.text)
		if err != nil {
			return model.Invalidf(iface, sm.Name, "%s 无法解析", part.name).Wrap(err)
		}
		total += n
	}
	if total != len(params) {
		return model.Invalidf(iface, sm.Name, "占位符数量 %d 与参数数量 %d 不一致", total, len(params))
	}
	sm.Args = params
	return nil
}

// paramNames 为参数确定生成代码中使用的名称
// 未命名参数使用 ctx 或 argN，与方法体局部变量同名的参数追加 Arg 后缀
func paramNames(params []*structparse.ParamInfo) []model.Param {
	result := make([]model.Param, len(params))
	used := make(map[string]bool, len(params))
	for i, p := range params {
		name := p.Name
		isContext := i == 0 && p.Type.Is("context", "Context")
		switch {
		case name == "" || name == "_":
			if isContext {
				name = "ctx"
			} else {
				name = fmt.Sprintf("arg%d", i)
			}
		case reservedNames[name] && !(isContext && name == "ctx"):
			name += "Arg"
		}
		for used[name] {
			name += "_"
		}
		used[name] = true
		result[i] = model.Param{Name: name, Type: p.Type}
	}
	return result
}
