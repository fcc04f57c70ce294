package structparse

import (
	"fmt"
	"go/ast"
	"slices"

	"github.com/donutnomad/litegen/plugin"
)

// Methods 返回类型 name 自身声明的方法，按文件顺序与位置排序
// 用于序列化器类型，不展开嵌入字段
func (l *Loader) Methods(dir, name string) ([]*MethodInfo, error) {
	pkg, err := l.Load(dir)
	if err != nil {
		return nil, err
	}
	if _, ok := pkg.types[name]; !ok {
		return nil, fmt.Errorf("未找到类型 %s", name)
	}
	return l.declaredMethods(pkg, name, 0, false), nil
}

// declaredMethods 收集 pkg 中接收者为 name 的方法
// exportedOnly 为 true 时只保留可导出方法（跨包提升）
func (l *Loader) declaredMethods(pkg *Package, name string, depth int, exportedOnly bool) []*MethodInfo {
	decls := pkg.methods[name]
	methods := make([]*MethodInfo, 0, len(decls))
	for _, md := range decls {
		if exportedOnly && !md.decl.Name.IsExported() {
			continue
		}
		m := pkg.methodInfo(md.file, md.decl.Name.Name, md.decl.Type, md.decl.Doc)
		m.Receiver = name
		_, m.PointerReceiver = receiverTypeName(md.decl.Recv.List[0].Type)
		m.Depth = depth
		m.Pos = l.Position(md.decl.Pos())
		methods = append(methods, m)
	}
	return methods
}

// promotedMethods 返回结构体自身与嵌入类型的方法
// 同名方法保留深度最浅的一个，顺序为自身方法在前，然后按嵌入的展开顺序
func (l *Loader) promotedMethods(pkg *Package, name string, embedded []embeddedRef) []*MethodInfo {
	all := l.declaredMethods(pkg, name, 0, false)
	for _, ref := range embedded {
		all = append(all, l.declaredMethods(ref.pkg, ref.name, ref.depth, ref.pkg.Dir != pkg.Dir)...)
	}

	best := make(map[string]int, len(all))
	for _, m := range all {
		if d, ok := best[m.Name]; !ok || m.Depth < d {
			best[m.Name] = m.Depth
		}
	}
	seen := make(map[string]bool, len(best))
	return slices.DeleteFunc(all, func(m *MethodInfo) bool {
		if m.Depth != best[m.Name] || seen[m.Name] {
			return true
		}
		seen[m.Name] = true
		return false
	})
}

// methodInfo 从函数类型构造方法信息
func (p *Package) methodInfo(file *File, name string, ft *ast.FuncType, doc *ast.CommentGroup) *MethodInfo {
	m := &MethodInfo{Name: name}
	if ft.Params != nil {
		m.Params = p.fieldList(file, ft.Params)
		if n := len(ft.Params.List); n > 0 {
			_, m.Variadic = ft.Params.List[n-1].Type.(*ast.Ellipsis)
		}
	}
	if ft.Results != nil {
		m.Results = p.fieldList(file, ft.Results)
	}
	if doc != nil {
		m.Annotations = plugin.ParseAnnotations(doc.Text())
	}
	return m
}

// fieldList 展开参数列表，a, b int 展开为两个参数
func (p *Package) fieldList(file *File, list *ast.FieldList) []*ParamInfo {
	var params []*ParamInfo
	for _, field := range list.List {
		typ := p.typeRef(file, field.Type)
		if len(field.Names) == 0 {
			params = append(params, &ParamInfo{Type: typ})
			continue
		}
		for _, ident := range field.Names {
			params = append(params, &ParamInfo{Name: ident.Name, Type: typ})
		}
	}
	return params
}
