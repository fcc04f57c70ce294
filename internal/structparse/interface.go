package structparse

import (
	"fmt"
	"go/ast"
	"go/types"
)

// Interface 解析 dir 目录下名为 name 的接口
// 嵌入的接口在同一包或同一 module 内时展开其方法，
// 无法展开的嵌入（如 io.Closer）记录在 Unexpanded 中
func (l *Loader) Interface(dir, name string) (*InterfaceInfo, error) {
	pkg, err := l.Load(dir)
	if err != nil {
		return nil, err
	}
	decl, ok := pkg.types[name]
	if !ok {
		return nil, fmt.Errorf("未找到接口 %s", name)
	}
	iface, ok := decl.spec.Type.(*ast.InterfaceType)
	if !ok {
		return nil, fmt.Errorf("%s 不是接口类型", name)
	}

	w := &ifaceWalk{parsed: map[string]bool{}}
	methods := l.interfaceMethods(w, pkg, decl.file, iface, typeKey(pkg, name))

	// 同名方法只保留第一次出现的
	seen := make(map[string]bool, len(methods))
	unique := methods[:0]
	for _, m := range methods {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		unique = append(unique, m)
	}

	return &InterfaceInfo{
		Name:        name,
		PackageName: pkg.Name,
		PkgPath:     pkg.Path,
		Dir:         pkg.Dir,
		FilePath:    decl.file.Path,
		Methods:     unique,
		Unexpanded:  w.unexpanded,
		Imports:     decl.file.Imports,
	}, nil
}

type ifaceWalk struct {
	parsed     map[string]bool // 已展开的接口，防止循环引用
	unexpanded []string
}

// interfaceMethods 解析接口的所有方法（包括嵌入接口）
func (l *Loader) interfaceMethods(w *ifaceWalk, pkg *Package, file *File, iface *ast.InterfaceType, key string) []*MethodInfo {
	if iface.Methods == nil || w.parsed[key] {
		return nil
	}
	w.parsed[key] = true

	var methods []*MethodInfo
	for _, field := range iface.Methods.List {
		if len(field.Names) == 0 {
			embedded, ok := l.embeddedInterface(w, pkg, file, field.Type)
			if !ok {
				w.unexpanded = append(w.unexpanded, types.ExprString(field.Type))
			}
			methods = append(methods, embedded...)
			continue
		}
		ft, ok := field.Type.(*ast.FuncType)
		if !ok {
			continue
		}
		m := pkg.methodInfo(file, field.Names[0].Name, ft, field.Doc)
		m.Pos = l.Position(field.Pos())
		methods = append(methods, m)
	}
	return methods
}

// embeddedInterface 解析嵌入的接口，无法在本 module 内找到接口声明时返回 false
func (l *Loader) embeddedInterface(w *ifaceWalk, pkg *Package, file *File, expr ast.Expr) ([]*MethodInfo, bool) {
	var (
		target = pkg
		name   string
	)
	switch e := expr.(type) {
	case *ast.Ident:
		name = e.Name
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok {
			return nil, false
		}
		importPath, ok := file.Imports[x.Name]
		if !ok {
			return nil, false
		}
		loaded, err := l.LoadImport(pkg.Dir, importPath)
		if err != nil {
			// 标准库或第三方接口
			return nil, false
		}
		target = loaded
		name = e.Sel.Name
	default:
		return nil, false
	}

	decl, ok := target.types[name]
	if !ok {
		return nil, false
	}
	iface, ok := decl.spec.Type.(*ast.InterfaceType)
	if !ok {
		return nil, false
	}
	return l.interfaceMethods(w, target, decl.file, iface, typeKey(target, name)), true
}
