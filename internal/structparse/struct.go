package structparse

import (
	"fmt"
	"go/ast"
	"strconv"

	"github.com/donutnomad/litegen/internal/tagparse"
	"github.com/donutnomad/litegen/plugin"
)

// embeddedRef 匿名嵌入的结构体，其方法会被提升
type embeddedRef struct {
	pkg   *Package
	name  string
	depth int
}

// structWalker 展开一个结构体的字段
type structWalker struct {
	loader   *Loader
	stack    map[string]bool // 当前展开路径上的类型，用于截断循环嵌入
	fields   []*FieldInfo
	embedded []embeddedRef
}

// Struct 解析 dir 目录下名为 name 的结构体
func (l *Loader) Struct(dir, name string) (*StructInfo, error) {
	pkg, err := l.Load(dir)
	if err != nil {
		return nil, err
	}
	decl, ok := pkg.types[name]
	if !ok {
		return nil, fmt.Errorf("未找到类型 %s", name)
	}
	st, ok := decl.spec.Type.(*ast.StructType)
	if !ok {
		return nil, fmt.Errorf("%s 不是结构体", name)
	}

	w := &structWalker{loader: l, stack: map[string]bool{typeKey(pkg, name): true}}
	if err := w.walk(pkg, decl.file, st, nil, 0, ""); err != nil {
		return nil, fmt.Errorf("解析结构体 %s 失败: %w", name, err)
	}

	info := &StructInfo{
		Name:        name,
		PackageName: pkg.Name,
		PkgPath:     pkg.Path,
		Dir:         pkg.Dir,
		FilePath:    decl.file.Path,
		Fields:      shadowFields(w.fields),
		Imports:     decl.file.Imports,
	}
	if decl.doc != nil {
		info.Annotations = plugin.ParseAnnotations(decl.doc.Text())
	}
	info.Methods = l.promotedMethods(pkg, name, w.embedded)
	return info, nil
}

func typeKey(pkg *Package, name string) string {
	return pkg.Dir + "." + name
}

// walk 按声明顺序收集字段，遇到可展开的嵌入结构体时递归
func (w *structWalker) walk(pkg *Package, file *File, st *ast.StructType, prefix []string, depth int, source string) error {
	for _, field := range st.Fields.List {
		tag := ""
		if field.Tag != nil {
			if unquoted, err := strconv.Unquote(field.Tag.Value); err == nil {
				tag = unquoted
			}
		}
		opts, _ := tagparse.Parse(tag)

		if len(field.Names) == 0 {
			name := embeddedName(field.Type)
			if name == "" {
				continue
			}
			if !opts.Ignore {
				expanded, err := w.expand(pkg, file, field.Type, append(clonePath(prefix), name), depth, true)
				if err != nil {
					return err
				}
				if expanded {
					continue
				}
			}
			w.add(pkg, file, field, name, tag, prefix, depth, source)
			continue
		}

		for _, ident := range field.Names {
			if ident.Name == "_" {
				continue
			}
			if opts.Embedded {
				expanded, err := w.expand(pkg, file, field.Type, append(clonePath(prefix), ident.Name), depth, false)
				if err != nil {
					return err
				}
				if expanded {
					continue
				}
			}
			w.add(pkg, file, field, ident.Name, tag, prefix, depth, source)
		}
	}
	return nil
}

func (w *structWalker) add(pkg *Package, file *File, field *ast.Field, name, tag string, prefix []string, depth int, source string) {
	path := append(clonePath(prefix), name)
	w.fields = append(w.fields, &FieldInfo{
		Name:       name,
		Path:       path,
		Type:       pkg.typeRef(file, field.Type),
		Tag:        tag,
		Exported:   allExported(path),
		Depth:      depth,
		SourceType: source,
		Pos:        w.loader.Position(field.Pos()),
	})
}

// expand 尝试展开嵌入的结构体类型，返回是否已展开
// 指针嵌入、非结构体类型与模块外的类型不展开，作为普通字段处理
func (w *structWalker) expand(pkg *Package, file *File, typ ast.Expr, path []string, depth int, promote bool) (bool, error) {
	target, decl, ok := w.resolveStruct(pkg, file, typ)
	if !ok {
		return false, nil
	}
	key := typeKey(target, decl.spec.Name.Name)
	if w.stack[key] {
		// 循环嵌入，截断
		return true, nil
	}
	if depth+1 > maxEmbeddingDepth {
		return false, fmt.Errorf("嵌入字段深度超过限制 %d: %s", maxEmbeddingDepth, decl.spec.Name.Name)
	}

	w.stack[key] = true
	defer delete(w.stack, key)

	if promote {
		w.embedded = append(w.embedded, embeddedRef{pkg: target, name: decl.spec.Name.Name, depth: depth + 1})
	}
	st := decl.spec.Type.(*ast.StructType)
	return true, w.walk(target, decl.file, st, path, depth+1, decl.spec.Name.Name)
}

// resolveStruct 查找类型表达式对应的结构体声明
func (w *structWalker) resolveStruct(pkg *Package, file *File, typ ast.Expr) (*Package, *typeDecl, bool) {
	switch e := typ.(type) {
	case *ast.Ident:
		decl, ok := pkg.types[e.Name]
		if !ok {
			return nil, nil, false
		}
		if _, isStruct := decl.spec.Type.(*ast.StructType); !isStruct || decl.spec.TypeParams != nil {
			return nil, nil, false
		}
		return pkg, decl, true
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok {
			return nil, nil, false
		}
		importPath, ok := file.Imports[x.Name]
		if !ok {
			return nil, nil, false
		}
		target, err := w.loader.LoadImport(pkg.Dir, importPath)
		if err != nil {
			return nil, nil, false
		}
		decl, ok := target.types[e.Sel.Name]
		if !ok {
			return nil, nil, false
		}
		if _, isStruct := decl.spec.Type.(*ast.StructType); !isStruct || decl.spec.TypeParams != nil {
			return nil, nil, false
		}
		return target, decl, true
	}
	return nil, nil, false
}

// embeddedName 返回匿名字段的字段名
func embeddedName(typ ast.Expr) string {
	switch e := typ.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return embeddedName(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(e.X)
	case *ast.IndexListExpr:
		return embeddedName(e.X)
	}
	return ""
}

// shadowFields 同名字段只保留嵌入深度最浅的一个；深度相同时保留先声明的
func shadowFields(fields []*FieldInfo) []*FieldInfo {
	best := make(map[string]*FieldInfo, len(fields))
	for _, f := range fields {
		if cur, ok := best[f.Name]; !ok || f.Depth < cur.Depth {
			best[f.Name] = f
		}
	}
	result := make([]*FieldInfo, 0, len(best))
	for _, f := range fields {
		if best[f.Name] == f {
			result = append(result, f)
		}
	}
	return result
}

func allExported(path []string) bool {
	for _, p := range path {
		if !ast.IsExported(p) {
			return false
		}
	}
	return true
}

func clonePath(path []string) []string {
	return append([]string(nil), path...)
}
