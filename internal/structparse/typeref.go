package structparse

import (
	"go/ast"
	"go/types"

	"github.com/donutnomad/litegen/internal/model"
)

// typeRef 将类型表达式转换为 model.TypeRef
// 本包命名类型使用包的导入路径限定，导入类型使用文件的导入表解析
func (p *Package) typeRef(file *File, expr ast.Expr) *model.TypeRef {
	ref := &model.TypeRef{Source: types.ExprString(expr)}

	switch e := expr.(type) {
	case *ast.Ident:
		ref.Kind = model.TypeNamed
		ref.Name = e.Name
		if !model.IsPredeclared(e.Name) {
			ref.PkgPath = p.Path
		}
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok {
			ref.Kind = model.TypeOther
			break
		}
		path, ok := file.Imports[x.Name]
		if !ok {
			ref.Kind = model.TypeOther
			break
		}
		ref.Kind = model.TypeNamed
		ref.Name = e.Sel.Name
		ref.PkgPath = path
	case *ast.StarExpr:
		ref.Kind = model.TypePointer
		ref.Elem = p.typeRef(file, e.X)
	case *ast.ArrayType:
		ref.Elem = p.typeRef(file, e.Elt)
		if e.Len == nil {
			ref.Kind = model.TypeSlice
		} else {
			ref.Kind = model.TypeArray
			ref.Len = types.ExprString(e.Len)
		}
	case *ast.MapType:
		ref.Kind = model.TypeMap
		ref.Key = p.typeRef(file, e.Key)
		ref.Elem = p.typeRef(file, e.Value)
	case *ast.Ellipsis:
		ref.Kind = model.TypeEllipsis
		ref.Elem = p.typeRef(file, e.Elt)
	case *ast.FuncType:
		ref.Kind = model.TypeFunc
	case *ast.ChanType:
		ref.Kind = model.TypeChan
	case *ast.ParenExpr:
		return p.typeRef(file, e.X)
	default:
		ref.Kind = model.TypeOther
	}
	return ref
}
