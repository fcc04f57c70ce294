// Package emit 使用 jennifer 将实体模型与存储模型渲染为 Go 源码
//
// 发射器只读取模型，相同的模型总是得到相同的字节。
package emit

import (
	"bytes"

	"github.com/dave/jennifer/jen"

	"github.com/donutnomad/litegen/internal/model"
	"github.com/donutnomad/litegen/plugin"
)

// RowstorePath 生成代码依赖的运行时包
const RowstorePath = "github.com/donutnomad/litegen/rowstore"

// 生成代码中的接收者与局部变量名
const (
	entityVar = "e"
	rowVar    = "row"
)

func newFile(pkgPath, pkgName string) *jen.File {
	f := jen.NewFilePathName(pkgPath, pkgName)
	f.HeaderComment(plugin.GeneratedHeader)
	f.ImportName(RowstorePath, "rowstore")
	return f
}

func render(f *jen.File, what string) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, model.Internalf("渲染 %s 失败: %v", what, err)
	}
	return buf.Bytes(), nil
}

// qual 引用命名类型或标识符，导入路径为空时不加限定
func qual(pkgPath, name string) *jen.Statement {
	if pkgPath == "" {
		return jen.Id(name)
	}
	return jen.Qual(pkgPath, name)
}

// typeCode 将类型表达式渲染为 jennifer 代码
func typeCode(t *model.TypeRef) *jen.Statement {
	switch t.Kind {
	case model.TypeNamed:
		return qual(t.PkgPath, t.Name)
	case model.TypePointer:
		return jen.Op("*").Add(typeCode(t.Elem))
	case model.TypeSlice:
		return jen.Index().Add(typeCode(t.Elem))
	case model.TypeArray:
		return jen.Index(jen.Op(t.Len)).Add(typeCode(t.Elem))
	case model.TypeMap:
		return jen.Map(typeCode(t.Key)).Add(typeCode(t.Elem))
	case model.TypeEllipsis:
		return jen.Op("...").Add(typeCode(t.Elem))
	default:
		// 函数、通道等类型原样输出，依赖源文件已有的导入
		return jen.Op(t.Source)
	}
}

// exprCode 渲染取值表达式，columns 将列名映射为列常量
func exprCode(x model.Expr, columns map[string]jen.Code) (*jen.Statement, error) {
	switch x := x.(type) {
	case model.FieldExpr:
		s := jen.Id(entityVar)
		for _, p := range x.Path {
			s = s.Dot(p)
		}
		return s, nil
	case model.CallExpr:
		return jen.Id(entityVar).Dot(x.Method).Call(), nil
	case model.SerializerCall:
		inner, err := exprCode(x.Inner, columns)
		if err != nil {
			return nil, err
		}
		return jen.Id(x.Var).Dot(x.Method).Call(inner), nil
	case model.RowReadExpr:
		col, ok := columns[x.Column]
		if !ok {
			col = jen.Lit(x.Column)
		}
		return jen.Id(rowVar).Dot(x.Reader).Call(col), nil
	default:
		return nil, model.Internalf("未知的表达式 %T", x)
	}
}

// setterCode 渲染写入语句
func setterCode(s model.Setter, columns map[string]jen.Code) (*jen.Statement, error) {
	value, err := exprCode(s.SetValue(), columns)
	if err != nil {
		return nil, err
	}
	switch s := s.(type) {
	case model.AssignField:
		target := jen.Id(entityVar)
		for _, p := range s.Path {
			target = target.Dot(p)
		}
		return target.Op("=").Add(value), nil
	case model.CallSetter:
		return jen.Id(entityVar).Dot(s.Method).Call(value), nil
	default:
		return nil, model.Internalf("未知的写入方式 %T", s)
	}
}
