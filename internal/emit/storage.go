package emit

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/donutnomad/litegen/internal/model"
	"github.com/donutnomad/litegen/internal/utils"
)

// ImplName 存储接口实现的类型名
func ImplName(iface string) string {
	return utils.LowerFirst(iface) + "Impl"
}

// Storage 生成存储接口的实现文件
// 实现只依赖 rowstore.Store 与实体的映射器，映射器可以位于其他包
func Storage(s *model.Storage) ([]byte, error) {
	if s.Entity == nil {
		return nil, model.Internalf("存储接口 %s 没有实体", s.Name)
	}
	f := newFile(s.PkgPath, s.PkgName)
	impl := ImplName(s.Name)
	iface := qual(s.PkgPath, s.Name)

	f.Type().Id(impl).Struct(
		jen.Id("store").Qual(RowstorePath, "Store"),
		jen.Id("mapper").Add(qual(s.Entity.PkgPath, MapperName(s.Entity.Name))),
	)
	f.Line()
	f.Comment(fmt.Sprintf("New%s 创建基于 rowstore.Store 的 %s 实现", s.Name, s.Name))
	f.Func().Id("New"+s.Name).Params(jen.Id("store").Qual(RowstorePath, "Store")).Add(iface.Clone()).Block(
		jen.Return(jen.Op("&").Id(impl).Values(jen.Id("store").Op(":").Id("store"))),
	)
	f.Line()
	f.Var().Id("_").Add(iface.Clone()).Op("=").Parens(jen.Op("*").Id(impl)).Parens(jen.Nil())

	for _, m := range s.Methods {
		body, err := methodBody(m)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Name, m.Name, err)
		}
		f.Line()
		f.Func().Params(jen.Id("s").Op("*").Id(impl)).Id(m.Name).
			ParamsFunc(func(g *jen.Group) {
				for _, p := range m.Signature {
					g.Id(p.Name).Add(typeCode(p.Type))
				}
			}).
			Add(results(m.Results)).
			Block(body...)
	}
	return render(f, "存储接口 "+s.Name)
}

func results(types []*model.TypeRef) jen.Code {
	if len(types) == 1 {
		return typeCode(types[0])
	}
	return jen.ParamsFunc(func(g *jen.Group) {
		for _, t := range types {
			g.Add(typeCode(t))
		}
	})
}

// methodCode 构造单个方法体时的上下文
type methodCode struct {
	m   *model.StorageMethod
	ctx jen.Code
}

func (c *methodCode) store(method string) *jen.Statement {
	return jen.Id("s").Dot("store").Dot(method)
}

func (c *methodCode) mapper(method string, args ...jen.Code) *jen.Statement {
	return jen.Id("s").Dot("mapper").Dot(method).Call(args...)
}

func (c *methodCode) table() *jen.Statement {
	return c.mapper("TableName")
}

// count 将 int64 的影响行数转换为声明的整数类型
func (c *methodCode) count(n jen.Code) *jen.Statement {
	if c.m.CountType.Is("", "int64") {
		return jen.Add(n)
	}
	return typeCode(c.m.CountType).Call(n)
}

func methodBody(m *model.StorageMethod) ([]jen.Code, error) {
	c := &methodCode{m: m}
	var body []jen.Code
	if m.Context != nil {
		c.ctx = jen.Id(m.Context.Name)
	} else {
		body = append(body, jen.Id("ctx").Op(":=").Qual("context", "Background").Call())
		c.ctx = jen.Id("ctx")
	}

	switch m.Kind {
	case model.MethodCreateTable:
		body = append(body,
			jen.List(jen.Id("_"), jen.Err()).Op(":=").Add(c.store("Exec")).Call(c.ctx, c.mapper("CreateTableSQL")),
			jen.Return(jen.Err()),
		)
	case model.MethodInsert, model.MethodReplace:
		body = append(body, c.write(m.Kind.String())...)
	case model.MethodUpdate, model.MethodDeleteEntity:
		body = append(body, c.byID()...)
	case model.MethodDeletePredicate:
		args := []jen.Code{c.ctx, c.table(), jen.Lit(m.Where)}
		for _, p := range m.Args {
			args = append(args, jen.Id(p.Name))
		}
		body = append(body, c.affected(c.store("Delete").Call(args...))...)
	case model.MethodSelectOne, model.MethodSelectMany:
		body = append(body, c.query()...)
	default:
		return nil, model.Internalf("未知的方法类型 %s", m.Kind)
	}
	return body, nil
}

// single 单个实体参数的指针表达式
func (c *methodCode) single() jen.Code {
	if c.m.EntityShape == model.ShapeValue {
		return jen.Op("&").Id(c.m.EntityParam.Name)
	}
	return jen.Id(c.m.EntityParam.Name)
}

// each 依次处理实体参数的每个元素，entity 为指向元素的表达式
func (c *methodCode) each(stmt func(entity jen.Code) []jen.Code) []jen.Code {
	p := c.m.EntityParam.Name
	switch c.m.EntityShape {
	case model.ShapePointer, model.ShapeValue:
		return stmt(c.single())
	case model.ShapePointerSlice, model.ShapePointerVarargs:
		return []jen.Code{jen.For(jen.List(jen.Id("_"), jen.Id("item")).Op(":=").Range().Id(p)).Block(stmt(jen.Id("item"))...)}
	default:
		return []jen.Code{jen.For(jen.Id("i").Op(":=").Range().Id(p)).Block(stmt(jen.Op("&").Id(p).Index(jen.Id("i")))...)}
	}
}

// write 生成 Insert 与 Replace
func (c *methodCode) write(method string) []jen.Code {
	call := func(entity jen.Code) *jen.Statement {
		return c.store(method).Call(c.ctx, c.table(), c.mapper("ToRow", entity))
	}
	if !c.m.EntityShape.Multiple() {
		return []jen.Code{jen.Return(call(c.single()))}
	}
	return append(c.each(func(entity jen.Code) []jen.Code {
		return []jen.Code{
			jen.If(jen.Err().Op(":=").Add(call(entity)), jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err())),
		}
	}), jen.Return(jen.Nil()))
}

// byID 生成按主键更新或删除
func (c *methodCode) byID() []jen.Code {
	call := func(entity jen.Code) *jen.Statement {
		where, args := c.mapper("IDWhere"), c.mapper("IDArgs", entity).Op("...")
		if c.m.Kind == model.MethodUpdate {
			return c.store("Update").Call(c.ctx, c.table(), c.mapper("ToRow", entity), where, args)
		}
		return c.store("Delete").Call(c.ctx, c.table(), where, args)
	}
	if !c.m.EntityShape.Multiple() {
		return c.affected(call(c.single()))
	}

	if c.m.CountType == nil {
		return append(c.each(func(entity jen.Code) []jen.Code {
			return []jen.Code{
				jen.If(jen.List(jen.Id("_"), jen.Err()).Op(":=").Add(call(entity)), jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err())),
			}
		}), jen.Return(jen.Nil()))
	}
	body := []jen.Code{jen.Var().Id("total").Int64()}
	body = append(body, c.each(func(entity jen.Code) []jen.Code {
		return []jen.Code{
			jen.List(jen.Id("n"), jen.Err()).Op(":=").Add(call(entity)),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(c.count(jen.Id("total")), jen.Err())),
			jen.Id("total").Op("+=").Id("n"),
		}
	})...)
	return append(body, jen.Return(c.count(jen.Id("total")), jen.Nil()))
}

// affected 返回单条语句的结果，按签名决定是否带影响行数
func (c *methodCode) affected(call *jen.Statement) []jen.Code {
	if c.m.CountType == nil {
		return []jen.Code{
			jen.List(jen.Id("_"), jen.Err()).Op(":=").Add(call),
			jen.Return(jen.Err()),
		}
	}
	return []jen.Code{
		jen.List(jen.Id("n"), jen.Err()).Op(":=").Add(call),
		jen.Return(c.count(jen.Id("n")), jen.Err()),
	}
}

// query 生成 @Select，游标在所有路径上关闭
func (c *methodCode) query() []jen.Code {
	m := c.m
	q := jen.Dict{
		jen.Id("Table"):   c.table(),
		jen.Id("Columns"): c.mapper("Columns"),
	}
	if m.Where != "" {
		q[jen.Id("Where")] = jen.Lit(m.Where)
	}
	if len(m.Args) > 0 {
		q[jen.Id("Args")] = jen.Index().Id("any").ValuesFunc(func(g *jen.Group) {
			for _, p := range m.Args {
				g.Id(p.Name)
			}
		})
	}
	if m.OrderBy != "" {
		q[jen.Id("OrderBy")] = jen.Lit(m.OrderBy)
	}
	limit := m.Limit
	if m.Kind == model.MethodSelectOne {
		limit = "1"
	}
	if limit != "" {
		q[jen.Id("Limit")] = jen.Lit(limit)
	}

	body := []jen.Code{
		jen.List(jen.Id("rows"), jen.Err()).Op(":=").Add(c.store("Query")).Call(
			c.ctx, jen.Op("&").Qual(RowstorePath, "Query").Values(q),
		),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
		jen.Defer().Id("rows").Dot("Close").Call(),
	}

	if m.Kind == model.MethodSelectOne {
		return append(body,
			jen.If(jen.Op("!").Id("rows").Dot("Next").Call()).Block(
				jen.Return(jen.Nil(), jen.Id("rows").Dot("Err").Call()),
			),
			jen.Return(c.mapper("FromRow", jen.Id("rows").Dot("Row").Call())),
		)
	}

	item := jen.Id("item")
	if m.ResultShape == model.ShapeValueSlice {
		item = jen.Op("*").Id("item")
	}
	return append(body,
		jen.Var().Id("result").Add(typeCode(m.Results[0])),
		jen.For(jen.Id("rows").Dot("Next").Call()).Block(
			jen.List(jen.Id("item"), jen.Err()).Op(":=").Add(c.mapper("FromRow", jen.Id("rows").Dot("Row").Call())),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
			jen.Id("result").Op("=").Append(jen.Id("result"), item),
		),
		jen.Return(jen.Id("result"), jen.Id("rows").Dot("Err").Call()),
	)
}
