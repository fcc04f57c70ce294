package emit

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/donutnomad/litegen/internal/ddl"
	"github.com/donutnomad/litegen/internal/model"
	"github.com/donutnomad/litegen/internal/utils"
)

// MapperName 映射器类型名
func MapperName(entity string) string {
	return entity + "Mapper"
}

// TableNameConst 表名常量名
func TableNameConst(entity string) string {
	return entity + "TableName"
}

// CreateTableConst 建表语句常量名
func CreateTableConst(entity string) string {
	return entity + "CreateTableSQL"
}

// ColumnConst 列常量名，与 analyze 中的唯一性检查一致
func ColumnConst(entity, field string) string {
	return entity + "Column" + utils.UpperFirst(field)
}

// Mapper 生成实体的映射器文件: 表名、建表语句、列常量、序列化器变量与 <E>Mapper
func Mapper(e *model.Entity) ([]byte, error) {
	createSQL, err := ddl.CreateTable(e)
	if err != nil {
		return nil, err
	}

	f := newFile(e.PkgPath, e.PkgName)
	entity := qual(e.PkgPath, e.Name)
	mapper := MapperName(e.Name)

	columns := make(map[string]jen.Code, len(e.Fields))
	for _, field := range e.Fields {
		columns[field.Column] = jen.Id(ColumnConst(e.Name, field.Name))
	}

	f.Const().Defs(
		jen.Id(TableNameConst(e.Name)).Op("=").Lit(e.Table),
		jen.Id(CreateTableConst(e.Name)).Op("=").Lit(createSQL),
	)
	f.Line()

	f.Comment(fmt.Sprintf("%s 的列名", e.Name))
	f.Const().DefsFunc(func(g *jen.Group) {
		for _, field := range e.Fields {
			def := jen.Id(ColumnConst(e.Name, field.Name)).Op("=").Lit(field.Column)
			if field.Foreign != "" {
				def.Comment("references " + field.Foreign)
			}
			g.Add(def)
		}
	})

	if s := e.Serializer; s != nil {
		f.Line()
		f.Var().Id(s.Var).Add(qual(s.PkgPath, s.Name))
	}

	f.Line()
	f.Comment(fmt.Sprintf("%s %s 与 rowstore 行之间的转换", mapper, e.Name))
	f.Type().Id(mapper).Struct()
	f.Line()
	f.Var().Id("_").Qual(RowstorePath, "Mapper").Types(entity.Clone()).Op("=").Id(mapper).Values()

	recv := jen.Id(mapper)

	f.Func().Params(recv.Clone()).Id("TableName").Params().String().Block(
		jen.Return(jen.Id(TableNameConst(e.Name))),
	)

	f.Func().Params(recv.Clone()).Id("Columns").Params().Index().String().Block(
		jen.Return(jen.Index().String().ValuesFunc(func(g *jen.Group) {
			for _, field := range e.Fields {
				g.Add(columns[field.Column])
			}
		})),
	)

	f.Func().Params(recv.Clone()).Id("CreateTableSQL").Params().String().Block(
		jen.Return(jen.Id(CreateTableConst(e.Name))),
	)

	toRow, err := toRowBody(e, columns)
	if err != nil {
		return nil, err
	}
	f.Func().Params(recv.Clone()).Id("ToRow").Params(
		jen.Id(entityVar).Op("*").Add(entity.Clone()),
	).Op("*").Qual(RowstorePath, "Values").Block(toRow...)

	fromRow, err := fromRowBody(e, columns)
	if err != nil {
		return nil, err
	}
	f.Func().Params(recv.Clone()).Id("FromRow").Params(
		jen.Id(rowVar).Qual(RowstorePath, "Row"),
	).Params(jen.Op("*").Add(entity.Clone()), jen.Error()).Block(fromRow...)

	f.Func().Params(recv.Clone()).Id("IDWhere").Params().String().Block(
		jen.Return(jen.Lit(ddl.IDWhere(e))),
	)

	keys := make([]jen.Code, 0, len(e.PrimaryKeys()))
	for _, key := range e.PrimaryKeys() {
		getter, err := exprCode(key.Getter, columns)
		if err != nil {
			return nil, err
		}
		keys = append(keys, jen.Qual(RowstorePath, "KeyString").Call(getter))
	}
	f.Func().Params(recv.Clone()).Id("IDArgs").Params(
		jen.Id(entityVar).Op("*").Add(entity.Clone()),
	).Index().Id("any").Block(
		jen.Return(jen.Index().Id("any").Values(keys...)),
	)

	return render(f, "映射器 "+e.Name)
}

func toRowBody(e *model.Entity, columns map[string]jen.Code) ([]jen.Code, error) {
	body := []jen.Code{
		jen.Id("values").Op(":=").Qual(RowstorePath, "NewValues").Call(jen.Lit(len(e.Fields))),
	}
	for _, field := range e.Fields {
		getter, err := exprCode(field.Getter, columns)
		if err != nil {
			return nil, err
		}
		body = append(body, jen.Id("values").Dot("Put").Call(columns[field.Column], getter))
	}
	return append(body, jen.Return(jen.Id("values"))), nil
}

func fromRowBody(e *model.Entity, columns map[string]jen.Code) ([]jen.Code, error) {
	body := []jen.Code{
		jen.Id(entityVar).Op(":=").Op("&").Add(qual(e.PkgPath, e.Name)).Values(),
	}
	for _, field := range e.Fields {
		setter, err := setterCode(field.Setter, columns)
		if err != nil {
			return nil, err
		}
		body = append(body, setter)
	}
	return append(body,
		jen.If(jen.Err().Op(":=").Id(rowVar).Dot("Err").Call(), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.Return(jen.Id(entityVar), jen.Nil()),
	), nil
}
