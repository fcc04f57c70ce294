// Package ddl 根据实体模型生成 SQLite 建表语句
package ddl

import (
	"strings"

	"github.com/samber/lo"

	"github.com/donutnomad/litegen/internal/model"
)

// SQLType 返回存储种类对应的列类型
func SQLType(kind model.Kind) (string, error) {
	switch kind {
	case model.KindBool, model.KindShort, model.KindInt, model.KindLong:
		return "INTEGER", nil
	case model.KindFloat, model.KindDouble:
		return "REAL", nil
	case model.KindString:
		return "TEXT", nil
	default:
		return "", model.Internalf("存储种类 %s 没有对应的列类型", kind)
	}
}

// CreateTable 生成 CREATE TABLE IF NOT EXISTS 语句
//
// 单主键内联为 "<col> <type> NOT NULL PRIMARY KEY"；
// 复合主键的每一列带 NOT NULL，末尾追加 PRIMARY KEY(c1,c2)，顺序与字段声明顺序一致
func CreateTable(e *model.Entity) (string, error) {
	if len(e.Fields) == 0 {
		return "", model.Invalidf(e.Name, "", "没有可持久化的字段")
	}
	keys := e.PrimaryKeys()
	if len(keys) == 0 {
		return "", model.Invalidf(e.Name, "", "没有主键字段")
	}
	if e.Table == "" {
		return "", model.Invalidf(e.Name, "", "表名不能为空")
	}

	columns := make([]string, 0, len(e.Fields)+1)
	for _, f := range e.Fields {
		typ, err := SQLType(f.StorageKind)
		if err != nil {
			return "", err
		}
		col := f.Column + " " + typ
		if f.Primary {
			col += " NOT NULL"
			if len(keys) == 1 {
				col += " PRIMARY KEY"
			}
		}
		columns = append(columns, col)
	}
	if len(keys) > 1 {
		names := lo.Map(keys, func(f *model.Field, _ int) string { return f.Column })
		columns = append(columns, "PRIMARY KEY("+strings.Join(names, ",")+")")
	}

	return "CREATE TABLE IF NOT EXISTS " + e.Table + "(" + strings.Join(columns, ", ") + ")", nil
}

// IDWhere 主键谓词，如 "a=? AND b=?"
func IDWhere(e *model.Entity) string {
	conds := lo.Map(e.PrimaryKeys(), func(f *model.Field, _ int) string { return f.Column + "=?" })
	return strings.Join(conds, " AND ")
}
