// Package analyze 将源码声明分析为 model 中的实体与存储模型
//
// 分析分为四步，任何一步失败都返回 *model.EntityError，只影响当前实体:
//
//  1. 成员解析: structparse 展开字段与方法
//  2. 字段分类: 列名、存储种类、主键
//  3. 序列化绑定: 非原生类型字段匹配 @Serialize/@Deserialize 方法
//  4. 访问器解析: 每个字段的读取表达式与写入表达式
package analyze

import (
	"github.com/donutnomad/litegen/internal/model"
	"github.com/donutnomad/litegen/internal/structparse"
	"github.com/donutnomad/litegen/internal/utils"
)

// EntityOptions @Entity 注解上的参数
type EntityOptions struct {
	Table      string       // 表名，为空时由 Naming 根据类型名计算
	PrimaryKey []string     // 主键字段名列表，为空时只看标签
	Serializer string       // 序列化器类型，Type 或 pkg.Type
	Naming     utils.Naming // 表名与列名的命名策略
}

// Entity 分析 dir 目录下名为 name 的实体结构体
func Entity(loader *structparse.Loader, dir, name string, opts EntityOptions) (*model.Entity, error) {
	info, err := loader.Struct(dir, name)
	if err != nil {
		return nil, model.Invalidf(name, "", "无法解析结构体").Wrap(err)
	}

	e := &model.Entity{
		Name:     info.Name,
		PkgName:  info.PackageName,
		PkgPath:  info.PkgPath,
		Dir:      info.Dir,
		FilePath: info.FilePath,
		Table:    opts.Table,
	}
	if e.Table == "" {
		e.Table = opts.Naming.Table(name)
	}

	fields, err := classifyFields(name, info, opts)
	if err != nil {
		return nil, err
	}
	e.Fields = fields

	if err := bindSerializers(loader, e, info, opts.Serializer); err != nil {
		return nil, err
	}

	idx, err := indexAccessors(name, info.Methods, fields)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if err := resolveAccessors(e, idx, f); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// bindSerializers 为所有 KindOther 字段绑定序列化方法
func bindSerializers(loader *structparse.Loader, e *model.Entity, info *structparse.StructInfo, spec string) error {
	var others []*model.Field
	for _, f := range e.Fields {
		if f.Kind == model.KindOther {
			others = append(others, f)
		}
	}
	if len(others) == 0 {
		return nil
	}
	if spec == "" {
		f := others[0]
		return model.Invalidf(e.Name, f.Name, "类型 %s 没有对应的 SQL 类型，需要在 @Entity(serializer=...) 中指定序列化器", f.Type.Source)
	}

	unit, err := loadSerializer(loader, e.Name, info, spec)
	if err != nil {
		return err
	}
	e.Serializer = unit.ref
	e.Bindings = make(map[string]*model.SerializerBinding, len(others))
	for _, f := range others {
		binding, err := unit.bind(e.Name, f)
		if err != nil {
			return err
		}
		f.StorageKind = binding.StorageKind
		f.StorageType = binding.StorageGoType
		e.Bindings[f.Name] = binding
	}
	return nil
}

// resolveAccessors 构造字段的读取与写入表达式，并在两侧套上序列化调用
func resolveAccessors(e *model.Entity, idx *accessorIndex, f *model.Field) error {
	getter, err := idx.resolveGetter(e.Name, f)
	if err != nil {
		return err
	}
	var read model.Expr = model.RowReadExpr{Column: f.Column, Reader: RowReader(f.StorageType)}

	if binding, ok := e.Bindings[f.Name]; ok {
		getter = model.SerializerCall{Var: e.Serializer.Var, Method: binding.Serialize.Name, Inner: getter}
		read = model.SerializerCall{Var: e.Serializer.Var, Method: binding.Deserialize.Name, Inner: read}
	} else if !f.Kind.Native() {
		return model.Internalf("字段 %s.%s 的种类 %s 没有绑定序列化器", e.Name, f.Name, f.Kind)
	}

	setter, err := idx.resolveSetter(e.Name, f, read)
	if err != nil {
		return err
	}
	f.Getter = getter
	f.Setter = setter
	return nil
}
