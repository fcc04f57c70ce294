// Package model 定义实体分析的结果
//
// 模型在一次生成运行中只构建一次，校验通过后不再修改；
// DDL 与代码发射器只读取模型。
package model

import "strings"

// TypeKind Go 类型表达式的种类
type TypeKind int

const (
	TypeNamed    TypeKind = iota + 1 // 命名类型（预声明类型、本包类型或 pkg.Type）
	TypePointer                      // *T
	TypeSlice                        // []T
	TypeArray                        // [N]T
	TypeMap                          // map[K]V
	TypeEllipsis                     // ...T，仅出现在变参
	TypeFunc                         // func(...)
	TypeChan                         // chan T
	TypeOther                        // 其他（接口字面量、泛型实例化等）
)

// TypeRef 描述源码中的一个类型表达式
type TypeRef struct {
	Kind    TypeKind
	Name    string   // TypeNamed: 类型名
	PkgPath string   // TypeNamed: 定义所在包的导入路径，预声明类型为空
	Len     string   // TypeArray: 长度表达式
	Key     *TypeRef // TypeMap: key 类型
	Elem    *TypeRef // 指针、切片、数组、map、变参的元素类型
	Source  string   // 源码中的写法
}

// predeclared 预声明类型
var predeclared = map[string]bool{
	"bool": true, "byte": true, "complex64": true, "complex128": true, "error": true,
	"float32": true, "float64": true, "int": true, "int8": true, "int16": true,
	"int32": true, "int64": true, "rune": true, "string": true, "uint": true,
	"uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"any": true, "comparable": true,
}

// IsPredeclared 判断名称是否为预声明类型
func IsPredeclared(name string) bool {
	return predeclared[name]
}

// Named 构造命名类型
func Named(pkgPath, name string) *TypeRef {
	src := name
	if pkgPath != "" {
		src = pkgPath[strings.LastIndex(pkgPath, "/")+1:] + "." + name
	}
	return &TypeRef{Kind: TypeNamed, Name: name, PkgPath: pkgPath, Source: src}
}

// Builtin 判断是否为指定的预声明类型，byte/uint8 与 rune/int32 视为相同
func (t *TypeRef) Builtin() (string, bool) {
	if t == nil || t.Kind != TypeNamed || t.PkgPath != "" || !predeclared[t.Name] {
		return "", false
	}
	return canonicalBuiltin(t.Name), true
}

// IsError 是否为 error
func (t *TypeRef) IsError() bool {
	name, ok := t.Builtin()
	return ok && name == "error"
}

// Is 判断是否为 pkgPath.name 命名类型
func (t *TypeRef) Is(pkgPath, name string) bool {
	return t != nil && t.Kind == TypeNamed && t.PkgPath == pkgPath && t.Name == name
}

// Identical 按规范形式比较两个类型
func (t *TypeRef) Identical(o *TypeRef) bool {
	return t.String() == o.String()
}

// String 返回类型的规范形式，命名类型使用完整导入路径限定
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeNamed:
		if t.PkgPath == "" {
			return canonicalBuiltin(t.Name)
		}
		return t.PkgPath + "." + t.Name
	case TypePointer:
		return "*" + t.Elem.String()
	case TypeSlice:
		return "[]" + t.Elem.String()
	case TypeArray:
		return "[" + t.Len + "]" + t.Elem.String()
	case TypeMap:
		return "map[" + t.Key.String() + "]" + t.Elem.String()
	case TypeEllipsis:
		return "..." + t.Elem.String()
	default:
		return t.Source
	}
}

func canonicalBuiltin(name string) string {
	switch name {
	case "byte":
		return "uint8"
	case "rune":
		return "int32"
	default:
		return name
	}
}

// Kind 字段的存储种类
type Kind int

const (
	KindBool Kind = iota + 1
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindOther // 需要序列化器
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindShort:
		return "short"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Native 是否为可直接存储的种类
func (k Kind) Native() bool {
	return k >= KindBool && k <= KindString
}

// Entity 实体模型
type Entity struct {
	Name     string // Go 类型名
	PkgName  string // 包名
	PkgPath  string // 导入路径，未知时为空
	Dir      string // 包目录
	FilePath string // 声明所在文件
	Table    string

	Fields     []*Field                      // 声明顺序
	Serializer *SerializerRef                // 可选
	Bindings   map[string]*SerializerBinding // key: 字段名
}

// PrimaryKeys 按声明顺序返回主键字段
func (e *Entity) PrimaryKeys() []*Field {
	var keys []*Field
	for _, f := range e.Fields {
		if f.Primary {
			keys = append(keys, f)
		}
	}
	return keys
}

// Field 返回指定名称的字段
func (e *Entity) Field(name string) *Field {
	for _, f := range e.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Columns 按声明顺序返回所有列名
func (e *Entity) Columns() []string {
	cols := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Field 字段模型
type Field struct {
	Name        string   // Go 字段名
	Path        []string // 从实体出发的选择器路径（嵌入字段包含中间结构体名）
	Type        *TypeRef
	Kind        Kind
	StorageKind Kind     // 序列化后的存储种类；非序列化字段与 Kind 相同
	StorageType *TypeRef // 行读取时使用的类型
	Column      string
	Primary     bool
	Serialize   string // 标签中的 serialize 提示
	Foreign     string // 标签中的 references 提示

	Getter Expr   // 读取字段值（已组合序列化）
	Setter Setter // 写入字段值（已组合反序列化与行读取）
}

// Serialized 字段是否通过序列化器存储
func (f *Field) Serialized() bool {
	return f.Kind == KindOther
}

// SerializerRef 实体引用的序列化器类型
type SerializerRef struct {
	Name    string // 类型名
	PkgPath string // 导入路径；与实体同包时等于实体的 PkgPath（可能为空）
	Local   bool   // 是否与实体同包
	Var     string // 生成的包级变量名
}

// MethodRef 方法引用
type MethodRef struct {
	Name   string
	Param  *TypeRef
	Result *TypeRef
}

// SerializerBinding 某个字段绑定的序列化/反序列化方法
type SerializerBinding struct {
	Serialize     MethodRef // Param 为字段类型，Result 为存储类型
	Deserialize   MethodRef // Param 为存储类型，Result 为字段类型
	StorageGoType *TypeRef
	StorageKind   Kind
}
