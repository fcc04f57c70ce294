package structparse

import (
	"go/token"

	"github.com/donutnomad/litegen/internal/model"
	"github.com/donutnomad/litegen/plugin"
)

// maxEmbeddingDepth 最大嵌套深度限制
const maxEmbeddingDepth = 10

// FieldInfo 表示结构体字段信息
type FieldInfo struct {
	Name       string         // 字段名；匿名字段为类型名
	Path       []string       // 从根结构体出发的选择器路径
	Type       *model.TypeRef // 字段类型
	Tag        string         // 原始标签（不含反引号）
	Exported   bool           // 路径上的每一段都可导出
	Depth      int            // 嵌入深度，根结构体为 0
	SourceType string         // 字段来源类型，为空表示来自结构体本身
	Pos        token.Position
}

// ParamInfo 参数/返回值信息
type ParamInfo struct {
	Name string // 未命名时为空
	Type *model.TypeRef
}

// MethodInfo 表示方法信息
type MethodInfo struct {
	Name            string
	Receiver        string // 声明方法的类型名（提升方法为嵌入类型）
	PointerReceiver bool
	Params          []*ParamInfo
	Results         []*ParamInfo
	Variadic        bool // 最后一个参数是否为 ...T
	Annotations     []*plugin.Annotation
	Depth           int // 提升深度，直接声明为 0
	Pos             token.Position
}

// StructInfo 表示结构体信息
type StructInfo struct {
	Name        string
	PackageName string
	PkgPath     string // 导入路径，不在 module 内时为空
	Dir         string
	FilePath    string
	Annotations []*plugin.Annotation
	Fields      []*FieldInfo
	Methods     []*MethodInfo
	Unexpanded  []string          // 无法展开的嵌入接口，如 io.Closer
	Imports     map[string]string // 声明文件中的包名 -> 导入路径
}

// InterfaceInfo 接口信息
type InterfaceInfo struct {
	Name        string
	PackageName string
	PkgPath     string
	Dir         string
	FilePath    string
	Methods     []*MethodInfo
	Unexpanded  []string          // 无法展开的嵌入接口，如 io.Closer
	Imports     map[string]string // 声明文件中的包名 -> 导入路径
}
