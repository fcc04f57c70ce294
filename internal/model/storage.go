package model

// MethodKind 存储方法的操作类型
type MethodKind int

const (
	MethodCreateTable MethodKind = iota + 1
	MethodInsert
	MethodReplace
	MethodUpdate
	MethodDeleteEntity    // 按实体主键删除
	MethodDeletePredicate // 按 where 条件删除
	MethodSelectOne
	MethodSelectMany
)

func (k MethodKind) String() string {
	switch k {
	case MethodCreateTable:
		return "CreateTable"
	case MethodInsert:
		return "Insert"
	case MethodReplace:
		return "Replace"
	case MethodUpdate:
		return "Update"
	case MethodDeleteEntity:
		return "DeleteEntity"
	case MethodDeletePredicate:
		return "DeletePredicate"
	case MethodSelectOne:
		return "SelectOne"
	case MethodSelectMany:
		return "SelectMany"
	default:
		return "Unknown"
	}
}

// Shape 实体参数或结果的形态
type Shape int

const (
	ShapePointer       Shape = iota + 1 // *E
	ShapeValue                          // E
	ShapePointerSlice                   // []*E
	ShapeValueSlice                     // []E
	ShapePointerVarargs                 // ...*E
	ShapeValueVarargs                   // ...E
)

// Multiple 是否为多个实体
func (s Shape) Multiple() bool {
	return s >= ShapePointerSlice
}

// ByPointer 元素是否为指针
func (s Shape) ByPointer() bool {
	return s == ShapePointer || s == ShapePointerSlice || s == ShapePointerVarargs
}

// Param 方法参数
type Param struct {
	Name string // 生成代码中使用的参数名
	Type *TypeRef
}

// Storage 存储接口模型
type Storage struct {
	Name     string // 接口名
	PkgName  string
	PkgPath  string
	Dir      string
	FilePath string
	Entity   *Entity
	Methods  []*StorageMethod // 声明顺序
}

// StorageMethod 存储方法模型
type StorageMethod struct {
	Name string
	Kind MethodKind

	// Signature 完整参数列表（包括 context 与实体参数），用于复现方法签名
	Signature []Param
	Variadic  bool
	Results   []*TypeRef

	Context     *Param // 首个参数为 context.Context 时非空
	EntityParam *Param
	EntityShape Shape
	Args        []Param // 谓词参数，顺序与占位符一致

	Where   string
	OrderBy string
	Limit   string

	// CountType 返回影响行数时的整数类型，仅返回 error 时为空
	CountType *TypeRef
	// ResultShape 查询结果形态：单条为 ShapePointer，多条为 ShapePointerSlice 或 ShapeValueSlice
	ResultShape Shape
}
