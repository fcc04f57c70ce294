package model

// Expr 生成代码中的表达式
// 取值表达式以字段访问或方法调用为起点，可被序列化调用包裹；
// 行读取表达式只出现在写入一侧
type Expr interface {
	isExpr()
}

// FieldExpr 直接访问字段: e.A.B
type FieldExpr struct {
	Path []string
}

// CallExpr 调用无参方法: e.Method()
type CallExpr struct {
	Method string
}

// SerializerCall 调用序列化器方法: <Var>.<Method>(<Inner>)
type SerializerCall struct {
	Var    string
	Method string
	Inner  Expr
}

// RowReadExpr 从行中按列读取: row.<Reader>("<Column>")
type RowReadExpr struct {
	Column string
	Reader string
}

func (FieldExpr) isExpr()      {}
func (CallExpr) isExpr()       {}
func (SerializerCall) isExpr() {}
func (RowReadExpr) isExpr()    {}

// Setter 写入字段的方式
type Setter interface {
	isSetter()
	SetValue() Expr
}

// AssignField 直接赋值: e.A.B = <Value>
type AssignField struct {
	Path  []string
	Value Expr
}

// CallSetter 调用 setter 方法: e.Method(<Value>)
type CallSetter struct {
	Method string
	Value  Expr
}

func (AssignField) isSetter() {}
func (CallSetter) isSetter()  {}

func (s AssignField) SetValue() Expr { return s.Value }
func (s CallSetter) SetValue() Expr  { return s.Value }
