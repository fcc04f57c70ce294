package plugin

import "reflect"

// Generator 是代码生成器接口
type Generator interface {
	// Name 返回生成器名称
	Name() string

	// Annotations 返回该生成器绑定的注解
	// 一个注解只能绑定一个生成器
	Annotations() []string

	// SupportedTargets 返回支持的目标类型
	SupportedTargets() []TargetKind

	// ParamDefs 返回注解支持的参数定义
	ParamDefs() []ParamDef

	// NewParams 创建参数结构体实例（指针），nil 表示不需要参数
	NewParams() any

	// Generate 执行代码生成
	// 单元级错误写入 GenerateResult.Errors，返回的 error 会中止本次运行
	Generate(ctx *GenerateContext) (*GenerateResult, error)
}

// BaseGenerator 提供基础实现，可嵌入
type BaseGenerator struct {
	name        string
	annotations []string
	targets     []TargetKind
	paramDefs   []ParamDef
	paramsProto any
}

// NewBaseGenerator 创建基础生成器
// paramsProto: 参数结构体的零值实例，nil 表示没有参数
func NewBaseGenerator(name string, annotations []string, targets []TargetKind, paramsProto any) *BaseGenerator {
	g := &BaseGenerator{
		name:        name,
		annotations: annotations,
		targets:     targets,
		paramsProto: paramsProto,
	}
	if paramsProto != nil {
		g.paramDefs = ParseParamsFromStruct(paramsProto)
	}
	return g
}

func (g *BaseGenerator) Name() string {
	return g.name
}

func (g *BaseGenerator) Annotations() []string {
	return g.annotations
}

func (g *BaseGenerator) SupportedTargets() []TargetKind {
	return g.targets
}

func (g *BaseGenerator) ParamDefs() []ParamDef {
	return g.paramDefs
}

// NewParams 通过反射创建参数结构体的新实例
func (g *BaseGenerator) NewParams() any {
	if g.paramsProto == nil {
		return nil
	}
	typ := reflect.TypeOf(g.paramsProto)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return reflect.New(typ).Interface()
}
