// Package ormgen 为 @Entity 结构体生成映射器，为 @Storage 接口生成 CRUD 实现
//
// 一次 Generate 调用内先处理所有实体，再处理存储接口，
// 存储接口只能引用本次运行中成功生成的实体。
package ormgen

import (
	"fmt"
	"time"

	"github.com/donutnomad/litegen/internal/structparse"
	"github.com/donutnomad/litegen/plugin"
)

const generatorName = "ormgen"

const (
	AnnotationEntity  = "Entity"
	AnnotationStorage = "Storage"
)

// 默认输出文件，$TYPE 为类型名的 snake_case 形式
const (
	DefaultMapperOutput  = "$TYPE_mapper.go"
	DefaultStorageOutput = "$TYPE_storage.go"
)

// Params @Entity 与 @Storage 共用的参数，未使用的参数保持零值
type Params struct {
	Table      string   `param:"name=table,required=false,default=,description=表名，默认由类型名与 naming 计算"`
	PrimaryKey []string `param:"name=primary_key,required=false,default=,description=主键字段名，多个时用引号包裹并以逗号分隔"`
	Serializer string   `param:"name=serializer,required=false,default=,description=序列化器类型，Type 或 pkg.Type"`
	Naming     string   `param:"name=naming,required=false,default=,description=表名与列名的命名策略: snake 或 plural"`
	Entity     string   `param:"name=entity,required=false,default=,description=@Storage 操作的实体类型，默认从方法签名推断"`
	Output     string   `param:"name=output,required=false,default=,description=输出文件路径，支持 $FILE $PACKAGE $TYPE"`
}

// Generator 实现 plugin.Generator
type Generator struct {
	plugin.BaseGenerator
}

func New() *Generator {
	return &Generator{
		BaseGenerator: *plugin.NewBaseGenerator(
			generatorName,
			[]string{AnnotationEntity, AnnotationStorage},
			[]plugin.TargetKind{plugin.TargetStruct, plugin.TargetInterface},
			Params{},
		),
	}
}

// Generate 执行代码生成
// 单元级错误写入 result.Errors，不影响其他单元
func (g *Generator) Generate(ctx *plugin.GenerateContext) (*plugin.GenerateResult, error) {
	start := time.Now()
	result := plugin.NewGenerateResult()
	if len(ctx.Targets) == 0 {
		return result, nil
	}

	r := newRun(g.Name(), ctx, result, structparse.NewLoader())

	var entities, storages []*plugin.AnnotatedTarget
	for _, at := range ctx.Targets {
		switch at.Target.Kind {
		case plugin.TargetStruct:
			entities = append(entities, at)
		case plugin.TargetInterface:
			storages = append(storages, at)
		}
	}

	for _, at := range entities {
		if err := r.entity(at); err != nil {
			r.fail(at, err)
		}
	}
	for _, at := range storages {
		if err := r.storage(at); err != nil {
			r.fail(at, err)
		}
	}

	if ctx.Verbose {
		fmt.Printf("[%s] 实体 %d 个, 存储接口 %d 个, 失败 %d 个 (耗时: %v)\n",
			g.Name(), len(r.entities), r.storages, len(result.Errors), time.Since(start))
	}
	return result, nil
}

// params 取出绑定好的参数
func params(at *plugin.AnnotatedTarget) (Params, error) {
	if at.ParsedParams == nil {
		return Params{}, nil
	}
	p, ok := at.ParsedParams.(Params)
	if !ok {
		return Params{}, fmt.Errorf("ParsedParams 类型断言失败: %T", at.ParsedParams)
	}
	return p, nil
}

var _ plugin.Generator = (*Generator)(nil)
