package ormgen

import (
	"fmt"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"

	"github.com/donutnomad/litegen/internal/analyze"
	"github.com/donutnomad/litegen/internal/emit"
	"github.com/donutnomad/litegen/internal/model"
	"github.com/donutnomad/litegen/internal/structparse"
	"github.com/donutnomad/litegen/internal/utils"
	"github.com/donutnomad/litegen/plugin"
)

// dumper 详细模式下打印模型
var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	MaxDepth:                4,
}

// run 一次 Generate 调用的状态，也是存储分析使用的实体解析器
type run struct {
	name   string
	ctx    *plugin.GenerateContext
	result *plugin.GenerateResult
	loader *structparse.Loader

	entities map[string]*model.Entity // key: 实体类型的规范形式
	failed   map[string]error         // 分析或生成失败的实体
	storages int                      // 成功生成的存储接口数量
}

func newRun(name string, ctx *plugin.GenerateContext, result *plugin.GenerateResult, loader *structparse.Loader) *run {
	return &run{
		name:     name,
		ctx:      ctx,
		result:   result,
		loader:   loader,
		entities: make(map[string]*model.Entity),
		failed:   make(map[string]error),
	}
}

var _ analyze.EntityResolver = (*run)(nil)

// ResolveEntity 查找本次运行中已成功生成的实体
func (r *run) ResolveEntity(ref *model.TypeRef) (*model.Entity, error) {
	key := ref.String()
	if e, ok := r.entities[key]; ok {
		return e, nil
	}
	if err, ok := r.failed[key]; ok {
		return nil, fmt.Errorf("实体生成失败: %w", err)
	}
	return nil, fmt.Errorf("%s 没有 @%s 注解", ref.Source, AnnotationEntity)
}

// entityKey 实体在解析器中的 key，与 TypeRef.String 一致
func entityKey(pkgPath, name string) string {
	return model.Named(pkgPath, name).String()
}

// fail 记录单元错误
func (r *run) fail(at *plugin.AnnotatedTarget, err error) {
	if at.Target.Kind == plugin.TargetStruct {
		var pkgPath string
		if pkg, lerr := r.loader.Load(at.Target.Dir()); lerr == nil {
			pkgPath = pkg.Path
		}
		r.failed[entityKey(pkgPath, at.Target.Name)] = err
	}
	r.result.AddError(fmt.Errorf("%s: %w", filepath.Base(at.Target.FilePath), err))
}

func (r *run) entity(at *plugin.AnnotatedTarget) error {
	ann := at.Annotation(AnnotationEntity)
	if ann == nil {
		return model.Invalidf(at.Target.Name, "", "结构体只能使用 @%s 注解", AnnotationEntity)
	}
	p, err := params(at)
	if err != nil {
		return model.Internalf("%v", err)
	}
	naming, err := utils.ParseNaming(p.Naming)
	if err != nil {
		return model.Invalidf(at.Target.Name, "", "naming 无效").Wrap(err)
	}

	e, err := analyze.Entity(r.loader, at.Target.Dir(), at.Target.Name, analyze.EntityOptions{
		Table:      p.Table,
		PrimaryKey: p.PrimaryKey,
		Serializer: p.Serializer,
		Naming:     naming,
	})
	if err != nil {
		return err
	}
	src, err := emit.Mapper(e)
	if err != nil {
		return err
	}
	output, err := r.add(at, ann, DefaultMapperOutput, src)
	if err != nil {
		return err
	}

	r.entities[entityKey(e.PkgPath, e.Name)] = e
	if r.ctx.Verbose {
		fmt.Printf("[%s] 实体 %s (表 %s, %d 列) -> %s\n", r.name, e.Name, e.Table, len(e.Fields), output)
		dumper.Dump(e)
	}
	return nil
}

func (r *run) storage(at *plugin.AnnotatedTarget) error {
	ann := at.Annotation(AnnotationStorage)
	if ann == nil {
		return model.Invalidf(at.Target.Name, "", "接口只能使用 @%s 注解", AnnotationStorage)
	}
	p, err := params(at)
	if err != nil {
		return model.Internalf("%v", err)
	}

	s, err := analyze.Storage(r.loader, at.Target.Dir(), at.Target.Name, analyze.StorageOptions{Entity: p.Entity}, r)
	if err != nil {
		return err
	}
	src, err := emit.Storage(s)
	if err != nil {
		return err
	}
	output, err := r.add(at, ann, DefaultStorageOutput, src)
	if err != nil {
		return err
	}

	r.storages++
	if r.ctx.Verbose {
		fmt.Printf("[%s] 存储接口 %s (实体 %s, %d 个方法) -> %s\n", r.name, s.Name, s.Entity.Name, len(s.Methods), output)
		dumper.Dump(s.Methods)
	}
	return nil
}

// add 将生成的源码转换为 gg 定义并按输出路径合并
func (r *run) add(at *plugin.AnnotatedTarget, ann *plugin.Annotation, defaultOutput string, src []byte) (string, error) {
	gen, err := plugin.ParseSourceToGG(src)
	if err != nil {
		return "", model.Internalf("生成的代码无法解析: %v", err)
	}
	output := plugin.GetOutputPath(at.Target, ann, defaultOutput, r.ctx.GetPackageConfig(at.Target), r.name, r.ctx.DefaultOutput)
	r.result.AddDefinition(output, gen)
	return output, nil
}
