package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/donutnomad/gg"
	"github.com/donutnomad/litegen/internal/utils"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// GeneratedHeader 生成文件的头部注释
const GeneratedHeader = "Code generated by litegen. DO NOT EDIT."

// RunOptions 运行选项
type RunOptions struct {
	Registry *Registry
	Patterns []string
	Verbose  bool
	Output   string   // 命令行指定的默认输出路径（最低优先级）
	Fs       afero.Fs // 输出文件系统，默认为 afero.NewOsFs()

	// Check 为 true 时不写文件，只比较已有文件与生成结果，
	// 不一致的文件打印 unified diff 并记录到 RunStats.StaleFiles
	Check bool
}

// RunStats 运行统计信息
type RunStats struct {
	ScanDuration     time.Duration // 扫描耗时
	GenerateDuration time.Duration // 生成耗时
	TotalDuration    time.Duration // 总耗时
	TargetCount      int           // 目标数量
	FileCount        int           // 生成（或检查）的文件数量
	StaleFiles       []string      // Check 模式下过期的文件
	Errors           []error       // 单元级错误
}

// Run 使用给定注册表运行代码生成
func Run(ctx context.Context, registry *Registry, patterns ...string) error {
	_, err := RunWithOptionsAndStats(ctx, &RunOptions{
		Registry: registry,
		Patterns: patterns,
	})
	return err
}

// RunWithOptionsAndStats 带选项运行并返回统计信息
// 1. 扫描指定路径的注解
// 2. 将目标分发给对应的生成器，并解析注解参数
// 3. 依次执行生成器
// 4. 合并同一文件的 gg 定义，格式化后写入（或在 Check 模式下比较）
//
// 单元级错误不会阻止其他单元生成，最终以 errors.Join 的形式返回；
// 写文件失败（ErrGenerationIO）会立即中止运行。
func RunWithOptionsAndStats(ctx context.Context, opts *RunOptions) (*RunStats, error) {
	totalStart := time.Now()
	stats := &RunStats{}

	registry := opts.Registry
	if registry == nil {
		registry = globalRegistry
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	annotations := registry.Annotations()
	if len(annotations) == 0 {
		return nil, fmt.Errorf("没有已注册的生成器")
	}

	scanStart := time.Now()
	scanner := NewScanner(
		WithAnnotationFilter(annotations...),
		WithScannerVerbose(opts.Verbose),
	)
	result, err := scanner.Scan(ctx, opts.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("扫描失败: %w", err)
	}
	stats.ScanDuration = time.Since(scanStart)

	all := result.All()
	stats.TargetCount = len(all)
	if len(all) == 0 {
		if opts.Verbose {
			fmt.Println("[litegen] 没有找到任何带注解的目标")
		}
		stats.TotalDuration = time.Since(totalStart)
		return stats, nil
	}
	if opts.Verbose {
		fmt.Printf("[litegen] 找到 %d 个带注解的目标 (扫描耗时: %v)\n", stats.TargetCount, stats.ScanDuration)
	}

	generateStart := time.Now()
	dispatch := registry.DispatchTargets(result)
	genNames := lo.Keys(dispatch)
	slices.Sort(genNames)

	fileDefinitions := make(map[string][]*gg.Generator)
	fileGenNames := make(map[string][]string)

	for _, genName := range genNames {
		gen, ok := registry.GetByName(genName)
		if !ok {
			continue
		}

		targets, paramErrs := bindParams(gen, dispatch[genName])
		stats.Errors = append(stats.Errors, paramErrs...)
		if len(targets) == 0 {
			continue
		}

		if opts.Verbose {
			fmt.Printf("[litegen] 执行生成器: %s (开始处理 %d 个目标)\n", genName, len(targets))
		}
		start := time.Now()
		genResult, err := gen.Generate(&GenerateContext{
			Targets:        targets,
			PackageConfigs: result.PackageConfigs,
			DefaultOutput:  opts.Output,
			Verbose:        opts.Verbose,
		})
		if err != nil {
			return stats, fmt.Errorf("生成器 %s 执行失败: %w", genName, err)
		}
		if opts.Verbose {
			fmt.Printf("[litegen] 执行生成器: %s (耗时: %v)\n", genName, time.Since(start))
		}
		if genResult == nil {
			continue
		}

		for path, def := range genResult.Definitions {
			fileDefinitions[path] = append(fileDefinitions[path], def)
			fileGenNames[path] = append(fileGenNames[path], genName)
		}
		stats.Errors = append(stats.Errors, genResult.Errors...)
	}

	paths := lo.Keys(fileDefinitions)
	slices.Sort(paths)
	for _, path := range paths {
		merged, err := mergeDefinitions(fileDefinitions[path], fileGenNames[path])
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("合并文件 %s 的定义失败: %w", path, err))
			continue
		}
		source, err := utils.FormatSource(path, merged.Bytes())
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("格式化文件 %s 失败: %w", path, err))
			continue
		}

		if opts.Check {
			stale, err := checkFile(fs, path, source)
			if err != nil {
				return stats, err
			}
			if stale {
				stats.StaleFiles = append(stats.StaleFiles, path)
			}
			stats.FileCount++
			continue
		}

		if err := WriteFile(fs, path, source); err != nil {
			return stats, err
		}
		stats.FileCount++
		if opts.Verbose {
			fmt.Printf("[litegen] 生成文件: %s\n", path)
		}
	}

	stats.GenerateDuration = time.Since(generateStart)
	stats.TotalDuration = time.Since(totalStart)

	if len(stats.Errors) > 0 {
		return stats, errors.Join(stats.Errors...)
	}
	return stats, nil
}

// bindParams 为每个目标解析该生成器的注解参数
// 参数无效的目标不会交给生成器，其错误单独返回
func bindParams(gen Generator, targets []*AnnotatedTarget) ([]*AnnotatedTarget, []error) {
	var (
		ok   []*AnnotatedTarget
		errs []error
	)
	paramDefs := gen.ParamDefs()
	for _, target := range targets {
		params := gen.NewParams()
		if params == nil {
			ok = append(ok, target)
			continue
		}
		ann, found := lo.Find(target.Annotations, func(a *Annotation) bool {
			return slices.Contains(gen.Annotations(), a.Name)
		})
		if !found {
			continue
		}
		if reflect.ValueOf(params).Kind() != reflect.Ptr {
			errs = append(errs, fmt.Errorf("NewParams() 必须返回指针类型, 得到: %T", params))
			continue
		}
		if err := ParseAnnotationParams(ann, params, paramDefs); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", target.Target.Name, err))
			continue
		}
		target.ParsedParams = reflect.ValueOf(params).Elem().Interface()
		ok = append(ok, target)
	}
	return ok, errs
}

// mergeDefinitions 合并多个生成器对同一文件的 gg 定义
// 多个生成器输出到同一文件时，在各自内容前添加分隔注释
func mergeDefinitions(definitions []*gg.Generator, genNames []string) (*gg.Generator, error) {
	if len(definitions) == 0 {
		return nil, fmt.Errorf("没有定义需要合并")
	}

	var pkgName string
	for _, def := range definitions {
		if def.PackageName() == "" {
			continue
		}
		if pkgName != "" && pkgName != def.PackageName() {
			return nil, fmt.Errorf("包名不一致: %s vs %s", pkgName, def.PackageName())
		}
		pkgName = def.PackageName()
	}

	merged := gg.New()
	merged.SetHeader(GeneratedHeader)
	if pkgName != "" {
		merged.SetPackage(pkgName)
	}
	for i, def := range definitions {
		if len(definitions) > 1 {
			merged.Body().AddLine()
			merged.Body().AddString(fmt.Sprintf("// ================ %s ================", genNames[i]))
			merged.Body().AddLine()
		}
		merged.Merge(def)
	}
	return merged, nil
}

// WriteFile 通过 fs 写入文件，目录不存在时自动创建
// 文件在所有路径上都会被关闭；任何失败都返回 *IOError
func WriteFile(fs afero.Fs, path string, data []byte) (err error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &IOError{Path: path, Op: "mkdir", Cause: err}
	}
	f, err := fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return &IOError{Path: path, Op: "open", Cause: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IOError{Path: path, Op: "close", Cause: cerr}
		}
	}()
	if _, err := f.Write(data); err != nil {
		return &IOError{Path: path, Op: "write", Cause: err}
	}
	return nil
}

// checkFile 比较已有文件与生成内容，不一致时打印 unified diff
func checkFile(fs afero.Fs, path string, generated []byte) (bool, error) {
	existing, err := afero.ReadFile(fs, path)
	if err != nil && !os.IsNotExist(err) {
		return false, &IOError{Path: path, Op: "read", Cause: err}
	}
	if string(existing) == string(generated) {
		return false, nil
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(existing)),
		B:        difflib.SplitLines(string(generated)),
		FromFile: path,
		ToFile:   path + " (generated)",
		Context:  3,
	})
	if err != nil {
		return true, fmt.Errorf("计算 %s 的差异失败: %w", path, err)
	}
	fmt.Print(diff)
	return true, nil
}

// GetOutputPath 根据注解参数和默认规则计算输出路径
// 优先级：注解参数 > 包级插件配置 > 包级默认配置 > 命令行参数 > 默认文件名
// 模板变量：
//   - $FILE: 源文件名（不含 .go 后缀）
//   - $PACKAGE: 包名
//   - $TYPE: 类型名的 snake_case 形式
func GetOutputPath(target *Target, ann *Annotation, defaultFileName string, pkgConfig *PackageConfig, pluginName string, cmdOutput string) string {
	output := ann.GetParam("output")
	if output == "" && pkgConfig != nil {
		output = pkgConfig.GetPluginOutput(strings.ToLower(pluginName))
	}
	if output == "" {
		output = cmdOutput
	}
	if output == "" {
		output = defaultFileName
	}
	if output == "" {
		output = "$TYPE_gen.go"
	}

	output = replaceTemplateVars(output, target)
	if !strings.HasSuffix(output, ".go") {
		output += ".go"
	}
	if filepath.IsAbs(output) {
		return output
	}
	// 相对于源文件目录
	return filepath.Join(filepath.Dir(target.FilePath), output)
}

// replaceTemplateVars 替换模板变量
func replaceTemplateVars(template string, target *Target) string {
	fileName := strings.TrimSuffix(filepath.Base(target.FilePath), ".go")
	return strings.NewReplacer(
		"$FILE", fileName,
		"$PACKAGE", target.PackageName,
		"$TYPE", utils.ToSnakeCase(target.Name),
	).Replace(template)
}
