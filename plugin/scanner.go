package plugin

import (
	"bufio"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// Scanner 两阶段注解扫描器
// 第一阶段：快速文本匹配，找出可能包含注解的文件
// 第二阶段：对匹配的文件进行 AST 解析
// 文件按路径排序后依次处理，扫描结果与文件系统遍历顺序无关
type Scanner struct {
	verbose bool

	// 注解过滤器（可选）
	annotationFilter []string
}

// ScannerOption 扫描器选项
type ScannerOption func(*Scanner)

func WithScannerVerbose(v bool) ScannerOption {
	return func(s *Scanner) {
		s.verbose = v
	}
}

func WithAnnotationFilter(annotations ...string) ScannerOption {
	return func(s *Scanner) {
		s.annotationFilter = annotations
	}
}

func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// quickMatchRegex 快速匹配 @Name 模式
var quickMatchRegex = regexp.MustCompile(`@(\w+)`)

// Scan 扫描指定路径
// 支持: ./... ./pkg/... ./pkg /abs/path/... file.go
func (s *Scanner) Scan(ctx context.Context, patterns ...string) (*ScanResult, error) {
	files, err := s.collectFiles(patterns)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		PackageConfigs: make(map[string]*PackageConfig),
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matched, err := s.QuickMatchFile(file)
		if err != nil {
			return nil, fmt.Errorf("读取文件 %s 失败: %w", file, err)
		}
		if !matched {
			continue
		}
		if err := s.parseFile(file, result); err != nil {
			return nil, fmt.Errorf("解析文件 %s 失败: %w", file, err)
		}
	}

	if s.verbose {
		fmt.Printf("[litegen] 扫描 %d 个文件, 找到 %d 个结构体, %d 个接口\n",
			len(files), len(result.Structs), len(result.Interfaces))
	}
	return result, nil
}

// QuickMatchFile 快速检查文件是否包含注解或 go:litegen 配置
// dev 模式也用它判断文件变化是否需要触发代码生成
func (s *Scanner) QuickMatchFile(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(trimmed, "//") && !strings.HasPrefix(trimmed, "/*") {
			continue
		}
		if strings.Contains(trimmed, "go:litegen:") {
			return true, nil
		}
		for _, match := range quickMatchRegex.FindAllStringSubmatch(trimmed, -1) {
			if len(s.annotationFilter) == 0 || slices.Contains(s.annotationFilter, match[1]) {
				return true, nil
			}
		}
	}
	return false, scanner.Err()
}

// parseFile AST 解析单个文件，将结果追加到 result
func (s *Scanner) parseFile(filePath string, result *ScanResult) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return err
	}
	if ast.IsGenerated(file) {
		return nil
	}

	if cfg := s.parsePackageConfig(file, filePath); cfg != nil {
		mergePackageConfig(result.PackageConfigs, cfg)
	}

	packageName := file.Name.Name
	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}

			// 单个类型声明的注释挂在 GenDecl 上，分组声明的注释挂在 TypeSpec 上
			doc := typeSpec.Doc
			if doc == nil && len(genDecl.Specs) == 1 {
				doc = genDecl.Doc
			}
			if doc == nil {
				continue
			}
			annotations := ParseAnnotations(doc.Text())
			if len(s.annotationFilter) > 0 {
				annotations = FilterByNames(annotations, s.annotationFilter...)
			}
			if len(annotations) == 0 {
				continue
			}

			target := &AnnotatedTarget{
				Target: &Target{
					Name:        typeSpec.Name.Name,
					PackageName: packageName,
					FilePath:    filePath,
					Position:    typeSpec.Pos(),
					Node:        typeSpec,
				},
				Annotations: annotations,
			}
			switch typeSpec.Type.(type) {
			case *ast.StructType:
				target.Target.Kind = TargetStruct
				result.Structs = append(result.Structs, target)
			case *ast.InterfaceType:
				target.Target.Kind = TargetInterface
				result.Interfaces = append(result.Interfaces, target)
			}
		}
	}
	return nil
}

// mergePackageConfig 合并同一个包内多个文件的 go:litegen 配置，后发现的覆盖先发现的
func mergePackageConfig(configs map[string]*PackageConfig, cfg *PackageConfig) {
	existing, ok := configs[cfg.PackageDir]
	if !ok {
		configs[cfg.PackageDir] = cfg
		return
	}
	if cfg.DefaultOutput != "" {
		if existing.DefaultOutput != "" && existing.DefaultOutput != cfg.DefaultOutput {
			fmt.Printf("[litegen] 警告: 包 %s 中存在多个不同的 go:litegen 默认输出配置，使用后发现的配置\n", cfg.PackageDir)
		}
		existing.DefaultOutput = cfg.DefaultOutput
	}
	for k, v := range cfg.PluginOutputs {
		if old, ok := existing.PluginOutputs[k]; ok && old != v {
			fmt.Printf("[litegen] 警告: 包 %s 中插件 %s 存在多个不同的输出配置，使用后发现的配置\n", cfg.PackageDir, k)
		}
		existing.PluginOutputs[k] = v
	}
}

// isSourceFile 判断是否为需要扫描的源文件
// 测试文件与本工具生成的文件不参与扫描
func isSourceFile(path string) bool {
	return strings.HasSuffix(path, ".go") &&
		!strings.HasSuffix(path, "_test.go") &&
		!strings.HasSuffix(path, "_mapper.go") &&
		!strings.HasSuffix(path, "_storage.go")
}

// collectFiles 收集所有需要扫描的文件，结果已排序去重
func (s *Scanner) collectFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		recursive := strings.HasSuffix(pattern, "/...")
		if recursive {
			pattern = strings.TrimSuffix(pattern, "/...")
		}
		if pattern == "" {
			pattern = "."
		}

		absPath, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if strings.HasSuffix(absPath, ".go") {
				add(absPath)
			}
			continue
		}

		err = filepath.WalkDir(absPath, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == absPath {
					return nil
				}
				name := d.Name()
				if !recursive || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
					name == "vendor" || name == "testdata" {
					return filepath.SkipDir
				}
				return nil
			}
			if isSourceFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(files)
	return files, nil
}

// litegenDirectiveRegex 匹配 go:litegen: 指令
// 支持两种格式：//go:litegen: 和 // go:litegen:
var litegenDirectiveRegex = regexp.MustCompile(`go:litegen:\s*(.*)`)

// parsePackageConfig 解析包级 go:litegen: 配置
// 支持格式:
//
//	//go:litegen: -output `$TYPE_orm`
//	//go:litegen: plugin:ormgen -output `zz_orm`
func (s *Scanner) parsePackageConfig(file *ast.File, filePath string) *PackageConfig {
	var lines []string
	for _, cg := range file.Comments {
		for _, c := range cg.List {
			text := strings.TrimPrefix(c.Text, "//")
			text = strings.TrimPrefix(text, "/*")
			text = strings.TrimSuffix(text, "*/")
			text = strings.TrimSpace(text)
			if matches := litegenDirectiveRegex.FindStringSubmatch(text); len(matches) > 1 {
				lines = append(lines, matches[1])
			}
		}
	}

	if len(lines) == 0 {
		return nil
	}
	if len(lines) > 1 {
		fmt.Printf("[litegen] 警告: 文件 %s 定义了多个 go:litegen: 指令，将被忽略\n", filePath)
		return nil
	}
	return parseDirectiveLine(lines[0], filepath.Dir(filePath))
}

// parseDirectiveLine 解析单行 go:litegen: 配置
// 格式:
//
//	-output `xxx`                         // 默认输出
//	plugin:ormgen -output `xxx`           // 插件特定输出
func parseDirectiveLine(line string, pkgDir string) *PackageConfig {
	config := &PackageConfig{
		PackageDir:    pkgDir,
		PluginOutputs: make(map[string]string),
	}

	parts := splitDirectiveArgs(strings.TrimSpace(line))
	var currentPlugin string
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		switch {
		case strings.HasPrefix(part, "plugin:"):
			currentPlugin = strings.ToLower(strings.TrimPrefix(part, "plugin:"))
		case part == "-output" && i+1 < len(parts):
			i++
			output := trimQuotes(parts[i])
			if currentPlugin == "" {
				config.DefaultOutput = output
			} else {
				config.PluginOutputs[currentPlugin] = output
			}
		}
	}

	if config.DefaultOutput == "" && len(config.PluginOutputs) == 0 {
		return nil
	}
	return config
}

// splitDirectiveArgs 分割指令参数，支持引号内的空格
func splitDirectiveArgs(line string) []string {
	var parts []string
	var current strings.Builder
	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == 0 && (c == '`' || c == '"' || c == '\''):
			quote = c
			current.WriteByte(c)
		case quote != 0 && c == quote:
			quote = 0
			current.WriteByte(c)
		case quote == 0 && c == ' ':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// trimQuotes 去除引号
func trimQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '`' || first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
