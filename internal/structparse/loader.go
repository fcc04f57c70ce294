package structparse

import (
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

// Loader 按目录加载并缓存包的 AST
// Loader 不是并发安全的，一次生成运行使用一个 Loader
type Loader struct {
	fset     *token.FileSet
	packages map[string]*Package // key: 绝对目录
	modules  map[string]*module  // key: 目录
}

// NewLoader 创建加载器
func NewLoader() *Loader {
	return &Loader{
		fset:     token.NewFileSet(),
		packages: make(map[string]*Package),
		modules:  make(map[string]*module),
	}
}

// Package 已加载的包
type Package struct {
	Dir   string
	Name  string
	Path  string // 导入路径，不在 module 内时为空
	Files []*File

	types   map[string]*typeDecl
	methods map[string][]*methodDecl // key: 接收者类型名
}

// File 包中的一个源文件
type File struct {
	Path    string
	AST     *ast.File
	Imports map[string]string // 包名（或别名） -> 导入路径
}

type typeDecl struct {
	spec *ast.TypeSpec
	doc  *ast.CommentGroup
	file *File
}

type methodDecl struct {
	decl *ast.FuncDecl
	file *File
}

// isPackageSource 判断目录中的文件是否属于需要解析的源文件
func isPackageSource(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, "_mapper.go") &&
		!strings.HasSuffix(name, "_storage.go")
}

// Load 加载目录对应的包
func (l *Loader) Load(dir string) (*Package, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if pkg, ok := l.packages[absDir]; ok {
		return pkg, nil
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("读取目录 %s 失败: %w", absDir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && isPackageSource(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)

	pkg := &Package{
		Dir:     absDir,
		types:   make(map[string]*typeDecl),
		methods: make(map[string][]*methodDecl),
	}
	for _, name := range names {
		path := filepath.Join(absDir, name)
		astFile, err := parser.ParseFile(l.fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("解析文件失败: %w", err)
		}
		if ast.IsGenerated(astFile) {
			continue
		}
		if pkg.Name == "" {
			pkg.Name = astFile.Name.Name
		} else if pkg.Name != astFile.Name.Name {
			return nil, fmt.Errorf("目录 %s 中存在多个包: %s, %s", absDir, pkg.Name, astFile.Name.Name)
		}
		file := &File{Path: path, AST: astFile, Imports: fileImports(astFile)}
		pkg.Files = append(pkg.Files, file)
		pkg.index(file)
	}
	if len(pkg.Files) == 0 {
		return nil, fmt.Errorf("目录 %s 中没有 Go 源文件", absDir)
	}

	if mod, err := l.findModule(absDir); err == nil {
		pkg.Path = mod.importPath(absDir)
	}

	l.packages[absDir] = pkg
	return pkg, nil
}

// LoadImport 加载与 fromDir 同一 module 内的导入路径
func (l *Loader) LoadImport(fromDir, importPath string) (*Package, error) {
	absDir, err := filepath.Abs(fromDir)
	if err != nil {
		return nil, err
	}
	mod, err := l.findModule(absDir)
	if err != nil {
		return nil, fmt.Errorf("无法解析导入 %s: %w", importPath, err)
	}
	dir, ok := mod.dirOf(importPath)
	if !ok {
		return nil, fmt.Errorf("包 %s 不在 module %s 内，暂不支持解析", importPath, mod.path)
	}
	return l.Load(dir)
}

// Position 返回位置信息
func (l *Loader) Position(pos token.Pos) token.Position {
	return l.fset.Position(pos)
}

// index 记录文件中的类型声明与方法声明
func (p *Package) index(file *File) {
	for _, decl := range file.AST.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				doc := ts.Doc
				if doc == nil && len(d.Specs) == 1 {
					doc = d.Doc
				}
				p.types[ts.Name.Name] = &typeDecl{spec: ts, doc: doc, file: file}
			}
		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) == 0 {
				continue
			}
			if name, _ := receiverTypeName(d.Recv.List[0].Type); name != "" {
				p.methods[name] = append(p.methods[name], &methodDecl{decl: d, file: file})
			}
		}
	}
}

// receiverTypeName 返回接收者类型名以及是否为指针接收者
func receiverTypeName(expr ast.Expr) (string, bool) {
	pointer := false
	if star, ok := expr.(*ast.StarExpr); ok {
		pointer = true
		expr = star.X
	}
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name, pointer
	case *ast.IndexExpr:
		if id, ok := e.X.(*ast.Ident); ok {
			return id.Name, pointer
		}
	case *ast.IndexListExpr:
		if id, ok := e.X.(*ast.Ident); ok {
			return id.Name, pointer
		}
	}
	return "", pointer
}

// versionSuffix 匹配导入路径末尾的主版本号，如 /v2
var versionSuffix = regexp.MustCompile(`^v[0-9]+$`)

// fileImports 提取文件中的导入，key 为源码中使用的包名
func fileImports(file *ast.File) map[string]string {
	imports := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				continue
			}
			imports[imp.Name.Name] = path
			continue
		}
		imports[guessPackageName(path)] = path
	}
	return imports
}

// guessPackageName 根据导入路径推测包名
// 例如: github.com/alecthomas/participle/v2 -> participle, gopkg.in/yaml.v3 -> yaml,
// github.com/mattn/go-runewidth -> runewidth
func guessPackageName(path string) string {
	parts := strings.Split(path, "/")
	name := parts[len(parts)-1]
	if versionSuffix.MatchString(name) && len(parts) > 1 {
		name = parts[len(parts)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	name = strings.TrimSuffix(name, "-go")
	return strings.ReplaceAll(name, "-", "")
}
