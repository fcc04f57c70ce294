package plugin

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strings"

	"github.com/donutnomad/gg"
)

// ParseSourceToGG 将 Go 源代码解析并转换为 gg.Generator
// 使不使用 gg 构建代码的生成器（例如基于 jennifer 的发射器）也能参与按文件合并
func ParseSourceToGG(source []byte) (*gg.Generator, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("解析源代码失败: %w", err)
	}

	gen := gg.New()
	gen.SetPackage(file.Name.Name)

	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		if imp.Name == nil || imp.Name.Name == "" {
			gen.P(importPath)
			continue
		}
		switch imp.Name.Name {
		case ".", "_":
			// 点导入与空白导入不参与合并
			continue
		default:
			gen.PAlias(importPath, imp.Name.Name)
		}
	}

	body, err := extractBody(fset, file)
	if err != nil {
		return nil, fmt.Errorf("提取代码体失败: %w", err)
	}
	if body != "" {
		gen.Body().Append(gg.String("%s", body))
	}
	return gen, nil
}

// extractBody 提取 package 与 import 之外的所有声明，保留声明内部的注释
func extractBody(fset *token.FileSet, file *ast.File) (string, error) {
	var parts []string

	for _, decl := range file.Decls {
		if genDecl, ok := decl.(*ast.GenDecl); ok && genDecl.Tok == token.IMPORT {
			continue
		}

		start := decl.Pos()
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Doc != nil {
				start = d.Doc.Pos()
			}
		case *ast.GenDecl:
			if d.Doc != nil {
				start = d.Doc.Pos()
			}
		}
		var comments []*ast.CommentGroup
		for _, cg := range file.Comments {
			if cg.Pos() >= start && cg.End() <= decl.End() {
				comments = append(comments, cg)
			}
		}

		var buf bytes.Buffer
		node := &printer.CommentedNode{Node: decl, Comments: comments}
		if err := printer.Fprint(&buf, fset, node); err != nil {
			return "", err
		}
		parts = append(parts, buf.String())
	}

	return strings.Join(parts, "\n\n"), nil
}
