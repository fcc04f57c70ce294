package structparse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// module 包含 go.mod 的模块
type module struct {
	root string // go.mod 所在目录
	path string // module 路径
}

// importPath 计算模块内目录的导入路径
func (m *module) importPath(dir string) string {
	rel, err := filepath.Rel(m.root, dir)
	if err != nil || rel == "." {
		return m.path
	}
	return m.path + "/" + filepath.ToSlash(rel)
}

// dirOf 计算导入路径在模块内的目录
func (m *module) dirOf(importPath string) (string, bool) {
	if importPath == m.path {
		return m.root, true
	}
	rel, ok := strings.CutPrefix(importPath, m.path+"/")
	if !ok {
		return "", false
	}
	return filepath.Join(m.root, filepath.FromSlash(rel)), true
}

// findModule 从 dir 向上查找 go.mod
func (l *Loader) findModule(dir string) (*module, error) {
	if mod, ok := l.modules[dir]; ok {
		return mod, nil
	}
	root, err := findProjectRootFromDir(dir)
	if err != nil {
		return nil, err
	}
	name, err := getModuleName(root)
	if err != nil {
		return nil, err
	}
	mod := &module{root: root, path: name}
	l.modules[dir] = mod
	return mod, nil
}

// getModuleName 从 go.mod 文件获取模块名称
func getModuleName(projectRoot string) (string, error) {
	content, err := os.ReadFile(filepath.Join(projectRoot, "go.mod"))
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.Trim(strings.TrimSpace(rest), `"`), nil
		}
	}
	return "", fmt.Errorf("未在 go.mod 中找到模块名称")
}

// findProjectRootFromDir 从指定目录开始向上查找包含 go.mod 的目录
func findProjectRootFromDir(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("未找到项目根目录（go.mod文件）从 %s 开始", startDir)
		}
		dir = parent
	}
}
