package utils

import (
	"fmt"

	"golang.org/x/tools/imports"
)

// FormatSource 格式化生成的源码并整理 imports
// path 仅用于确定包上下文与错误信息，不会读写文件
func FormatSource(path string, src []byte) ([]byte, error) {
	out, err := imports.Process(path, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("格式化 %s 失败: %w", path, err)
	}
	return out, nil
}
