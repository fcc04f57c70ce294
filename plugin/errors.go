package plugin

import (
	"errors"
	"fmt"
)

// ErrGenerationIO 写出生成文件失败，会中止整个运行
var ErrGenerationIO = errors.New("生成文件写入失败")

// IOError 描述某个输出文件的读写失败
type IOError struct {
	Path  string
	Op    string // mkdir, open, write, close, read
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *IOError) Unwrap() error {
	return e.Cause
}

// Is 使 errors.Is(err, ErrGenerationIO) 成立
func (e *IOError) Is(target error) bool {
	return target == ErrGenerationIO
}
