package rowstore

import (
	"math"
	"slices"
)

// Values 按列顺序排列的写入值
type Values struct {
	columns []string
	args    []any
}

// NewValues 创建 Values，size 为预估的列数
func NewValues(size int) *Values {
	return &Values{
		columns: make([]string, 0, size),
		args:    make([]any, 0, size),
	}
}

// Put 追加一列；同名列覆盖之前的值
// bool 按 SQLite 的惯例写为 0/1；超出 int64 的无符号整数按位写为 int64，
// 读取时由 GetUint64 还原
func (v *Values) Put(column string, value any) *Values {
	switch x := value.(type) {
	case bool:
		value = boolInt(x)
	case uint64:
		if x > math.MaxInt64 {
			value = int64(x)
		}
	case uint:
		if uint64(x) > math.MaxInt64 {
			value = int64(x)
		}
	}
	if i := slices.Index(v.columns, column); i >= 0 {
		v.args[i] = value
		return v
	}
	v.columns = append(v.columns, column)
	v.args = append(v.args, value)
	return v
}

// Get 返回列的值
func (v *Values) Get(column string) (any, bool) {
	i := slices.Index(v.columns, column)
	if i < 0 {
		return nil, false
	}
	return v.args[i], true
}

// Columns 返回列名
func (v *Values) Columns() []string {
	return slices.Clone(v.columns)
}

// Args 返回与 Columns 顺序一致的值
func (v *Values) Args() []any {
	return slices.Clone(v.args)
}

// Len 列数
func (v *Values) Len() int {
	return len(v.columns)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
