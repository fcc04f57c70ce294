package rowstore

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
	"golang.org/x/exp/constraints"
)

// MapRow 以列名为 key 的行，SQLStore 查询与测试都使用它
// NULL 读取为零值
type MapRow struct {
	values map[string]any
	err    error
}

// NewMapRow 创建行
func NewMapRow(values map[string]any) *MapRow {
	return &MapRow{values: values}
}

var _ Row = (*MapRow)(nil)

func (r *MapRow) Err() error {
	return r.err
}

func (r *MapRow) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// read 取出列值并转换，[]byte 视为文本
func read[T any](r *MapRow, column string, conv func(any) (T, error)) T {
	var zero T
	v, ok := r.values[column]
	if !ok {
		r.fail(fmt.Errorf("rowstore: 列 %s 不存在", column))
		return zero
	}
	if v == nil {
		return zero
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	out, err := conv(v)
	if err != nil {
		r.fail(fmt.Errorf("rowstore: 读取列 %s: %w", column, err))
		return zero
	}
	return out
}

// signed 读取有符号整数，超出目标类型范围时报错
func signed[N constraints.Signed](r *MapRow, column string) N {
	v := read(r, column, cast.ToInt64E)
	n := N(v)
	if int64(n) != v {
		r.fail(fmt.Errorf("rowstore: 列 %s 的值 %d 超出 %T 的范围", column, v, n))
		return 0
	}
	return n
}

// unsigned 读取无符号整数，超出目标类型范围时报错
func unsigned[N constraints.Unsigned](r *MapRow, column string) N {
	// 64 位的目标类型接受按位写入的负数
	if i, ok := r.values[column].(int64); ok && i < 0 && uint64(^N(0)) == math.MaxUint64 {
		return N(uint64(i))
	}
	v := read(r, column, cast.ToUint64E)
	n := N(v)
	if uint64(n) != v {
		r.fail(fmt.Errorf("rowstore: 列 %s 的值 %d 超出 %T 的范围", column, v, n))
		return 0
	}
	return n
}

func (r *MapRow) GetBool(column string) bool {
	return read(r, column, cast.ToBoolE)
}

func (r *MapRow) GetString(column string) string {
	return read(r, column, cast.ToStringE)
}

func (r *MapRow) GetInt(column string) int       { return signed[int](r, column) }
func (r *MapRow) GetInt8(column string) int8     { return signed[int8](r, column) }
func (r *MapRow) GetInt16(column string) int16   { return signed[int16](r, column) }
func (r *MapRow) GetInt32(column string) int32   { return signed[int32](r, column) }
func (r *MapRow) GetInt64(column string) int64   { return signed[int64](r, column) }
func (r *MapRow) GetUint(column string) uint     { return unsigned[uint](r, column) }
func (r *MapRow) GetUint8(column string) uint8   { return unsigned[uint8](r, column) }
func (r *MapRow) GetUint16(column string) uint16 { return unsigned[uint16](r, column) }
func (r *MapRow) GetUint32(column string) uint32 { return unsigned[uint32](r, column) }
func (r *MapRow) GetUint64(column string) uint64 { return unsigned[uint64](r, column) }

func (r *MapRow) GetFloat32(column string) float32 {
	v := read(r, column, cast.ToFloat64E)
	if math.Abs(v) > math.MaxFloat32 && !math.IsInf(v, 0) {
		r.fail(fmt.Errorf("rowstore: 列 %s 的值 %g 超出 float32 的范围", column, v))
		return 0
	}
	return float32(v)
}

func (r *MapRow) GetFloat64(column string) float64 {
	return read(r, column, cast.ToFloat64E)
}
