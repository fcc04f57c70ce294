package rowstore

import (
	"math"
	"strconv"

	"github.com/spf13/cast"
)

// KeyString 将主键值转为文本参数，生成的 IDArgs 使用
// SQLite 按列亲和性比较，文本形式的数字与 INTEGER 列可以相等
func KeyString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float32:
		// 与写入时的 float64 拓宽保持一致
		return strconv.FormatFloat(float64(x), 'g', -1, 64)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case uint:
		return unsignedKey(uint64(x))
	case uint64:
		return unsignedKey(x)
	default:
		return cast.ToString(v)
	}
}

// unsignedKey 超出 int64 的值按位写为负数，与 Values.Put 一致
func unsignedKey(x uint64) string {
	if x > math.MaxInt64 {
		return strconv.FormatInt(int64(x), 10)
	}
	return strconv.FormatUint(x, 10)
}
