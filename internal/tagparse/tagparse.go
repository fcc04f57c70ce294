// Package tagparse 解析实体字段上的 lite 标签
//
// 标签语法沿用 gorm 的分号分隔格式:
//
//	ID    string `lite:"column:id;primaryKey"`
//	Tmp   string `lite:"-"`
//	Cache []byte `lite:"transient"`
//	At    time.Time `lite:"serialize:int64"`
//	Base  Base   `lite:"embedded"`
package tagparse

import (
	"fmt"
	"reflect"
	"strings"
)

// TagKey 结构体标签的 key
const TagKey = "lite"

// Options 解析后的字段标签
type Options struct {
	Ignore     bool   // lite:"-"，不是数据库字段
	Transient  bool   // lite:"transient"，不持久化
	Embedded   bool   // lite:"embedded"，展开具名结构体字段
	PrimaryKey bool   // lite:"primaryKey"
	HasColumn  bool   // 是否显式指定了 column
	Column     string // column:<name>
	Serialize  string // serialize:<gotype>，指定序列化后的存储类型
	References string // references:<Entity>，外键提示
}

// Excluded 字段是否不参与映射
func (o Options) Excluded() bool {
	return o.Ignore || o.Transient
}

// Parse 解析原始结构体标签（不含反引号）
// 没有 lite 标签时返回零值
func Parse(rawTag string) (Options, error) {
	var opts Options

	value, ok := reflect.StructTag(rawTag).Lookup(TagKey)
	if !ok {
		return opts, nil
	}
	value = strings.TrimSpace(value)
	if value == "-" {
		opts.Ignore = true
		return opts, nil
	}

	for part := range strings.SplitSeq(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, hasVal := strings.Cut(part, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		switch key {
		case "column":
			opts.HasColumn = true
			opts.Column = val
		case "primarykey", "primary_key":
			opts.PrimaryKey = true
		case "transient":
			opts.Transient = true
		case "embedded":
			opts.Embedded = true
		case "serialize":
			if !hasVal || val == "" {
				return opts, fmt.Errorf("标签 %q: serialize 需要指定存储类型", part)
			}
			opts.Serialize = val
		case "references":
			if !hasVal || val == "" {
				return opts, fmt.Errorf("标签 %q: references 需要指定实体", part)
			}
			opts.References = val
		default:
			return opts, fmt.Errorf("未知的 lite 标签选项 %q", part)
		}
	}

	return opts, nil
}
