package utils

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
)

// commonInitialisms 常见首字母缩略词列表，与 GORM 保持一致
var commonInitialisms = []string{
	"API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP", "HTTPS",
	"ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP",
	"SSH", "TLS", "TTL", "UID", "UI", "UUID", "URI", "URL", "UTF8", "VM",
	"XML", "XSRF", "XSS",
}

// commonInitialismsReplacer 用于将缩略词转换为首字母大写形式
var commonInitialismsReplacer *strings.Replacer

func init() {
	replacerArgs := make([]string, 0, len(commonInitialisms)*2)
	for _, initialism := range commonInitialisms {
		// API -> Api, HTTP -> Http
		replacerArgs = append(replacerArgs, initialism, toTitleCase(initialism))
	}
	commonInitialismsReplacer = strings.NewReplacer(replacerArgs...)
}

// toTitleCase 将字符串转换为首字母大写形式
func toTitleCase(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// ToSnakeCase 将驼峰命名转换为蛇形(下划线)命名，与 GORM 的 toDBName 保持一致
// 参考: gorm/schema/naming.go:131-188
func ToSnakeCase(name string) string {
	if name == "" {
		return ""
	}

	// 首字母缩略词处理: API -> Api, HTTP -> Http
	value := commonInitialismsReplacer.Replace(name)

	var (
		buf                            strings.Builder
		lastCase, nextCase, nextNumber bool
		curCase                        = value[0] <= 'Z' && value[0] >= 'A'
	)

	for i, v := range value[:len(value)-1] {
		nextCase = value[i+1] <= 'Z' && value[i+1] >= 'A'
		nextNumber = value[i+1] >= '0' && value[i+1] <= '9'

		if curCase {
			if lastCase && (nextCase || nextNumber) {
				buf.WriteRune(v + 32) // 转小写
			} else {
				if i > 0 && value[i-1] != '_' && value[i+1] != '_' {
					buf.WriteByte('_') // 插入下划线
				}
				buf.WriteRune(v + 32) // 转小写
			}
		} else {
			buf.WriteRune(v)
		}

		lastCase = curCase
		curCase = nextCase
	}

	// 处理最后一个字符
	if curCase {
		if !lastCase && len(value) > 1 {
			buf.WriteByte('_')
		}
		buf.WriteByte(value[len(value)-1] + 32)
	} else {
		buf.WriteByte(value[len(value)-1])
	}

	return buf.String()
}

// UpperFirst 将首字母转为大写
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// LowerFirst 将首字母转为小写
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// Naming 表名与列名的命名策略
type Naming string

const (
	NamingVerbatim Naming = ""       // 原样使用类型名和字段名
	NamingSnake    Naming = "snake"  // snake_case
	NamingPlural   Naming = "plural" // snake_case，表名取复数
)

// ParseNaming 解析命名策略
func ParseNaming(s string) (Naming, error) {
	switch n := Naming(strings.ToLower(strings.TrimSpace(s))); n {
	case NamingVerbatim, NamingSnake, NamingPlural:
		return n, nil
	default:
		return "", fmt.Errorf("未知的命名策略 %q，可选值: snake, plural", s)
	}
}

// Table 根据类型名计算表名
func (n Naming) Table(typeName string) string {
	switch n {
	case NamingSnake:
		return ToSnakeCase(typeName)
	case NamingPlural:
		return inflect.Pluralize(ToSnakeCase(typeName))
	default:
		return typeName
	}
}

// Column 根据字段名计算列名
func (n Naming) Column(fieldName string) string {
	if n == NamingVerbatim {
		return fieldName
	}
	return ToSnakeCase(fieldName)
}
