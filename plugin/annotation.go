package plugin

import (
	"strings"
	"unicode"
)

// ParseAnnotations 从注释文本中解析所有注解
// 支持 @Name 与 @Name(k=v, ...) 两种形式；参数值可以用反引号或双引号包裹，
// 引号内允许出现括号、逗号和空格，例如 @Select(where="(a=? OR b=?)")
func ParseAnnotations(comment string) []*Annotation {
	var annotations []*Annotation

	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimSpace(line)

		for i := 0; i < len(line); i++ {
			if line[i] != '@' {
				continue
			}
			ann, next := scanAnnotation(line, i)
			if ann == nil {
				continue
			}
			annotations = append(annotations, ann)
			i = next - 1
		}
	}

	return annotations
}

// scanAnnotation 从 line[start] 处的 '@' 开始扫描一个注解，返回注解和结束位置
func scanAnnotation(line string, start int) (*Annotation, int) {
	// '@' 前面紧跟标识符字符时（如邮箱地址）不视为注解
	if start > 0 && isIdentByte(line[start-1]) {
		return nil, start + 1
	}
	end := start + 1
	for end < len(line) && isIdentByte(line[end]) {
		end++
	}
	if end == start+1 {
		return nil, start + 1
	}

	ann := &Annotation{
		Name:   line[start+1 : end],
		Params: make(map[string]string),
	}

	if end < len(line) && line[end] == '(' {
		if closeAt, ok := findClosingParen(line, end); ok {
			ann.Params = parseParams(line[end+1 : closeAt])
			end = closeAt + 1
		}
	}
	ann.Raw = line[start:end]
	return ann, end
}

// findClosingParen 查找与 line[open] 匹配的右括号，跳过引号内的内容
func findClosingParen(line string, open int) (int, bool) {
	depth := 0
	var quote byte
	for i := open; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '`' || c == '"':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// parseParams 解析注解参数
// - key=`value` (反引号格式)
// - key="value" (双引号格式)
// - key=value (普通格式，到逗号或空白为止)
func parseParams(content string) map[string]string {
	params := make(map[string]string)

	i := 0
	for i < len(content) {
		// 跳过分隔符
		for i < len(content) && (content[i] == ',' || unicode.IsSpace(rune(content[i]))) {
			i++
		}
		keyStart := i
		for i < len(content) && isIdentByte(content[i]) {
			i++
		}
		key := strings.ToLower(content[keyStart:i])
		for i < len(content) && content[i] == ' ' {
			i++
		}
		if key == "" || i >= len(content) || content[i] != '=' {
			// 无法识别的片段，跳到下一个逗号
			for i < len(content) && content[i] != ',' {
				i++
			}
			continue
		}
		i++
		for i < len(content) && content[i] == ' ' {
			i++
		}

		var value string
		if i < len(content) && (content[i] == '`' || content[i] == '"') {
			quote := content[i]
			closeAt := strings.IndexByte(content[i+1:], quote)
			if closeAt < 0 {
				value = content[i+1:]
				i = len(content)
			} else {
				value = content[i+1 : i+1+closeAt]
				i = i + 1 + closeAt + 1
			}
		} else {
			valueStart := i
			for i < len(content) && content[i] != ',' && !unicode.IsSpace(rune(content[i])) {
				i++
			}
			value = content[valueStart:i]
		}
		params[key] = value
	}

	return params
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// FilterByNames 过滤指定名称的注解
func FilterByNames(annotations []*Annotation, names ...string) []*Annotation {
	if len(names) == 0 {
		return annotations
	}

	nameSet := make(map[string]bool, len(names))
	for _, n := range names {
		nameSet[n] = true
	}

	var result []*Annotation
	for _, ann := range annotations {
		if nameSet[ann.Name] {
			result = append(result, ann)
		}
	}
	return result
}

// HasAnnotation 检查是否包含指定注解
func HasAnnotation(annotations []*Annotation, name string) bool {
	return GetAnnotation(annotations, name) != nil
}

// GetAnnotation 获取指定名称的注解
func GetAnnotation(annotations []*Annotation, name string) *Annotation {
	for _, ann := range annotations {
		if ann.Name == name {
			return ann
		}
	}
	return nil
}

// GetParam 获取注解参数
func (a *Annotation) GetParam(key string) string {
	if a == nil {
		return ""
	}
	return a.Params[strings.ToLower(key)]
}

// GetParamOr 获取注解参数，如果不存在返回默认值
func (a *Annotation) GetParamOr(key, defaultValue string) string {
	if a == nil {
		return defaultValue
	}
	if v, ok := a.Params[strings.ToLower(key)]; ok {
		return v
	}
	return defaultValue
}

// HasParam 检查是否有指定参数
func (a *Annotation) HasParam(key string) bool {
	if a == nil {
		return false
	}
	_, ok := a.Params[strings.ToLower(key)]
	return ok
}
