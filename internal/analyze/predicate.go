package analyze

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// predicateLexer SQL 片段的词法规则，只区分引号内容、注释、占位符与其他文本
// 引号和注释内的 ? 不是占位符
var predicateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"|` + "`[^`]*`" + `|\[[^\]]*\]`},
	{Name: "Comment", Pattern: `--[^\n]*|/\*(?:[^*]|\*+[^*/])*\*+/`},
	{Name: "Placeholder", Pattern: `\?[0-9]*`},
	{Name: "Named", Pattern: `[:@$][A-Za-z0-9_]+`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Punct", Pattern: `[-/:@$]`},
	{Name: "Word", Pattern: "[^\\s'\"?`\\[/:@$-]+"},
})

// CountPlaceholders 统计 SQL 片段中的位置占位符 ?
// 编号占位符 ?NNN 与命名占位符 :name、@name、$name 不支持，因为生成代码按参数顺序传值
func CountPlaceholders(sql string) (int, error) {
	if sql == "" {
		return 0, nil
	}
	lex, err := predicateLexer.LexString("", sql)
	if err != nil {
		return 0, err
	}
	symbols := predicateLexer.Symbols()
	placeholder, named := symbols["Placeholder"], symbols["Named"]

	count := 0
	for {
		tok, err := lex.Next()
		if err != nil {
			return 0, err
		}
		if tok.EOF() {
			return count, nil
		}
		if tok.Type == named {
			return 0, fmt.Errorf("不支持命名占位符 %s", tok.Value)
		}
		if tok.Type != placeholder {
			continue
		}
		if tok.Value != "?" {
			return 0, fmt.Errorf("不支持编号占位符 %s", tok.Value)
		}
		count++
	}
}
