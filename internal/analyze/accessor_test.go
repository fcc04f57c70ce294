package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/litegen/internal/model"
)

func TestAccessorAnnotatedGetterWins(t *testing.T) {
	e, err := analyzeEntity(t, `package model

type Account struct {
	id     string `+"`lite:\"primaryKey\"`"+`
	active bool
	score  int
}

func (a *Account) GetId() string { return a.id }

// @Getter(field=id)
func (a *Account) Foo() string { return a.id }

func (a *Account) SetId(v string) { a.id = v }

func (a *Account) IsActive() bool { return a.active }

// @Setter(field=active)
func (a *Account) Activate(v bool) { a.active = v }

func (a *Account) Score() int { return a.score }

func (a *Account) SetScore(v int) { a.score = v }
`, "Account", EntityOptions{})
	require.NoError(t, err)

	id := e.Field("id")
	assert.Equal(t, model.CallExpr{Method: "Foo"}, id.Getter)
	assert.Equal(t, model.CallSetter{
		Method: "SetId",
		Value:  model.RowReadExpr{Column: "id", Reader: "GetString"},
	}, id.Setter)

	active := e.Field("active")
	assert.Equal(t, model.CallExpr{Method: "IsActive"}, active.Getter)
	assert.Equal(t, "Activate", active.Setter.(model.CallSetter).Method)

	score := e.Field("score")
	assert.Equal(t, model.CallExpr{Method: "Score"}, score.Getter)
	assert.Equal(t, "SetScore", score.Setter.(model.CallSetter).Method)
}

func TestAccessorFirstDeclaredWins(t *testing.T) {
	e, err := analyzeEntity(t, `package model

type Entity struct {
	ID string `+"`lite:\"primaryKey\"`"+`
}

// @Getter(field=ID)
func (e Entity) First() string { return e.ID }

// @Getter(field=ID)
func (e Entity) Second() string { return e.ID }
`, "Entity", EntityOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.CallExpr{Method: "First"}, e.Field("ID").Getter)
	assert.Equal(t, model.AssignField{
		Path:  []string{"ID"},
		Value: model.RowReadExpr{Column: "ID", Reader: "GetString"},
	}, e.Field("ID").Setter)
}

func TestAccessorSignatureMismatchSkipped(t *testing.T) {
	e, err := analyzeEntity(t, `package model

type Entity struct {
	ID    string `+"`lite:\"primaryKey\"`"+`
	Count int
}

func (e *Entity) GetCount() int64 { return int64(e.Count) }

func (e *Entity) SetCount(v int, force bool) {}
`, "Entity", EntityOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.FieldExpr{Path: []string{"Count"}}, e.Field("Count").Getter)
	assert.IsType(t, model.AssignField{}, e.Field("Count").Setter)
}

func TestAccessorErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains string
	}{
		{
			name: "empty getter field",
			src: `package model

type Entity struct {
	ID string ` + "`lite:\"primaryKey\"`" + `
}

// @Getter(field="")
func (e Entity) Foo() string { return e.ID }
`,
			contains: "Entity.Foo: @Getter 的 field 参数不能为空",
		},
		{
			name: "missing setter field",
			src: `package model

type Entity struct {
	ID string ` + "`lite:\"primaryKey\"`" + `
}

// @Setter
func (e *Entity) Bar(v string) { e.ID = v }
`,
			contains: "Entity.Bar: @Setter 的 field 参数不能为空",
		},
		{
			name: "unknown field",
			src: `package model

type Entity struct {
	ID string ` + "`lite:\"primaryKey\"`" + `
}

// @Getter(field=Name)
func (e Entity) Foo() string { return e.ID }
`,
			contains: "引用的字段 Name 不存在",
		},
		{
			name: "wrong getter signature",
			src: `package model

type Entity struct {
	ID string ` + "`lite:\"primaryKey\"`" + `
}

// @Getter(field=ID)
func (e Entity) Foo() int { return 0 }
`,
			contains: "@Getter 方法必须无参数并返回 string",
		},
		{
			name: "private field without setter",
			src: `package model

type Entity struct {
	id string ` + "`lite:\"primaryKey\"`" + `
}

func (e Entity) GetId() string { return e.id }
`,
			contains: "Entity.id: 字段不可导出且没有 setter（需要 @Setter 或 SetId 方法）",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyzeEntity(t, tt.src, "Entity", EntityOptions{})
			requireInvalid(t, err, tt.contains)
		})
	}
}
