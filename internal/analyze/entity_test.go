package analyze

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/litegen/internal/model"
	"github.com/donutnomad/litegen/internal/structparse"
	"github.com/donutnomad/litegen/internal/utils"
)

const testModule = "example.com/app"

// writePackage 在临时 module 中写入 model 包，返回包目录
func writePackage(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module "+testModule+"\n\ngo 1.22\n"), 0o644))
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return filepath.Join(root, "model")
}

func analyzeEntity(t *testing.T, src string, name string, opts EntityOptions) (*model.Entity, error) {
	t.Helper()
	dir := writePackage(t, map[string]string{"model/entity.go": src})
	return Entity(structparse.NewLoader(), dir, name, opts)
}

func requireInvalid(t *testing.T, err error, contains string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidEntity), "want InvalidEntity, got %v", err)
	assert.False(t, errors.Is(err, model.ErrInternal))
	assert.Contains(t, err.Error(), contains)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		typ  *model.TypeRef
		want model.Kind
	}{
		{model.Named("", "bool"), model.KindBool},
		{model.Named("", "int8"), model.KindShort},
		{model.Named("", "byte"), model.KindShort},
		{model.Named("", "uint16"), model.KindInt},
		{model.Named("", "rune"), model.KindInt},
		{model.Named("", "int"), model.KindInt},
		{model.Named("", "int64"), model.KindLong},
		{model.Named("", "uint64"), model.KindLong},
		{model.Named("", "float32"), model.KindFloat},
		{model.Named("", "float64"), model.KindDouble},
		{model.Named("", "string"), model.KindString},
		{model.Named("", "error"), model.KindOther},
		{model.Named("time", "Time"), model.KindOther},
		{model.Named(testModule+"/model", "Status"), model.KindOther},
		{&model.TypeRef{Kind: model.TypeSlice, Elem: model.Named("", "byte")}, model.KindOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.typ), tt.typ.String())
	}
	assert.Equal(t, "GetUint8", RowReader(model.Named("", "byte")))
	assert.Equal(t, "GetFloat64", RowReader(model.Named("", "float64")))
}

func TestEntitySimple(t *testing.T) {
	e, err := analyzeEntity(t, `package model

type SimpleEntity struct {
	Id      string `+"`lite:\"column:id;primaryKey\"`"+`
	Message string `+"`lite:\"column:message\"`"+`
	Length  int
	Cache   []byte `+"`lite:\"-\"`"+`
	Temp    string `+"`lite:\"transient\"`"+`
	OnSave  func()
}
`, "SimpleEntity", EntityOptions{})
	require.NoError(t, err)

	assert.Equal(t, "SimpleEntity", e.Table)
	assert.Equal(t, testModule+"/model", e.PkgPath)
	assert.Equal(t, []string{"id", "message", "Length"}, e.Columns())
	require.Len(t, e.PrimaryKeys(), 1)
	assert.Equal(t, "Id", e.PrimaryKeys()[0].Name)

	length := e.Field("Length")
	assert.Equal(t, model.KindInt, length.Kind)
	assert.Equal(t, model.FieldExpr{Path: []string{"Length"}}, length.Getter)
	assert.Equal(t, model.AssignField{
		Path:  []string{"Length"},
		Value: model.RowReadExpr{Column: "Length", Reader: "GetInt"},
	}, length.Setter)
	assert.Nil(t, e.Serializer)
}

func TestEntityNaming(t *testing.T) {
	src := `package model

type UserProfile struct {
	UserID    string ` + "`lite:\"primaryKey\"`" + `
	NickName  string
	AvatarURL string ` + "`lite:\"column:avatar\"`" + `
}
`
	e, err := analyzeEntity(t, src, "UserProfile", EntityOptions{Naming: utils.NamingPlural})
	require.NoError(t, err)
	assert.Equal(t, "user_profiles", e.Table)
	assert.Equal(t, []string{"user_id", "nick_name", "avatar"}, e.Columns())

	e, err = analyzeEntity(t, src, "UserProfile", EntityOptions{Table: "profiles", Naming: utils.NamingSnake})
	require.NoError(t, err)
	assert.Equal(t, "profiles", e.Table)
}

func TestEntityPrimaryKeys(t *testing.T) {
	src := `package model

type Member struct {
	GroupId string
	UserId  string
	Role    string
}
`
	e, err := analyzeEntity(t, src, "Member", EntityOptions{PrimaryKey: []string{"GroupId, UserId"}})
	require.NoError(t, err)
	keys := e.PrimaryKeys()
	require.Len(t, keys, 2)
	assert.Equal(t, "GroupId", keys[0].Name)
	assert.Equal(t, "UserId", keys[1].Name)

	// 空列表退回到标签检测
	_, err = analyzeEntity(t, src, "Member", EntityOptions{PrimaryKey: []string{""}})
	requireInvalid(t, err, "没有主键字段")

	_, err = analyzeEntity(t, src, "Member", EntityOptions{PrimaryKey: []string{"Missing"}})
	requireInvalid(t, err, "Member.Missing")
}

func TestEntityInvalidDeclarations(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains string
	}{
		{
			name: "empty column override",
			src: `package model

type Entity struct {
	ID string ` + "`lite:\"column:;primaryKey\"`" + `
}
`,
			contains: "Entity.ID: column 覆盖不能为空",
		},
		{
			name: "duplicate column",
			src: `package model

type Entity struct {
	ID   string ` + "`lite:\"primaryKey\"`" + `
	Name string ` + "`lite:\"column:id\"`" + `
}
`,
			contains: "列名 id 与字段 ID 重复",
		},
		{
			name: "no persistent fields",
			src: `package model

type Entity struct {
	ID string ` + "`lite:\"-\"`" + `
}
`,
			contains: "没有可持久化的字段",
		},
		{
			name: "unknown tag option",
			src: `package model

type Entity struct {
	ID string ` + "`lite:\"primaryKey;autoIncrement\"`" + `
}
`,
			contains: "标签无效",
		},
		{
			name: "other type without serializer",
			src: `package model

import "time"

type Entity struct {
	ID string ` + "`lite:\"primaryKey\"`" + `
	At time.Time
}
`,
			contains: "Entity.At",
		},
		{
			name: "private field without accessor",
			src: `package model

type Entity struct {
	ID   string ` + "`lite:\"primaryKey\"`" + `
	name string
}
`,
			contains: "Entity.name: 字段不可导出且没有 getter",
		},
		{
			name: "not a struct",
			src: `package model

type Entity int
`,
			contains: "无法解析结构体",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyzeEntity(t, tt.src, "Entity", EntityOptions{})
			requireInvalid(t, err, tt.contains)
		})
	}
}

func TestEntityEmbedded(t *testing.T) {
	dir := writePackage(t, map[string]string{
		"base/base.go": `package base

type Model struct {
	ID        string ` + "`lite:\"primaryKey\"`" + `
	CreatedAt int64
}
`,
		"model/entity.go": `package model

import "example.com/app/base"

type Article struct {
	base.Model
	Title string
}
`,
	})
	e, err := Entity(structparse.NewLoader(), dir, "Article", EntityOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "CreatedAt", "Title"}, e.Columns())
	assert.Equal(t, model.FieldExpr{Path: []string{"Model", "ID"}}, e.Field("ID").Getter)
}
