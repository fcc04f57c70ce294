package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/litegen/internal/model"
	"github.com/donutnomad/litegen/internal/structparse"
)

const eventSource = `package model

import "time"

type Status int

type Event struct {
	ID     string ` + "`lite:\"primaryKey\"`" + `
	At     time.Time
	Status Status
	Tags   []string ` + "`lite:\"serialize:string\"`" + `
}
`

func TestSerializerBinding(t *testing.T) {
	dir := writePackage(t, map[string]string{
		"model/event.go": eventSource,
		"model/codec.go": `package model

import (
	"strings"
	"time"
)

type Codec struct{}

// @Serialize
func (Codec) TimeToUnix(t time.Time) int64 { return t.Unix() }

// @Deserialize
func (Codec) UnixToTime(v int64) time.Time { return time.Unix(v, 0) }

// @Serialize
func (Codec) StatusToInt(s Status) int { return int(s) }

// @Deserialize
func (Codec) IntToStatus(v int) Status { return Status(v) }

// @Serialize
func (Codec) TagsToText(tags []string) string { return strings.Join(tags, ",") }

// @Deserialize
func (Codec) TextToTags(s string) []string { return strings.Split(s, ",") }

// @Serialize
func (Codec) TagsToCount(tags []string) int64 { return int64(len(tags)) }

// @Deserialize
func (Codec) CountToTags(n int64) []string { return make([]string, n) }
`,
	})

	e, err := Entity(structparse.NewLoader(), dir, "Event", EntityOptions{Serializer: "Codec"})
	require.NoError(t, err)

	require.NotNil(t, e.Serializer)
	assert.Equal(t, "Codec", e.Serializer.Name)
	assert.Equal(t, "eventSerializer", e.Serializer.Var)
	assert.True(t, e.Serializer.Local)

	at := e.Field("At")
	assert.Equal(t, model.KindOther, at.Kind)
	assert.Equal(t, model.KindLong, at.StorageKind)
	assert.Equal(t, model.SerializerCall{
		Var:    "eventSerializer",
		Method: "TimeToUnix",
		Inner:  model.FieldExpr{Path: []string{"At"}},
	}, at.Getter)
	assert.Equal(t, model.AssignField{
		Path: []string{"At"},
		Value: model.SerializerCall{
			Var:    "eventSerializer",
			Method: "UnixToTime",
			Inner:  model.RowReadExpr{Column: "At", Reader: "GetInt64"},
		},
	}, at.Setter)

	status := e.Field("Status")
	assert.Equal(t, model.KindInt, status.StorageKind)
	assert.Equal(t, "IntToStatus", e.Bindings["Status"].Deserialize.Name)

	// serialize:string 过滤掉存储为 int64 的方法对
	tags := e.Bindings["Tags"]
	assert.Equal(t, "TagsToText", tags.Serialize.Name)
	assert.Equal(t, "TextToTags", tags.Deserialize.Name)
	assert.Equal(t, model.KindString, tags.StorageKind)
}

func TestSerializerFromOtherPackage(t *testing.T) {
	dir := writePackage(t, map[string]string{
		"codec/codec.go": `package codec

import "time"

type Times struct{}

// @Serialize
func (*Times) Encode(t time.Time) string { return t.Format(time.RFC3339) }

// @Deserialize
func (*Times) Decode(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
`,
		"model/log.go": `package model

import (
	"time"

	"example.com/app/codec"
)

var _ codec.Times

type Log struct {
	ID int64     ` + "`lite:\"primaryKey\"`" + `
	At time.Time
}
`,
	})

	e, err := Entity(structparse.NewLoader(), dir, "Log", EntityOptions{Serializer: "codec.Times"})
	require.NoError(t, err)
	assert.Equal(t, "example.com/app/codec", e.Serializer.PkgPath)
	assert.False(t, e.Serializer.Local)
	assert.Equal(t, model.KindString, e.Field("At").StorageKind)
	assert.Equal(t, "GetString", e.Field("At").Setter.SetValue().(model.SerializerCall).Inner.(model.RowReadExpr).Reader)
}

func TestSerializerErrors(t *testing.T) {
	tests := []struct {
		name     string
		codec    string
		contains string
	}{
		{
			name: "ambiguous deserializer",
			codec: `
// @Serialize
func (Codec) Enc(t time.Time) int64 { return t.Unix() }

// @Deserialize
func (Codec) DecA(v int64) time.Time { return time.Unix(v, 0) }

// @Deserialize
func (Codec) DecB(v int64) time.Time { return time.Unix(v, 0) }
`,
			contains: "类型 time.Time 匹配到多个 @Deserialize 方法: DecA, DecB",
		},
		{
			name: "missing serializer",
			codec: `
// @Deserialize
func (Codec) Dec(v int64) time.Time { return time.Unix(v, 0) }
`,
			contains: "没有参数类型为 time.Time 的 @Serialize 方法",
		},
		{
			name: "storage mismatch",
			codec: `
// @Serialize
func (Codec) Enc(t time.Time) int64 { return t.Unix() }

// @Deserialize
func (Codec) Dec(v string) time.Time { return time.Time{} }
`,
			contains: "存储类型不一致",
		},
		{
			name: "nested serialization",
			codec: `
// @Serialize
func (Codec) Enc(t time.Time) []byte { return nil }

// @Deserialize
func (Codec) Dec(v []byte) time.Time { return time.Time{} }
`,
			contains: "不支持嵌套序列化",
		},
		{
			name: "bad signature",
			codec: `
// @Serialize
func (Codec) Enc(t time.Time, loc *time.Location) int64 { return t.Unix() }
`,
			contains: "序列化方法必须只有一个参数和一个返回值",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writePackage(t, map[string]string{
				"model/entity.go": `package model

import "time"

type Entity struct {
	ID string ` + "`lite:\"primaryKey\"`" + `
	At time.Time
}
`,
				"model/codec.go": "package model\n\nimport \"time\"\n\ntype Codec struct{}\n" + tt.codec,
			})
			_, err := Entity(structparse.NewLoader(), dir, "Entity", EntityOptions{Serializer: "Codec"})
			requireInvalid(t, err, tt.contains)
		})
	}
}

func TestSerializerUnknownType(t *testing.T) {
	_, err := analyzeEntity(t, `package model

import "time"

type Entity struct {
	ID string `+"`lite:\"primaryKey\"`"+`
	At time.Time
}
`, "Entity", EntityOptions{Serializer: "Missing"})
	requireInvalid(t, err, "serializer=Missing 无法解析")
}
