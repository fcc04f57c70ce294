package ddl

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/litegen/internal/model"
)

func field(name string, kind model.Kind, primary bool) *model.Field {
	return &model.Field{Name: name, Column: name, Kind: kind, StorageKind: kind, Primary: primary}
}

func TestCreateTableSimpleEntity(t *testing.T) {
	e := &model.Entity{
		Name:  "SimpleEntity",
		Table: "SimpleEntity",
		Fields: []*model.Field{
			field("id", model.KindString, true),
			field("message", model.KindString, false),
			field("Length", model.KindInt, false),
		},
	}
	sql, err := CreateTable(e)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS SimpleEntity(id TEXT NOT NULL PRIMARY KEY, message TEXT, Length INTEGER)", sql)
	assert.Equal(t, 1, strings.Count(sql, "PRIMARY KEY"))
	assert.Equal(t, "id=?", IDWhere(e))
}

func TestCreateTableCompositeKey(t *testing.T) {
	e := &model.Entity{
		Name:  "Membership",
		Table: "Membership",
		Fields: []*model.Field{
			field("groupId", model.KindString, true),
			field("joined", model.KindLong, false),
			field("userId", model.KindString, true),
		},
	}
	sql, err := CreateTable(e)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS Membership(groupId TEXT NOT NULL, joined INTEGER, userId TEXT NOT NULL, PRIMARY KEY(groupId,userId))", sql)
	assert.Equal(t, "groupId=? AND userId=?", IDWhere(e))
}

func TestCreateTableStorageKinds(t *testing.T) {
	at := field("at", model.KindOther, false)
	at.StorageKind = model.KindLong
	e := &model.Entity{
		Name:  "Sample",
		Table: "samples",
		Fields: []*model.Field{
			field("id", model.KindLong, true),
			field("ok", model.KindBool, false),
			field("small", model.KindShort, false),
			field("ratio", model.KindFloat, false),
			field("score", model.KindDouble, false),
			at,
		},
	}
	sql, err := CreateTable(e)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS samples(id INTEGER NOT NULL PRIMARY KEY, ok INTEGER, small INTEGER, ratio REAL, score REAL, at INTEGER)", sql)
}

func TestCreateTableErrors(t *testing.T) {
	_, err := CreateTable(&model.Entity{Name: "Empty", Table: "Empty"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidEntity))

	_, err = CreateTable(&model.Entity{
		Name:   "NoKey",
		Table:  "NoKey",
		Fields: []*model.Field{field("a", model.KindString, false)},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidEntity))

	// 未绑定序列化器的字段是生成器缺陷
	_, err = CreateTable(&model.Entity{
		Name:   "Broken",
		Table:  "Broken",
		Fields: []*model.Field{field("a", model.KindOther, true)},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInternal))
	assert.False(t, errors.Is(err, model.ErrInvalidEntity))
}
