package structparse

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterface(t *testing.T) {
	root := writeModule(t, map[string]string{
		"store/base.go": `package store

import "context"

type Creator interface {
	// @CreateTable
	CreateTable(ctx context.Context) error
}
`,
		"repo/repo.go": `package repo

import (
	"context"
	"io"

	"example.com/app/store"
)

type User struct {
	ID string
}

// @Storage
type UserStorage interface {
	store.Creator
	io.Closer
	Finder

	// @Insert
	Insert(ctx context.Context, u *User) error
}

type Finder interface {
	Finder
	// @Select(where="id=?")
	Find(ctx context.Context, id string) (*User, error)
}
`,
	})

	info, err := NewLoader().Interface(filepath.Join(root, "repo"), "UserStorage")
	require.NoError(t, err)

	assert.Equal(t, "repo", info.PackageName)
	assert.Equal(t, "example.com/app/repo", info.PkgPath)
	require.Equal(t, []string{"CreateTable", "Find", "Insert"}, methodNames(info.Methods))
	assert.Equal(t, []string{"io.Closer"}, info.Unexpanded)

	create := info.Methods[0]
	require.Len(t, create.Annotations, 1)
	assert.Equal(t, "CreateTable", create.Annotations[0].Name)
	assert.Equal(t, "context.Context", create.Params[0].Type.String())

	find := info.Methods[1]
	require.Len(t, find.Annotations, 1)
	assert.Equal(t, "id=?", find.Annotations[0].GetParam("where"))
	assert.Equal(t, "*example.com/app/repo.User", find.Results[0].Type.String())
}

func TestInterfaceNotInterface(t *testing.T) {
	root := writeModule(t, map[string]string{
		"repo/repo.go": `package repo

type User struct{}
`,
	})

	_, err := NewLoader().Interface(filepath.Join(root, "repo"), "User")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "不是接口类型")
}
