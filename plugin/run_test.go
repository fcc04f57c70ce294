package plugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/donutnomad/gg"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type varParams struct {
	Value  string `param:"name=value,required=true,default=,description=变量值"`
	Output string `param:"name=output,required=false,default=,description=输出文件"`
}

// varGenerator 为每个结构体生成一个变量，value=fail 时返回单元错误
type varGenerator struct {
	BaseGenerator
}

func newVarGenerator() *varGenerator {
	return &varGenerator{
		BaseGenerator: *NewBaseGenerator("vargen", []string{"Var"}, []TargetKind{TargetStruct}, varParams{}),
	}
}

func (g *varGenerator) Generate(ctx *GenerateContext) (*GenerateResult, error) {
	result := NewGenerateResult()
	for _, at := range ctx.Targets {
		p := at.ParsedParams.(varParams)
		if p.Value == "fail" {
			result.AddError(fmt.Errorf("%s: 生成失败", at.Target.Name))
			continue
		}
		src := fmt.Sprintf("package %s\n\nvar Var%s = %q\n", at.Target.PackageName, at.Target.Name, p.Value)
		def, err := ParseSourceToGG([]byte(src))
		if err != nil {
			return nil, err
		}
		ann := at.Annotation("Var")
		result.AddDefinition(GetOutputPath(at.Target, ann, "$TYPE_var.go", ctx.GetPackageConfig(at.Target), g.Name(), ctx.DefaultOutput), def)
	}
	return result, nil
}

const runSource = `package model

// @Var(value=a)
type Alpha struct{}

// @Var(value=b, output=shared)
type Beta struct{}

// @Var(value=c, output=shared)
type Gamma struct{}

// @Var
type Missing struct{}

// @Var(value=fail)
type Broken struct{}
`

func runVar(t *testing.T, dir string, fs afero.Fs, check bool) (*RunStats, error) {
	t.Helper()
	registry := NewRegistry()
	registry.MustRegister(newVarGenerator())
	return RunWithOptionsAndStats(context.Background(), &RunOptions{
		Registry: registry,
		Patterns: []string{dir},
		Fs:       fs,
		Check:    check,
	})
}

func TestRunWithOptionsAndStats(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "model.go"), runSource)
	fs := afero.NewMemMapFs()

	stats, err := runVar(t, dir, fs, false)
	require.Error(t, err)
	assert.Equal(t, 5, stats.TargetCount)
	assert.Equal(t, 2, stats.FileCount)
	require.Len(t, stats.Errors, 2)
	assert.Contains(t, stats.Errors[0].Error(), "Missing")
	assert.Contains(t, stats.Errors[0].Error(), "缺少必填参数 value")
	assert.Contains(t, stats.Errors[1].Error(), "Broken")

	alpha, err := afero.ReadFile(fs, filepath.Join(dir, "alpha_var.go"))
	require.NoError(t, err)
	assert.Contains(t, string(alpha), GeneratedHeader)
	assert.Contains(t, string(alpha), "package model")
	assert.Contains(t, string(alpha), `var VarAlpha = "a"`)

	shared, err := afero.ReadFile(fs, filepath.Join(dir, "shared.go"))
	require.NoError(t, err)
	assert.Contains(t, string(shared), `var VarBeta = "b"`)
	assert.Contains(t, string(shared), `var VarGamma = "c"`)
	assert.Less(t, strings.Index(string(shared), "VarBeta"), strings.Index(string(shared), "VarGamma"))
}

func TestRunWithOptionsAndStats_Check(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "model.go"), runSource)
	fs := afero.NewMemMapFs()

	_, _ = runVar(t, dir, fs, false)

	stats, _ := runVar(t, dir, fs, true)
	assert.Empty(t, stats.StaleFiles)
	assert.Equal(t, 2, stats.FileCount)

	alphaPath := filepath.Join(dir, "alpha_var.go")
	require.NoError(t, afero.WriteFile(fs, alphaPath, []byte("package model\n"), 0o644))
	stats, _ = runVar(t, dir, fs, true)
	assert.Equal(t, []string{alphaPath}, stats.StaleFiles)

	// Check 模式不写文件
	data, err := afero.ReadFile(fs, alphaPath)
	require.NoError(t, err)
	assert.Equal(t, "package model\n", string(data))
}

func TestRunWithOptionsAndStats_IOError(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "model.go"), runSource)

	_, err := runVar(t, dir, afero.NewReadOnlyFs(afero.NewMemMapFs()), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationIO))
}

func TestRunWithOptionsAndStats_NoGenerators(t *testing.T) {
	_, err := RunWithOptionsAndStats(context.Background(), &RunOptions{Registry: NewRegistry(), Patterns: []string{t.TempDir()}})
	require.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join("out", "sub", "user_mapper.go")
	require.NoError(t, WriteFile(fs, path, []byte("package a\n")))
	require.NoError(t, WriteFile(fs, path, []byte("package b\n")))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "package b\n", string(data))

	err = WriteFile(afero.NewReadOnlyFs(afero.NewMemMapFs()), path, []byte("x"))
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, path, ioErr.Path)
	assert.True(t, errors.Is(err, ErrGenerationIO))
}

func TestCheckFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	stale, err := checkFile(fs, "missing.go", []byte("package a\n"))
	require.NoError(t, err)
	assert.True(t, stale)

	require.NoError(t, afero.WriteFile(fs, "same.go", []byte("package a\n"), 0o644))
	stale, err = checkFile(fs, "same.go", []byte("package a\n"))
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestGetOutputPath(t *testing.T) {
	target := &Target{Name: "UserStore", PackageName: "store", FilePath: "/app/store/user.go"}
	withOutput := &Annotation{Name: "Storage", Params: map[string]string{"output": "custom"}}
	bare := &Annotation{Name: "Storage", Params: map[string]string{}}
	pkgCfg := &PackageConfig{DefaultOutput: "$PACKAGE_all", PluginOutputs: map[string]string{"ormgen": "$FILE_orm.go"}}

	tests := []struct {
		name   string
		ann    *Annotation
		cfg    *PackageConfig
		plugin string
		cmd    string
		want   string
	}{
		{"默认文件名", bare, nil, "ormgen", "", "/app/store/user_store_storage.go"},
		{"注解参数优先", withOutput, pkgCfg, "ormgen", "cmd.go", "/app/store/custom.go"},
		{"包级插件配置", bare, pkgCfg, "OrmGen", "cmd.go", "/app/store/user_orm.go"},
		{"包级默认配置", bare, pkgCfg, "other", "cmd.go", "/app/store/store_all.go"},
		{"命令行参数", bare, nil, "ormgen", "$TYPE_x", "/app/store/user_store_x.go"},
		{"绝对路径", &Annotation{Params: map[string]string{"output": "/tmp/out.go"}}, nil, "ormgen", "", "/tmp/out.go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetOutputPath(target, tt.ann, "$TYPE_storage.go", tt.cfg, tt.plugin, tt.cmd)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestMergeDefinitions(t *testing.T) {
	a, err := ParseSourceToGG([]byte("package model\n\nvar A = 1\n"))
	require.NoError(t, err)
	b, err := ParseSourceToGG([]byte("package other\n\nvar B = 1\n"))
	require.NoError(t, err)

	_, err = mergeDefinitions(nil, nil)
	require.Error(t, err)

	_, err = mergeDefinitions([]*gg.Generator{a, b}, []string{"x", "y"})
	require.Error(t, err, "包名不一致")
}
