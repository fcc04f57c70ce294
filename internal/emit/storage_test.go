package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donutnomad/litegen/internal/model"
)

var (
	errType = model.Named("", "error")
	ctxType = model.Named("context", "Context")
	entityT = model.Named(modelPath, "SimpleEntity")
)

func ptr(t *model.TypeRef) *model.TypeRef {
	return &model.TypeRef{Kind: model.TypePointer, Elem: t}
}

func slice(t *model.TypeRef) *model.TypeRef {
	return &model.TypeRef{Kind: model.TypeSlice, Elem: t}
}

// method 构造存储方法，首个参数为 context 时自动设置 Context
func method(name string, kind model.MethodKind, sig []model.Param, results ...*model.TypeRef) *model.StorageMethod {
	m := &model.StorageMethod{Name: name, Kind: kind, Signature: sig, Results: results}
	if len(sig) > 0 && sig[0].Type.Is("context", "Context") {
		m.Context = &m.Signature[0]
	}
	return m
}

func withEntity(m *model.StorageMethod, shape model.Shape) *model.StorageMethod {
	m.EntityParam = &m.Signature[len(m.Signature)-1]
	m.EntityShape = shape
	return m
}

func storageModel(pkgPath, pkgName string) *model.Storage {
	ctx := model.Param{Name: "ctx", Type: ctxType}

	createTable := method("CreateTable", model.MethodCreateTable, []model.Param{ctx}, errType)
	insert := withEntity(method("Insert", model.MethodInsert, []model.Param{ctx, {Name: "e", Type: ptr(entityT)}}, errType), model.ShapePointer)
	insertAll := withEntity(method("InsertAll", model.MethodInsert,
		[]model.Param{{Name: "items", Type: &model.TypeRef{Kind: model.TypeEllipsis, Elem: ptr(entityT)}}}, errType), model.ShapePointerVarargs)
	insertAll.Variadic = true
	replace := withEntity(method("Save", model.MethodReplace, []model.Param{ctx, {Name: "v", Type: entityT}}, errType), model.ShapeValue)

	update := withEntity(method("Update", model.MethodUpdate, []model.Param{ctx, {Name: "v", Type: entityT}}, model.Named("", "int"), errType), model.ShapeValue)
	update.CountType = model.Named("", "int")
	updateAll := withEntity(method("UpdateAll", model.MethodUpdate, []model.Param{ctx, {Name: "list", Type: slice(entityT)}}, model.Named("", "int64"), errType), model.ShapeValueSlice)
	updateAll.CountType = model.Named("", "int64")
	deleteOne := withEntity(method("Delete", model.MethodDeleteEntity, []model.Param{ctx, {Name: "e", Type: ptr(entityT)}}, errType), model.ShapePointer)

	deleteOld := method("DeleteByName", model.MethodDeletePredicate, []model.Param{ctx, {Name: "name", Type: model.Named("", "string")}}, model.Named("", "int64"), errType)
	deleteOld.Where = "Name = ?"
	deleteOld.Args = deleteOld.Signature[1:]
	deleteOld.CountType = model.Named("", "int64")

	find := method("Find", model.MethodSelectOne, []model.Param{ctx, {Name: "id", Type: model.Named("", "string")}}, ptr(entityT), errType)
	find.Where = "id=?"
	find.Args = find.Signature[1:]
	find.ResultShape = model.ShapePointer

	list := method("List", model.MethodSelectMany, []model.Param{{Name: "limit", Type: model.Named("", "int")}}, slice(entityT), errType)
	list.OrderBy = "Name"
	list.Limit = "?"
	list.Args = list.Signature
	list.ResultShape = model.ShapeValueSlice

	return &model.Storage{
		Name:    "SimpleStorage",
		PkgName: pkgName,
		PkgPath: pkgPath,
		Entity:  simpleEntity(),
		Methods: []*model.StorageMethod{createTable, insert, insertAll, replace, update, updateAll, deleteOne, deleteOld, find, list},
	}
}

func TestStorage(t *testing.T) {
	src, err := Storage(storageModel(modelPath, "model"))
	require.NoError(t, err)
	mustParse(t, src)
	code := squash(src)

	for _, want := range []string{
		"type simpleStorageImpl struct { store rowstore.Store mapper SimpleEntityMapper }",
		"func NewSimpleStorage(store rowstore.Store) SimpleStorage { return &simpleStorageImpl{store: store} }",
		"var _ SimpleStorage = (*simpleStorageImpl)(nil)",

		"func (s *simpleStorageImpl) CreateTable(ctx context.Context) error { _, err := s.store.Exec(ctx, s.mapper.CreateTableSQL()) return err }",

		"func (s *simpleStorageImpl) Insert(ctx context.Context, e *SimpleEntity) error { return s.store.Insert(ctx, s.mapper.TableName(), s.mapper.ToRow(e)) }",

		"func (s *simpleStorageImpl) InsertAll(items ...*SimpleEntity) error { ctx := context.Background() " +
			"for _, item := range items { if err := s.store.Insert(ctx, s.mapper.TableName(), s.mapper.ToRow(item)); err != nil { return err } } return nil }",

		"return s.store.Replace(ctx, s.mapper.TableName(), s.mapper.ToRow(&v))",

		"func (s *simpleStorageImpl) Update(ctx context.Context, v SimpleEntity) (int, error) { " +
			"n, err := s.store.Update(ctx, s.mapper.TableName(), s.mapper.ToRow(&v), s.mapper.IDWhere(), s.mapper.IDArgs(&v)...) return int(n), err }",

		"var total int64 for i := range list { n, err := s.store.Update(ctx, s.mapper.TableName(), s.mapper.ToRow(&list[i]), s.mapper.IDWhere(), s.mapper.IDArgs(&list[i])...) " +
			"if err != nil { return total, err } total += n } return total, nil",

		"_, err := s.store.Delete(ctx, s.mapper.TableName(), s.mapper.IDWhere(), s.mapper.IDArgs(e)...) return err",

		`n, err := s.store.Delete(ctx, s.mapper.TableName(), "Name = ?", name) return n, err`,

		`Limit: "1"`,
		`Where: "id=?"`,
		"Args: []any{id}",
		"defer rows.Close()",
		"if !rows.Next() { return nil, rows.Err() } return s.mapper.FromRow(rows.Row())",

		"func (s *simpleStorageImpl) List(limit int) ([]SimpleEntity, error) { ctx := context.Background()",
		`OrderBy: "Name"`,
		`Limit: "?"`,
		"Args: []any{limit}",
		"var result []SimpleEntity for rows.Next() { item, err := s.mapper.FromRow(rows.Row()) if err != nil { return nil, err } result = append(result, *item) } return result, rows.Err()",
	} {
		assert.Contains(t, code, want)
	}
}

func TestStorage_EntityInOtherPackage(t *testing.T) {
	src, err := Storage(storageModel("example.com/app/store", "store"))
	require.NoError(t, err)
	mustParse(t, src)
	code := squash(src)

	assert.Contains(t, code, "package store")
	assert.Contains(t, code, `"example.com/app/model"`)
	assert.Contains(t, code, "mapper model.SimpleEntityMapper")
	assert.Contains(t, code, "func (s *simpleStorageImpl) Insert(ctx context.Context, e *model.SimpleEntity) error")
	assert.Contains(t, code, "var result []model.SimpleEntity")
}

func TestStorage_MissingEntity(t *testing.T) {
	s := storageModel(modelPath, "model")
	s.Entity = nil
	_, err := Storage(s)
	require.ErrorIs(t, err, model.ErrInternal)
}
