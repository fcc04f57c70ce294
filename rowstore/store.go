// Package rowstore 是 litegen 生成代码使用的行存储抽象
//
// 生成的映射器把实体转换为 Values，或者从 Row 中按列读取字段；
// 生成的存储实现只通过 Store 执行单条 SQL 语句，不管理事务。
// 需要跨多个实体保证原子性时，调用方把 *sql.Tx 传给 New 即可:
//
//	tx, _ := db.BeginTx(ctx, nil)
//	users := model.NewUserStorage(rowstore.New(tx))
//	if err := users.Insert(ctx, u1, u2); err != nil {
//	    _ = tx.Rollback()
//	    return err
//	}
//	return tx.Commit()
package rowstore

import (
	"context"
	"database/sql"
)

// Executor 执行 SQL 的最小接口，*sql.DB、*sql.Tx 与 *sql.Conn 都满足
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store 生成的存储实现依赖的行存储
type Store interface {
	// Exec 执行任意语句，返回影响行数
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Insert 插入一行，主键冲突时返回存储层的错误
	Insert(ctx context.Context, table string, values *Values) error
	// Replace 插入一行，主键冲突时覆盖已有行
	Replace(ctx context.Context, table string, values *Values) error
	// Update 按条件更新，返回影响行数
	Update(ctx context.Context, table string, values *Values, where string, args ...any) (int64, error)
	// Delete 按条件删除，where 为空时删除所有行
	Delete(ctx context.Context, table string, where string, args ...any) (int64, error)
	// Query 查询，调用方必须关闭返回的 Rows
	Query(ctx context.Context, q *Query) (Rows, error)
}

// Query 单表查询
type Query struct {
	Table   string
	Columns []string
	Where   string
	Args    []any // where、order by、limit 中占位符的参数，按出现顺序
	OrderBy string
	Limit   string
}

// Rows 查询结果游标
type Rows interface {
	Next() bool
	Row() Row
	Err() error
	Close() error
}

// Row 按列名读取当前行
// 读取失败时返回零值并记录第一个错误，通过 Err 获取
type Row interface {
	GetBool(column string) bool
	GetString(column string) string
	GetInt(column string) int
	GetInt8(column string) int8
	GetInt16(column string) int16
	GetInt32(column string) int32
	GetInt64(column string) int64
	GetUint(column string) uint
	GetUint8(column string) uint8
	GetUint16(column string) uint16
	GetUint32(column string) uint32
	GetUint64(column string) uint64
	GetFloat32(column string) float32
	GetFloat64(column string) float64
	Err() error
}

// Mapper 实体与行之间的转换，由 litegen 为每个实体生成
// 生成代码中的 var _ rowstore.Mapper[E] = EMapper{} 在编译期完成绑定
type Mapper[T any] interface {
	TableName() string
	Columns() []string
	CreateTableSQL() string
	ToRow(e *T) *Values
	FromRow(row Row) (*T, error)
	IDWhere() string
	IDArgs(e *T) []any
}
