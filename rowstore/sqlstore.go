package rowstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNoColumns 写入时没有任何列
var ErrNoColumns = errors.New("rowstore: 没有要写入的列")

// SQLStore 基于 database/sql 的 Store 实现，生成 SQLite 方言的语句
type SQLStore struct {
	exec Executor
	log  func(ctx context.Context, query string, args []any)
}

// Option SQLStore 选项
type Option func(*SQLStore)

// WithLog 在执行每条语句前调用 fn，用于调试
func WithLog(fn func(ctx context.Context, query string, args []any)) Option {
	return func(s *SQLStore) {
		s.log = fn
	}
}

// New 创建 SQLStore，exec 可以是 *sql.DB 或 *sql.Tx
func New(exec Executor, opts ...Option) *SQLStore {
	s := &SQLStore{exec: exec}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*SQLStore)(nil)

func (s *SQLStore) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if s.log != nil {
		s.log(ctx, query, args)
	}
	res, err := s.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLStore) Insert(ctx context.Context, table string, values *Values) error {
	query, err := insertSQL("INSERT INTO", table, values)
	if err != nil {
		return err
	}
	_, err = s.Exec(ctx, query, values.Args()...)
	return err
}

func (s *SQLStore) Replace(ctx context.Context, table string, values *Values) error {
	query, err := insertSQL("INSERT OR REPLACE INTO", table, values)
	if err != nil {
		return err
	}
	_, err = s.Exec(ctx, query, values.Args()...)
	return err
}

func (s *SQLStore) Update(ctx context.Context, table string, values *Values, where string, args ...any) (int64, error) {
	if values.Len() == 0 {
		return 0, ErrNoColumns
	}
	sets := make([]string, values.Len())
	for i, col := range values.Columns() {
		sets[i] = col + "=?"
	}
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(table)
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(sets, ", "))
	writeClause(&sb, " WHERE ", where)
	return s.Exec(ctx, sb.String(), append(values.Args(), args...)...)
}

func (s *SQLStore) Delete(ctx context.Context, table string, where string, args ...any) (int64, error) {
	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(table)
	writeClause(&sb, " WHERE ", where)
	return s.Exec(ctx, sb.String(), args...)
}

func (s *SQLStore) Query(ctx context.Context, q *Query) (Rows, error) {
	query := SelectSQL(q)
	if s.log != nil {
		s.log(ctx, query, q.Args)
	}
	rows, err := s.exec.QueryContext(ctx, query, q.Args...)
	if err != nil {
		return nil, err
	}
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	return &sqlRows{rows: rows, columns: columns}, nil
}

// SelectSQL 生成查询语句
func SelectSQL(q *Query) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(q.Columns, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(q.Table)
	writeClause(&sb, " WHERE ", q.Where)
	writeClause(&sb, " ORDER BY ", q.OrderBy)
	writeClause(&sb, " LIMIT ", q.Limit)
	return sb.String()
}

func insertSQL(verb, table string, values *Values) (string, error) {
	if values.Len() == 0 {
		return "", ErrNoColumns
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", values.Len()), ", ")
	return fmt.Sprintf("%s %s(%s) VALUES(%s)", verb, table, strings.Join(values.Columns(), ", "), placeholders), nil
}

func writeClause(sb *strings.Builder, keyword, clause string) {
	if clause = strings.TrimSpace(clause); clause != "" {
		sb.WriteString(keyword)
		sb.WriteString(clause)
	}
}

// sqlRows 将 *sql.Rows 适配为 Rows
type sqlRows struct {
	rows    *sql.Rows
	columns []string
	current *MapRow
	err     error
}

func (r *sqlRows) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}
	dest := make([]any, len(r.columns))
	ptrs := make([]any, len(r.columns))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		r.err = err
		return false
	}
	values := make(map[string]any, len(r.columns))
	for i, col := range r.columns {
		values[col] = dest[i]
	}
	r.current = NewMapRow(values)
	return true
}

func (r *sqlRows) Row() Row {
	return r.current
}

func (r *sqlRows) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

func (r *sqlRows) Close() error {
	return r.rows.Close()
}

// SliceRows 内存中的 Rows，用于测试和 mock
type SliceRows struct {
	rows   []map[string]any
	index  int
	closed bool
}

// NewSliceRows 创建内存结果集
func NewSliceRows(rows ...map[string]any) *SliceRows {
	return &SliceRows{rows: rows, index: -1}
}

func (r *SliceRows) Next() bool {
	if r.closed || r.index+1 >= len(r.rows) {
		return false
	}
	r.index++
	return true
}

func (r *SliceRows) Row() Row {
	return NewMapRow(r.rows[r.index])
}

func (r *SliceRows) Err() error {
	return nil
}

func (r *SliceRows) Close() error {
	r.closed = true
	return nil
}

// Closed 是否已关闭
func (r *SliceRows) Closed() bool {
	return r.closed
}
