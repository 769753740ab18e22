package sql

import "github.com/csbase/csbase/expr"

// ColumnDef is one column in a CREATE TABLE statement.
type ColumnDef struct {
	Name string
	Type string // one of str|bool|int|float, validated by exec
}

// CreateTable is `CREATE TABLE name (col type, ...)`.
type CreateTable struct {
	Name    string
	Columns []ColumnDef
}

// DropTable is `DROP TABLE name`.
type DropTable struct {
	Name string
}

// Insert is `INSERT INTO name (col, ...) VALUES (expr, ...)`.
type Insert struct {
	Table   string
	Columns []string
	Values  []*expr.Expr
}

// Select is `SELECT col, ... FROM name [WHERE expr]`. Columns is nil for
// `SELECT *`.
type Select struct {
	Table     string
	Columns   []string
	Condition *expr.Expr
}

// Delete is `DELETE FROM name [WHERE expr]`. Recognised by the grammar
// per spec.md §3/§9 but rejected by the executor: the storage engine
// implements no delete operation.
type Delete struct {
	Table     string
	Condition *expr.Expr
}

// Statement is the sum type the parser produces and the executor
// consumes. Exactly one field is non-nil.
type Statement struct {
	CreateTable *CreateTable
	DropTable   *DropTable
	Insert      *Insert
	Select      *Select
	Delete      *Delete
}
