// Package exec is the query executor: it dispatches a parsed sql.Statement
// to the catalog and table-file layers and is the only package that knows
// about both at once. This is the glue the original called "engine" —
// everything upstream of it (value, expr, page, table, catalog) has no
// notion of SQL at all.
package exec

import (
	"go.uber.org/zap"

	"github.com/csbase/csbase/catalog"
	"github.com/csbase/csbase/dbconfig"
	"github.com/csbase/csbase/dberrors"
	"github.com/csbase/csbase/expr"
	"github.com/csbase/csbase/sql"
	"github.com/csbase/csbase/table"
	"github.com/csbase/csbase/value"
)

// Engine binds a Catalog to the data directory its tables' files live in.
// An Engine is not safe for concurrent use by multiple goroutines; callers
// that share one must serialize their calls to Execute.
type Engine struct {
	cat *catalog.Catalog
	cfg dbconfig.Config
	log *zap.Logger
}

// New constructs an Engine over an already-open catalog.
func New(cat *catalog.Catalog, cfg dbconfig.Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cat: cat, cfg: cfg, log: log}
}

// Result is the outcome of executing one statement: at most one of
// RowsAffected/Rows is meaningful, depending on the statement kind.
type Result struct {
	Message      string
	Columns      []string
	Rows         [][]value.Value
	RowsAffected int
}

// Execute dispatches stmt to the matching engine operation.
func (e *Engine) Execute(stmt *sql.Statement) (Result, error) {
	switch {
	case stmt.CreateTable != nil:
		return e.createTable(stmt.CreateTable)
	case stmt.DropTable != nil:
		return e.dropTable(stmt.DropTable)
	case stmt.Insert != nil:
		return e.insert(stmt.Insert)
	case stmt.Select != nil:
		return e.selectRows(stmt.Select)
	case stmt.Delete != nil:
		return Result{}, dberrors.Validation("DELETE is not supported by this engine")
	default:
		return Result{}, dberrors.Validation("empty statement")
	}
}

// createTable implements CREATE TABLE: the catalog entry is written first,
// then the backing data file. If the file cannot be created, the catalog
// entry is removed again, per the catalog-then-file rollback policy (§9):
// a table with no data file is worse than no table at all, so the two are
// kept in lockstep even though they live in separate files.
func (e *Engine) createTable(stmt *sql.CreateTable) (Result, error) {
	if e.cat.Has(stmt.Name) {
		return Result{}, dberrors.Conflict(stmt.Name)
	}
	cols := make([]catalog.Column, 0, len(stmt.Columns))
	seen := make(map[string]bool, len(stmt.Columns))
	for _, c := range stmt.Columns {
		if seen[c.Name] {
			return Result{}, dberrors.Validation("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		t, ok := value.ParseType(c.Type)
		if !ok {
			return Result{}, dberrors.Validation("unknown column type %q", c.Type)
		}
		cols = append(cols, catalog.Column{Name: c.Name, Type: t})
	}
	schema := catalog.Schema{Name: stmt.Name, Columns: cols}

	if err := e.cat.Put(schema); err != nil {
		return Result{}, err
	}
	if err := table.Create(e.cfg.TableDataPath(stmt.Name)); err != nil {
		if rmErr := e.cat.Remove(stmt.Name); rmErr != nil {
			e.log.Error("failed to roll back catalog entry after data file creation failure",
				zap.String("table", stmt.Name), zap.Error(rmErr))
		}
		return Result{}, err
	}
	e.log.Info("created table", zap.String("table", stmt.Name))
	return Result{Message: "table created"}, nil
}

// dropTable implements DROP TABLE: the data file is removed first, then
// the catalog entry. Catalog.Remove always rewrites the catalog file
// (§9), so a crash between the two leaves, at worst, a catalog entry with
// no backing file rather than a file with no entry.
func (e *Engine) dropTable(stmt *sql.DropTable) (Result, error) {
	if !e.cat.Has(stmt.Name) {
		return Result{}, dberrors.NotFound(stmt.Name)
	}
	if err := table.Delete(e.cfg.TableDataPath(stmt.Name)); err != nil {
		return Result{}, err
	}
	if err := e.cat.Remove(stmt.Name); err != nil {
		return Result{}, err
	}
	e.log.Info("dropped table", zap.String("table", stmt.Name))
	return Result{Message: "table dropped"}, nil
}

// insert implements INSERT INTO: columns and values must have equal
// arity (§9: no partial rows by position), every named column must exist,
// and any column the statement omits defaults to Null.
func (e *Engine) insert(stmt *sql.Insert) (Result, error) {
	schema, ok := e.cat.Get(stmt.Table)
	if !ok {
		return Result{}, dberrors.NotFound(stmt.Table)
	}
	if len(stmt.Columns) != len(stmt.Values) {
		return Result{}, dberrors.Validation("insert has %d columns but %d values", len(stmt.Columns), len(stmt.Values))
	}

	record := make([]value.Value, len(schema.Columns))
	for i := range record {
		record[i] = value.Null
	}

	for i, name := range stmt.Columns {
		pos := schema.ColumnIndex(name)
		if pos < 0 {
			return Result{}, dberrors.NotFound(name)
		}
		v, err := expr.EvalConst(stmt.Values[i])
		if err != nil {
			return Result{}, err
		}
		if !v.CompatibleWith(schema.Columns[pos].Type) {
			return Result{}, dberrors.Validation("value for column %q does not match its type", name)
		}
		record[pos] = v
	}

	f := table.Open(e.cfg.TableDataPath(stmt.Table), e.log)
	if err := f.Insert(record); err != nil {
		return Result{}, err
	}
	return Result{Message: "row inserted", RowsAffected: 1}, nil
}

// selectRows implements SELECT: it validates that every named column
// exists in the table's schema before scanning (SELECT * selects every
// column in schema order), then streams matching rows from the data file.
func (e *Engine) selectRows(stmt *sql.Select) (Result, error) {
	schema, ok := e.cat.Get(stmt.Table)
	if !ok {
		return Result{}, dberrors.NotFound(stmt.Table)
	}

	cols := stmt.Columns
	if cols == nil {
		cols = make([]string, len(schema.Columns))
		for i, c := range schema.Columns {
			cols[i] = c.Name
		}
	}
	positions := make([]int, len(cols))
	for i, name := range cols {
		pos := schema.ColumnIndex(name)
		if pos < 0 {
			return Result{}, dberrors.NotFound(name)
		}
		positions[i] = pos
	}

	f := table.Open(e.cfg.TableDataPath(stmt.Table), e.log)
	var rows [][]value.Value
	err := f.Scan(schema, stmt.Condition, func(record []value.Value) error {
		projected := make([]value.Value, len(positions))
		for i, pos := range positions {
			projected[i] = record[pos]
		}
		rows = append(rows, projected)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Columns: cols, Rows: rows}, nil
}
