package dataprocessing

// Logical table names, also used in logs and metrics
const (
	TableTasks   = "tasks"
	TableHistory = "history"
	TableSprints = "sprints"
)

// Cell is one field of a row. Valid is false for null.
type Cell struct {
	Value string
	Valid bool
}

// Null is the null cell
var Null = Cell{}

// Text returns a non-null cell holding s
func Text(s string) Cell {
	return Cell{Value: s, Valid: true}
}

// Row is one record of a Table
type Row []Cell

// IsEmpty reports whether every field of the row is null
func (r Row) IsEmpty() bool {
	for _, c := range r {
		if c.Valid {
			return false
		}
	}
	return true
}

// Table is an in-memory CSV extract
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given header
func NewTable(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has the named column
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Cell returns the cell at row i, column col, or Null when col is out of range
func (t *Table) Cell(i, col int) Cell {
	if col < 0 || col >= len(t.Rows[i]) {
		return Null
	}
	return t.Rows[i][col]
}

// withRows returns a table sharing t's header with the given rows
func (t *Table) withRows(rows []Row) *Table {
	return &Table{Name: t.Name, Columns: t.Columns, Rows: rows}
}

// Tables holds the three extracts of one run
type Tables struct {
	Tasks   *Table
	History *Table
	Sprints *Table
}

// Ordered returns the tables in processing order: tasks, history, sprints
func (ts *Tables) Ordered() []*Table {
	return []*Table{ts.Tasks, ts.History, ts.Sprints}
}

// TablePaths locates the three extracts on disk
type TablePaths struct {
	Entities string `json:"entities" validate:"required"`
	History  string `json:"history" validate:"required"`
	Sprints  string `json:"sprints" validate:"required"`
}
