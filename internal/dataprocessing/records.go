package dataprocessing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "sprintpulse/internal/errors"
	"sprintpulse/pkg/contracts/domain"
)

// Column names of the tracker extracts
const (
	ColEntityID        = "entity_id"
	ColName            = "name"
	ColType            = "type"
	ColStatus          = "status"
	ColResolution      = "resolution"
	ColPriority        = "priority"
	ColArea            = "area"
	ColAssignee        = "assignee"
	ColOwner           = "owner"
	ColWorkgroup       = "workgroup"
	ColEstimation      = "estimation"
	ColSpent           = "spent"
	ColCreateDate      = "create_date"
	ColUpdateDate      = "update_date"
	ColHistoryDate     = "history_date"
	ColHistoryVersion  = "history_version"
	ColSprintName      = "sprint_name"
	ColSprintStartDate = "sprint_start_date"
	ColSprintEndDate   = "sprint_end_date"
	ColEntityIDs       = "entity_ids"
)

// DefaultDateLayouts are tried in order for every timestamp column
var DefaultDateLayouts = []string{
	"01/02/06 15:04",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// RecordOptions controls typed conversion of table cells
type RecordOptions struct {
	DateLayouts []string
}

// DefaultRecordOptions returns the conversion options for tracker extracts
func DefaultRecordOptions() RecordOptions {
	return RecordOptions{DateLayouts: DefaultDateLayouts}
}

// Dataset is the typed form of a cleaned set of tables
type Dataset struct {
	Tasks   []domain.Task
	History []domain.HistoryEvent
	Sprints []domain.Sprint

	// UnparsedDates counts non-null timestamps that matched no layout
	UnparsedDates int
}

// ParseKey converts an identifier cell to int64. Exports that contain nulls
// render integer columns as floats, so "10.0" is accepted as 10.
func ParseKey(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
		f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("invalid identifier %q", s)
	}
	return int64(f), nil
}

// parseNumber converts a numeric cell; null or garbage yields nil
func parseNumber(c Cell) *float64 {
	if !c.Valid {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}

// parseTime tries each layout in turn; null or unmatched yields nil
func parseTime(c Cell, layouts []string) (*time.Time, bool) {
	if !c.Valid {
		return nil, true
	}
	v := strings.TrimSpace(c.Value)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// columns resolves optional column positions once per table
type columns struct {
	t   *Table
	idx map[string]int
}

func newColumns(t *Table, names ...string) columns {
	idx := make(map[string]int, len(names))
	for _, n := range names {
		idx[n] = t.ColumnIndex(n)
	}
	return columns{t: t, idx: idx}
}

func (c columns) cell(row int, name string) Cell {
	return c.t.Cell(row, c.idx[name])
}

func (c columns) str(row int, name string) string {
	return c.cell(row, name).Value
}

func requireColumns(t *Table, names ...string) error {
	for _, n := range names {
		if !t.HasColumn(n) {
			return apperrors.NewLoadError(fmt.Sprintf("%s extract is missing column %q", t.Name, n), nil).
				WithContext("table", t.Name).
				WithContext("column", n)
		}
	}
	return nil
}

func keyError(t *Table, row int, value string) error {
	return apperrors.NewParseError(fmt.Sprintf("%s extract has a non-numeric %s", t.Name, ColEntityID), nil).
		WithContext("table", t.Name).
		WithContext("row", row+1).
		WithContext("value", value)
}

// BuildDataset converts cleaned tables into typed records. Rows whose key
// is null are dropped since they can never join.
func BuildDataset(tables *Tables, opts RecordOptions) (*Dataset, error) {
	if len(opts.DateLayouts) == 0 {
		opts.DateLayouts = DefaultDateLayouts
	}

	ds := &Dataset{}
	var err error

	if ds.Tasks, err = buildTasks(tables.Tasks, opts, ds); err != nil {
		return nil, err
	}
	if ds.History, err = buildHistory(tables.History, opts, ds); err != nil {
		return nil, err
	}
	if ds.Sprints, err = buildSprints(tables.Sprints, opts, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

func buildTasks(t *Table, opts RecordOptions, ds *Dataset) ([]domain.Task, error) {
	if err := requireColumns(t, ColEntityID); err != nil {
		return nil, err
	}
	cols := newColumns(t, ColEntityID, ColName, ColType, ColStatus, ColResolution, ColPriority,
		ColArea, ColAssignee, ColOwner, ColWorkgroup, ColEstimation, ColSpent, ColCreateDate, ColUpdateDate)

	tasks := make([]domain.Task, 0, t.Len())
	for i := range t.Rows {
		key := cols.cell(i, ColEntityID)
		if !key.Valid {
			continue
		}
		id, err := ParseKey(key.Value)
		if err != nil {
			return nil, keyError(t, i, key.Value)
		}

		task := domain.Task{
			EntityID:   id,
			Name:       cols.str(i, ColName),
			Type:       cols.str(i, ColType),
			Status:     cols.str(i, ColStatus),
			Resolution: cols.str(i, ColResolution),
			Priority:   cols.str(i, ColPriority),
			Area:       cols.str(i, ColArea),
			Assignee:   cols.str(i, ColAssignee),
			Owner:      cols.str(i, ColOwner),
			Workgroup:  cols.str(i, ColWorkgroup),
			Estimation: parseNumber(cols.cell(i, ColEstimation)),
			Spent:      parseNumber(cols.cell(i, ColSpent)),
		}

		var ok bool
		if task.CreatedAt, ok = parseTime(cols.cell(i, ColCreateDate), opts.DateLayouts); !ok {
			ds.UnparsedDates++
		}
		if task.UpdatedAt, ok = parseTime(cols.cell(i, ColUpdateDate), opts.DateLayouts); !ok {
			ds.UnparsedDates++
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func buildHistory(t *Table, opts RecordOptions, ds *Dataset) ([]domain.HistoryEvent, error) {
	if err := requireColumns(t, ColEntityID, ColHistoryDate); err != nil {
		return nil, err
	}
	cols := newColumns(t, ColEntityID, ColHistoryDate, ColHistoryVersion, ColStatus)
	hasStatus := t.HasColumn(ColStatus)

	events := make([]domain.HistoryEvent, 0, t.Len())
	for i := range t.Rows {
		key := cols.cell(i, ColEntityID)
		if !key.Valid {
			continue
		}
		id, err := ParseKey(key.Value)
		if err != nil {
			return nil, keyError(t, i, key.Value)
		}

		ev := domain.HistoryEvent{
			EntityID:  id,
			Version:   parseNumber(cols.cell(i, ColHistoryVersion)),
			Status:    cols.str(i, ColStatus),
			HasStatus: hasStatus,
		}
		var ok bool
		if ev.Date, ok = parseTime(cols.cell(i, ColHistoryDate), opts.DateLayouts); !ok {
			ds.UnparsedDates++
		}
		events = append(events, ev)
	}
	return events, nil
}

func buildSprints(t *Table, opts RecordOptions, ds *Dataset) ([]domain.Sprint, error) {
	if err := requireColumns(t, ColSprintName, ColEntityIDs); err != nil {
		return nil, err
	}
	cols := newColumns(t, ColSprintName, ColSprintStartDate, ColSprintEndDate, ColEntityIDs)

	sprints := make([]domain.Sprint, 0, t.Len())
	for i := range t.Rows {
		name := cols.str(i, ColSprintName)

		literal := cols.cell(i, ColEntityIDs)
		if !literal.Valid {
			return nil, membershipError("", "missing value").
				WithContext("sprint", name).
				WithContext("row", i+1)
		}
		ids, err := ParseEntityIDs(literal.Value)
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				appErr.WithContext("sprint", name).WithContext("row", i+1)
			}
			return nil, err
		}

		sp := domain.Sprint{Name: name, EntityIDs: ids}
		var ok bool
		if sp.StartDate, ok = parseTime(cols.cell(i, ColSprintStartDate), opts.DateLayouts); !ok {
			ds.UnparsedDates++
		}
		if sp.EndDate, ok = parseTime(cols.cell(i, ColSprintEndDate), opts.DateLayouts); !ok {
			ds.UnparsedDates++
		}
		sprints = append(sprints, sp)
	}
	return sprints, nil
}
