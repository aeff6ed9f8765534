package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"usedcars-pipeline/models"
)

const (
	datasetTable = "used_cars"
	runsTable    = "merge_runs"
)

// sqlDialect describes how one database spells the dataset table.
type sqlDialect struct {
	quote       func(string) string
	placeholder func(n int) string
	typeOf      func(models.Kind) string
	boolValue   func(bool) any
}

// datasetColumns is the key followed by every canonical field.
func datasetColumns() []string {
	return models.DatasetHeader()
}

func (d sqlDialect) createTableSQL() string {
	defs := []string{d.quote(models.KeyColumn) + " TEXT PRIMARY KEY"}
	for _, f := range models.CanonicalFields {
		defs = append(defs, d.quote(f.Name)+" "+d.typeOf(f.Kind))
	}
	defs = append(defs, d.quote("run_id")+" TEXT NOT NULL")
	return "CREATE TABLE IF NOT EXISTS " + d.quote(datasetTable) + " (\n\t" + strings.Join(defs, ",\n\t") + "\n)"
}

func (d sqlDialect) indexSQL() []string {
	var out []string
	for _, col := range []string{models.FieldMaker, models.FieldModel, models.FieldRegistration, models.FieldPrice} {
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)",
			d.quote("idx_"+datasetTable+"_"+strings.ToLower(col)), d.quote(datasetTable), d.quote(col)))
	}
	return out
}

// insertSQL builds a multi-row INSERT for rows rows of the dataset columns
// plus run_id. Conflicting keys are skipped.
func (d sqlDialect) insertSQL(rows int) string {
	cols := append(datasetColumns(), "run_id")
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.quote(c)
	}

	values := make([]string, 0, rows)
	n := 1
	for r := 0; r < rows; r++ {
		ph := make([]string, len(cols))
		for i := range cols {
			ph[i] = d.placeholder(n)
			n++
		}
		values = append(values, "("+strings.Join(ph, ",")+")")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) DO NOTHING",
		d.quote(datasetTable), strings.Join(quoted, ","), strings.Join(values, ","), d.quote(models.KeyColumn))
}

// rowArgs converts one listing into driver values in dataset column order.
func (d sqlDialect) rowArgs(l *models.Listing, runID string) []any {
	args := make([]any, 0, len(models.CanonicalFields)+2)
	args = append(args, l.Key)
	for _, f := range models.CanonicalFields {
		args = append(args, d.cellValue(l, f))
	}
	return append(args, runID)
}

func (d sqlDialect) cellValue(l *models.Listing, f models.Field) any {
	switch f.Kind {
	case models.KindNumber:
		if v, ok := l.Float(f.Name); ok {
			return v
		}
		return nil
	case models.KindBool:
		if v, ok := l.Bool(f.Name); ok {
			return d.boolValue(v)
		}
		return nil
	case models.KindDate:
		if v, ok := l.Date(f.Name); ok {
			return v.Format(models.DateLayout)
		}
		return nil
	default:
		if v, ok := l.Get(f.Name); ok {
			return v
		}
		return nil
	}
}

// cellFromSQL renders a scanned driver value the way dataset cells are stored.
func cellFromSQL(kind models.Kind, v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return cellFromSQL(kind, string(x))
	case float64:
		return models.FormatFloat(x)
	case int64:
		if kind == models.KindBool {
			if x != 0 {
				return "True"
			}
			return "False"
		}
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case time.Time:
		return x.Format(models.DateLayout)
	case string:
		if kind == models.KindDate && len(x) > len(models.DateLayout) {
			if t, err := time.Parse(time.RFC3339, x); err == nil {
				return t.Format(models.DateLayout)
			}
		}
		return x
	default:
		return fmt.Sprint(x)
	}
}

func kindOf(column string) models.Kind {
	k, _ := models.FieldKind(column)
	return k
}

// fetchDataset reads the dataset table into a canonical table.
func fetchDataset(ctx context.Context, db *sql.DB, d sqlDialect) (*models.Table, error) {
	cols := datasetColumns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.quote(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(quoted, ","), d.quote(datasetTable), d.quote(models.KeyColumn))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer rows.Close()

	t := models.NewCanonicalTable()
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("fetch dataset: scan row: %w", err)
		}
		l := models.NewListing(cellFromSQL(models.KindText, vals[0]))
		for i, c := range cols[1:] {
			l.Set(c, cellFromSQL(kindOf(c), vals[i+1]))
		}
		t.Append(l)
	}
	return t, rows.Err()
}
