package services

import "usedcars-pipeline/models"

// SchemaProjector forces a table onto the canonical column set.
type SchemaProjector struct{}

func NewSchemaProjector() *SchemaProjector { return &SchemaProjector{} }

// Fill adds every canonical and extraction-source column the table lacks,
// filled with missing values.
func (p *SchemaProjector) Fill(t *models.Table) {
	for _, name := range models.CanonicalNames() {
		t.AddColumn(name)
	}
	for _, name := range models.SourceColumns {
		t.AddColumn(name)
	}
}

// Project adds the missing canonical columns, then drops every other column.
// Adding comes first so new canonical columns survive the drop. Column order
// is left as is; see Reorder.
func (p *SchemaProjector) Project(t *models.Table) {
	for _, name := range models.CanonicalNames() {
		t.AddColumn(name)
	}
	var extra []string
	for _, c := range t.Columns {
		if !models.IsCanonical(c) {
			extra = append(extra, c)
		}
	}
	for _, c := range extra {
		t.DropColumn(c)
	}
}

// Reorder puts the columns of a projected table in canonical order.
func (p *SchemaProjector) Reorder(t *models.Table) {
	t.Columns = models.CanonicalNames()
}
