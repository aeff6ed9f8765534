package services

import (
	"fmt"

	"usedcars-pipeline/models"
	"usedcars-pipeline/utils"
)

// Cleaner runs one raw batch through the normalization pipeline:
// headers and keys, missing-column fill, text extraction, categorical
// mapping, then schema projection.
type Cleaner struct {
	logger     *utils.Logger
	normalizer *FieldNormalizer
	extractor  *TextExtractor
	mapper     *CategoryMapper
	projector  *SchemaProjector
}

// NewCleaner creates a Cleaner with the given logger and normalizer.
func NewCleaner(logger *utils.Logger, normalizer *FieldNormalizer) *Cleaner {
	return &Cleaner{
		logger:     logger,
		normalizer: normalizer,
		extractor:  NewTextExtractor(),
		mapper:     NewCategoryMapper(),
		projector:  NewSchemaProjector(),
	}
}

// Clean returns the canonical form of raw. raw is not modified.
func (c *Cleaner) Clean(raw *models.Table) (*models.Table, error) {
	t := c.normalizer.Normalize(raw)

	kept := t.Listings[:0]
	for _, l := range t.Listings {
		if l.Key == "" {
			c.logger.Warn("[cleaner] Dropping listing with empty key")
			continue
		}
		kept = append(kept, l)
	}
	t.Listings = kept

	c.projector.Fill(t)
	if err := c.extractor.Extract(t); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	c.mapper.Map(t)
	c.projector.Project(t)
	c.projector.Reorder(t)

	c.logger.Debug("[cleaner] Cleaned %d → %d listings (dropped %d)",
		raw.Len(), t.Len(), raw.Len()-t.Len())
	return t, nil
}
