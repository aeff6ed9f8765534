package services

import (
	"strings"

	"usedcars-pipeline/models"
)

// defaultHeaderAliases maps cleaned raw headers to their canonical names.
var defaultHeaderAliases = map[string]string{
	"Cilindrata":            models.FieldEngineSize,
	"Consumo_di_carburante": models.SourceConsumption,
	"Emissioni_CO₂":         models.FieldEmissions,
	"Peso_a_vuoto":          models.FieldWeight,
	"Usato_garantito":       models.FieldWarrantyMonths,
	"Proprietari":           models.FieldSingleOwner,
}

var headerReplacer = strings.NewReplacer(
	"\n", "_",
	" ", "_",
	";", "",
	".", "",
	",", "",
	":", "",
	"/", "",
	"*", "",
)

// FieldNormalizer turns scraped listing paths into bare identifiers and raw
// column headers into canonical names.
type FieldNormalizer struct {
	listingPrefix string
	aliases       map[string]string
}

// NewFieldNormalizer creates a FieldNormalizer. extraAliases are applied on
// top of the built-in synonyms.
func NewFieldNormalizer(listingPrefix string, extraAliases map[string]string) *FieldNormalizer {
	aliases := make(map[string]string, len(defaultHeaderAliases)+len(extraAliases))
	for from, to := range defaultHeaderAliases {
		aliases[from] = to
	}
	for from, to := range extraAliases {
		aliases[from] = to
	}
	return &FieldNormalizer{listingPrefix: listingPrefix, aliases: aliases}
}

// ListingKey strips the listing path convention from a raw key.
//
//	"/annunci/fiat-panda-1-2-easy-3f2a9c" → "fiat-panda-1-2-easy-3f2a9c"
func (n *FieldNormalizer) ListingKey(raw string) string {
	key := strings.TrimSpace(raw)
	if n.listingPrefix != "" {
		key = strings.TrimPrefix(key, n.listingPrefix)
	}
	return strings.Trim(key, "/")
}

// Header cleans one raw column header and resolves known synonyms.
//
//	"Consumo di\ncarburante" → "Consumo_di_carburante" → "Consumo_di_carburante_L100km"
func (n *FieldNormalizer) Header(raw string) string {
	h := headerReplacer.Replace(raw)
	if canonical, ok := n.aliases[h]; ok {
		return canonical
	}
	return h
}

// Normalize returns a copy of raw with cleaned keys and headers. When two raw
// headers clean to the same name the rightmost column wins.
func (n *FieldNormalizer) Normalize(raw *models.Table) *models.Table {
	headers := make([]string, len(raw.Columns))
	seen := make(map[string]struct{}, len(raw.Columns))
	var columns []string
	for i, c := range raw.Columns {
		h := n.Header(c)
		headers[i] = h
		if _, dup := seen[h]; !dup {
			seen[h] = struct{}{}
			columns = append(columns, h)
		}
	}

	out := models.NewTable(columns)
	for _, l := range raw.Listings {
		nl := models.NewListing(n.ListingKey(l.Key))
		for i, c := range raw.Columns {
			nl.Set(headers[i], l.Values[c])
		}
		out.Append(nl)
	}
	return out
}
