package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"usedcars-pipeline/models"
)

// ErrMalformedDate is returned when a registration date is present but unreadable.
var ErrMalformedDate = errors.New("malformed registration date")

// registrationLayout is month/year, month first.
const registrationLayout = "1/2006"

// minConsumption is the smallest fuel consumption kept; lower figures are placeholders.
const minConsumption = 0.1

var (
	pricePattern       = regexp.MustCompile(`€\s*(\d*)`)
	kmPattern          = regexp.MustCompile(`(\d*)\s*km`)
	powerKWPattern     = regexp.MustCompile(`(\d*)\s*kW`)
	powerCVPattern     = regexp.MustCompile(`\((\d*)\s*CV\)`)
	engineSizePattern  = regexp.MustCompile(`(\d*)\s*cm`)
	weightPattern      = regexp.MustCompile(`(\d*)\s*kg`)
	emissionsPattern   = regexp.MustCompile(`(\d*)\s*g/km\s*\(comb`)
	warrantyPattern    = regexp.MustCompile(`(\d+)\s*(?:mesi)?`)
	consumptionComb    = regexp.MustCompile(`(\d+\.?\d*)\sl/100\skm\s\(comb`)
	consumptionUrb     = regexp.MustCompile(`(\d+\.?\d*)\sl/100\skm\s\(urb`)
	consumptionExtra   = regexp.MustCompile(`(\d+\.?\d*)\sl/100\skm\s\(extraurb`)
	thousandsSeparator = strings.NewReplacer(".", "")
	decimalComma       = strings.NewReplacer(",", ".")
)

// extractRule turns the text in source into a number stored under target.
type extractRule struct {
	target  string
	source  string
	clean   *strings.Replacer
	pattern *regexp.Regexp
	min     float64
}

var extractRules = []extractRule{
	{target: models.FieldMileage, source: models.FieldMileage, clean: thousandsSeparator, pattern: kmPattern},
	{target: models.FieldCarPrice, source: models.FieldCarPrice, clean: thousandsSeparator, pattern: pricePattern},
	{target: models.FieldPrice, source: models.FieldPrice, clean: thousandsSeparator, pattern: pricePattern},
	{target: models.FieldDeposit, source: models.FieldDeposit, clean: thousandsSeparator, pattern: pricePattern},
	{target: models.FieldEngineSize, source: models.FieldEngineSize, clean: thousandsSeparator, pattern: engineSizePattern},
	{target: models.FieldPowerKW, source: models.SourcePower, clean: thousandsSeparator, pattern: powerKWPattern},
	{target: models.FieldPowerCV, source: models.SourcePower, clean: thousandsSeparator, pattern: powerCVPattern},
	{target: models.FieldWeight, source: models.FieldWeight, clean: thousandsSeparator, pattern: weightPattern},
	{target: models.FieldEmissions, source: models.FieldEmissions, clean: thousandsSeparator, pattern: emissionsPattern},
	{target: models.FieldWarrantyMonths, source: models.FieldWarrantyMonths, pattern: warrantyPattern},
	{target: models.FieldConsumptionComb, source: models.SourceConsumption, clean: decimalComma, pattern: consumptionComb, min: minConsumption},
	{target: models.FieldConsumptionUrb, source: models.SourceConsumption, clean: decimalComma, pattern: consumptionUrb, min: minConsumption},
	{target: models.FieldConsumptionExtra, source: models.SourceConsumption, clean: decimalComma, pattern: consumptionExtra, min: minConsumption},
}

// TextExtractor parses numbers, units and dates out of free-text listing fields.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor { return &TextExtractor{} }

// Extract rewrites the numeric and date fields of every listing in place.
// Unmatched text yields a missing value; only an unreadable registration
// date fails the whole table.
func (e *TextExtractor) Extract(t *models.Table) error {
	for _, l := range t.Listings {
		reg, ok, err := ParseRegistration(l.Text(models.FieldRegistration))
		if err != nil {
			return fmt.Errorf("listing %s: %w", l.Key, err)
		}
		l.SetDate(models.FieldRegistration, reg, ok)

		// Targets overlap sources, so snapshot every source before writing.
		sources := make(map[string]string, len(extractRules))
		for _, r := range extractRules {
			sources[r.source] = l.Text(r.source)
		}
		for _, r := range extractRules {
			v, ok := r.apply(sources[r.source])
			l.SetFloat(r.target, v, ok)
		}
	}
	for _, r := range extractRules {
		t.AddColumn(r.target)
	}
	return nil
}

func (r extractRule) apply(raw string) (float64, bool) {
	if r.clean != nil {
		raw = r.clean.Replace(raw)
	}
	v, ok := ExtractNumber(r.pattern, raw)
	if !ok || (r.min > 0 && v < r.min) {
		return 0, false
	}
	return v, true
}

// ExtractNumber returns the first capturing group of pattern in raw as a number.
func ExtractNumber(pattern *regexp.Regexp, raw string) (float64, bool) {
	if models.IsMissing(raw) {
		return 0, false
	}
	m := pattern.FindStringSubmatch(raw)
	if len(m) < 2 || m[1] == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseRegistration reads a month/year registration date such as "03/2019".
// An empty value is missing, not an error.
func ParseRegistration(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if models.IsMissing(raw) {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(registrationLayout, raw)
	if err != nil {
		// Already-normalized values pass through unchanged.
		if iso, isoErr := time.Parse(models.DateLayout, raw); isoErr == nil {
			return iso, true, nil
		}
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	return t, true, nil
}
