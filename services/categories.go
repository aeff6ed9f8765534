package services

import (
	"regexp"
	"strconv"
	"strings"

	"usedcars-pipeline/models"
)

// Fuel categories.
const (
	FuelGasoline = "Gasoline"
	FuelDiesel   = "Diesel"
	FuelLPG      = "LPG"
	FuelMethane  = "Methane"
	FuelElectric = "Electric"
	FuelHybrid   = "Hybrid"
	FuelOther    = "Other"
)

// Body categories.
const (
	BodySUV         = "SUV/Off-Road"
	BodyWagon       = "Station Wagon"
	BodyCityCar     = "City Car"
	BodySedan       = "Sedan"
	BodyConvertible = "Convertible"
	BodyCoupe       = "Coupe"
	BodyMinivan     = "Minivan"
	BodyVan         = "Van"
	BodyOther       = "Other"
)

const (
	certifiedAffirmative = "Sì"
	singleOwnerThreshold = 1.1
	allWheelDrive        = "Integrale"
	electricMarker       = "elettr"
)

// substringRule maps any value containing substr (lower-cased) to category.
type substringRule struct {
	substr   string
	category string
}

// Rules are checked in order; the first match wins.
var fuelRules = []substringRule{
	{"benz", FuelGasoline},
	{"super", FuelGasoline},
	{"diesel", FuelDiesel},
	{"gpl", FuelLPG},
	{"liqu", FuelLPG},
	{"metano", FuelMethane},
	{"naturale", FuelMethane},
	{electricMarker, FuelElectric},
}

var bodyRules = []substringRule{
	{"suv", BodySUV},
	{"fuoristrada", BodySUV},
	{"wagon", BodyWagon},
	{"city", BodyCityCar},
	{"berl", BodySedan},
	{"cabrio", BodyConvertible},
	{"coup", BodyCoupe},
	{"mono", BodyMinivan},
	{"furg", BodyVan},
}

var ownerCountPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// FuelTypes lists every fuel category, catch-all last.
var FuelTypes = []string{FuelGasoline, FuelDiesel, FuelLPG, FuelMethane, FuelHybrid, FuelElectric, FuelOther}

// BodyTypes lists every body category, catch-all last.
var BodyTypes = []string{BodySedan, BodySUV, BodyWagon, BodyCityCar, BodyMinivan, BodyCoupe, BodyVan, BodyConvertible, BodyOther}

// CategoryMapper collapses free-text categorical fields into fixed enumerations
// and derives the boolean flags.
type CategoryMapper struct{}

func NewCategoryMapper() *CategoryMapper { return &CategoryMapper{} }

// Map rewrites the categorical fields of every listing in place.
func (m *CategoryMapper) Map(t *models.Table) {
	for _, l := range t.Listings {
		fuel := FuelCategory(l.Text(models.FieldFuel))
		if strings.Contains(strings.ToLower(l.Text(models.SourceOtherEnergySource)), electricMarker) {
			fuel = FuelHybrid
		}
		l.Set(models.FieldFuel, fuel)
		l.Set(models.FieldBody, BodyCategory(l.Text(models.FieldBody)))

		l.SetBool(models.FieldCertifiedService, IsCertified(l.Text(models.FieldCertifiedService)))
		l.SetBool(models.FieldSingleOwner, IsSingleOwner(l.Text(models.FieldSingleOwner)))

		if drive, ok := l.Get(models.FieldDriveTrain); ok {
			l.Set(models.FieldDriveTrain, strings.ReplaceAll(drive, "4x4", allWheelDrive))
		}
	}
}

// FuelCategory maps a free-text fuel description to a fuel category.
func FuelCategory(raw string) string {
	return matchCategory(fuelRules, raw, FuelOther)
}

// BodyCategory maps a free-text body description to a body category.
func BodyCategory(raw string) string {
	return matchCategory(bodyRules, raw, BodyOther)
}

func matchCategory(rules []substringRule, raw, fallback string) string {
	if models.IsMissing(raw) {
		return fallback
	}
	s := strings.ToLower(raw)
	for _, r := range rules {
		if strings.Contains(s, r.substr) {
			return r.category
		}
	}
	return fallback
}

// IsCertified reports whether the service-history field is the affirmative answer.
func IsCertified(raw string) bool {
	return strings.TrimSpace(raw) == certifiedAffirmative
}

// IsSingleOwner reports whether the owner count is one. The count is compared
// against a threshold slightly above 1 so "1.0" and "1" both qualify.
func IsSingleOwner(raw string) bool {
	m := ownerCountPattern.FindString(raw)
	if m == "" {
		return false
	}
	n, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return false
	}
	return n < singleOwnerThreshold
}
